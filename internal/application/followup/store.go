package followup

import (
	"strings"

	"github.com/bryanwahyu/lawagent/internal/domain/analysis"
)

// FormSource supplies the metadata of the analysis form when a result is
// recorded without explicit metadata.
type FormSource interface {
	Instructions() string
	Style() string
	Text() string
}

// AnalysisStore holds the latest analysis result and the metadata that
// produced it. Recording a result starts a new conversation generation.
type AnalysisStore struct {
	result     *analysis.Result
	meta       analysis.Metadata
	generation uint64
	form       FormSource
	conv       *Conversation
	persist    func()
}

// NewAnalysisStore creates an empty store bound to conv. form may be nil.
func NewAnalysisStore(conv *Conversation, form FormSource, persist func()) *AnalysisStore {
	if persist == nil {
		persist = func() {}
	}
	return &AnalysisStore{conv: conv, form: form, persist: persist}
}

// Record replaces the latest result, resets the conversation and persists.
// The metadata comes from override when given, otherwise from the form; a
// form without document text keeps the previous document description.
// It returns the new generation.
func (s *AnalysisStore) Record(result analysis.Result, override *analysis.Metadata) uint64 {
	s.result = &result
	switch {
	case override != nil:
		s.meta = *override
	case s.form != nil:
		meta := analysis.Metadata{
			Instructions: analysis.Clamp(s.form.Instructions(), analysis.MaxInstructionsLength),
			Style:        strings.TrimSpace(s.form.Style()),
			Document:     s.meta.Document,
		}
		if text := strings.TrimSpace(s.form.Text()); text != "" {
			meta.Document = analysis.Clamp(text, analysis.MaxDocumentLength)
		}
		s.meta = meta
	}
	s.generation++
	s.conv.clear()
	s.persist()
	return s.generation
}

// Context returns the follow-up context built from the latest result.
func (s *AnalysisStore) Context() (string, error) {
	if s.result == nil {
		return "", ErrNoAnalysis
	}
	ctx := analysis.BuildContext(s.result)
	if ctx == "" {
		return "", ErrNoContext
	}
	return ctx, nil
}

// Latest returns a copy of the latest result, or nil.
func (s *AnalysisStore) Latest() *analysis.Result {
	if s.result == nil {
		return nil
	}
	r := *s.result
	return &r
}

// Metadata returns the metadata of the latest result.
func (s *AnalysisStore) Metadata() analysis.Metadata { return s.meta }

// Generation counts recorded results. It changes whenever the context that
// an in-flight follow-up was built from is replaced.
func (s *AnalysisStore) Generation() uint64 { return s.generation }

func (s *AnalysisStore) hydrate(result *analysis.Result, meta analysis.Metadata) {
	s.result = result
	s.meta = meta
	s.generation++
}
