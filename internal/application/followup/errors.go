package followup

import (
	"errors"

	"github.com/bryanwahyu/lawagent/internal/domain/analysis"
)

var (
	ErrNoDocument     = errors.New("no document provided")
	ErrNoInstructions = errors.New("instructions are required")
	ErrEmptyQuestion  = errors.New("follow-up question is empty")
	ErrNoAnalysis     = errors.New("no analysis recorded")
	ErrNoContext      = errors.New("analysis context is empty")
	ErrBusy           = errors.New("request already in flight")
	ErrStale          = errors.New("analysis changed while the request was in flight")
	ErrEmptyAnswer    = errors.New("backend returned no answer")
)

// User-facing messages.
const (
	MsgNoDocument     = "Upload a document or paste text to analyze."
	MsgNoInstructions = "Instructions are required."
	MsgEmptyQuestion  = "Enter a follow-up question."
	MsgNoAnalysis     = "Run an analysis before asking a follow-up question."
	MsgNoContext      = "Analysis context is unavailable. Please rerun the analysis."
	MsgEmptyAnswer    = "The AI did not return an answer."
	MsgNetwork        = "Network error, please try again."
	MsgFollowupFailed = "Unable to process the follow-up question."
	MsgAnalysisFailed = "Analysis failed."
	MsgAnalyzing      = "Analyzing…"
	MsgAnalysisDone   = "Analysis complete."
	MsgAnswering      = "Thinking…"
)

// UserMessage maps err to the text shown to the user. fallback is used for
// backend errors that carry no detail.
func UserMessage(err error, fallback string) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoDocument):
		return MsgNoDocument
	case errors.Is(err, ErrNoInstructions):
		return MsgNoInstructions
	case errors.Is(err, ErrEmptyQuestion):
		return MsgEmptyQuestion
	case errors.Is(err, ErrNoAnalysis):
		return MsgNoAnalysis
	case errors.Is(err, ErrNoContext):
		return MsgNoContext
	case errors.Is(err, ErrEmptyAnswer):
		return MsgEmptyAnswer
	case errors.Is(err, analysis.ErrTransport):
		return MsgNetwork
	}
	var be *analysis.BackendError
	if errors.As(err, &be) {
		return analysis.DetailOr(err, fallback)
	}
	return MsgNetwork
}
