package followup

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/bryanwahyu/lawagent/internal/domain/analysis"
	"github.com/bryanwahyu/lawagent/internal/domain/conversation"
)

// Session ties the conversation, the latest analysis and persistence
// together. Every mutating method persists before it returns.
type Session struct {
	mu        sync.Mutex
	conv      *Conversation
	analyses  *AnalysisStore
	persister *Persister
	logger    *slog.Logger
}

// Turn is a follow-up request captured against one analysis generation.
type Turn struct {
	Request    analysis.FollowupRequest
	Generation uint64
}

// NewSession creates an empty session. persister, view and form may be nil.
func NewSession(persister *Persister, view TranscriptView, form FormSource, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{persister: persister, logger: logger}
	s.conv = NewConversation(view, s.persistLocked)
	s.analyses = NewAnalysisStore(s.conv, form, s.persistLocked)
	return s
}

// Restore loads the persisted snapshot. It reports whether one was found.
func (s *Session) Restore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.persister.Load()
	if snap == nil {
		return false
	}
	s.analyses.hydrate(snap.LatestAnalysis, analysis.Metadata{
		Instructions: snap.Instruction,
		Style:        snap.Style,
		Document:     snap.Document,
	})
	s.conv.hydrate(snap.Transcript, snap.History)
	return true
}

// RecordAnalysis stores result as the latest analysis and starts a fresh
// conversation. It returns the new generation.
func (s *Session) RecordAnalysis(result analysis.Result, meta *analysis.Metadata) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.analyses.Record(result, meta)
}

// Reset clears the conversation but keeps the latest analysis.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conv.Reset()
}

// Forget drops everything, including the stored snapshot.
func (s *Session) Forget() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analyses.hydrate(nil, analysis.Metadata{})
	s.conv.clear()
	s.persister.Clear()
}

// AppendMessage adds a message to the transcript and persists.
func (s *Session) AppendMessage(role conversation.Role, content string) (conversation.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv.AppendDisplay(conversation.NewRaw(role, content), true)
}

// BeginFollowup validates that a context exists, shows question in the
// transcript and captures the request to send.
func (s *Session) BeginFollowup(question string) (Turn, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Turn{}, ErrEmptyQuestion
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, err := s.analyses.Context()
	if err != nil {
		return Turn{}, err
	}
	meta := s.analyses.Metadata()
	req := analysis.FollowupRequest{
		Question:    question,
		Context:     ctx,
		Instruction: analysis.InstructionContext(meta),
		Document:    analysis.Clamp(meta.Document, analysis.MaxDocumentLength),
		History:     s.conv.HistoryPayload(),
	}
	s.conv.AppendDisplay(conversation.NewRaw(conversation.RoleUser, question), true)
	return Turn{Request: req, Generation: s.analyses.Generation()}, nil
}

// CompleteFollowup records the outcome of turn. If a newer analysis was
// recorded meanwhile the outcome is discarded and ErrStale returned. On
// failure an error message is shown and callErr returned; on success the
// answer is shown and both turns join the history.
func (s *Session) CompleteFollowup(turn Turn, answer string, callErr error) (conversation.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.analyses.Generation() != turn.Generation {
		s.logger.Info("discarding follow-up answer for a replaced analysis",
			"generation", turn.Generation, "current", s.analyses.Generation())
		return conversation.Message{}, ErrStale
	}

	answer = strings.TrimSpace(answer)
	if callErr == nil && answer == "" {
		callErr = ErrEmptyAnswer
	}
	if callErr != nil {
		msg, _ := s.conv.AppendDisplay(conversation.NewRaw(conversation.RoleError, UserMessage(callErr, MsgFollowupFailed)), true)
		return msg, callErr
	}

	msg, _ := s.conv.AppendDisplay(conversation.NewRaw(conversation.RoleAssistant, answer), false)
	s.conv.AppendHistory(conversation.RoleUser, turn.Request.Question)
	s.conv.AppendHistory(conversation.RoleAssistant, answer)
	s.persistLocked()
	return msg, nil
}

// Latest returns the latest analysis result, or nil.
func (s *Session) Latest() *analysis.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.analyses.Latest()
}

// Metadata returns the metadata of the latest analysis.
func (s *Session) Metadata() analysis.Metadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.analyses.Metadata()
}

// Generation returns the current analysis generation.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.analyses.Generation()
}

// Transcript returns a copy of the display transcript.
func (s *Session) Transcript() []conversation.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv.Transcript()
}

// History returns a copy of the backend history.
func (s *Session) History() []conversation.HistoryMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv.History()
}

// Snapshot returns the state that would be persisted.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	meta := s.analyses.Metadata()
	return Snapshot{
		Transcript:     s.conv.Transcript(),
		History:        s.conv.History(),
		LatestAnalysis: s.analyses.Latest(),
		Instruction:    meta.Instructions,
		Style:          meta.Style,
		Document:       meta.Document,
	}
}

// persistLocked must be called with s.mu held.
func (s *Session) persistLocked() {
	s.persister.Save(s.snapshotLocked())
}
