package followup

import (
	"github.com/bryanwahyu/lawagent/internal/domain/analysis"
	"github.com/bryanwahyu/lawagent/internal/domain/conversation"
)

// TranscriptView renders the visible conversation.
type TranscriptView interface {
	// AppendMessage adds one bubble after the existing ones.
	AppendMessage(msg conversation.Message)
	// RenderTranscript replaces everything shown with msgs.
	RenderTranscript(msgs []conversation.Message)
	// ClearConversation removes every bubble.
	ClearConversation()
}

// Conversation owns the display transcript and the backend history of one
// follow-up dialogue and keeps both within their caps.
//
// Conversation is not safe for concurrent use. Session serializes access.
type Conversation struct {
	transcript []conversation.Message
	history    []conversation.HistoryMessage
	view       TranscriptView
	persist    func()
}

// NewConversation creates an empty conversation. persist is called whenever
// a mutation asks for a write; it may be nil.
func NewConversation(view TranscriptView, persist func()) *Conversation {
	if view == nil {
		view = nopView{}
	}
	if persist == nil {
		persist = func() {}
	}
	return &Conversation{view: view, persist: persist}
}

// AppendDisplay normalizes raw and appends it to the transcript. When the cap
// is exceeded the oldest entries are dropped and the whole transcript is
// re-rendered, so the visible list always matches the stored one. It returns
// false, without side effects, if raw is not a valid message.
func (c *Conversation) AppendDisplay(raw conversation.Raw, persist bool) (conversation.Message, bool) {
	msg, ok := conversation.NormalizeMessage(raw)
	if !ok {
		return conversation.Message{}, false
	}

	c.transcript = append(c.transcript, msg)
	if len(c.transcript) > conversation.TranscriptLimit {
		c.transcript = keepLast(c.transcript, conversation.TranscriptLimit)
		c.view.RenderTranscript(c.Transcript())
	} else {
		c.view.AppendMessage(msg)
	}

	if persist {
		c.persist()
	}
	return msg, true
}

// AppendHistory sanitizes and appends one backend history turn, dropping the
// oldest turns past HistoryLimit. It does not persist; callers persist once
// the whole exchange is recorded.
func (c *Conversation) AppendHistory(role conversation.Role, content string) (conversation.HistoryMessage, bool) {
	msg, ok := conversation.SanitizeHistory(conversation.NewRaw(role, content))
	if !ok {
		return conversation.HistoryMessage{}, false
	}
	c.history = append(c.history, msg)
	if len(c.history) > conversation.HistoryLimit {
		c.history = keepLast(c.history, conversation.HistoryLimit)
	}
	return msg, true
}

// Reset clears transcript, history and the rendered conversation, then persists.
func (c *Conversation) Reset() {
	c.clear()
	c.persist()
}

func (c *Conversation) clear() {
	c.transcript = nil
	c.history = nil
	c.view.ClearConversation()
}

// HistoryPayload returns the history as the role/content pairs sent to the
// backend. It is never nil.
func (c *Conversation) HistoryPayload() []analysis.HistoryEntry {
	out := make([]analysis.HistoryEntry, 0, len(c.history))
	for _, m := range c.history {
		out = append(out, analysis.HistoryEntry{Role: string(m.Role), Content: m.Content})
	}
	return out
}

// Transcript returns a copy of the display transcript.
func (c *Conversation) Transcript() []conversation.Message {
	if len(c.transcript) == 0 {
		return nil
	}
	out := make([]conversation.Message, len(c.transcript))
	copy(out, c.transcript)
	return out
}

// History returns a copy of the backend history.
func (c *Conversation) History() []conversation.HistoryMessage {
	if len(c.history) == 0 {
		return nil
	}
	out := make([]conversation.HistoryMessage, len(c.history))
	copy(out, c.history)
	return out
}

// hydrate replaces the state with already validated messages and re-renders.
func (c *Conversation) hydrate(transcript []conversation.Message, history []conversation.HistoryMessage) {
	c.transcript = keepLast(append([]conversation.Message(nil), transcript...), conversation.TranscriptLimit)
	c.history = keepLast(append([]conversation.HistoryMessage(nil), history...), conversation.HistoryLimit)
	c.view.RenderTranscript(c.Transcript())
}

func keepLast[T any](items []T, n int) []T {
	if len(items) <= n {
		return items
	}
	return items[len(items)-n:]
}

type nopView struct{}

func (nopView) AppendMessage(conversation.Message)      {}
func (nopView) RenderTranscript([]conversation.Message) {}
func (nopView) ClearConversation()                      {}
