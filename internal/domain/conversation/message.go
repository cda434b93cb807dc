// Package conversation defines the two message shapes of a follow-up
// dialogue and the rules that admit a raw message into either of them.
//
// The display transcript (Message) may hold locally generated error turns.
// The backend history (HistoryMessage) only ever holds user and assistant
// turns, because the follow-up API models a two-party exchange.
package conversation

import "strings"

// Role of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleError     Role = "error"
	RoleSystem    Role = "system"
)

const (
	// TranscriptLimit bounds the display transcript.
	TranscriptLimit = 60
	// HistoryLimit bounds the backend history: one user and one assistant
	// turn per retained exchange.
	HistoryLimit = TranscriptLimit * 2
)

// Message is a display transcript entry. Content is trimmed and non-empty.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// HistoryMessage is a backend history entry. Role is user or assistant.
type HistoryMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Raw is a message as it arrives from storage or a caller, before
// validation. Either field may hold any JSON type or be missing.
type Raw struct {
	Role    any `json:"role"`
	Content any `json:"content"`
}

// NewRaw wraps typed values as a Raw.
func NewRaw(role Role, content string) Raw {
	return Raw{Role: string(role), Content: content}
}

// NormalizeMessage admits raw into the display transcript. It returns false
// when content is missing, not text, or blank. Roles user, assistant and
// error are kept, system becomes assistant, any other text becomes user, and
// a missing role defaults to assistant.
func NormalizeMessage(raw Raw) (Message, bool) {
	content, ok := textContent(raw.Content)
	if !ok {
		return Message{}, false
	}
	role := RoleAssistant
	if s, isText := raw.Role.(string); isText {
		switch r := Role(strings.ToLower(s)); r {
		case RoleUser, RoleAssistant, RoleError:
			role = r
		case RoleSystem:
			role = RoleAssistant
		default:
			role = RoleUser
		}
	}
	return Message{Role: role, Content: content}, true
}

// SanitizeHistory admits raw into the backend history. It returns false when
// content is missing, not text, or blank. Roles user and assistant are kept,
// system becomes assistant, and anything else (including error or a missing
// role) becomes user.
func SanitizeHistory(raw Raw) (HistoryMessage, bool) {
	content, ok := textContent(raw.Content)
	if !ok {
		return HistoryMessage{}, false
	}
	role := RoleUser
	if s, isText := raw.Role.(string); isText {
		switch r := Role(strings.ToLower(s)); r {
		case RoleUser, RoleAssistant:
			role = r
		case RoleSystem:
			role = RoleAssistant
		}
	}
	return HistoryMessage{Role: role, Content: content}, true
}

func textContent(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// Raw returns m as an unvalidated message.
func (m Message) Raw() Raw { return NewRaw(m.Role, m.Content) }

// Raw returns h as an unvalidated message.
func (h HistoryMessage) Raw() Raw { return NewRaw(h.Role, h.Content) }
