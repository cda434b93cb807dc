package followup

import (
	"fmt"
	"testing"

	"github.com/bryanwahyu/lawagent/internal/domain/conversation"
)

func TestAppendDisplayRejectsBlankContent(t *testing.T) {
	view := newRecordingView()
	persisted := 0
	conv := NewConversation(view, func() { persisted++ })

	if _, ok := conv.AppendDisplay(conversation.Raw{Role: "user", Content: "   "}, true); ok {
		t.Fatal("blank content accepted")
	}
	if _, ok := conv.AppendDisplay(conversation.Raw{Role: "user", Content: 42.0}, true); ok {
		t.Fatal("non-text content accepted")
	}
	if len(conv.Transcript()) != 0 || view.appends != 0 || persisted != 0 {
		t.Fatalf("rejected message had side effects: transcript=%d appends=%d persisted=%d",
			len(conv.Transcript()), view.appends, persisted)
	}
}

func TestAppendDisplayNormalizesRole(t *testing.T) {
	conv := NewConversation(nil, nil)
	msg, ok := conv.AppendDisplay(conversation.Raw{Role: "SYSTEM", Content: "  hi  "}, false)
	if !ok {
		t.Fatal("message rejected")
	}
	if msg.Role != conversation.RoleAssistant || msg.Content != "hi" {
		t.Fatalf("got %+v", msg)
	}
}

func TestTranscriptEvictionRerenders(t *testing.T) {
	view := newRecordingView()
	conv := NewConversation(view, nil)

	for i := 0; i < conversation.TranscriptLimit; i++ {
		conv.AppendDisplay(conversation.NewRaw(conversation.RoleUser, fmt.Sprintf("m%d", i)), false)
	}
	if view.renders != 0 || view.appends != conversation.TranscriptLimit {
		t.Fatalf("before cap: renders=%d appends=%d", view.renders, view.appends)
	}

	conv.AppendDisplay(conversation.NewRaw(conversation.RoleUser, "overflow"), false)
	got := conv.Transcript()
	if len(got) != conversation.TranscriptLimit {
		t.Fatalf("transcript len = %d", len(got))
	}
	if got[0].Content != "m1" || got[len(got)-1].Content != "overflow" {
		t.Fatalf("wrong window: first=%q last=%q", got[0].Content, got[len(got)-1].Content)
	}
	if view.renders != 1 {
		t.Fatalf("renders = %d, want 1", view.renders)
	}
	if len(view.shown) != len(got) || view.shown[0] != got[0] {
		t.Fatal("view diverged from transcript")
	}
}

func TestHistoryCapAndPayload(t *testing.T) {
	conv := NewConversation(nil, nil)
	for i := 0; i < 70; i++ {
		conv.AppendHistory(conversation.RoleUser, fmt.Sprintf("q%d", i))
		conv.AppendHistory(conversation.RoleAssistant, fmt.Sprintf("a%d", i))
	}
	history := conv.History()
	if len(history) != conversation.HistoryLimit {
		t.Fatalf("history len = %d", len(history))
	}
	if history[0].Content != "q10" || history[0].Role != conversation.RoleUser {
		t.Fatalf("oldest kept = %+v", history[0])
	}

	payload := conv.HistoryPayload()
	if len(payload) != len(history) || payload[1].Role != "assistant" || payload[1].Content != "a10" {
		t.Fatalf("payload mismatch: %+v", payload[1])
	}
}

func TestHistoryMapsErrorRoleToUser(t *testing.T) {
	conv := NewConversation(nil, nil)
	msg, ok := conv.AppendHistory(conversation.RoleError, "oops")
	if !ok || msg.Role != conversation.RoleUser {
		t.Fatalf("got %+v ok=%v", msg, ok)
	}
}

func TestResetClearsAndPersists(t *testing.T) {
	view := newRecordingView()
	persisted := 0
	conv := NewConversation(view, func() { persisted++ })
	conv.AppendDisplay(conversation.NewRaw(conversation.RoleUser, "q"), false)
	conv.AppendHistory(conversation.RoleUser, "q")

	conv.Reset()
	if conv.Transcript() != nil || conv.History() != nil {
		t.Fatal("state not cleared")
	}
	if view.clears != 1 || persisted != 1 {
		t.Fatalf("clears=%d persisted=%d", view.clears, persisted)
	}
	if p := conv.HistoryPayload(); p == nil || len(p) != 0 {
		t.Fatalf("payload = %#v, want empty non-nil", p)
	}
}
