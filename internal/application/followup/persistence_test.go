package followup

import (
	"context"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/bryanwahyu/lawagent/internal/domain/analysis"
	"github.com/bryanwahyu/lawagent/internal/domain/conversation"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPersisterRoundTrip(t *testing.T) {
	store := newMapStore()
	p := NewPersister(store, quietLogger())

	result := sampleResult()
	result.RawJSON = []byte(`{"a":1}`)
	p.Save(Snapshot{
		Transcript:     []conversation.Message{{Role: conversation.RoleUser, Content: "q"}, {Role: conversation.RoleError, Content: "Network error, please try again."}},
		History:        []conversation.HistoryMessage{{Role: conversation.RoleUser, Content: "q"}},
		LatestAnalysis: &result,
		Instruction:    "review",
		Style:          "concise",
		Document:       "text",
	})

	snap := p.Load()
	if snap == nil {
		t.Fatal("nothing loaded")
	}
	if len(snap.Transcript) != 2 || snap.Transcript[1].Role != conversation.RoleError {
		t.Fatalf("transcript = %+v", snap.Transcript)
	}
	if len(snap.History) != 1 || snap.Instruction != "review" || snap.Style != "concise" || snap.Document != "text" {
		t.Fatalf("snapshot = %+v", snap)
	}
	if snap.LatestAnalysis == nil || snap.LatestAnalysis.Summary != "1 issue found" || string(snap.LatestAnalysis.RawJSON) != `{"a":1}` {
		t.Fatalf("analysis = %+v", snap.LatestAnalysis)
	}
}

func TestSessionSurvivesSaveAndRestore(t *testing.T) {
	h := newHarness()
	h.backend.result = analysis.Result{
		Summary: "2 issues found",
		Findings: []analysis.Finding{
			{Issue: "Liability cap", Risk: analysis.Strptr("High"), Span: &analysis.Span{Page: analysis.Numptr(0), Start: analysis.Numptr(3)}},
			{Issue: "Governing law"},
		},
		Citations: []analysis.Citation{
			{Page: analysis.Numptr(0), Snippet: analysis.Strptr("shall not exceed")},
			{Snippet: analysis.Strptr("laws of England")},
		},
		RawJSON: []byte(`{"zeta":1,"alpha":[2,3]}`),
	}
	h.analyze(t)
	if _, err := h.ctrl.AskFollowup(context.Background(), "What is capped?"); err != nil {
		t.Fatal(err)
	}
	h.backend.mu.Lock()
	h.backend.followErr = errBoom
	h.backend.mu.Unlock()
	if _, err := h.ctrl.AskFollowup(context.Background(), "And the law?"); err == nil {
		t.Fatal("expected the second follow-up to fail")
	}

	before := h.ctrl.Session().Snapshot()
	if len(before.Transcript) != 4 || before.Transcript[3].Role != conversation.RoleError {
		t.Fatalf("transcript = %+v", before.Transcript)
	}

	restored := NewSession(NewPersister(h.store, quietLogger()), nil, nil, quietLogger())
	if !restored.Restore() {
		t.Fatal("nothing restored")
	}
	if after := restored.Snapshot(); !reflect.DeepEqual(before, after) {
		t.Fatalf("restored snapshot differs\nbefore %+v\nafter  %+v", before, after)
	}
}

func TestPersisterLoadTolerance(t *testing.T) {
	cases := []struct {
		name   string
		stored string
		check  func(t *testing.T, snap *Snapshot)
	}{
		{
			name:   "corrupt",
			stored: `{not json`,
			check: func(t *testing.T, snap *Snapshot) {
				if snap != nil {
					t.Fatalf("got %+v, want nil", snap)
				}
			},
		},
		{
			name:   "invalid messages dropped",
			stored: `{"transcript":[{"role":"user","content":"ok"},{"role":"user","content":"  "},7,{"content":"no role"}],"history":[{"role":"error","content":"e"},{"role":"user"}]}`,
			check: func(t *testing.T, snap *Snapshot) {
				if len(snap.Transcript) != 2 || snap.Transcript[1].Role != conversation.RoleAssistant {
					t.Fatalf("transcript = %+v", snap.Transcript)
				}
				if len(snap.History) != 1 || snap.History[0].Role != conversation.RoleUser {
					t.Fatalf("history = %+v", snap.History)
				}
			},
		},
		{
			name:   "non-text metadata and malformed analysis",
			stored: `{"transcript":"nope","latestAnalysis":"x","instruction":5,"style":null,"document":"doc"}`,
			check: func(t *testing.T, snap *Snapshot) {
				if snap.Transcript != nil || snap.LatestAnalysis != nil {
					t.Fatalf("snapshot = %+v", snap)
				}
				if snap.Instruction != "" || snap.Style != "" || snap.Document != "doc" {
					t.Fatalf("metadata = %q %q %q", snap.Instruction, snap.Style, snap.Document)
				}
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newMapStore()
			store.values[StateKey] = tc.stored
			tc.check(t, NewPersister(store, quietLogger()).Load())
		})
	}
}

func TestPersisterSwallowsStoreErrors(t *testing.T) {
	store := newMapStore()
	store.err = errBoom
	p := NewPersister(store, quietLogger())

	p.Save(Snapshot{})
	if snap := p.Load(); snap != nil {
		t.Fatalf("got %+v", snap)
	}
}

func TestPersisterDisabled(t *testing.T) {
	var p *Persister
	p.Save(Snapshot{})
	p.Clear()
	if p.Load() != nil {
		t.Fatal("nil persister loaded state")
	}
	if NewPersister(nil, nil).Enabled() {
		t.Fatal("persister without store reports enabled")
	}
}

func TestSessionRestoreRerenders(t *testing.T) {
	store := newMapStore()
	first := NewSession(NewPersister(store, quietLogger()), nil, nil, quietLogger())
	meta := analysis.Metadata{Instructions: "review", Document: "doc"}
	first.RecordAnalysis(sampleResult(), &meta)
	first.AppendMessage(conversation.RoleUser, "hello")

	view := newRecordingView()
	second := NewSession(NewPersister(store, quietLogger()), view, nil, quietLogger())
	if !second.Restore() {
		t.Fatal("nothing restored")
	}
	if view.renders != 1 || len(view.shown) != 1 || view.shown[0].Content != "hello" {
		t.Fatalf("view = %+v renders=%d", view.shown, view.renders)
	}
	if second.Metadata() != meta || second.Latest() == nil {
		t.Fatalf("metadata = %+v", second.Metadata())
	}
}
