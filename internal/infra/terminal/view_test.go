package terminal

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/bryanwahyu/lawagent/internal/application/followup"
	"github.com/bryanwahyu/lawagent/internal/domain/analysis"
	"github.com/bryanwahyu/lawagent/internal/domain/conversation"
)

func TestRenderResult(t *testing.T) {
	var out bytes.Buffer
	v := New(&out, nil)

	v.RenderResult(analysis.Result{
		Summary: "1 issue found",
		Findings: []analysis.Finding{{
			Issue: "Liability cap",
			Risk:  analysis.Strptr("High"),
			Span:  &analysis.Span{Page: analysis.Numptr(2), Start: analysis.Numptr(10)},
		}},
		Citations: []analysis.Citation{{Page: analysis.Numptr(2), Snippet: analysis.Strptr("shall not exceed")}},
		RawJSON:   json.RawMessage(`{"a":1}`),
	}, true)

	got := out.String()
	for _, want := range []string{
		"== Summary ==\n1 issue found\n",
		"1. Liability cap\n   Risk: High\n   Page 2 • Chars 10-?\n",
		"[1] Page 2 shall not exceed\n",
		"== JSON ==\n{\n  \"a\": 1\n}\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestRenderResultHidesJSON(t *testing.T) {
	var out bytes.Buffer
	New(&out, nil).RenderResult(analysis.Result{RawJSON: json.RawMessage(`{"a":1}`)}, false)
	if strings.Contains(out.String(), "JSON") {
		t.Errorf("json shown:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "No summary returned.") || !strings.Contains(out.String(), "No findings.") {
		t.Errorf("placeholders missing:\n%s", out.String())
	}
}

func TestTranscriptLabels(t *testing.T) {
	var out, errOut bytes.Buffer
	v := New(&out, &errOut)

	v.RenderTranscript([]conversation.Message{
		{Role: conversation.RoleUser, Content: "Why?"},
		{Role: conversation.RoleAssistant, Content: "Because.\nSee clause 4."},
	})
	v.AppendMessage(conversation.Message{Role: conversation.RoleError, Content: "Network error, please try again."})

	if want := "You: Why?\nLAWAgent: Because.\n  See clause 4.\n"; !strings.Contains(out.String(), want) {
		t.Errorf("transcript = %q", out.String())
	}
	if errOut.String() != "System: Network error, please try again.\n" {
		t.Errorf("error bubble = %q", errOut.String())
	}
}

func TestStatusOnlyWhenVerbose(t *testing.T) {
	var out bytes.Buffer
	v := New(&out, nil)
	v.Status("Analyzing…")
	if out.Len() != 0 {
		t.Fatalf("quiet view printed %q", out.String())
	}
	v.Verbose = true
	v.Status("Analyzing…")
	v.ShowError(followup.OpFollowup, "Enter a follow-up question.")
	if out.String() != "Analyzing…\nerror (followup): Enter a follow-up question.\n" {
		t.Errorf("output = %q", out.String())
	}
}

func TestMutedViewSkipsBubbles(t *testing.T) {
	var out bytes.Buffer
	v := New(&out, nil)
	v.SetMuted(true)
	v.RenderTranscript([]conversation.Message{{Role: conversation.RoleUser, Content: "Why?"}})
	v.AppendMessage(conversation.Message{Role: conversation.RoleAssistant, Content: "Because."})
	if out.Len() != 0 {
		t.Fatalf("muted view printed %q", out.String())
	}
	v.SetMuted(false)
	v.AppendMessage(conversation.Message{Role: conversation.RoleAssistant, Content: "Because."})
	if out.String() != "LAWAgent: Because.\n" {
		t.Errorf("output = %q", out.String())
	}
}
