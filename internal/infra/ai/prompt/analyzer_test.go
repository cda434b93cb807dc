package prompt

import (
	"context"
	"strings"
	"testing"

	"github.com/bryanwahyu/lawagent/internal/domain/ai"
	"github.com/bryanwahyu/lawagent/internal/domain/analysis"
)

const sampleContract = "The Supplier's total liability shall not exceed the fees paid.\f" +
	"This Agreement is governed by the laws of England and renews automatically each year."

func TestAnalyzeDocumentFindsClauses(t *testing.T) {
	result := AnalyzeDocument(ai.SpotRequest{Document: sampleContract})

	issues := map[string]analysis.Finding{}
	for _, f := range result.Findings {
		issues[f.Issue] = f
	}
	for _, want := range []string{"Liability cap", "Governing law", "Automatic renewal"} {
		if _, ok := issues[want]; !ok {
			t.Errorf("missing finding %q in %v", want, result.Findings)
		}
	}

	liability := issues["Liability cap"]
	if liability.Span == nil || *liability.Span.Page != 1 || *liability.Span.Start != 21 {
		t.Errorf("liability span = %+v", liability.Span)
	}
	if law := issues["Governing law"]; law.Span == nil || *law.Span.Page != 2 {
		t.Errorf("governing law span = %+v", law.Span)
	}
	if len(result.Citations) != len(result.Findings) {
		t.Errorf("citations = %d, findings = %d", len(result.Citations), len(result.Findings))
	}
	if !strings.HasPrefix(result.Summary, "3 issues found") {
		t.Errorf("summary = %q", result.Summary)
	}
}

func TestAnalyzeDocumentNothingFound(t *testing.T) {
	result := AnalyzeDocument(ai.SpotRequest{Document: "Hello world."})
	if len(result.Findings) != 0 || result.Summary == "" {
		t.Fatalf("result = %+v", result)
	}
}

func TestHeuristicAnswerQuotesMatchingContext(t *testing.T) {
	ctx := "Summary:\n2 issues found\n\nFindings:\n1. Liability cap\nRisk: High\n\n2. Governing law"
	answer, err := Heuristic{}.AnswerFollowup(context.Background(), analysis.FollowupRequest{
		Question: "What about the liability?",
		Context:  ctx,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(answer, "Liability cap") || strings.Contains(answer, "Governing law") {
		t.Fatalf("answer = %q", answer)
	}
}

func TestFollowupMessages(t *testing.T) {
	msgs := FollowupMessages(analysis.FollowupRequest{
		Question:    "Why?",
		Context:     "Summary:\nx",
		Instruction: "Be brief",
		History: []analysis.HistoryEntry{
			{Role: "user", Content: "First?"},
			{Role: "assistant", Content: "Yes."},
			{Role: "system", Content: "  "},
		},
	})
	if len(msgs) != 5 {
		t.Fatalf("messages = %d: %+v", len(msgs), msgs)
	}
	if msgs[0].Content != FollowupSystemPrompt || !strings.Contains(msgs[1].Content, "Reviewer instructions:\nBe brief") {
		t.Errorf("grounding = %+v", msgs[:2])
	}
	last := msgs[len(msgs)-1]
	if last.Role != "user" || !strings.HasSuffix(last.Content, "tone:\nWhy?") {
		t.Errorf("last = %+v", last)
	}
}

func TestGetUserPrompt(t *testing.T) {
	got := GetUserPrompt(ai.SpotRequest{Document: "doc", Instructions: " review ", Style: "plain"})
	want := "Instructions:\nreview\n\nPreferred analysis style: plain\n\nDocument:\ndoc"
	if got != want {
		t.Errorf("GetUserPrompt() = %q, want %q", got, want)
	}
}
