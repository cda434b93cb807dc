package prompt

import (
	"fmt"
	"strings"

	"github.com/bryanwahyu/lawagent/internal/domain/ai"
	"github.com/bryanwahyu/lawagent/internal/domain/analysis"
)

// Message is one chat turn handed to a provider.
type Message struct {
	Role    string
	Content string
}

// GetSystemPrompt provides strict directions and schema for the issue spotter JSON output.
func GetSystemPrompt() string {
	return `You are acting as a litigation associate at a commercial litigation firm. You must produce one valid JSON object only (no markdown, no commentary) that follows the schema below. Do not include code fences.

Requirements:
- Identify all legal issues or causes of action raised in the document (e.g. breach of contract, misrepresentation, unenforceable clauses).
- summary is 1-3 sentences covering the document as a whole.
- findings is an array; every item has an issue title, a risk explanation of 1-2 sentences and a practical suggestion.
- span locates the finding when you can tell: page number and character offsets into the supplied text. Omit unknown fields.
- citations quote short snippets of the document that support the findings.

Schema (example with empty values):
{
  "summary": "<string>",
  "findings": [
    {
      "issue": "<string>",
      "risk": "<string>",
      "suggestion": "<string>",
      "span": {"page": 1, "start": 0, "end": 0}
    }
  ],
  "citations": [
    {"page": 1, "snippet": "<string>"}
  ]
}`
}

// GetUserPrompt wraps the document and reviewer instructions.
func GetUserPrompt(req ai.SpotRequest) string {
	var b strings.Builder
	b.WriteString("Instructions:\n")
	b.WriteString(strings.TrimSpace(req.Instructions))
	if style := strings.TrimSpace(req.Style); style != "" {
		fmt.Fprintf(&b, "\n\nPreferred analysis style: %s", style)
	}
	b.WriteString("\n\nDocument:\n")
	b.WriteString(req.Document)
	return b.String()
}

// FollowupSystemPrompt sets the tone of follow-up answers.
const FollowupSystemPrompt = "You are LAWAgent's conversational follow-up assistant. " +
	"Use the supplied issue spotter analysis to answer questions clearly, " +
	"empathetically, and with practical legal insight. Reference the context when useful."

// FollowupMessages builds the chat for one follow-up question: the system
// prompt, the analysis grounding, prior turns, then the question.
func FollowupMessages(req analysis.FollowupRequest) []Message {
	grounding := "Here is the prior issue spotter analysis for context:\n" + req.Context
	if req.Instruction != "" {
		grounding += "\n\nReviewer instructions:\n" + req.Instruction
	}
	if req.Document != "" {
		grounding += "\n\nDocument excerpt:\n" + req.Document
	}

	msgs := []Message{
		{Role: "system", Content: FollowupSystemPrompt},
		{Role: "system", Content: grounding},
	}
	for _, h := range req.History {
		role := strings.ToLower(strings.TrimSpace(h.Role))
		if role != "assistant" {
			role = "user"
		}
		if content := strings.TrimSpace(h.Content); content != "" {
			msgs = append(msgs, Message{Role: role, Content: content})
		}
	}
	msgs = append(msgs, Message{
		Role:    "user",
		Content: "Answer the user's follow-up question in a conversational, explanatory tone:\n" + req.Question,
	})
	return msgs
}
