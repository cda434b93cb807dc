package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// BuildContext renders a result as the grounding text for follow-up
// questions. Sections appear in a fixed order (summary, findings, citations,
// raw JSON) separated by blank lines, and the whole text is clamped to
// MaxContextLength. The output depends only on the result, so it is rebuilt on
// every follow-up instead of cached.
func BuildContext(result *Result) string {
	if result == nil {
		return ""
	}

	var sections []string
	if result.Summary != "" {
		sections = append(sections, "Summary:\n"+result.Summary)
	}

	if len(result.Findings) > 0 {
		items := make([]string, 0, len(result.Findings))
		for i, f := range result.Findings {
			items = append(items, formatFinding(i, f))
		}
		sections = append(sections, "Findings:\n"+strings.Join(items, "\n\n"))
	}

	if len(result.Citations) > 0 {
		lines := make([]string, 0, len(result.Citations))
		for i, c := range result.Citations {
			lines = append(lines, formatCitation(i, c))
		}
		if text := strings.Join(lines, "\n"); strings.TrimSpace(text) != "" {
			sections = append(sections, "Citations:\n"+text)
		}
	}

	if raw := FormatRawJSON(result.RawJSON); raw != "" {
		sections = append(sections, "Raw JSON:\n"+raw)
	}

	return Clamp(strings.Join(sections, "\n\n"), MaxContextLength)
}

func formatFinding(index int, f Finding) string {
	heading := f.Issue
	if heading == "" {
		heading = fmt.Sprintf("Finding %d", index+1)
	}
	parts := []string{fmt.Sprintf("%d. %s", index+1, heading)}
	if f.Risk != nil && *f.Risk != "" {
		parts = append(parts, "Risk: "+*f.Risk)
	}
	if f.Suggestion != nil && *f.Suggestion != "" {
		parts = append(parts, "Suggestion: "+*f.Suggestion)
	}
	if span := FormatSpan(f.Span); span != "" {
		parts = append(parts, "Span: "+span)
	}
	return strings.Join(parts, "\n")
}

// FormatSpan renders "Page n • Chars start-end", with ? for an unknown bound.
func FormatSpan(s *Span) string {
	if s.Empty() {
		return ""
	}
	var parts []string
	if s.Page != nil {
		parts = append(parts, "Page "+FormatNumber(*s.Page))
	}
	if s.Start != nil || s.End != nil {
		parts = append(parts, fmt.Sprintf("Chars %s-%s", boundOrUnknown(s.Start), boundOrUnknown(s.End)))
	}
	return strings.Join(parts, " • ")
}

func formatCitation(index int, c Citation) string {
	label := fmt.Sprintf("Citation %d", index+1)
	if c.Page != nil {
		label = "Page " + FormatNumber(*c.Page)
	}
	snippet := ""
	if c.Snippet != nil {
		snippet = *c.Snippet
	}
	return strings.TrimSpace(label + ": " + snippet)
}

// FormatRawJSON returns a JSON string payload as is and indents anything else
// with two spaces. Key order follows the payload.
func FormatRawJSON(raw json.RawMessage) string {
	if isNull(raw) {
		return ""
	}
	if s, ok := decodeString(raw); ok {
		return s
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, bytes.TrimSpace(raw), "", "  "); err != nil {
		return ""
	}
	return buf.String()
}

func boundOrUnknown(n *float64) string {
	if n == nil {
		return "?"
	}
	return FormatNumber(*n)
}

// FormatNumber prints integral values without a fraction.
func FormatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
