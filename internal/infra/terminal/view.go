// Package terminal renders the issue spotter on a text terminal.
package terminal

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/bryanwahyu/lawagent/internal/application/followup"
	"github.com/bryanwahyu/lawagent/internal/domain/analysis"
	"github.com/bryanwahyu/lawagent/internal/domain/conversation"
)

// Bubble labels.
const (
	LabelUser      = "You"
	LabelAssistant = "LAWAgent"
	LabelSystem    = "System"
)

// View writes results and chat bubbles to out and errors to errOut.
// Status lines are printed only when Verbose is set.
type View struct {
	mu      sync.Mutex
	out     io.Writer
	errOut  io.Writer
	muted   bool
	Verbose bool
}

var _ followup.View = (*View)(nil)

func New(out, errOut io.Writer) *View {
	if errOut == nil {
		errOut = out
	}
	return &View{out: out, errOut: errOut}
}

// SetMuted suppresses chat bubbles until called with false. Restoring a
// session on every command would otherwise replay the whole transcript.
func (v *View) SetMuted(muted bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.muted = muted
}

// RenderResult prints summary, findings, citations and optionally the raw payload.
func (v *View) RenderResult(result analysis.Result, showJSON bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	summary := strings.TrimSpace(result.Summary)
	if summary == "" {
		summary = "No summary returned."
	}
	v.section("Summary")
	fmt.Fprintln(v.out, summary)

	v.section("Findings")
	if len(result.Findings) == 0 {
		fmt.Fprintln(v.out, "No findings.")
	}
	for i, f := range result.Findings {
		issue := strings.TrimSpace(f.Issue)
		if issue == "" {
			issue = "Untitled finding"
		}
		fmt.Fprintf(v.out, "%d. %s\n", i+1, issue)
		if f.Risk != nil && *f.Risk != "" {
			fmt.Fprintf(v.out, "   Risk: %s\n", *f.Risk)
		}
		if f.Suggestion != nil && *f.Suggestion != "" {
			fmt.Fprintf(v.out, "   Suggestion: %s\n", *f.Suggestion)
		}
		if span := analysis.FormatSpan(f.Span); span != "" {
			fmt.Fprintf(v.out, "   %s\n", span)
		}
	}

	if len(result.Citations) > 0 {
		v.section("Citations")
		for i, c := range result.Citations {
			label := fmt.Sprintf("[%d]", i+1)
			if c.Page != nil {
				label += " Page " + analysis.FormatNumber(*c.Page)
			}
			snippet := ""
			if c.Snippet != nil {
				snippet = strings.TrimSpace(*c.Snippet)
			}
			fmt.Fprintf(v.out, "%s %s\n", label, snippet)
		}
	}

	if showJSON && result.HasRawJSON() {
		v.section("JSON")
		fmt.Fprintln(v.out, analysis.FormatRawJSON(result.RawJSON))
	}
}

func (v *View) section(title string) {
	fmt.Fprintf(v.out, "\n== %s ==\n", title)
}

// AppendMessage prints one chat bubble.
func (v *View) AppendMessage(msg conversation.Message) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.bubble(msg)
}

// RenderTranscript prints the whole conversation.
func (v *View) RenderTranscript(msgs []conversation.Message) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(msgs) == 0 || v.muted {
		return
	}
	v.section("Conversation")
	for _, m := range msgs {
		v.bubble(m)
	}
}

// ClearConversation marks the start of a new conversation. Printed text cannot
// be taken back, so only verbose mode says so.
func (v *View) ClearConversation() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.Verbose || v.muted {
		return
	}
	fmt.Fprintln(v.out, "-- conversation cleared --")
}

func (v *View) bubble(msg conversation.Message) {
	if v.muted {
		return
	}
	w := v.out
	if msg.Role == conversation.RoleError {
		w = v.errOut
	}
	lines := strings.Split(msg.Content, "\n")
	fmt.Fprintf(w, "%s: %s\n", Label(msg.Role), lines[0])
	for _, line := range lines[1:] {
		fmt.Fprintf(w, "  %s\n", line)
	}
}

// Label names the author of a bubble.
func Label(role conversation.Role) string {
	switch role {
	case conversation.RoleUser:
		return LabelUser
	case conversation.RoleAssistant:
		return LabelAssistant
	}
	return LabelSystem
}

func (v *View) SetBusy(followup.Operation, bool) {}

func (v *View) Status(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.Verbose || text == "" {
		return
	}
	fmt.Fprintln(v.errOut, text)
}

func (v *View) ShowError(op followup.Operation, text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintf(v.errOut, "error (%s): %s\n", op, text)
}

func (v *View) ClearError(followup.Operation) {}

// Form answers the fallback metadata questions from flag values.
type Form struct {
	InstructionsValue string
	StyleValue        string
	TextValue         string
}

func (f Form) Instructions() string { return f.InstructionsValue }
func (f Form) Style() string        { return f.StyleValue }
func (f Form) Text() string         { return f.TextValue }
