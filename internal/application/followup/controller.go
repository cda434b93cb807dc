package followup

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/bryanwahyu/lawagent/internal/domain/analysis"
	"github.com/bryanwahyu/lawagent/internal/domain/conversation"
)

// Operation names a user-triggered request.
type Operation string

const (
	OpAnalysis Operation = "analysis"
	OpFollowup Operation = "followup"
)

// View is everything the controller renders.
type View interface {
	TranscriptView
	RenderResult(result analysis.Result, showJSON bool)
	SetBusy(op Operation, busy bool)
	Status(text string)
	ShowError(op Operation, text string)
	ClearError(op Operation)
}

// Submission is the analysis form. Exactly one of Text or File is used;
// File wins when both are set.
type Submission struct {
	Text         string
	File         *analysis.Upload
	Body         io.Reader
	Instructions string
	Style        string
	ReturnJSON   bool
}

// Controller runs analyses and follow-up questions against a backend.
// At most one request of each operation is in flight.
type Controller struct {
	backend   analysis.Backend
	session   *Session
	view      View
	logger    *slog.Logger
	analyzing atomic.Bool
	asking    atomic.Bool
}

// NewController wires backend, session and view. view may be nil.
func NewController(backend analysis.Backend, sess *Session, view View, logger *slog.Logger) *Controller {
	if view == nil {
		view = nopControllerView{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{backend: backend, session: sess, view: view, logger: logger}
}

// Session returns the controlled session.
func (c *Controller) Session() *Session { return c.session }

// Restore reloads the persisted session. The transcript is re-rendered by
// the session itself.
func (c *Controller) Restore() bool {
	ok := c.session.Restore()
	if ok {
		c.logger.Debug("follow-up state restored", "messages", len(c.session.Transcript()))
	}
	return ok
}

// Show renders the latest analysis and transcript.
func (c *Controller) Show() {
	if latest := c.session.Latest(); latest != nil {
		c.view.RenderResult(*latest, latest.HasRawJSON())
	}
	c.view.RenderTranscript(c.session.Transcript())
}

// SubmitAnalysis validates sub, sends it to the backend and records the
// result as the new follow-up context.
func (c *Controller) SubmitAnalysis(ctx context.Context, sub Submission) (analysis.Result, error) {
	if !c.analyzing.CompareAndSwap(false, true) {
		return analysis.Result{}, ErrBusy
	}
	defer c.analyzing.Store(false)

	c.view.ClearError(OpAnalysis)
	c.view.ClearError(OpFollowup)

	text := strings.TrimSpace(sub.Text)
	instructions := strings.TrimSpace(sub.Instructions)
	style := strings.TrimSpace(sub.Style)
	if sub.File == nil && text == "" {
		return analysis.Result{}, c.reject(OpAnalysis, ErrNoDocument)
	}
	if instructions == "" {
		return analysis.Result{}, c.reject(OpAnalysis, ErrNoInstructions)
	}

	meta := analysis.Metadata{
		Instructions: analysis.Clamp(instructions, analysis.MaxInstructionsLength),
		Style:        style,
	}

	c.view.SetBusy(OpAnalysis, true)
	defer c.view.SetBusy(OpAnalysis, false)
	c.view.Status(MsgAnalyzing)

	var (
		result analysis.Result
		err    error
	)
	if sub.File != nil {
		meta.Document = analysis.DescribeUpload(sub.File)
		result, err = c.backend.AnalyzeUpload(ctx, analysis.UploadRequest{
			Instructions: instructions,
			Style:        style,
			ReturnJSON:   sub.ReturnJSON,
			File:         *sub.File,
			Body:         sub.Body,
		})
	} else {
		meta.Document = analysis.Clamp(text, analysis.MaxDocumentLength)
		req := analysis.TextRequest{Text: text, Instructions: instructions, ReturnJSON: sub.ReturnJSON}
		if style != "" {
			req.Style = analysis.Strptr(style)
		}
		result, err = c.backend.AnalyzeText(ctx, req)
	}
	if err != nil {
		c.logger.Warn("analysis failed", "error", err)
		c.view.Status(MsgAnalysisFailed)
		c.view.ShowError(OpAnalysis, UserMessage(err, MsgAnalysisFailed))
		return analysis.Result{}, err
	}

	generation := c.session.RecordAnalysis(result, &meta)
	c.logger.Info("analysis recorded", "generation", generation, "findings", len(result.Findings))
	c.view.RenderResult(result, sub.ReturnJSON)
	c.view.Status(MsgAnalysisDone)
	return result, nil
}

// AskFollowup sends question with the current context and history. Backend
// and network failures are shown in the transcript as error messages and
// also returned. An answer for a replaced analysis yields ErrStale.
func (c *Controller) AskFollowup(ctx context.Context, question string) (conversation.Message, error) {
	if !c.asking.CompareAndSwap(false, true) {
		return conversation.Message{}, ErrBusy
	}
	defer c.asking.Store(false)

	c.view.ClearError(OpFollowup)
	turn, err := c.session.BeginFollowup(question)
	if err != nil {
		return conversation.Message{}, c.reject(OpFollowup, err)
	}

	c.view.SetBusy(OpFollowup, true)
	defer c.view.SetBusy(OpFollowup, false)
	c.view.Status(MsgAnswering)

	resp, callErr := c.backend.Followup(ctx, turn.Request)
	if callErr != nil {
		c.logger.Warn("follow-up failed", "error", callErr)
	}
	msg, err := c.session.CompleteFollowup(turn, resp.Answer, callErr)
	c.view.Status("")
	return msg, err
}

func (c *Controller) reject(op Operation, err error) error {
	c.view.ShowError(op, UserMessage(err, ""))
	return err
}

type nopControllerView struct{ nopView }

func (nopControllerView) RenderResult(analysis.Result, bool) {}
func (nopControllerView) SetBusy(Operation, bool)            {}
func (nopControllerView) Status(string)                      {}
func (nopControllerView) ShowError(Operation, string)        {}
func (nopControllerView) ClearError(Operation)               {}
