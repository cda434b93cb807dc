package spotter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bryanwahyu/lawagent/internal/application"
	"github.com/bryanwahyu/lawagent/internal/domain/ai"
	"github.com/bryanwahyu/lawagent/internal/domain/analysis"
	"github.com/bryanwahyu/lawagent/internal/observability"
)

// Validation messages returned to callers as the response detail.
const (
	MsgQuestionRequired     = "Follow-up question is required."
	MsgContextRequired      = "Analysis context is required."
	MsgInstructionsRequired = "Instructions are required."
	MsgDocumentRequired     = "Document text is required."
)

// ValidationError is a request the service refuses to act on.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ErrNoHistory is returned by the history use-cases when no repository is configured.
var ErrNoHistory = errors.New("analysis history is not configured")

// Service implements the issue-spotter use-cases. Repo and Documents are
// optional; without them analyses are not recorded and uploads are not kept.
type Service struct {
	AI        ai.Client
	Repo      analysis.Repository
	Documents analysis.DocumentStore
	Clock     application.Clock
}

func NewService(client ai.Client, repo analysis.Repository, docs analysis.DocumentStore) *Service {
	return &Service{AI: client, Repo: repo, Documents: docs, Clock: application.SystemClock{}}
}

// UploadCommand is an uploaded document that has already been read and
// decoded as text.
type UploadCommand struct {
	Instructions string
	Style        string
	ReturnJSON   bool
	File         analysis.Upload
	Data         []byte
	Text         string
}

// AnalyzeText spots issues in pasted text.
func (s *Service) AnalyzeText(ctx context.Context, req analysis.TextRequest) (analysis.Result, error) {
	style := ""
	if req.Style != nil {
		style = strings.TrimSpace(*req.Style)
	}
	return s.analyze(ctx, analysis.SourceText, req.Text, req.Instructions, style, req.ReturnJSON, nil)
}

// AnalyzeUpload spots issues in an uploaded document and keeps a copy of it
// when a document store is configured.
func (s *Service) AnalyzeUpload(ctx context.Context, cmd UploadCommand) (analysis.Result, error) {
	return s.analyze(ctx, analysis.SourceUpload, cmd.Text, cmd.Instructions, strings.TrimSpace(cmd.Style), cmd.ReturnJSON, &cmd)
}

func (s *Service) analyze(ctx context.Context, source analysis.Source, document, instructions, style string, returnJSON bool, upload *UploadCommand) (analysis.Result, error) {
	instructions = strings.TrimSpace(instructions)
	if strings.TrimSpace(document) == "" {
		return analysis.Result{}, &ValidationError{Message: MsgDocumentRequired}
	}
	if instructions == "" {
		return analysis.Result{}, &ValidationError{Message: MsgInstructionsRequired}
	}

	result, err := s.AI.SpotIssues(ctx, ai.SpotRequest{Document: document, Instructions: instructions, Style: style})
	if err != nil {
		return analysis.Result{}, fmt.Errorf("spot issues: %w", err)
	}
	result.RawJSON = nil
	if result.Findings == nil {
		result.Findings = []analysis.Finding{}
	}
	if result.Citations == nil {
		result.Citations = []analysis.Citation{}
	}

	record := &analysis.Record{
		ID:           uuid.New().String(),
		Source:       source,
		Instructions: instructions,
		Style:        style,
		CreatedAt:    s.now(),
	}
	if upload != nil {
		record.DocumentURL = s.storeDocument(ctx, record.ID, upload)
	}
	s.record(ctx, record, result)

	if returnJSON {
		raw, err := json.Marshal(result)
		if err != nil {
			return analysis.Result{}, fmt.Errorf("encode raw json: %w", err)
		}
		result.RawJSON = raw
	}
	return result, nil
}

// Followup answers a question about an earlier analysis.
func (s *Service) Followup(ctx context.Context, req analysis.FollowupRequest) (analysis.FollowupResponse, error) {
	req.Question = strings.TrimSpace(req.Question)
	req.Context = strings.TrimSpace(req.Context)
	if req.Question == "" {
		return analysis.FollowupResponse{}, &ValidationError{Message: MsgQuestionRequired}
	}
	if req.Context == "" {
		return analysis.FollowupResponse{}, &ValidationError{Message: MsgContextRequired}
	}

	answer, err := s.AI.AnswerFollowup(ctx, req)
	if err != nil {
		return analysis.FollowupResponse{}, fmt.Errorf("answer followup: %w", err)
	}
	return analysis.FollowupResponse{Answer: answer}, nil
}

// Recent lists the latest recorded analyses, newest first.
func (s *Service) Recent(ctx context.Context, limit int) ([]*analysis.Record, error) {
	if s.Repo == nil {
		return nil, ErrNoHistory
	}
	return s.Repo.Latest(ctx, limit)
}

// Get returns one recorded analysis, or nil when it does not exist.
func (s *Service) Get(ctx context.Context, id string) (*analysis.Record, error) {
	if s.Repo == nil {
		return nil, ErrNoHistory
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	return s.Repo.Get(ctx, id)
}

// storeDocument keeps a copy of the uploaded file. Failures are logged and the
// analysis goes on without a document URL.
func (s *Service) storeDocument(ctx context.Context, id string, cmd *UploadCommand) string {
	if s.Documents == nil || len(cmd.Data) == 0 {
		return ""
	}
	name := path.Base(strings.ReplaceAll(cmd.File.Name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "document"
	}
	key := path.Join("uploads", id, name)
	url, err := s.Documents.Put(ctx, key, bytes.NewReader(cmd.Data), int64(len(cmd.Data)), cmd.File.ContentType)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn("store uploaded document", "key", key, "error", err)
		return ""
	}
	return url
}

func (s *Service) record(ctx context.Context, rec *analysis.Record, result analysis.Result) {
	if s.Repo == nil {
		return
	}
	raw, err := json.Marshal(result)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn("encode analysis record", "id", rec.ID, "error", err)
		return
	}
	rec.Result = string(raw)
	if err := s.Repo.Save(ctx, rec); err != nil {
		observability.LoggerFromContext(ctx).Warn("save analysis record", "id", rec.ID, "error", err)
	}
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now()
}
