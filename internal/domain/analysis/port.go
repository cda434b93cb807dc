package analysis

import (
	"context"
	"io"
)

// TextRequest is the JSON body of POST /api/issue-spotter/text.
type TextRequest struct {
	Text         string  `json:"text"`
	Instructions string  `json:"instructions"`
	Style        *string `json:"style"`
	ReturnJSON   bool    `json:"return_json"`
}

// UploadRequest carries the multipart fields of POST /api/issue-spotter/upload.
type UploadRequest struct {
	Instructions string
	Style        string
	ReturnJSON   bool
	File         Upload
	Body         io.Reader
}

// HistoryEntry is one backend-facing conversation turn.
type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// FollowupRequest is the JSON body of POST /api/followup.
type FollowupRequest struct {
	Question    string         `json:"question"`
	Context     string         `json:"context"`
	Instruction string         `json:"instruction"`
	Document    string         `json:"document"`
	History     []HistoryEntry `json:"history"`
}

// FollowupResponse is the success body of POST /api/followup.
type FollowupResponse struct {
	Answer string `json:"answer"`
}

// ErrorResponse is the error body every endpoint returns.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// Backend is the analysis service as seen by the client.
type Backend interface {
	AnalyzeText(ctx context.Context, req TextRequest) (Result, error)
	AnalyzeUpload(ctx context.Context, req UploadRequest) (Result, error)
	Followup(ctx context.Context, req FollowupRequest) (FollowupResponse, error)
}

// Repository persists analysis records server side.
type Repository interface {
	Save(ctx context.Context, r *Record) error
	Get(ctx context.Context, id string) (*Record, error)
	Latest(ctx context.Context, limit int) ([]*Record, error)
}

// DocumentStore keeps uploaded documents server side.
type DocumentStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
}
