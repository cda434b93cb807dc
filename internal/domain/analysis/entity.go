package analysis

import (
	"encoding/json"
	"time"
)

// Span locates a finding inside the analyzed document. Every bound is optional.
type Span struct {
	Page  *float64 `json:"page,omitempty"`
	Start *float64 `json:"start,omitempty"`
	End   *float64 `json:"end,omitempty"`
}

// Empty reports whether no bound is known.
func (s *Span) Empty() bool {
	return s == nil || (s.Page == nil && s.Start == nil && s.End == nil)
}

// Finding is one issue spotted by the backend.
type Finding struct {
	Issue      string  `json:"issue"`
	Risk       *string `json:"risk,omitempty"`
	Suggestion *string `json:"suggestion,omitempty"`
	Span       *Span   `json:"span,omitempty"`
}

// Citation points at supporting text in the document.
type Citation struct {
	Page    *float64 `json:"page,omitempty"`
	Snippet *string  `json:"snippet,omitempty"`
}

// Result is the payload of a successful analysis. It is replaced, never
// mutated, when a new analysis arrives.
type Result struct {
	Summary   string          `json:"summary"`
	Findings  []Finding       `json:"findings"`
	Citations []Citation      `json:"citations"`
	RawJSON   json.RawMessage `json:"raw_json,omitempty"`
}

// HasRawJSON reports whether the backend sent a raw payload. JSON null counts as absent.
func (r Result) HasRawJSON() bool {
	return !isNull(r.RawJSON)
}

// Metadata describes the inputs that produced the current Result.
type Metadata struct {
	Instructions string `json:"instructions"`
	Style        string `json:"style"`
	Document     string `json:"document"`
}

// Limits applied to metadata and follow-up context.
const (
	MaxInstructionsLength = 4000
	MaxDocumentLength     = 8000
	MaxContextLength      = 10000
)

// Source tells how the document reached the backend.
type Source string

const (
	SourceText   Source = "text"
	SourceUpload Source = "upload"
)

// Record is the server-side audit entry for one analysis run.
type Record struct {
	ID           string    `json:"id"`
	Source       Source    `json:"source"`
	Instructions string    `json:"instructions"`
	Style        string    `json:"style,omitempty"`
	DocumentURL  string    `json:"document_url,omitempty"`
	Result       string    `json:"result"` // JSON string of Result
	CreatedAt    time.Time `json:"created_at"`
}

// Strptr returns a pointer to s.
func Strptr(s string) *string { return &s }

// Numptr returns a pointer to n.
func Numptr(n float64) *float64 { return &n }
