package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/bryanwahyu/lawagent/internal/domain/analysis"
)

type AnalysisRepository struct {
	db *sql.DB
}

func NewAnalysisRepository(db *sql.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// Save inserts or updates an analysis record
func (r *AnalysisRepository) Save(ctx context.Context, a *analysis.Record) error {
	const q = `
INSERT INTO issue_spotter_analyses
  (id, source, instructions, style, document_url, result_json, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO UPDATE SET
  instructions=EXCLUDED.instructions,
  style=EXCLUDED.style,
  document_url=EXCLUDED.document_url,
  result_json=EXCLUDED.result_json;
`
	result := a.Result
	if strings.TrimSpace(result) == "" {
		result = "{}"
	}
	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		a.ID, string(a.Source), a.Instructions, a.Style,
		stringOrDash(a.DocumentURL), result, createdAt,
	)
	return err
}

// Get returns one record, or nil when it does not exist
func (r *AnalysisRepository) Get(ctx context.Context, id string) (*analysis.Record, error) {
	const q = `
SELECT id, source, instructions, style, document_url, result_json, created_at
FROM issue_spotter_analyses
WHERE id=$1
LIMIT 1;`
	a, err := scanRecord(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

// Latest returns the newest records first
func (r *AnalysisRepository) Latest(ctx context.Context, limit int) ([]*analysis.Record, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, source, instructions, style, document_url, result_json, created_at
FROM issue_spotter_analyses
ORDER BY created_at DESC, id DESC
LIMIT $1;`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*analysis.Record
	for rows.Next() {
		a, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanRecord(row interface{ Scan(dest ...any) error }) (*analysis.Record, error) {
	var a analysis.Record
	var source string
	if err := row.Scan(&a.ID, &source, &a.Instructions, &a.Style, &a.DocumentURL, &a.Result, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.Source = analysis.Source(source)
	if a.DocumentURL == "-" {
		a.DocumentURL = ""
	}
	return &a, nil
}
