package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/bryanwahyu/lawagent/internal/domain/analysis"
)

type AnalysisRepository struct {
	db *sql.DB
}

func NewAnalysisRepository(db *sql.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// Save inserts an analysis record
func (r *AnalysisRepository) Save(ctx context.Context, a *analysis.Record) error {
	const q = `
INSERT INTO issue_spotter_analyses
  (id, source, instructions, style, document_url, result_json, created_at)
VALUES (?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
  instructions=VALUES(instructions), style=VALUES(style),
  document_url=VALUES(document_url), result_json=VALUES(result_json);
`
	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		a.ID, string(a.Source), a.Instructions, a.Style,
		stringOrDash(a.DocumentURL), jsonOrEmpty(a.Result), createdAt.UTC(),
	)
	return err
}

// Get returns one record, or nil when it does not exist
func (r *AnalysisRepository) Get(ctx context.Context, id string) (*analysis.Record, error) {
	const q = `
SELECT id, source, instructions, style, document_url, result_json, created_at
FROM issue_spotter_analyses
WHERE id=? LIMIT 1;
`
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
LIMIT ?;
`
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*analysis.Record, error) {
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
