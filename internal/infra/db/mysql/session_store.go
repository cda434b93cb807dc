package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// SessionStore keeps follow-up state in issue_spotter_sessions, scoped to
// one session id.
type SessionStore struct {
	db      *sql.DB
	session string
}

func NewSessionStore(db *sql.DB, sessionID string) *SessionStore {
	return &SessionStore{db: db, session: sessionID}
}

func (s *SessionStore) Get(ctx context.Context, key string) (string, bool, error) {
	const q = `SELECT value FROM issue_spotter_sessions WHERE session_id=? AND state_key=? LIMIT 1;`
	var value string
	err := s.db.QueryRowContext(ctx, q, s.session, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *SessionStore) Set(ctx context.Context, key, value string) error {
	const q = `
INSERT INTO issue_spotter_sessions (session_id, state_key, value, updated_at)
VALUES (?,?,?,?)
ON DUPLICATE KEY UPDATE value=VALUES(value), updated_at=VALUES(updated_at);
`
	_, err := s.db.ExecContext(ctx, q, s.session, key, value, time.Now().UTC())
	return err
}

func (s *SessionStore) Remove(ctx context.Context, key string) error {
	const q = `DELETE FROM issue_spotter_sessions WHERE session_id=? AND state_key=?;`
	_, err := s.db.ExecContext(ctx, q, s.session, key)
	return err
}
