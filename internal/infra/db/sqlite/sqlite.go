// Package sqlite is the local durable session store for the CLI.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite database connection
type DB struct {
	conn *sql.DB
}

// Open creates the database file and its directory when needed and runs migrations.
func Open(dbPath string) (*DB, error) {
	// Ensure the directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	conn.SetMaxOpenConns(1) // SQLite works best with single connection
	conn.SetMaxIdleConns(1)

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT NOT NULL,
			state_key TEXT NOT NULL,
			value TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (session_id, state_key)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_updated_at ON sessions(updated_at DESC)`,
	}
	for _, m := range migrations {
		if _, err := db.conn.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

// Sessions lists session ids, most recently updated first.
func (db *DB) Sessions(ctx context.Context) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT session_id FROM sessions GROUP BY session_id ORDER BY MAX(updated_at) DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SessionStore returns the key-value store of one session.
func (db *DB) SessionStore(sessionID string) *SessionStore {
	return &SessionStore{db: db, session: sessionID}
}

// SessionStore implements session.Store on the sessions table.
type SessionStore struct {
	db      *DB
	session string
}

func (s *SessionStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.conn.QueryRowContext(ctx,
		"SELECT value FROM sessions WHERE session_id = ? AND state_key = ?",
		s.session, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get session value: %w", err)
	}
	return value, true, nil
}

func (s *SessionStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.conn.ExecContext(ctx,
		`INSERT INTO sessions (session_id, state_key, value, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(session_id, state_key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		s.session, key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to set session value: %w", err)
	}
	return nil
}

func (s *SessionStore) Remove(ctx context.Context, key string) error {
	_, err := s.db.conn.ExecContext(ctx,
		"DELETE FROM sessions WHERE session_id = ? AND state_key = ?",
		s.session, key,
	)
	if err != nil {
		return fmt.Errorf("failed to remove session value: %w", err)
	}
	return nil
}
