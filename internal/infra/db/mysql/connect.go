package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	// test ping
	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx2); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate creates the analysis and session tables when missing.
func Migrate(ctx context.Context, db *sql.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS issue_spotter_analyses (
  id VARCHAR(64) NOT NULL PRIMARY KEY,
  source VARCHAR(16) NOT NULL,
  instructions TEXT NOT NULL,
  style VARCHAR(255) NOT NULL DEFAULT '',
  document_url VARCHAR(1024) NOT NULL DEFAULT '-',
  result_json JSON NOT NULL,
  created_at DATETIME(3) NOT NULL,
  KEY idx_created_at (created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS issue_spotter_sessions (
  session_id VARCHAR(64) NOT NULL,
  state_key VARCHAR(191) NOT NULL,
  value MEDIUMTEXT NOT NULL,
  updated_at DATETIME(3) NOT NULL,
  PRIMARY KEY (session_id, state_key)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	}
	for _, m := range migrations {
		if _, err := db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("mysql migrate: %w", err)
		}
	}
	return nil
}
