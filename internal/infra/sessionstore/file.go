package sessionstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"

	"github.com/bryanwahyu/lawagent/internal/domain/session"
)

// MaxValueSizeBytes bounds one stored value.
const MaxValueSizeBytes = 10 * 1024 * 1024 // 10MB

// File is a session.Store that keeps each key in its own file.
//
// Storage structure:
//
//	{basePath}/{session_id}/
//	  {escaped key}.json
type File struct {
	dir string
}

// NewFile returns the store of sessionID under basePath. Directories are
// created on the first Set.
func NewFile(basePath, sessionID string) (*File, error) {
	if err := session.ValidateID(sessionID); err != nil {
		return nil, fmt.Errorf("invalid session ID: %w", err)
	}
	return &File{dir: filepath.Join(basePath, sessionID)}, nil
}

func (f *File) path(key string) string {
	return filepath.Join(f.dir, url.QueryEscape(key)+".json")
}

func (f *File) Get(_ context.Context, key string) (string, bool, error) {
	data, err := os.ReadFile(f.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read session file: %w", err)
	}
	return string(data), true, nil
}

// Set writes value atomically: temp file first, then rename.
func (f *File) Set(_ context.Context, key, value string) error {
	if len(value) > MaxValueSizeBytes {
		return fmt.Errorf("value size %d bytes exceeds maximum %d bytes", len(value), MaxValueSizeBytes)
	}
	// 0700: owner-only access
	if err := os.MkdirAll(f.dir, 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	target := f.path(key)
	tempPath := target + ".tmp"
	if err := os.WriteFile(tempPath, []byte(value), 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tempPath, target); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to commit session file: %w", err)
	}
	return nil
}

func (f *File) Remove(_ context.Context, key string) error {
	err := os.Remove(f.path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

// ListSessions returns the session ids found under basePath. A missing base
// directory yields an empty list.
func ListSessions(basePath string) ([]string, error) {
	entries, err := os.ReadDir(basePath)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read sessions directory: %w", err)
	}
	sessions := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() && session.ValidateID(entry.Name()) == nil {
			sessions = append(sessions, entry.Name())
		}
	}
	return sessions, nil
}
