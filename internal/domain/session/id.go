package session

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// DefaultID names the session used when none is given.
const DefaultID = "default"

var validIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// NewID returns a fresh random session id.
func NewID() string {
	return uuid.New().String()
}

// ValidateID checks that id is safe to use as a file name, object key or
// table key.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("session ID cannot be empty")
	}
	if strings.Contains(id, "..") {
		return fmt.Errorf("session ID contains path traversal sequence")
	}
	if !validIDPattern.MatchString(id) {
		return fmt.Errorf("invalid session ID format (alphanumeric, dash, underscore only, max 64 chars)")
	}
	return nil
}
