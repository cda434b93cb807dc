package analysis

import (
	"errors"
	"fmt"
)

// ErrTransport marks a request that never produced an HTTP response.
var ErrTransport = errors.New("backend unreachable")

// BackendError is a non-success HTTP response. Detail holds the payload's
// detail field verbatim when the backend sent one.
type BackendError struct {
	StatusCode int
	Status     string
	Detail     string
}

func (e *BackendError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("backend returned %d", e.StatusCode)
}

// DetailOr returns the backend detail carried by err, or fallback.
func DetailOr(err error, fallback string) string {
	var be *BackendError
	if errors.As(err, &be) && be.Detail != "" {
		return be.Detail
	}
	return fallback
}
