package session

import "context"

// Store is a session-scoped key-value capability. Each Store instance is
// bound to one session; keys are unique within it.
type Store interface {
	// Get returns the value under key. found is false when nothing is stored.
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
}
