// Package blobstore persists the application state as a single opaque
// blob behind a small load/save contract. The state layer never knows
// which backend holds the bytes.
package blobstore

import (
	"context"
	"errors"
)

// ErrNotFound reports that no snapshot has been persisted yet. Callers
// fall back to default state.
var ErrNotFound = errors.New("no persisted state")

// Store is the persistence contract. Save failures are expected to be
// logged by the caller and must never interrupt the user flow.
type Store interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}
