// Package store persists document records keyed by vault path.
package store

import (
	"context"
	"errors"

	"github.com/deepfates/silicon/internal/models"
)

// ErrNotFound indicates no record exists for the requested path.
var ErrNotFound = errors.New("record not found")

// RecordStore is the persistence contract for document records. Operations
// are atomic per key: Put replaces the whole record in one write, which is
// what keeps a cached neighbor list from outliving the embedding it was
// computed from. Implementations load lazily; nothing is preloaded at open.
type RecordStore interface {
	// Get returns the record for path, or ErrNotFound.
	Get(ctx context.Context, path string) (*models.DocumentRecord, error)
	// Put writes rec, replacing any existing record for rec.Path.
	Put(ctx context.Context, rec *models.DocumentRecord) error
	// Delete removes the record for path. Missing paths are not an error.
	Delete(ctx context.Context, path string) error
	// Paths returns all stored identities.
	Paths(ctx context.Context) ([]string, error)
	// Scan calls fn for every stored record in deterministic (path) order,
	// stopping at the first error.
	Scan(ctx context.Context, fn func(rec *models.DocumentRecord) error) error
	// Count returns the number of stored records.
	Count(ctx context.Context) (int64, error)
	Close() error
}
