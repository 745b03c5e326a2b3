// Package vault adapts the source collection of documents: enumeration,
// content reads, version stamps, and the link graph between documents.
package vault

import (
	"context"
	"errors"

	"github.com/deepfates/silicon/internal/models"
)

// ErrNotFound indicates the document does not exist in the (non-ignored) vault.
var ErrNotFound = errors.New("document not found in vault")

// Vault is the source-collection contract the index core consumes.
// Identities are opaque stable strings; the filesystem implementation uses
// slash-separated vault-relative paths.
type Vault interface {
	// List enumerates all non-ignored documents with their version stamps.
	List(ctx context.Context) ([]models.DocumentInfo, error)
	// Read returns the full text of a document.
	Read(ctx context.Context, path string) (string, error)
	// Stat returns the identity and current version stamp of one document.
	Stat(ctx context.Context, path string) (models.DocumentInfo, error)
	// Links returns the set of identities path references (outgoing) and the
	// set of identities referencing path (incoming).
	Links(ctx context.Context, path string) (outgoing, incoming map[string]bool, err error)
}
