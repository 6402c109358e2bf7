// Package storage defines the interface for the blob store that holds cache
// documents. This abstraction keeps the cache independent of where documents
// live (local filesystem, memory, or Google Cloud Storage).
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by GetObject when no object exists at the path.
var ErrNotFound = errors.New("object not found")

// BlobStore reads and writes whole objects by path.
type BlobStore interface {
	// GetObject returns the full object content, or an error wrapping
	// ErrNotFound when the path does not exist.
	GetObject(ctx context.Context, path string) ([]byte, error)
	// PutObject replaces the object at path and returns its URI.
	PutObject(ctx context.Context, path string, contentType string, data io.Reader) (string, error)
}
