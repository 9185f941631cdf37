// Package object defines the blob-storage contract for resume documents.
package object

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned by Open when no object exists at the key.
var ErrNotFound = errors.New("object not found")

// BlobStore defines the contract for saving, serving, and removing binary
// objects keyed by storage key.
type BlobStore interface {
	// Put writes the reader contents at the given key and returns a locator
	// string for the stored object along with its size in bytes.
	Put(ctx context.Context, storageKey string, contentType string, r io.Reader) (locator string, sizeBytes int64, err error)
	// Delete removes the object. Deleting a missing key is not an error.
	Delete(ctx context.Context, storageKey string) error
	// Open returns the object contents for reading.
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	// PresignGet returns a time-limited download URL for the object.
	PresignGet(ctx context.Context, storageKey string, ttl time.Duration) (string, error)
}
