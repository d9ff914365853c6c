package domain

import (
	"context"
)

// Blob is the decrypted content of a stored object.
type Blob struct {
	Key         string
	ContentType string
	Content     []byte
}

// BlobStore defines the interface for storing raw image bytes.
// Keys are generated by the store and never derived from caller supplied names.
type BlobStore interface {
	Store(ctx context.Context, data []byte, suggestedName string, contentType string) (string, error)
	URLFor(ctx context.Context, key string) (string, error)
	// Delete is idempotent: removing a missing key is not an error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Open(ctx context.Context, key string) (*Blob, error)
}
