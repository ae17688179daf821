package storage

import (
	"context"
	"time"
)

// FileStore fetches and stores resume file bytes by reference. Implementations
// only need to round-trip bytes; any richer file-storage semantics are out of
// scope.
type FileStore interface {
	// Save writes data under ref and records its content type.
	Save(ctx context.Context, ref string, data []byte, contentType string) error
	// Fetch returns the bytes stored under ref.
	Fetch(ctx context.Context, ref string) ([]byte, error)
	// SignedURL returns a time-limited download URL for ref.
	SignedURL(ref string, ttl time.Duration) (string, error)
}
