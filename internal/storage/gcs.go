package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	gcs "cloud.google.com/go/storage"
)

// ErrObjectNotFound is returned when the referenced object does not exist.
var ErrObjectNotFound = errors.New("stored file not found")

// gcsFileStore implements FileStore on a single Cloud Storage bucket.
type gcsFileStore struct {
	client *gcs.Client
	bucket string
}

// NewGCSFileStore creates a FileStore backed by the given bucket.
func NewGCSFileStore(client *gcs.Client, bucket string) FileStore {
	return &gcsFileStore{client: client, bucket: bucket}
}

// Save writes data under ref. Uploads are small (resume documents), so the
// whole payload is written in one shot.
func (s *gcsFileStore) Save(ctx context.Context, ref string, data []byte, contentType string) error {
	w := s.client.Bucket(s.bucket).Object(ref).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("failed to write object '%s': %w", ref, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize object '%s': %w", ref, err)
	}
	return nil
}

// Fetch returns the bytes stored under ref.
func (s *gcsFileStore) Fetch(ctx context.Context, ref string) ([]byte, error) {
	r, err := s.client.Bucket(s.bucket).Object(ref).NewReader(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return nil, fmt.Errorf("object '%s': %w", ref, ErrObjectNotFound)
		}
		return nil, fmt.Errorf("failed to open object '%s': %w", ref, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read object '%s': %w", ref, err)
	}
	return data, nil
}

// SignedURL returns a V4 signed GET URL for ref. Signing uses the ambient
// service-account credentials of the storage client.
func (s *gcsFileStore) SignedURL(ref string, ttl time.Duration) (string, error) {
	url, err := s.client.Bucket(s.bucket).SignedURL(ref, &gcs.SignedURLOptions{
		Scheme:  gcs.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: time.Now().Add(ttl),
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign URL for object '%s': %w", ref, err)
	}
	return url, nil
}
