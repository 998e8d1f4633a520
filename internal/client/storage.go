package client

import (
	"context"
	"fmt"
	"path"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"

	"github.com/suryasblaze/be-stock-recon/internal/errors"
)

// ObjectStorage is the blob store used for slip images, invoice files and
// adjustment proof photos. The store is keyed by path; callers persist the
// path and request signed URLs on demand.
type ObjectStorage interface {
	Upload(ctx context.Context, data []byte, objectPath, contentType string) (string, error)
	SignedDownloadURL(objectPath string, ttl time.Duration) (string, error)
}

// GCSStorage implements ObjectStorage on a Google Cloud Storage bucket with
// V4 signed download URLs.
type GCSStorage struct {
	client *storage.Client
	bucket string
}

// NewGCSStorage creates a GCS-backed store for the given bucket.
func NewGCSStorage(ctx context.Context, bucket string) (*GCSStorage, error) {
	cli, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	return &GCSStorage{client: cli, bucket: bucket}, nil
}

// Close releases the underlying client.
func (s *GCSStorage) Close() error {
	return s.client.Close()
}

// Upload writes data to the bucket and returns the object path.
func (s *GCSStorage) Upload(ctx context.Context, data []byte, objectPath, contentType string) (string, error) {
	w := s.client.Bucket(s.bucket).Object(objectPath).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", errors.Wrap(err, errors.ErrCodeExternal, "failed to upload object")
	}
	if err := w.Close(); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeExternal, "failed to finalize upload")
	}

	return objectPath, nil
}

// SignedDownloadURL returns a time-limited V4 signed URL for the object.
func (s *GCSStorage) SignedDownloadURL(objectPath string, ttl time.Duration) (string, error) {
	url, err := s.client.Bucket(s.bucket).SignedURL(objectPath, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  "GET",
		Expires: time.Now().Add(ttl),
	})
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeExternal, "failed to sign download URL")
	}
	return url, nil
}

// ObjectPath builds a collision-free object key for an upload, e.g.
// "slips/2026/08/3f1a....jpg".
func ObjectPath(prefix, filename string) string {
	now := time.Now().UTC()
	ext := path.Ext(filename)
	return fmt.Sprintf("%s/%04d/%02d/%s%s", prefix, now.Year(), int(now.Month()), uuid.NewString(), ext)
}
