package storage

import (
	"context"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

// ObjectStorage defines common object operations across backends.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Bucket() string
}

// ImageStore persists listing images in an object storage backend.
// Stored paths are canonical: one "uploads/" prefix, no leading slash.
type ImageStore struct {
	backend ObjectStorage
}

// NewImageStore constructs an ImageStore over the provided backend.
func NewImageStore(backend ObjectStorage) *ImageStore {
	return &ImageStore{backend: backend}
}

// EnsureBucket ensures the configured bucket exists.
func (s *ImageStore) EnsureBucket(ctx context.Context) error {
	return s.backend.EnsureBucket(ctx)
}

// Save uploads an image under a fresh uploads/ key derived from the
// original filename's extension and returns the stored path.
func (s *ImageStore) Save(ctx context.Context, filename string, r io.Reader, size int64, contentType string) (string, error) {
	ext := strings.ToLower(path.Ext(filename))
	key := NormalizeImagePath(uuid.NewString() + ext)
	if err := s.backend.Put(ctx, key, r, size, contentType); err != nil {
		return "", err
	}
	return key, nil
}

// Open streams a stored image. The path is normalized first, so both
// "flat1.png" and "/uploads/flat1.png" resolve to the same object.
func (s *ImageStore) Open(ctx context.Context, imagePath string) (io.ReadCloser, error) {
	return s.backend.Get(ctx, NormalizeImagePath(imagePath))
}

// Remove deletes a stored image.
func (s *ImageStore) Remove(ctx context.Context, imagePath string) error {
	return s.backend.Delete(ctx, NormalizeImagePath(imagePath))
}

// Bucket returns the configured bucket name.
func (s *ImageStore) Bucket() string {
	return s.backend.Bucket()
}
