package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"

	"github.com/atelierhq/backend/pkg/logger"
)

// Upload rejections surfaced to handlers.
var (
	ErrUnsupportedType = errors.New("storage: unsupported content type")
	ErrTooLarge        = errors.New("storage: upload exceeds size limit")
)

// DefaultMaxUploadSize caps uploads when the configuration does not.
const DefaultMaxUploadSize = 10 << 20

// allowedTypes maps accepted content types to the stored file extension.
// Covers portfolio imagery plus PDF briefs attached to quote requests.
var allowedTypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/webp":      ".webp",
	"application/pdf": ".pdf",
}

// Config locates the bucket holding uploaded files.
type Config struct {
	BucketURL     string
	MaxUploadSize int64
}

// UploadService stores and retrieves uploaded files in an object storage
// bucket. Keys are opaque and never derived from client-supplied names.
type UploadService struct {
	bucket  *blob.Bucket
	maxSize int64
	log     *zap.Logger
}

// OpenUploadService opens the bucket named by the configuration URL
// (file://, mem://, or any other registered blob scheme).
func OpenUploadService(ctx context.Context, cfg Config) (*UploadService, error) {
	if strings.TrimSpace(cfg.BucketURL) == "" {
		return nil, errors.New("storage: bucket URL is required")
	}

	bucket, err := blob.OpenBucket(ctx, cfg.BucketURL)
	if err != nil {
		return nil, fmt.Errorf("storage: open bucket: %w", err)
	}

	maxSize := cfg.MaxUploadSize
	if maxSize <= 0 {
		maxSize = DefaultMaxUploadSize
	}

	return &UploadService{
		bucket:  bucket,
		maxSize: maxSize,
		log:     logger.WithModule("storage"),
	}, nil
}

// Close releases the underlying bucket.
func (s *UploadService) Close() error {
	return s.bucket.Close()
}

// Save streams the upload into the bucket and returns the generated key.
// The reader is capped at the configured size limit.
func (s *UploadService) Save(ctx context.Context, contentType string, r io.Reader) (string, error) {
	ext, ok := allowedTypes[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		return "", ErrUnsupportedType
	}

	key := uuid.NewString() + ext

	w, err := s.bucket.NewWriter(ctx, key, &blob.WriterOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("storage: new writer: %w", err)
	}

	// Read one byte past the limit so an exactly-full upload still succeeds.
	n, err := io.Copy(w, io.LimitReader(r, s.maxSize+1))
	if err != nil {
		_ = w.Close()
		return "", fmt.Errorf("storage: write upload: %w", err)
	}
	if n > s.maxSize {
		_ = w.Close()
		if delErr := s.bucket.Delete(ctx, key); delErr != nil {
			s.log.Warn("failed to remove oversized upload", zap.String("key", key), zap.Error(delErr))
		}
		return "", ErrTooLarge
	}

	if err := w.Close(); err != nil {
		return "", fmt.Errorf("storage: close writer: %w", err)
	}

	return key, nil
}

// Open returns a reader over the stored object plus its content type. The
// caller closes the reader.
func (s *UploadService) Open(ctx context.Context, key string) (io.ReadCloser, string, error) {
	if !validKey(key) {
		return nil, "", fmt.Errorf("storage: invalid key %q", key)
	}

	r, err := s.bucket.NewReader(ctx, key, nil)
	if err != nil {
		return nil, "", fmt.Errorf("storage: open %s: %w", key, err)
	}
	return r, r.ContentType(), nil
}

// Exists reports whether the key is present in the bucket.
func (s *UploadService) Exists(ctx context.Context, key string) (bool, error) {
	if !validKey(key) {
		return false, nil
	}
	return s.bucket.Exists(ctx, key)
}

// Delete removes the stored object. Deleting an absent key is not an error.
func (s *UploadService) Delete(ctx context.Context, key string) error {
	if !validKey(key) {
		return nil
	}

	exists, err := s.bucket.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("storage: stat %s: %w", key, err)
	}
	if !exists {
		return nil
	}

	if err := s.bucket.Delete(ctx, key); err != nil {
		return fmt.Errorf("storage: delete %s: %w", key, err)
	}
	return nil
}

// validKey rejects anything that is not a bare generated file name.
func validKey(key string) bool {
	if key == "" || strings.ContainsAny(key, "/\\") {
		return false
	}
	return path.Base(key) == key
}
