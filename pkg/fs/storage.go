package fs

import (
	"context"
	"io"
	"time"

	"github.com/pkg/errors"
)

// Storage is the object store capability the catalog needs: time boxed upload and
// download links for clients, server side writes and delete by key.
type Storage interface {
	// Create writes the object from reader and returns the number of bytes written.
	Create(ctx context.Context, key string, reader io.Reader, contentType string) (int64, error)

	// PresignPut returns a URL that accepts a single HTTP PUT of the object's bytes.
	PresignPut(ctx context.Context, key string, ttl time.Duration) (string, error)

	// PresignGet returns a URL that allows HTTP GET (and range requests) of the object.
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)

	// Delete deletes the object. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error
}

const (
	BackendS3  = "s3"
	BackendGCS = "gcs"
)

// Config selects and configures the object store backend.
type Config struct {
	// Backend is either "s3" or "gcs"
	Backend string    `toml:"backend"`
	S3      S3Config  `toml:"s3"`
	GCS     GCSConfig `toml:"gcs"`
	// UploadTTL is the lifetime of presigned upload links
	UploadTTL time.Duration `toml:"upload_ttl"`
	// DownloadTTL is the lifetime of presigned download links
	DownloadTTL time.Duration `toml:"download_ttl"`
}

// New creates the configured backend.
func New(ctx context.Context, cfg Config) (Storage, error) {
	switch cfg.Backend {
	case BackendS3, "":
		return NewS3(cfg.S3)
	case BackendGCS:
		return NewGCS(ctx, cfg.GCS)
	default:
		return nil, errors.Errorf("unsupported storage backend %q", cfg.Backend)
	}
}

type readerWithN struct {
	io.Reader
	n int
}

func (r *readerWithN) Read(p []byte) (n int, err error) {
	n, err = r.Reader.Read(p)
	r.n += n
	return
}
