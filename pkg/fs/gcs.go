package fs

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/option"

	"github.com/lbogdanov/stethoscope/pkg/model"
)

// GCSConfig is the configuration for Google Cloud Storage
type GCSConfig struct {
	// Bucket to store files
	Bucket string `toml:"bucket"`
	// CredentialsFile is a service account key file, application default credentials are used when empty
	CredentialsFile string `toml:"credentials_file"`
	// GoogleAccessID is the service account email used to sign URLs (needed without a key file)
	GoogleAccessID string `toml:"google_access_id"`
	// Prefix is a prefix (subfolder) to use to build object names
	Prefix string `toml:"prefix"`
}

// bucket is the subset of *storage.BucketHandle used by GCS.
type bucket interface {
	SignedURL(object string, opts *storage.SignedURLOptions) (string, error)
}

// GCS implements Storage on top of Google Cloud Storage V4 signed URLs.
type GCS struct {
	bucket         bucket
	name           string
	prefix         string
	googleAccessID string
	writeObject    func(ctx context.Context, name string, contentType string, reader io.Reader) error
	deleteObject   func(ctx context.Context, name string) error
}

var _ Storage = (*GCS)(nil)

func NewGCS(ctx context.Context, c GCSConfig) (*GCS, error) {
	if c.Bucket == "" {
		return nil, errors.New("GCS bucket is required")
	}

	var opts []option.ClientOption
	if c.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(c.CredentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create GCS client")
	}

	handle := client.Bucket(c.Bucket)
	g := &GCS{
		bucket:         handle,
		name:           c.Bucket,
		prefix:         c.Prefix,
		googleAccessID: c.GoogleAccessID,
	}
	g.writeObject = func(ctx context.Context, name string, contentType string, reader io.Reader) error {
		// Cancelling the context aborts the upload instead of committing a partial object
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		w := handle.Object(name).NewWriter(ctx)
		w.ContentType = contentType

		if _, err := io.Copy(w, reader); err != nil {
			cancel()
			_ = w.Close()
			return err
		}

		return w.Close()
	}
	g.deleteObject = func(ctx context.Context, name string) error {
		return handle.Object(name).Delete(ctx)
	}

	return g, nil
}

func (g *GCS) Create(ctx context.Context, name string, reader io.Reader, contentType string) (int64, error) {
	key := g.buildKey(name)
	logger := log.WithField("key", key)

	logger.Infof("uploading object to %s", g.name)
	r := &readerWithN{Reader: reader}
	if err := g.writeObject(ctx, key, contentType, r); err != nil {
		return 0, errors.Wrapf(model.ErrUpstream, "failed to upload %q: %v", key, err)
	}

	logger.Debugf("written %d bytes", r.n)
	return int64(r.n), nil
}

func (g *GCS) PresignPut(_ context.Context, name string, ttl time.Duration) (string, error) {
	return g.sign(http.MethodPut, name, ttl)
}

func (g *GCS) PresignGet(_ context.Context, name string, ttl time.Duration) (string, error) {
	return g.sign(http.MethodGet, name, ttl)
}

func (g *GCS) Delete(ctx context.Context, name string) error {
	key := g.buildKey(name)
	logger := log.WithField("key", key)

	logger.Debugf("deleting object from %s", g.name)
	if err := g.deleteObject(ctx, key); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			logger.Debug("object is already gone")
			return nil
		}
		return errors.Wrapf(model.ErrUpstream, "failed to delete %q: %v", key, err)
	}

	return nil
}

func (g *GCS) sign(method string, name string, ttl time.Duration) (string, error) {
	key := g.buildKey(name)
	opts := &storage.SignedURLOptions{
		Scheme:         storage.SigningSchemeV4,
		Method:         method,
		Expires:        time.Now().Add(ttl),
		GoogleAccessID: g.googleAccessID,
	}

	url, err := g.bucket.SignedURL(key, opts)
	if err != nil {
		return "", errors.Wrapf(model.ErrUpstream, "failed to sign %s of %q: %v", method, key, err)
	}

	return url, nil
}

func (g *GCS) buildKey(name string) string {
	if g.prefix == "" {
		return name
	}
	return strings.TrimSuffix(g.prefix, "/") + "/" + name
}
