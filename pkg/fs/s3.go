package fs

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/lbogdanov/stethoscope/pkg/model"
)

// S3Config is the configuration for a S3-compatible storage provider
type S3Config struct {
	// S3 Bucket to store files
	Bucket string `toml:"bucket"`
	// Region of the S3 service
	Region string `toml:"region"`
	// EndpointURL is an HTTP endpoint of the S3 API
	EndpointURL string `toml:"endpoint_url"`
	// Prefix is a prefix (subfolder) to use to build key names
	Prefix string `toml:"prefix"`
	// PathStyle forces path style addressing, required by most S3 compatible services
	PathStyle bool `toml:"path_style"`
}

// S3 implements Storage for S3-compatible providers.
type S3 struct {
	api      s3iface.S3API
	uploader *s3manager.Uploader
	bucket   string
	prefix   string
}

var _ Storage = (*S3)(nil)

func NewS3(c S3Config) (*S3, error) {
	if c.Bucket == "" {
		return nil, errors.New("S3 bucket is required")
	}

	cfg := aws.NewConfig().
		WithEndpoint(c.EndpointURL).
		WithRegion(c.Region).
		WithS3ForcePathStyle(c.PathStyle).
		WithLogger(s3logger{}).
		WithLogLevel(aws.LogDebug)
	sess, err := session.NewSessionWithOptions(session.Options{Config: *cfg})
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize S3 session")
	}
	return &S3{
		api:      s3.New(sess),
		uploader: s3manager.NewUploader(sess),
		bucket:   c.Bucket,
		prefix:   c.Prefix,
	}, nil
}

func (s *S3) Create(ctx context.Context, name string, reader io.Reader, contentType string) (int64, error) {
	key := s.buildKey(name)
	logger := log.WithField("key", key)

	input := &s3manager.UploadInput{
		Bucket: &s.bucket,
		Key:    &key,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	logger.Infof("uploading file to %s", s.bucket)
	r := &readerWithN{Reader: reader}
	input.Body = r

	if _, err := s.uploader.UploadWithContext(ctx, input); err != nil {
		return 0, errors.Wrapf(model.ErrUpstream, "failed to upload %q: %v", key, err)
	}

	logger.Debugf("written %d bytes", r.n)
	return int64(r.n), nil
}

func (s *S3) PresignPut(ctx context.Context, name string, ttl time.Duration) (string, error) {
	key := s.buildKey(name)
	req, _ := s.api.PutObjectRequest(&s3.PutObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	req.SetContext(ctx)

	url, err := req.Presign(ttl)
	if err != nil {
		return "", errors.Wrapf(model.ErrUpstream, "failed to presign upload of %q: %v", key, err)
	}

	log.WithField("key", key).Debugf("presigned upload for %s", ttl)
	return url, nil
}

func (s *S3) PresignGet(ctx context.Context, name string, ttl time.Duration) (string, error) {
	key := s.buildKey(name)
	req, _ := s.api.GetObjectRequest(&s3.GetObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	req.SetContext(ctx)

	url, err := req.Presign(ttl)
	if err != nil {
		return "", errors.Wrapf(model.ErrUpstream, "failed to presign download of %q: %v", key, err)
	}

	return url, nil
}

func (s *S3) Delete(ctx context.Context, name string) error {
	key := s.buildKey(name)
	logger := log.WithField("key", key)

	logger.Debugf("deleting file from %s", s.bucket)
	_, err := s.api.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err != nil {
		if awsErr, ok := err.(awserr.Error); ok {
			if awsErr.Code() == "NotFound" || awsErr.Code() == s3.ErrCodeNoSuchKey {
				logger.Debug("file is already gone")
				return nil
			}
		}
		return errors.Wrapf(model.ErrUpstream, "failed to delete %q: %v", key, err)
	}

	return nil
}

func (s *S3) buildKey(name string) string {
	if s.prefix == "" {
		return name
	}
	return strings.TrimSuffix(s.prefix, "/") + "/" + name
}

type s3logger struct{}

func (s s3logger) Log(args ...interface{}) {
	log.Debug(args...)
}
