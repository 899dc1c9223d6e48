// Package storage stores footprint images in S3-compatible object storage.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"

	footprintapp "github.com/halo-extras/backend/internal/application/footprint"
	infraconfig "github.com/halo-extras/backend/internal/infrastructure/config"
)

var _ footprintapp.ImageStorage = (*S3ObjectStorage)(nil)

// ErrStorageKeyRequired is returned for an empty object key
var ErrStorageKeyRequired = errors.New("storage key is required")

const defaultRegion = "us-east-1"

// S3ObjectStorage keeps footprint images in a single bucket. Works with
// AWS S3 as well as MinIO, RustFS and other compatible servers.
type S3ObjectStorage struct {
	client       *s3.Client
	bucket       string
	endpoint     string
	publicURL    string
	usePathStyle bool
	logger       *zap.Logger
}

// S3ObjectStorageOption customizes an S3ObjectStorage
type S3ObjectStorageOption func(*S3ObjectStorage)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) S3ObjectStorageOption {
	return func(s *S3ObjectStorage) {
		s.logger = logger
	}
}

// NewS3ObjectStorage validates cfg and builds the S3 client. No network
// calls are made; use EnsureBucket for that.
func NewS3ObjectStorage(cfg *infraconfig.StorageConfig, opts ...S3ObjectStorageOption) (*S3ObjectStorage, error) {
	if err := validateStorageConfig(cfg); err != nil {
		return nil, err
	}

	endpoint := normalizeEndpoint(cfg.Endpoint, cfg.UseSSL)
	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("invalid storage endpoint: %w", err)
	}

	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}
	creds := credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
	awsCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(region),
		config.WithCredentialsProvider(creds),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	s := &S3ObjectStorage{
		client: s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = cfg.UsePathStyle
		}),
		bucket:       cfg.Bucket,
		endpoint:     endpoint,
		publicURL:    strings.TrimRight(cfg.PublicURL, "/"),
		usePathStyle: cfg.UsePathStyle,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func validateStorageConfig(cfg *infraconfig.StorageConfig) error {
	switch {
	case cfg == nil:
		return errors.New("storage configuration is required")
	case cfg.Bucket == "":
		return errors.New("storage bucket is required")
	case cfg.AccessKey == "":
		return errors.New("storage access key is required")
	case cfg.SecretKey == "":
		return errors.New("storage secret key is required")
	}
	return nil
}

func normalizeEndpoint(endpoint string, useSSL bool) string {
	switch {
	case endpoint == "":
		endpoint = "http://localhost:9000"
	case strings.HasPrefix(endpoint, "http://"), strings.HasPrefix(endpoint, "https://"):
	case useSSL:
		endpoint = "https://" + endpoint
	default:
		endpoint = "http://" + endpoint
	}
	return strings.TrimRight(endpoint, "/")
}

// isNotFound reports whether err means the bucket or key is missing.
// Some compatible servers only carry the code in the message.
func isNotFound(err error) bool {
	var (
		notFound     *types.NotFound
		noSuchKey    *types.NoSuchKey
		noSuchBucket *types.NoSuchBucket
	)
	if errors.As(err, &notFound) || errors.As(err, &noSuchKey) || errors.As(err, &noSuchBucket) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "NotFound") || strings.Contains(msg, "NoSuchKey")
}

// EnsureBucket creates the bucket when it is missing.
func (s *S3ObjectStorage) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}
	if !isNotFound(err) {
		return fmt.Errorf("head bucket %s: %w", s.bucket, err)
	}

	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)})
	var owned *types.BucketAlreadyOwnedByYou
	if err != nil && !errors.As(err, &owned) {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	s.logger.Info("Created storage bucket", zap.String("bucket", s.bucket))
	return nil
}

// Upload stores data under key and returns its public URL
func (s *S3ObjectStorage) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if key == "" {
		return "", ErrStorageKeyRequired
	}

	in := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, in); err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}

	s.logger.Debug("Stored image", zap.String("key", key), zap.Int("bytes", len(data)))
	return s.ObjectURL(key), nil
}

// ObjectURL builds the public link of an object
func (s *S3ObjectStorage) ObjectURL(key string) string {
	if s.publicURL != "" {
		return s.publicURL + "/" + key
	}
	pathStyle := s.endpoint + "/" + s.bucket + "/" + key
	if s.usePathStyle {
		return pathStyle
	}
	u, err := url.Parse(s.endpoint)
	if err != nil {
		return pathStyle
	}
	u.Host = s.bucket + "." + u.Host
	return u.String() + "/" + key
}

// Delete removes an object. Missing keys are not an error.
func (s *S3ObjectStorage) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrStorageKeyRequired
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

func (s *S3ObjectStorage) ObjectExists(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, ErrStorageKeyRequired
	}
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	switch {
	case err == nil:
		return true, nil
	case isNotFound(err):
		return false, nil
	default:
		return false, fmt.Errorf("head object %s: %w", key, err)
	}
}

// GetBucket returns the bucket name
func (s *S3ObjectStorage) GetBucket() string {
	return s.bucket
}
