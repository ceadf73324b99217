package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/storefront/backend/internal/domain/shared"
	infraconfig "github.com/storefront/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

var _ shared.BlobStore = (*S3BlobStore)(nil)

// S3BlobStore implements shared.BlobStore with the AWS S3 SDK v2.
// It works with any S3-compatible service that honours conditional writes
// (AWS S3, Cloudflare R2, RustFS).
type S3BlobStore struct {
	client            *s3.Client
	presignClient     *s3.PresignClient
	bucket            string
	baseURL           string
	public            bool
	presignExpiration time.Duration
	logger            *zap.Logger
}

// S3BlobStoreOption is a functional option for configuring S3BlobStore
type S3BlobStoreOption func(*S3BlobStore)

// WithLogger sets a custom logger
func WithLogger(logger *zap.Logger) S3BlobStoreOption {
	return func(s *S3BlobStore) {
		s.logger = logger
	}
}

// WithPresignExpiration sets how long listed object links stay valid on a
// private bucket
func WithPresignExpiration(d time.Duration) S3BlobStoreOption {
	return func(s *S3BlobStore) {
		s.presignExpiration = d
	}
}

// NewS3BlobStore creates an S3BlobStore from configuration.
// Without static keys the default AWS credential chain is used. Without an
// endpoint the regional AWS endpoint is used.
func NewS3BlobStore(ctx context.Context, cfg *infraconfig.StorageConfig, opts ...S3BlobStoreOption) (*S3BlobStore, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if (cfg.AccessKeyID == "") != (cfg.SecretAccessKey == "") {
		return nil, errors.New("storage access key and secret key must be set together")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	endpoint := normalizeEndpoint(cfg.Endpoint, cfg.UseSSL)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	store := &S3BlobStore{
		client:            client,
		presignClient:     s3.NewPresignClient(client),
		bucket:            cfg.Bucket,
		baseURL:           s3BaseURL(cfg.PublicBaseURL, endpoint, cfg.Bucket, region, cfg.UsePathStyle),
		public:            cfg.PublicBaseURL != "",
		presignExpiration: cfg.PresignExpiration,
		logger:            zap.NewNop(),
	}
	for _, opt := range opts {
		opt(store)
	}
	if store.presignExpiration == 0 {
		store.presignExpiration = 15 * time.Minute
	}
	return store, nil
}

func normalizeEndpoint(endpoint string, useSSL bool) string {
	if endpoint == "" {
		return ""
	}
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return strings.TrimRight(endpoint, "/")
	}
	if useSSL {
		return "https://" + strings.TrimRight(endpoint, "/")
	}
	return "http://" + strings.TrimRight(endpoint, "/")
}

// s3BaseURL picks the prefix for object URLs handed to browsers
func s3BaseURL(public, endpoint, bucket, region string, pathStyle bool) string {
	switch {
	case public != "":
		return strings.TrimRight(public, "/")
	case endpoint != "" && pathStyle:
		return endpoint + "/" + bucket
	case endpoint != "":
		scheme, host, _ := strings.Cut(endpoint, "://")
		return scheme + "://" + bucket + "." + host
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}
}

// EnsureBucket creates the bucket if it doesn't exist.
// Call this during application startup to ensure the bucket is ready.
func (s *S3BlobStore) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	s.logger.Info("Creating storage bucket", zap.String("bucket", s.bucket))
	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		var alreadyOwned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &alreadyOwned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// Ping checks bucket reachability
func (s *S3BlobStore) Ping(ctx context.Context) error {
	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrStoreUnavailable, err)
	}
	return nil
}

// Put writes an object, honouring the IfMatch / IfNoneMatch guards
func (s *S3BlobStore) Put(ctx context.Context, pathname string, body []byte, opts shared.PutOptions) (*shared.BlobObject, error) {
	key, err := CleanPathname(pathname)
	if err != nil {
		return nil, err
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(body),
	}
	if opts.ContentType != "" {
		input.ContentType = aws.String(opts.ContentType)
	}
	if opts.CacheControl != "" {
		input.CacheControl = aws.String(opts.CacheControl)
	}
	switch {
	case opts.IfMatch != "":
		input.IfMatch = aws.String(quoteETag(opts.IfMatch))
	case opts.IfNoneMatch:
		input.IfNoneMatch = aws.String("*")
	}

	out, err := s.client.PutObject(ctx, input)
	if err != nil {
		if isPreconditionFailure(err) || (opts.IfMatch != "" && isNotFound(err)) {
			return nil, shared.ErrPreconditionFailed
		}
		return nil, fmt.Errorf("failed to upload object %s: %w", key, err)
	}

	s.logger.Debug("Stored object", zap.String("key", key), zap.Int("size", len(body)))
	return &shared.BlobObject{
		Pathname:    key,
		URL:         objectURL(s.baseURL, key),
		Size:        int64(len(body)),
		ContentType: opts.ContentType,
		ETag:        trimETag(aws.ToString(out.ETag)),
		UploadedAt:  time.Now().UTC(),
	}, nil
}

// Get reads an object
func (s *S3BlobStore) Get(ctx context.Context, pathname string) ([]byte, *shared.BlobObject, error) {
	key, err := CleanPathname(pathname)
	if err != nil {
		return nil, nil, err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, nil, shared.ErrBlobNotFound
		}
		return nil, nil, fmt.Errorf("failed to get object %s: %w", key, err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read object %s: %w", key, err)
	}

	return body, &shared.BlobObject{
		Pathname:    key,
		URL:         objectURL(s.baseURL, key),
		Size:        int64(len(body)),
		ContentType: aws.ToString(out.ContentType),
		ETag:        trimETag(aws.ToString(out.ETag)),
		UploadedAt:  aws.ToTime(out.LastModified),
	}, nil
}

// Head reads object metadata
func (s *S3BlobStore) Head(ctx context.Context, pathname string) (*shared.BlobObject, error) {
	key, err := CleanPathname(pathname)
	if err != nil {
		return nil, err
	}

	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, shared.ErrBlobNotFound
		}
		return nil, fmt.Errorf("failed to head object %s: %w", key, err)
	}

	return &shared.BlobObject{
		Pathname:    key,
		URL:         objectURL(s.baseURL, key),
		Size:        aws.ToInt64(out.ContentLength),
		ContentType: aws.ToString(out.ContentType),
		ETag:        trimETag(aws.ToString(out.ETag)),
		UploadedAt:  aws.ToTime(out.LastModified),
	}, nil
}

// Delete removes an object. S3 treats a missing key as success.
func (s *S3BlobStore) Delete(ctx context.Context, pathname string) error {
	key, err := CleanPathname(pathname)
	if err != nil {
		return err
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}

// List returns every object under prefix. On a private bucket the URLs are
// presigned GET links.
func (s *S3BlobStore) List(ctx context.Context, prefix string) ([]shared.BlobObject, error) {
	input := &s3.ListObjectsV2Input{Bucket: aws.String(s.bucket)}
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}

	var objects []shared.BlobObject
	paginator := s3.NewListObjectsV2Paginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects under %q: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			objects = append(objects, shared.BlobObject{
				Pathname:   key,
				URL:        s.listURL(ctx, key),
				Size:       aws.ToInt64(obj.Size),
				ETag:       trimETag(aws.ToString(obj.ETag)),
				UploadedAt: aws.ToTime(obj.LastModified),
			})
		}
	}
	return objects, nil
}

func (s *S3BlobStore) listURL(ctx context.Context, key string) string {
	if s.public {
		return objectURL(s.baseURL, key)
	}
	req, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.presignExpiration))
	if err != nil {
		s.logger.Warn("Failed to presign object URL", zap.String("key", key), zap.Error(err))
		return objectURL(s.baseURL, key)
	}
	return req.URL
}

// Bucket returns the bucket name
func (s *S3BlobStore) Bucket() string {
	return s.bucket
}

func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}

// isPreconditionFailure detects a lost conditional write. S3 answers 412
// PreconditionFailed, or 409 ConditionalRequestConflict when two conditional
// writes race on the same key.
func isPreconditionFailure(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "PreconditionFailed", "ConditionalRequestConflict":
			return true
		}
	}
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusPreconditionFailed {
		return true
	}
	return false
}
