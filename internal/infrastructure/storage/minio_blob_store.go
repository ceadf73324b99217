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

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/storefront/backend/internal/domain/shared"
	infraconfig "github.com/storefront/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

var _ shared.BlobStore = (*MinioBlobStore)(nil)

// MinioBlobStore implements shared.BlobStore with the MinIO client.
// Conditional writes send If-Match / If-None-Match and are enforced by the
// server.
type MinioBlobStore struct {
	client  *minio.Client
	bucket  string
	region  string
	baseURL string
	logger  *zap.Logger
}

// NewMinioBlobStore creates a MinioBlobStore from configuration
func NewMinioBlobStore(cfg *infraconfig.StorageConfig, logger *zap.Logger) (*MinioBlobStore, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.Endpoint == "" {
		return nil, errors.New("storage endpoint is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	endpoint := stripScheme(cfg.Endpoint)
	lookup := minio.BucketLookupAuto
	if cfg.UsePathStyle {
		lookup = minio.BucketLookupPath
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure:       cfg.UseSSL,
		Region:       cfg.Region,
		BucketLookup: lookup,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	baseURL := cfg.PublicBaseURL
	if baseURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		baseURL = fmt.Sprintf("%s://%s/%s", scheme, endpoint, cfg.Bucket)
	}

	return &MinioBlobStore{
		client:  client,
		bucket:  cfg.Bucket,
		region:  cfg.Region,
		baseURL: baseURL,
		logger:  logger,
	}, nil
}

// stripScheme drops the scheme; minio.New expects host[:port]
func stripScheme(endpoint string) string {
	endpoint = strings.TrimPrefix(endpoint, "https://")
	endpoint = strings.TrimPrefix(endpoint, "http://")
	return strings.TrimRight(endpoint, "/")
}

// EnsureBucket creates the bucket if it doesn't exist
func (m *MinioBlobStore) EnsureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if exists {
		return nil
	}
	m.logger.Info("Creating storage bucket", zap.String("bucket", m.bucket))
	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{Region: m.region}); err != nil {
		if code := minio.ToErrorResponse(err).Code; code == "BucketAlreadyOwnedByYou" {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// Ping checks bucket reachability
func (m *MinioBlobStore) Ping(ctx context.Context) error {
	ok, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrStoreUnavailable, err)
	}
	if !ok {
		return fmt.Errorf("%w: bucket %s does not exist", shared.ErrStoreUnavailable, m.bucket)
	}
	return nil
}

// Put writes an object, honouring the IfMatch / IfNoneMatch guards
func (m *MinioBlobStore) Put(ctx context.Context, pathname string, body []byte, opts shared.PutOptions) (*shared.BlobObject, error) {
	key, err := CleanPathname(pathname)
	if err != nil {
		return nil, err
	}

	putOpts := minio.PutObjectOptions{
		ContentType:  opts.ContentType,
		CacheControl: opts.CacheControl,
	}
	if opts.IfMatch != "" {
		putOpts.SetMatchETag(trimETag(opts.IfMatch))
	}
	if opts.IfNoneMatch {
		putOpts.SetMatchETagExcept("*")
	}

	info, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(body), int64(len(body)), putOpts)
	if err != nil {
		mapped := m.mapError(key, err)
		// If-Match against a key that was deleted meanwhile answers 404
		if opts.IfMatch != "" && errors.Is(mapped, shared.ErrBlobNotFound) {
			return nil, shared.ErrPreconditionFailed
		}
		return nil, mapped
	}

	return &shared.BlobObject{
		Pathname:    key,
		URL:         objectURL(m.baseURL, key),
		Size:        info.Size,
		ContentType: opts.ContentType,
		ETag:        trimETag(info.ETag),
		UploadedAt:  time.Now().UTC(),
	}, nil
}

// Get reads an object
func (m *MinioBlobStore) Get(ctx context.Context, pathname string) ([]byte, *shared.BlobObject, error) {
	key, err := CleanPathname(pathname)
	if err != nil {
		return nil, nil, err
	}

	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, nil, m.mapError(key, err)
	}
	defer obj.Close()

	info, err := obj.Stat()
	if err != nil {
		return nil, nil, m.mapError(key, err)
	}
	body, err := io.ReadAll(obj)
	if err != nil {
		return nil, nil, m.mapError(key, err)
	}
	return body, m.toBlob(info), nil
}

// Head reads object metadata
func (m *MinioBlobStore) Head(ctx context.Context, pathname string) (*shared.BlobObject, error) {
	key, err := CleanPathname(pathname)
	if err != nil {
		return nil, err
	}
	info, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return nil, m.mapError(key, err)
	}
	return m.toBlob(info), nil
}

// Delete removes an object; a missing key is not an error
func (m *MinioBlobStore) Delete(ctx context.Context, pathname string) error {
	key, err := CleanPathname(pathname)
	if err != nil {
		return err
	}
	if err := m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		if mapped := m.mapError(key, err); errors.Is(mapped, shared.ErrBlobNotFound) {
			return nil
		}
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}

// List returns every object under prefix
func (m *MinioBlobStore) List(ctx context.Context, prefix string) ([]shared.BlobObject, error) {
	// Cancelling releases the lister goroutine when we stop early
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var objects []shared.BlobObject
	for info := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if info.Err != nil {
			return nil, fmt.Errorf("failed to list objects under %q: %w", prefix, info.Err)
		}
		objects = append(objects, *m.toBlob(info))
	}
	return objects, nil
}

func (m *MinioBlobStore) toBlob(info minio.ObjectInfo) *shared.BlobObject {
	return &shared.BlobObject{
		Pathname:    info.Key,
		URL:         objectURL(m.baseURL, info.Key),
		Size:        info.Size,
		ContentType: info.ContentType,
		ETag:        trimETag(info.ETag),
		UploadedAt:  info.LastModified,
	}
}

func (m *MinioBlobStore) mapError(key string, err error) error {
	resp := minio.ToErrorResponse(err)
	switch {
	case resp.Code == "NoSuchKey", resp.Code == "NotFound":
		return shared.ErrBlobNotFound
	case resp.Code == "PreconditionFailed", resp.Code == "ConditionalRequestConflict",
		resp.StatusCode == http.StatusPreconditionFailed:
		return shared.ErrPreconditionFailed
	}
	return fmt.Errorf("object %s: %w", key, err)
}
