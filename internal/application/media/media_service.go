// Package media stores product images and videos in the blob store.
package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/storage"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// AllowedContentTypes is the upload whitelist.
// SVG is not accepted: it can carry scripts and is served from the same bucket
// as the catalog documents.
var AllowedContentTypes = map[string]string{
	"image/jpeg":      "image",
	"image/png":       "image",
	"image/gif":       "image",
	"image/webp":      "image",
	"video/mp4":       "video",
	"video/webm":      "video",
	"video/quicktime": "video",
}

// Media errors
var (
	ErrMissingFile     = shared.NewDomainError("MISSING_FILE", "No file was sent")
	ErrFileTooLarge    = shared.NewDomainError("FILE_TOO_LARGE", "File exceeds the upload size limit")
	ErrDisallowedType  = shared.NewDomainError("DISALLOWED_CONTENT_TYPE", "Only JPEG, PNG, GIF, WebP, MP4, WebM and QuickTime files are accepted")
	ErrInvalidKey      = shared.NewDomainError("INVALID_KEY", "File key is invalid")
	ErrReservedKey     = shared.NewDomainError("RESERVED_KEY", "This key holds store data and cannot be changed here")
	ErrMissingPathname = shared.NewDomainError("MISSING_PATHNAME", "pathname is required")
)

const (
	defaultUploadPrefix         = "uploads/"
	defaultMaxUploadBytes int64 = 50 << 20
	uploadCacheControl          = "public, max-age=31536000"
)

// Config holds upload limits
type Config struct {
	MaxSize       int64
	DefaultPrefix string
	// ReservedKeys are the document keys media calls may not touch
	ReservedKeys []string
}

// MediaService uploads, lists and deletes media blobs
type MediaService struct {
	blobs    shared.BlobStore
	config   Config
	reserved map[string]struct{}
	metrics  *telemetry.StoreMetrics
	logger   *zap.Logger
}

// NewMediaService creates a new MediaService
func NewMediaService(blobs shared.BlobStore, cfg Config, metrics *telemetry.StoreMetrics, logger *zap.Logger) *MediaService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = defaultMaxUploadBytes
	}
	if cfg.DefaultPrefix == "" {
		cfg.DefaultPrefix = defaultUploadPrefix
	}
	if !strings.HasSuffix(cfg.DefaultPrefix, "/") {
		cfg.DefaultPrefix += "/"
	}
	reserved := make(map[string]struct{}, len(cfg.ReservedKeys))
	for _, k := range cfg.ReservedKeys {
		if clean, err := storage.CleanPathname(k); err == nil {
			reserved[clean] = struct{}{}
		}
	}
	return &MediaService{
		blobs:    blobs,
		config:   cfg,
		reserved: reserved,
		metrics:  metrics,
		logger:   logger,
	}
}

// MaxSize returns the upload size limit in bytes
func (s *MediaService) MaxSize() int64 {
	return s.config.MaxSize
}

// Upload validates and stores one file. An existing object under the same key
// is replaced.
func (s *MediaService) Upload(ctx context.Context, input UploadInput) (*UploadResult, error) {
	if input.Body == nil {
		return nil, ErrMissingFile
	}
	if input.Size > s.config.MaxSize {
		return nil, ErrFileTooLarge
	}

	key, err := s.resolveKey(input.Key, input.Filename)
	if err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "media", "upload", telemetry.SpanAttrPathname, key)
	defer span.End()

	// One byte past the limit is enough to detect an oversized body
	body, err := io.ReadAll(io.LimitReader(input.Body, s.config.MaxSize+1))
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(body)) > s.config.MaxSize {
		return nil, ErrFileTooLarge
	}
	if len(body) == 0 {
		return nil, ErrMissingFile
	}

	contentType, kind, err := checkContentType(input.ContentType, key, body)
	if err != nil {
		s.logger.Warn("Upload rejected",
			zap.String("pathname", key),
			zap.String("declared_type", input.ContentType),
			zap.Error(err),
		)
		return nil, err
	}

	obj, err := s.blobs.Put(ctx, key, body, shared.PutOptions{
		ContentType:  contentType,
		CacheControl: uploadCacheControl,
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("Failed to store upload", zap.String("pathname", key), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", shared.ErrStoreUnavailable, err)
	}

	s.metrics.RecordUpload(ctx, kind, contentType, obj.Size)
	s.logger.Info("File uploaded",
		zap.String("pathname", obj.Pathname),
		zap.String("content_type", contentType),
		zap.Int64("size", obj.Size),
	)
	return &UploadResult{
		URL:         obj.URL,
		Pathname:    obj.Pathname,
		Size:        obj.Size,
		ContentType: contentType,
	}, nil
}

// Delete removes a file. Missing files are not an error.
func (s *MediaService) Delete(ctx context.Context, pathname string) error {
	if strings.TrimSpace(pathname) == "" {
		return ErrMissingPathname
	}
	key, err := s.checkKey(pathname)
	if err != nil {
		return err
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "media", "delete", telemetry.SpanAttrPathname, key)
	defer span.End()

	if err := s.blobs.Delete(ctx, key); err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("Failed to delete file", zap.String("pathname", key), zap.Error(err))
		return fmt.Errorf("%w: %v", shared.ErrStoreUnavailable, err)
	}
	s.logger.Info("File deleted", zap.String("pathname", key))
	return nil
}

// List returns the files under prefix, the default upload prefix when empty
func (s *MediaService) List(ctx context.Context, prefix string) ([]FileInfo, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = s.config.DefaultPrefix
	}
	if strings.HasPrefix(prefix, "/") || strings.Contains(prefix, "..") {
		return nil, ErrInvalidKey
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "media", "list", telemetry.SpanAttrPathname, prefix)
	defer span.End()

	objects, err := s.blobs.List(ctx, prefix)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("%w: %v", shared.ErrStoreUnavailable, err)
	}

	files := make([]FileInfo, 0, len(objects))
	for _, obj := range objects {
		if _, ok := s.reserved[obj.Pathname]; ok {
			continue
		}
		files = append(files, FileInfo{
			Name:       path.Base(obj.Pathname),
			Pathname:   obj.Pathname,
			URL:        obj.URL,
			Size:       obj.Size,
			UploadedAt: obj.UploadedAt,
		})
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrCount, len(files))
	return files, nil
}

func (s *MediaService) resolveKey(key, filename string) (string, error) {
	filename = path.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
	if filename == "." || filename == "/" {
		filename = ""
	}

	key = strings.TrimSpace(key)
	switch {
	case key == "":
		if filename == "" {
			return "", ErrInvalidKey
		}
		key = s.config.DefaultPrefix + filename
	case strings.HasSuffix(key, "/"):
		if filename == "" {
			return "", ErrInvalidKey
		}
		key += filename
	}
	return s.checkKey(key)
}

// checkKey sanitizes key and refuses the reserved document keys
func (s *MediaService) checkKey(key string) (string, error) {
	clean, err := storage.CleanPathname(key)
	if err != nil || strings.HasSuffix(clean, "/") {
		return "", ErrInvalidKey
	}
	if _, ok := s.reserved[clean]; ok {
		return "", ErrReservedKey
	}
	return clean, nil
}

// checkContentType resolves the stored content type and its media kind.
// The declared type must be whitelisted and the sniffed content must not be
// markup, which is how SVG and HTML payloads disguise themselves.
func checkContentType(declared, key string, body []byte) (string, string, error) {
	if strings.EqualFold(path.Ext(key), ".svg") {
		return "", "", ErrDisallowedType
	}

	sniffed, _, _ := mime.ParseMediaType(http.DetectContentType(body))
	contentType := sniffed
	if declared != "" {
		parsed, _, err := mime.ParseMediaType(declared)
		if err != nil {
			return "", "", ErrDisallowedType
		}
		contentType = strings.ToLower(parsed)
	}

	kind, ok := AllowedContentTypes[contentType]
	if !ok {
		return "", "", ErrDisallowedType
	}
	if strings.HasPrefix(sniffed, "text/") || bytes.Contains(bytes.ToLower(head(body, 1024)), []byte("<svg")) {
		return "", "", ErrDisallowedType
	}
	return contentType, kind, nil
}

func head(b []byte, n int) []byte {
	if len(b) < n {
		return b
	}
	return b[:n]
}
