package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Codec converts a document value to and from its stored bytes.
// Decode must wrap shared.ErrMalformedDocument for content it rejects.
type Codec[T any] struct {
	Decode func([]byte) (T, error)
	Encode func(T) ([]byte, error)
}

// JSONCodec decodes with encoding/json and encodes with two-space indentation.
// An empty body decodes to the zero value.
func JSONCodec[T any]() Codec[T] {
	return Codec[T]{
		Decode: func(data []byte) (T, error) {
			var v T
			if len(bytes.TrimSpace(data)) == 0 {
				return v, nil
			}
			if err := json.Unmarshal(data, &v); err != nil {
				return v, fmt.Errorf("%w: %v", shared.ErrMalformedDocument, err)
			}
			return v, nil
		},
		Encode: func(v T) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		},
	}
}

// DocumentOptions tunes a JSONDocumentStore
type DocumentOptions struct {
	// LegacyKeys are read, in order, when nothing is stored under the key
	LegacyKeys   []string
	CacheControl string
	Logger       *zap.Logger
}

// JSONDocumentStore keeps one JSON document in a blob store and versions it
// by ETag
type JSONDocumentStore[T any] struct {
	blobs        shared.BlobStore
	key          string
	legacyKeys   []string
	codec        Codec[T]
	cacheControl string
	logger       *zap.Logger
}

// NewJSONDocumentStore creates a store for the document at key
func NewJSONDocumentStore[T any](blobs shared.BlobStore, key string, codec Codec[T], opts DocumentOptions) *JSONDocumentStore[T] {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cacheControl := opts.CacheControl
	if cacheControl == "" {
		cacheControl = "no-cache, no-store, must-revalidate"
	}
	if codec.Decode == nil || codec.Encode == nil {
		codec = JSONCodec[T]()
	}
	return &JSONDocumentStore[T]{
		blobs:        blobs,
		key:          key,
		legacyKeys:   opts.LegacyKeys,
		codec:        codec,
		cacheControl: cacheControl,
		logger:       logger.With(zap.String("document", key)),
	}
}

// Key returns the canonical key
func (s *JSONDocumentStore[T]) Key() string {
	return s.key
}

// Load reads the canonical key, falling back to the legacy keys
func (s *JSONDocumentStore[T]) Load(ctx context.Context) (*shared.Document[T], error) {
	doc, err := s.read(ctx, s.key)
	if err == nil {
		return doc, nil
	}
	if !errors.Is(err, shared.ErrBlobNotFound) {
		return nil, err
	}

	for _, legacy := range s.legacyKeys {
		doc, err := s.read(ctx, legacy)
		if errors.Is(err, shared.ErrBlobNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		s.logger.Info("Document found under legacy key", zap.String("legacy_key", legacy))
		// Not stored under the canonical key yet: the next write creates it
		doc.Version = ""
		return doc, nil
	}

	return &shared.Document[T]{Key: s.key}, nil
}

func (s *JSONDocumentStore[T]) read(ctx context.Context, key string) (*shared.Document[T], error) {
	body, meta, err := s.blobs.Get(ctx, key)
	if err != nil {
		if errors.Is(err, shared.ErrBlobNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: read %s: %v", shared.ErrStoreUnavailable, key, err)
	}
	value, err := s.codec.Decode(body)
	if err != nil {
		s.logger.Warn("Stored document is malformed", zap.String("key", key), zap.Error(err))
		if !errors.Is(err, shared.ErrMalformedDocument) {
			err = fmt.Errorf("%w: %v", shared.ErrMalformedDocument, err)
		}
		return nil, err
	}
	return &shared.Document[T]{
		Key:     s.key,
		Version: meta.ETag,
		URL:     meta.URL,
		Value:   value,
		Source:  key,
	}, nil
}

// CompareAndSwap writes next if the stored version still equals current's.
// A nil or non-existent current requires that nothing is stored yet.
func (s *JSONDocumentStore[T]) CompareAndSwap(ctx context.Context, current *shared.Document[T], next T) (*shared.Document[T], error) {
	opts := shared.PutOptions{IfNoneMatch: true}
	if current.Exists() {
		opts = shared.PutOptions{IfMatch: current.Version}
	}
	doc, err := s.write(ctx, next, opts)
	if errors.Is(err, shared.ErrPreconditionFailed) {
		return nil, fmt.Errorf("%w: %s changed since it was read", shared.ErrConcurrencyConflict, s.key)
	}
	if err != nil {
		return nil, err
	}
	if current.Migrated() {
		s.logger.Info("Document migrated to canonical key", zap.String("legacy_key", current.Source))
	}
	return doc, nil
}

// Overwrite writes next unconditionally
func (s *JSONDocumentStore[T]) Overwrite(ctx context.Context, next T) (*shared.Document[T], error) {
	return s.write(ctx, next, shared.PutOptions{})
}

func (s *JSONDocumentStore[T]) write(ctx context.Context, next T, opts shared.PutOptions) (*shared.Document[T], error) {
	body, err := s.codec.Encode(next)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", s.key, err)
	}
	opts.ContentType = "application/json"
	opts.CacheControl = s.cacheControl

	meta, err := s.blobs.Put(ctx, s.key, body, opts)
	if err != nil {
		if errors.Is(err, shared.ErrPreconditionFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: write %s: %v", shared.ErrStoreUnavailable, s.key, err)
	}
	return &shared.Document[T]{
		Key:     s.key,
		Version: meta.ETag,
		URL:     meta.URL,
		Value:   next,
		Source:  s.key,
	}, nil
}

var _ shared.DocumentStore[struct{}] = (*JSONDocumentStore[struct{}])(nil)
