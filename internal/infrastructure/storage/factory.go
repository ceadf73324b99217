package storage

import (
	"context"
	"fmt"

	"github.com/storefront/backend/internal/domain/shared"
	infraconfig "github.com/storefront/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Storage drivers
const (
	DriverS3     = "s3"
	DriverMinio  = "minio"
	DriverMemory = "memory"
)

// bucketEnsurer is implemented by stores that can create their bucket
type bucketEnsurer interface {
	EnsureBucket(ctx context.Context) error
}

// NewBlobStore builds the blob store selected by cfg.Driver and makes sure its
// bucket exists
func NewBlobStore(ctx context.Context, cfg *infraconfig.StorageConfig, logger *zap.Logger) (shared.BlobStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var store shared.BlobStore
	switch cfg.Driver {
	case DriverS3:
		s3Store, err := NewS3BlobStore(ctx, cfg,
			WithLogger(logger),
			WithPresignExpiration(cfg.PresignExpiration),
		)
		if err != nil {
			return nil, err
		}
		store = s3Store
	case DriverMinio:
		minioStore, err := NewMinioBlobStore(cfg, logger)
		if err != nil {
			return nil, err
		}
		store = minioStore
	case DriverMemory, "":
		logger.Warn("Using in-memory blob store, data will not survive a restart")
		return NewMemoryBlobStore(cfg.PublicBaseURL), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}

	if ensurer, ok := store.(bucketEnsurer); ok {
		if err := ensurer.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("failed to prepare bucket %s: %w", cfg.Bucket, err)
		}
	}
	logger.Info("Blob store ready",
		zap.String("driver", cfg.Driver),
		zap.String("bucket", cfg.Bucket),
	)
	return store, nil
}
