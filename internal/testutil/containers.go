// Package testutil starts the backing services used by the store tests.
// Every helper skips the test in -short mode or when no Docker provider is
// reachable.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	redisImage = "redis:7-alpine"
	minioImage = "minio/minio:latest"

	// MinioAccessKey and MinioSecretKey are the root credentials of the MinIO container
	MinioAccessKey = "storefront"
	MinioSecretKey = "storefront-secret"
)

// skipUnlessContainers skips t in short mode or without a Docker provider
func skipUnlessContainers(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
}

func start(t *testing.T, req testcontainers.ContainerRequest) testcontainers.Container {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "Failed to start %s container", req.Image)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})
	return container
}

// Redis starts a Redis container and returns the settings to reach it
func Redis(t *testing.T) config.RedisConfig {
	t.Helper()
	skipUnlessContainers(t)

	container := start(t, testcontainers.ContainerRequest{
		Image:        redisImage,
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor: wait.ForLog("Ready to accept connections").
			WithStartupTimeout(60 * time.Second),
	})

	ctx := context.Background()
	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	return config.RedisConfig{Enabled: true, Host: host, Port: port.Int()}
}

// Minio starts a MinIO server and returns path-style storage settings for
// bucket. The bucket is not created.
func Minio(t *testing.T, bucket string) config.StorageConfig {
	t.Helper()
	skipUnlessContainers(t)

	container := start(t, testcontainers.ContainerRequest{
		Image:        minioImage,
		ExposedPorts: []string{"9000/tcp"},
		Cmd:          []string{"server", "/data"},
		Env: map[string]string{
			"MINIO_ROOT_USER":     MinioAccessKey,
			"MINIO_ROOT_PASSWORD": MinioSecretKey,
		},
		WaitingFor: wait.ForHTTP("/minio/health/live").
			WithPort("9000/tcp").
			WithStartupTimeout(60 * time.Second),
	})

	ctx := context.Background()
	endpoint, err := container.PortEndpoint(ctx, "9000/tcp", "")
	require.NoError(t, err)

	return config.StorageConfig{
		Driver:          "minio",
		Endpoint:        endpoint,
		Region:          "us-east-1",
		Bucket:          bucket,
		AccessKeyID:     MinioAccessKey,
		SecretAccessKey: MinioSecretKey,
		UsePathStyle:    true,
	}
}
