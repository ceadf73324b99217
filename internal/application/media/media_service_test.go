package media

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockBlobStore is a mock implementation of shared.BlobStore
type MockBlobStore struct {
	mock.Mock
}

func (m *MockBlobStore) Put(ctx context.Context, pathname string, body []byte, opts shared.PutOptions) (*shared.BlobObject, error) {
	args := m.Called(ctx, pathname, body, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.BlobObject), args.Error(1)
}

func (m *MockBlobStore) Get(ctx context.Context, pathname string) ([]byte, *shared.BlobObject, error) {
	args := m.Called(ctx, pathname)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]byte), args.Get(1).(*shared.BlobObject), args.Error(2)
}

func (m *MockBlobStore) Head(ctx context.Context, pathname string) (*shared.BlobObject, error) {
	args := m.Called(ctx, pathname)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.BlobObject), args.Error(1)
}

func (m *MockBlobStore) Delete(ctx context.Context, pathname string) error {
	return m.Called(ctx, pathname).Error(0)
}

func (m *MockBlobStore) List(ctx context.Context, prefix string) ([]shared.BlobObject, error) {
	args := m.Called(ctx, prefix)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]shared.BlobObject), args.Error(1)
}

func (m *MockBlobStore) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

var reservedKeys = []string{"products.json", "products/products.json", "social-links.json", "dashboard-password.json"}

func newService(t *testing.T, maxSize int64) (*MediaService, *storage.MemoryBlobStore) {
	t.Helper()
	blobs := storage.NewMemoryBlobStore("https://cdn.example.com")
	return NewMediaService(blobs, Config{MaxSize: maxSize, ReservedKeys: reservedKeys}, nil, nil), blobs
}

func TestMediaService_Upload(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults to the uploads prefix", func(t *testing.T) {
		svc, blobs := newService(t, 1024)
		res, err := svc.Upload(ctx, UploadInput{
			Filename:    "dust.png",
			ContentType: "image/png",
			Body:        bytes.NewReader(pngBytes),
		})
		require.NoError(t, err)
		assert.Equal(t, "uploads/dust.png", res.Pathname)
		assert.Equal(t, "https://cdn.example.com/uploads/dust.png", res.URL)
		assert.Equal(t, 1, blobs.Len())
	})

	t.Run("a folder key gets the filename appended", func(t *testing.T) {
		svc, _ := newService(t, 1024)
		res, err := svc.Upload(ctx, UploadInput{
			Key:         "images/perfumes/",
			Filename:    "C:\\photos\\dust.png",
			ContentType: "image/png",
			Body:        bytes.NewReader(pngBytes),
		})
		require.NoError(t, err)
		assert.Equal(t, "images/perfumes/dust.png", res.Pathname)
	})

	t.Run("content type is sniffed when not declared", func(t *testing.T) {
		svc, _ := newService(t, 1024)
		res, err := svc.Upload(ctx, UploadInput{Key: "a.png", Body: bytes.NewReader(pngBytes)})
		require.NoError(t, err)
		assert.Equal(t, "image/png", res.ContentType)
	})

	t.Run("rejects unsafe or unknown files", func(t *testing.T) {
		svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg" onload="alert(1)"></svg>`)
		tests := []struct {
			name  string
			input UploadInput
			want  error
		}{
			{"declared svg", UploadInput{Key: "x.png", ContentType: "image/svg+xml", Body: bytes.NewReader(svg)}, ErrDisallowedType},
			{"svg disguised as png", UploadInput{Key: "x.png", ContentType: "image/png", Body: bytes.NewReader(svg)}, ErrDisallowedType},
			{"svg extension", UploadInput{Key: "x.svg", ContentType: "image/png", Body: bytes.NewReader(pngBytes)}, ErrDisallowedType},
			{"executable", UploadInput{Key: "x.exe", ContentType: "application/octet-stream", Body: bytes.NewReader(pngBytes)}, ErrDisallowedType},
			{"path traversal", UploadInput{Key: "../products.json", ContentType: "image/png", Body: bytes.NewReader(pngBytes)}, ErrInvalidKey},
			{"absolute key", UploadInput{Key: "/etc/passwd", ContentType: "image/png", Body: bytes.NewReader(pngBytes)}, ErrInvalidKey},
			{"catalog document", UploadInput{Key: "products.json", ContentType: "image/png", Body: bytes.NewReader(pngBytes)}, ErrReservedKey},
			{"legacy catalog document", UploadInput{Key: "products//products.json", ContentType: "image/png", Body: bytes.NewReader(pngBytes)}, ErrReservedKey},
			{"no body", UploadInput{Key: "x.png"}, ErrMissingFile},
			{"empty body", UploadInput{Key: "x.png", Body: strings.NewReader("")}, ErrMissingFile},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				svc, blobs := newService(t, 1024)
				_, err := svc.Upload(ctx, tt.input)
				assert.ErrorIs(t, err, tt.want)
				assert.Equal(t, 0, blobs.Len())
			})
		}
	})

	t.Run("enforces the size limit on the actual body", func(t *testing.T) {
		svc, blobs := newService(t, 16)
		_, err := svc.Upload(ctx, UploadInput{Key: "big.png", ContentType: "image/png", Body: bytes.NewReader(pngBytes)})
		assert.ErrorIs(t, err, ErrFileTooLarge)
		assert.Equal(t, 0, blobs.Len())
	})

	t.Run("store failure is unavailable", func(t *testing.T) {
		blobs := new(MockBlobStore)
		blobs.On("Put", mock.Anything, "uploads/a.png", mock.Anything, mock.Anything).Return(nil, errors.New("boom"))
		svc := NewMediaService(blobs, Config{}, nil, nil)

		_, err := svc.Upload(ctx, UploadInput{Filename: "a.png", ContentType: "image/png", Body: bytes.NewReader(pngBytes)})
		assert.ErrorIs(t, err, shared.ErrStoreUnavailable)
	})
}

func TestMediaService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("removes an uploaded file", func(t *testing.T) {
		svc, blobs := newService(t, 1024)
		_, err := svc.Upload(ctx, UploadInput{Filename: "a.png", ContentType: "image/png", Body: bytes.NewReader(pngBytes)})
		require.NoError(t, err)

		require.NoError(t, svc.Delete(ctx, "uploads/a.png"))
		assert.Equal(t, 0, blobs.Len())
	})

	t.Run("refuses store documents", func(t *testing.T) {
		svc, _ := newService(t, 1024)
		assert.ErrorIs(t, svc.Delete(ctx, "dashboard-password.json"), ErrReservedKey)
		assert.ErrorIs(t, svc.Delete(ctx, "./social-links.json"), ErrReservedKey)
	})

	t.Run("requires a pathname", func(t *testing.T) {
		svc, _ := newService(t, 1024)
		assert.ErrorIs(t, svc.Delete(ctx, " "), ErrMissingPathname)
		assert.ErrorIs(t, svc.Delete(ctx, "../x"), ErrInvalidKey)
	})
}

func TestMediaService_List(t *testing.T) {
	ctx := context.Background()
	svc, blobs := newService(t, 1024)
	for _, name := range []string{"b.png", "a.png"} {
		_, err := svc.Upload(ctx, UploadInput{Filename: name, ContentType: "image/png", Body: bytes.NewReader(pngBytes)})
		require.NoError(t, err)
	}
	_, err := blobs.Put(ctx, "products.json", []byte("[]"), shared.PutOptions{})
	require.NoError(t, err)

	t.Run("defaults to the uploads prefix", func(t *testing.T) {
		files, err := svc.List(ctx, "")
		require.NoError(t, err)
		require.Len(t, files, 2)
		assert.Equal(t, "a.png", files[0].Name)
		assert.Equal(t, "uploads/a.png", files[0].Pathname)
		assert.Equal(t, int64(len(pngBytes)), files[0].Size)
	})

	t.Run("hides store documents from a root listing", func(t *testing.T) {
		files, err := svc.List(ctx, "products")
		require.NoError(t, err)
		assert.Empty(t, files)
	})

	t.Run("rejects escaping prefixes", func(t *testing.T) {
		_, err := svc.List(ctx, "../")
		assert.ErrorIs(t, err, ErrInvalidKey)
	})
}
