package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type testSettings struct {
	Whatsapp string `json:"whatsapp,omitempty"`
}

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
	if args.Get(1) == nil {
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

func newSettingsStore(blobs shared.BlobStore) *JSONDocumentStore[testSettings] {
	return NewJSONDocumentStore(blobs, "settings/links.json", JSONCodec[testSettings](), DocumentOptions{
		LegacyKeys: []string{"settings.json"},
	})
}

func TestJSONDocumentStore_Load(t *testing.T) {
	ctx := context.Background()

	t.Run("missing document loads as zero value", func(t *testing.T) {
		store := newSettingsStore(NewMemoryBlobStore(""))
		doc, err := store.Load(ctx)
		require.NoError(t, err)
		assert.False(t, doc.Exists())
		assert.Equal(t, testSettings{}, doc.Value)
		assert.Equal(t, "settings/links.json", doc.Key)
	})

	t.Run("reads the canonical key", func(t *testing.T) {
		blobs := NewMemoryBlobStore("")
		obj, err := blobs.Put(ctx, "settings/links.json", []byte(`{"whatsapp":"+1 555"}`), shared.PutOptions{})
		require.NoError(t, err)

		doc, err := newSettingsStore(blobs).Load(ctx)
		require.NoError(t, err)
		assert.True(t, doc.Exists())
		assert.Equal(t, obj.ETag, doc.Version)
		assert.Equal(t, "+1 555", doc.Value.Whatsapp)
		assert.False(t, doc.Migrated())
	})

	t.Run("falls back to a legacy key", func(t *testing.T) {
		blobs := NewMemoryBlobStore("")
		_, err := blobs.Put(ctx, "settings.json", []byte(`{"whatsapp":"+44"}`), shared.PutOptions{})
		require.NoError(t, err)

		doc, err := newSettingsStore(blobs).Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "+44", doc.Value.Whatsapp)
		assert.Equal(t, "settings.json", doc.Source)
		assert.Empty(t, doc.Version)
		assert.True(t, doc.Migrated())
	})

	t.Run("malformed document", func(t *testing.T) {
		blobs := NewMemoryBlobStore("")
		_, err := blobs.Put(ctx, "settings/links.json", []byte(`{"whatsapp":`), shared.PutOptions{})
		require.NoError(t, err)

		_, err = newSettingsStore(blobs).Load(ctx)
		assert.ErrorIs(t, err, shared.ErrMalformedDocument)
	})

	t.Run("store failure is reported as unavailable", func(t *testing.T) {
		blobs := new(MockBlobStore)
		blobs.On("Get", mock.Anything, "settings/links.json").Return(nil, nil, errors.New("connection refused"))

		_, err := newSettingsStore(blobs).Load(ctx)
		assert.ErrorIs(t, err, shared.ErrStoreUnavailable)
		blobs.AssertExpectations(t)
	})
}

func TestJSONDocumentStore_CompareAndSwap(t *testing.T) {
	ctx := context.Background()

	t.Run("creates when nothing is stored", func(t *testing.T) {
		store := newSettingsStore(NewMemoryBlobStore(""))
		current, err := store.Load(ctx)
		require.NoError(t, err)

		saved, err := store.CompareAndSwap(ctx, current, testSettings{Whatsapp: "1"})
		require.NoError(t, err)
		assert.NotEmpty(t, saved.Version)

		reloaded, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, saved.Version, reloaded.Version)
		assert.Equal(t, "1", reloaded.Value.Whatsapp)
	})

	t.Run("stale version conflicts", func(t *testing.T) {
		store := newSettingsStore(NewMemoryBlobStore(""))
		empty, err := store.Load(ctx)
		require.NoError(t, err)

		first, err := store.CompareAndSwap(ctx, empty, testSettings{Whatsapp: "1"})
		require.NoError(t, err)

		_, err = store.CompareAndSwap(ctx, first, testSettings{Whatsapp: "2"})
		require.NoError(t, err)

		_, err = store.CompareAndSwap(ctx, first, testSettings{Whatsapp: "3"})
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)

		_, err = store.CompareAndSwap(ctx, empty, testSettings{Whatsapp: "4"})
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	})

	t.Run("legacy document migrates on first write", func(t *testing.T) {
		blobs := NewMemoryBlobStore("")
		_, err := blobs.Put(ctx, "settings.json", []byte(`{"whatsapp":"+44"}`), shared.PutOptions{})
		require.NoError(t, err)
		store := newSettingsStore(blobs)

		current, err := store.Load(ctx)
		require.NoError(t, err)
		_, err = store.CompareAndSwap(ctx, current, testSettings{Whatsapp: "+45"})
		require.NoError(t, err)

		reloaded, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "settings/links.json", reloaded.Source)
		assert.Equal(t, "+45", reloaded.Value.Whatsapp)
	})

	t.Run("writes indented json with no-cache headers", func(t *testing.T) {
		blobs := new(MockBlobStore)
		blobs.On("Put", mock.Anything, "settings/links.json", []byte("{\n  \"whatsapp\": \"1\"\n}"), shared.PutOptions{
			ContentType:  "application/json",
			CacheControl: "no-cache, no-store, must-revalidate",
			IfNoneMatch:  true,
		}).Return(&shared.BlobObject{ETag: "v1"}, nil)

		doc, err := newSettingsStore(blobs).CompareAndSwap(ctx, nil, testSettings{Whatsapp: "1"})
		require.NoError(t, err)
		assert.Equal(t, "v1", doc.Version)
		blobs.AssertExpectations(t)
	})
}

func TestJSONDocumentStore_Overwrite(t *testing.T) {
	ctx := context.Background()
	store := newSettingsStore(NewMemoryBlobStore(""))

	_, err := store.Overwrite(ctx, testSettings{Whatsapp: "1"})
	require.NoError(t, err)
	doc, err := store.Overwrite(ctx, testSettings{Whatsapp: "2"})
	require.NoError(t, err)

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, doc.Version, loaded.Version)
	assert.Equal(t, "2", loaded.Value.Whatsapp)
}
