package storage

import (
	"context"
	"testing"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBlobStore_PutGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryBlobStore("https://blobs.test")

	t.Run("stores a copy of the body", func(t *testing.T) {
		body := []byte(`[]`)
		obj, err := store.Put(ctx, "products.json", body, shared.PutOptions{ContentType: "application/json"})
		require.NoError(t, err)
		body[0] = 'x'

		got, meta, err := store.Get(ctx, "products.json")
		require.NoError(t, err)
		assert.Equal(t, `[]`, string(got))
		assert.Equal(t, obj.ETag, meta.ETag)
		assert.Equal(t, "https://blobs.test/products.json", meta.URL)
		assert.Equal(t, int64(2), meta.Size)
		assert.Equal(t, "application/json", meta.ContentType)
	})

	t.Run("missing key", func(t *testing.T) {
		_, _, err := store.Get(ctx, "nope.json")
		assert.ErrorIs(t, err, shared.ErrBlobNotFound)
		_, err = store.Head(ctx, "nope.json")
		assert.ErrorIs(t, err, shared.ErrBlobNotFound)
	})

	t.Run("rejects traversal", func(t *testing.T) {
		_, err := store.Put(ctx, "../escape", []byte("x"), shared.PutOptions{})
		assert.ErrorIs(t, err, ErrInvalidPathname)
	})

	t.Run("same content yields same etag", func(t *testing.T) {
		a, err := store.Put(ctx, "a.txt", []byte("hello"), shared.PutOptions{})
		require.NoError(t, err)
		b, err := store.Put(ctx, "b.txt", []byte("hello"), shared.PutOptions{})
		require.NoError(t, err)
		assert.Equal(t, a.ETag, b.ETag)
		assert.Equal(t, "5d41402abc4b2a76b9719d911017c592", a.ETag)
	})
}

func TestMemoryBlobStore_ConditionalPut(t *testing.T) {
	ctx := context.Background()

	t.Run("if-none-match fails when the key exists", func(t *testing.T) {
		store := NewMemoryBlobStore("")
		_, err := store.Put(ctx, "doc.json", []byte("1"), shared.PutOptions{IfNoneMatch: true})
		require.NoError(t, err)
		_, err = store.Put(ctx, "doc.json", []byte("2"), shared.PutOptions{IfNoneMatch: true})
		assert.ErrorIs(t, err, shared.ErrPreconditionFailed)
	})

	t.Run("if-match accepts quoted and bare etags", func(t *testing.T) {
		store := NewMemoryBlobStore("")
		first, err := store.Put(ctx, "doc.json", []byte("1"), shared.PutOptions{})
		require.NoError(t, err)

		second, err := store.Put(ctx, "doc.json", []byte("2"), shared.PutOptions{IfMatch: `"` + first.ETag + `"`})
		require.NoError(t, err)

		_, err = store.Put(ctx, "doc.json", []byte("3"), shared.PutOptions{IfMatch: first.ETag})
		assert.ErrorIs(t, err, shared.ErrPreconditionFailed)

		_, err = store.Put(ctx, "doc.json", []byte("3"), shared.PutOptions{IfMatch: second.ETag})
		assert.NoError(t, err)
	})

	t.Run("if-match fails on a missing key", func(t *testing.T) {
		store := NewMemoryBlobStore("")
		_, err := store.Put(ctx, "doc.json", []byte("1"), shared.PutOptions{IfMatch: "abc"})
		assert.ErrorIs(t, err, shared.ErrPreconditionFailed)
	})
}

func TestMemoryBlobStore_ListDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryBlobStore("")
	for _, key := range []string{"uploads/b.png", "uploads/a.png", "products.json"} {
		_, err := store.Put(ctx, key, []byte(key), shared.PutOptions{})
		require.NoError(t, err)
	}

	list, err := store.List(ctx, "uploads/")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "uploads/a.png", list[0].Pathname)
	assert.Equal(t, "uploads/b.png", list[1].Pathname)

	require.NoError(t, store.Delete(ctx, "uploads/a.png"))
	require.NoError(t, store.Delete(ctx, "uploads/a.png"))
	assert.Equal(t, 2, store.Len())
	assert.NoError(t, store.Ping(ctx))
}
