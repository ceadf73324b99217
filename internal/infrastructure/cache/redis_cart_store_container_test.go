package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisCartStore_Container(t *testing.T) {
	ctx := context.Background()
	client, err := NewRedisClient(ctx, testutil.Redis(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	store := NewRedisCartStoreWithClient(client, "", time.Hour)

	t.Run("round trip", func(t *testing.T) {
		c := &cart.Cart{ID: "round-trip", Items: []cart.Item{}}
		c.Add(catalog.Product{ID: "p1", Name: "Golden Dust"}, 2)
		require.NoError(t, store.Save(ctx, c))
		assert.Equal(t, int64(1), c.Version)

		got, err := store.Get(ctx, "round-trip")
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.Version)
		require.Len(t, got.Items, 1)
		assert.Equal(t, 2, got.Items[0].Quantity)

		require.NoError(t, store.Delete(ctx, "round-trip"))
		_, err = store.Get(ctx, "round-trip")
		assert.ErrorIs(t, err, cart.ErrCartNotFound)
	})

	t.Run("stale save conflicts", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, &cart.Cart{ID: "stale", Items: []cart.Item{}}))

		first, err := store.Get(ctx, "stale")
		require.NoError(t, err)
		second, err := store.Get(ctx, "stale")
		require.NoError(t, err)

		first.Add(catalog.Product{ID: "p1", Name: "A"}, 1)
		require.NoError(t, store.Save(ctx, first))

		second.Add(catalog.Product{ID: "p2", Name: "B"}, 1)
		assert.ErrorIs(t, store.Save(ctx, second), shared.ErrConcurrencyConflict)

		got, err := store.Get(ctx, "stale")
		require.NoError(t, err)
		assert.Equal(t, int64(2), got.Version)
		require.Len(t, got.Items, 1)
		assert.Equal(t, "p1", got.Items[0].Product.ID)
	})

	t.Run("a new cart cannot replace a stored one", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, &cart.Cart{ID: "taken", Items: []cart.Item{}}))
		err := store.Save(ctx, &cart.Cart{ID: "taken", Items: []cart.Item{}})
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	})

	t.Run("reads slide the expiry", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, &cart.Cart{ID: "sliding", Items: []cart.Item{}}))
		require.NoError(t, client.Expire(ctx, "cart:sliding", 10*time.Second).Err())

		_, err := store.Get(ctx, "sliding")
		require.NoError(t, err)

		ttl, err := client.TTL(ctx, "cart:sliding").Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, 10*time.Second)
	})

	t.Run("expired cart is gone", func(t *testing.T) {
		short := NewRedisCartStoreWithClient(client, "short:", time.Second)
		require.NoError(t, short.Save(ctx, &cart.Cart{ID: "brief", Items: []cart.Item{}}))

		assert.Eventually(t, func() bool {
			_, err := short.Get(ctx, "brief")
			return errors.Is(err, cart.ErrCartNotFound)
		}, 5*time.Second, 100*time.Millisecond)
	})

	t.Run("malformed cart is dropped", func(t *testing.T) {
		require.NoError(t, client.Set(ctx, "cart:broken", "{not json", time.Hour).Err())

		_, err := store.Get(ctx, "broken")
		assert.ErrorIs(t, err, cart.ErrCartNotFound)

		exists, err := client.Exists(ctx, "cart:broken").Result()
		require.NoError(t, err)
		assert.Zero(t, exists)

		// a dropped cart counts as never stored
		assert.NoError(t, store.Save(ctx, &cart.Cart{ID: "broken", Items: []cart.Item{}}))
	})
}
