package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/shared"
)

const defaultCartKeyPrefix = "cart:"

// DefaultCartTTL is used when no positive TTL is configured
const DefaultCartTTL = 7 * 24 * time.Hour

// RedisCartStore implements cart.Store using Redis.
// Suitable for deployments with several instances sharing cart state.
type RedisCartStore struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
}

// NewRedisCartStoreWithClient creates a store with an existing Redis client
func NewRedisCartStoreWithClient(client redis.UniversalClient, keyPrefix string, ttl time.Duration) *RedisCartStore {
	if keyPrefix == "" {
		keyPrefix = defaultCartKeyPrefix
	}
	if ttl <= 0 {
		ttl = DefaultCartTTL
	}
	return &RedisCartStore{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

func (s *RedisCartStore) key(id string) string {
	return s.keyPrefix + id
}

// Get loads a cart and slides its expiry
func (s *RedisCartStore) Get(ctx context.Context, id string) (*cart.Cart, error) {
	data, err := s.client.GetEx(ctx, s.key(id), s.ttl).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, cart.ErrCartNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	var c cart.Cart
	if err := json.Unmarshal(data, &c); err != nil {
		// Unreadable carts are dropped rather than blocking the session
		_ = s.client.Del(ctx, s.key(id)).Err()
		return nil, cart.ErrCartNotFound
	}
	c.ID = id
	if c.Items == nil {
		c.Items = []cart.Item{}
	}
	return &c, nil
}

// Save stores the cart with a fresh TTL. The version check and the write run
// in one WATCH/MULTI transaction so concurrent saves of a cart cannot
// overwrite each other.
func (s *RedisCartStore) Save(ctx context.Context, c *cart.Cart) error {
	next := *c
	next.Version = c.Version + 1
	data, err := json.Marshal(&next)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}

	key := s.key(c.ID)
	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		stored, err := storedVersion(ctx, tx, key)
		if err != nil {
			return err
		}
		if stored != c.Version {
			return shared.ErrConcurrencyConflict
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			return nil
		})
		return err
	}, key)

	switch {
	case errors.Is(err, redis.TxFailedErr), errors.Is(err, shared.ErrConcurrencyConflict):
		return shared.ErrConcurrencyConflict
	case err != nil:
		return fmt.Errorf("failed to save cart: %w", err)
	}
	c.Version = next.Version
	return nil
}

// storedVersion reads the version of the cart under key; a missing or
// unreadable cart counts as version zero
func storedVersion(ctx context.Context, tx *redis.Tx, key string) (int64, error) {
	data, err := tx.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var head struct {
		Version int64 `json:"version"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return 0, nil
	}
	return head.Version, nil
}

// Delete removes a cart; deleting a missing cart is not an error
func (s *RedisCartStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}

// Ping checks the Redis connection
func (s *RedisCartStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis client
func (s *RedisCartStore) Close() error {
	return s.client.Close()
}

var _ cart.Store = (*RedisCartStore)(nil)
