package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/shared"
)

type cartEntry struct {
	data      []byte
	version   int64
	expiresAt time.Time
}

// InMemoryCartStore implements cart.Store with a map.
// WARNING: carts are not shared across instances and vanish on restart.
type InMemoryCartStore struct {
	mu        sync.RWMutex
	entries   map[string]cartEntry
	ttl       time.Duration
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryCartStore creates a store and starts its expiry sweeper
func NewInMemoryCartStore(ttl time.Duration) *InMemoryCartStore {
	if ttl <= 0 {
		ttl = DefaultCartTTL
	}
	s := &InMemoryCartStore{
		entries:  make(map[string]cartEntry),
		ttl:      ttl,
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
	s.wg.Add(1)
	go s.cleanupLoop()
	return s
}

// Get returns a copy of the stored cart and slides its expiry
func (s *InMemoryCartStore) Get(_ context.Context, id string) (*cart.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok || s.now().After(e.expiresAt) {
		delete(s.entries, id)
		return nil, cart.ErrCartNotFound
	}
	e.expiresAt = s.now().Add(s.ttl)
	s.entries[id] = e

	// Stored encoded so callers never share item slices
	var c cart.Cart
	if err := json.Unmarshal(e.data, &c); err != nil {
		return nil, cart.ErrCartNotFound
	}
	if c.Items == nil {
		c.Items = []cart.Item{}
	}
	return &c, nil
}

// Save stores the cart with a fresh TTL if the stored version still matches
func (s *InMemoryCartStore) Save(_ context.Context, c *cart.Cart) error {
	next := *c
	next.Version = c.Version + 1
	data, err := json.Marshal(&next)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var stored int64
	if e, ok := s.entries[c.ID]; ok && !s.now().After(e.expiresAt) {
		stored = e.version
	}
	if stored != c.Version {
		return shared.ErrConcurrencyConflict
	}
	s.entries[c.ID] = cartEntry{data: data, version: next.Version, expiresAt: s.now().Add(s.ttl)}
	c.Version = next.Version
	return nil
}

// Delete removes a cart
func (s *InMemoryCartStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

// Ping always succeeds
func (s *InMemoryCartStore) Ping(context.Context) error {
	return nil
}

// Close stops the sweeper. Safe to call multiple times.
func (s *InMemoryCartStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

func (s *InMemoryCartStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *InMemoryCartStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, id)
		}
	}
}

// Size returns the number of stored carts, expired or not
func (s *InMemoryCartStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

var _ cart.Store = (*InMemoryCartStore)(nil)
