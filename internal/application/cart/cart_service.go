// Package cart runs the session-scoped shopping cart and WhatsApp checkout.
package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ProductLookup resolves products from the catalog
type ProductLookup interface {
	Get(ctx context.Context, id string) (*catalog.Product, error)
}

// ContactLookup resolves the store's whatsapp number
type ContactLookup interface {
	Whatsapp(ctx context.Context) (string, error)
}

// defaultMaxAttempts bounds the read-modify-write loop on one cart. With n
// writers racing on a cart, n attempts are always enough for each of them.
const defaultMaxAttempts = 10

// CartService manages carts keyed by an opaque session id.
// Line items are always snapshots of the stored catalog product.
type CartService struct {
	carts       cart.Store
	products    ProductLookup
	contacts    ContactLookup
	metrics     *telemetry.StoreMetrics
	logger      *zap.Logger
	maxAttempts int
}

// CartServiceOption is a functional option for CartService
type CartServiceOption func(*CartService)

// WithMaxAttempts sets how often a write is retried after a concurrent change
func WithMaxAttempts(n int) CartServiceOption {
	return func(s *CartService) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// NewCartService creates a new CartService
func NewCartService(carts cart.Store, products ProductLookup, contacts ContactLookup, metrics *telemetry.StoreMetrics, logger *zap.Logger, opts ...CartServiceOption) *CartService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &CartService{
		carts:       carts,
		products:    products,
		contacts:    contacts,
		metrics:     metrics,
		logger:      logger,
		maxAttempts: defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the cart for id. An unknown, expired or malformed id yields a
// fresh empty cart with a new id; it is only stored once it is modified.
func (s *CartService) Get(ctx context.Context, id string) (*cart.Cart, error) {
	if _, err := uuid.Parse(id); err != nil {
		return cart.New(), nil
	}
	c, err := s.carts.Get(ctx, id)
	if errors.Is(err, cart.ErrCartNotFound) {
		return cart.New(), nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// AddItem adds qty units of the catalog product to the cart
func (s *CartService) AddItem(ctx context.Context, id, productID string, qty int) (*cart.Cart, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "cart", "add_item",
		telemetry.SpanAttrCartID, id, telemetry.SpanAttrProductID, productID)
	defer span.End()

	product, err := s.products.Get(ctx, productID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	c, err := s.mutate(ctx, "add_item", id, func(c *cart.Cart) error {
		c.Add(*product, qty)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return c, nil
}

// SetQuantity replaces the quantity of a line. A quantity of zero or less
// removes it.
func (s *CartService) SetQuantity(ctx context.Context, id, productID string, qty int) (*cart.Cart, error) {
	return s.update(ctx, "set_quantity", id, productID, func(c *cart.Cart) bool {
		return c.SetQuantity(productID, qty)
	})
}

// RemoveItem drops a line from the cart
func (s *CartService) RemoveItem(ctx context.Context, id, productID string) (*cart.Cart, error) {
	return s.update(ctx, "remove_item", id, productID, func(c *cart.Cart) bool {
		return c.Remove(productID)
	})
}

func (s *CartService) update(ctx context.Context, op, id, productID string, fn func(*cart.Cart) bool) (*cart.Cart, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "cart", op,
		telemetry.SpanAttrCartID, id, telemetry.SpanAttrProductID, productID)
	defer span.End()

	c, err := s.mutate(ctx, op, id, func(c *cart.Cart) error {
		if !fn(c) {
			return cart.ErrItemNotFound
		}
		return nil
	})
	if err != nil && !errors.Is(err, cart.ErrItemNotFound) {
		telemetry.RecordError(span, err)
	}
	return c, err
}

// mutate applies fn to the current cart and saves it, reloading and retrying
// when another request saved the cart in between. Errors returned by fn abort
// without writing.
func (s *CartService) mutate(ctx context.Context, op, id string, fn func(*cart.Cart) error) (*cart.Cart, error) {
	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		c, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := fn(c); err != nil {
			return nil, err
		}

		err = s.carts.Save(ctx, c)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, shared.ErrConcurrencyConflict) {
			return nil, err
		}
		s.logger.Debug("Cart changed during write, retrying",
			zap.String("operation", op),
			zap.String("cart_id", id),
			zap.Int("attempt", attempt),
		)
		lastErr = err
	}
	return nil, lastErr
}

// Clear discards the cart
func (s *CartService) Clear(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return nil
	}
	return s.carts.Delete(ctx, id)
}

// Checkout builds the wa.me link for the cart. Nothing is recorded and the
// cart is left as it is.
func (s *CartService) Checkout(ctx context.Context, id string) (*CheckoutResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "cart", "checkout", telemetry.SpanAttrCartID, id)
	defer span.End()

	c, err := s.Get(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if c.IsEmpty() {
		return nil, cart.ErrEmptyCart
	}
	whatsapp, err := s.contacts.Whatsapp(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	link, err := c.CheckoutLink(whatsapp)
	if err != nil {
		return nil, err
	}

	total := c.TotalPrice()
	s.metrics.RecordCheckout(ctx, c.ItemCount(), total)
	s.logger.Info("Checkout link generated",
		zap.String("cart_id", c.ID),
		zap.Int("items", c.ItemCount()),
		zap.String("total", total.String()),
	)
	return &CheckoutResult{URL: link, ItemCount: c.ItemCount(), Total: catalog.NewPrice(total)}, nil
}
