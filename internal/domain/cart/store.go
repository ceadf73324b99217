package cart

import (
	"context"

	"github.com/storefront/backend/internal/domain/shared"
)

// ErrCartNotFound is returned when no cart is stored for an id, or it expired
var ErrCartNotFound = shared.NewDomainError("CART_NOT_FOUND", "Cart not found")

// Store persists carts by id. Every Save restarts the expiry window.
//
// Save is a compare-and-set on Version: it fails with
// shared.ErrConcurrencyConflict unless the stored cart still has c.Version
// (absent for zero), and on success increments c.Version.
type Store interface {
	Get(ctx context.Context, id string) (*Cart, error)
	Save(ctx context.Context, c *Cart) error
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}
