package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
)

// Cart errors
var (
	ErrEmptyCart    = shared.NewDomainError("EMPTY_CART", "Cart is empty")
	ErrItemNotFound = shared.NewDomainError("CART_ITEM_NOT_FOUND", "Item is not in the cart")
)

// Item is a product snapshot plus a quantity
type Item struct {
	Product  catalog.Product `json:"product"`
	Quantity int             `json:"quantity"`
}

// Subtotal returns price * quantity; an unpriced product counts as zero
func (i Item) Subtotal() decimal.Decimal {
	return i.Product.Price.Amount().Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart is a shopper's in-progress selection, scoped to one session id.
// It holds at most one item per product id.
type Cart struct {
	ID        string    `json:"id"`
	Items     []Item    `json:"items"`
	UpdatedAt time.Time `json:"updatedAt"`
	// Version counts saves. Zero means the cart was never stored.
	Version int64 `json:"version"`
}

// New creates an empty cart with a fresh id
func New() *Cart {
	return &Cart{ID: uuid.NewString(), Items: []Item{}, UpdatedAt: time.Now().UTC()}
}

func (c *Cart) indexOf(productID string) int {
	for i := range c.Items {
		if c.Items[i].Product.ID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) touch() {
	c.UpdatedAt = time.Now().UTC()
}

// Add puts qty units of p in the cart. An existing line is incremented and its
// snapshot refreshed. A non-positive qty counts as 1.
func (c *Cart) Add(p catalog.Product, qty int) {
	if qty <= 0 {
		qty = 1
	}
	if i := c.indexOf(p.ID); i >= 0 {
		c.Items[i].Quantity += qty
		c.Items[i].Product = p
	} else {
		c.Items = append(c.Items, Item{Product: p, Quantity: qty})
	}
	c.touch()
}

// Remove drops the line for productID. It reports whether a line existed.
func (c *Cart) Remove(productID string) bool {
	i := c.indexOf(productID)
	if i < 0 {
		return false
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	c.touch()
	return true
}

// SetQuantity replaces the quantity of an existing line. A qty of zero or
// less removes the line. It reports whether a line existed.
func (c *Cart) SetQuantity(productID string, qty int) bool {
	i := c.indexOf(productID)
	if i < 0 {
		return false
	}
	if qty <= 0 {
		return c.Remove(productID)
	}
	c.Items[i].Quantity = qty
	c.touch()
	return true
}

// Clear empties the cart
func (c *Cart) Clear() {
	c.Items = []Item{}
	c.touch()
}

// ItemCount returns the total number of units across all lines
func (c *Cart) ItemCount() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

// TotalPrice sums the line subtotals
func (c *Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.Items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// IsEmpty reports whether the cart has no lines
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}
