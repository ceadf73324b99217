package cart

import (
	"time"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/catalog"
)

// ItemResponse is one cart line
type ItemResponse struct {
	Product  catalog.Product `json:"product"`
	Quantity int             `json:"quantity"`
	Subtotal catalog.Price   `json:"subtotal"`
}

// CartResponse is the cart as returned to the storefront
type CartResponse struct {
	ID         string         `json:"id"`
	Items      []ItemResponse `json:"items"`
	ItemCount  int            `json:"itemCount"`
	TotalPrice catalog.Price  `json:"totalPrice"`
	IsEmpty    bool           `json:"isEmpty"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

// ToCartResponse converts a cart to its response shape
func ToCartResponse(c *cart.Cart) CartResponse {
	items := make([]ItemResponse, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, ItemResponse{
			Product:  it.Product,
			Quantity: it.Quantity,
			Subtotal: catalog.NewPrice(it.Subtotal()),
		})
	}
	return CartResponse{
		ID:         c.ID,
		Items:      items,
		ItemCount:  c.ItemCount(),
		TotalPrice: catalog.NewPrice(c.TotalPrice()),
		IsEmpty:    c.IsEmpty(),
		UpdatedAt:  c.UpdatedAt,
	}
}

// CheckoutResult carries the generated wa.me link
type CheckoutResult struct {
	URL       string
	ItemCount int
	Total     catalog.Price
}
