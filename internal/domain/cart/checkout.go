package cart

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/storefront/backend/internal/domain/social"
)

// Summary renders the order message sent with the checkout link
func (c *Cart) Summary() string {
	var b strings.Builder
	b.WriteString("New order:\n")
	for _, it := range c.Items {
		fmt.Fprintf(&b, "- %s x%d = %s\n", it.Product.Name, it.Quantity, it.Subtotal().StringFixed(2))
	}
	fmt.Fprintf(&b, "Total: %s", c.TotalPrice().StringFixed(2))
	return b.String()
}

// CheckoutLink builds the wa.me link pre-filled with the order summary.
// The store's whatsapp setting may be a bare number or a full wa.me URL.
// No order is recorded anywhere.
func (c *Cart) CheckoutLink(whatsapp string) (string, error) {
	if c.IsEmpty() {
		return "", ErrEmptyCart
	}
	digits := social.Digits(whatsapp)
	if digits == "" {
		return "", social.ErrNoContact
	}
	text := strings.ReplaceAll(url.QueryEscape(c.Summary()), "+", "%20")
	return "https://wa.me/" + digits + "?text=" + text, nil
}
