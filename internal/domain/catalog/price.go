package catalog

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Price is a bare numeric amount with no currency attached.
// It is stored as a JSON number but also accepts numeric strings on input.
type Price struct {
	decimal.Decimal
}

// NewPrice wraps a decimal amount
func NewPrice(d decimal.Decimal) Price {
	return Price{Decimal: d}
}

// PriceFromFloat builds a price from a float literal
func PriceFromFloat(f float64) Price {
	return Price{Decimal: decimal.NewFromFloat(f)}
}

// MarshalJSON writes the amount as an unquoted JSON number
func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(p.Decimal.String()), nil
}

// UnmarshalJSON accepts 250, 250.5 or "250.5"
func (p *Price) UnmarshalJSON(data []byte) error {
	if string(data) == `""` {
		return fmt.Errorf("price cannot be an empty string")
	}
	return p.Decimal.UnmarshalJSON(data)
}

// Amount returns the underlying decimal, treating a nil price as zero
func (p *Price) Amount() decimal.Decimal {
	if p == nil {
		return decimal.Zero
	}
	return p.Decimal
}
