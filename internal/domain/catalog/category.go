package catalog

import (
	"strings"

	"github.com/storefront/backend/internal/domain/shared"
)

// Category is one of the store's fixed product categories
type Category string

const (
	CategoryPerfumes Category = "Perfumes"
	CategoryApparel  Category = "Apparel"
	CategoryCreams   Category = "Creams"
)

// CategoryAll selects every category when filtering
const CategoryAll = "all"

// Categories returns the closed category set in display order
func Categories() []Category {
	return []Category{CategoryPerfumes, CategoryApparel, CategoryCreams}
}

// IsValid reports whether c belongs to the closed set
func (c Category) IsValid() bool {
	switch c {
	case CategoryPerfumes, CategoryApparel, CategoryCreams:
		return true
	default:
		return false
	}
}

// String returns the category name
func (c Category) String() string {
	return string(c)
}

// ParseCategory resolves a category name case-insensitively.
// Admin forms historically sent lowercase or padded values.
func ParseCategory(s string) (Category, error) {
	trimmed := strings.TrimSpace(s)
	for _, c := range Categories() {
		if strings.EqualFold(trimmed, string(c)) {
			return c, nil
		}
	}
	return "", shared.NewDomainError("INVALID_CATEGORY", "Category must be one of: Perfumes, Apparel, Creams")
}
