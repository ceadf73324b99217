package catalog

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Filter returns the products matching category and query, preserving order.
// An empty category or "all" matches every product. An unknown category
// matches nothing. The query is a case-insensitive substring match over name
// and description after NFC normalization and Unicode case folding.
func Filter(products []Product, category, query string) []Product {
	result := make([]Product, 0, len(products))

	var want Category
	matchAll := category == "" || strings.EqualFold(category, CategoryAll)
	if !matchAll {
		parsed, err := ParseCategory(category)
		if err != nil {
			return result
		}
		want = parsed
	}

	// cases.Caser is stateful and must not be shared across goroutines
	folder := cases.Fold()
	needle := fold(folder, strings.TrimSpace(query))

	for _, p := range products {
		if !matchAll && p.Category != want {
			continue
		}
		if needle != "" &&
			!strings.Contains(fold(folder, p.Name), needle) &&
			!strings.Contains(fold(folder, p.Description), needle) {
			continue
		}
		result = append(result, p)
	}
	return result
}

func fold(c cases.Caser, s string) string {
	if s == "" {
		return ""
	}
	return c.String(norm.NFC.String(s))
}
