package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ids(products []Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}

func TestFilter(t *testing.T) {
	products := []Product{
		{ID: "p1", Name: "Oud Royal", Description: "Deep woody scent", Category: CategoryPerfumes},
		{ID: "p2", Name: "Linen Shirt", Description: "Summer wear", Category: CategoryApparel},
		{ID: "p3", Name: "Rose Cream", Description: "Soft ROSE extract", Category: CategoryCreams},
		{ID: "p4", Name: "Crème Brûlée Mist", Description: "Sweet", Category: CategoryPerfumes},
		{ID: "p5", Name: "STRASSE Scarf", Description: "", Category: CategoryApparel},
	}

	tests := []struct {
		name     string
		category string
		query    string
		want     []string
	}{
		{"all with empty query returns everything in order", "all", "", []string{"p1", "p2", "p3", "p4", "p5"}},
		{"empty category means all", "", "", []string{"p1", "p2", "p3", "p4", "p5"}},
		{"category only", "Perfumes", "", []string{"p1", "p4"}},
		{"category is case-insensitive", "creams", "", []string{"p3"}},
		{"query matches name case-insensitively", "all", "oud", []string{"p1"}},
		{"query matches description", "all", "rose", []string{"p3"}},
		{"category and query combine", "Apparel", "shirt", []string{"p2"}},
		{"query with accents", "all", "CRÈME", []string{"p4"}},
		{"decomposed accents match composed text", "all", "cre\u0300me", []string{"p4"}},
		{"full case folding", "all", "straße", []string{"p5"}},
		{"unknown category yields nothing", "Shoes", "", []string{}},
		{"no match yields empty", "all", "nothing-here", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(products, tt.category, tt.query)
			assert.NotNil(t, got)
			assert.Equal(t, tt.want, ids(got))
		})
	}

	t.Run("category with no products yields an empty slice", func(t *testing.T) {
		got := Filter(products[:2], "Creams", "")
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}
