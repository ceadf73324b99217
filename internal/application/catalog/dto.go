package catalog

import (
	"time"

	"github.com/storefront/backend/internal/domain/catalog"
)

// ListQuery narrows the public product list
type ListQuery struct {
	Category string
	Query    string
}

// SaveResult is returned by writes of the whole products document
type SaveResult struct {
	URL       string
	Version   string
	Products  int
	Migrated  bool
	WrittenAt time.Time
}

// ProductResult is returned by single-product writes
type ProductResult struct {
	Product catalog.Product
	Version string
}

// CategoryCount is one entry of the closed category set with the number of
// products currently listed under it
type CategoryCount struct {
	Name     string `json:"name"`
	Products int    `json:"products"`
}
