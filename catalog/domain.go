// Package catalog is the product aggregate. Products are partitioned by
// normalized category, so listings filtered by category stay within one
// partition and a category change moves the row between partitions.
package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Product is a catalog item.
type Product struct {
	ID          uuid.UUID `json:"id"`
	Sku         string    `json:"sku"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	BasePrice   float64   `json:"basePrice"`
	Category    string    `json:"category"`
	IsActive    bool      `json:"isActive"`

	CreatedUtc  time.Time `json:"createdUtc"`
	ModifiedUtc time.Time `json:"modifiedUtc"`
}

// NormalizeCategory maps a display category to its partition key. "Books",
// " books " and "BOOKS" all land in the same partition; the display form is
// kept on the row itself.
func NormalizeCategory(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}
