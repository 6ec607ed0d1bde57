// Package catalog defines the read-only product and stock lookups the cart
// validates against.
package catalog

import (
	"context"

	"github.com/utafrali/rocketshoes/internal/domain"
)

// StockLookup returns the current stock of a product. Results are never
// cached by callers.
type StockLookup interface {
	Stock(ctx context.Context, productID int) (domain.Stock, error)
}

// ProductLookup returns a product record. The returned Amount is not
// meaningful.
type ProductLookup interface {
	Product(ctx context.Context, productID int) (domain.Product, error)
}

// Catalog is a full catalog source as served by the stock API.
type Catalog interface {
	StockLookup
	ProductLookup
	List(ctx context.Context) ([]domain.Product, error)
}
