package product

import (
	"context"

	"github.com/shopspring/decimal"
)

// Product represents a catalog item available for purchase.
//
// Stock is only mutated through the inventory ledger. Products are never
// destroyed: removal flips Active to false.
type Product struct {
	ID         string
	Name       string
	Price      decimal.Decimal
	Stock      int
	Active     bool
	CategoryID string
}

// Category groups products in the catalog.
type Category struct {
	ID   string
	Name string
}

// Repository defines persistence operations for the product catalog.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	// Get returns a *domain.NotFoundError when the product does not exist.
	Get(ctx context.Context, id string) (*Product, error)
	// GetForUpdate is Get with an exclusive row lock held until the unit of
	// work ends, so a stock check and the following write see the same row.
	GetForUpdate(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context) ([]Product, error)
	Save(ctx context.Context, p *Product) error
}

// CategoryRepository defines persistence operations for categories.
type CategoryRepository interface {
	Create(ctx context.Context, c *Category) error
	Get(ctx context.Context, id string) (*Category, error)
	List(ctx context.Context) ([]Category, error)
}
