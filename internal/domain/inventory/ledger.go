// Package inventory guards per-product stock.
package inventory

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/PerrimLc/Trabalho-final-API/internal/domain"
	"github.com/PerrimLc/Trabalho-final-API/internal/domain/product"
)

// Ledger checks and mutates product stock through a product repository.
//
// A Ledger is bound to the repository of a single unit of work; reads take a
// row lock so a check and the following decrement observe the same stock.
type Ledger struct {
	products product.Repository
}

// NewLedger creates a Ledger over products.
func NewLedger(products product.Repository) *Ledger {
	return &Ledger{products: products}
}

// HasStock reports whether the product exists and holds at least qty units.
// A missing product reports false without error.
func (l *Ledger) HasStock(ctx context.Context, productID string, qty int) (bool, error) {
	if qty <= 0 {
		return false, domain.InvalidInput("quantity", "must be greater than 0")
	}
	p, err := l.products.GetForUpdate(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, errors.Wrap(err, "get product")
	}
	return p.Stock >= qty, nil
}

// Decrement removes qty units from the product stock.
func (l *Ledger) Decrement(ctx context.Context, productID string, qty int) (*product.Product, error) {
	if qty <= 0 {
		return nil, domain.InvalidInput("quantity", "must be greater than 0")
	}
	p, err := l.products.GetForUpdate(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p.Stock < qty {
		return nil, &domain.InsufficientStockError{
			ProductID: productID,
			Available: p.Stock,
			Requested: qty,
		}
	}
	p.Stock -= qty
	if err := l.products.Save(ctx, p); err != nil {
		return nil, errors.Wrap(err, "save product")
	}
	return p, nil
}

// Increment adds qty units to the product stock.
func (l *Ledger) Increment(ctx context.Context, productID string, qty int) (*product.Product, error) {
	if qty <= 0 {
		return nil, domain.InvalidInput("quantity", "must be greater than 0")
	}
	p, err := l.products.GetForUpdate(ctx, productID)
	if err != nil {
		return nil, err
	}
	p.Stock += qty
	if err := l.products.Save(ctx, p); err != nil {
		return nil, errors.Wrap(err, "save product")
	}
	return p, nil
}
