// Package store defines the unit of work the domain services run in.
package store

import (
	"context"

	"github.com/PerrimLc/Trabalho-final-API/internal/domain/cashback"
	"github.com/PerrimLc/Trabalho-final-API/internal/domain/customer"
	"github.com/PerrimLc/Trabalho-final-API/internal/domain/order"
	"github.com/PerrimLc/Trabalho-final-API/internal/domain/product"
)

// Repositories bundles the repositories bound to one unit of work.
type Repositories struct {
	Customers  customer.Repository
	Categories product.CategoryRepository
	Products   product.Repository
	Orders     order.Repository
	Cashback   cashback.Repository
}

// UnitOfWork runs fn atomically. Every write made through repos is
// committed when fn returns nil and discarded when it returns an error.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
