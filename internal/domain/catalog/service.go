// Package catalog manages products and categories.
package catalog

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/PerrimLc/Trabalho-final-API/internal/domain"
	"github.com/PerrimLc/Trabalho-final-API/internal/domain/inventory"
	"github.com/PerrimLc/Trabalho-final-API/internal/domain/product"
	"github.com/PerrimLc/Trabalho-final-API/internal/domain/store"
)

// ProductInput holds the writable fields of a product. A nil Stock leaves
// the current stock unchanged on update and means zero on create.
type ProductInput struct {
	Name       string
	Price      decimal.Decimal
	Stock      *int
	CategoryID string
}

// Service manages the product catalog.
type Service struct {
	uow store.UnitOfWork
}

// NewService creates a catalog Service.
func NewService(uow store.UnitOfWork) *Service {
	return &Service{uow: uow}
}

func (in ProductInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return domain.InvalidInput("name", "required")
	}
	if in.CategoryID == "" {
		return domain.InvalidInput("category_id", "required")
	}
	if in.Price.IsNegative() {
		return domain.InvalidInput("price", "must not be negative")
	}
	if in.Stock != nil && *in.Stock < 0 {
		return domain.InvalidInput("stock", "must not be negative")
	}
	return nil
}

// CreateProduct adds an active product to an existing category.
func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (*product.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	p := &product.Product{
		ID:         uuid.New().String(),
		Name:       strings.TrimSpace(in.Name),
		Price:      in.Price,
		Active:     true,
		CategoryID: in.CategoryID,
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}

	err := s.uow.Do(ctx, func(ctx context.Context, repos store.Repositories) error {
		if _, err := repos.Categories.Get(ctx, in.CategoryID); err != nil {
			return err
		}
		return repos.Products.Create(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	zctx.From(ctx).Info("Product created", zap.String("product_id", p.ID), zap.String("name", p.Name))
	return p, nil
}

// UpdateProduct replaces the writable fields of a product.
func (s *Service) UpdateProduct(ctx context.Context, id string, in ProductInput) (*product.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var updated *product.Product
	err := s.uow.Do(ctx, func(ctx context.Context, repos store.Repositories) error {
		p, err := repos.Products.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if _, err := repos.Categories.Get(ctx, in.CategoryID); err != nil {
			return err
		}
		p.Name = strings.TrimSpace(in.Name)
		p.Price = in.Price
		p.CategoryID = in.CategoryID
		if in.Stock != nil {
			p.Stock = *in.Stock
		}
		if err := repos.Products.Save(ctx, p); err != nil {
			return errors.Wrap(err, "save product")
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// GetProduct returns a product, active or not.
func (s *Service) GetProduct(ctx context.Context, id string) (*product.Product, error) {
	var p *product.Product
	err := s.uow.Do(ctx, func(ctx context.Context, repos store.Repositories) error {
		var err error
		p, err = repos.Products.Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListActiveProducts returns the products available for sale.
func (s *Service) ListActiveProducts(ctx context.Context) ([]product.Product, error) {
	var all []product.Product
	err := s.uow.Do(ctx, func(ctx context.Context, repos store.Repositories) error {
		var err error
		all, err = repos.Products.List(ctx)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	active := all[:0]
	for _, p := range all {
		if p.Active {
			active = append(active, p)
		}
	}
	return active, nil
}

// DeactivateProduct removes a product from sale. The row is kept so past
// line items still resolve.
func (s *Service) DeactivateProduct(ctx context.Context, id string) error {
	err := s.uow.Do(ctx, func(ctx context.Context, repos store.Repositories) error {
		p, err := repos.Products.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		p.Active = false
		return repos.Products.Save(ctx, p)
	})
	if err != nil {
		return err
	}
	zctx.From(ctx).Info("Product deactivated", zap.String("product_id", id))
	return nil
}

// Restock adds qty units to a product.
func (s *Service) Restock(ctx context.Context, id string, qty int) (*product.Product, error) {
	var p *product.Product
	err := s.uow.Do(ctx, func(ctx context.Context, repos store.Repositories) error {
		var err error
		p, err = inventory.NewLedger(repos.Products).Increment(ctx, id, qty)
		return err
	})
	if err != nil {
		return nil, err
	}
	zctx.From(ctx).Info("Product restocked",
		zap.String("product_id", id),
		zap.Int("added", qty),
		zap.Int("stock", p.Stock),
	)
	return p, nil
}

// CreateCategory adds a category.
func (s *Service) CreateCategory(ctx context.Context, name string) (*product.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.InvalidInput("name", "required")
	}
	c := &product.Category{ID: uuid.New().String(), Name: name}
	err := s.uow.Do(ctx, func(ctx context.Context, repos store.Repositories) error {
		return repos.Categories.Create(ctx, c)
	})
	if err != nil {
		return nil, errors.Wrap(err, "create category")
	}
	return c, nil
}

// ListCategories returns every category.
func (s *Service) ListCategories(ctx context.Context) ([]product.Category, error) {
	var out []product.Category
	err := s.uow.Do(ctx, func(ctx context.Context, repos store.Repositories) error {
		var err error
		out, err = repos.Categories.List(ctx)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "list categories")
	}
	return out, nil
}
