// Package account registers customers and exposes their wallet history.
package account

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/PerrimLc/Trabalho-final-API/internal/domain"
	"github.com/PerrimLc/Trabalho-final-API/internal/domain/cashback"
	"github.com/PerrimLc/Trabalho-final-API/internal/domain/customer"
	"github.com/PerrimLc/Trabalho-final-API/internal/domain/store"
)

type Service struct {
	uow store.UnitOfWork
	now func() time.Time
}

func NewService(uow store.UnitOfWork) *Service {
	return &Service{uow: uow, now: time.Now}
}

// Register creates a customer with an empty wallet.
func (s *Service) Register(ctx context.Context, name string) (*customer.Customer, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.InvalidInput("name", "required")
	}
	c := &customer.Customer{
		ID:        uuid.New().String(),
		Name:      name,
		Wallet:    decimal.Zero,
		CreatedAt: s.now().UTC(),
	}
	if err := s.uow.Do(ctx, func(ctx context.Context, repos store.Repositories) error {
		return repos.Customers.Create(ctx, c)
	}); err != nil {
		return nil, err
	}
	zctx.From(ctx).Info("Customer registered", zap.String("customer_id", c.ID))
	return c, nil
}

func (s *Service) Get(ctx context.Context, id string) (*customer.Customer, error) {
	var c *customer.Customer
	err := s.uow.Do(ctx, func(ctx context.Context, repos store.Repositories) error {
		var err error
		c, err = repos.Customers.Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Cashback returns the customer's cashback records, newest first.
func (s *Service) Cashback(ctx context.Context, id string) ([]cashback.Record, error) {
	var out []cashback.Record
	err := s.uow.Do(ctx, func(ctx context.Context, repos store.Repositories) error {
		if _, err := repos.Customers.Get(ctx, id); err != nil {
			return err
		}
		var err error
		out, err = repos.Cashback.ListByCustomer(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
