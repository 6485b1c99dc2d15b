package customer

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Customer is a buyer with a cashback wallet.
type Customer struct {
	ID        string
	Name      string
	Wallet    decimal.Decimal
	CreatedAt time.Time
}

// Repository defines persistence operations for customers.
type Repository interface {
	Create(ctx context.Context, c *Customer) error
	// Get returns a *domain.NotFoundError when the customer does not exist.
	Get(ctx context.Context, id string) (*Customer, error)
	// GetForUpdate is Get with an exclusive row lock held until the unit of
	// work ends.
	GetForUpdate(ctx context.Context, id string) (*Customer, error)
	Save(ctx context.Context, c *Customer) error
}
