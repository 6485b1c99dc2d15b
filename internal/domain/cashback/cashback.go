// Package cashback accrues payment rewards and redeems wallet balance.
package cashback

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Record is a cashback reward earned on a paid order. Balance is the part
// of Amount not yet redeemed.
type Record struct {
	ID         string
	CustomerID string
	OrderID    string
	Amount     decimal.Decimal
	Balance    decimal.Decimal
	Active     bool
	CreatedAt  time.Time
}

// Repository defines persistence operations for cashback records.
type Repository interface {
	Create(ctx context.Context, r *Record) error
	// ListActiveByCustomer returns active records oldest first, locked for
	// update where the store supports it.
	ListActiveByCustomer(ctx context.Context, customerID string) ([]Record, error)
	// ListByCustomer returns every record of the customer, newest first.
	ListByCustomer(ctx context.Context, customerID string) ([]Record, error)
	Save(ctx context.Context, r *Record) error
}
