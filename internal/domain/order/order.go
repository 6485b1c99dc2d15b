package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Order is a customer order together with its line items.
//
// CustomerID is a reference only; the customer is loaded separately when
// needed. Items are owned by the order and removed with it.
type Order struct {
	ID         string
	CustomerID string
	Status     Status
	CreatedAt  time.Time
	Items      []LineItem
	// TotalOverride is the amount actually charged at checkout. Nil until
	// the order is paid.
	TotalOverride *decimal.Decimal
}

// LineItem is a single product line with the price and discount captured
// at the moment it was added.
type LineItem struct {
	ID          string
	ProductID   string
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
	Discount    decimal.Decimal
}

// Subtotal returns unit price × quantity − discount.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity))).Sub(li.Discount)
}

// Total returns the exact sum of the line item subtotals.
func (o *Order) Total() decimal.Decimal {
	sum := decimal.Zero
	for _, li := range o.Items {
		sum = sum.Add(li.Subtotal())
	}
	return sum
}

// DiscountTotal returns the sum of the line item discounts.
func (o *Order) DiscountTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, li := range o.Items {
		sum = sum.Add(li.Discount)
	}
	return sum
}

// Payable returns the charged amount once the order is paid, and the items
// total before that.
func (o *Order) Payable() decimal.Decimal {
	if o.TotalOverride != nil {
		return *o.TotalOverride
	}
	return o.Total()
}

// AddItem appends a line item. Only carts accept new items after creation;
// CreateOrder builds its items before the order is first persisted.
func (o *Order) AddItem(li LineItem) {
	o.Items = append(o.Items, li)
}

// Repository defines persistence operations for orders.
type Repository interface {
	// Get returns a *domain.NotFoundError when the order does not exist.
	Get(ctx context.Context, id string) (*Order, error)
	GetForUpdate(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context) ([]Order, error)
	// Save inserts or updates the order row and inserts line items that are
	// not stored yet. Stored line items are never rewritten.
	Save(ctx context.Context, o *Order) error
	// Delete removes the order and its line items. It returns a
	// *domain.NotFoundError when the order does not exist.
	Delete(ctx context.Context, id string) error

	ExistsByCustomer(ctx context.Context, customerID string) (bool, error)
	ExistsByCustomerAndStatus(ctx context.Context, customerID string, status Status) (bool, error)
	// FindByCustomerAndStatus returns the most recent matching order or a
	// *domain.NotFoundError.
	FindByCustomerAndStatus(ctx context.Context, customerID string, status Status) (*Order, error)
}
