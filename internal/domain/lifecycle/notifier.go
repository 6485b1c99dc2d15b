package lifecycle

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// CashbackNotice describes the wallet change produced by a paid order.
type CashbackNotice struct {
	OrderID        string
	CustomerID     string
	CustomerName   string
	CashbackEarned decimal.Decimal
	WalletBefore   decimal.Decimal
	WalletAfter    decimal.Decimal
	AmountCharged  decimal.Decimal
	ItemsTotal     decimal.Decimal
	PaidAt         time.Time
}

// Notifier is told about cashback changes after checkout commits. Delivery
// failures are logged by the caller and never undo the checkout.
type Notifier interface {
	NotifyCashback(ctx context.Context, n CashbackNotice) error
}

// NopNotifier discards every notice.
type NopNotifier struct{}

func (NopNotifier) NotifyCashback(context.Context, CashbackNotice) error { return nil }
