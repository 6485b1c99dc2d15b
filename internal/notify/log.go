package notify

import (
	"context"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/PerrimLc/Trabalho-final-API/internal/domain/lifecycle"
)

// Log writes every cashback notice to the context logger. It is the
// notifier used when no webhook is configured.
type Log struct{}

var _ lifecycle.Notifier = Log{}

func (Log) NotifyCashback(ctx context.Context, n lifecycle.CashbackNotice) error {
	zctx.From(ctx).Info("Cashback earned",
		zap.String("order_id", n.OrderID),
		zap.String("customer_id", n.CustomerID),
		zap.String("customer_name", n.CustomerName),
		zap.Stringer("cashback_earned", n.CashbackEarned),
		zap.Stringer("wallet_before", n.WalletBefore),
		zap.Stringer("wallet_after", n.WalletAfter),
		zap.Stringer("amount_charged", n.AmountCharged),
		zap.Stringer("items_total", n.ItemsTotal),
	)
	return nil
}
