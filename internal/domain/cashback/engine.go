package cashback

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/PerrimLc/Trabalho-final-API/internal/domain/customer"
)

// Engine accrues and redeems cashback. It holds no per-customer state.
type Engine struct {
	policy Policy
	now    func() time.Time
}

// NewEngine creates an Engine. A nil policy falls back to a percentage
// policy at DefaultRate.
func NewEngine(policy Policy) *Engine {
	if policy == nil {
		policy = PercentagePolicy{Rate: DefaultRate}
	}
	return &Engine{policy: policy, now: time.Now}
}

// Earn returns a new active record holding the reward for amountPaid,
// rounded half-up to cents. Non-positive payments earn a zero record.
func (e *Engine) Earn(customerID, orderID string, amountPaid decimal.Decimal) *Record {
	amount := decimal.Zero
	if amountPaid.IsPositive() {
		amount = e.policy.Reward(amountPaid).Round(2)
	}
	return &Record{
		ID:         uuid.New().String(),
		CustomerID: customerID,
		OrderID:    orderID,
		Amount:     amount,
		Balance:    amount,
		Active:     true,
		CreatedAt:  e.now().UTC(),
	}
}

// CreditToWallet adds the record balance to the customer wallet.
func (e *Engine) CreditToWallet(c *customer.Customer, r *Record) {
	c.Wallet = c.Wallet.Add(r.Balance)
}

// Redemption is the outcome of spending wallet balance on a total.
type Redemption struct {
	Redeemed    decimal.Decimal
	Payable     decimal.Decimal
	WalletAfter decimal.Decimal
}

// Redeem spends wallet against total. The wallet covers as much of the total
// as it can; neither result goes below zero.
func (e *Engine) Redeem(wallet, total decimal.Decimal) Redemption {
	redeemed := decimal.Min(wallet, total)
	if redeemed.IsNegative() {
		redeemed = decimal.Zero
	}
	return Redemption{
		Redeemed:    redeemed,
		Payable:     total.Sub(redeemed),
		WalletAfter: wallet.Sub(redeemed),
	}
}

// InvalidateConsumed draws consumed down from the customer's active records,
// oldest first, deactivating every record whose balance reaches zero. The
// record identified by keepID is never touched. It returns the records it
// changed.
func (e *Engine) InvalidateConsumed(
	ctx context.Context,
	repo Repository,
	customerID string,
	consumed decimal.Decimal,
	keepID string,
) ([]Record, error) {
	if !consumed.IsPositive() {
		return nil, nil
	}
	records, err := repo.ListActiveByCustomer(ctx, customerID)
	if err != nil {
		return nil, errors.Wrap(err, "list active cashback")
	}

	var changed []Record
	remaining := consumed
	for i := range records {
		if !remaining.IsPositive() {
			break
		}
		r := &records[i]
		if r.ID == keepID {
			continue
		}
		take := decimal.Min(r.Balance, remaining)
		r.Balance = r.Balance.Sub(take)
		remaining = remaining.Sub(take)
		if !r.Balance.IsPositive() {
			r.Balance = decimal.Zero
			r.Active = false
		}
		if err := repo.Save(ctx, r); err != nil {
			return nil, errors.Wrapf(err, "save cashback %s", r.ID)
		}
		changed = append(changed, *r)
	}
	return changed, nil
}
