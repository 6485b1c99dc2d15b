package lifecycle

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PerrimLc/Trabalho-final-API/internal/domain"
	"github.com/PerrimLc/Trabalho-final-API/internal/domain/cashback"
	"github.com/PerrimLc/Trabalho-final-API/internal/domain/customer"
	"github.com/PerrimLc/Trabalho-final-API/internal/domain/discount"
	"github.com/PerrimLc/Trabalho-final-API/internal/domain/order"
	"github.com/PerrimLc/Trabalho-final-API/internal/domain/product"
	"github.com/PerrimLc/Trabalho-final-API/internal/domain/store"
	"github.com/PerrimLc/Trabalho-final-API/internal/storage/memory"
)

// --- Mock implementations ---

type recordingNotifier struct {
	mu      sync.Mutex
	notices []CashbackNotice
	err     error
}

func (n *recordingNotifier) NotifyCashback(_ context.Context, notice CashbackNotice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
	return n.err
}

// --- Helpers ---

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fixture struct {
	st       *memory.Store
	svc      *Service
	notifier *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memory.New()
	n := &recordingNotifier{}
	svc, err := NewService(st,
		discount.New(discount.DefaultRate),
		cashback.NewEngine(cashback.PercentagePolicy{Rate: d("0.05")}),
		n,
		WithClock(func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }),
	)
	require.NoError(t, err)
	return &fixture{st: st, svc: svc, notifier: n}
}

func (f *fixture) seed(t *testing.T, fn func(ctx context.Context, repos store.Repositories) error) {
	t.Helper()
	require.NoError(t, f.st.Do(context.Background(), fn))
}

func (f *fixture) addCustomer(t *testing.T, id string, wallet string) {
	f.seed(t, func(ctx context.Context, repos store.Repositories) error {
		return repos.Customers.Create(ctx, &customer.Customer{ID: id, Name: "Customer " + id, Wallet: d(wallet)})
	})
}

func (f *fixture) addProduct(t *testing.T, id, price string, stock int) {
	f.seed(t, func(ctx context.Context, repos store.Repositories) error {
		return repos.Products.Create(ctx, &product.Product{
			ID: id, Name: "Product " + id, Price: d(price), Stock: stock, Active: true,
		})
	})
}

func (f *fixture) stock(t *testing.T, id string) int {
	t.Helper()
	var stock int
	f.seed(t, func(ctx context.Context, repos store.Repositories) error {
		p, err := repos.Products.Get(ctx, id)
		if err != nil {
			return err
		}
		stock = p.Stock
		return nil
	})
	return stock
}

func (f *fixture) wallet(t *testing.T, id string) decimal.Decimal {
	t.Helper()
	var w decimal.Decimal
	f.seed(t, func(ctx context.Context, repos store.Repositories) error {
		c, err := repos.Customers.Get(ctx, id)
		if err != nil {
			return err
		}
		w = c.Wallet
		return nil
	})
	return w
}

// --- Tests ---

func TestAddToCartAndCheckout(t *testing.T) {
	f := newFixture(t)
	f.addCustomer(t, "c1", "0")
	f.addProduct(t, "p1", "100.00", 5)
	ctx := context.Background()

	cart, err := f.svc.AddToCart(ctx, "c1", ItemRequest{ProductID: "p1", Quantity: 2})
	require.NoError(t, err)
	require.Len(t, cart.Order.Items, 1)
	assert.Equal(t, order.StatusPending, cart.Order.Status)
	assert.True(t, d("20.00").Equal(cart.Order.Items[0].Discount))
	assert.True(t, d("180.00").Equal(cart.Total()))
	assert.Equal(t, 3, f.stock(t, "p1"))

	res, err := f.svc.Checkout(ctx, cart.Order.ID, false)
	require.NoError(t, err)
	assert.Equal(t, order.StatusPaid, res.Order.Status)
	assert.True(t, d("180.00").Equal(res.Payable))
	assert.True(t, d("180.00").Equal(res.ItemsTotal))
	assert.True(t, d("9.00").Equal(res.CashbackEarned))
	assert.True(t, d("0").Equal(res.WalletBefore))
	assert.True(t, d("9.00").Equal(res.WalletAfter))
	assert.True(t, d("9.00").Equal(f.wallet(t, "c1")))

	stored, err := f.svc.Get(ctx, cart.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusPaid, stored.Status)
	assert.True(t, d("180.00").Equal(stored.Payable()))

	require.Len(t, f.notifier.notices, 1)
	notice := f.notifier.notices[0]
	assert.Equal(t, cart.Order.ID, notice.OrderID)
	assert.Equal(t, "c1", notice.CustomerID)
	assert.True(t, d("9.00").Equal(notice.CashbackEarned))
	assert.True(t, d("180.00").Equal(notice.AmountCharged))
}

func TestAddToCart_EveryLineOfFirstCartDiscounted(t *testing.T) {
	f := newFixture(t)
	f.addCustomer(t, "c1", "0")
	f.addProduct(t, "p1", "100.00", 5)
	f.addProduct(t, "p2", "50.00", 5)
	ctx := context.Background()

	_, err := f.svc.AddToCart(ctx, "c1", ItemRequest{ProductID: "p1", Quantity: 1})
	require.NoError(t, err)
	cart, err := f.svc.AddToCart(ctx, "c1", ItemRequest{ProductID: "p2", Quantity: 1})
	require.NoError(t, err)

	require.Len(t, cart.Order.Items, 2)
	assert.True(t, d("10.00").Equal(cart.Order.Items[0].Discount))
	assert.True(t, d("5.00").Equal(cart.Order.Items[1].Discount))
	assert.True(t, d("135.00").Equal(cart.Total()))

	got, err := f.svc.Cart(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, cart.Order.ID, got.Order.ID)
}

func TestAddToCart_SecondCartNotDiscounted(t *testing.T) {
	f := newFixture(t)
	f.addCustomer(t, "c1", "0")
	f.addProduct(t, "p1", "100.00", 5)
	ctx := context.Background()

	cart, err := f.svc.AddToCart(ctx, "c1", ItemRequest{ProductID: "p1", Quantity: 1})
	require.NoError(t, err)
	_, err = f.svc.Checkout(ctx, cart.Order.ID, false)
	require.NoError(t, err)

	next, err := f.svc.AddToCart(ctx, "c1", ItemRequest{ProductID: "p1", Quantity: 1})
	require.NoError(t, err)
	assert.NotEqual(t, cart.Order.ID, next.Order.ID)
	assert.True(t, next.Order.Items[0].Discount.IsZero())
}

func TestAddToCart_Errors(t *testing.T) {
	f := newFixture(t)
	f.addCustomer(t, "c1", "0")
	f.addProduct(t, "p1", "100.00", 1)
	f.seed(t, func(ctx context.Context, repos store.Repositories) error {
		return repos.Products.Create(ctx, &product.Product{ID: "gone", Name: "Gone", Price: d("1"), Stock: 10})
	})
	ctx := context.Background()

	tests := []struct {
		name     string
		customer string
		item     ItemRequest
		wantErr  error
	}{
		{"zero quantity", "c1", ItemRequest{ProductID: "p1", Quantity: 0}, domain.ErrInvalidInput},
		{"missing product id", "c1", ItemRequest{Quantity: 1}, domain.ErrInvalidInput},
		{"unknown customer", "nobody", ItemRequest{ProductID: "p1", Quantity: 1}, domain.ErrNotFound},
		{"unknown product", "c1", ItemRequest{ProductID: "nope", Quantity: 1}, domain.ErrNotFound},
		{"inactive product", "c1", ItemRequest{ProductID: "gone", Quantity: 1}, domain.ErrNotFound},
		{"insufficient stock", "c1", ItemRequest{ProductID: "p1", Quantity: 2}, domain.ErrInsufficientStock},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.AddToCart(ctx, tt.customer, tt.item)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	assert.Equal(t, 1, f.stock(t, "p1"))
	_, err := f.svc.Cart(ctx, "c1")
	require.ErrorIs(t, err, domain.ErrNotFound, "failed adds leave no cart behind")
}

func TestCreateOrder_FirstOrderDiscountOnly(t *testing.T) {
	f := newFixture(t)
	f.addCustomer(t, "c1", "0")
	f.addProduct(t, "p1", "100.00", 10)
	ctx := context.Background()

	first, err := f.svc.CreateOrder(ctx, "c1", []ItemRequest{{ProductID: "p1", Quantity: 2}})
	require.NoError(t, err)
	assert.Equal(t, order.StatusCreated, first.Status)
	assert.True(t, d("20.00").Equal(first.DiscountTotal()))
	assert.True(t, d("180.00").Equal(first.Total()))
	assert.Equal(t, "Product p1", first.Items[0].ProductName)

	second, err := f.svc.CreateOrder(ctx, "c1", []ItemRequest{{ProductID: "p1", Quantity: 2}})
	require.NoError(t, err)
	assert.True(t, second.DiscountTotal().IsZero())
	assert.True(t, d("200.00").Equal(second.Total()))
	assert.Equal(t, 6, f.stock(t, "p1"))
}

func TestCreateOrder_OpenCartCountsAsPriorOrder(t *testing.T) {
	f := newFixture(t)
	f.addCustomer(t, "c1", "0")
	f.addProduct(t, "p1", "100.00", 10)
	ctx := context.Background()

	cart, err := f.svc.AddToCart(ctx, "c1", ItemRequest{ProductID: "p1", Quantity: 1})
	require.NoError(t, err)
	assert.True(t, d("10.00").Equal(cart.Order.DiscountTotal()))

	created, err := f.svc.CreateOrder(ctx, "c1", []ItemRequest{{ProductID: "p1", Quantity: 1}})
	require.NoError(t, err)
	assert.True(t, created.DiscountTotal().IsZero(), "an unpaid cart already used the first order")
	assert.True(t, d("100.00").Equal(created.Total()))
}

func TestCreateOrder_AtomicOnInsufficientStock(t *testing.T) {
	f := newFixture(t)
	f.addCustomer(t, "c1", "0")
	f.addProduct(t, "p1", "10.00", 5)
	f.addProduct(t, "p2", "20.00", 1)
	ctx := context.Background()

	_, err := f.svc.CreateOrder(ctx, "c1", []ItemRequest{
		{ProductID: "p1", Quantity: 3},
		{ProductID: "p2", Quantity: 2},
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.Equal(t, 5, f.stock(t, "p1"), "first decrement rolled back")
	assert.Equal(t, 1, f.stock(t, "p2"))
	orders, err := f.svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCreateOrder_Validation(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "p1", "10.00", 5)
	ctx := context.Background()

	_, err := f.svc.CreateOrder(ctx, "c1", nil)
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.svc.CreateOrder(ctx, "c1", []ItemRequest{{ProductID: "p1", Quantity: -1}})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.svc.CreateOrder(ctx, "c1", []ItemRequest{{ProductID: "p1", Quantity: 1}})
	require.ErrorIs(t, err, domain.ErrNotFound, "customer must exist")
	assert.Equal(t, 5, f.stock(t, "p1"))
}

func TestCheckout_InvalidState(t *testing.T) {
	f := newFixture(t)
	f.addCustomer(t, "c1", "100.00")
	f.addProduct(t, "p1", "10.00", 10)
	ctx := context.Background()

	created, err := f.svc.CreateOrder(ctx, "c1", []ItemRequest{{ProductID: "p1", Quantity: 1}})
	require.NoError(t, err)

	for _, useWallet := range []bool{false, true} {
		_, err := f.svc.Checkout(ctx, created.ID, useWallet)
		require.ErrorIs(t, err, domain.ErrInvalidState)

		var stateErr *domain.InvalidStateError
		require.ErrorAs(t, err, &stateErr)
		assert.Equal(t, string(order.StatusCreated), stateErr.Status)
	}

	cart, err := f.svc.AddToCart(ctx, "c1", ItemRequest{ProductID: "p1", Quantity: 1})
	require.NoError(t, err)
	_, err = f.svc.Checkout(ctx, cart.Order.ID, false)
	require.NoError(t, err)

	_, err = f.svc.Checkout(ctx, cart.Order.ID, true)
	require.ErrorIs(t, err, domain.ErrInvalidState, "paid orders are terminal")
	assert.True(t, d("100.50").Equal(f.wallet(t, "c1")), "failed checkout leaves wallet alone")
}

func TestCheckout_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Checkout(context.Background(), "missing", false)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCheckout_RedeemsWallet(t *testing.T) {
	f := newFixture(t)
	f.addCustomer(t, "c1", "0")
	f.addProduct(t, "p1", "100.00", 10)
	ctx := context.Background()

	// Earn 9.00 on a first cart.
	first, err := f.svc.AddToCart(ctx, "c1", ItemRequest{ProductID: "p1", Quantity: 2})
	require.NoError(t, err)
	_, err = f.svc.Checkout(ctx, first.Order.ID, false)
	require.NoError(t, err)

	second, err := f.svc.AddToCart(ctx, "c1", ItemRequest{ProductID: "p1", Quantity: 1})
	require.NoError(t, err)
	res, err := f.svc.Checkout(ctx, second.Order.ID, true)
	require.NoError(t, err)

	assert.True(t, d("100.00").Equal(res.ItemsTotal))
	assert.True(t, d("9.00").Equal(res.Redeemed))
	assert.True(t, d("91.00").Equal(res.Payable))
	assert.True(t, d("4.55").Equal(res.CashbackEarned))
	assert.True(t, d("9.00").Equal(res.WalletBefore))
	assert.True(t, d("4.55").Equal(res.WalletAfter))
	assert.True(t, d("4.55").Equal(f.wallet(t, "c1")))

	var records []cashback.Record
	f.seed(t, func(ctx context.Context, repos store.Repositories) error {
		var err error
		records, err = repos.Cashback.ListByCustomer(ctx, "c1")
		return err
	})
	require.Len(t, records, 2)
	assert.Equal(t, second.Order.ID, records[0].OrderID)
	assert.True(t, records[0].Active)
	assert.True(t, d("4.55").Equal(records[0].Balance))
	assert.False(t, records[1].Active, "consumed record deactivated")
	assert.True(t, records[1].Balance.IsZero())
}

func TestCheckout_WalletCoversTotal(t *testing.T) {
	f := newFixture(t)
	f.addCustomer(t, "c1", "500.00")
	f.addProduct(t, "p1", "100.00", 10)
	ctx := context.Background()

	cart, err := f.svc.AddToCart(ctx, "c1", ItemRequest{ProductID: "p1", Quantity: 1})
	require.NoError(t, err)
	res, err := f.svc.Checkout(ctx, cart.Order.ID, true)
	require.NoError(t, err)

	assert.True(t, res.Payable.IsZero())
	assert.True(t, res.CashbackEarned.IsZero())
	assert.True(t, d("410.00").Equal(res.WalletAfter))
	assert.True(t, res.Order.Payable().IsZero())
}

func TestCheckout_NotifierFailureDoesNotRollBack(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("smtp down")
	f.addCustomer(t, "c1", "0")
	f.addProduct(t, "p1", "10.00", 10)
	ctx := context.Background()

	cart, err := f.svc.AddToCart(ctx, "c1", ItemRequest{ProductID: "p1", Quantity: 1})
	require.NoError(t, err)
	_, err = f.svc.Checkout(ctx, cart.Order.ID, false)
	require.NoError(t, err)

	stored, err := f.svc.Get(ctx, cart.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusPaid, stored.Status)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	f.addCustomer(t, "c1", "0")
	f.addProduct(t, "p1", "100.00", 10)
	ctx := context.Background()

	first, err := f.svc.CreateOrder(ctx, "c1", []ItemRequest{{ProductID: "p1", Quantity: 1}})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, first.ID))
	_, err = f.svc.Get(ctx, first.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.ErrorIs(t, f.svc.Delete(ctx, first.ID), domain.ErrNotFound)

	// The deleted order no longer exists, so the next order is a first order again.
	next, err := f.svc.CreateOrder(ctx, "c1", []ItemRequest{{ProductID: "p1", Quantity: 1}})
	require.NoError(t, err)
	assert.True(t, d("10.00").Equal(next.DiscountTotal()))
}

func TestAddToCart_ConcurrentLastUnit(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "p1", "10.00", 1)
	const buyers = 8
	for i := range buyers {
		f.addCustomer(t, string(rune('a'+i)), "0")
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		shortages int
	)
	for i := range buyers {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := f.svc.AddToCart(context.Background(), id, ItemRequest{ProductID: "p1", Quantity: 1})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domain.ErrInsufficientStock):
				shortages++
			}
		}(string(rune('a' + i)))
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, buyers-1, shortages)
	assert.Equal(t, 0, f.stock(t, "p1"))
}
