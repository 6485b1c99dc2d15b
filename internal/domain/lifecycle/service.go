// Package lifecycle drives orders from cart to payment.
//
// Every operation runs inside one unit of work. Mutating operations lock the
// customer row first, so concurrent carts and checkouts of the same customer
// are serialised and first-order eligibility is decided under that lock.
package lifecycle

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/PerrimLc/Trabalho-final-API/internal/domain"
	"github.com/PerrimLc/Trabalho-final-API/internal/domain/cashback"
	"github.com/PerrimLc/Trabalho-final-API/internal/domain/discount"
	"github.com/PerrimLc/Trabalho-final-API/internal/domain/inventory"
	"github.com/PerrimLc/Trabalho-final-API/internal/domain/order"
	"github.com/PerrimLc/Trabalho-final-API/internal/domain/store"
)

// ItemRequest asks for qty units of a product.
type ItemRequest struct {
	ProductID string
	Quantity  int
}

// Cart is the open PENDENTE order of a customer.
type Cart struct {
	Order *order.Order
}

// Total returns the running total of the cart.
func (c *Cart) Total() decimal.Decimal { return c.Order.Total() }

// CheckoutResult reports the amounts settled by a checkout.
type CheckoutResult struct {
	Order          *order.Order
	ItemsTotal     decimal.Decimal
	Redeemed       decimal.Decimal
	Payable        decimal.Decimal
	CashbackEarned decimal.Decimal
	WalletBefore   decimal.Decimal
	WalletAfter    decimal.Decimal
}

// Service implements the order lifecycle.
type Service struct {
	uow      store.UnitOfWork
	discount *discount.Engine
	cashback *cashback.Engine
	notifier Notifier
	now      func() time.Time

	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	tel            *telemetry
}

// Option configures a Service.
type Option func(*Service)

// WithTracerProvider sets the tracer provider. Defaults to a no-op provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) { s.tracerProvider = tp }
}

// WithMeterProvider sets the meter provider. Defaults to a no-op provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *Service) { s.meterProvider = mp }
}

// WithClock overrides the clock used for order timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a lifecycle Service. A nil notifier discards notices.
func NewService(
	uow store.UnitOfWork,
	discounts *discount.Engine,
	cashbacks *cashback.Engine,
	notifier Notifier,
	opts ...Option,
) (*Service, error) {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	s := &Service{
		uow:            uow,
		discount:       discounts,
		cashback:       cashbacks,
		notifier:       notifier,
		now:            time.Now,
		tracerProvider: tracenoop.NewTracerProvider(),
		meterProvider:  metricnoop.NewMeterProvider(),
	}
	for _, o := range opts {
		o(s)
	}
	tel, err := newTelemetry(s.tracerProvider, s.meterProvider)
	if err != nil {
		return nil, errors.Wrap(err, "telemetry")
	}
	s.tel = tel
	return s, nil
}

func validateItem(it ItemRequest) error {
	if it.ProductID == "" {
		return domain.InvalidInput("product_id", "required")
	}
	if it.Quantity <= 0 {
		return domain.InvalidInput("quantity", "must be greater than 0 for product "+it.ProductID)
	}
	return nil
}

// CreateOrder places a CRIADO order for items in one step, bypassing the
// cart. Either every item is reserved or nothing is persisted.
func (s *Service) CreateOrder(ctx context.Context, customerID string, items []ItemRequest) (_ *order.Order, err error) {
	ctx, end := s.tel.start(ctx, "create_order", attribute.String("customer.id", customerID))
	defer end(&err)

	if len(items) == 0 {
		return nil, domain.InvalidInput("items", "at least one item required")
	}
	for _, it := range items {
		if err := validateItem(it); err != nil {
			return nil, err
		}
	}

	var created *order.Order
	err = s.uow.Do(ctx, func(ctx context.Context, repos store.Repositories) error {
		if _, err := repos.Customers.GetForUpdate(ctx, customerID); err != nil {
			return err
		}
		hasOrders, err := repos.Orders.ExistsByCustomer(ctx, customerID)
		if err != nil {
			return errors.Wrap(err, "check previous orders")
		}
		// Any existing order, the open cart included, uses up the discount.
		eligible := !hasOrders

		o := &order.Order{
			ID:         uuid.New().String(),
			CustomerID: customerID,
			Status:     order.StatusCreated,
			CreatedAt:  s.now().UTC(),
		}
		ledger := inventory.NewLedger(repos.Products)
		for _, it := range items {
			li, err := s.reserve(ctx, repos, ledger, it, eligible)
			if err != nil {
				return err
			}
			o.AddItem(li)
		}
		if err := repos.Orders.Save(ctx, o); err != nil {
			return errors.Wrap(err, "save order")
		}
		created = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	zctx.From(ctx).Info("Order created",
		zap.String("order_id", created.ID),
		zap.String("customer_id", customerID),
		zap.Int("items", len(created.Items)),
		zap.Stringer("total", created.Total()),
	)
	return created, nil
}

// AddToCart reserves one item into the customer's PENDENTE order, opening
// a new cart when none exists.
func (s *Service) AddToCart(ctx context.Context, customerID string, item ItemRequest) (_ *Cart, err error) {
	ctx, end := s.tel.start(ctx, "add_to_cart",
		attribute.String("customer.id", customerID),
		attribute.String("product.id", item.ProductID),
	)
	defer end(&err)

	if err := validateItem(item); err != nil {
		return nil, err
	}

	var cart *order.Order
	err = s.uow.Do(ctx, func(ctx context.Context, repos store.Repositories) error {
		if _, err := repos.Customers.GetForUpdate(ctx, customerID); err != nil {
			return err
		}

		o, err := repos.Orders.FindByCustomerAndStatus(ctx, customerID, order.StatusPending)
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrNotFound):
			o = &order.Order{
				ID:         uuid.New().String(),
				CustomerID: customerID,
				Status:     order.StatusPending,
				CreatedAt:  s.now().UTC(),
			}
		default:
			return errors.Wrap(err, "find cart")
		}
		if !o.Status.AcceptsItems() {
			return &domain.InvalidStateError{OrderID: o.ID, Status: o.Status.String(), Op: "add items to"}
		}

		eligible, err := s.firstOrder(ctx, repos, customerID)
		if err != nil {
			return err
		}
		li, err := s.reserve(ctx, repos, inventory.NewLedger(repos.Products), item, eligible)
		if err != nil {
			return err
		}
		o.AddItem(li)
		if err := repos.Orders.Save(ctx, o); err != nil {
			return errors.Wrap(err, "save cart")
		}
		cart = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	zctx.From(ctx).Debug("Item added to cart",
		zap.String("order_id", cart.ID),
		zap.String("product_id", item.ProductID),
		zap.Int("quantity", item.Quantity),
	)
	return &Cart{Order: cart}, nil
}

// firstOrder reports whether the customer has never had a CRIADO or PAGO
// order. The open cart does not count, so every line of the first cart is
// discounted.
func (s *Service) firstOrder(ctx context.Context, repos store.Repositories, customerID string) (bool, error) {
	for _, st := range []order.Status{order.StatusCreated, order.StatusPaid} {
		ok, err := repos.Orders.ExistsByCustomerAndStatus(ctx, customerID, st)
		if err != nil {
			return false, errors.Wrap(err, "check previous orders")
		}
		if ok {
			return false, nil
		}
	}
	return true, nil
}

// reserve decrements stock for it and returns the priced line item.
func (s *Service) reserve(
	ctx context.Context,
	repos store.Repositories,
	ledger *inventory.Ledger,
	it ItemRequest,
	eligible bool,
) (order.LineItem, error) {
	p, err := repos.Products.Get(ctx, it.ProductID)
	if err != nil {
		return order.LineItem{}, err
	}
	if !p.Active {
		return order.LineItem{}, domain.NotFound("product", it.ProductID)
	}
	p, err = ledger.Decrement(ctx, it.ProductID, it.Quantity)
	if err != nil {
		return order.LineItem{}, err
	}

	disc := decimal.Zero
	if eligible {
		disc = s.discount.DiscountFor(p.Price).Mul(decimal.NewFromInt(int64(it.Quantity)))
	}
	return order.LineItem{
		ID:          uuid.New().String(),
		ProductID:   p.ID,
		ProductName: p.Name,
		Quantity:    it.Quantity,
		UnitPrice:   p.Price,
		Discount:    disc,
	}, nil
}

// Checkout pays a PENDENTE order. When useWallet is set the customer wallet
// covers as much of the total as it can. Cashback is earned on the amount
// charged and credited to the wallet.
func (s *Service) Checkout(ctx context.Context, orderID string, useWallet bool) (_ *CheckoutResult, err error) {
	ctx, end := s.tel.start(ctx, "checkout",
		attribute.String("order.id", orderID),
		attribute.Bool("use_wallet", useWallet),
	)
	defer end(&err)

	var (
		res      *CheckoutResult
		earned   *cashback.Record
		customer string
		name     string
	)
	err = s.uow.Do(ctx, func(ctx context.Context, repos store.Repositories) error {
		o, err := repos.Orders.Get(ctx, orderID)
		if err != nil {
			return err
		}
		c, err := repos.Customers.GetForUpdate(ctx, o.CustomerID)
		if err != nil {
			return err
		}
		if o, err = repos.Orders.GetForUpdate(ctx, orderID); err != nil {
			return err
		}
		if !o.Status.CanTransition(order.StatusPaid) {
			return &domain.InvalidStateError{OrderID: o.ID, Status: o.Status.String(), Op: "checkout"}
		}

		itemsTotal := o.Total()
		walletBefore := c.Wallet
		payable, redeemed := itemsTotal, decimal.Zero
		if useWallet {
			r := s.cashback.Redeem(c.Wallet, itemsTotal)
			payable, redeemed = r.Payable, r.Redeemed
			c.Wallet = r.WalletAfter
		}

		rec := s.cashback.Earn(c.ID, o.ID, payable)
		if err := repos.Cashback.Create(ctx, rec); err != nil {
			return errors.Wrap(err, "create cashback")
		}
		s.cashback.CreditToWallet(c, rec)
		if err := repos.Customers.Save(ctx, c); err != nil {
			return errors.Wrap(err, "save customer")
		}

		o.Status = order.StatusPaid
		o.TotalOverride = &payable
		if err := repos.Orders.Save(ctx, o); err != nil {
			return errors.Wrap(err, "save order")
		}

		earned = rec
		customer, name = c.ID, c.Name
		res = &CheckoutResult{
			Order:          o,
			ItemsTotal:     itemsTotal,
			Redeemed:       redeemed,
			Payable:        payable,
			CashbackEarned: rec.Amount,
			WalletBefore:   walletBefore,
			WalletAfter:    c.Wallet,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	lg := zctx.From(ctx).With(zap.String("order_id", orderID), zap.String("customer_id", customer))
	lg.Info("Order paid",
		zap.Stringer("items_total", res.ItemsTotal),
		zap.Stringer("payable", res.Payable),
		zap.Stringer("cashback", res.CashbackEarned),
	)
	s.tel.cashback.Add(ctx, res.CashbackEarned.InexactFloat64())

	if err := s.notifier.NotifyCashback(ctx, CashbackNotice{
		OrderID:        orderID,
		CustomerID:     customer,
		CustomerName:   name,
		CashbackEarned: res.CashbackEarned,
		WalletBefore:   res.WalletBefore,
		WalletAfter:    res.WalletAfter,
		AmountCharged:  res.Payable,
		ItemsTotal:     res.ItemsTotal,
		PaidAt:         s.now().UTC(),
	}); err != nil {
		lg.Warn("Cashback notification failed", zap.Error(err))
	}

	if res.Redeemed.IsPositive() {
		if err := s.uow.Do(ctx, func(ctx context.Context, repos store.Repositories) error {
			_, err := s.cashback.InvalidateConsumed(ctx, repos.Cashback, customer, res.Redeemed, earned.ID)
			return err
		}); err != nil {
			lg.Warn("Invalidate consumed cashback", zap.Error(err))
		}
	}

	return res, nil
}

// Cart returns the customer's open cart.
func (s *Service) Cart(ctx context.Context, customerID string) (_ *Cart, err error) {
	ctx, end := s.tel.start(ctx, "cart", attribute.String("customer.id", customerID))
	defer end(&err)

	var o *order.Order
	err = s.uow.Do(ctx, func(ctx context.Context, repos store.Repositories) error {
		if _, err := repos.Customers.Get(ctx, customerID); err != nil {
			return err
		}
		var err error
		o, err = repos.Orders.FindByCustomerAndStatus(ctx, customerID, order.StatusPending)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &Cart{Order: o}, nil
}

// Get returns a single order.
func (s *Service) Get(ctx context.Context, orderID string) (_ *order.Order, err error) {
	ctx, end := s.tel.start(ctx, "get", attribute.String("order.id", orderID))
	defer end(&err)

	var o *order.Order
	err = s.uow.Do(ctx, func(ctx context.Context, repos store.Repositories) error {
		var err error
		o, err = repos.Orders.Get(ctx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

// List returns every order.
func (s *Service) List(ctx context.Context) (_ []order.Order, err error) {
	ctx, end := s.tel.start(ctx, "list")
	defer end(&err)

	var out []order.Order
	err = s.uow.Do(ctx, func(ctx context.Context, repos store.Repositories) error {
		var err error
		out, err = repos.Orders.List(ctx)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return out, nil
}

// Delete removes an order and its line items. Reserved stock is not
// returned.
func (s *Service) Delete(ctx context.Context, orderID string) (err error) {
	ctx, end := s.tel.start(ctx, "delete", attribute.String("order.id", orderID))
	defer end(&err)

	err = s.uow.Do(ctx, func(ctx context.Context, repos store.Repositories) error {
		return repos.Orders.Delete(ctx, orderID)
	})
	if err != nil {
		return err
	}
	zctx.From(ctx).Info("Order deleted", zap.String("order_id", orderID))
	return nil
}
