package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/PerrimLc/Trabalho-final-API/internal/domain"
	"github.com/PerrimLc/Trabalho-final-API/internal/domain/order"
)

const (
	orderColumns = `id, customer_id, status, total_override, created_at`

	getOrderSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	lockOrderSQL = getOrderSQL + ` FOR UPDATE`

	listOrdersSQL = `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at, id`

	findOrderByCustomerStatusSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE customer_id = $1 AND status = $2
		ORDER BY created_at DESC, id DESC
		LIMIT 1`

	upsertOrderSQL = `INSERT INTO orders (id, customer_id, status, total_override, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, total_override = EXCLUDED.total_override`

	insertOrderItemSQL = `INSERT INTO order_items
		(id, order_id, position, product_id, product_name, quantity, unit_price, discount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING`

	listOrderItemsSQL = `SELECT order_id, id, product_id, product_name, quantity, unit_price, discount
		FROM order_items WHERE order_id = ANY($1)
		ORDER BY order_id, position`

	deleteOrderSQL = `DELETE FROM orders WHERE id = $1`

	existsOrderByCustomerSQL = `SELECT EXISTS (SELECT 1 FROM orders WHERE customer_id = $1)`

	existsOrderByCustomerStatusSQL = `SELECT EXISTS (SELECT 1 FROM orders WHERE customer_id = $1 AND status = $2)`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository. Line items live in their own
// table and are removed by ON DELETE CASCADE.
type OrderRepository struct {
	q querier
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	return r.getOne(ctx, getOrderSQL, id, id)
}

// GetForUpdate locks the order row until the transaction ends.
func (r *OrderRepository) GetForUpdate(ctx context.Context, id string) (*order.Order, error) {
	return r.getOne(ctx, lockOrderSQL, id, id)
}

func (r *OrderRepository) FindByCustomerAndStatus(ctx context.Context, customerID string, status order.Status) (*order.Order, error) {
	return r.getOne(ctx, findOrderByCustomerStatusSQL, customerID+"/"+status.String(), customerID, status.String())
}

func (r *OrderRepository) getOne(ctx context.Context, query, key string, args ...any) (*order.Order, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "get order %q", key)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound("order", key)
		}
		return nil, errors.Wrapf(err, "get order %q", key)
	}
	orders := []order.Order{o}
	if err := r.loadItems(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (r *OrderRepository) List(ctx context.Context) ([]order.Order, error) {
	rows, err := r.q.Query(ctx, listOrdersSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	if err := r.loadItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// loadItems fills the Items of every order with one query.
func (r *OrderRepository) loadItems(ctx context.Context, orders []order.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, len(orders))
	index := make(map[string]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		index[o.ID] = i
	}

	rows, err := r.q.Query(ctx, listOrderItemsSQL, ids)
	if err != nil {
		return errors.Wrap(err, "list order items")
	}
	defer rows.Close()
	for rows.Next() {
		var (
			orderID string
			li      order.LineItem
		)
		if err := rows.Scan(&orderID, &li.ID, &li.ProductID, &li.ProductName, &li.Quantity, &li.UnitPrice, &li.Discount); err != nil {
			return errors.Wrap(err, "scan order item")
		}
		i := index[orderID]
		orders[i].Items = append(orders[i].Items, li)
	}
	return rows.Err()
}

// Save upserts the order row and inserts its line items in one batch.
// Existing line items are left untouched.
func (r *OrderRepository) Save(ctx context.Context, o *order.Order) error {
	b := &pgx.Batch{}
	b.Queue(upsertOrderSQL, o.ID, o.CustomerID, o.Status.String(), o.TotalOverride, o.CreatedAt)
	for i, li := range o.Items {
		b.Queue(insertOrderItemSQL,
			li.ID, o.ID, i, li.ProductID, li.ProductName, li.Quantity, li.UnitPrice, li.Discount,
		)
	}

	br := r.q.SendBatch(ctx, b)
	for range b.Len() {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return errors.Wrapf(err, "save order %q", o.ID)
		}
	}
	if err := br.Close(); err != nil {
		return errors.Wrapf(err, "save order %q", o.ID)
	}
	return nil
}

func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, deleteOrderSQL, id)
	if err != nil {
		return errors.Wrapf(err, "delete order %q", id)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("order", id)
	}
	return nil
}

func (r *OrderRepository) ExistsByCustomer(ctx context.Context, customerID string) (bool, error) {
	var ok bool
	if err := r.q.QueryRow(ctx, existsOrderByCustomerSQL, customerID).Scan(&ok); err != nil {
		return false, errors.Wrapf(err, "orders of customer %q", customerID)
	}
	return ok, nil
}

func (r *OrderRepository) ExistsByCustomerAndStatus(ctx context.Context, customerID string, status order.Status) (bool, error) {
	var ok bool
	if err := r.q.QueryRow(ctx, existsOrderByCustomerStatusSQL, customerID, status.String()).Scan(&ok); err != nil {
		return false, errors.Wrapf(err, "orders of customer %q", customerID)
	}
	return ok, nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o        order.Order
		status   string
		override decimal.NullDecimal
	)
	if err := row.Scan(&o.ID, &o.CustomerID, &status, &override, &o.CreatedAt); err != nil {
		return o, err
	}
	st, err := order.ParseStatus(status)
	if err != nil {
		return o, err
	}
	o.Status = st
	if override.Valid {
		v := override.Decimal
		o.TotalOverride = &v
	}
	return o, nil
}
