package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/PerrimLc/Trabalho-final-API/internal/domain"
	"github.com/PerrimLc/Trabalho-final-API/internal/domain/customer"
)

const (
	insertCustomerSQL = `INSERT INTO customers (id, name, wallet, created_at) VALUES ($1, $2, $3, $4)`

	getCustomerSQL = `SELECT id, name, wallet, created_at FROM customers WHERE id = $1`

	lockCustomerSQL = getCustomerSQL + ` FOR UPDATE`

	updateCustomerSQL = `UPDATE customers SET name = $2, wallet = $3 WHERE id = $1`
)

var _ customer.Repository = (*CustomerRepository)(nil)

// CustomerRepository implements customer.Repository.
type CustomerRepository struct {
	q querier
}

func (r *CustomerRepository) Create(ctx context.Context, c *customer.Customer) error {
	if _, err := r.q.Exec(ctx, insertCustomerSQL, c.ID, c.Name, c.Wallet, c.CreatedAt); err != nil {
		return errors.Wrapf(err, "insert customer %q", c.ID)
	}
	return nil
}

func (r *CustomerRepository) Get(ctx context.Context, id string) (*customer.Customer, error) {
	return r.get(ctx, getCustomerSQL, id)
}

// GetForUpdate locks the customer row until the transaction ends.
func (r *CustomerRepository) GetForUpdate(ctx context.Context, id string) (*customer.Customer, error) {
	return r.get(ctx, lockCustomerSQL, id)
}

func (r *CustomerRepository) get(ctx context.Context, query, id string) (*customer.Customer, error) {
	var c customer.Customer
	err := r.q.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name, &c.Wallet, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound("customer", id)
		}
		return nil, errors.Wrapf(err, "get customer %q", id)
	}
	return &c, nil
}

func (r *CustomerRepository) Save(ctx context.Context, c *customer.Customer) error {
	tag, err := r.q.Exec(ctx, updateCustomerSQL, c.ID, c.Name, c.Wallet)
	if err != nil {
		return errors.Wrapf(err, "update customer %q", c.ID)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("customer", c.ID)
	}
	return nil
}
