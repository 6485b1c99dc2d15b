package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/PerrimLc/Trabalho-final-API/internal/domain"
	"github.com/PerrimLc/Trabalho-final-API/internal/domain/cashback"
)

const (
	cashbackColumns = `id, customer_id, order_id, amount, balance, active, created_at`

	insertCashbackSQL = `INSERT INTO cashback_records (` + cashbackColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	listActiveCashbackSQL = `SELECT ` + cashbackColumns + ` FROM cashback_records
		WHERE customer_id = $1 AND active
		ORDER BY created_at, id
		FOR UPDATE`

	listCashbackSQL = `SELECT ` + cashbackColumns + ` FROM cashback_records
		WHERE customer_id = $1
		ORDER BY created_at DESC, id DESC`

	updateCashbackSQL = `UPDATE cashback_records SET balance = $2, active = $3 WHERE id = $1`
)

var _ cashback.Repository = (*CashbackRepository)(nil)

// CashbackRepository implements cashback.Repository.
type CashbackRepository struct {
	q querier
}

func (r *CashbackRepository) Create(ctx context.Context, rec *cashback.Record) error {
	_, err := r.q.Exec(ctx, insertCashbackSQL,
		rec.ID, rec.CustomerID, rec.OrderID, rec.Amount, rec.Balance, rec.Active, rec.CreatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "insert cashback %q", rec.ID)
	}
	return nil
}

// ListActiveByCustomer returns active records oldest first and locks them.
func (r *CashbackRepository) ListActiveByCustomer(ctx context.Context, customerID string) ([]cashback.Record, error) {
	return r.list(ctx, listActiveCashbackSQL, customerID)
}

func (r *CashbackRepository) ListByCustomer(ctx context.Context, customerID string) ([]cashback.Record, error) {
	return r.list(ctx, listCashbackSQL, customerID)
}

func (r *CashbackRepository) list(ctx context.Context, query, customerID string) ([]cashback.Record, error) {
	rows, err := r.q.Query(ctx, query, customerID)
	if err != nil {
		return nil, errors.Wrapf(err, "list cashback of %q", customerID)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (cashback.Record, error) {
		var rec cashback.Record
		err := row.Scan(&rec.ID, &rec.CustomerID, &rec.OrderID, &rec.Amount, &rec.Balance, &rec.Active, &rec.CreatedAt)
		return rec, err
	})
}

func (r *CashbackRepository) Save(ctx context.Context, rec *cashback.Record) error {
	tag, err := r.q.Exec(ctx, updateCashbackSQL, rec.ID, rec.Balance, rec.Active)
	if err != nil {
		return errors.Wrapf(err, "update cashback %q", rec.ID)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("cashback", rec.ID)
	}
	return nil
}
