package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/PerrimLc/Trabalho-final-API/internal/domain/store"
)

var _ store.UnitOfWork = (*Store)(nil)

// Store runs units of work as READ COMMITTED transactions. Repositories
// serialise conflicting writers with SELECT ... FOR UPDATE.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore returns a Store over pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Do runs fn in a transaction, committing when fn returns nil.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, repos store.Repositories) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, Repositories(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "commit")
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Repositories binds every repository to q.
func Repositories(q querier) store.Repositories {
	return store.Repositories{
		Customers:  &CustomerRepository{q: q},
		Categories: &CategoryRepository{q: q},
		Products:   &ProductRepository{q: q},
		Orders:     &OrderRepository{q: q},
		Cashback:   &CashbackRepository{q: q},
	}
}
