// Package memory implements the domain store in process memory.
//
// All units of work are serialised behind one mutex. The arena is cloned
// before each unit of work and restored if it fails, which gives the same
// all-or-nothing behaviour as a database transaction.
package memory

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/PerrimLc/Trabalho-final-API/internal/domain/cashback"
	"github.com/PerrimLc/Trabalho-final-API/internal/domain/customer"
	"github.com/PerrimLc/Trabalho-final-API/internal/domain/order"
	"github.com/PerrimLc/Trabalho-final-API/internal/domain/product"
	"github.com/PerrimLc/Trabalho-final-API/internal/domain/store"
)

// Store is an in-memory store.UnitOfWork.
type Store struct {
	mu   sync.Mutex
	data *arena
}

var _ store.UnitOfWork = (*Store)(nil)

// New creates an empty Store.
func New() *Store {
	return &Store{data: newArena()}
}

type row[T any] struct {
	seq int64
	v   T
}

type arena struct {
	seq        int64
	customers  map[string]row[customer.Customer]
	categories map[string]row[product.Category]
	products   map[string]row[product.Product]
	orders     map[string]row[order.Order]
	cashback   map[string]row[cashback.Record]
}

func newArena() *arena {
	return &arena{
		customers:  make(map[string]row[customer.Customer]),
		categories: make(map[string]row[product.Category]),
		products:   make(map[string]row[product.Product]),
		orders:     make(map[string]row[order.Order]),
		cashback:   make(map[string]row[cashback.Record]),
	}
}

func (a *arena) next() int64 {
	a.seq++
	return a.seq
}

func (a *arena) clone() *arena {
	c := &arena{
		seq:        a.seq,
		customers:  maps.Clone(a.customers),
		categories: maps.Clone(a.categories),
		products:   maps.Clone(a.products),
		orders:     make(map[string]row[order.Order], len(a.orders)),
		cashback:   maps.Clone(a.cashback),
	}
	for id, r := range a.orders {
		c.orders[id] = row[order.Order]{seq: r.seq, v: copyOrder(r.v)}
	}
	return c
}

func copyOrder(o order.Order) order.Order {
	o.Items = slices.Clone(o.Items)
	if o.TotalOverride != nil {
		v := *o.TotalOverride
		o.TotalOverride = &v
	}
	return o
}

// Do runs fn against the arena and restores the previous arena if fn fails
// or panics.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, repos store.Repositories) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	defer func() {
		if r := recover(); r != nil {
			s.data = snapshot
			panic(r)
		}
		if err != nil {
			s.data = snapshot
		}
	}()

	return fn(ctx, s.repositories())
}

func (s *Store) repositories() store.Repositories {
	return store.Repositories{
		Customers:  &customers{s: s},
		Categories: &categories{s: s},
		Products:   &products{s: s},
		Orders:     &orders{s: s},
		Cashback:   &cashbackRecords{s: s},
	}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// sortedValues returns the values of rows ordered by insertion.
func sortedValues[T any](rows map[string]row[T], keep func(T) bool) []T {
	all := slices.Collect(maps.Values(rows))
	slices.SortFunc(all, func(a, b row[T]) int { return cmp.Compare(a.seq, b.seq) })
	out := make([]T, 0, len(all))
	for _, r := range all {
		if keep == nil || keep(r.v) {
			out = append(out, r.v)
		}
	}
	return out
}
