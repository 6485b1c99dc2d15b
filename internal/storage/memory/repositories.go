package memory

import (
	"context"
	"slices"

	"github.com/go-faster/errors"

	"github.com/PerrimLc/Trabalho-final-API/internal/domain"
	"github.com/PerrimLc/Trabalho-final-API/internal/domain/cashback"
	"github.com/PerrimLc/Trabalho-final-API/internal/domain/customer"
	"github.com/PerrimLc/Trabalho-final-API/internal/domain/order"
	"github.com/PerrimLc/Trabalho-final-API/internal/domain/product"
)

type customers struct{ s *Store }

func (r *customers) Create(_ context.Context, c *customer.Customer) error {
	a := r.s.data
	if _, ok := a.customers[c.ID]; ok {
		return errors.Errorf("customer %s already exists", c.ID)
	}
	a.customers[c.ID] = row[customer.Customer]{seq: a.next(), v: *c}
	return nil
}

func (r *customers) Get(_ context.Context, id string) (*customer.Customer, error) {
	got, ok := r.s.data.customers[id]
	if !ok {
		return nil, domain.NotFound("customer", id)
	}
	c := got.v
	return &c, nil
}

// GetForUpdate is Get: the store mutex already serialises units of work.
func (r *customers) GetForUpdate(ctx context.Context, id string) (*customer.Customer, error) {
	return r.Get(ctx, id)
}

func (r *customers) Save(_ context.Context, c *customer.Customer) error {
	a := r.s.data
	existing, ok := a.customers[c.ID]
	if !ok {
		return domain.NotFound("customer", c.ID)
	}
	existing.v = *c
	a.customers[c.ID] = existing
	return nil
}

type categories struct{ s *Store }

func (r *categories) Create(_ context.Context, c *product.Category) error {
	a := r.s.data
	if _, ok := a.categories[c.ID]; ok {
		return errors.Errorf("category %s already exists", c.ID)
	}
	a.categories[c.ID] = row[product.Category]{seq: a.next(), v: *c}
	return nil
}

func (r *categories) Get(_ context.Context, id string) (*product.Category, error) {
	got, ok := r.s.data.categories[id]
	if !ok {
		return nil, domain.NotFound("category", id)
	}
	c := got.v
	return &c, nil
}

func (r *categories) List(_ context.Context) ([]product.Category, error) {
	return sortedValues(r.s.data.categories, nil), nil
}

type products struct{ s *Store }

func (r *products) Create(_ context.Context, p *product.Product) error {
	a := r.s.data
	if _, ok := a.products[p.ID]; ok {
		return errors.Errorf("product %s already exists", p.ID)
	}
	a.products[p.ID] = row[product.Product]{seq: a.next(), v: *p}
	return nil
}

func (r *products) Get(_ context.Context, id string) (*product.Product, error) {
	got, ok := r.s.data.products[id]
	if !ok {
		return nil, domain.NotFound("product", id)
	}
	p := got.v
	return &p, nil
}

func (r *products) GetForUpdate(ctx context.Context, id string) (*product.Product, error) {
	return r.Get(ctx, id)
}

func (r *products) List(_ context.Context) ([]product.Product, error) {
	return sortedValues(r.s.data.products, nil), nil
}

func (r *products) Save(_ context.Context, p *product.Product) error {
	a := r.s.data
	existing, ok := a.products[p.ID]
	if !ok {
		return domain.NotFound("product", p.ID)
	}
	existing.v = *p
	a.products[p.ID] = existing
	return nil
}

type orders struct{ s *Store }

func (r *orders) Get(_ context.Context, id string) (*order.Order, error) {
	got, ok := r.s.data.orders[id]
	if !ok {
		return nil, domain.NotFound("order", id)
	}
	o := copyOrder(got.v)
	return &o, nil
}

func (r *orders) GetForUpdate(ctx context.Context, id string) (*order.Order, error) {
	return r.Get(ctx, id)
}

func (r *orders) List(_ context.Context) ([]order.Order, error) {
	out := sortedValues(r.s.data.orders, nil)
	for i := range out {
		out[i] = copyOrder(out[i])
	}
	return out, nil
}

func (r *orders) Save(_ context.Context, o *order.Order) error {
	a := r.s.data
	if _, ok := a.customers[o.CustomerID]; !ok {
		return errors.Errorf("order %s references unknown customer %s", o.ID, o.CustomerID)
	}
	existing, ok := a.orders[o.ID]
	if !ok {
		existing.seq = a.next()
	}
	stored := copyOrder(*o)
	if ok {
		// Stored line items are immutable; keep them and append new ones.
		items := slices.Clone(existing.v.Items)
		for _, li := range o.Items {
			if !slices.ContainsFunc(items, func(x order.LineItem) bool { return x.ID == li.ID }) {
				items = append(items, li)
			}
		}
		stored.Items = items
	}
	existing.v = stored
	a.orders[o.ID] = existing
	return nil
}

func (r *orders) Delete(_ context.Context, id string) error {
	a := r.s.data
	if _, ok := a.orders[id]; !ok {
		return domain.NotFound("order", id)
	}
	delete(a.orders, id)
	return nil
}

func (r *orders) ExistsByCustomer(_ context.Context, customerID string) (bool, error) {
	for _, got := range r.s.data.orders {
		if got.v.CustomerID == customerID {
			return true, nil
		}
	}
	return false, nil
}

func (r *orders) ExistsByCustomerAndStatus(_ context.Context, customerID string, status order.Status) (bool, error) {
	for _, got := range r.s.data.orders {
		if got.v.CustomerID == customerID && got.v.Status == status {
			return true, nil
		}
	}
	return false, nil
}

func (r *orders) FindByCustomerAndStatus(_ context.Context, customerID string, status order.Status) (*order.Order, error) {
	matches := sortedValues(r.s.data.orders, func(o order.Order) bool {
		return o.CustomerID == customerID && o.Status == status
	})
	if len(matches) == 0 {
		return nil, domain.NotFound("order", customerID+"/"+status.String())
	}
	o := copyOrder(matches[len(matches)-1])
	return &o, nil
}

type cashbackRecords struct{ s *Store }

func (r *cashbackRecords) Create(_ context.Context, rec *cashback.Record) error {
	a := r.s.data
	if _, ok := a.cashback[rec.ID]; ok {
		return errors.Errorf("cashback %s already exists", rec.ID)
	}
	a.cashback[rec.ID] = row[cashback.Record]{seq: a.next(), v: *rec}
	return nil
}

func (r *cashbackRecords) ListActiveByCustomer(_ context.Context, customerID string) ([]cashback.Record, error) {
	return sortedValues(r.s.data.cashback, func(rec cashback.Record) bool {
		return rec.CustomerID == customerID && rec.Active
	}), nil
}

func (r *cashbackRecords) ListByCustomer(_ context.Context, customerID string) ([]cashback.Record, error) {
	out := sortedValues(r.s.data.cashback, func(rec cashback.Record) bool {
		return rec.CustomerID == customerID
	})
	slices.Reverse(out)
	return out, nil
}

func (r *cashbackRecords) Save(_ context.Context, rec *cashback.Record) error {
	a := r.s.data
	existing, ok := a.cashback[rec.ID]
	if !ok {
		return domain.NotFound("cashback", rec.ID)
	}
	existing.v = *rec
	a.cashback[rec.ID] = existing
	return nil
}
