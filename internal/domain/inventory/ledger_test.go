package inventory

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PerrimLc/Trabalho-final-API/internal/domain"
	"github.com/PerrimLc/Trabalho-final-API/internal/domain/product"
)

type mockProductRepo struct {
	byID    map[string]*product.Product
	saved   []product.Product
	getErr  error
	saveErr error
}

func newProductRepo(products ...product.Product) *mockProductRepo {
	byID := make(map[string]*product.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	return &mockProductRepo{byID: byID}
}

func (m *mockProductRepo) Create(_ context.Context, p *product.Product) error {
	m.byID[p.ID] = p
	return nil
}

func (m *mockProductRepo) Get(ctx context.Context, id string) (*product.Product, error) {
	return m.GetForUpdate(ctx, id)
}

func (m *mockProductRepo) GetForUpdate(_ context.Context, id string) (*product.Product, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	p, ok := m.byID[id]
	if !ok {
		return nil, domain.NotFound("product", id)
	}
	cp := *p
	return &cp, nil
}

func (m *mockProductRepo) List(_ context.Context) ([]product.Product, error) { return nil, nil }

func (m *mockProductRepo) Save(_ context.Context, p *product.Product) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	cp := *p
	m.byID[p.ID] = &cp
	m.saved = append(m.saved, cp)
	return nil
}

func widget(stock int) product.Product {
	return product.Product{ID: "p1", Name: "Widget", Price: decimal.RequireFromString("100.00"), Stock: stock, Active: true}
}

func TestHasStock(t *testing.T) {
	repo := newProductRepo(widget(5))
	l := NewLedger(repo)
	ctx := context.Background()

	tests := []struct {
		name string
		id   string
		qty  int
		want bool
	}{
		{"below", "p1", 4, true},
		{"exact", "p1", 5, true},
		{"above", "p1", 6, false},
		{"missing product", "nope", 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := l.HasStock(ctx, tt.id, tt.qty)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestHasStock_RepoError(t *testing.T) {
	repo := newProductRepo()
	repo.getErr = errors.New("connection reset")

	_, err := NewLedger(repo).HasStock(context.Background(), "p1", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get product")
}

func TestDecrement(t *testing.T) {
	repo := newProductRepo(widget(5))
	l := NewLedger(repo)

	p, err := l.Decrement(context.Background(), "p1", 2)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Stock)
	assert.Equal(t, 3, repo.byID["p1"].Stock)
	require.Len(t, repo.saved, 1)

	p, err = l.Decrement(context.Background(), "p1", 3)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Stock)
}

func TestDecrement_Insufficient(t *testing.T) {
	repo := newProductRepo(widget(1))

	_, err := NewLedger(repo).Decrement(context.Background(), "p1", 2)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 1, stockErr.Available)
	assert.Equal(t, 2, stockErr.Requested)
	assert.Equal(t, 1, repo.byID["p1"].Stock)
	assert.Empty(t, repo.saved)
}

func TestDecrement_NotFound(t *testing.T) {
	_, err := NewLedger(newProductRepo()).Decrement(context.Background(), "nope", 1)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIncrement(t *testing.T) {
	repo := newProductRepo(widget(0))

	p, err := NewLedger(repo).Increment(context.Background(), "p1", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, p.Stock)
	assert.Equal(t, 7, repo.byID["p1"].Stock)

	_, err = NewLedger(repo).Increment(context.Background(), "nope", 1)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestNonPositiveQuantity(t *testing.T) {
	l := NewLedger(newProductRepo(widget(5)))
	ctx := context.Background()

	for _, qty := range []int{0, -1} {
		_, err := l.HasStock(ctx, "p1", qty)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		_, err = l.Decrement(ctx, "p1", qty)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		_, err = l.Increment(ctx, "p1", qty)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	}
}

func TestSaveError(t *testing.T) {
	repo := newProductRepo(widget(5))
	repo.saveErr = errors.New("disk full")

	_, err := NewLedger(repo).Decrement(context.Background(), "p1", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save product")
}
