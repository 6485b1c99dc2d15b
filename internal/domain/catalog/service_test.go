package catalog

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PerrimLc/Trabalho-final-API/internal/domain"
	"github.com/PerrimLc/Trabalho-final-API/internal/storage/memory"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func intp(v int) *int { return &v }

func newService(t *testing.T) (*Service, string) {
	t.Helper()
	svc := NewService(memory.New())
	cat, err := svc.CreateCategory(context.Background(), "Books")
	require.NoError(t, err)
	return svc, cat.ID
}

func TestCreateProduct(t *testing.T) {
	svc, catID := newService(t)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, ProductInput{Name: " Go in Action ", Price: d("49.90"), Stock: intp(3), CategoryID: catID})
	require.NoError(t, err)
	assert.Equal(t, "Go in Action", p.Name)
	assert.True(t, p.Active)
	assert.Equal(t, 3, p.Stock)

	got, err := svc.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p, got)

	noStock, err := svc.CreateProduct(ctx, ProductInput{Name: "Zine", Price: d("0"), CategoryID: catID})
	require.NoError(t, err)
	assert.Equal(t, 0, noStock.Stock)
}

func TestCreateProduct_Validation(t *testing.T) {
	svc, catID := newService(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		in      ProductInput
		wantErr error
	}{
		{"missing category", ProductInput{Name: "x", Price: d("1")}, domain.ErrInvalidInput},
		{"unknown category", ProductInput{Name: "x", Price: d("1"), CategoryID: "nope"}, domain.ErrNotFound},
		{"negative stock", ProductInput{Name: "x", Price: d("1"), Stock: intp(-1), CategoryID: catID}, domain.ErrInvalidInput},
		{"negative price", ProductInput{Name: "x", Price: d("-0.01"), CategoryID: catID}, domain.ErrInvalidInput},
		{"blank name", ProductInput{Name: "  ", Price: d("1"), CategoryID: catID}, domain.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateProduct(ctx, tt.in)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	list, err := svc.ListActiveProducts(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUpdateProduct(t *testing.T) {
	svc, catID := newService(t)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, ProductInput{Name: "Old", Price: d("10"), Stock: intp(4), CategoryID: catID})
	require.NoError(t, err)

	updated, err := svc.UpdateProduct(ctx, p.ID, ProductInput{Name: "New", Price: d("12.50"), CategoryID: catID})
	require.NoError(t, err)
	assert.Equal(t, "New", updated.Name)
	assert.True(t, d("12.50").Equal(updated.Price))
	assert.Equal(t, 4, updated.Stock, "stock kept when omitted")

	updated, err = svc.UpdateProduct(ctx, p.ID, ProductInput{Name: "New", Price: d("12.50"), Stock: intp(9), CategoryID: catID})
	require.NoError(t, err)
	assert.Equal(t, 9, updated.Stock)

	_, err = svc.UpdateProduct(ctx, "missing", ProductInput{Name: "New", Price: d("1"), CategoryID: catID})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeactivateProduct(t *testing.T) {
	svc, catID := newService(t)
	ctx := context.Background()

	keep, err := svc.CreateProduct(ctx, ProductInput{Name: "Keep", Price: d("1"), CategoryID: catID})
	require.NoError(t, err)
	drop, err := svc.CreateProduct(ctx, ProductInput{Name: "Drop", Price: d("1"), CategoryID: catID})
	require.NoError(t, err)

	require.NoError(t, svc.DeactivateProduct(ctx, drop.ID))
	require.ErrorIs(t, svc.DeactivateProduct(ctx, "missing"), domain.ErrNotFound)

	list, err := svc.ListActiveProducts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, keep.ID, list[0].ID)

	got, err := svc.GetProduct(ctx, drop.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)
}

func TestRestock(t *testing.T) {
	svc, catID := newService(t)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, ProductInput{Name: "Widget", Price: d("1"), Stock: intp(2), CategoryID: catID})
	require.NoError(t, err)

	p, err = svc.Restock(ctx, p.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 7, p.Stock)

	_, err = svc.Restock(ctx, p.ID, 0)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = svc.Restock(ctx, "missing", 1)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCategories(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.CreateCategory(ctx, "Games")
	require.NoError(t, err)
	_, err = svc.CreateCategory(ctx, " ")
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	list, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Books", list[0].Name)
	assert.Equal(t, "Games", list[1].Name)
}
