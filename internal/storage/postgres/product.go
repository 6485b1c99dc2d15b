package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/PerrimLc/Trabalho-final-API/internal/domain"
	"github.com/PerrimLc/Trabalho-final-API/internal/domain/product"
)

const (
	productColumns = `id, name, price, COALESCE(stock, 0), active, COALESCE(category_id, '')`

	insertProductSQL = `INSERT INTO products (id, name, price, stock, active, category_id)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))`

	getProductSQL = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	lockProductSQL = getProductSQL + ` FOR UPDATE`

	listProductsSQL = `SELECT ` + productColumns + ` FROM products ORDER BY created_at, id`

	updateProductSQL = `UPDATE products
		SET name = $2, price = $3, stock = $4, active = $5, category_id = NULLIF($6, '')
		WHERE id = $1`

	insertCategorySQL = `INSERT INTO categories (id, name) VALUES ($1, $2)`

	getCategorySQL = `SELECT id, name FROM categories WHERE id = $1`

	listCategoriesSQL = `SELECT id, name FROM categories ORDER BY name, id`
)

var (
	_ product.Repository         = (*ProductRepository)(nil)
	_ product.CategoryRepository = (*CategoryRepository)(nil)
)

// ProductRepository implements product.Repository.
type ProductRepository struct {
	q querier
}

func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	_, err := r.q.Exec(ctx, insertProductSQL, p.ID, p.Name, p.Price, p.Stock, p.Active, p.CategoryID)
	if err != nil {
		return errors.Wrapf(err, "insert product %q", p.ID)
	}
	return nil
}

func (r *ProductRepository) Get(ctx context.Context, id string) (*product.Product, error) {
	return r.get(ctx, getProductSQL, id)
}

// GetForUpdate locks the product row so stock checks and decrements of
// concurrent transactions are serialised.
func (r *ProductRepository) GetForUpdate(ctx context.Context, id string) (*product.Product, error) {
	return r.get(ctx, lockProductSQL, id)
}

func (r *ProductRepository) get(ctx context.Context, query, id string) (*product.Product, error) {
	rows, err := r.q.Query(ctx, query, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get product %q", id)
	}
	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound("product", id)
		}
		return nil, errors.Wrapf(err, "get product %q", id)
	}
	return &p, nil
}

func (r *ProductRepository) List(ctx context.Context) ([]product.Product, error) {
	rows, err := r.q.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	return pgx.CollectRows(rows, scanProduct)
}

func (r *ProductRepository) Save(ctx context.Context, p *product.Product) error {
	tag, err := r.q.Exec(ctx, updateProductSQL, p.ID, p.Name, p.Price, p.Stock, p.Active, p.CategoryID)
	if err != nil {
		return errors.Wrapf(err, "update product %q", p.ID)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("product", p.ID)
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.Active, &p.CategoryID)
	return p, err
}

// CategoryRepository implements product.CategoryRepository.
type CategoryRepository struct {
	q querier
}

func (r *CategoryRepository) Create(ctx context.Context, c *product.Category) error {
	if _, err := r.q.Exec(ctx, insertCategorySQL, c.ID, c.Name); err != nil {
		return errors.Wrapf(err, "insert category %q", c.ID)
	}
	return nil
}

func (r *CategoryRepository) Get(ctx context.Context, id string) (*product.Category, error) {
	var c product.Category
	if err := r.q.QueryRow(ctx, getCategorySQL, id).Scan(&c.ID, &c.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound("category", id)
		}
		return nil, errors.Wrapf(err, "get category %q", id)
	}
	return &c, nil
}

func (r *CategoryRepository) List(ctx context.Context) ([]product.Category, error) {
	rows, err := r.q.Query(ctx, listCategoriesSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list categories")
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (product.Category, error) {
		var c product.Category
		err := row.Scan(&c.ID, &c.Name)
		return c, err
	})
}
