package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"

	"github.com/PerrimLc/Trabalho-final-API/internal/domain"
	"github.com/PerrimLc/Trabalho-final-API/internal/domain/customer"
	"github.com/PerrimLc/Trabalho-final-API/internal/domain/product"
	"github.com/PerrimLc/Trabalho-final-API/internal/domain/store"
	"github.com/PerrimLc/Trabalho-final-API/internal/storage/postgres"
)

type seedFile struct {
	Categories []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"categories"`
	Products []struct {
		ID         string          `json:"id"`
		Name       string          `json:"name"`
		Price      decimal.Decimal `json:"price"`
		Stock      int             `json:"stock"`
		CategoryID string          `json:"category_id"`
	} `json:"products"`
	Customers []struct {
		ID     string          `json:"id"`
		Name   string          `json:"name"`
		Wallet decimal.Decimal `json:"wallet"`
	} `json:"customers"`
}

func main() {
	var (
		databaseURL string
		seedPath    string
	)
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&seedPath, "seed-file", "db/seed/shop.json", "path to the seed JSON file, optionally gzip-compressed (.gz)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, seedPath); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, seedPath string) error {
	seed, err := readSeed(seedPath)
	if err != nil {
		return err
	}

	slog.Info("connecting to database")
	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	st := postgres.NewStore(pool)
	return st.Do(ctx, func(ctx context.Context, repos store.Repositories) error {
		return apply(ctx, repos, seed)
	})
}

// readSeed decodes the seed file, decompressing it when the name ends in .gz.
func readSeed(path string) (*seedFile, error) {
	slog.Info("reading seed file", slog.String("path", path))
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open seed file")
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		zr, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrap(err, "open gzip stream")
		}
		defer func() { _ = zr.Close() }()
		r = zr
	}

	var seed seedFile
	if err := json.NewDecoder(r).Decode(&seed); err != nil {
		return nil, errors.Wrap(err, "parse seed JSON")
	}
	return &seed, nil
}

// apply creates every entity that does not exist yet. Existing rows are
// left as they are so the tool can be rerun.
func apply(ctx context.Context, repos store.Repositories, seed *seedFile) error {
	for _, c := range seed.Categories {
		exists, err := found(repos.Categories.Get(ctx, c.ID))
		if err != nil {
			return errors.Wrapf(err, "category %s", c.ID)
		}
		if exists {
			continue
		}
		if err := repos.Categories.Create(ctx, &product.Category{ID: c.ID, Name: c.Name}); err != nil {
			return errors.Wrapf(err, "create category %s", c.ID)
		}
		slog.Info("created category", slog.String("id", c.ID), slog.String("name", c.Name))
	}

	for _, p := range seed.Products {
		exists, err := found(repos.Products.Get(ctx, p.ID))
		if err != nil {
			return errors.Wrapf(err, "product %s", p.ID)
		}
		if exists {
			continue
		}
		if err := repos.Products.Create(ctx, &product.Product{
			ID:         p.ID,
			Name:       p.Name,
			Price:      p.Price,
			Stock:      p.Stock,
			Active:     true,
			CategoryID: p.CategoryID,
		}); err != nil {
			return errors.Wrapf(err, "create product %s", p.ID)
		}
		slog.Info("created product", slog.String("id", p.ID), slog.String("name", p.Name))
	}

	for _, c := range seed.Customers {
		exists, err := found(repos.Customers.Get(ctx, c.ID))
		if err != nil {
			return errors.Wrapf(err, "customer %s", c.ID)
		}
		if exists {
			continue
		}
		if err := repos.Customers.Create(ctx, &customer.Customer{
			ID:        c.ID,
			Name:      c.Name,
			Wallet:    c.Wallet,
			CreatedAt: time.Now().UTC(),
		}); err != nil {
			return errors.Wrapf(err, "create customer %s", c.ID)
		}
		slog.Info("created customer", slog.String("id", c.ID), slog.String("name", c.Name))
	}
	return nil
}

// found turns a repository lookup into an existence check.
func found[T any](_ T, err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, domain.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}
