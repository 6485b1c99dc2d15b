// Package app wires configuration, storage, services and the HTTP server.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/PerrimLc/Trabalho-final-API/internal/domain/account"
	"github.com/PerrimLc/Trabalho-final-API/internal/domain/cashback"
	"github.com/PerrimLc/Trabalho-final-API/internal/domain/catalog"
	"github.com/PerrimLc/Trabalho-final-API/internal/domain/discount"
	"github.com/PerrimLc/Trabalho-final-API/internal/domain/lifecycle"
	"github.com/PerrimLc/Trabalho-final-API/internal/domain/store"
	"github.com/PerrimLc/Trabalho-final-API/internal/handler"
	"github.com/PerrimLc/Trabalho-final-API/internal/notify"
	"github.com/PerrimLc/Trabalho-final-API/internal/storage/memory"
	"github.com/PerrimLc/Trabalho-final-API/internal/storage/postgres"
	"github.com/PerrimLc/Trabalho-final-API/pkg/health"
	"github.com/PerrimLc/Trabalho-final-API/pkg/httpmiddleware"
)

// backend is a unit-of-work store that can report its health.
type backend interface {
	store.UnitOfWork
	health.Pinger
}

// openStore returns the configured backend and a function releasing it.
func openStore(ctx context.Context, lg *zap.Logger, cfg *Config) (backend, func(), error) {
	if cfg.Storage == StorageMemory {
		lg.Warn("Using in-memory storage, data is lost on restart")
		return memory.New(), func() {}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, errors.Wrap(err, "create db pool")
	}
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, errors.Wrap(err, "run migrations")
	}
	return postgres.NewStore(pool), pool.Close, nil
}

// Run creates all dependencies, starts the HTTP server and the background
// workers, and handles graceful shutdown. It is the single wiring point for
// the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	ctx = zctx.Base(ctx, lg)
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("storage", cfg.Storage),
	)

	st, closeStore, err := openStore(ctx, lg, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	discountRate, err := cfg.Discount.rate()
	if err != nil {
		return err
	}
	policy, err := cfg.Cashback.policy()
	if err != nil {
		return err
	}

	var (
		notifier lifecycle.Notifier = notify.Log{}
		webhook  *notify.Webhook
	)
	if cfg.Notify.WebhookURL != "" {
		webhook, err = notify.NewWebhook(notify.WebhookConfig{
			URL:        cfg.Notify.WebhookURL,
			Secret:     cfg.Notify.Secret,
			MaxRetries: cfg.Notify.MaxRetries,
			RetryDelay: cfg.Notify.RetryDelay,
			QueueSize:  cfg.Notify.QueueSize,
			Timeout:    cfg.Notify.Timeout,
		})
		if err != nil {
			return errors.Wrap(err, "create webhook")
		}
		notifier = webhook
	}

	orders, err := lifecycle.NewService(st,
		discount.New(discountRate),
		cashback.NewEngine(policy),
		notifier,
		lifecycle.WithTracerProvider(m.TracerProvider()),
		lifecycle.WithMeterProvider(m.MeterProvider()),
	)
	if err != nil {
		return errors.Wrap(err, "create lifecycle service")
	}
	h := handler.NewHandler(orders, catalog.NewService(st), account.NewService(st))

	healthSvc := health.New()
	healthSvc.AddReadinessCheck("storage", 5*time.Second, health.PingCheck(st))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))

	limiter := httpmiddleware.NewRateLimiter(httpmiddleware.RateLimitConfig{
		Max:     cfg.RateLimit.Max,
		Window:  cfg.RateLimit.Window,
		KeyFunc: handler.RateLimitKey,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("GET /readyz", healthSvc.ReadyEndpoint)
	h.Register(mux)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(lg),
			httpmiddleware.Recovery(),
			httpmiddleware.Instrument("shop-api", m.TracerProvider(), m.MeterProvider()),
			limiter.Middleware(),
			handler.Authenticate(),
			httpmiddleware.LogRequests(),
		),
	}

	// The notifier stops only after the server has drained.
	notifyCtx, stopNotify := context.WithCancel(context.WithoutCancel(ctx))
	defer stopNotify()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return healthSvc.Run(gctx, 10*time.Second)
	})
	g.Go(func() error {
		return limiter.Run(gctx)
	})
	if webhook != nil {
		g.Go(func() error {
			return webhook.Run(notifyCtx)
		})
	}
	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return shutdown(lg, healthSvc, server, cfg.Graceful, stopNotify)
	})

	healthSvc.SetReady(true)
	return g.Wait()
}

type readiness interface {
	SetReady(ready bool)
}

type shutdowner interface {
	Shutdown(ctx context.Context) error
}

// shutdown marks the service unready, waits for load balancers to notice,
// drains the server and only then stops the background notifier.
func shutdown(lg *zap.Logger, ready readiness, server shutdowner, cfg GracefulConfig, stopNotify context.CancelFunc) error {
	defer stopNotify()

	ready.SetReady(false)
	lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.ReadinessDelay))
	time.Sleep(cfg.ReadinessDelay)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	lg.Info("Shutting down server", zap.Duration("timeout", cfg.ShutdownTimeout))
	if err := server.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	return nil
}
