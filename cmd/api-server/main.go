// Command api-server runs the storefront order API.
package main

import (
	"context"

	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"

	shop "github.com/PerrimLc/Trabalho-final-API/internal/app"
)

func main() {
	app.Run(func(ctx context.Context, lg *zap.Logger, m *app.Telemetry) error {
		cfg, err := shop.LoadConfig()
		if err != nil {
			return err
		}
		lg.Info("Configuration loaded",
			zap.String("storage", cfg.Storage),
			zap.Bool("webhook", cfg.Notify.WebhookURL != ""),
			zap.Int("rate_limit", cfg.RateLimit.Max),
		)
		return shop.Run(ctx, lg, m, cfg)
	})
}
