package app

import (
	"os"
	"strings"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/PerrimLc/Trabalho-final-API/internal/domain/cashback"
)

// Storage backends.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config holds the complete application configuration, loadable from
// environment variables (SHOP_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	Storage     string `default:"postgres" usage:"Storage backend: postgres or memory"`
	DatabaseURL string `usage:"PostgreSQL connection URL (SHOP_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	RateLimit   RateLimitConfig
	Graceful    GracefulConfig
	Discount    DiscountConfig
	Cashback    CashbackConfig
	Notify      NotifyConfig
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// DiscountConfig sets the first-order discount.
type DiscountConfig struct {
	Rate string `default:"0.10" usage:"First-order discount rate per unit, 0 disables it"`
}

// CashbackConfig selects the cashback policy. Tiers take precedence over
// the flat rate when set.
type CashbackConfig struct {
	Rate  string `default:"0.05" usage:"Flat cashback rate on the amount charged"`
	Tiers string `usage:"Tiered cashback as min:rate pairs, e.g. 0:0.05,500:0.08"`
}

// NotifyConfig configures the cashback webhook. Notices are only logged
// when WebhookURL is empty.
type NotifyConfig struct {
	WebhookURL string        `usage:"URL receiving cashback notices" flag:"webhook-url"`
	Secret     string        `usage:"HMAC secret signing webhook payloads"`
	MaxRetries int           `default:"3" usage:"Delivery attempts per notice"`
	RetryDelay time.Duration `default:"1s" usage:"Delay between delivery attempts"`
	QueueSize  int           `default:"256" usage:"Pending notices before new ones are dropped"`
	Timeout    time.Duration `default:"10s" usage:"Webhook request timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "SHOP",
		Files:     []string{"config.yaml", "/etc/shop/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided DATABASE_URL and PORT to the
// SHOP_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}

func (c *Config) validate() error {
	switch c.Storage {
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return errors.New("database URL is required: set SHOP_DATABASE_URL or DATABASE_URL")
		}
	case StorageMemory:
	default:
		return errors.Errorf("unknown storage %q", c.Storage)
	}
	if _, err := c.Discount.rate(); err != nil {
		return err
	}
	if _, err := c.Cashback.policy(); err != nil {
		return err
	}
	return nil
}

func (c DiscountConfig) rate() (decimal.Decimal, error) {
	r, err := decimal.NewFromString(c.Rate)
	if err != nil {
		return decimal.Decimal{}, errors.Wrap(err, "discount rate")
	}
	if r.IsNegative() || r.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.Decimal{}, errors.Errorf("discount rate %s: want 0 to 1, 0 disables it", r)
	}
	return r, nil
}

// policy builds the configured cashback policy.
func (c CashbackConfig) policy() (cashback.Policy, error) {
	if strings.TrimSpace(c.Tiers) == "" {
		r, err := decimal.NewFromString(c.Rate)
		if err != nil {
			return nil, errors.Wrap(err, "cashback rate")
		}
		if r.IsNegative() {
			return nil, errors.New("cashback rate must not be negative")
		}
		return cashback.PercentagePolicy{Rate: r}, nil
	}

	var tiers []cashback.Tier
	for _, pair := range strings.Split(c.Tiers, ",") {
		minStr, rateStr, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok {
			return nil, errors.Errorf("cashback tier %q: want min:rate", pair)
		}
		minAmount, err := decimal.NewFromString(minStr)
		if err != nil {
			return nil, errors.Wrapf(err, "cashback tier %q", pair)
		}
		rate, err := decimal.NewFromString(rateStr)
		if err != nil {
			return nil, errors.Wrapf(err, "cashback tier %q", pair)
		}
		tiers = append(tiers, cashback.Tier{Min: minAmount, Rate: rate})
	}
	p, err := cashback.NewTieredPolicy(tiers)
	if err != nil {
		return nil, errors.Wrap(err, "cashback tiers")
	}
	return p, nil
}
