// Package notify delivers cashback notices produced by checkout.
package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/PerrimLc/Trabalho-final-API/internal/domain/lifecycle"
)

// Webhook request headers.
const (
	HeaderSignature = "X-Shop-Signature"
	HeaderDelivery  = "X-Shop-Delivery"
	HeaderEvent     = "X-Shop-Event"
)

// EventCashbackEarned is the event type of every cashback notice.
const EventCashbackEarned = "cashback.earned"

// ErrQueueFull is returned when the delivery queue has no room left.
var ErrQueueFull = errors.New("notification queue is full")

// WebhookConfig configures a Webhook.
type WebhookConfig struct {
	URL        string
	Secret     string
	MaxRetries int
	RetryDelay time.Duration
	QueueSize  int
	Timeout    time.Duration
	// Client overrides the HTTP client. Its transport is used as is.
	Client *http.Client
}

// Webhook posts cashback notices to a URL from a background worker.
// NotifyCashback only enqueues, so checkout never waits on the network.
type Webhook struct {
	url        string
	secret     string
	maxRetries int
	retryDelay time.Duration
	client     *http.Client
	queue      chan lifecycle.CashbackNotice
	now        func() time.Time
}

var _ lifecycle.Notifier = (*Webhook)(nil)

// NewWebhook creates a Webhook. Call Run to start delivering.
func NewWebhook(cfg WebhookConfig) (*Webhook, error) {
	if cfg.URL == "" {
		return nil, errors.New("webhook url is required")
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return &Webhook{
		url:        cfg.URL,
		secret:     cfg.Secret,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		client:     client,
		queue:      make(chan lifecycle.CashbackNotice, cfg.QueueSize),
		now:        time.Now,
	}, nil
}

// NotifyCashback enqueues n without blocking.
func (w *Webhook) NotifyCashback(_ context.Context, n lifecycle.CashbackNotice) error {
	select {
	case w.queue <- n:
		return nil
	default:
		return errors.Wrapf(ErrQueueFull, "notice for order %s", n.OrderID)
	}
}

// Run delivers queued notices until ctx is canceled. Notices still queued
// at that point are dropped and counted in the log.
func (w *Webhook) Run(ctx context.Context) error {
	lg := zctx.From(ctx).Named("webhook")
	lg.Info("Webhook worker started", zap.String("url", w.url))
	for {
		select {
		case <-ctx.Done():
			if pending := len(w.queue); pending > 0 {
				lg.Warn("Dropping undelivered notices", zap.Int("pending", pending))
			}
			return nil
		case n := <-w.queue:
			if err := w.deliver(ctx, n); err != nil && ctx.Err() == nil {
				lg.Error("Deliver cashback notice",
					zap.String("order_id", n.OrderID),
					zap.Error(err),
				)
			}
		}
	}
}

// deliver posts n, retrying failed attempts up to maxRetries times.
func (w *Webhook) deliver(ctx context.Context, n lifecycle.CashbackNotice) error {
	payload := EncodeNotice(n)
	deliveryID := uuid.NewString()
	lg := zctx.From(ctx)

	var lastErr error
	for attempt := 1; attempt <= w.maxRetries; attempt++ {
		lastErr = w.post(ctx, deliveryID, payload)
		if lastErr == nil {
			lg.Debug("Cashback notice delivered",
				zap.String("order_id", n.OrderID),
				zap.String("delivery_id", deliveryID),
				zap.Int("attempt", attempt),
			)
			return nil
		}
		lg.Warn("Webhook attempt failed",
			zap.String("order_id", n.OrderID),
			zap.Int("attempt", attempt),
			zap.Error(lastErr),
		)
		if attempt == w.maxRetries {
			break
		}
		timer := time.NewTimer(w.retryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return errors.Wrapf(lastErr, "after %d attempts", w.maxRetries)
}

func (w *Webhook) post(ctx context.Context, deliveryID string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderDelivery, deliveryID)
	req.Header.Set(HeaderEvent, EventCashbackEarned)
	if w.secret != "" {
		req.Header.Set(HeaderSignature, Sign(w.secret, w.now().Unix(), payload))
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "send")
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

// Sign returns the signature header value for payload sent at timestamp:
// "t={timestamp},v1={hex HMAC-SHA256 of timestamp.payload}".
func Sign(secret string, timestamp int64, payload []byte) string {
	ts := strconv.FormatInt(timestamp, 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(payload)
	return fmt.Sprintf("t=%s,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

// EncodeNotice renders n as the webhook JSON body. Amounts are JSON
// numbers with two decimal places.
func EncodeNotice(n lifecycle.CashbackNotice) []byte {
	e := &jx.Encoder{}
	e.ObjStart()
	e.FieldStart("event")
	e.Str(EventCashbackEarned)
	e.FieldStart("order_id")
	e.Str(n.OrderID)
	e.FieldStart("customer_id")
	e.Str(n.CustomerID)
	e.FieldStart("customer_name")
	e.Str(n.CustomerName)
	e.FieldStart("cashback_earned")
	e.Num(jx.Num(n.CashbackEarned.StringFixed(2)))
	e.FieldStart("wallet_before")
	e.Num(jx.Num(n.WalletBefore.StringFixed(2)))
	e.FieldStart("wallet_after")
	e.Num(jx.Num(n.WalletAfter.StringFixed(2)))
	e.FieldStart("amount_charged")
	e.Num(jx.Num(n.AmountCharged.StringFixed(2)))
	e.FieldStart("items_total")
	e.Num(jx.Num(n.ItemsTotal.StringFixed(2)))
	e.FieldStart("paid_at")
	e.Str(n.PaidAt.UTC().Format(time.RFC3339))
	e.ObjEnd()
	return e.Bytes()
}
