package lifecycle

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/PerrimLc/Trabalho-final-API/internal/domain"
)

const instrumentationName = "github.com/PerrimLc/Trabalho-final-API/internal/domain/lifecycle"

type telemetry struct {
	tracer   trace.Tracer
	requests metric.Int64Counter
	duration metric.Float64Histogram
	cashback metric.Float64Counter
}

func newTelemetry(tp trace.TracerProvider, mp metric.MeterProvider) (*telemetry, error) {
	meter := mp.Meter(instrumentationName)

	requests, err := meter.Int64Counter("lifecycle.operations",
		metric.WithDescription("Order lifecycle operations by outcome"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "operations counter")
	}
	duration, err := meter.Float64Histogram("lifecycle.operation.duration",
		metric.WithDescription("Order lifecycle operation latency"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "duration histogram")
	}
	earned, err := meter.Float64Counter("lifecycle.cashback.earned",
		metric.WithDescription("Cashback credited to customer wallets"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "cashback counter")
	}

	return &telemetry{
		tracer:   tp.Tracer(instrumentationName),
		requests: requests,
		duration: duration,
		cashback: earned,
	}, nil
}

// start opens a span for op. The returned function ends it and records the
// outcome of *errp.
func (t *telemetry) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(errp *error)) {
	ctx, span := t.tracer.Start(ctx, "lifecycle."+op, trace.WithAttributes(attrs...))
	begin := time.Now()

	return ctx, func(errp *error) {
		var err error
		if errp != nil {
			err = *errp
		}
		outcome := outcomeOf(err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()

		opAttr := attribute.String("operation", op)
		t.requests.Add(ctx, 1, metric.WithAttributes(opAttr, attribute.String("outcome", outcome)))
		t.duration.Record(ctx, time.Since(begin).Seconds(), metric.WithAttributes(opAttr))
	}
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrInvalidState):
		return "invalid_state"
	default:
		return "error"
	}
}
