package otel

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/cinelist/internal/app"
	"github.com/neomorfeo/cinelist/internal/domain"
)

const meterName = tracerName

// Request outcomes as recorded on spans and metrics.
const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
	outcomeError   = "error"
)

// TracingBehavior wraps every dispatched request in a span and records a
// request counter and a duration histogram. A failed Result marks the span
// with its kind but leaves the status unset; only errors set codes.Error.
func TracingBehavior() (app.Behavior, error) {
	tracer := otel.Tracer(tracerName)
	meter := otel.Meter(meterName)

	requests, err := meter.Int64Counter("cinelist.requests",
		metric.WithDescription("Dispatched requests by name and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating request counter: %w", err)
	}
	duration, err := meter.Float64Histogram("cinelist.request.duration",
		metric.WithDescription("Request handling time"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}

	return func(next app.HandlerFunc) app.HandlerFunc {
		return func(ctx context.Context, req app.Request) (any, error) {
			name := req.RequestName()
			_, isCommand := req.(app.Command)

			ctx, span := tracer.Start(ctx, name,
				trace.WithAttributes(
					attribute.String("request.name", name),
					attribute.Bool("request.command", isCommand),
				),
			)
			defer span.End()

			start := time.Now()
			res, err := next(ctx, req)

			outcome := outcomeSuccess
			switch o, ok := res.(domain.Outcome); {
			case err != nil:
				outcome = outcomeError
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			case ok && o.IsFailure():
				outcome = outcomeFailure
				span.SetAttributes(
					attribute.String("result.kind", string(o.Kind())),
					attribute.String("result.message", o.Message()),
				)
			}
			span.SetAttributes(attribute.String("request.outcome", outcome))

			attrs := metric.WithAttributes(
				attribute.String("request", name),
				attribute.String("outcome", outcome),
			)
			requests.Add(ctx, 1, attrs)
			duration.Record(ctx, time.Since(start).Seconds(), attrs)

			return res, err
		}
	}, nil
}
