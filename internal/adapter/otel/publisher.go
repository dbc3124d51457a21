package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/cinelist/internal/app"
	"github.com/neomorfeo/cinelist/internal/domain"
)

// TraceSubscriber wraps an event subscriber so each delivery gets a span
// named after the subscriber.
func TraceSubscriber(name string, next app.EventHandlerFunc) app.EventHandlerFunc {
	tracer := otel.Tracer(tracerName)
	return func(ctx context.Context, event domain.Event) error {
		ctx, span := tracer.Start(ctx, name,
			trace.WithSpanKind(trace.SpanKindProducer),
			trace.WithAttributes(
				attribute.String("event.name", event.EventName()),
				attribute.String("event.id", event.EventID().String()),
			),
		)
		defer span.End()

		err := next(ctx, event)
		recordError(span, err)
		return err
	}
}
