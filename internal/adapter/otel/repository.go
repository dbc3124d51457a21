package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/cinelist/internal/domain"
)

const tracerName = "github.com/neomorfeo/cinelist/internal/adapter/otel"

// TracingWatchlistRepository wraps a domain.WatchlistRepository with
// OpenTelemetry tracing. Each method creates a span with semantic attributes
// and records errors.
type TracingWatchlistRepository struct {
	next   domain.WatchlistRepository
	tracer trace.Tracer
}

// Compile-time check: TracingWatchlistRepository implements domain.WatchlistRepository.
var _ domain.WatchlistRepository = (*TracingWatchlistRepository)(nil)

// NewTracingWatchlistRepository wraps next with one span per call.
func NewTracingWatchlistRepository(next domain.WatchlistRepository) *TracingWatchlistRepository {
	return &TracingWatchlistRepository{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (r *TracingWatchlistRepository) Create(ctx context.Context, item domain.WatchlistItem) error {
	ctx, span := r.tracer.Start(ctx, "WatchlistRepository.Create",
		trace.WithAttributes(
			attribute.String("watchlist.item_id", item.ID),
			attribute.String("user.id", item.UserID),
			attribute.Int("movie.tmdb_id", item.TmdbID),
		),
	)
	defer span.End()

	err := r.next.Create(ctx, item)
	recordError(span, err)
	return err
}

func (r *TracingWatchlistRepository) GetByID(ctx context.Context, id string) (domain.WatchlistItem, error) {
	ctx, span := r.tracer.Start(ctx, "WatchlistRepository.GetByID",
		trace.WithAttributes(attribute.String("watchlist.item_id", id)),
	)
	defer span.End()

	item, err := r.next.GetByID(ctx, id)
	recordError(span, err)
	return item, err
}

func (r *TracingWatchlistRepository) Find(ctx context.Context, spec domain.Specification[domain.WatchlistItem]) ([]domain.WatchlistItem, error) {
	ctx, span := r.tracer.Start(ctx, "WatchlistRepository.Find",
		trace.WithAttributes(attribute.String("spec.op", string(spec.Predicate().Op))),
	)
	defer span.End()

	items, err := r.next.Find(ctx, spec)
	if err != nil {
		recordError(span, err)
	} else {
		span.SetAttributes(attribute.Int("result.count", len(items)))
	}
	return items, err
}

func (r *TracingWatchlistRepository) Exists(ctx context.Context, spec domain.Specification[domain.WatchlistItem]) (bool, error) {
	ctx, span := r.tracer.Start(ctx, "WatchlistRepository.Exists",
		trace.WithAttributes(attribute.String("spec.op", string(spec.Predicate().Op))),
	)
	defer span.End()

	found, err := r.next.Exists(ctx, spec)
	if err != nil {
		recordError(span, err)
	} else {
		span.SetAttributes(attribute.Bool("result.exists", found))
	}
	return found, err
}

func (r *TracingWatchlistRepository) Update(ctx context.Context, item domain.WatchlistItem) error {
	ctx, span := r.tracer.Start(ctx, "WatchlistRepository.Update",
		trace.WithAttributes(
			attribute.String("watchlist.item_id", item.ID),
			attribute.String("watchlist.status", string(item.Status)),
		),
	)
	defer span.End()

	err := r.next.Update(ctx, item)
	recordError(span, err)
	return err
}

func (r *TracingWatchlistRepository) Delete(ctx context.Context, id string) error {
	ctx, span := r.tracer.Start(ctx, "WatchlistRepository.Delete",
		trace.WithAttributes(attribute.String("watchlist.item_id", id)),
	)
	defer span.End()

	err := r.next.Delete(ctx, id)
	recordError(span, err)
	return err
}

func recordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
