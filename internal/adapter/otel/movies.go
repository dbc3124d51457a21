package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/cinelist/internal/domain"
)

// TracingMovieProvider wraps a domain.MovieProvider so every call to the
// external catalogue shows up as a client span.
type TracingMovieProvider struct {
	next   domain.MovieProvider
	tracer trace.Tracer
}

// Compile-time check: TracingMovieProvider implements domain.MovieProvider.
var _ domain.MovieProvider = (*TracingMovieProvider)(nil)

// NewTracingMovieProvider wraps next with one span per call.
func NewTracingMovieProvider(next domain.MovieProvider) *TracingMovieProvider {
	return &TracingMovieProvider{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (p *TracingMovieProvider) Search(ctx context.Context, query string, page int) (domain.MoviePage, error) {
	ctx, span := p.tracer.Start(ctx, "MovieProvider.Search",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("movie.query", query),
			attribute.Int("page", page),
		),
	)
	defer span.End()

	res, err := p.next.Search(ctx, query, page)
	endPage(span, res, err)
	return res, err
}

func (p *TracingMovieProvider) GetByID(ctx context.Context, tmdbID int) (domain.Movie, error) {
	ctx, span := p.tracer.Start(ctx, "MovieProvider.GetByID",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.Int("movie.tmdb_id", tmdbID)),
	)
	defer span.End()

	movie, err := p.next.GetByID(ctx, tmdbID)
	recordError(span, err)
	return movie, err
}

func (p *TracingMovieProvider) ListByGenre(ctx context.Context, genreID, page int) (domain.MoviePage, error) {
	ctx, span := p.tracer.Start(ctx, "MovieProvider.ListByGenre",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.Int("movie.genre_id", genreID),
			attribute.Int("page", page),
		),
	)
	defer span.End()

	res, err := p.next.ListByGenre(ctx, genreID, page)
	endPage(span, res, err)
	return res, err
}

func (p *TracingMovieProvider) ListPopular(ctx context.Context, page int) (domain.MoviePage, error) {
	ctx, span := p.tracer.Start(ctx, "MovieProvider.ListPopular",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.Int("page", page)),
	)
	defer span.End()

	res, err := p.next.ListPopular(ctx, page)
	endPage(span, res, err)
	return res, err
}

func endPage(span trace.Span, res domain.MoviePage, err error) {
	if err != nil {
		recordError(span, err)
		return
	}
	span.SetAttributes(
		attribute.Int("result.count", len(res.Results)),
		attribute.Int("result.total", res.TotalResults),
	)
}
