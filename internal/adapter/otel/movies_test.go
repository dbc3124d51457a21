package otel_test

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	adapter "github.com/neomorfeo/cinelist/internal/adapter/otel"
	"github.com/neomorfeo/cinelist/internal/domain"
)

type stubProvider struct {
	page domain.MoviePage
	err  error
}

func (s stubProvider) Search(context.Context, string, int) (domain.MoviePage, error) {
	return s.page, s.err
}

func (s stubProvider) GetByID(_ context.Context, id int) (domain.Movie, error) {
	return domain.Movie{TmdbID: id}, s.err
}

func (s stubProvider) ListByGenre(context.Context, int, int) (domain.MoviePage, error) {
	return s.page, s.err
}

func (s stubProvider) ListPopular(context.Context, int) (domain.MoviePage, error) {
	return s.page, s.err
}

func TestTracingMovieProvider_RecordsClientSpans(t *testing.T) {
	exporter := setupTestTracer(t)
	page := domain.MoviePage{Page: 1, TotalResults: 42, Results: []domain.MovieSummary{{TmdbID: 550}, {TmdbID: 27205}}}
	provider := adapter.NewTracingMovieProvider(stubProvider{page: page})
	ctx := context.Background()

	if _, err := provider.Search(ctx, "fight", 1); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if _, err := provider.ListByGenre(ctx, 18, 2); err != nil {
		t.Fatalf("ListByGenre: %v", err)
	}
	if _, err := provider.ListPopular(ctx, 3); err != nil {
		t.Fatalf("ListPopular: %v", err)
	}
	if _, err := provider.GetByID(ctx, 550); err != nil {
		t.Fatalf("GetByID: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 4 {
		t.Fatalf("got %d spans, want 4", len(spans))
	}

	wantNames := []string{"MovieProvider.Search", "MovieProvider.ListByGenre", "MovieProvider.ListPopular", "MovieProvider.GetByID"}
	for i, want := range wantNames {
		if spans[i].Name != want {
			t.Errorf("span %d name = %q, want %q", i, spans[i].Name, want)
		}
		if spans[i].SpanKind != trace.SpanKindClient {
			t.Errorf("span %q kind = %v, want client", spans[i].Name, spans[i].SpanKind)
		}
	}

	assertAttribute(t, spans[0], "movie.query", "fight")
	assertAttribute(t, spans[0], "result.count", "2")
	assertAttribute(t, spans[0], "result.total", "42")
	assertAttribute(t, spans[1], "movie.genre_id", "18")
	assertAttribute(t, spans[2], "page", "3")
	assertAttribute(t, spans[3], "movie.tmdb_id", "550")
}

func TestTracingMovieProvider_RecordsError(t *testing.T) {
	exporter := setupTestTracer(t)
	provider := adapter.NewTracingMovieProvider(stubProvider{err: domain.ErrNotFound})

	_, err := provider.GetByID(context.Background(), 1)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Status.Code != codes.Error {
		t.Errorf("span status = %v, want %v", spans[0].Status.Code, codes.Error)
	}
}
