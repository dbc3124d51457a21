package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/neomorfeo/cinelist/internal/domain"
)

const (
	MsgMovieNotFound  = "Movie not found"
	MsgQueryRequired  = "Search query is required"
	MsgInvalidGenre   = "Genre id must be positive"
	MsgInvalidMovieID = "Movie id must be positive"
)

// GetMovieDetails returns a movie with cast and videos, served from the
// local cache when it holds the full record.
type GetMovieDetails struct {
	TmdbID int
}

func (GetMovieDetails) RequestName() string { return "movies.details" }

// SearchMovies runs a free-text title search against the provider.
type SearchMovies struct {
	Query string
	Page  int
}

func (SearchMovies) RequestName() string { return "movies.search" }

// GetPopularMovies lists the provider's popular movies.
type GetPopularMovies struct {
	Page int
}

func (GetPopularMovies) RequestName() string { return "movies.popular" }

// GetMoviesByGenre lists movies of one provider genre.
type GetMoviesByGenre struct {
	GenreID int
	Page    int
}

func (GetMoviesByGenre) RequestName() string { return "movies.by_genre" }

// MovieHandlers implements the catalog use cases.
type MovieHandlers struct {
	movies   domain.MovieRepository
	provider domain.MovieProvider
	clock    domain.Clock
}

// NewMovieHandlers creates the catalog handlers.
func NewMovieHandlers(movies domain.MovieRepository, provider domain.MovieProvider, clock domain.Clock) *MovieHandlers {
	return &MovieHandlers{movies: movies, provider: provider, clock: clock}
}

// Details reads through the cache. A cached row without cast or videos is
// refreshed from the provider. Concurrent misses may both upsert; the last
// write wins.
func (h *MovieHandlers) Details(ctx context.Context, req GetMovieDetails) (domain.Result[domain.Movie], error) {
	if req.TmdbID <= 0 {
		return domain.Failure[domain.Movie](MsgInvalidMovieID), nil
	}

	cached, err := h.movies.GetByTmdbID(ctx, req.TmdbID)
	switch {
	case err == nil && cached.HasSupplemental():
		return domain.Success(cached), nil
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		return domain.Result[domain.Movie]{}, fmt.Errorf("reading movie cache: %w", err)
	}

	movie, err := h.provider.GetByID(ctx, req.TmdbID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NotFound[domain.Movie](MsgMovieNotFound), nil
	}
	if err != nil {
		return domain.Result[domain.Movie]{}, fmt.Errorf("fetching movie %d: %w", req.TmdbID, err)
	}
	if movie.Cast == nil {
		movie.Cast = []domain.CastMember{}
	}
	if movie.Videos == nil {
		movie.Videos = []domain.Video{}
	}
	movie.CachedAt = h.clock.Now()

	if err := h.movies.Upsert(ctx, movie); err != nil {
		return domain.Result[domain.Movie]{}, fmt.Errorf("caching movie %d: %w", req.TmdbID, err)
	}
	return domain.Success(movie), nil
}

// Search trims the query and fails when nothing is left. Results are not cached locally.
func (h *MovieHandlers) Search(ctx context.Context, req SearchMovies) (domain.Result[domain.MoviePage], error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return domain.Failure[domain.MoviePage](MsgQueryRequired), nil
	}
	page, err := h.provider.Search(ctx, query, normalizePage(req.Page))
	if err != nil {
		return domain.Result[domain.MoviePage]{}, fmt.Errorf("searching movies: %w", err)
	}
	return domain.Success(page), nil
}

// Popular cannot fail in an expected way, so it returns a bare page.
func (h *MovieHandlers) Popular(ctx context.Context, req GetPopularMovies) (domain.MoviePage, error) {
	page, err := h.provider.ListPopular(ctx, normalizePage(req.Page))
	if err != nil {
		return domain.MoviePage{}, fmt.Errorf("listing popular movies: %w", err)
	}
	return page, nil
}

// ByGenre fails for non-positive genre ids. Pages below 1 are read as 1.
func (h *MovieHandlers) ByGenre(ctx context.Context, req GetMoviesByGenre) (domain.Result[domain.MoviePage], error) {
	if req.GenreID <= 0 {
		return domain.Failure[domain.MoviePage](MsgInvalidGenre), nil
	}
	page, err := h.provider.ListByGenre(ctx, req.GenreID, normalizePage(req.Page))
	if err != nil {
		return domain.Result[domain.MoviePage]{}, fmt.Errorf("listing genre %d: %w", req.GenreID, err)
	}
	return domain.Success(page), nil
}

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}
