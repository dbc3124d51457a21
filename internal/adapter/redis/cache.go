// Package redis caches movie provider listings and backs the login rate
// limiter when a Redis address is configured.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/neomorfeo/cinelist/internal/domain"
)

const keyPrefix = "cinelist:tmdb:"

// CachingProvider is a read-through cache in front of a domain.MovieProvider
// for listing calls. Details are not cached here: the movie table is their
// cache. Redis failures are logged and the call falls through to the
// provider.
type CachingProvider struct {
	next   domain.MovieProvider
	client redis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

// Compile-time check: CachingProvider implements domain.MovieProvider.
var _ domain.MovieProvider = (*CachingProvider)(nil)

// NewCachingProvider caches the responses of next in Redis for ttl. Cache
// errors are logged and fall through to next.
func NewCachingProvider(next domain.MovieProvider, client redis.Cmdable, ttl time.Duration, logger *slog.Logger) *CachingProvider {
	return &CachingProvider{next: next, client: client, ttl: ttl, logger: logger}
}

func (p *CachingProvider) Search(ctx context.Context, query string, page int) (domain.MoviePage, error) {
	key := keyPrefix + "search:" + strings.ToLower(strings.TrimSpace(query)) + ":" + strconv.Itoa(page)
	return p.cached(ctx, key, func() (domain.MoviePage, error) {
		return p.next.Search(ctx, query, page)
	})
}

func (p *CachingProvider) GetByID(ctx context.Context, tmdbID int) (domain.Movie, error) {
	return p.next.GetByID(ctx, tmdbID)
}

func (p *CachingProvider) ListByGenre(ctx context.Context, genreID, page int) (domain.MoviePage, error) {
	key := fmt.Sprintf("%sgenre:%d:%d", keyPrefix, genreID, page)
	return p.cached(ctx, key, func() (domain.MoviePage, error) {
		return p.next.ListByGenre(ctx, genreID, page)
	})
}

func (p *CachingProvider) ListPopular(ctx context.Context, page int) (domain.MoviePage, error) {
	key := keyPrefix + "popular:" + strconv.Itoa(page)
	return p.cached(ctx, key, func() (domain.MoviePage, error) {
		return p.next.ListPopular(ctx, page)
	})
}

func (p *CachingProvider) cached(ctx context.Context, key string, load func() (domain.MoviePage, error)) (domain.MoviePage, error) {
	raw, err := p.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var page domain.MoviePage
		if err := json.Unmarshal(raw, &page); err == nil {
			return page, nil
		}
		p.logger.WarnContext(ctx, "discarding corrupt cache entry", "key", key)
	case !errors.Is(err, redis.Nil):
		p.logger.WarnContext(ctx, "cache read failed", "key", key, "error", err)
	}

	page, err := load()
	if err != nil {
		return domain.MoviePage{}, err
	}

	data, err := json.Marshal(page)
	if err != nil {
		return page, nil
	}
	if err := p.client.Set(ctx, key, data, p.ttl).Err(); err != nil {
		p.logger.WarnContext(ctx, "cache write failed", "key", key, "error", err)
	}
	return page, nil
}
