package domain

import (
	"context"
	"time"
)

// Repositories return ErrNotFound for missing rows and *ConflictError when a
// unique constraint rejects a write. Inside UnitOfWork.Do they join the
// ambient transaction carried by the context.

// UserRepository defines the persistence contract for users.
type UserRepository interface {
	Create(ctx context.Context, user User) error
	GetByID(ctx context.Context, id string) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
}

// RefreshTokenRepository stores refresh tokens by hash.
type RefreshTokenRepository interface {
	Create(ctx context.Context, token RefreshToken) error
	GetByHash(ctx context.Context, hash string) (RefreshToken, error)
	Revoke(ctx context.Context, hash string, at time.Time) error
}

// MovieRepository is the local movie cache.
type MovieRepository interface {
	GetByTmdbID(ctx context.Context, tmdbID int) (Movie, error)
	Upsert(ctx context.Context, movie Movie) error
}

// WatchlistRepository persists watchlist items and answers specification queries.
type WatchlistRepository interface {
	Create(ctx context.Context, item WatchlistItem) error
	GetByID(ctx context.Context, id string) (WatchlistItem, error)
	Find(ctx context.Context, spec Specification[WatchlistItem]) ([]WatchlistItem, error)
	Exists(ctx context.Context, spec Specification[WatchlistItem]) (bool, error)
	Update(ctx context.Context, item WatchlistItem) error
	Delete(ctx context.Context, id string) error
}

// MovieProvider is the external movie metadata service.
// GetByID returns ErrNotFound for unknown ids and includes cast and videos.
type MovieProvider interface {
	Search(ctx context.Context, query string, page int) (MoviePage, error)
	GetByID(ctx context.Context, tmdbID int) (Movie, error)
	ListByGenre(ctx context.Context, genreID, page int) (MoviePage, error)
	ListPopular(ctx context.Context, page int) (MoviePage, error)
}

// PrincipalAccessor resolves the authenticated user of the current call.
type PrincipalAccessor interface {
	CurrentUserID(ctx context.Context) (string, bool)
}

// TokenIssuer mints access/refresh token pairs.
type TokenIssuer interface {
	Issue(user User, now time.Time) (AuthTokens, error)
	HashRefreshToken(raw string) string
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password Password) (string, error)
	Verify(hash, password string) bool
}

// Clock is the time source.
type Clock interface {
	Now() time.Time
}

// TransitionValidator checks a status event against the current status and
// returns the destination. Invalid events yield a *TransitionError.
type TransitionValidator interface {
	Apply(ctx context.Context, current WatchStatus, event StatusEvent) (WatchStatus, error)
}

// UnitOfWork runs fn atomically. fn's context carries the transaction; a
// non-nil error from fn rolls back.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}
