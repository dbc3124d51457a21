package app

import (
	"context"
	"errors"

	"github.com/neomorfeo/cinelist/internal/domain"
)

// Deps holds the adapters the handlers talk to.
type Deps struct {
	Users         domain.UserRepository
	RefreshTokens domain.RefreshTokenRepository
	Movies        domain.MovieRepository
	Watchlist     domain.WatchlistRepository
	Provider      domain.MovieProvider
	Tokens        domain.TokenIssuer
	Hasher        domain.PasswordHasher
	Transitions   domain.TransitionValidator
	Principal     domain.PrincipalAccessor
	Clock         domain.Clock
	UnitOfWork    domain.UnitOfWork
}

// Register wires every use case into d. It reports all registration
// conflicts at once.
func Register(d *Dispatcher, deps Deps) error {
	if deps.Clock == nil {
		deps.Clock = SystemClock{}
	}
	if deps.UnitOfWork == nil {
		deps.UnitOfWork = direct{}
	}

	auth := NewAuthHandlers(deps.Users, deps.RefreshTokens, deps.Tokens, deps.Hasher, deps.Principal, deps.Clock)
	movies := NewMovieHandlers(deps.Movies, deps.Provider, deps.Clock)
	watchlist := NewWatchlistHandlers(deps.Watchlist, movies, deps.Transitions, deps.Principal, deps.Clock, deps.UnitOfWork)

	return errors.Join(
		Handle(d, auth.Register),
		Handle(d, auth.Login),
		Handle(d, auth.Refresh),
		Handle(d, auth.Logout),
		Handle(d, auth.CurrentUser),

		Handle(d, movies.Details),
		Handle(d, movies.Search),
		Handle(d, movies.Popular),
		Handle(d, movies.ByGenre),

		Handle(d, watchlist.Add),
		Handle(d, watchlist.Update),
		Handle(d, watchlist.Remove),
		Handle(d, watchlist.Mine),
		Handle(d, watchlist.Stats),
	)
}

// direct runs fn without a transaction.
type direct struct{}

func (direct) Do(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }
