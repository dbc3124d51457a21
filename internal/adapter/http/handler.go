package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/cinelist/internal/app"
	"github.com/neomorfeo/cinelist/internal/domain"
)

// Options configures the API routes.
type Options struct {
	// Limiter throttles logins per client IP. Nil disables throttling.
	Limiter      Limiter
	CookieSecure bool
	Logger       *slog.Logger
}

type server struct {
	dispatcher *app.Dispatcher
	limiter    Limiter
	secure     bool
	logger     *slog.Logger
}

// Register adds every API route to api. Each route builds a request value
// and sends it through the dispatcher.
func Register(api huma.API, d *app.Dispatcher, opts Options) {
	s := &server{
		dispatcher: d,
		limiter:    opts.Limiter,
		secure:     opts.CookieSecure,
		logger:     opts.Logger,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	s.registerAuth(api)
	s.registerWatchlist(api)
	s.registerMovies(api)
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthOutput struct {
	Body struct {
		Status string `json:"status" enum:"ok,unavailable"`
	}
}

// RegisterHealth adds GET /healthz, which pings db.
func RegisterHealth(api huma.API, db Pinger) {
	huma.Register(api, huma.Operation{
		OperationID: "healthz",
		Method:      http.MethodGet,
		Path:        "/healthz",
		Summary:     "Liveness and database check",
		Tags:        []string{"Health"},
	}, func(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return nil, huma.Error503ServiceUnavailable("database unavailable")
		}
		out := &HealthOutput{}
		out.Body.Status = "ok"
		return out, nil
	})
}

// --- Auth ---

type RegisterInput struct {
	Body struct {
		Username string `json:"username" doc:"3 to 50 letters, digits, '_' or '-'"`
		Email    string `json:"email"`
		Password string `json:"password" doc:"8 to 100 characters with upper, lower, digit and symbol"`
	}
}

type LoginInput struct {
	Body struct {
		Login    string `json:"login" doc:"Username or e-mail"`
		Password string `json:"password"`
	}
}

type RefreshInput struct {
	RefreshToken string `cookie:"refresh_token"`
}

type SessionOutput struct {
	SetCookie []http.Cookie `header:"Set-Cookie"`
	Body      SessionResponse
}

type LogoutOutput struct {
	SetCookie []http.Cookie `header:"Set-Cookie"`
}

type UserOutput struct {
	Body UserResponse
}

func (s *server) registerAuth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID:   "register",
		Method:        http.MethodPost,
		Path:          "/api/v1/auth/register",
		Summary:       "Create an account and sign in",
		Tags:          []string{"Auth"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *RegisterInput) (*SessionOutput, error) {
		r, err := app.Send[domain.Result[app.Session]](ctx, s.dispatcher, app.RegisterUser{
			Username: input.Body.Username,
			Email:    input.Body.Email,
			Password: input.Body.Password,
		})
		session, err := result(ctx, s.logger, "register", r, err)
		if err != nil {
			return nil, err
		}
		return s.sessionOutput(session), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/login",
		Summary:     "Sign in with username or e-mail",
		Tags:        []string{"Auth"},
		Middlewares: huma.Middlewares{s.rateLimited(api, time.Minute)},
	}, func(ctx context.Context, input *LoginInput) (*SessionOutput, error) {
		r, err := app.Send[domain.Result[app.Session]](ctx, s.dispatcher, app.LoginUser{
			Login:    input.Body.Login,
			Password: input.Body.Password,
		})
		session, err := result(ctx, s.logger, "login", r, err)
		if err != nil {
			return nil, err
		}
		return s.sessionOutput(session), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "refresh",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/refresh",
		Summary:     "Rotate the refresh token cookie",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, input *RefreshInput) (*SessionOutput, error) {
		r, err := app.Send[domain.Result[app.Session]](ctx, s.dispatcher, app.RefreshSession{Token: input.RefreshToken})
		session, err := result(ctx, s.logger, "refresh", r, err)
		if err != nil {
			return nil, err
		}
		return s.sessionOutput(session), nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "logout",
		Method:        http.MethodPost,
		Path:          "/api/v1/auth/logout",
		Summary:       "Revoke the refresh token and clear cookies",
		Tags:          []string{"Auth"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *RefreshInput) (*LogoutOutput, error) {
		r, err := app.Send[domain.Result[struct{}]](ctx, s.dispatcher, app.LogoutUser{Token: input.RefreshToken})
		if _, err := result(ctx, s.logger, "logout", r, err); err != nil {
			return nil, err
		}
		return &LogoutOutput{SetCookie: []http.Cookie{
			s.clearCookie(accessCookie, "/"),
			s.clearCookie(refreshCookie, refreshCookiePath),
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "me",
		Method:      http.MethodGet,
		Path:        "/api/v1/auth/me",
		Summary:     "The signed-in user",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, _ *struct{}) (*UserOutput, error) {
		r, err := app.Send[domain.Result[domain.User]](ctx, s.dispatcher, app.GetCurrentUser{})
		user, err := result(ctx, s.logger, "me", r, err)
		if err != nil {
			return nil, err
		}
		return &UserOutput{Body: toUserResponse(user)}, nil
	})
}

// refreshCookiePath keeps the refresh token off every request but the auth ones.
const refreshCookiePath = "/api/v1/auth"

func (s *server) sessionOutput(session app.Session) *SessionOutput {
	return &SessionOutput{
		SetCookie: []http.Cookie{
			{
				Name:     accessCookie,
				Value:    session.Tokens.AccessToken,
				Path:     "/",
				Expires:  session.Tokens.AccessExpiresAt,
				HttpOnly: true,
				Secure:   s.secure,
				SameSite: http.SameSiteLaxMode,
			},
			{
				Name:     refreshCookie,
				Value:    session.Tokens.RefreshToken,
				Path:     refreshCookiePath,
				Expires:  session.Tokens.RefreshExpiresAt,
				HttpOnly: true,
				Secure:   s.secure,
				SameSite: http.SameSiteStrictMode,
			},
		},
		Body: toSessionResponse(session),
	}
}

func (s *server) clearCookie(name, path string) http.Cookie {
	return http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
	}
}

// --- Watchlist ---

type ListWatchlistInput struct {
	Status    string `query:"status" required:"false" enum:"planned,watching,watched,dropped" doc:"Only items with this status"`
	YearFrom  int    `query:"year_from" required:"false" doc:"Earliest release year"`
	YearTo    int    `query:"year_to" required:"false" doc:"Latest release year"`
	Title     string `query:"title" required:"false" doc:"Case-insensitive title substring"`
	MinRating int    `query:"min_rating" required:"false" minimum:"0" maximum:"10" doc:"Only items rated at least this"`
}

type ListWatchlistOutput struct {
	Body []WatchlistItemResponse
}

type AddToWatchlistInput struct {
	Body struct {
		TmdbID int    `json:"tmdb_id" minimum:"1"`
		Status string `json:"status,omitempty" enum:"planned,watching,watched,dropped" doc:"Defaults to planned"`
	}
}

type WatchlistItemOutput struct {
	Body WatchlistItemResponse
}

type UpdateWatchlistInput struct {
	ID   string `path:"id"`
	Body struct {
		Status *string `json:"status,omitempty" enum:"planned,watching,watched,dropped"`
		Rating *int    `json:"rating,omitempty"`
		Notes  *string `json:"notes,omitempty"`
	}
}

type ItemIDInput struct {
	ID string `path:"id"`
}

type StatsOutput struct {
	Body WatchlistStatsResponse
}

func (s *server) registerWatchlist(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "list-watchlist",
		Method:      http.MethodGet,
		Path:        "/api/v1/watchlist",
		Summary:     "The signed-in user's watchlist, newest first",
		Tags:        []string{"Watchlist"},
	}, func(ctx context.Context, input *ListWatchlistInput) (*ListWatchlistOutput, error) {
		items, err := app.Send[[]domain.WatchlistItem](ctx, s.dispatcher, app.GetMyWatchlist{
			Status:   domain.WatchStatus(input.Status),
			YearFrom: input.YearFrom,
			YearTo:   input.YearTo,
			Title:    input.Title,
			MinScore: input.MinRating,
		})
		if err != nil {
			return nil, internalError(ctx, s.logger, "list-watchlist", err)
		}
		resp := make([]WatchlistItemResponse, len(items))
		for i, item := range items {
			resp[i] = toWatchlistItemResponse(item)
		}
		return &ListWatchlistOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "add-to-watchlist",
		Method:        http.MethodPost,
		Path:          "/api/v1/watchlist",
		Summary:       "Add a movie to the watchlist",
		Tags:          []string{"Watchlist"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *AddToWatchlistInput) (*WatchlistItemOutput, error) {
		r, err := app.Send[domain.Result[domain.WatchlistItem]](ctx, s.dispatcher, app.AddToWatchlist{
			TmdbID: input.Body.TmdbID,
			Status: domain.WatchStatus(input.Body.Status),
		})
		item, err := result(ctx, s.logger, "add-to-watchlist", r, err)
		if err != nil {
			return nil, err
		}
		return &WatchlistItemOutput{Body: toWatchlistItemResponse(item)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "watchlist-stats",
		Method:      http.MethodGet,
		Path:        "/api/v1/watchlist/stats",
		Summary:     "Item counts per status",
		Tags:        []string{"Watchlist"},
	}, func(ctx context.Context, _ *struct{}) (*StatsOutput, error) {
		stats, err := app.Send[domain.WatchlistStats](ctx, s.dispatcher, app.GetWatchlistStats{})
		if err != nil {
			return nil, internalError(ctx, s.logger, "watchlist-stats", err)
		}
		return &StatsOutput{Body: WatchlistStatsResponse{
			Total:    stats.Total,
			Planned:  stats.Planned,
			Watching: stats.Watching,
			Watched:  stats.Watched,
			Dropped:  stats.Dropped,
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-watchlist-item",
		Method:      http.MethodPatch,
		Path:        "/api/v1/watchlist/{id}",
		Summary:     "Change status, rating or notes",
		Tags:        []string{"Watchlist"},
	}, func(ctx context.Context, input *UpdateWatchlistInput) (*WatchlistItemOutput, error) {
		req := app.UpdateWatchlistItem{
			ItemID: input.ID,
			Rating: input.Body.Rating,
			Notes:  input.Body.Notes,
		}
		if input.Body.Status != nil {
			status := domain.WatchStatus(*input.Body.Status)
			req.Status = &status
		}
		r, err := app.Send[domain.Result[domain.WatchlistItem]](ctx, s.dispatcher, req)
		item, err := result(ctx, s.logger, "update-watchlist-item", r, err)
		if err != nil {
			return nil, err
		}
		return &WatchlistItemOutput{Body: toWatchlistItemResponse(item)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "remove-from-watchlist",
		Method:        http.MethodDelete,
		Path:          "/api/v1/watchlist/{id}",
		Summary:       "Remove an item",
		Tags:          []string{"Watchlist"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *ItemIDInput) (*struct{}, error) {
		r, err := app.Send[domain.Result[struct{}]](ctx, s.dispatcher, app.RemoveFromWatchlist{ItemID: input.ID})
		if _, err := result(ctx, s.logger, "remove-from-watchlist", r, err); err != nil {
			return nil, err
		}
		return nil, nil
	})
}

// --- Movies ---

type SearchMoviesInput struct {
	Query string `query:"query" doc:"Title search"`
	Page  int    `query:"page" required:"false" minimum:"1" default:"1"`
}

type PageInput struct {
	Page int `query:"page" required:"false" minimum:"1" default:"1"`
}

type GenreInput struct {
	ID   int `path:"id" minimum:"1" doc:"TMDb genre id"`
	Page int `query:"page" required:"false" minimum:"1" default:"1"`
}

type MovieIDInput struct {
	TmdbID int `path:"tmdbId" minimum:"1"`
}

type MoviePageOutput struct {
	Body MoviePageResponse
}

type MovieOutput struct {
	Body MovieResponse
}

func (s *server) registerMovies(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "search-movies",
		Method:      http.MethodGet,
		Path:        "/api/v1/movies/search",
		Summary:     "Search the movie catalogue",
		Tags:        []string{"Movies"},
	}, func(ctx context.Context, input *SearchMoviesInput) (*MoviePageOutput, error) {
		r, err := app.Send[domain.Result[domain.MoviePage]](ctx, s.dispatcher, app.SearchMovies{Query: input.Query, Page: input.Page})
		page, err := result(ctx, s.logger, "search-movies", r, err)
		if err != nil {
			return nil, err
		}
		return &MoviePageOutput{Body: toMoviePageResponse(page)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "popular-movies",
		Method:      http.MethodGet,
		Path:        "/api/v1/movies/popular",
		Summary:     "Currently popular movies",
		Tags:        []string{"Movies"},
	}, func(ctx context.Context, input *PageInput) (*MoviePageOutput, error) {
		page, err := app.Send[domain.MoviePage](ctx, s.dispatcher, app.GetPopularMovies{Page: input.Page})
		if err != nil {
			return nil, internalError(ctx, s.logger, "popular-movies", err)
		}
		return &MoviePageOutput{Body: toMoviePageResponse(page)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "movies-by-genre",
		Method:      http.MethodGet,
		Path:        "/api/v1/movies/genre/{id}",
		Summary:     "Movies of one genre",
		Tags:        []string{"Movies"},
	}, func(ctx context.Context, input *GenreInput) (*MoviePageOutput, error) {
		r, err := app.Send[domain.Result[domain.MoviePage]](ctx, s.dispatcher, app.GetMoviesByGenre{GenreID: input.ID, Page: input.Page})
		page, err := result(ctx, s.logger, "movies-by-genre", r, err)
		if err != nil {
			return nil, err
		}
		return &MoviePageOutput{Body: toMoviePageResponse(page)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "movie-details",
		Method:      http.MethodGet,
		Path:        "/api/v1/movies/{tmdbId}",
		Summary:     "Movie details with cast and videos",
		Tags:        []string{"Movies"},
	}, func(ctx context.Context, input *MovieIDInput) (*MovieOutput, error) {
		r, err := app.Send[domain.Result[domain.Movie]](ctx, s.dispatcher, app.GetMovieDetails{TmdbID: input.TmdbID})
		movie, err := result(ctx, s.logger, "movie-details", r, err)
		if err != nil {
			return nil, err
		}
		return &MovieOutput{Body: toMovieResponse(movie)}, nil
	})
}
