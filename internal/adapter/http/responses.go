package http

import (
	"time"

	"github.com/neomorfeo/cinelist/internal/app"
	"github.com/neomorfeo/cinelist/internal/domain"
)

const timeLayout = time.RFC3339

// UserResponse is the API representation of an account.
type UserResponse struct {
	ID        string `json:"id" doc:"Unique identifier"`
	Username  string `json:"username" doc:"Login handle"`
	Email     string `json:"email" doc:"Lower-cased e-mail address"`
	CreatedAt string `json:"created_at" doc:"Creation timestamp (RFC 3339)"`
}

func toUserResponse(u domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt.UTC().Format(timeLayout),
	}
}

// SessionResponse is returned by register, login and refresh. The refresh
// token travels only in its cookie.
type SessionResponse struct {
	User                 UserResponse `json:"user"`
	AccessToken          string       `json:"access_token" doc:"Bearer token, also set as the access_token cookie"`
	AccessTokenExpiresAt string       `json:"access_token_expires_at"`
	RefreshExpiresAt     string       `json:"refresh_token_expires_at"`
}

func toSessionResponse(s app.Session) SessionResponse {
	return SessionResponse{
		User:                 toUserResponse(s.User),
		AccessToken:          s.Tokens.AccessToken,
		AccessTokenExpiresAt: s.Tokens.AccessExpiresAt.UTC().Format(timeLayout),
		RefreshExpiresAt:     s.Tokens.RefreshExpiresAt.UTC().Format(timeLayout),
	}
}

type WatchlistItemResponse struct {
	ID          string  `json:"id"`
	TmdbID      int     `json:"tmdb_id"`
	Title       string  `json:"title"`
	PosterPath  string  `json:"poster_path,omitempty"`
	ReleaseYear int     `json:"release_year,omitempty"`
	Status      string  `json:"status" enum:"planned,watching,watched,dropped"`
	Rating      *int    `json:"rating,omitempty" minimum:"1" maximum:"10"`
	Notes       string  `json:"notes,omitempty"`
	AddedAt     string  `json:"added_at"`
	UpdatedAt   string  `json:"updated_at"`
	WatchedAt   *string `json:"watched_at,omitempty"`
}

func toWatchlistItemResponse(item domain.WatchlistItem) WatchlistItemResponse {
	resp := WatchlistItemResponse{
		ID:          item.ID,
		TmdbID:      item.TmdbID,
		Title:       item.Title,
		PosterPath:  item.PosterPath,
		ReleaseYear: item.ReleaseYear,
		Status:      string(item.Status),
		Rating:      item.Rating,
		Notes:       item.Notes,
		AddedAt:     item.AddedAt.UTC().Format(timeLayout),
		UpdatedAt:   item.UpdatedAt.UTC().Format(timeLayout),
	}
	if item.WatchedAt != nil {
		at := item.WatchedAt.UTC().Format(timeLayout)
		resp.WatchedAt = &at
	}
	return resp
}

type WatchlistStatsResponse struct {
	Total    int `json:"total"`
	Planned  int `json:"planned"`
	Watching int `json:"watching"`
	Watched  int `json:"watched"`
	Dropped  int `json:"dropped"`
}

type MovieSummaryResponse struct {
	TmdbID      int     `json:"tmdb_id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview,omitempty"`
	ReleaseDate string  `json:"release_date,omitempty"`
	PosterPath  string  `json:"poster_path,omitempty"`
	VoteAverage float64 `json:"vote_average"`
	GenreIDs    []int   `json:"genre_ids"`
}

type MoviePageResponse struct {
	Page         int                    `json:"page"`
	TotalPages   int                    `json:"total_pages"`
	TotalResults int                    `json:"total_results"`
	Results      []MovieSummaryResponse `json:"results"`
}

func toMoviePageResponse(p domain.MoviePage) MoviePageResponse {
	results := make([]MovieSummaryResponse, 0, len(p.Results))
	for _, m := range p.Results {
		genres := m.GenreIDs
		if genres == nil {
			genres = []int{}
		}
		results = append(results, MovieSummaryResponse{
			TmdbID:      m.TmdbID,
			Title:       m.Title,
			Overview:    m.Overview,
			ReleaseDate: m.ReleaseDate,
			PosterPath:  m.PosterPath,
			VoteAverage: m.VoteAverage,
			GenreIDs:    genres,
		})
	}
	return MoviePageResponse{
		Page:         p.Page,
		TotalPages:   p.TotalPages,
		TotalResults: p.TotalResults,
		Results:      results,
	}
}

type MovieResponse struct {
	TmdbID       int                 `json:"tmdb_id"`
	Title        string              `json:"title"`
	Overview     string              `json:"overview,omitempty"`
	ReleaseDate  string              `json:"release_date,omitempty"`
	PosterPath   string              `json:"poster_path,omitempty"`
	BackdropPath string              `json:"backdrop_path,omitempty"`
	VoteAverage  float64             `json:"vote_average"`
	VoteCount    int                 `json:"vote_count"`
	Runtime      int                 `json:"runtime,omitempty" doc:"Minutes"`
	Genres       []domain.Genre      `json:"genres"`
	Cast         []domain.CastMember `json:"cast"`
	Videos       []domain.Video      `json:"videos"`
}

func toMovieResponse(m domain.Movie) MovieResponse {
	return MovieResponse{
		TmdbID:       m.TmdbID,
		Title:        m.Title,
		Overview:     m.Overview,
		ReleaseDate:  m.ReleaseDate,
		PosterPath:   m.PosterPath,
		BackdropPath: m.BackdropPath,
		VoteAverage:  m.VoteAverage,
		VoteCount:    m.VoteCount,
		Runtime:      m.Runtime,
		Genres:       nonNil(m.Genres),
		Cast:         nonNil(m.Cast),
		Videos:       nonNil(m.Videos),
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
