package tmdb

import (
	"sort"

	"github.com/neomorfeo/cinelist/internal/domain"
)

type pageResponse struct {
	Page         int              `json:"page"`
	TotalPages   int              `json:"total_pages"`
	TotalResults int              `json:"total_results"`
	Results      []summaryPayload `json:"results"`
}

type summaryPayload struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	ReleaseDate string  `json:"release_date"`
	PosterPath  *string `json:"poster_path"`
	VoteAverage float64 `json:"vote_average"`
	GenreIDs    []int   `json:"genre_ids"`
}

func (p pageResponse) toDomain() domain.MoviePage {
	results := make([]domain.MovieSummary, 0, len(p.Results))
	for _, r := range p.Results {
		results = append(results, domain.MovieSummary{
			TmdbID:      r.ID,
			Title:       r.Title,
			Overview:    r.Overview,
			ReleaseDate: r.ReleaseDate,
			PosterPath:  deref(r.PosterPath),
			VoteAverage: r.VoteAverage,
			GenreIDs:    r.GenreIDs,
		})
	}
	return domain.MoviePage{
		Page:         p.Page,
		TotalPages:   p.TotalPages,
		TotalResults: p.TotalResults,
		Results:      results,
	}
}

type movieResponse struct {
	ID           int            `json:"id"`
	Title        string         `json:"title"`
	Overview     string         `json:"overview"`
	ReleaseDate  string         `json:"release_date"`
	PosterPath   *string        `json:"poster_path"`
	BackdropPath *string        `json:"backdrop_path"`
	VoteAverage  float64        `json:"vote_average"`
	VoteCount    int            `json:"vote_count"`
	Runtime      *int           `json:"runtime"`
	Genres       []domain.Genre `json:"genres"`
	Credits      struct {
		Cast []castPayload `json:"cast"`
	} `json:"credits"`
	Videos struct {
		Results []domain.Video `json:"results"`
	} `json:"videos"`
}

type castPayload struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Character   string  `json:"character"`
	ProfilePath *string `json:"profile_path"`
	Order       int     `json:"order"`
}

// toDomain always returns non-nil Cast and Videos: the provider answered,
// so an empty list means the movie has none.
func (m movieResponse) toDomain() domain.Movie {
	cast := m.Credits.Cast
	sort.SliceStable(cast, func(i, j int) bool { return cast[i].Order < cast[j].Order })
	if len(cast) > maxCast {
		cast = cast[:maxCast]
	}
	members := make([]domain.CastMember, 0, len(cast))
	for _, c := range cast {
		members = append(members, domain.CastMember{
			ID:          c.ID,
			Name:        c.Name,
			Character:   c.Character,
			ProfilePath: deref(c.ProfilePath),
			Order:       c.Order,
		})
	}

	videos := make([]domain.Video, 0, len(m.Videos.Results))
	videos = append(videos, m.Videos.Results...)

	genres := m.Genres
	if genres == nil {
		genres = []domain.Genre{}
	}

	runtime := 0
	if m.Runtime != nil {
		runtime = *m.Runtime
	}

	return domain.Movie{
		TmdbID:       m.ID,
		Title:        m.Title,
		Overview:     m.Overview,
		ReleaseDate:  m.ReleaseDate,
		PosterPath:   deref(m.PosterPath),
		BackdropPath: deref(m.BackdropPath),
		VoteAverage:  m.VoteAverage,
		VoteCount:    m.VoteCount,
		Runtime:      runtime,
		Genres:       genres,
		Cast:         members,
		Videos:       videos,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
