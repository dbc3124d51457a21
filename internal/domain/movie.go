package domain

import (
	"strconv"
	"time"
)

// Movie is the locally cached copy of a provider's movie record.
// Cast and Videos are supplemental: nil means they were never fetched,
// an empty slice means the provider has none.
type Movie struct {
	TmdbID       int
	Title        string
	Overview     string
	ReleaseDate  string
	PosterPath   string
	BackdropPath string
	VoteAverage  float64
	VoteCount    int
	Runtime      int
	Genres       []Genre
	Cast         []CastMember
	Videos       []Video
	CachedAt     time.Time
}

// Genre is a provider genre.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// CastMember is one credited actor.
type CastMember struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Character   string `json:"character"`
	ProfilePath string `json:"profile_path,omitempty"`
	Order       int    `json:"order"`
}

// Video is a trailer or clip hosted on an external site.
type Video struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Site string `json:"site"`
	Type string `json:"type"`
}

// HasSupplemental reports whether the cast and video payloads are populated.
func (m Movie) HasSupplemental() bool {
	return m.Cast != nil && m.Videos != nil
}

// ReleaseYear extracts the year from ReleaseDate (YYYY-MM-DD), or 0.
func (m Movie) ReleaseYear() int {
	if len(m.ReleaseDate) < 4 {
		return 0
	}
	year, err := strconv.Atoi(m.ReleaseDate[:4])
	if err != nil {
		return 0
	}
	return year
}

// MovieSummary is one entry of a provider listing.
type MovieSummary struct {
	TmdbID      int     `json:"tmdb_id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	ReleaseDate string  `json:"release_date"`
	PosterPath  string  `json:"poster_path"`
	VoteAverage float64 `json:"vote_average"`
	GenreIDs    []int   `json:"genre_ids"`
}

// MoviePage is a page of provider results.
type MoviePage struct {
	Page         int            `json:"page"`
	TotalPages   int            `json:"total_pages"`
	TotalResults int            `json:"total_results"`
	Results      []MovieSummary `json:"results"`
}
