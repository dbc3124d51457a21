package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/neomorfeo/cinelist/internal/domain"
)

// Compile-time check: MovieRepository implements domain.MovieRepository.
var _ domain.MovieRepository = (*MovieRepository)(nil)

// MovieRepository is the local movie cache. Genres, cast and videos are
// stored as JSON; a NULL cast or videos column reads back as nil.
type MovieRepository struct {
	store *Store
}

func (r *MovieRepository) GetByTmdbID(ctx context.Context, tmdbID int) (domain.Movie, error) {
	var m domain.Movie
	var genres string
	var cast, videos sql.NullString
	var cachedAt string

	err := r.store.conn(ctx).QueryRowContext(ctx,
		`SELECT tmdb_id, title, overview, release_date, poster_path, backdrop_path,
		        vote_average, vote_count, runtime, genres, cast_members, videos, cached_at
		 FROM movies WHERE tmdb_id = ?`, tmdbID,
	).Scan(
		&m.TmdbID, &m.Title, &m.Overview, &m.ReleaseDate, &m.PosterPath, &m.BackdropPath,
		&m.VoteAverage, &m.VoteCount, &m.Runtime, &genres, &cast, &videos, &cachedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Movie{}, domain.ErrNotFound
		}
		return domain.Movie{}, fmt.Errorf("scanning movie: %w", err)
	}

	if err := json.Unmarshal([]byte(genres), &m.Genres); err != nil {
		return domain.Movie{}, fmt.Errorf("decoding genres of movie %d: %w", tmdbID, err)
	}
	if cast.Valid {
		m.Cast = []domain.CastMember{}
		if err := json.Unmarshal([]byte(cast.String), &m.Cast); err != nil {
			return domain.Movie{}, fmt.Errorf("decoding cast of movie %d: %w", tmdbID, err)
		}
	}
	if videos.Valid {
		m.Videos = []domain.Video{}
		if err := json.Unmarshal([]byte(videos.String), &m.Videos); err != nil {
			return domain.Movie{}, fmt.Errorf("decoding videos of movie %d: %w", tmdbID, err)
		}
	}
	m.CachedAt = parseTime(cachedAt)
	return m, nil
}

// Upsert inserts the movie or replaces every column of the cached row.
func (r *MovieRepository) Upsert(ctx context.Context, m domain.Movie) error {
	genres := m.Genres
	if genres == nil {
		genres = []domain.Genre{}
	}
	genresJSON, err := json.Marshal(genres)
	if err != nil {
		return fmt.Errorf("encoding genres: %w", err)
	}
	cast, err := nullJSON(m.Cast)
	if err != nil {
		return fmt.Errorf("encoding cast: %w", err)
	}
	videos, err := nullJSON(m.Videos)
	if err != nil {
		return fmt.Errorf("encoding videos: %w", err)
	}

	_, err = r.store.conn(ctx).ExecContext(ctx,
		`INSERT INTO movies (tmdb_id, title, overview, release_date, poster_path, backdrop_path,
		                     vote_average, vote_count, runtime, genres, cast_members, videos, cached_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (tmdb_id) DO UPDATE SET
		     title = excluded.title,
		     overview = excluded.overview,
		     release_date = excluded.release_date,
		     poster_path = excluded.poster_path,
		     backdrop_path = excluded.backdrop_path,
		     vote_average = excluded.vote_average,
		     vote_count = excluded.vote_count,
		     runtime = excluded.runtime,
		     genres = excluded.genres,
		     cast_members = excluded.cast_members,
		     videos = excluded.videos,
		     cached_at = excluded.cached_at`,
		m.TmdbID, m.Title, m.Overview, m.ReleaseDate, m.PosterPath, m.BackdropPath,
		m.VoteAverage, m.VoteCount, m.Runtime, string(genresJSON), cast, videos,
		formatTime(m.CachedAt),
	)
	if err != nil {
		return fmt.Errorf("upserting movie %d: %w", m.TmdbID, err)
	}
	return nil
}

// nullJSON encodes v, keeping a nil slice as SQL NULL.
func nullJSON[T any](v []T) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}
