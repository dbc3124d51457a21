package tmdb_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neomorfeo/cinelist/internal/adapter/tmdb"
	"github.com/neomorfeo/cinelist/internal/domain"
)

const testAPIKey = "test-key"

func newTestClient(t *testing.T, handler http.HandlerFunc) *tmdb.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	doer := tmdb.NewRetryClient(srv.Client(), 2, tmdb.WithBackoff(time.Millisecond, 5*time.Millisecond))
	return tmdb.NewClient(doer, srv.URL+"/", testAPIKey)
}

func TestClient_Search(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/movie", r.URL.Path)
		assert.Equal(t, "fight club", r.URL.Query().Get("query"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, testAPIKey, r.URL.Query().Get("api_key"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"page": 2,
			"total_pages": 3,
			"total_results": 41,
			"results": [
				{"id": 550, "title": "Fight Club", "overview": "An insomniac...", "release_date": "1999-10-15",
				 "poster_path": "/pB8BM7pdSp6B6Ih7QZ4DrQ3PmJK.jpg", "vote_average": 8.4, "genre_ids": [18]},
				{"id": 1, "title": "No Poster", "poster_path": null, "genre_ids": []}
			]
		}`))
	})

	page, err := client.Search(context.Background(), "fight club", 2)
	require.NoError(t, err)

	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 41, page.TotalResults)
	require.Len(t, page.Results, 2)
	assert.Equal(t, domain.MovieSummary{
		TmdbID:      550,
		Title:       "Fight Club",
		Overview:    "An insomniac...",
		ReleaseDate: "1999-10-15",
		PosterPath:  "/pB8BM7pdSp6B6Ih7QZ4DrQ3PmJK.jpg",
		VoteAverage: 8.4,
		GenreIDs:    []int{18},
	}, page.Results[0])
	assert.Empty(t, page.Results[1].PosterPath)
}

func TestClient_GetByID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/movie/27205", r.URL.Path)
		assert.Equal(t, "credits,videos", r.URL.Query().Get("append_to_response"))

		_, _ = w.Write([]byte(`{
			"id": 27205,
			"title": "Inception",
			"release_date": "2010-07-15",
			"poster_path": "/inception.jpg",
			"backdrop_path": null,
			"vote_average": 8.4,
			"vote_count": 35000,
			"runtime": 148,
			"genres": [{"id": 28, "name": "Action"}, {"id": 878, "name": "Science Fiction"}],
			"credits": {"cast": [
				{"id": 2, "name": "Joseph Gordon-Levitt", "character": "Arthur", "order": 1},
				{"id": 1, "name": "Leonardo DiCaprio", "character": "Cobb", "profile_path": "/leo.jpg", "order": 0}
			]},
			"videos": {"results": [{"key": "YoHD9XEInc0", "name": "Trailer", "site": "YouTube", "type": "Trailer"}]}
		}`))
	})

	movie, err := client.GetByID(context.Background(), 27205)
	require.NoError(t, err)

	assert.Equal(t, "Inception", movie.Title)
	assert.Equal(t, 2010, movie.ReleaseYear())
	assert.Equal(t, 148, movie.Runtime)
	assert.Empty(t, movie.BackdropPath)
	assert.Len(t, movie.Genres, 2)
	require.Len(t, movie.Cast, 2)
	assert.Equal(t, "Leonardo DiCaprio", movie.Cast[0].Name, "cast is ordered by billing")
	assert.Equal(t, "/leo.jpg", movie.Cast[0].ProfilePath)
	require.Len(t, movie.Videos, 1)
	assert.Equal(t, "YouTube", movie.Videos[0].Site)
	assert.True(t, movie.HasSupplemental())
}

func TestClient_GetByID_NoCreditsIsStillComplete(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id": 7, "title": "Obscure", "runtime": null}`))
	})

	movie, err := client.GetByID(context.Background(), 7)
	require.NoError(t, err)

	assert.NotNil(t, movie.Cast)
	assert.NotNil(t, movie.Videos)
	assert.NotNil(t, movie.Genres)
	assert.True(t, movie.HasSupplemental())
	assert.Zero(t, movie.Runtime)
}

func TestClient_CastIsCapped(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		cast := `{"id": 1, "name": "Extra", "order": 0}`
		body := `{"id": 1, "title": "Crowd", "credits": {"cast": [` + cast
		for range 30 {
			body += "," + cast
		}
		_, _ = w.Write([]byte(body + `]}}`))
	})

	movie, err := client.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, movie.Cast, 20)
}

func TestClient_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"status_code": 34, "status_message": "The resource you requested could not be found."}`))
	})

	_, err := client.GetByID(context.Background(), 999999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestClient_ListByGenreAndPopular(t *testing.T) {
	var paths []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if r.URL.Path == "/discover/movie" {
			assert.Equal(t, "18", r.URL.Query().Get("with_genres"))
		}
		_, _ = w.Write([]byte(`{"page": 1, "total_pages": 1, "total_results": 0, "results": []}`))
	})
	ctx := context.Background()

	genre, err := client.ListByGenre(ctx, 18, 1)
	require.NoError(t, err)
	assert.NotNil(t, genre.Results)

	_, err = client.ListPopular(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, []string{"/discover/movie", "/movie/popular"}, paths)
}

func TestClient_APIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"status_code": 7, "status_message": "Invalid API key: You must be granted a valid key."}`))
	})

	_, err := client.ListPopular(context.Background(), 1)

	var apiErr *tmdb.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "Invalid API key")
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}

func TestClient_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"page": 1, "results": []}`))
	})

	_, err := client.ListPopular(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.ListPopular(context.Background(), 1)

	var apiErr *tmdb.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, int32(3), calls.Load(), "one attempt plus two retries")
}

func TestClient_DoesNotLeakAPIKey(t *testing.T) {
	client := tmdb.NewClient(
		tmdb.NewRetryClient(failingDoer{}, 1, tmdb.WithBackoff(time.Millisecond, time.Millisecond)),
		"http://tmdb.invalid", "super-secret-key",
	)

	_, err := client.ListPopular(context.Background(), 1)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "super-secret-key")
}

type failingDoer struct{}

func (failingDoer) Do(req *http.Request) (*http.Response, error) {
	return nil, &url.Error{Op: "Get", URL: req.URL.String(), Err: errors.New("dial failed")}
}

func TestRetryClient_StopsOnCancel(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	rc := tmdb.NewRetryClient(srv.Client(), 5, tmdb.WithBackoff(time.Second, time.Second))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	_, err = rc.Do(req)
	require.Error(t, err)
	assert.ErrorContains(t, err, "429")
	assert.Equal(t, int32(1), calls.Load(), "the backoff wait is cut short by the context")
}
