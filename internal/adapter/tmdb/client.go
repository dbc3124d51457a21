// Package tmdb implements domain.MovieProvider against The Movie Database
// v3 REST API.
package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/neomorfeo/cinelist/internal/domain"
)

// maxCast bounds the cast list kept per movie.
const maxCast = 20

// APIError is a non-2xx answer other than 404.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("tmdb: status %d", e.StatusCode)
	}
	return fmt.Sprintf("tmdb: status %d: %s", e.StatusCode, e.Message)
}

// Client talks to TMDb. A 404 maps to domain.ErrNotFound.
type Client struct {
	http    HTTPDoer
	baseURL string
	apiKey  string
}

// Compile-time check: Client implements domain.MovieProvider.
var _ domain.MovieProvider = (*Client)(nil)

// NewClient creates a client. Pass a *RetryClient as doer for retries.
func NewClient(doer HTTPDoer, baseURL, apiKey string) *Client {
	return &Client{
		http:    doer,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

func (c *Client) Search(ctx context.Context, query string, page int) (domain.MoviePage, error) {
	var res pageResponse
	err := c.get(ctx, "/search/movie", url.Values{
		"query":         {query},
		"page":          {strconv.Itoa(page)},
		"include_adult": {"false"},
	}, &res)
	if err != nil {
		return domain.MoviePage{}, err
	}
	return res.toDomain(), nil
}

// GetByID fetches a movie with its credits and videos in one call.
func (c *Client) GetByID(ctx context.Context, tmdbID int) (domain.Movie, error) {
	var res movieResponse
	err := c.get(ctx, "/movie/"+strconv.Itoa(tmdbID), url.Values{
		"append_to_response": {"credits,videos"},
	}, &res)
	if err != nil {
		return domain.Movie{}, err
	}
	return res.toDomain(), nil
}

func (c *Client) ListByGenre(ctx context.Context, genreID, page int) (domain.MoviePage, error) {
	var res pageResponse
	err := c.get(ctx, "/discover/movie", url.Values{
		"with_genres": {strconv.Itoa(genreID)},
		"sort_by":     {"popularity.desc"},
		"page":        {strconv.Itoa(page)},
	}, &res)
	if err != nil {
		return domain.MoviePage{}, err
	}
	return res.toDomain(), nil
}

func (c *Client) ListPopular(ctx context.Context, page int) (domain.MoviePage, error) {
	var res pageResponse
	if err := c.get(ctx, "/movie/popular", url.Values{"page": {strconv.Itoa(page)}}, &res); err != nil {
		return domain.MoviePage{}, err
	}
	return res.toDomain(), nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	params.Set("api_key", c.apiKey)
	endpoint := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("building request for %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		// The URL carries the API key; report the path only.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return fmt.Errorf("requesting %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%s: %w", path, domain.ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var body struct {
			StatusMessage string `json:"status_message"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body)
		return &APIError{StatusCode: resp.StatusCode, Message: body.StatusMessage}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}
