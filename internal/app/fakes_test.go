package app_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/neomorfeo/cinelist/internal/app"
	"github.com/neomorfeo/cinelist/internal/domain"
)

// --- Mocks ---

type mockUsers struct {
	byID map[string]domain.User
}

func newMockUsers() *mockUsers {
	return &mockUsers{byID: make(map[string]domain.User)}
}

func (m *mockUsers) Create(_ context.Context, u domain.User) error {
	for _, existing := range m.byID {
		if existing.Username == u.Username {
			return &domain.ConflictError{Resource: "user", Field: "username", Value: u.Username}
		}
		if existing.Email == u.Email {
			return &domain.ConflictError{Resource: "user", Field: "email", Value: u.Email}
		}
	}
	m.byID[u.ID] = u
	return nil
}

func (m *mockUsers) GetByID(_ context.Context, id string) (domain.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

func (m *mockUsers) GetByUsername(_ context.Context, username string) (domain.User, error) {
	for _, u := range m.byID {
		if u.Username == username {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

func (m *mockUsers) GetByEmail(_ context.Context, email string) (domain.User, error) {
	for _, u := range m.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

type mockRefreshTokens struct {
	byHash map[string]domain.RefreshToken
}

func newMockRefreshTokens() *mockRefreshTokens {
	return &mockRefreshTokens{byHash: make(map[string]domain.RefreshToken)}
}

func (m *mockRefreshTokens) Create(_ context.Context, t domain.RefreshToken) error {
	m.byHash[t.TokenHash] = t
	return nil
}

func (m *mockRefreshTokens) GetByHash(_ context.Context, hash string) (domain.RefreshToken, error) {
	t, ok := m.byHash[hash]
	if !ok {
		return domain.RefreshToken{}, domain.ErrNotFound
	}
	return t, nil
}

func (m *mockRefreshTokens) Revoke(_ context.Context, hash string, at time.Time) error {
	t, ok := m.byHash[hash]
	if !ok {
		return domain.ErrNotFound
	}
	t.RevokedAt = &at
	m.byHash[hash] = t
	return nil
}

type mockMovies struct {
	byID    map[int]domain.Movie
	upserts int
}

func newMockMovies() *mockMovies {
	return &mockMovies{byID: make(map[int]domain.Movie)}
}

func (m *mockMovies) GetByTmdbID(_ context.Context, id int) (domain.Movie, error) {
	movie, ok := m.byID[id]
	if !ok {
		return domain.Movie{}, domain.ErrNotFound
	}
	return movie, nil
}

func (m *mockMovies) Upsert(_ context.Context, movie domain.Movie) error {
	m.upserts++
	m.byID[movie.TmdbID] = movie
	return nil
}

type mockWatchlist struct {
	items []domain.WatchlistItem
}

func (m *mockWatchlist) Create(_ context.Context, item domain.WatchlistItem) error {
	for _, existing := range m.items {
		if existing.UserID == item.UserID && existing.TmdbID == item.TmdbID {
			return &domain.ConflictError{Resource: "watchlist item", Field: "tmdb_id", Value: fmt.Sprint(item.TmdbID)}
		}
	}
	m.items = append(m.items, item)
	return nil
}

func (m *mockWatchlist) GetByID(_ context.Context, id string) (domain.WatchlistItem, error) {
	for _, item := range m.items {
		if item.ID == id {
			return item, nil
		}
	}
	return domain.WatchlistItem{}, domain.ErrNotFound
}

func (m *mockWatchlist) Find(_ context.Context, spec domain.Specification[domain.WatchlistItem]) ([]domain.WatchlistItem, error) {
	return domain.Filter(m.items, spec), nil
}

func (m *mockWatchlist) Exists(_ context.Context, spec domain.Specification[domain.WatchlistItem]) (bool, error) {
	return len(domain.Filter(m.items, spec)) > 0, nil
}

func (m *mockWatchlist) Update(_ context.Context, item domain.WatchlistItem) error {
	for i := range m.items {
		if m.items[i].ID == item.ID {
			m.items[i] = item
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockWatchlist) Delete(_ context.Context, id string) error {
	for i := range m.items {
		if m.items[i].ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

type mockProvider struct {
	movies      map[int]domain.Movie
	getCalls    int
	searchCalls int
	lastQuery   string
	lastPage    int

	// uow, when set, lets GetByID record calls made inside a transaction.
	uow      *mockUnitOfWork
	getsInTx int
}

func newMockProvider() *mockProvider {
	return &mockProvider{movies: make(map[int]domain.Movie)}
}

func (m *mockProvider) Search(_ context.Context, query string, page int) (domain.MoviePage, error) {
	m.searchCalls++
	m.lastQuery, m.lastPage = query, page
	return domain.MoviePage{Page: page, Results: []domain.MovieSummary{{TmdbID: 1, Title: query}}}, nil
}

func (m *mockProvider) GetByID(_ context.Context, id int) (domain.Movie, error) {
	m.getCalls++
	if m.uow != nil && m.uow.open {
		m.getsInTx++
	}
	movie, ok := m.movies[id]
	if !ok {
		return domain.Movie{}, domain.ErrNotFound
	}
	return movie, nil
}

func (m *mockProvider) ListByGenre(_ context.Context, genreID, page int) (domain.MoviePage, error) {
	m.lastPage = page
	return domain.MoviePage{Page: page, TotalResults: genreID}, nil
}

func (m *mockProvider) ListPopular(_ context.Context, page int) (domain.MoviePage, error) {
	m.lastPage = page
	return domain.MoviePage{Page: page, TotalPages: 10}, nil
}

type mockIssuer struct {
	issued int
}

func (m *mockIssuer) Issue(user domain.User, now time.Time) (domain.AuthTokens, error) {
	m.issued++
	refresh := fmt.Sprintf("refresh-%d", m.issued)
	return domain.AuthTokens{
		AccessToken:      fmt.Sprintf("access-%s-%d", user.ID, m.issued),
		AccessExpiresAt:  now.Add(15 * time.Minute),
		RefreshToken:     refresh,
		RefreshExpiresAt: now.Add(7 * 24 * time.Hour),
		RefreshTokenHash: m.HashRefreshToken(refresh),
	}, nil
}

func (m *mockIssuer) HashRefreshToken(raw string) string { return "hash:" + raw }

type mockHasher struct{}

func (mockHasher) Hash(p domain.Password) (string, error) { return "hashed:" + p.Value(), nil }

func (mockHasher) Verify(hash, password string) bool { return hash == "hashed:"+password }

// mockValidator applies domain.StatusTransitions directly.
type mockValidator struct{}

func (mockValidator) Apply(_ context.Context, current domain.WatchStatus, event domain.StatusEvent) (domain.WatchStatus, error) {
	for _, t := range domain.StatusTransitions {
		if t.Event == event && t.Src == current {
			return t.Dst, nil
		}
	}
	return "", &domain.TransitionError{Event: event, Current: current}
}

type principalKey struct{}

// ctxPrincipal reads the user id stored by asUser.
type ctxPrincipal struct{}

func (ctxPrincipal) CurrentUserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(principalKey{}).(string)
	return id, ok && id != ""
}

func asUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, principalKey{}, userID)
}

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

func (c *fixedClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// mockUnitOfWork records how each unit of work ended.
type mockUnitOfWork struct {
	commits   int
	rollbacks int
	open      bool
}

func (m *mockUnitOfWork) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	m.open = true
	defer func() { m.open = false }()
	if err := fn(ctx); err != nil {
		m.rollbacks++
		return err
	}
	m.commits++
	return nil
}

// --- Harness ---

type harness struct {
	users     *mockUsers
	refresh   *mockRefreshTokens
	movies    *mockMovies
	watchlist *mockWatchlist
	provider  *mockProvider
	issuer    *mockIssuer
	clock     *fixedClock
	uow       *mockUnitOfWork
	events    []domain.Event
	d         *app.Dispatcher
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		users:     newMockUsers(),
		refresh:   newMockRefreshTokens(),
		movies:    newMockMovies(),
		watchlist: &mockWatchlist{},
		provider:  newMockProvider(),
		issuer:    &mockIssuer{},
		clock:     &fixedClock{now: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)},
		uow:       &mockUnitOfWork{},
	}
	h.provider.uow = h.uow

	events := app.NewEventDispatcher()
	for _, name := range domain.EventNames() {
		events.On(name, func(_ context.Context, e domain.Event) error {
			h.events = append(h.events, e)
			return nil
		})
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h.d = app.NewDispatcher(
		app.LoggingBehavior(logger),
		app.UnitOfWorkBehavior(h.uow, events),
	)

	err := app.Register(h.d, app.Deps{
		Users:         h.users,
		RefreshTokens: h.refresh,
		Movies:        h.movies,
		Watchlist:     h.watchlist,
		Provider:      h.provider,
		Tokens:        h.issuer,
		Hasher:        mockHasher{},
		Transitions:   mockValidator{},
		Principal:     ctxPrincipal{},
		Clock:         h.clock,
		UnitOfWork:    h.uow,
	})
	if err != nil {
		t.Fatalf("registering handlers: %v", err)
	}
	return h
}

// send dispatches req and fails the test on an infrastructure error.
func send[Res any](t *testing.T, ctx context.Context, h *harness, req app.Request) Res {
	t.Helper()
	res, err := app.Send[Res](ctx, h.d, req)
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", req.RequestName(), err)
	}
	return res
}

func (h *harness) register(t *testing.T, username string) app.Session {
	t.Helper()
	r := send[domain.Result[app.Session]](t, context.Background(), h, app.RegisterUser{
		Username: username,
		Email:    username + "@example.com",
		Password: "Sup3r$ecret",
	})
	if r.IsFailure() {
		t.Fatalf("register %s: %s", username, r.Message())
	}
	return r.Value()
}

func eventNames(events []domain.Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.EventName()
	}
	return out
}
