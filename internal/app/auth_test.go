package app_test

import (
	"context"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/neomorfeo/cinelist/internal/app"
	"github.com/neomorfeo/cinelist/internal/domain"
)

func TestRegister_Success(t *testing.T) {
	h := newHarness(t)

	r := send[domain.Result[app.Session]](t, context.Background(), h, app.RegisterUser{
		Username: "alice",
		Email:    "Alice@Example.com",
		Password: "Sup3r$ecret",
	})
	if !r.IsSuccess() {
		t.Fatalf("expected success, got %q", r.Message())
	}

	s := r.Value()
	if s.User.Email != "alice@example.com" {
		t.Errorf("expected lowercased email, got %q", s.User.Email)
	}
	if s.User.PasswordHash != "hashed:Sup3r$ecret" {
		t.Errorf("expected hashed password, got %q", s.User.PasswordHash)
	}
	if s.Tokens.AccessToken == "" || s.Tokens.RefreshToken == "" {
		t.Error("expected a token pair")
	}
	if _, ok := h.refresh.byHash[s.Tokens.RefreshTokenHash]; !ok {
		t.Error("expected the refresh token hash to be stored")
	}
	if got := eventNames(h.events); !slices.Equal(got, []string{"user.registered"}) {
		t.Errorf("expected user.registered, got %v", got)
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	h := newHarness(t)
	h.register(t, "alice")
	h.events = nil

	r := send[domain.Result[app.Session]](t, context.Background(), h, app.RegisterUser{
		Username: "alice",
		Email:    "other@example.com",
		Password: "Sup3r$ecret",
	})
	if !r.IsFailure() {
		t.Fatal("expected failure")
	}
	if r.Message() != app.MsgUsernameTaken {
		t.Errorf("expected %q, got %q", app.MsgUsernameTaken, r.Message())
	}
	if r.Kind() != domain.FailureConflict {
		t.Errorf("expected conflict, got %s", r.Kind())
	}
	if len(h.users.byID) != 1 {
		t.Errorf("expected 1 stored user, got %d", len(h.users.byID))
	}
	if len(h.events) != 0 {
		t.Errorf("expected no events, got %v", eventNames(h.events))
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	h := newHarness(t)
	h.register(t, "alice")

	r := send[domain.Result[app.Session]](t, context.Background(), h, app.RegisterUser{
		Username: "bob",
		Email:    "ALICE@example.com",
		Password: "Sup3r$ecret",
	})
	if r.IsSuccess() || r.Message() != app.MsgEmailTaken {
		t.Errorf("expected %q, got %+v", app.MsgEmailTaken, r)
	}
}

func TestRegister_ValidationAggregated(t *testing.T) {
	h := newHarness(t)

	r := send[domain.Result[app.Session]](t, context.Background(), h, app.RegisterUser{
		Username: "a",
		Email:    "not-an-email",
		Password: "short",
	})
	if !r.IsFailure() {
		t.Fatal("expected failure")
	}
	parts := strings.Split(r.Message(), "; ")
	if len(parts) != 3 {
		t.Errorf("expected 3 messages, got %q", r.Message())
	}
	if r.Kind() != domain.FailureInvalid {
		t.Errorf("expected invalid, got %s", r.Kind())
	}
	if h.uow.rollbacks != 1 {
		t.Errorf("expected the unit of work to roll back, got %d", h.uow.rollbacks)
	}
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name     string
		login    string
		password string
		wantOK   bool
	}{
		{"by username", "alice", "Sup3r$ecret", true},
		{"by email", "ALICE@example.com", "Sup3r$ecret", true},
		{"wrong password", "alice", "Wr0ng$pass", false},
		{"unknown user", "mallory", "Sup3r$ecret", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.register(t, "alice")
			h.events = nil

			r := send[domain.Result[app.Session]](t, context.Background(), h, app.LoginUser{
				Login:    tt.login,
				Password: tt.password,
			})

			if r.IsSuccess() != tt.wantOK {
				t.Fatalf("expected success=%v, got %+v", tt.wantOK, r)
			}
			if tt.wantOK {
				if got := eventNames(h.events); !slices.Equal(got, []string{"user.logged_in"}) {
					t.Errorf("expected user.logged_in, got %v", got)
				}
				return
			}
			if r.Message() != app.MsgInvalidCredentials {
				t.Errorf("expected %q, got %q", app.MsgInvalidCredentials, r.Message())
			}
			if r.Kind() != domain.FailureUnauthenticated {
				t.Errorf("expected unauthenticated, got %s", r.Kind())
			}
		})
	}
}

func TestRefresh_RotatesToken(t *testing.T) {
	h := newHarness(t)
	first := h.register(t, "alice")

	r := send[domain.Result[app.Session]](t, context.Background(), h, app.RefreshSession{Token: first.Tokens.RefreshToken})
	if !r.IsSuccess() {
		t.Fatalf("expected success, got %q", r.Message())
	}
	if r.Value().Tokens.RefreshToken == first.Tokens.RefreshToken {
		t.Error("expected a new refresh token")
	}

	old := h.refresh.byHash[first.Tokens.RefreshTokenHash]
	if old.RevokedAt == nil {
		t.Error("expected the old token to be revoked")
	}

	reuse := send[domain.Result[app.Session]](t, context.Background(), h, app.RefreshSession{Token: first.Tokens.RefreshToken})
	if reuse.IsSuccess() {
		t.Error("expected a revoked token to be rejected")
	}
}

func TestRefresh_Rejected(t *testing.T) {
	tests := []struct {
		name    string
		token   func(s app.Session) string
		advance time.Duration
	}{
		{"empty", func(app.Session) string { return "" }, 0},
		{"unknown", func(app.Session) string { return "nope" }, 0},
		{"expired", func(s app.Session) string { return s.Tokens.RefreshToken }, 8 * 24 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			s := h.register(t, "alice")
			h.clock.Advance(tt.advance)

			r := send[domain.Result[app.Session]](t, context.Background(), h, app.RefreshSession{Token: tt.token(s)})
			if r.IsSuccess() {
				t.Fatal("expected failure")
			}
			if r.Message() != app.MsgInvalidRefreshToken || r.Kind() != domain.FailureUnauthenticated {
				t.Errorf("expected unauthenticated %q, got %s %q", app.MsgInvalidRefreshToken, r.Kind(), r.Message())
			}
		})
	}
}

func TestLogout(t *testing.T) {
	h := newHarness(t)
	s := h.register(t, "alice")

	r := send[domain.Result[struct{}]](t, context.Background(), h, app.LogoutUser{Token: s.Tokens.RefreshToken})
	if !r.IsSuccess() {
		t.Fatalf("expected success, got %q", r.Message())
	}
	if h.refresh.byHash[s.Tokens.RefreshTokenHash].RevokedAt == nil {
		t.Error("expected the token to be revoked")
	}

	again := send[domain.Result[struct{}]](t, context.Background(), h, app.LogoutUser{Token: "unknown"})
	if !again.IsSuccess() {
		t.Error("expected unknown tokens to be ignored")
	}
}

func TestCurrentUser(t *testing.T) {
	h := newHarness(t)
	s := h.register(t, "alice")

	r := send[domain.Result[domain.User]](t, asUser(context.Background(), s.User.ID), h, app.GetCurrentUser{})
	if !r.IsSuccess() || r.Value().Username != "alice" {
		t.Errorf("expected alice, got %+v", r)
	}

	anon := send[domain.Result[domain.User]](t, context.Background(), h, app.GetCurrentUser{})
	if anon.IsSuccess() || anon.Kind() != domain.FailureUnauthenticated {
		t.Errorf("expected unauthenticated, got %+v", anon)
	}
	if anon.Message() != app.MsgNotAuthenticated {
		t.Errorf("expected %q, got %q", app.MsgNotAuthenticated, anon.Message())
	}
}
