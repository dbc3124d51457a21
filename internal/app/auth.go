package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/neomorfeo/cinelist/internal/domain"
)

// Failure messages surfaced by the auth handlers.
const (
	MsgUsernameTaken       = "Username already exists"
	MsgEmailTaken          = "Email already exists"
	MsgInvalidCredentials  = "Invalid username or password"
	MsgInvalidRefreshToken = "Invalid refresh token"
	MsgNotAuthenticated    = "User not authenticated"
)

// RegisterUser creates an account and signs the new user in.
type RegisterUser struct {
	command
	Username string
	Email    string
	Password string
}

func (RegisterUser) RequestName() string { return "auth.register" }

func (r RegisterUser) LogValue() slog.Value {
	return slog.GroupValue(slog.String("username", r.Username), slog.String("email", r.Email))
}

// LoginUser signs a user in by username or e-mail.
type LoginUser struct {
	command
	Login    string
	Password string
}

func (LoginUser) RequestName() string { return "auth.login" }

func (r LoginUser) LogValue() slog.Value {
	return slog.GroupValue(slog.String("login", r.Login))
}

// RefreshSession exchanges a refresh token for a new token pair. The old
// token is revoked.
type RefreshSession struct {
	command
	Token string
}

func (RefreshSession) RequestName() string { return "auth.refresh" }

func (RefreshSession) LogValue() slog.Value { return slog.StringValue("[redacted]") }

// LogoutUser revokes a refresh token.
type LogoutUser struct {
	command
	Token string
}

func (LogoutUser) RequestName() string { return "auth.logout" }

func (LogoutUser) LogValue() slog.Value { return slog.StringValue("[redacted]") }

// GetCurrentUser returns the authenticated user's profile.
type GetCurrentUser struct{}

func (GetCurrentUser) RequestName() string { return "auth.me" }

// Session is a signed-in user with their tokens.
type Session struct {
	User   domain.User
	Tokens domain.AuthTokens
}

// AuthHandlers implements the account use cases.
type AuthHandlers struct {
	users     domain.UserRepository
	refresh   domain.RefreshTokenRepository
	tokens    domain.TokenIssuer
	hasher    domain.PasswordHasher
	principal domain.PrincipalAccessor
	clock     domain.Clock
}

// NewAuthHandlers creates the auth handlers with the given adapters.
func NewAuthHandlers(
	users domain.UserRepository,
	refresh domain.RefreshTokenRepository,
	tokens domain.TokenIssuer,
	hasher domain.PasswordHasher,
	principal domain.PrincipalAccessor,
	clock domain.Clock,
) *AuthHandlers {
	return &AuthHandlers{
		users:     users,
		refresh:   refresh,
		tokens:    tokens,
		hasher:    hasher,
		principal: principal,
		clock:     clock,
	}
}

// Register validates the input, rejects duplicates, stores the user and
// starts a session.
func (h *AuthHandlers) Register(ctx context.Context, req RegisterUser) (domain.Result[Session], error) {
	if errs := domain.ValidateRegistrationInput(req.Username, req.Email, req.Password); len(errs) > 0 {
		return domain.Failure[Session](strings.Join(errs, "; ")), nil
	}
	username := domain.NewUsername(req.Username).Value()
	email := domain.NewEmail(req.Email).Value()
	password := domain.NewPassword(req.Password).Value()

	// Uniqueness is checked before hashing because bcrypt is slow.
	if _, err := h.users.GetByUsername(ctx, username.Value()); err == nil {
		return domain.Conflict[Session](MsgUsernameTaken), nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.Result[Session]{}, fmt.Errorf("looking up username: %w", err)
	}
	if _, err := h.users.GetByEmail(ctx, email.Value()); err == nil {
		return domain.Conflict[Session](MsgEmailTaken), nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.Result[Session]{}, fmt.Errorf("looking up email: %w", err)
	}

	hash, err := h.hasher.Hash(password)
	if err != nil {
		return domain.Result[Session]{}, fmt.Errorf("hashing password: %w", err)
	}

	now := h.clock.Now()
	user := domain.NewUser(newID(), username, email, hash, now)
	if err := h.users.Create(ctx, user); err != nil {
		var conflict *domain.ConflictError
		if errors.As(err, &conflict) {
			if conflict.Field == "email" {
				return domain.Conflict[Session](MsgEmailTaken), nil
			}
			return domain.Conflict[Session](MsgUsernameTaken), nil
		}
		return domain.Result[Session]{}, fmt.Errorf("creating user: %w", err)
	}

	Raise(ctx, domain.UserRegistered{
		EventHeader: domain.NewEventHeader(now),
		UserID:      user.ID,
		Username:    user.Username,
		Email:       user.Email,
	})

	return h.startSession(ctx, user)
}

// Login verifies the credential and starts a session.
func (h *AuthHandlers) Login(ctx context.Context, req LoginUser) (domain.Result[Session], error) {
	login := strings.TrimSpace(req.Login)
	if login == "" || req.Password == "" {
		return domain.Unauthenticated[Session](MsgInvalidCredentials), nil
	}

	var user domain.User
	var err error
	if strings.Contains(login, "@") {
		user, err = h.users.GetByEmail(ctx, strings.ToLower(login))
	} else {
		user, err = h.users.GetByUsername(ctx, login)
	}
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Unauthenticated[Session](MsgInvalidCredentials), nil
	}
	if err != nil {
		return domain.Result[Session]{}, fmt.Errorf("looking up user: %w", err)
	}

	if !h.hasher.Verify(user.PasswordHash, req.Password) {
		return domain.Unauthenticated[Session](MsgInvalidCredentials), nil
	}

	Raise(ctx, domain.UserLoggedIn{
		EventHeader: domain.NewEventHeader(h.clock.Now()),
		UserID:      user.ID,
	})

	return h.startSession(ctx, user)
}

// Refresh rotates a refresh token.
func (h *AuthHandlers) Refresh(ctx context.Context, req RefreshSession) (domain.Result[Session], error) {
	if req.Token == "" {
		return domain.Unauthenticated[Session](MsgInvalidRefreshToken), nil
	}

	now := h.clock.Now()
	hash := h.tokens.HashRefreshToken(req.Token)
	stored, err := h.refresh.GetByHash(ctx, hash)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Unauthenticated[Session](MsgInvalidRefreshToken), nil
	}
	if err != nil {
		return domain.Result[Session]{}, fmt.Errorf("looking up refresh token: %w", err)
	}
	if !stored.Active(now) {
		return domain.Unauthenticated[Session](MsgInvalidRefreshToken), nil
	}

	user, err := h.users.GetByID(ctx, stored.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Unauthenticated[Session](MsgInvalidRefreshToken), nil
	}
	if err != nil {
		return domain.Result[Session]{}, fmt.Errorf("loading user: %w", err)
	}

	if err := h.refresh.Revoke(ctx, hash, now); err != nil {
		return domain.Result[Session]{}, fmt.Errorf("revoking refresh token: %w", err)
	}

	return h.startSession(ctx, user)
}

// Logout revokes the refresh token. Unknown tokens are ignored.
func (h *AuthHandlers) Logout(ctx context.Context, req LogoutUser) (domain.Result[struct{}], error) {
	if req.Token != "" {
		err := h.refresh.Revoke(ctx, h.tokens.HashRefreshToken(req.Token), h.clock.Now())
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return domain.Result[struct{}]{}, fmt.Errorf("revoking refresh token: %w", err)
		}
	}
	return domain.Success(struct{}{}), nil
}

// CurrentUser returns the principal's profile.
func (h *AuthHandlers) CurrentUser(ctx context.Context, _ GetCurrentUser) (domain.Result[domain.User], error) {
	userID, ok := h.principal.CurrentUserID(ctx)
	if !ok {
		return domain.Unauthenticated[domain.User](MsgNotAuthenticated), nil
	}
	user, err := h.users.GetByID(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Unauthenticated[domain.User](MsgNotAuthenticated), nil
	}
	if err != nil {
		return domain.Result[domain.User]{}, fmt.Errorf("loading user: %w", err)
	}
	return domain.Success(user), nil
}

// startSession issues a token pair and persists the refresh token.
func (h *AuthHandlers) startSession(ctx context.Context, user domain.User) (domain.Result[Session], error) {
	now := h.clock.Now()
	tokens, err := h.tokens.Issue(user, now)
	if err != nil {
		return domain.Result[Session]{}, fmt.Errorf("issuing tokens: %w", err)
	}

	if err := h.refresh.Create(ctx, domain.RefreshToken{
		TokenHash: tokens.RefreshTokenHash,
		UserID:    user.ID,
		ExpiresAt: tokens.RefreshExpiresAt,
		CreatedAt: now,
	}); err != nil {
		return domain.Result[Session]{}, fmt.Errorf("storing refresh token: %w", err)
	}

	return domain.Success(Session{User: user, Tokens: tokens}), nil
}
