package domain

import "time"

// User is a registered account.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewUser builds a user from already validated values.
func NewUser(id string, username Username, email Email, passwordHash string, now time.Time) User {
	now = now.UTC()
	return User{
		ID:           id,
		Username:     username.Value(),
		Email:        email.Value(),
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// RefreshToken is the stored form of an opaque refresh token. Only the hash
// of the token is kept.
type RefreshToken struct {
	TokenHash string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
	RevokedAt *time.Time
}

// Active reports whether the token can still be exchanged at now.
func (t RefreshToken) Active(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}

// AuthTokens is a freshly issued access/refresh pair.
type AuthTokens struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
	// RefreshTokenHash is what gets persisted.
	RefreshTokenHash string
}
