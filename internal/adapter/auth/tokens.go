package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/neomorfeo/cinelist/internal/domain"
)

// ErrInvalidToken is returned for access tokens that fail verification.
var ErrInvalidToken = errors.New("invalid access token")

// Compile-time check: JWTIssuer implements domain.TokenIssuer.
var _ domain.TokenIssuer = (*JWTIssuer)(nil)

// JWTIssuer signs HS256 access tokens and mints opaque refresh tokens.
// Only the SHA-256 hash of a refresh token is ever stored.
type JWTIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewJWTIssuer creates an issuer. The secret should be at least 32 bytes.
func NewJWTIssuer(secret string, accessTTL, refreshTTL time.Duration) *JWTIssuer {
	return &JWTIssuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// Issue mints an access/refresh token pair for user at now.
func (i *JWTIssuer) Issue(user domain.User, now time.Time) (domain.AuthTokens, error) {
	accessExp := now.Add(i.accessTTL)
	claims := jwt.MapClaims{
		"sub":      user.ID,
		"username": user.Username,
		"iat":      now.Unix(),
		"exp":      accessExp.Unix(),
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return domain.AuthTokens{}, fmt.Errorf("signing access token: %w", err)
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return domain.AuthTokens{}, fmt.Errorf("generating refresh token: %w", err)
	}
	refresh := hex.EncodeToString(raw)

	return domain.AuthTokens{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: now.Add(i.refreshTTL),
		RefreshTokenHash: i.HashRefreshToken(refresh),
	}, nil
}

// HashRefreshToken returns the hex SHA-256 of raw.
func (i *JWTIssuer) HashRefreshToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Verify parses an access token and returns the user ID from the sub claim.
func (i *JWTIssuer) Verify(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now), jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", ErrInvalidToken
	}
	return sub, nil
}
