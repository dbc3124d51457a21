package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/neomorfeo/cinelist/internal/domain"
)

var (
	_ domain.UserRepository         = (*UserRepository)(nil)
	_ domain.RefreshTokenRepository = (*RefreshTokenRepository)(nil)
)

// UserRepository implements domain.UserRepository using SQLite.
type UserRepository struct {
	store *Store
}

const userColumns = `id, username, email, password_hash, created_at, updated_at`

func (r *UserRepository) Create(ctx context.Context, u domain.User) error {
	_, err := r.store.conn(ctx).ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.Email, u.PasswordHash,
		formatTime(u.CreatedAt), formatTime(u.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			if violates(err, "users.email") {
				return &domain.ConflictError{Resource: "user", Field: "email", Value: u.Email}
			}
			return &domain.ConflictError{Resource: "user", Field: "username", Value: u.Username}
		}
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	return scanUser(r.store.conn(ctx).QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id,
	))
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	return scanUser(r.store.conn(ctx).QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username,
	))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return scanUser(r.store.conn(ctx).QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email,
	))
}

func scanUser(row *sql.Row) (domain.User, error) {
	var u domain.User
	var createdAt, updatedAt string

	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, fmt.Errorf("scanning user: %w", err)
	}

	u.CreatedAt = parseTime(createdAt)
	u.UpdatedAt = parseTime(updatedAt)
	return u, nil
}

// RefreshTokenRepository implements domain.RefreshTokenRepository using SQLite.
type RefreshTokenRepository struct {
	store *Store
}

func (r *RefreshTokenRepository) Create(ctx context.Context, t domain.RefreshToken) error {
	_, err := r.store.conn(ctx).ExecContext(ctx,
		`INSERT INTO refresh_tokens (token_hash, user_id, expires_at, created_at, revoked_at)
		 VALUES (?, ?, ?, ?, ?)`,
		t.TokenHash, t.UserID,
		formatTime(t.ExpiresAt), formatTime(t.CreatedAt), formatNullTime(t.RevokedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting refresh token: %w", err)
	}
	return nil
}

func (r *RefreshTokenRepository) GetByHash(ctx context.Context, hash string) (domain.RefreshToken, error) {
	var t domain.RefreshToken
	var expiresAt, createdAt string
	var revokedAt sql.NullString

	err := r.store.conn(ctx).QueryRowContext(ctx,
		`SELECT token_hash, user_id, expires_at, created_at, revoked_at
		 FROM refresh_tokens WHERE token_hash = ?`, hash,
	).Scan(&t.TokenHash, &t.UserID, &expiresAt, &createdAt, &revokedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.RefreshToken{}, domain.ErrNotFound
		}
		return domain.RefreshToken{}, fmt.Errorf("scanning refresh token: %w", err)
	}

	t.ExpiresAt = parseTime(expiresAt)
	t.CreatedAt = parseTime(createdAt)
	t.RevokedAt = parseNullTime(revokedAt)
	return t, nil
}

// Revoke marks the token revoked. Revoking twice keeps the first timestamp.
func (r *RefreshTokenRepository) Revoke(ctx context.Context, hash string, at time.Time) error {
	result, err := r.store.conn(ctx).ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at = COALESCE(revoked_at, ?) WHERE token_hash = ?`,
		formatTime(at), hash,
	)
	if err != nil {
		return fmt.Errorf("revoking refresh token: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteExpired removes tokens that expired or were revoked before the
// cutoff and reports how many went.
func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	cutoff := formatTime(before)
	result, err := r.store.conn(ctx).ExecContext(ctx,
		`DELETE FROM refresh_tokens WHERE expires_at < ? OR revoked_at < ?`,
		cutoff, cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("deleting expired refresh tokens: %w", err)
	}
	return result.RowsAffected()
}
