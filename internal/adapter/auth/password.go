package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/neomorfeo/cinelist/internal/domain"
)

// Compile-time check: BcryptHasher implements domain.PasswordHasher.
var _ domain.PasswordHasher = BcryptHasher{}

// BcryptHasher hashes passwords with bcrypt at a fixed cost.
type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(password domain.Password) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password.Value()), h.Cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (BcryptHasher) Verify(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
