package domain

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	emailMaxLength    = 100
	usernameMinLength = 3
	usernameMaxLength = 50
	passwordMinLength = 8
	passwordMaxLength = 100

	MinRating = 1
	MaxRating = 10
)

// PasswordSymbols lists the characters that satisfy the symbol requirement.
const PasswordSymbols = "@$!%*?&#"

var (
	emailPattern    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[A-Za-z]{2,}$`)
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

	// RE2 has no lookahead, so each class is checked on its own.
	passwordClasses = []*regexp.Regexp{
		regexp.MustCompile(`[a-z]`),
		regexp.MustCompile(`[A-Z]`),
		regexp.MustCompile(`[0-9]`),
		regexp.MustCompile(`[` + regexp.QuoteMeta(PasswordSymbols) + `]`),
	}
)

// Email is a syntactically valid, lower-cased e-mail address.
type Email struct{ value string }

// NewEmail trims raw, validates it and normalizes it to lower case.
func NewEmail(raw string) Result[Email] {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return Failure[Email]("Email is required")
	case utf8.RuneCountInString(raw) > emailMaxLength:
		return Failure[Email]("Email must not exceed 100 characters")
	case !emailPattern.MatchString(raw):
		return Failure[Email]("Email format is invalid")
	}
	return Success(Email{value: strings.ToLower(raw)})
}

// Value returns the normalized address.
func (e Email) Value() string { return e.value }

func (e Email) String() string { return e.value }

// Equals compares normalized addresses.
func (e Email) Equals(other Email) bool { return e.value == other.value }

// Username is a 3 to 50 character handle made of letters, digits, '_' and '-'.
type Username struct{ value string }

// NewUsername validates raw as given; usernames are case sensitive.
func NewUsername(raw string) Result[Username] {
	switch n := utf8.RuneCountInString(raw); {
	case raw == "":
		return Failure[Username]("Username is required")
	case n < usernameMinLength || n > usernameMaxLength:
		return Failure[Username]("Username must be between 3 and 50 characters")
	case !usernamePattern.MatchString(raw):
		return Failure[Username]("Username can only contain letters, numbers, underscores and hyphens")
	}
	return Success(Username{value: raw})
}

// Value returns the handle.
func (u Username) Value() string { return u.value }

func (u Username) String() string { return u.value }

// Equals compares handles case sensitively.
func (u Username) Equals(other Username) bool { return u.value == other.value }

// Password is a plaintext password that satisfies the composition rule.
// It never leaves the process; only its hash is stored.
type Password struct{ value string }

// NewPassword requires 8 to 100 characters including a lower-case letter,
// an upper-case letter, a digit and one of PasswordSymbols.
func NewPassword(raw string) Result[Password] {
	if raw == "" {
		return Failure[Password]("Password is required")
	}
	if n := utf8.RuneCountInString(raw); n < passwordMinLength || n > passwordMaxLength {
		return Failure[Password]("Password must be between 8 and 100 characters")
	}
	for _, class := range passwordClasses {
		if !class.MatchString(raw) {
			return Failure[Password]("Password must contain at least one lowercase letter, one uppercase letter, one digit and one special character (" + PasswordSymbols + ")")
		}
	}
	return Success(Password{value: raw})
}

// Value returns the plaintext for hashing.
func (p Password) Value() string { return p.value }

// Equals compares plaintexts.
func (p Password) Equals(other Password) bool { return p.value == other.value }

// String masks the password so it cannot leak through formatting.
func (p Password) String() string { return "********" }

// Rating is a score between MinRating and MaxRating inclusive.
type Rating struct{ value int }

// NewRating rejects scores outside [MinRating, MaxRating].
func NewRating(raw int) Result[Rating] {
	if raw < MinRating || raw > MaxRating {
		return Failure[Rating]("Rating must be between 1 and 10")
	}
	return Success(Rating{value: raw})
}

// Value returns the score.
func (r Rating) Value() int { return r.value }

// Equals compares scores.
func (r Rating) Equals(other Rating) bool { return r.value == other.value }

// ValidateRegistrationInput checks every registration field and returns all
// failure messages, or nil when the input is valid.
func ValidateRegistrationInput(username, email, password string) []string {
	var errs []string
	if r := NewUsername(username); r.IsFailure() {
		errs = append(errs, r.Message())
	}
	if r := NewEmail(email); r.IsFailure() {
		errs = append(errs, r.Message())
	}
	if r := NewPassword(password); r.IsFailure() {
		errs = append(errs, r.Message())
	}
	return errs
}
