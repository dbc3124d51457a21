package http

import (
	"net/http"
	"strings"

	"github.com/neomorfeo/cinelist/internal/adapter/auth"
)

const (
	accessCookie  = "access_token"
	refreshCookie = "refresh_token"
)

// TokenVerifier resolves an access token to a user ID.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// Authenticate attaches the user of a valid access token to the request
// context. The token comes from the Authorization bearer header or the
// access_token cookie. Requests without a valid token continue anonymously
// and the handlers decide what that means.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				if c, err := r.Cookie(accessCookie); err == nil {
					token = c.Value
				}
			}
			if token != "" {
				if userID, err := verifier.Verify(token); err == nil {
					r = r.WithContext(auth.WithUserID(r.Context(), userID))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
