package auth

import (
	"context"

	"github.com/neomorfeo/cinelist/internal/domain"
)

type principalKey struct{}

// WithUserID returns a context that carries the authenticated user ID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, principalKey{}, userID)
}

// ContextPrincipal reads the user ID stored by WithUserID.
type ContextPrincipal struct{}

// Compile-time check: ContextPrincipal implements domain.PrincipalAccessor.
var _ domain.PrincipalAccessor = ContextPrincipal{}

func (ContextPrincipal) CurrentUserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(principalKey{}).(string)
	return id, ok && id != ""
}
