package httpx

import (
	"context"
	"slices"
)

// Identity is the caller attached to a request once its access token has
// verified. Display names are empty unless the Authenticator embeds them.
type Identity struct {
	ID        string
	Email     string
	Username  string
	Role      string
	FirstName string
	LastName  string
}

type ctxKey struct{}

// WithIdentity attaches id to ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// IdentityFromContext returns the attached identity, if any.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}

// IsAuthenticated reports whether ctx carries an identity.
func IsAuthenticated(ctx context.Context) bool {
	_, ok := IdentityFromContext(ctx)
	return ok
}

// HasRole reports whether the caller has exactly role.
func HasRole(ctx context.Context, role string) bool {
	id, ok := IdentityFromContext(ctx)
	return ok && id.Role == role
}

// HasAnyRole reports whether the caller has one of roles.
func HasAnyRole(ctx context.Context, roles ...string) bool {
	id, ok := IdentityFromContext(ctx)
	return ok && slices.Contains(roles, id.Role)
}
