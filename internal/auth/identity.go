package auth

import (
	"context"

	"quizlab-service/internal/domain"
)

// Identity is the resolved caller supplied by the authentication provider.
// Role here is the role at sign-in time; mutating operations re-resolve the
// stored role through the user repository.
type Identity struct {
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

// Authenticated reports whether an identity was resolved for the request.
func (i Identity) Authenticated() bool { return i.Email != "" }

type ctxKey struct{}

// WithIdentity attaches the resolved identity to the request context.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, identity)
}

// IdentityFromContext returns the identity attached by the session
// middleware, or the zero (anonymous) identity.
func IdentityFromContext(ctx context.Context) Identity {
	if v := ctx.Value(ctxKey{}); v != nil {
		if identity, ok := v.(Identity); ok {
			return identity
		}
	}
	return Identity{}
}
