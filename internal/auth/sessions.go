package auth

import "context"

// SessionStore maps opaque session tokens to identities. Tokens live in the
// store (in-memory or Redis) with a TTL; revoking one invalidates the cookie
// immediately.
type SessionStore interface {
	// Create issues a fresh token for the identity.
	Create(ctx context.Context, identity Identity) (string, error)
	// Get resolves a token, or domain.ErrNotFound for unknown/expired ones.
	Get(ctx context.Context, token string) (Identity, error)
	// Delete revokes a token. Revoking an unknown token is not an error.
	Delete(ctx context.Context, token string) error
}
