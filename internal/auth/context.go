// internal/auth/context.go
//
// Request-context plumbing for the authenticated identity.
//
// Usage
// -----
//     // Attach the decoded session identity (middleware does this).
//     ctx = auth.WithIdentity(ctx, id)
//
//     // Downstream code retrieves it.
//     id, ok := auth.IdentityFrom(ctx)
//
// Notes
// -----
// • Stores a session.Identity value directly in context.
// • Oxford commas, two spaces after periods.

package auth

import (
	"context"

	"github.com/indoai-web/web-sub001/internal/session"
)

// identityKey is unexported to avoid context-key collisions.
type identityKey struct{}

// WithIdentity returns a new context carrying the given identity.
func WithIdentity(ctx context.Context, id session.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom extracts the identity from ctx.  It returns (zero, false)
// when no middleware has attached one.
func IdentityFrom(ctx context.Context) (session.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(session.Identity)
	return id, ok
}
