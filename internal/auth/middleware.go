// internal/auth/middleware.go
//
// Session gates for member and admin routes.
//
// Context
// -------
// Two wrappers cover the whole surface:
//
//   • RequireMember – any valid session          → 401 otherwise.
//   • RequireAdmin  – valid session + admin role → 401 / 403 otherwise.
//
// Both attach the decoded identity to the request context so handlers can
// read it via IdentityFrom without re-parsing the cookie.
package auth

import (
	"net/http"

	"github.com/indoai-web/web-sub001/internal/httpx"
	"github.com/indoai-web/web-sub001/internal/session"
)

// RequireMember rejects requests without a valid session.
func RequireMember(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := session.Current(r, secret)
			if !ok {
				httpx.Unauthorized(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// RequireAdmin rejects requests without a valid admin session.
func RequireAdmin(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := session.Current(r, secret)
			if !ok {
				httpx.Unauthorized(w)
				return
			}
			if !id.IsAdmin() {
				httpx.Forbidden(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}
