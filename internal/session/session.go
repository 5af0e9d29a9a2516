// internal/session/session.go
//
// Signed-cookie session layer.
//
// Context
//   Authentication requires persisting a “logged-in” identity between
//   requests.  The session cookie carries a small JSON payload (profile id,
//   role, expiry) that is base64-encoded and HMAC-SHA256-signed with the
//   secret from config.  No server-side session store is involved; the
//   cookie is the session.
//
//   Tampering with either half invalidates the signature, so role checks
//   downstream may trust the decoded payload.  Rotating the secret logs
//   everyone out.
//
// Style
//   Two-space sentence spacing, Oxford comma, terse inline notes.
//
//------------------------------------------------------------------------------

package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

const (
	cookieName = "sub_session"
	lifetime   = 14 * 24 * time.Hour
)

// Identity is the payload stored inside the signed cookie.
type Identity struct {
	ProfileID string    `json:"pid"`
	Email     string    `json:"email"`
	Role      string    `json:"role"` // "member" | "admin"
	Expires   time.Time `json:"exp"`
}

// Valid reports whether the identity is non-empty and unexpired.
func (id Identity) Valid() bool {
	return id.ProfileID != "" && time.Now().Before(id.Expires)
}

// IsAdmin is a convenience for role gates.
func (id Identity) IsAdmin() bool { return id.Role == "admin" }

// Login sets the session cookie for the given identity.
func Login(w http.ResponseWriter, r *http.Request, secret string, id Identity) {
	id.Expires = time.Now().Add(lifetime)
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    encode(secret, id),
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil, // only send over HTTPS
		SameSite: http.SameSiteLaxMode,
		Expires:  id.Expires,
	})
}

// Logout clears the session cookie.
func Logout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// Current returns the identity stored in the request's session cookie.
//
// ok == false when the cookie is missing, malformed, forged, or expired.
func Current(r *http.Request, secret string) (Identity, bool) {
	c, err := r.Cookie(cookieName)
	if err != nil || c.Value == "" {
		return Identity{}, false
	}
	id, ok := decode(secret, c.Value)
	if !ok || !id.Valid() {
		return Identity{}, false
	}
	return id, true
}

/*──────────────────────────── encoding ────────────────────────────────────*/

// encode produces "<b64 payload>.<b64 hmac>".
func encode(secret string, id Identity) string {
	payload, _ := json.Marshal(id)
	body := base64.RawURLEncoding.EncodeToString(payload)
	return body + "." + sign(secret, body)
}

// decode verifies the signature and unmarshals the payload.
func decode(secret, value string) (Identity, bool) {
	body, sig, found := strings.Cut(value, ".")
	if !found {
		return Identity{}, false
	}
	if !hmac.Equal([]byte(sign(secret, body)), []byte(sig)) {
		return Identity{}, false
	}
	raw, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return Identity{}, false
	}
	var id Identity
	if err := json.Unmarshal(raw, &id); err != nil {
		return Identity{}, false
	}
	return id, true
}

func sign(secret, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
