// internal/session/session_test.go
//
// Unit-tests for the signed-cookie session layer.
//
// Run: go test ./internal/session -v

package session

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const secret = "0123456789abcdef0123456789abcdef"

func issueCookie(t *testing.T, id Identity) *http.Cookie {
	t.Helper()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	Login(rr, req, secret, id)
	res := rr.Result()
	if len(res.Cookies()) != 1 {
		t.Fatalf("expected one cookie, got %d", len(res.Cookies()))
	}
	return res.Cookies()[0]
}

func TestRoundTrip(t *testing.T) {
	c := issueCookie(t, Identity{ProfileID: "p-1", Email: "a@b.c", Role: "admin"})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)

	id, ok := Current(req, secret)
	if !ok {
		t.Fatal("expected a valid session")
	}
	if id.ProfileID != "p-1" || !id.IsAdmin() {
		t.Fatalf("unexpected identity: %+v", id)
	}
}

func TestForgedSignatureRejected(t *testing.T) {
	c := issueCookie(t, Identity{ProfileID: "p-1", Role: "member"})

	// Flip the role inside the payload without re-signing.
	body, sig, _ := strings.Cut(c.Value, ".")
	_ = body
	c.Value = "dGFtcGVyZWQ." + sig

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)

	if _, ok := Current(req, secret); ok {
		t.Fatal("forged cookie accepted")
	}
}

func TestWrongSecretRejected(t *testing.T) {
	c := issueCookie(t, Identity{ProfileID: "p-1", Role: "member"})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)

	if _, ok := Current(req, "another-secret-another-secret!!"); ok {
		t.Fatal("cookie signed with a different secret accepted")
	}
}

func TestExpiredRejected(t *testing.T) {
	id := Identity{ProfileID: "p-1", Role: "member", Expires: time.Now().Add(-time.Hour)}
	c := &http.Cookie{Name: "sub_session", Value: encode(secret, id)}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)

	if _, ok := Current(req, secret); ok {
		t.Fatal("expired session accepted")
	}
}

func TestMissingCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := Current(req, secret); ok {
		t.Fatal("session conjured from nothing")
	}
}
