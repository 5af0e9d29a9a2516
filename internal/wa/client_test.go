// internal/wa/client_test.go
//
// Gateway client tests against an httptest stand-in.
//
// Run: go test ./internal/wa -v

package wa

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/indoai-web/web-sub001/internal/settings"
)

// fakeSettings is a map-backed Settings.
type fakeSettings map[string]string

func (f fakeSettings) Get(_ context.Context, key string) (string, error) {
	return f[key], nil
}

func TestAuthorizationHeaderIsRawToken(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.Write([]byte(`{"status":"connected"}`))
	}))
	defer srv.Close()

	c := NewClient(fakeSettings{
		settings.KeyGatewayToken:   "tok-abc123",
		settings.KeyGatewayBaseURL: srv.URL,
	}, "")

	_, err := c.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-abc123", got, "token must not carry a Bearer prefix")
}

func TestSendPostsTargetsAndDelay(t *testing.T) {
	var path, body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.Write([]byte(`{"queued":2}`))
	}))
	defer srv.Close()

	c := NewClient(fakeSettings{settings.KeyGatewayBaseURL: srv.URL}, "")
	raw, err := c.Send(context.Background(), SendRequest{
		Targets: []string{"628111", "628222"},
		Message: "hello",
		DelayMS: 1500,
	})
	require.NoError(t, err)

	assert.Equal(t, "/message/send", path)
	assert.Contains(t, body, `"628222"`)
	assert.Contains(t, body, `"delay_ms":1500`)
	assert.JSONEq(t, `{"queued":2}`, string(raw))
}

func TestValidateNumberQueryParam(t *testing.T) {
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		w.Write([]byte(`{"valid":true}`))
	}))
	defer srv.Close()

	c := NewClient(fakeSettings{settings.KeyGatewayBaseURL: srv.URL}, "")
	_, err := c.ValidateNumber(context.Background(), "628123456")
	require.NoError(t, err)
	assert.Equal(t, "number=628123456", query)
}

func TestUpstreamErrorBodyPreserved(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "device not paired", http.StatusConflict)
	}))
	defer srv.Close()

	c := NewClient(fakeSettings{settings.KeyGatewayBaseURL: srv.URL}, "")
	_, err := c.Groups(context.Background())
	require.Error(t, err)

	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, http.StatusConflict, gwErr.Status)
	assert.Contains(t, gwErr.Body, "device not paired")
}

func TestFallbackBaseURLWhenSettingEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(fakeSettings{}, srv.URL)
	_, err := c.Status(context.Background())
	assert.NoError(t, err)
}

func TestNoBaseURLConfigured(t *testing.T) {
	c := NewClient(fakeSettings{}, "")
	_, err := c.Status(context.Background())
	assert.Error(t, err)
}
