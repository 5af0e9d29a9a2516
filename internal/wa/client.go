// internal/wa/client.go
//
// HTTP client for the third-party WhatsApp gateway.
//
/*
Context
--------
The gateway is an external device-bridge service: it pairs a phone via QR,
reports device status, lists the account's groups, validates numbers, and
sends messages to one or more targets with a per-message delay.  We only
speak HTTP to it; nothing about the wire protocol beyond these endpoints is
ours.

The API token goes out as the raw `Authorization` header value.  The gateway
predates the `Bearer ` convention and rejects prefixed tokens, so the value
is passed exactly as stored.

The token and base URL come from module_settings so the admin can rotate
them from the dashboard; the config-file base URL is only a fallback for
fresh installs.

Notes
-----
  • Every call increments metrics.GatewayCallsTotal{endpoint, outcome}.
  • Non-2xx responses surface the gateway's own body text verbatim.
  • Oxford commas, two spaces after periods.
*/
package wa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/indoai-web/web-sub001/internal/metrics"
	"github.com/indoai-web/web-sub001/internal/settings"
)

// Settings is the slice of the settings store the client needs.
type Settings interface {
	Get(ctx context.Context, key string) (string, error)
}

// Client talks to the gateway.  Safe for concurrent use.
type Client struct {
	http     *http.Client
	settings Settings
	fallback string // base URL from config, used when the setting is empty
}

// NewClient returns a Client with a bounded request timeout.
func NewClient(st Settings, fallbackBaseURL string) *Client {
	return &Client{
		http:     &http.Client{Timeout: 30 * time.Second},
		settings: st,
		fallback: strings.TrimRight(fallbackBaseURL, "/"),
	}
}

// GatewayError carries the gateway's status and body for the caller.
type GatewayError struct {
	Endpoint string
	Status   int
	Body     string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway %s: status %d: %s", e.Endpoint, e.Status, e.Body)
}

/*──────────────────────────── endpoint calls ───────────────────────────*/

// PairQR asks the gateway for a fresh pairing QR code (base64 PNG).
func (c *Client) PairQR(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, "qr", "/app/qr", nil)
}

// Status reports device and account connection state.
func (c *Client) Status(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, "status", "/app/status", nil)
}

// Disconnect unpairs the device.
func (c *Client) Disconnect(ctx context.Context) (json.RawMessage, error) {
	return c.post(ctx, "disconnect", "/app/disconnect", nil)
}

// Groups lists the groups the paired account belongs to.
func (c *Client) Groups(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, "groups", "/app/groups", nil)
}

// ValidateNumber checks whether a phone number is reachable on the network.
func (c *Client) ValidateNumber(ctx context.Context, number string) (json.RawMessage, error) {
	return c.get(ctx, "validate", "/app/validate", url.Values{"number": {number}})
}

// SendRequest is one outbound message fan-out.
type SendRequest struct {
	Targets []string `json:"targets"`
	Message string   `json:"message"`
	DelayMS int      `json:"delay_ms"`
}

// Send delivers one message to each target, with the gateway pacing sends
// by DelayMS between targets.
func (c *Client) Send(ctx context.Context, req SendRequest) (json.RawMessage, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	return c.post(ctx, "send", "/message/send", body)
}

/*──────────────────────────── plumbing ─────────────────────────────────*/

func (c *Client) baseURL(ctx context.Context) (string, error) {
	base, err := c.settings.Get(ctx, settings.KeyGatewayBaseURL)
	if err != nil {
		return "", err
	}
	if base == "" {
		base = c.fallback
	}
	if base == "" {
		return "", fmt.Errorf("gateway base URL is not configured")
	}
	return strings.TrimRight(base, "/"), nil
}

func (c *Client) get(ctx context.Context, name, path string, query url.Values) (json.RawMessage, error) {
	return c.do(ctx, name, http.MethodGet, path, query, nil)
}

func (c *Client) post(ctx context.Context, name, path string, body []byte) (json.RawMessage, error) {
	return c.do(ctx, name, http.MethodPost, path, nil, body)
}

func (c *Client) do(ctx context.Context, name, method, path string, query url.Values, body []byte) (json.RawMessage, error) {
	base, err := c.baseURL(ctx)
	if err != nil {
		metrics.GatewayCallsTotal.WithLabelValues(name, "error").Inc()
		return nil, err
	}
	token, err := c.settings.Get(ctx, settings.KeyGatewayToken)
	if err != nil {
		metrics.GatewayCallsTotal.WithLabelValues(name, "error").Inc()
		return nil, err
	}

	target := base + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, rd)
	if err != nil {
		metrics.GatewayCallsTotal.WithLabelValues(name, "error").Inc()
		return nil, err
	}
	// Raw token, no scheme prefix.
	req.Header.Set("Authorization", token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.GatewayCallsTotal.WithLabelValues(name, "error").Inc()
		return nil, fmt.Errorf("gateway %s: %w", name, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		metrics.GatewayCallsTotal.WithLabelValues(name, "error").Inc()
		return nil, fmt.Errorf("gateway %s: reading response: %w", name, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.GatewayCallsTotal.WithLabelValues(name, "error").Inc()
		zap.S().Warnw("gateway call failed",
			"endpoint", name,
			"status", resp.StatusCode,
		)
		return nil, &GatewayError{Endpoint: name, Status: resp.StatusCode, Body: string(raw)}
	}

	metrics.GatewayCallsTotal.WithLabelValues(name, "ok").Inc()
	return json.RawMessage(raw), nil
}
