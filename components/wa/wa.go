// components/wa/wa.go
//
// WhatsApp gateway surface: admin controls plus inbound webhooks.
//
/*
Context
--------
The admin half proxies the dashboard's device controls to the gateway
(pair, status, disconnect, groups, number validation, ad-hoc send) and
manages the module settings that feed them.  The webhook half is public by
necessity; the gateway calls it with inbound user messages and with
delivery/connection status events, as JSON or form-encoded depending on
the gateway build.

An inbound user message may produce an AI auto-reply.  The reply is not
sent inline; it is enqueued in wa_logs, and the queue drainer delivers it.
The webhook therefore answers the gateway quickly no matter how slow the
AI provider is.

Notes
-----
  • Oxford commas, two spaces after periods.
*/
package wa

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/indoai-web/web-sub001/internal/ai"
	"github.com/indoai-web/web-sub001/internal/auth"
	"github.com/indoai-web/web-sub001/internal/component"
	"github.com/indoai-web/web-sub001/internal/config"
	"github.com/indoai-web/web-sub001/internal/httpx"
	"github.com/indoai-web/web-sub001/internal/queue"
	"github.com/indoai-web/web-sub001/internal/settings"
	"github.com/indoai-web/web-sub001/internal/wa"
)

var _ component.Component = (*Component)(nil)

// Component bridges the dashboard and the gateway.
type Component struct {
	client    *wa.Client
	settings  *settings.Store
	responder *ai.Responder
	db        *sqlx.DB
}

// New constructs the component.
func New(client *wa.Client, st *settings.Store, responder *ai.Responder, db *sqlx.DB) *Component {
	return &Component{client: client, settings: st, responder: responder, db: db}
}

/*────────────────── component.Component methods ───────────────────────────*/

func (c *Component) Name() string      { return "wa" }
func (c *Component) MountPath() string { return "/api/wa" }

func (c *Component) Routes() chi.Router {
	r := chi.NewRouter()

	// Public: called by the gateway itself.
	r.Post("/webhook/message", c.handleInboundMessage)
	r.Post("/webhook/status", c.handleStatusEvent)

	// Admin: dashboard device controls and settings.
	r.Group(func(admin chi.Router) {
		admin.Use(auth.RequireAdmin(config.Get().Session.Secret))
		admin.Get("/qr", c.proxy(c.client.PairQR))
		admin.Get("/status", c.proxy(c.client.Status))
		admin.Post("/disconnect", c.proxy(c.client.Disconnect))
		admin.Get("/groups", c.proxy(c.client.Groups))
		admin.Get("/validate", c.handleValidate)
		admin.Post("/send", c.handleSend)
		admin.Get("/settings", c.handleSettingsGet)
		admin.Put("/settings", c.handleSettingsPut)
	})
	return r
}

/*──────────────────────────── Admin handlers ───────────────────────────────*/

// proxy adapts a plain gateway call into a handler that forwards the
// gateway's JSON untouched.
func (c *Component) proxy(call func(context.Context) (json.RawMessage, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := call(r.Context())
		if err != nil {
			httpx.Internal(w, err)
			return
		}
		httpx.OK(w, raw)
	}
}

func (c *Component) handleValidate(w http.ResponseWriter, r *http.Request) {
	number := r.URL.Query().Get("number")
	if number == "" {
		httpx.BadRequest(w, "missing number query parameter")
		return
	}
	raw, err := c.client.ValidateNumber(r.Context(), number)
	if err != nil {
		httpx.Internal(w, err)
		return
	}
	httpx.OK(w, raw)
}

func (c *Component) handleSend(w http.ResponseWriter, r *http.Request) {
	var body wa.SendRequest
	if err := httpx.Decode(r, &body); err != nil {
		httpx.BadRequest(w, "malformed JSON body")
		return
	}
	if len(body.Targets) == 0 || body.Message == "" {
		httpx.BadRequest(w, "targets and message are required")
		return
	}
	raw, err := c.client.Send(r.Context(), body)
	if err != nil {
		httpx.Internal(w, err)
		return
	}
	httpx.OK(w, raw)
}

func (c *Component) handleSettingsGet(w http.ResponseWriter, r *http.Request) {
	all, err := c.settings.All(r.Context())
	if err != nil {
		httpx.Internal(w, err)
		return
	}
	httpx.OK(w, all)
}

func (c *Component) handleSettingsPut(w http.ResponseWriter, r *http.Request) {
	var body map[string]string
	if err := httpx.Decode(r, &body); err != nil {
		httpx.BadRequest(w, "malformed JSON body")
		return
	}
	for k, v := range body {
		if err := c.settings.Set(r.Context(), k, v); err != nil {
			httpx.Internal(w, err)
			return
		}
	}
	httpx.OK(w, map[string]int{"updated": len(body)})
}

/*──────────────────────────── Webhook handlers ─────────────────────────────*/

// handleInboundMessage receives a user message and may enqueue an
// auto-reply.  The gateway retries non-2xx responses, so only a parse
// failure is reported as an error.
func (c *Component) handleInboundMessage(w http.ResponseWriter, r *http.Request) {
	fields, err := httpx.DecodeLoose(r)
	if err != nil {
		httpx.BadRequest(w, "unreadable webhook body")
		return
	}
	sender := fields["sender"]
	message := fields["message"]
	if sender == "" || message == "" {
		httpx.BadRequest(w, "sender and message are required")
		return
	}

	reply, err := c.responder.Reply(r.Context(), message)
	switch {
	case errors.Is(err, ai.ErrDisabled):
		// Auto-reply off; acknowledge and move on.
	case err != nil:
		zap.S().Warnw("auto-reply generation failed", "sender", sender, "err", err)
	case reply != "":
		if err := queue.Enqueue(r.Context(), c.db, sender, reply); err != nil {
			zap.S().Errorw("auto-reply enqueue failed", "sender", sender, "err", err)
		}
	}
	httpx.OK(w, map[string]bool{"received": true})
}

// handleStatusEvent logs delivery and connection callbacks.
func (c *Component) handleStatusEvent(w http.ResponseWriter, r *http.Request) {
	fields, err := httpx.DecodeLoose(r)
	if err != nil {
		httpx.BadRequest(w, "unreadable webhook body")
		return
	}
	zap.S().Infow("gateway status event",
		"event", fields["event"],
		"status", fields["status"],
		"target", fields["target"],
	)
	httpx.OK(w, map[string]bool{"received": true})
}
