// internal/httpx/respond.go
//
// JSON response envelope helpers.
//
// Context
// -------
// Every API handler in the app answers with the same envelope:
//
//	{"success": true,  "data": …}
//	{"success": false, "error": "…"}
//
// The helpers below centralise that shape plus the status taxonomy:
// validation → 400, missing session → 401, wrong role → 403, missing
// version/file → 404, upstream (DB, gateway) → 500.  Upstream error text is
// passed through so the dashboard can show the real cause.
//
// Notes
// -----
// • Encode failures after the header is written are logged, not retried.
// • Oxford commas, two spaces after periods.
package httpx

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// Envelope is the wire shape shared by every JSON endpoint.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// OK writes a 200 envelope with data.
func OK(w http.ResponseWriter, data any) {
	write(w, http.StatusOK, Envelope{Success: true, Data: data})
}

// Created writes a 201 envelope with data.
func Created(w http.ResponseWriter, data any) {
	write(w, http.StatusCreated, Envelope{Success: true, Data: data})
}

// BadRequest writes a 400 envelope; use for validation failures.
func BadRequest(w http.ResponseWriter, msg string) {
	write(w, http.StatusBadRequest, Envelope{Error: msg})
}

// Unauthorized writes a 401 envelope; use when no session is present.
func Unauthorized(w http.ResponseWriter) {
	write(w, http.StatusUnauthorized, Envelope{Error: "authentication required"})
}

// Forbidden writes a 403 envelope; use when the session lacks the role.
func Forbidden(w http.ResponseWriter) {
	write(w, http.StatusForbidden, Envelope{Error: "insufficient privileges"})
}

// NotFound writes a 404 envelope.
func NotFound(w http.ResponseWriter, msg string) {
	if msg == "" {
		msg = "not found"
	}
	write(w, http.StatusNotFound, Envelope{Error: msg})
}

// Internal writes a 500 envelope carrying err's text verbatim.
func Internal(w http.ResponseWriter, err error) {
	write(w, http.StatusInternalServerError, Envelope{Error: err.Error()})
}

// InternalDetail writes a 500 envelope with an error message plus a
// structured data payload.  Use it when the caller needs more than the
// message to act, such as the failing stage and captured output of a
// build.
func InternalDetail(w http.ResponseWriter, msg string, detail any) {
	write(w, http.StatusInternalServerError, Envelope{Error: msg, Data: detail})
}

func write(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		zap.S().Errorw("envelope encode failed", "err", err)
	}
}
