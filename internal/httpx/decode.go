// internal/httpx/decode.go
//
// Request-body decoding shared by the API components.
package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
)

// Decode unmarshals a JSON request body into dst, rejecting unknown fields.
func Decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// DecodeLoose accepts either a JSON object or a form-encoded body and
// returns it as a flat string map.  The gateway's webhooks use both
// encodings depending on firmware, so both must parse.
func DecodeLoose(r *http.Request) (map[string]string, error) {
	ct := r.Header.Get("Content-Type")
	switch {
	case strings.HasPrefix(ct, "application/json"):
		var raw map[string]any
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			return nil, err
		}
		out := make(map[string]string, len(raw))
		for k, v := range raw {
			if s, ok := v.(string); ok {
				out[k] = s
			}
		}
		return out, nil
	case strings.HasPrefix(ct, "application/x-www-form-urlencoded"),
		strings.HasPrefix(ct, "multipart/form-data"):
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
		return flatten(r.PostForm), nil
	default:
		// Some gateway builds omit Content-Type on form posts.
		if err := r.ParseForm(); err == nil && len(r.PostForm) > 0 {
			return flatten(r.PostForm), nil
		}
		return nil, errors.New("unsupported content type")
	}
}

func flatten(v url.Values) map[string]string {
	out := make(map[string]string, len(v))
	for k := range v {
		out[k] = v.Get(k)
	}
	return out
}
