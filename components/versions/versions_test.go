// components/versions/versions_test.go
//
// Handler tests for the version admin API.
//
// Run: go test ./components/versions -v

package versions

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/indoai-web/web-sub001/internal/version"
)

// withURLParam injects a chi route parameter so handlers can be called
// without the full router.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestHandleBuildFailureReturns500(t *testing.T) {
	versionsRoot, temp := t.TempDir(), t.TempDir()
	c := &Component{
		builder: version.NewBuilder("true", "mkdir dist", time.Minute, versionsRoot, temp),
		infos:   version.NewInfoCache(versionsRoot, time.Minute, 8),
	}

	// No staged zip exists for v7, so the build fails in its extract stage.
	req := withURLParam(httptest.NewRequest(http.MethodPost, "/v7/build", nil), "name", "v7")
	rec := httptest.NewRecorder()
	c.handleBuild(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}

	var env struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
		Data    struct {
			Built bool   `json:"built"`
			Stage string `json:"stage"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if env.Success {
		t.Fatal("failed build must not report success")
	}
	if env.Error == "" {
		t.Fatal("envelope is missing the error message")
	}
	if env.Data.Built || env.Data.Stage != "extract" {
		t.Fatalf("data = %+v, want built=false stage=extract", env.Data)
	}
}
