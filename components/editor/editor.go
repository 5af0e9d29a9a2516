// components/editor/editor.go
//
// Admin API for editing version source files.
//
/*
Context
--------
Two editing modes share this surface.  Code mode lists editable files,
loads one with a syntax-mode hint, and saves raw content.  Visual mode
takes the element the admin clicked in the preview iframe (tag, old
rendered text, new text) and pushes it through the three-tier matcher; an
ambiguous or failed match comes back as a structured refusal instead of a
blind rewrite.

Saves go straight to the version directory; no rebuild is triggered, and
the version's metadata cache entry is dropped so a renamed entry point is
picked up.

Notes
-----
  • Oxford commas, two spaces after periods.
*/
package editor

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/indoai-web/web-sub001/internal/auth"
	"github.com/indoai-web/web-sub001/internal/component"
	"github.com/indoai-web/web-sub001/internal/config"
	"github.com/indoai-web/web-sub001/internal/editor"
	"github.com/indoai-web/web-sub001/internal/httpx"
	"github.com/indoai-web/web-sub001/internal/version"
)

var _ component.Component = (*Component)(nil)

// Component exposes file and visual editing for one version at a time.
type Component struct {
	registry *version.Registry
	infos    *version.InfoCache
	validate *validator.Validate
}

// New constructs the component.
func New(reg *version.Registry, infos *version.InfoCache) *Component {
	return &Component{registry: reg, infos: infos, validate: validator.New()}
}

/*────────────────── component.Component methods ───────────────────────────*/

func (c *Component) Name() string      { return "editor" }
func (c *Component) MountPath() string { return "/api/editor" }

func (c *Component) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireAdmin(config.Get().Session.Secret))

	r.Get("/{version}/files", c.handleList)
	r.Get("/{version}/file", c.handleLoad)
	r.Put("/{version}/file", c.handleSave)
	r.Post("/{version}/visual", c.handleVisual)
	return r
}

/*──────────────────────────── Handlers ─────────────────────────────────────*/

func (c *Component) root(r *http.Request) string {
	return c.registry.Dir(chi.URLParam(r, "version"))
}

func (c *Component) handleList(w http.ResponseWriter, r *http.Request) {
	files, err := editor.ListFiles(c.root(r))
	if err != nil {
		httpx.NotFound(w, "unknown version "+chi.URLParam(r, "version"))
		return
	}
	httpx.OK(w, files)
}

func (c *Component) handleLoad(w http.ResponseWriter, r *http.Request) {
	rel := r.URL.Query().Get("path")
	if rel == "" {
		httpx.BadRequest(w, "missing path query parameter")
		return
	}
	content, mode, err := editor.Load(c.root(r), rel)
	if err != nil {
		writeEditorError(w, rel, err)
		return
	}
	httpx.OK(w, map[string]string{"path": rel, "mode": mode, "content": content})
}

func (c *Component) handleSave(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Path    string `json:"path" validate:"required"`
		Content string `json:"content"`
	}
	if err := httpx.Decode(r, &body); err != nil {
		httpx.BadRequest(w, "malformed JSON body")
		return
	}
	if err := c.validate.Struct(body); err != nil {
		httpx.BadRequest(w, "path is required")
		return
	}

	if err := editor.Save(c.root(r), body.Path, body.Content); err != nil {
		writeEditorError(w, body.Path, err)
		return
	}
	c.infos.Invalidate(chi.URLParam(r, "version"))
	httpx.OK(w, map[string]string{"saved": body.Path})
}

// handleVisual applies one visual edit to the version's entry point or to
// an explicitly named file.
func (c *Component) handleVisual(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Path       string `json:"path"`
		TagName    string `json:"tag_name" validate:"required"`
		OldContent string `json:"old_content" validate:"required"`
		NewContent string `json:"new_content"`
	}
	if err := httpx.Decode(r, &body); err != nil {
		httpx.BadRequest(w, "malformed JSON body")
		return
	}
	if err := c.validate.Struct(body); err != nil {
		httpx.BadRequest(w, "tag_name and old_content are required")
		return
	}

	name := chi.URLParam(r, "version")
	rel := body.Path
	if rel == "" {
		info, err := c.infos.Get(name)
		if err != nil {
			httpx.NotFound(w, "unknown version "+name)
			return
		}
		rel = info.Entry
	}

	source, _, err := editor.Load(c.root(r), rel)
	if err != nil {
		writeEditorError(w, rel, err)
		return
	}

	res := editor.Apply(source, body.OldContent, body.NewContent, body.TagName)
	if res.Outcome != editor.Matched {
		httpx.OK(w, map[string]any{
			"applied": false,
			"outcome": res.Outcome.String(),
			"tier":    res.Tier,
			"message": editor.UserMessage(res),
		})
		return
	}

	if err := editor.Save(c.root(r), rel, res.Source); err != nil {
		writeEditorError(w, rel, err)
		return
	}
	c.infos.Invalidate(name)
	httpx.OK(w, map[string]any{"applied": true, "tier": res.Tier, "path": rel})
}

func writeEditorError(w http.ResponseWriter, rel string, err error) {
	switch {
	case errors.Is(err, editor.ErrNotEditable), errors.Is(err, editor.ErrOutsideRoot):
		httpx.BadRequest(w, err.Error())
	default:
		httpx.NotFound(w, "file not found: "+rel)
	}
}
