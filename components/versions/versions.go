// components/versions/versions.go
//
// Admin API for the landing-page version lifecycle.
//
/*
Context
--------
Everything the dashboard does to versions goes through here: list, upload a
zip, run a build, create an empty slot, activate, rename, reorder, delete,
and sync disk folders into the registry.  The handlers stay thin; the work
lives in internal/version.

Upload decides the path by zip content: a raw source bundle (package.json
and no root index.html) is staged for a later build call, a ready bundle is
extracted and normalized immediately.  Either way the metadata cache entry
for that version is dropped.

All routes require an admin session.

Notes
-----
  • Upload bodies are capped at 100 MiB.
  • Oxford commas, two spaces after periods.
*/
package versions

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/indoai-web/web-sub001/internal/auth"
	"github.com/indoai-web/web-sub001/internal/component"
	"github.com/indoai-web/web-sub001/internal/config"
	"github.com/indoai-web/web-sub001/internal/httpx"
	"github.com/indoai-web/web-sub001/internal/version"
)

var _ component.Component = (*Component)(nil)

const maxUploadBytes = 100 << 20

// Component wires the version registry, extractor, and builder.
type Component struct {
	registry  *version.Registry
	extractor *version.Extractor
	builder   *version.Builder
	infos     *version.InfoCache
	validate  *validator.Validate
}

// New constructs the component with its dependencies.
func New(reg *version.Registry, ext *version.Extractor, bld *version.Builder, infos *version.InfoCache) *Component {
	return &Component{
		registry:  reg,
		extractor: ext,
		builder:   bld,
		infos:     infos,
		validate:  validator.New(),
	}
}

/*────────────────── component.Component methods ───────────────────────────*/

func (c *Component) Name() string      { return "versions" }
func (c *Component) MountPath() string { return "/api/versions" }

// Routes builds the admin-only router.
func (c *Component) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireAdmin(config.Get().Session.Secret))

	r.Get("/", c.handleList)
	r.Post("/", c.handleCreate)
	r.Post("/upload", c.handleUpload)
	r.Post("/reorder", c.handleReorder)
	r.Post("/sync", c.handleSync)
	r.Post("/{name}/build", c.handleBuild)
	r.Post("/{name}/activate", c.handleActivate)
	r.Put("/{name}/rename", c.handleRename)
	r.Delete("/{name}", c.handleDelete)
	return r
}

/*──────────────────────────── Handlers ─────────────────────────────────────*/

func (c *Component) handleList(w http.ResponseWriter, r *http.Request) {
	records, err := c.registry.List(r.Context())
	if err != nil {
		httpx.Internal(w, err)
		return
	}
	httpx.OK(w, records)
}

func (c *Component) handleCreate(w http.ResponseWriter, r *http.Request) {
	name, err := c.registry.Create(r.Context())
	if err != nil {
		httpx.Internal(w, err)
		return
	}
	httpx.Created(w, map[string]string{"version": name})
}

// handleUpload accepts a multipart zip.  Form field "version" targets an
// existing slot; when absent a new version is allocated.
func (c *Component) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httpx.BadRequest(w, "upload too large or malformed")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		httpx.BadRequest(w, "missing zip file field")
		return
	}
	defer file.Close()
	buf, err := io.ReadAll(file)
	if err != nil {
		httpx.Internal(w, err)
		return
	}

	needsBuild, err := version.Classify(buf)
	if err != nil {
		httpx.BadRequest(w, err.Error())
		return
	}

	// Raw uploads stay unregistered until their build succeeds; ready
	// uploads claim an atomic row up front.
	name := r.FormValue("version")
	if name == "" {
		if needsBuild {
			if name, err = c.registry.NextDiskName(); err != nil {
				httpx.Internal(w, err)
				return
			}
		} else if name, err = c.registry.Create(r.Context()); err != nil {
			// Extraction proceeds on disk so the upload is not lost, and
			// Sync can adopt the folder later.
			zap.S().Warnw("version row insert failed, continuing on disk", "err", err)
			if name, err = c.registry.NextDiskName(); err != nil {
				httpx.Internal(w, err)
				return
			}
		}
	}

	result, err := c.extractor.Process(buf, name)
	if err != nil {
		httpx.BadRequest(w, err.Error())
		return
	}
	c.infos.Invalidate(name)
	httpx.OK(w, result)
}

// handleBuild runs the bounded external build for a staged raw upload.
func (c *Component) handleBuild(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	err := c.builder.Run(r.Context(), c.builder.StagedZip(name), name)
	c.infos.Invalidate(name)
	if err != nil {
		var bErr *version.BuildError
		if errors.As(err, &bErr) {
			httpx.InternalDetail(w, bErr.Error(), map[string]any{
				"built":     false,
				"stage":     bErr.Stage,
				"timed_out": bErr.TimedOut,
				"stdout":    bErr.Stdout,
				"stderr":    bErr.Stderr,
			})
			return
		}
		httpx.Internal(w, err)
		return
	}
	// The version earns its registry row once the build has produced a
	// servable directory.
	if err := c.registry.Register(r.Context(), name); err != nil {
		zap.S().Warnw("post-build registration failed, sync will adopt it",
			"version", name, "err", err)
	}
	httpx.OK(w, map[string]any{"built": true, "version": name})
}

func (c *Component) handleActivate(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := c.registry.Activate(r.Context(), name); err != nil {
		if errors.Is(err, version.ErrNotFound) {
			httpx.NotFound(w, "unknown version "+name)
			return
		}
		httpx.Internal(w, err)
		return
	}
	httpx.OK(w, map[string]string{"active": name})
}

func (c *Component) handleDelete(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := c.registry.Delete(r.Context(), name); err != nil {
		if errors.Is(err, version.ErrReserved) {
			httpx.BadRequest(w, err.Error())
			return
		}
		if errors.Is(err, version.ErrNotFound) {
			httpx.NotFound(w, "unknown version "+name)
			return
		}
		httpx.Internal(w, err)
		return
	}
	c.infos.Invalidate(name)
	httpx.OK(w, map[string]string{"deleted": name})
}

func (c *Component) handleRename(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DisplayName string `json:"display_name" validate:"required,max=120"`
	}
	if err := httpx.Decode(r, &body); err != nil {
		httpx.BadRequest(w, "malformed JSON body")
		return
	}
	if err := c.validate.Struct(body); err != nil {
		httpx.BadRequest(w, "display_name is required (max 120 chars)")
		return
	}

	name := chi.URLParam(r, "name")
	if err := c.registry.Rename(r.Context(), name, body.DisplayName); err != nil {
		if errors.Is(err, version.ErrNotFound) {
			httpx.NotFound(w, "unknown version "+name)
			return
		}
		httpx.Internal(w, err)
		return
	}
	httpx.OK(w, map[string]string{"version": name, "display_name": body.DisplayName})
}

func (c *Component) handleReorder(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Order []version.ReorderEntry `json:"order" validate:"required,min=1,dive"`
	}
	if err := httpx.Decode(r, &body); err != nil {
		httpx.BadRequest(w, "malformed JSON body")
		return
	}
	if err := c.validate.Struct(body); err != nil {
		httpx.BadRequest(w, "order must list at least one version")
		return
	}

	if err := c.registry.Reorder(r.Context(), body.Order); err != nil {
		// Siblings that committed stay committed; the caller re-lists to
		// see the resulting order.
		httpx.Internal(w, err)
		return
	}
	httpx.OK(w, map[string]int{"reordered": len(body.Order)})
}

func (c *Component) handleSync(w http.ResponseWriter, r *http.Request) {
	added, err := c.registry.Sync(r.Context())
	if err != nil {
		httpx.Internal(w, err)
		return
	}
	httpx.OK(w, map[string]any{"registered": added})
}
