// components/pages/pages.go
//
// Public landing-page serving.
//
/*
Context
--------
Three public surfaces, all read-only:

  /                  – the active version's entry point and its assets.
  /v/{version}/…     – a specific version, for previews and A/B links.
  /view/{version}/…  – the iframe target used by synthesized wrappers.

Every path resolves through the version metadata cache and hands the file
to the asset server, which applies the HTML rewrites and MIME table.  A
page view on the entry point bumps the visit counter unless the UA parses
as a crawler; a `?ref=` code additionally records an affiliate referral.

This component mounts at "/" and must register last so it does not shadow
the API routes.

Notes
-----
  • Oxford commas, two spaces after periods.
*/
package pages

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/indoai-web/web-sub001/internal/assets"
	"github.com/indoai-web/web-sub001/internal/component"
	"github.com/indoai-web/web-sub001/internal/httpx"
	"github.com/indoai-web/web-sub001/internal/member"
	"github.com/indoai-web/web-sub001/internal/requestinfo"
	"github.com/indoai-web/web-sub001/internal/version"
)

var _ component.Component = (*Component)(nil)

// Component serves the public site.
type Component struct {
	registry *version.Registry
	infos    *version.InfoCache
	assets   *assets.Server
	members  *member.Repository
}

// New constructs the component with its dependencies.
func New(reg *version.Registry, infos *version.InfoCache, srv *assets.Server, members *member.Repository) *Component {
	return &Component{registry: reg, infos: infos, assets: srv, members: members}
}

/*────────────────── component.Component methods ───────────────────────────*/

func (c *Component) Name() string      { return "pages" }
func (c *Component) MountPath() string { return "/" }

func (c *Component) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/v/{version}", c.handleVersion)
	r.Get("/v/{version}/*", c.handleVersion)
	r.Get("/view/{version}", c.handleVersion)
	r.Get("/view/{version}/*", c.handleVersion)
	r.Get("/", c.handleActive)
	r.Get("/*", c.handleActive)
	return r
}

/*──────────────────────────── Handlers ─────────────────────────────────────*/

// handleActive serves the currently active version.
func (c *Component) handleActive(w http.ResponseWriter, r *http.Request) {
	active, err := c.registry.GetActive(r.Context())
	if err != nil {
		if errors.Is(err, version.ErrNotFound) {
			httpx.NotFound(w, "no active landing page")
			return
		}
		httpx.Internal(w, err)
		return
	}
	c.serve(w, r, active.VersionName, chi.URLParam(r, "*"), true)
}

// handleVersion serves an explicitly named version; previews do not count
// as visits.
func (c *Component) handleVersion(w http.ResponseWriter, r *http.Request) {
	c.serve(w, r, chi.URLParam(r, "version"), chi.URLParam(r, "*"), false)
}

func (c *Component) serve(w http.ResponseWriter, r *http.Request, name, rel string, countVisit bool) {
	info, err := c.infos.Get(name)
	if err != nil {
		if errors.Is(err, version.ErrNoDirectory) {
			httpx.NotFound(w, "unknown version "+name)
			return
		}
		httpx.Internal(w, err)
		return
	}

	if countVisit && (rel == "" || rel == info.Entry) {
		c.trackVisit(r, name)
	}
	c.assets.ServeFile(w, r, info, rel)
}

// trackVisit bumps the counter for human traffic and records referrals.
func (c *Component) trackVisit(r *http.Request, name string) {
	if v := requestinfo.FromContext(r.Context()); v != nil && v.IsBot {
		return
	}
	c.registry.TrackVisit(r.Context(), name)

	if ref := r.URL.Query().Get("ref"); ref != "" {
		if err := c.members.TrackReferral(r.Context(), ref, uuid.NewString()); err != nil {
			zap.S().Warnw("referral tracking failed", "code", ref, "err", err)
		}
	}
}
