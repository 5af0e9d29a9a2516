// components/member/member.go
//
// Member area: login, dashboard data, invitations, and referrals.
//
/*
Context
--------
Members sign in against the profiles table and get a signed session
cookie.  Everything behind the login is a thin read: shared resources,
training materials, the member's own invitations, and their affiliate
referrals.  Invitation creation is the one write.

Login failures answer with the same message for unknown email and wrong
password so the endpoint does not leak which emails exist.

Notes
-----
  • Oxford commas, two spaces after periods.
*/
package member

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/indoai-web/web-sub001/internal/auth"
	"github.com/indoai-web/web-sub001/internal/component"
	"github.com/indoai-web/web-sub001/internal/config"
	"github.com/indoai-web/web-sub001/internal/httpx"
	"github.com/indoai-web/web-sub001/internal/member"
	"github.com/indoai-web/web-sub001/internal/profile"
	"github.com/indoai-web/web-sub001/internal/session"
)

var _ component.Component = (*Component)(nil)

// Component is the member-facing API.
type Component struct {
	profiles *profile.Repository
	repo     *member.Repository
	validate *validator.Validate
}

// New constructs the component.
func New(profiles *profile.Repository, repo *member.Repository) *Component {
	return &Component{profiles: profiles, repo: repo, validate: validator.New()}
}

/*────────────────── component.Component methods ───────────────────────────*/

func (c *Component) Name() string      { return "member" }
func (c *Component) MountPath() string { return "/api/member" }

func (c *Component) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/login", c.handleLogin)
	r.Post("/logout", c.handleLogout)

	r.Group(func(m chi.Router) {
		m.Use(auth.RequireMember(config.Get().Session.Secret))
		m.Get("/me", c.handleMe)
		m.Get("/resources", c.handleResources)
		m.Get("/materials", c.handleMaterials)
		m.Get("/invitations", c.handleInvitations)
		m.Post("/invitations", c.handleCreateInvitation)
		m.Get("/referrals", c.handleReferrals)
	})
	return r
}

/*──────────────────────────── Handlers ─────────────────────────────────────*/

func (c *Component) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	if err := httpx.Decode(r, &body); err != nil {
		httpx.BadRequest(w, "malformed JSON body")
		return
	}
	if err := c.validate.Struct(body); err != nil {
		httpx.BadRequest(w, "email and password are required")
		return
	}

	rec, err := c.profiles.Authenticate(r.Context(), body.Email, body.Password)
	if err != nil {
		if errors.Is(err, profile.ErrBadCredentials) {
			httpx.BadRequest(w, err.Error())
			return
		}
		httpx.Internal(w, err)
		return
	}

	session.Login(w, r, config.Get().Session.Secret, session.Identity{
		ProfileID: rec.ID,
		Email:     rec.Email,
		Role:      rec.Role,
	})
	httpx.OK(w, map[string]string{"email": rec.Email, "role": rec.Role})
}

func (c *Component) handleLogout(w http.ResponseWriter, r *http.Request) {
	session.Logout(w, r)
	httpx.OK(w, map[string]bool{"logged_out": true})
}

func (c *Component) handleMe(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())
	httpx.OK(w, map[string]string{
		"profile_id": id.ProfileID,
		"email":      id.Email,
		"role":       id.Role,
	})
}

func (c *Component) handleResources(w http.ResponseWriter, r *http.Request) {
	out, err := c.repo.Resources(r.Context())
	if err != nil {
		httpx.Internal(w, err)
		return
	}
	httpx.OK(w, out)
}

func (c *Component) handleMaterials(w http.ResponseWriter, r *http.Request) {
	out, err := c.repo.Materials(r.Context())
	if err != nil {
		httpx.Internal(w, err)
		return
	}
	httpx.OK(w, out)
}

func (c *Component) handleInvitations(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())
	out, err := c.repo.Invitations(r.Context(), id.ProfileID)
	if err != nil {
		httpx.Internal(w, err)
		return
	}
	httpx.OK(w, out)
}

func (c *Component) handleCreateInvitation(w http.ResponseWriter, r *http.Request) {
	var body struct {
		GuestName string `json:"guest_name" validate:"required,max=120"`
	}
	if err := httpx.Decode(r, &body); err != nil {
		httpx.BadRequest(w, "malformed JSON body")
		return
	}
	if err := c.validate.Struct(body); err != nil {
		httpx.BadRequest(w, "guest_name is required (max 120 chars)")
		return
	}

	id, _ := auth.IdentityFrom(r.Context())
	inv, err := c.repo.CreateInvitation(r.Context(), id.ProfileID, body.GuestName)
	if err != nil {
		httpx.Internal(w, err)
		return
	}
	httpx.Created(w, inv)
}

func (c *Component) handleReferrals(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())
	out, err := c.repo.Referrals(r.Context(), id.ProfileID)
	if err != nil {
		httpx.Internal(w, err)
		return
	}
	httpx.OK(w, out)
}
