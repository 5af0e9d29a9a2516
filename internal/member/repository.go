// internal/member/repository.go
//
// Member-area queries: resources, materials, invitations, and referrals.
//
// Every handler in the member dashboard is one or two queries deep, so the
// whole data layer fits in a single repository.  Rows are returned as-is
// for the JSON envelope; there is no domain logic to speak of here.
package member

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Resource is a downloadable or linkable asset shared with members.
type Resource struct {
	ID        int64          `db:"id" json:"id"`
	Title     string         `db:"title" json:"title"`
	URL       string         `db:"url" json:"url"`
	Category  *string   `db:"category" json:"category"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Material is a course or training item with an ordering.
type Material struct {
	ID        int64     `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Body      string    `db:"body" json:"body"`
	SortOrder int       `db:"sort_order" json:"sort_order"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Invitation is a member's invite to a prospect.
type Invitation struct {
	ID        int64     `db:"id" json:"id"`
	ProfileID string    `db:"profile_id" json:"profile_id"`
	Code      string    `db:"code" json:"code"`
	GuestName string    `db:"guest_name" json:"guest_name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Referral is one affiliate referral credited to a member.
type Referral struct {
	ID         int64     `db:"id" json:"id"`
	ProfileID  string    `db:"profile_id" json:"profile_id"`
	VisitorRef string    `db:"visitor_ref" json:"visitor_ref"`
	Status     string    `db:"status" json:"status"`
	Reward     *string   `db:"reward" json:"reward"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Repository wraps the member-area tables.
type Repository struct {
	db *sqlx.DB
}

// NewRepository returns a Repository over db.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Resources lists shared resources, newest first.
func (r *Repository) Resources(ctx context.Context) ([]Resource, error) {
	var out []Resource
	err := r.db.SelectContext(ctx, &out, `
        SELECT id, title, url, category, created_at
        FROM   resources
        ORDER  BY created_at DESC`)
	return out, err
}

// Materials lists training materials in their configured order.
func (r *Repository) Materials(ctx context.Context) ([]Material, error) {
	var out []Material
	err := r.db.SelectContext(ctx, &out, `
        SELECT id, title, body, sort_order, created_at
        FROM   materials
        ORDER  BY sort_order, id`)
	return out, err
}

// Invitations lists the member's own invitations.
func (r *Repository) Invitations(ctx context.Context, profileID string) ([]Invitation, error) {
	var out []Invitation
	err := r.db.SelectContext(ctx, &out, `
        SELECT id, profile_id, code, guest_name, created_at
        FROM   invitations
        WHERE  profile_id = $1
        ORDER  BY created_at DESC`, profileID)
	return out, err
}

// CreateInvitation mints a new invite code for the member.
func (r *Repository) CreateInvitation(ctx context.Context, profileID, guestName string) (*Invitation, error) {
	inv := Invitation{
		ProfileID: profileID,
		Code:      uuid.NewString()[:8],
		GuestName: guestName,
	}
	err := r.db.GetContext(ctx, &inv.ID, `
        INSERT INTO invitations (profile_id, code, guest_name, created_at)
        VALUES ($1, $2, $3, NOW())
        RETURNING id`, inv.ProfileID, inv.Code, inv.GuestName)
	if err != nil {
		return nil, err
	}
	inv.CreatedAt = time.Now()
	return &inv, nil
}

// Referrals lists the member's affiliate referrals.
func (r *Repository) Referrals(ctx context.Context, profileID string) ([]Referral, error) {
	var out []Referral
	err := r.db.SelectContext(ctx, &out, `
        SELECT id, profile_id, visitor_ref, status, reward, created_at
        FROM   affiliate_referrals
        WHERE  profile_id = $1
        ORDER  BY created_at DESC`, profileID)
	return out, err
}

// TrackReferral records a landing-page visit that carried a referral code.
// Best-effort: an unknown code is ignored.
func (r *Repository) TrackReferral(ctx context.Context, referralCode, visitorRef string) error {
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO affiliate_referrals (profile_id, visitor_ref, status, created_at)
        SELECT id, $2, 'visited', NOW()
        FROM   profiles
        WHERE  referral_code = $1`, referralCode, visitorRef)
	return err
}
