// internal/profile/profile.go
//
// Profiles repository – members and admins.
//
// The `profiles` table carries one row per account.  Role is a plain text
// column ("member" or "admin"); the session cookie caches it after login,
// so these queries run once per login rather than once per request.
package profile

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

// ErrNotFound is returned when no profile matches.
var ErrNotFound = errors.New("profile not found")

// ErrBadCredentials is returned on a password mismatch.  It is deliberately
// indistinguishable from an unknown email at the API surface.
var ErrBadCredentials = errors.New("invalid email or password")

// Record mirrors one row in `profiles`.
type Record struct {
	ID           string         `db:"id"`
	Email        string         `db:"email"`
	PasswordHash string         `db:"password_hash"`
	Role         string         `db:"role"`
	FullName     sql.NullString `db:"full_name"`
	ReferralCode sql.NullString `db:"referral_code"`
	CreatedAt    time.Time      `db:"created_at"`
}

// Repository wraps profile queries.
type Repository struct {
	db *sqlx.DB
}

// NewRepository returns a Repository over db.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// ByEmail fetches one profile by email.
func (r *Repository) ByEmail(ctx context.Context, email string) (*Record, error) {
	const q = `
        SELECT id, email, password_hash, role, full_name, referral_code, created_at
        FROM   profiles
        WHERE  email = $1
        LIMIT  1`
	var rec Record
	if err := r.db.GetContext(ctx, &rec, q, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// Authenticate verifies email + password and returns the profile.
func (r *Repository) Authenticate(ctx context.Context, email, password string) (*Record, error) {
	rec, err := r.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrBadCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)) != nil {
		return nil, ErrBadCredentials
	}
	return rec, nil
}
