package version

import (
	"time"
)

// Reserved is the version that can never be deleted.  It is the fallback
// edition the public site serves when nothing else has been activated.
const Reserved = "v1"

// Record mirrors one row in the persistent `landing_pages` table.  The
// on-disk directory named after VersionName is the authoritative content
// store; this row is a metadata index over it and can drift from disk until
// the next Sync.
//
//   - VersionName – unique `v<N>` identifier, immutable once created.
//   - IsActive    – at most one row true at a time; flipped atomically by
//     Registry.Activate.
//   - SortOrder   – dashboard ordering, user-reorderable.
type Record struct {
	ID           int64      `db:"id" json:"id"`
	VersionName  string     `db:"version_name" json:"version_name"`
	DisplayName  *string    `db:"display_name" json:"display_name"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	SortOrder    int        `db:"sort_order" json:"sort_order"`
	VisitorCount int64      `db:"visitor_count" json:"visitor_count"`
	LastVisit    *time.Time `db:"last_visit" json:"last_visit"`
	ActivatedAt  *time.Time `db:"activated_at" json:"activated_at"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// Label returns the display name when set, the version name otherwise.
func (r Record) Label() string {
	if r.DisplayName != nil && *r.DisplayName != "" {
		return *r.DisplayName
	}
	return r.VersionName
}

// ReorderEntry pairs a version with its new sort position.
type ReorderEntry struct {
	Version   string `json:"version" validate:"required"`
	SortOrder int    `json:"sort_order"`
}
