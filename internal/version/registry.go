// internal/version/registry.go
//
// Version registry – CRUD and reconciliation over `landing_pages`.
//
/*
Context
--------
The registry is a thin metadata index over the on-disk version directories.
Disk is the authoritative content store; rows here carry the flags the
dashboard and the public router need (active edition, ordering, counters).

Two operations are deliberately single-statement so concurrent admins cannot
observe a half-applied state:

  • Create   – the next `v<N>` name is computed and inserted in one
    INSERT … SELECT, so two racing uploads cannot both claim the same
    number (the unique index on version_name breaks any remaining tie).
  • Activate – one UPDATE sets is_active for every row at once; readers
    never see zero or two active versions.

Known divergence, accepted by design of the workflow (not silently fixed):
folder creation proceeds even when the DB insert fails, and Sync only adds
rows for unknown folders—it never deletes.  The reserved v1 edition cannot
be removed at all.

Notes
-----
  • Postgres placeholders ($1 …), sqlx Get/Select helpers.
  • Oxford commas, two spaces after periods.
*/
package version

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrNotFound is returned when a version name has no registry row.
var ErrNotFound = errors.New("version not found")

// ErrReserved is returned when an operation would remove the reserved
// v1 edition.
var ErrReserved = errors.New("the v1 version is reserved and cannot be deleted")

var namePattern = regexp.MustCompile(`^v\d+$`)

// Registry persists version metadata and keeps it loosely in step with the
// directories under versionsRoot.
type Registry struct {
	db           *sqlx.DB
	versionsRoot string
}

// NewRegistry returns a Registry over db and the given versions directory.
func NewRegistry(db *sqlx.DB, versionsRoot string) *Registry {
	return &Registry{db: db, versionsRoot: versionsRoot}
}

// Root returns the absolute versions directory.
func (g *Registry) Root() string { return g.versionsRoot }

// Dir returns the absolute directory for one version.
func (g *Registry) Dir(name string) string {
	return filepath.Join(g.versionsRoot, name)
}

/*──────────────────────────── queries ─────────────────────────────────────*/

// List returns every version ordered for the dashboard.
func (g *Registry) List(ctx context.Context) ([]Record, error) {
	const q = `
        SELECT id, version_name, display_name, is_active, sort_order,
               visitor_count, last_visit, activated_at, created_at
        FROM   landing_pages
        ORDER  BY sort_order, id`
	var rows []Record
	if err := g.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, err
	}
	return rows, nil
}

// Get fetches a single version row by name.
func (g *Registry) Get(ctx context.Context, name string) (*Record, error) {
	const q = `
        SELECT id, version_name, display_name, is_active, sort_order,
               visitor_count, last_visit, activated_at, created_at
        FROM   landing_pages
        WHERE  version_name = $1
        LIMIT  1`
	var rec Record
	if err := g.db.GetContext(ctx, &rec, q, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// GetActive returns the currently live version, or ErrNotFound when no row
// is active (fresh install before the first activation).
func (g *Registry) GetActive(ctx context.Context) (*Record, error) {
	const q = `
        SELECT id, version_name, display_name, is_active, sort_order,
               visitor_count, last_visit, activated_at, created_at
        FROM   landing_pages
        WHERE  is_active = TRUE
        LIMIT  1`
	var rec Record
	if err := g.db.GetContext(ctx, &rec, q); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

/*──────────────────────────── mutations ───────────────────────────────────*/

// Create provisions the next `v<N>` row in one atomic statement and returns
// its name.  The name is derived from MAX(existing numeric suffix) inside
// the INSERT itself, so racing creators cannot compute the same number from
// stale reads; the unique index on version_name settles any residual race.
func (g *Registry) Create(ctx context.Context) (string, error) {
	const q = `
        INSERT INTO landing_pages (version_name, is_active, sort_order, visitor_count)
        SELECT 'v' || (COALESCE(MAX(SUBSTRING(version_name FROM 2)::int), 0) + 1),
               FALSE,
               COALESCE(MAX(sort_order), 0) + 1,
               0
        FROM   landing_pages
        WHERE  version_name ~ '^v[0-9]+$'
        RETURNING version_name`
	var name string
	if err := g.db.GetContext(ctx, &name, q); err != nil {
		return "", err
	}
	return name, nil
}

// Register upserts a row for a version that already exists on disk (upload
// and build paths).  Existing rows are left untouched.
func (g *Registry) Register(ctx context.Context, name string) error {
	const q = `
        INSERT INTO landing_pages (version_name, is_active, sort_order, visitor_count)
        VALUES ($1, FALSE,
                (SELECT COALESCE(MAX(sort_order), 0) + 1 FROM landing_pages),
                0)
        ON CONFLICT (version_name) DO NOTHING`
	_, err := g.db.ExecContext(ctx, q, name)
	return err
}

// Activate makes name the single live version.  The whole transition is one
// UPDATE: every row's is_active becomes (version_name = $1), and only the
// target gains a fresh activated_at.  Calling it twice is a no-op the
// second time.
func (g *Registry) Activate(ctx context.Context, name string) error {
	if _, err := g.Get(ctx, name); err != nil {
		return err
	}
	const q = `
        UPDATE landing_pages
        SET    is_active    = (version_name = $1),
               activated_at = CASE WHEN version_name = $1 THEN NOW()
                                   ELSE activated_at END`
	_, err := g.db.ExecContext(ctx, q, name)
	return err
}

// Delete removes the row and then the directory.  v1 is rejected before
// anything is touched.  When the DB delete succeeds but the directory
// removal fails, the orphaned directory is surfaced only via the returned
// error; the next Sync will re-register it.
func (g *Registry) Delete(ctx context.Context, name string) error {
	if name == Reserved {
		return ErrReserved
	}
	res, err := g.db.ExecContext(ctx,
		`DELETE FROM landing_pages WHERE version_name = $1`, name)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if err := os.RemoveAll(g.Dir(name)); err != nil {
		return fmt.Errorf("row deleted but directory removal failed: %w", err)
	}
	return nil
}

// Rename updates the human-facing display name; version_name is immutable.
func (g *Registry) Rename(ctx context.Context, name, display string) error {
	res, err := g.db.ExecContext(ctx,
		`UPDATE landing_pages SET display_name = $2 WHERE version_name = $1`,
		name, display)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Reorder applies the given sort positions, one UPDATE per entry, run
// concurrently.  The first error is returned; sibling updates that already
// committed stay committed (no rollback, matching the dashboard's
// optimistic drag-and-drop).
func (g *Registry) Reorder(ctx context.Context, entries []ReorderEntry) error {
	// Plain Group, not WithContext: one failing entry must not cancel its
	// siblings mid-flight.
	var eg errgroup.Group
	for _, e := range entries {
		eg.Go(func() error {
			_, err := g.db.ExecContext(ctx,
				`UPDATE landing_pages SET sort_order = $2 WHERE version_name = $1`,
				e.Version, e.SortOrder)
			return err
		})
	}
	return eg.Wait()
}

// TrackVisit bumps the visitor counter and stamps last_visit.  Missing rows
// are ignored; analytics must never break serving.
func (g *Registry) TrackVisit(ctx context.Context, name string) {
	_, err := g.db.ExecContext(ctx, `
        UPDATE landing_pages
        SET    visitor_count = visitor_count + 1,
               last_visit    = NOW()
        WHERE  version_name = $1`, name)
	if err != nil {
		zap.S().Warnw("visit tracking failed", "version", name, "err", err)
	}
}

/*──────────────────────────── reconciliation ──────────────────────────────*/

// Sync registers every on-disk version folder the DB does not know yet.
// One-directional: rows whose folders were deleted out-of-band are kept.
// Returns the names that were added.
func (g *Registry) Sync(ctx context.Context) ([]string, error) {
	onDisk, err := g.DiskVersions()
	if err != nil {
		return nil, err
	}

	var known []string
	if err := g.db.SelectContext(ctx, &known,
		`SELECT version_name FROM landing_pages`); err != nil {
		return nil, err
	}
	have := make(map[string]bool, len(known))
	for _, k := range known {
		have[k] = true
	}

	var added []string
	for _, name := range onDisk {
		if have[name] {
			continue
		}
		if err := g.Register(ctx, name); err != nil {
			return added, err
		}
		added = append(added, name)
	}
	if len(added) > 0 {
		zap.S().Infow("sync registered folders", "added", added)
	}
	return added, nil
}

// DiskVersions lists the `v<N>` directories under versionsRoot, sorted by
// their numeric suffix.
func (g *Registry) DiskVersions() ([]string, error) {
	ents, err := os.ReadDir(g.versionsRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range ents {
		if e.IsDir() && namePattern.MatchString(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sortByNumber(names)
	return names, nil
}

// NextDiskName derives `v<max+1>` from the folders on disk.  Used as the
// fallback when the DB insert in Create fails but the workflow still needs
// a directory to write into.
func (g *Registry) NextDiskName() (string, error) {
	names, err := g.DiskVersions()
	if err != nil {
		return "", err
	}
	max := 0
	for _, n := range names {
		if num, err := strconv.Atoi(strings.TrimPrefix(n, "v")); err == nil && num > max {
			max = num
		}
	}
	return "v" + strconv.Itoa(max+1), nil
}

func sortByNumber(names []string) {
	num := func(s string) int {
		n, _ := strconv.Atoi(strings.TrimPrefix(s, "v"))
		return n
	}
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && num(names[j]) < num(names[j-1]); j-- {
			names[j], names[j-1] = names[j-1], names[j]
		}
	}
}
