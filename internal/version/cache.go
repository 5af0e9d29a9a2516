// internal/version/cache.go
//
// Runtime-info cache for version directories.
//
// Every request against a version needs the same three facts: where the
// directory is, whether a dist/ subtree exists, and which file is the entry
// point.  Resolving them costs a handful of stats, so the answers are
// cached in a sync.Map keyed by version name, loaded through singleflight
// so a burst of requests after activation resolves the directory once.
//
// Entries are invalidated explicitly by the upload, build, and delete
// paths, and reaped by a background loop on idle TTL or LRU pressure.
package version

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/indoai-web/web-sub001/internal/metrics"
)

// Cache tunables.
const (
	InfoIdleTTL       = 30 * time.Minute
	InfoMaxEntries    = 100
	infoEvictInterval = 5 * time.Minute
)

// ErrNoDirectory is returned when a version has no directory on disk.
var ErrNoDirectory = errors.New("version directory not found")

// Info is the resolved runtime view of one version directory.
type Info struct {
	Version string
	Root    string // absolute version directory
	DistDir string // absolute dist directory, or "" when none
	Entry   string // entry-point file name relative to Root
}

type infoEntry struct {
	info     *Info
	lastSeen int64 // UnixNano
}

// InfoCache lazily resolves versions, stores them in a sync.Map, and evicts
// them on idle TTL or LRU pressure.
type InfoCache struct {
	versionsRoot string
	sfg          singleflight.Group
	m            sync.Map
	evictTicker  *time.Ticker
	idleTTL      time.Duration
	maxEntries   int
}

// NewInfoCache constructs an InfoCache and starts the background evictor.
func NewInfoCache(versionsRoot string, idleTTL time.Duration, maxEntries int) *InfoCache {
	c := &InfoCache{
		versionsRoot: versionsRoot,
		idleTTL:      idleTTL,
		maxEntries:   maxEntries,
	}
	c.evictTicker = time.NewTicker(infoEvictInterval)
	go c.evictLoop()
	return c
}

// Get returns the Info for a version, resolving it on demand.
func (c *InfoCache) Get(name string) (*Info, error) {
	if v, ok := c.m.Load(name); ok {
		ent := v.(*infoEntry)
		atomic.StoreInt64(&ent.lastSeen, time.Now().UnixNano())
		return ent.info, nil
	}

	v, err, _ := c.sfg.Do(name, func() (interface{}, error) {
		// Double-check after singleflight barrier.
		if v, ok := c.m.Load(name); ok {
			ent := v.(*infoEntry)
			atomic.StoreInt64(&ent.lastSeen, time.Now().UnixNano())
			return ent.info, nil
		}
		info, err := resolveInfo(c.versionsRoot, name)
		if err != nil {
			return nil, err
		}
		ent := &infoEntry{info: info, lastSeen: time.Now().UnixNano()}
		c.m.Store(name, ent)
		metrics.VersionInfoLoadTotal.Inc()
		metrics.ActiveVersionInfos.Inc()
		return info, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Info), nil
}

// Invalidate drops a cached entry; the next Get re-resolves from disk.
// Called by upload, build, and delete so stale entry points never serve.
func (c *InfoCache) Invalidate(name string) {
	if _, loaded := c.m.LoadAndDelete(name); loaded {
		metrics.ActiveVersionInfos.Dec()
	}
}

// resolveInfo stats the directory once and derives the runtime view.
func resolveInfo(versionsRoot, name string) (*Info, error) {
	root := filepath.Join(versionsRoot, name)
	fi, err := os.Stat(root)
	if err != nil || !fi.IsDir() {
		return nil, ErrNoDirectory
	}

	info := &Info{Version: name, Root: root}

	if fi, err := os.Stat(filepath.Join(root, "dist")); err == nil && fi.IsDir() {
		info.DistDir = filepath.Join(root, "dist")
	}

	// Entry resolution mirrors the normalizer: the effective page root is
	// dist when present, the version directory otherwise.
	pageRoot := info.Root
	if info.DistDir != "" {
		pageRoot = info.DistDir
	}
	entry, err := resolveEntry(pageRoot)
	if err != nil {
		return nil, err
	}
	if entry == "" {
		entry = "index.html" // normalizer guarantees one exists for served versions
	}
	info.Entry = entry
	return info, nil
}

// evictLoop reaps idle entries and trims the map under LRU pressure.
func (c *InfoCache) evictLoop() {
	for range c.evictTicker.C {
		now := time.Now().UnixNano()
		var count int

		c.m.Range(func(key, value any) bool {
			count++
			ent := value.(*infoEntry)
			idle := time.Duration(now - atomic.LoadInt64(&ent.lastSeen))
			if idle > c.idleTTL {
				c.m.Delete(key)
				zap.S().Debugw("version info evicted (idle)",
					"version", key, "idle", idle.Truncate(time.Second))
				metrics.VersionInfoEvictTotal.Inc()
				metrics.ActiveVersionInfos.Dec()
			}
			return true
		})

		if c.maxEntries > 0 && count > c.maxEntries {
			type kv struct {
				key string
				at  int64
			}
			var all []kv
			c.m.Range(func(key, value any) bool {
				ent := value.(*infoEntry)
				all = append(all, kv{key: key.(string), at: ent.lastSeen})
				return true
			})
			sort.Slice(all, func(i, j int) bool { return all[i].at < all[j].at })
			for i := 0; i < count-c.maxEntries && i < len(all); i++ {
				if _, ok := c.m.LoadAndDelete(all[i].key); ok {
					zap.S().Debugw("version info evicted (LRU pressure)",
						"version", all[i].key)
					metrics.VersionInfoEvictTotal.Inc()
					metrics.ActiveVersionInfos.Dec()
				}
			}
		}
	}
}
