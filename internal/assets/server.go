// internal/assets/server.go
//
// File resolution and streaming for version directories.
//
/*
Context
--------
Given (version info, relative path), resolution probes in priority order:

  1. <version>/dist/<path>   – built bundles
  2. <version>/<path>        – flat uploads
  3. <version>/assets/<path> – bare asset names referenced by rewritten HTML

The first regular file wins; anything else is a miss.  HTML responses are
rewritten (see rewrite.go) and cached in a small LRU keyed by absolute path
plus mtime, so a hot landing page costs one read per deploy rather than one
per request.  Non-HTML files stream straight from disk.

Every path is cleaned and verified to stay inside the version root before
any disk access.

Notes
-----
  • Oxford commas, two spaces after periods.
*/
package assets

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/indoai-web/web-sub001/internal/cache"
	"github.com/indoai-web/web-sub001/internal/metrics"
	"github.com/indoai-web/web-sub001/internal/version"
)

// Server resolves and streams version files.
type Server struct {
	rewritten *cache.LRU // key: "abs|mtime-unixnano" → rewritten HTML string
}

// NewServer returns a Server with a rewrite cache of the given capacity.
func NewServer(cacheSize int) *Server {
	return &Server{rewritten: cache.New(cacheSize)}
}

// Resolve returns the absolute on-disk path for rel within info, probing
// dist, the version root, then the assets folder.  ok is false on a miss or
// an escape attempt.
func Resolve(info *version.Info, rel string) (string, bool) {
	rel = strings.TrimPrefix(filepath.Clean("/"+rel), "/")
	if rel == "" || rel == "." {
		rel = info.Entry
	}

	var probes []string
	if info.DistDir != "" {
		probes = append(probes, filepath.Join(info.DistDir, rel))
	}
	probes = append(probes,
		filepath.Join(info.Root, rel),
		filepath.Join(info.Root, "assets", rel),
	)

	for _, p := range probes {
		if !strings.HasPrefix(p, info.Root) {
			continue // cleaned path escaped the version directory
		}
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			return p, true
		}
	}
	return "", false
}

// ServeFile writes the resolved file to w, rewriting HTML on the way out.
// A miss writes a plain 404.
func (s *Server) ServeFile(w http.ResponseWriter, r *http.Request, info *version.Info, rel string) {
	abs, ok := Resolve(info, rel)
	if !ok {
		metrics.ServesTotal.WithLabelValues("miss").Inc()
		http.NotFound(w, r)
		return
	}

	if IsHTML(abs) {
		s.serveHTML(w, r, abs)
		return
	}

	f, err := os.Open(abs)
	if err != nil {
		metrics.ServesTotal.WithLabelValues("miss").Inc()
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", MIMEFor(abs))
	metrics.ServesTotal.WithLabelValues("asset").Inc()
	if _, err := io.Copy(w, f); err != nil {
		zap.S().Debugw("asset stream aborted", "file", abs, "err", err)
	}
}

// serveHTML reads, rewrites, caches, and writes one HTML file.
func (s *Server) serveHTML(w http.ResponseWriter, r *http.Request, abs string) {
	fi, err := os.Stat(abs)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	key := fmt.Sprintf("%s|%d", abs, fi.ModTime().UnixNano())

	var body string
	if v, ok := s.rewritten.Get(key); ok {
		body = v.(string)
	} else {
		raw, err := os.ReadFile(abs)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		body = RewriteHTML(string(raw))
		s.rewritten.Add(key, body)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	metrics.ServesTotal.WithLabelValues("html").Inc()
	_, _ = io.WriteString(w, body)
}
