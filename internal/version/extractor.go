// internal/version/extractor.go
//
// Archive extractor – classifies uploads and unpacks ready-to-serve ones.
//
/*
Context
--------
An uploaded zip is one of two things:

  • RAW SOURCE    – contains a package.json and no servable root
    index.html.  The buffer is parked in the staging directory as
    `<version>_raw.zip` and nothing touches the permanent version
    directory until the external builder runs.

  • READY TO SERVE – everything else.  Entries are extracted straight into
    the version directory (overwriting on conflict), and the normalizer
    then resolves nesting and the entry point.

The index.html probe tolerates one directory of nesting (`site/index.html`)
because zips exported from drag-and-drop tools usually wrap their content
in a single folder.  Deeper hits (`src/pages/index.html`) do not count as
servable roots.

Notes
-----
  • Entry names are zip-slip guarded before any write.
  • Oxford commas, two spaces after periods.
*/
package version

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/indoai-web/web-sub001/internal/metrics"
)

// ExtractResult reports what the extractor did with an upload.
type ExtractResult struct {
	Version    string `json:"version"`
	NeedsBuild bool   `json:"needs_build"`
	TempZip    string `json:"temp_zip,omitempty"`

	// Populated on the ready-to-serve path only.
	EntryPoint    string `json:"entry_point,omitempty"`
	SchemaWarning bool   `json:"schema_warning,omitempty"`
}

// Extractor unpacks uploads under versionsRoot and stages raw-source zips
// under tempRoot.
type Extractor struct {
	versionsRoot string
	tempRoot     string
}

// NewExtractor returns an Extractor over the two content directories.
func NewExtractor(versionsRoot, tempRoot string) *Extractor {
	return &Extractor{versionsRoot: versionsRoot, tempRoot: tempRoot}
}

// Process classifies buf and either stages it for a build or extracts and
// normalizes it into the version directory.
func (e *Extractor) Process(buf []byte, version string) (*ExtractResult, error) {
	zr, err := newZipReader(buf)
	if err != nil {
		return nil, fmt.Errorf("read zip: %w", err)
	}

	hasPackageJSON, hasIndexHTML := classify(zr)

	if hasPackageJSON && !hasIndexHTML {
		// Raw source: stage the original buffer, leave the version
		// directory alone until the build step consumes it.
		if err := os.MkdirAll(e.tempRoot, 0o755); err != nil {
			return nil, err
		}
		staged := filepath.Join(e.tempRoot, version+"_raw.zip")
		if err := os.WriteFile(staged, buf, 0o644); err != nil {
			return nil, fmt.Errorf("stage raw zip: %w", err)
		}
		metrics.UploadsTotal.WithLabelValues("raw").Inc()
		zap.S().Infow("upload staged for build", "version", version, "zip", staged)
		return &ExtractResult{Version: version, NeedsBuild: true, TempZip: staged}, nil
	}

	dir := filepath.Join(e.versionsRoot, version)
	if err := extractAll(zr, dir); err != nil {
		return nil, err
	}

	norm, err := Normalize(dir, version)
	if err != nil {
		return nil, err
	}
	metrics.UploadsTotal.WithLabelValues("ready").Inc()
	zap.S().Infow("upload extracted", "version", version, "entry", norm.EntryPoint)
	return &ExtractResult{
		Version:       version,
		EntryPoint:    norm.EntryPoint,
		SchemaWarning: norm.SchemaSQL,
	}, nil
}

func newZipReader(buf []byte) (*zip.Reader, error) {
	return zip.NewReader(bytes.NewReader(buf), int64(len(buf)))
}

// Classify reports whether buf is a raw-source bundle that needs a build.
// Callers use it to decide on registration before any disk work happens.
func Classify(buf []byte) (needsBuild bool, err error) {
	zr, err := newZipReader(buf)
	if err != nil {
		return false, fmt.Errorf("read zip: %w", err)
	}
	hasPackageJSON, hasIndexHTML := classify(zr)
	return hasPackageJSON && !hasIndexHTML, nil
}

// classify computes the two archive signals the decision rule needs.
func classify(zr *zip.Reader) (hasPackageJSON, hasIndexHTML bool) {
	for _, f := range zr.File {
		name := strings.TrimSuffix(f.Name, "/")
		if strings.HasSuffix(name, "package.json") {
			hasPackageJSON = true
		}
		// index.html at the root or behind exactly one wrapping folder.
		if parts := strings.Split(name, "/"); len(parts) <= 2 &&
			parts[len(parts)-1] == "index.html" {
			hasIndexHTML = true
		}
	}
	return
}

// extractAll unpacks every entry into dir, overwriting on conflict.
func extractAll(zr *zip.Reader, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	cleanDir := filepath.Clean(dir)

	for _, f := range zr.File {
		// Zip-slip guard: the resolved path must stay inside dir.
		target := filepath.Join(dir, f.Name)
		if target != cleanDir &&
			!strings.HasPrefix(target, cleanDir+string(os.PathSeparator)) {
			zap.S().Warnw("zip entry escapes target, skipped", "entry", f.Name)
			continue
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := writeEntry(f, target); err != nil {
			return fmt.Errorf("extract %s: %w", f.Name, err)
		}
	}
	return nil
}

func writeEntry(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, rc)
	return err
}
