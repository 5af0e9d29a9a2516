// internal/version/normalizer.go
//
// Version directory normalizer.
//
/*
Context
--------
After extraction or a build, the version directory may still be awkward to
serve:

  • a single wrapping folder left over from how the zip was created,
  • an entry point that is not called index.html,
  • or no recognizable entry point at all.

Normalize flattens one level of wrapping, resolves the effective entry
point (index.html first, else the first other root-level *.html), and—when
the directory has no index.html—synthesizes one: an iframe wrapper around
the view route for the resolved entry, or a plain “unsupported content”
placeholder when nothing servable exists.

A root-level schema.sql is flagged as a manual-action warning.  It is never
executed; the admin is expected to apply it against the hosted database by
hand.

Notes
-----
  • Wrapper and placeholder bodies render through html/template so the
    version and entry names are escaped.
  • Oxford commas, two spaces after periods.
*/
package version

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// NormalizeResult reports what the normalizer resolved and produced.
type NormalizeResult struct {
	EntryPoint   string // file the serving layer should treat as the page
	Synthesized  bool   // true when index.html was generated here
	SchemaSQL    bool   // root-level schema.sql present (manual action)
	FlattenedDir string // wrapping folder that was unwrapped, if any
}

var wrapperTmpl = template.Must(template.New("wrapper").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>{{.Version}}</title>
  <style>html,body,iframe{margin:0;padding:0;border:0;width:100%;height:100%}</style>
</head>
<body>
  <iframe src="/view/{{.Version}}/{{.Entry}}"></iframe>
</body>
</html>
`))

var placeholderTmpl = template.Must(template.New("placeholder").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Version}}</title></head>
<body>
  <p>This version contains no supported content yet.  Upload a bundle with
  an index.html, or run a build for raw source uploads.</p>
</body>
</html>
`))

// Normalize post-processes dir for serving.  It is idempotent: a second
// pass over an already-normalized directory changes nothing.
func Normalize(dir, versionName string) (*NormalizeResult, error) {
	res := &NormalizeResult{}

	flattened, err := flattenSingleRoot(dir)
	if err != nil {
		return nil, err
	}
	res.FlattenedDir = flattened

	entry, err := resolveEntry(dir)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(filepath.Join(dir, "schema.sql")); err == nil {
		res.SchemaSQL = true
		zap.S().Warnw("version ships a schema.sql, apply it manually",
			"version", versionName)
	}

	switch {
	case entry == "index.html":
		res.EntryPoint = entry
		return res, nil

	case entry != "":
		// Another page exists; synthesize an index.html wrapper around it
		// so the version has a stable entry.
		res.EntryPoint = entry
		res.Synthesized = true
		return res, writeTemplate(dir, wrapperTmpl, versionName, entry)

	default:
		res.Synthesized = true
		return res, writeTemplate(dir, placeholderTmpl, versionName, "")
	}
}

// resolveEntry prefers index.html, else the alphabetically first other
// root-level HTML file.  Empty string means nothing usable.
func resolveEntry(dir string) (string, error) {
	if _, err := os.Stat(filepath.Join(dir, "index.html")); err == nil {
		return "index.html", nil
	}

	ents, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	var pages []string
	for _, e := range ents {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".html") {
			pages = append(pages, e.Name())
		}
	}
	if len(pages) == 0 {
		return "", nil
	}
	sort.Strings(pages)
	return pages[0], nil
}

// flattenSingleRoot unwraps `dir/<onlyFolder>/…` into `dir/…` when the
// directory consists of exactly one subdirectory and nothing else.  Returns
// the unwrapped folder name, or "".
func flattenSingleRoot(dir string) (string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	if len(ents) != 1 || !ents[0].IsDir() {
		return "", nil
	}

	inner := ents[0].Name()
	innerPath := filepath.Join(dir, inner)
	children, err := os.ReadDir(innerPath)
	if err != nil {
		return "", err
	}
	for _, c := range children {
		from := filepath.Join(innerPath, c.Name())
		to := filepath.Join(dir, c.Name())
		if err := os.Rename(from, to); err != nil {
			return "", fmt.Errorf("flatten %s: %w", inner, err)
		}
	}
	if err := os.Remove(innerPath); err != nil {
		return "", err
	}
	zap.S().Debugw("flattened wrapping folder", "dir", dir, "folder", inner)
	return inner, nil
}

func writeTemplate(dir string, t *template.Template, versionName, entry string) error {
	out, err := os.Create(filepath.Join(dir, "index.html"))
	if err != nil {
		return err
	}
	defer out.Close()
	return t.Execute(out, struct{ Version, Entry string }{versionName, entry})
}
