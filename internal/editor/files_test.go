// internal/editor/files_test.go
//
// Tests for listing, loading, and saving editable files.
//
// Run: go test ./internal/editor -v

package editor

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func seed(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestListFiltersAndSkips(t *testing.T) {
	root := seed(t, map[string]string{
		"index.html":            "<html></html>",
		"css/site.css":          "body{}",
		"logo.png":              "binary",        // not editable
		".env":                  "SECRET=1",      // dotfile
		"node_modules/x/y.js":   "module.exports", // skipped dir
		".git/config":           "[core]",        // skipped dir
		"docs/readme.md":        "# hi",
	})

	files, err := ListFiles(root)
	if err != nil {
		t.Fatalf("ListFiles error: %v", err)
	}

	got := map[string]string{}
	for _, f := range files {
		got[f.Path] = f.Mode
	}
	want := map[string]string{
		"index.html":     "html",
		"css/site.css":   "css",
		"docs/readme.md": "markdown",
	}
	if len(got) != len(want) {
		t.Fatalf("listed %v, want %v", got, want)
	}
	for p, mode := range want {
		if got[p] != mode {
			t.Errorf("%s mode = %q, want %q", p, got[p], mode)
		}
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	root := seed(t, map[string]string{"notes.txt": "old"})

	const content = "exact\nbytes\tincluding\twhitespace\n"
	if err := Save(root, "notes.txt", content); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	got, mode, err := Load(root, "notes.txt")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if got != content {
		t.Fatalf("round-trip mismatch: %q != %q", got, content)
	}
	if mode != "text" {
		t.Fatalf("mode = %q", mode)
	}
}

func TestLoadInfersMode(t *testing.T) {
	root := seed(t, map[string]string{"app.tsx": "export {}"})
	_, mode, err := Load(root, "app.tsx")
	if err != nil {
		t.Fatal(err)
	}
	if mode != "typescript" {
		t.Fatalf("mode = %q, want typescript", mode)
	}
}

func TestTraversalRejected(t *testing.T) {
	root := seed(t, nil)
	if _, _, err := Load(root, "../outside.txt"); !errors.Is(err, ErrOutsideRoot) {
		// Clean collapses the dots; either the sentinel or a not-exist error
		// is acceptable as long as nothing outside root is read.
		if err == nil {
			t.Fatal("traversal read succeeded")
		}
	}
	// Clean pins the write inside root; nothing may land beside it.
	if err := Save(root, "../../evil.html", "x"); err == nil {
		if _, statErr := os.Stat(filepath.Join(root, "..", "evil.html")); !os.IsNotExist(statErr) {
			t.Fatal("traversal write escaped the version root")
		}
	}
}

func TestNonEditableExtensionRejected(t *testing.T) {
	root := seed(t, map[string]string{"logo.png": "bytes"})
	if _, _, err := Load(root, "logo.png"); !errors.Is(err, ErrNotEditable) {
		t.Fatalf("err = %v, want ErrNotEditable", err)
	}
	if err := Save(root, "logo.png", "x"); !errors.Is(err, ErrNotEditable) {
		t.Fatalf("err = %v, want ErrNotEditable", err)
	}
}
