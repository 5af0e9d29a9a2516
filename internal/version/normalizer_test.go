// internal/version/normalizer_test.go
//
// Unit-tests for directory normalization: entry resolution, wrapper
// synthesis, placeholder fallback, and the schema.sql warning.
//
// Run: go test ./internal/version -v

package version

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestNormalizeKeepsExistingIndex(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"index.html": "<html></html>"})

	res, err := Normalize(dir, "v2")
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	if res.EntryPoint != "index.html" || res.Synthesized {
		t.Fatalf("unexpected result: %+v", res)
	}

	// Idempotence: a second pass changes nothing.
	raw, _ := os.ReadFile(filepath.Join(dir, "index.html"))
	if _, err := Normalize(dir, "v2"); err != nil {
		t.Fatalf("second Normalize error: %v", err)
	}
	again, _ := os.ReadFile(filepath.Join(dir, "index.html"))
	if string(raw) != string(again) {
		t.Fatal("second pass rewrote index.html")
	}
}

func TestNormalizeSynthesizesWrapperForOtherHTML(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"landing.html": "<html></html>"})

	res, err := Normalize(dir, "v3")
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	if res.EntryPoint != "landing.html" || !res.Synthesized {
		t.Fatalf("unexpected result: %+v", res)
	}

	wrapper, err := os.ReadFile(filepath.Join(dir, "index.html"))
	if err != nil {
		t.Fatalf("wrapper not written: %v", err)
	}
	if !strings.Contains(string(wrapper), `/view/v3/landing.html`) {
		t.Fatalf("wrapper does not iframe the view route:\n%s", wrapper)
	}
}

func TestNormalizePlaceholderWhenNothingUsable(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"readme.txt": "not a site"})

	res, err := Normalize(dir, "v4")
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	if !res.Synthesized {
		t.Fatal("placeholder not synthesized")
	}
	body, _ := os.ReadFile(filepath.Join(dir, "index.html"))
	if !strings.Contains(string(body), "no supported content") {
		t.Fatalf("placeholder body unexpected:\n%s", body)
	}
}

func TestNormalizeFlattensSingleWrappingFolder(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"bundle/index.html":   "<html></html>",
		"bundle/css/main.css": "body{}",
	})

	res, err := Normalize(dir, "v5")
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	if res.FlattenedDir != "bundle" {
		t.Fatalf("flattened = %q, want bundle", res.FlattenedDir)
	}
	for _, rel := range []string{"index.html", "css/main.css"} {
		if _, err := os.Stat(filepath.Join(dir, rel)); err != nil {
			t.Fatalf("%s missing after flatten: %v", rel, err)
		}
	}
}

func TestNormalizeFlagsSchemaSQL(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"index.html": "<html></html>",
		"schema.sql": "CREATE TABLE x (id int);",
	})

	res, err := Normalize(dir, "v6")
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	if !res.SchemaSQL {
		t.Fatal("schema.sql not flagged")
	}
	// Never executed, never removed.
	if _, err := os.Stat(filepath.Join(dir, "schema.sql")); err != nil {
		t.Fatal("schema.sql was touched")
	}
}
