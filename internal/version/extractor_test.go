// internal/version/extractor_test.go
//
// Unit-tests for upload classification and extraction.
//
// Context
// -------
// The decision rule has two signals: package.json anywhere, index.html at
// the root or behind one wrapping folder.  These tests build small zips in
// memory and assert the three interesting outcomes:
//
//   • raw source    → staged zip, no version directory
//   • ready bundle  → extracted, normalized, entry resolved
//   • zip-slip name → entry skipped, extraction continues
//
// Run: go test ./internal/version -v

package version

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// makeZip builds an in-memory archive from path → content pairs.
func makeZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func newTestExtractor(t *testing.T) (*Extractor, string, string) {
	t.Helper()
	versions := t.TempDir()
	temp := t.TempDir()
	return NewExtractor(versions, temp), versions, temp
}

func TestRawSourceIsStagedNotExtracted(t *testing.T) {
	ex, versions, temp := newTestExtractor(t)

	buf := makeZip(t, map[string]string{
		"package.json": `{"name":"lp"}`,
		"src/App.tsx":  "export default () => null",
	})

	res, err := ex.Process(buf, "v7")
	if err != nil {
		t.Fatalf("Process error: %v", err)
	}
	if !res.NeedsBuild {
		t.Fatal("expected needs_build = true")
	}
	if res.TempZip != filepath.Join(temp, "v7_raw.zip") {
		t.Fatalf("temp zip path = %q", res.TempZip)
	}
	if _, err := os.Stat(res.TempZip); err != nil {
		t.Fatalf("staged zip missing: %v", err)
	}

	// The permanent version directory must not exist yet.
	if _, err := os.Stat(filepath.Join(versions, "v7")); !os.IsNotExist(err) {
		t.Fatal("version directory created before the build ran")
	}
}

func TestReadyBundleExtracts(t *testing.T) {
	ex, versions, _ := newTestExtractor(t)

	buf := makeZip(t, map[string]string{
		"index.html":      "<html><body>hi</body></html>",
		"assets/logo.png": "\x89PNG fake",
	})

	res, err := ex.Process(buf, "v2")
	if err != nil {
		t.Fatalf("Process error: %v", err)
	}
	if res.NeedsBuild {
		t.Fatal("ready bundle misclassified as raw source")
	}
	if res.EntryPoint != "index.html" {
		t.Fatalf("entry = %q, want index.html", res.EntryPoint)
	}
	for _, rel := range []string{"index.html", "assets/logo.png"} {
		if _, err := os.Stat(filepath.Join(versions, "v2", rel)); err != nil {
			t.Fatalf("%s not extracted: %v", rel, err)
		}
	}
}

func TestPackageJSONWithRootIndexIsReady(t *testing.T) {
	// A bundle can legitimately carry a package.json (e.g., exported from a
	// site builder) as long as a servable index.html is present.
	ex, versions, _ := newTestExtractor(t)

	buf := makeZip(t, map[string]string{
		"package.json": "{}",
		"index.html":   "<html></html>",
	})
	res, err := ex.Process(buf, "v3")
	if err != nil {
		t.Fatalf("Process error: %v", err)
	}
	if res.NeedsBuild {
		t.Fatal("bundle with root index.html must not need a build")
	}
	if _, err := os.Stat(filepath.Join(versions, "v3", "index.html")); err != nil {
		t.Fatal("index.html missing after extraction")
	}
}

func TestDeeplyNestedIndexDoesNotCount(t *testing.T) {
	ex, _, _ := newTestExtractor(t)

	buf := makeZip(t, map[string]string{
		"package.json":         "{}",
		"src/pages/index.html": "<html></html>", // two levels: not a root
	})
	res, err := ex.Process(buf, "v4")
	if err != nil {
		t.Fatalf("Process error: %v", err)
	}
	if !res.NeedsBuild {
		t.Fatal("nested index.html treated as servable root")
	}
}

func TestSingleWrappedIndexCounts(t *testing.T) {
	ex, versions, _ := newTestExtractor(t)

	buf := makeZip(t, map[string]string{
		"site/index.html": "<html></html>",
		"site/style.css":  "body{}",
	})
	res, err := ex.Process(buf, "v5")
	if err != nil {
		t.Fatalf("Process error: %v", err)
	}
	if res.NeedsBuild {
		t.Fatal("wrapped bundle misclassified")
	}
	// The normalizer must have flattened the wrapping folder.
	if _, err := os.Stat(filepath.Join(versions, "v5", "index.html")); err != nil {
		t.Fatalf("index.html not at version root after flatten: %v", err)
	}
}

func TestClassifyMatchesProcessDecision(t *testing.T) {
	raw := makeZip(t, map[string]string{"package.json": "{}", "src/main.ts": ""})
	ready := makeZip(t, map[string]string{"index.html": "<html></html>"})

	if nb, err := Classify(raw); err != nil || !nb {
		t.Fatalf("raw bundle: needsBuild=%v err=%v", nb, err)
	}
	if nb, err := Classify(ready); err != nil || nb {
		t.Fatalf("ready bundle: needsBuild=%v err=%v", nb, err)
	}
	if _, err := Classify([]byte("not a zip")); err == nil {
		t.Fatal("garbage buffer must not classify")
	}
}

func TestZipSlipEntrySkipped(t *testing.T) {
	ex, versions, _ := newTestExtractor(t)

	buf := makeZip(t, map[string]string{
		"index.html":      "<html></html>",
		"../../evil.html": "<script>boom()</script>",
	})
	if _, err := ex.Process(buf, "v6"); err != nil {
		t.Fatalf("Process error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(versions, "..", "evil.html")); !os.IsNotExist(err) {
		t.Fatal("zip-slip entry escaped the version directory")
	}
}
