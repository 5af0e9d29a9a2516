// internal/version/builder_test.go
//
// Unit-tests for the external builder invoker.
//
// Context
// -------
// Real builds shell out to npm; tests substitute tiny POSIX commands so the
// flow (extract → install → build → dist relocation → cleanup) is exercised
// without node.  `mkdir dist` stands in for a build that produces output,
// `false` for one that fails, `true` for one that "succeeds" but produces
// nothing.
//
// Run: go test ./internal/version -v

package version

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func stageZip(t *testing.T, temp, version string, files map[string]string) string {
	t.Helper()
	buf := makeZip(t, files)
	staged := filepath.Join(temp, version+"_raw.zip")
	if err := os.WriteFile(staged, buf, 0o644); err != nil {
		t.Fatal(err)
	}
	return staged
}

var rawFiles = map[string]string{
	"package.json": `{"name":"lp","scripts":{"build":"noop"}}`,
	"src/App.tsx":  "export default () => null",
}

func TestRunProducesVersionDirectory(t *testing.T) {
	versions, temp := t.TempDir(), t.TempDir()
	staged := stageZip(t, temp, "v8", rawFiles)

	b := NewBuilder("true", "mkdir dist", time.Minute, versions, temp)
	if err := b.Run(context.Background(), staged, "v8"); err != nil {
		t.Fatalf("Run error: %v", err)
	}

	// dist was empty, so the normalizer synthesized a placeholder index.
	if _, err := os.Stat(filepath.Join(versions, "v8", "index.html")); err != nil {
		t.Fatalf("version directory not populated: %v", err)
	}
	// The staged zip is consumed on success.
	if _, err := os.Stat(staged); !os.IsNotExist(err) {
		t.Fatal("staged zip not cleaned up")
	}
}

func TestRunInstallFailureIsSwallowed(t *testing.T) {
	versions, temp := t.TempDir(), t.TempDir()
	staged := stageZip(t, temp, "v9", rawFiles)

	// Install exits non-zero; the build still runs and succeeds.
	b := NewBuilder("false", "mkdir dist", time.Minute, versions, temp)
	if err := b.Run(context.Background(), staged, "v9"); err != nil {
		t.Fatalf("install failure aborted the build: %v", err)
	}
}

func TestRunBuildFailureAborts(t *testing.T) {
	versions, temp := t.TempDir(), t.TempDir()
	staged := stageZip(t, temp, "v10", rawFiles)

	b := NewBuilder("true", "false", time.Minute, versions, temp)
	err := b.Run(context.Background(), staged, "v10")

	var be *BuildError
	if !errors.As(err, &be) || be.Stage != "build" {
		t.Fatalf("err = %v, want BuildError{Stage: build}", err)
	}
	// No half-built version directory.
	if _, err := os.Stat(filepath.Join(versions, "v10")); !os.IsNotExist(err) {
		t.Fatal("version directory created despite build failure")
	}
	// Staged zip is consumed on failure too.
	if _, err := os.Stat(staged); !os.IsNotExist(err) {
		t.Fatal("staged zip not cleaned up after failure")
	}
}

func TestRunMissingDistAborts(t *testing.T) {
	versions, temp := t.TempDir(), t.TempDir()
	staged := stageZip(t, temp, "v11", rawFiles)

	b := NewBuilder("true", "true", time.Minute, versions, temp)
	err := b.Run(context.Background(), staged, "v11")

	var be *BuildError
	if !errors.As(err, &be) || be.Stage != "dist" {
		t.Fatalf("err = %v, want BuildError{Stage: dist}", err)
	}
	if !strings.Contains(err.Error(), "dist") {
		t.Fatalf("error does not name the missing dist directory: %v", err)
	}
}

func TestRunInstallTimeout(t *testing.T) {
	versions, temp := t.TempDir(), t.TempDir()
	staged := stageZip(t, temp, "v13", rawFiles)

	b := NewBuilder("sleep 30", "true", 100*time.Millisecond, versions, temp)
	err := b.Run(context.Background(), staged, "v13")

	var be *BuildError
	if !errors.As(err, &be) || !be.TimedOut {
		t.Fatalf("err = %v, want a timeout BuildError", err)
	}
	if be.Stage != "install" {
		t.Fatalf("Stage = %q, want install", be.Stage)
	}
}

func TestRunTimeout(t *testing.T) {
	versions, temp := t.TempDir(), t.TempDir()
	staged := stageZip(t, temp, "v12", rawFiles)

	b := NewBuilder("true", "sleep 30", 100*time.Millisecond, versions, temp)
	err := b.Run(context.Background(), staged, "v12")

	var be *BuildError
	if !errors.As(err, &be) || !be.TimedOut {
		t.Fatalf("err = %v, want a timeout BuildError", err)
	}
}

func TestBuildRootDescendsSingleWrapper(t *testing.T) {
	dir := t.TempDir()
	inner := filepath.Join(dir, "my-app")
	if err := os.MkdirAll(inner, 0o755); err != nil {
		t.Fatal(err)
	}

	root, err := buildRoot(dir)
	if err != nil {
		t.Fatalf("buildRoot error: %v", err)
	}
	if root != inner {
		t.Fatalf("root = %q, want %q", root, inner)
	}
}
