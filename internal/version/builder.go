// internal/version/builder.go
//
// External builder invoker for raw-source uploads.
//
/*
Context
--------
Raw-source uploads (package.json, no servable index.html) are parked as
`<version>_raw.zip` until an admin triggers a build.  Run() then:

  1. Extracts the staged zip into a throwaway build directory.
  2. Descends into a single wrapping folder when the zip has one.
  3. Runs the install step.  Install failures are logged and swallowed:
     lockfile quirks frequently make `npm install` exit non-zero while
     still leaving a usable node_modules.
  4. Runs the build step.  Failures abort with a BuildError carrying the
     captured stdout and stderr tails.
  5. Requires a `dist` directory and copies its contents into the permanent
     version directory, replacing whatever was there.

Both commands run under one context with an explicit deadline, with output
captured rather than inherited, so a hung npm cannot pin a request forever
and the error the admin sees contains the actual compiler output.

Cleanup of the build directory and the staged zip happens on success and
failure alike.

Notes
-----
  • Oxford commas, two spaces after periods.
*/
package version

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/indoai-web/web-sub001/internal/metrics"
)

// BuildError carries the failing stage and the tails of its output.
type BuildError struct {
	Stage    string // "extract", "install", "build", "dist"
	Stdout   string
	Stderr   string
	TimedOut bool
	Err      error
}

func (e *BuildError) Error() string {
	if e.TimedOut {
		return fmt.Sprintf("%s step timed out: %v", e.Stage, e.Err)
	}
	msg := fmt.Sprintf("%s step failed: %v", e.Stage, e.Err)
	if e.Stderr != "" {
		msg += "\n" + e.Stderr
	}
	return msg
}

func (e *BuildError) Unwrap() error { return e.Err }

// Builder shells out to the configured install and build commands.
type Builder struct {
	installCmd   string
	buildCmd     string
	timeout      time.Duration
	versionsRoot string
	tempRoot     string
}

// NewBuilder returns a Builder.  installCmd and buildCmd are whole command
// lines ("npm install", "npm run build"); timeout bounds both together.
func NewBuilder(installCmd, buildCmd string, timeout time.Duration, versionsRoot, tempRoot string) *Builder {
	return &Builder{
		installCmd:   installCmd,
		buildCmd:     buildCmd,
		timeout:      timeout,
		versionsRoot: versionsRoot,
		tempRoot:     tempRoot,
	}
}

// StagedZip returns the staging path the extractor uses for a version.
func (b *Builder) StagedZip(version string) string {
	return filepath.Join(b.tempRoot, version+"_raw.zip")
}

// Run executes the staged build for version.  On success the permanent
// version directory holds the dist output and the staging artifacts are
// gone.
func (b *Builder) Run(ctx context.Context, stagedZip, version string) error {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	buildDir, err := os.MkdirTemp("", "build-"+version+"-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(buildDir)
	defer os.Remove(stagedZip) // staged zip is consumed either way

	buf, err := os.ReadFile(stagedZip)
	if err != nil {
		return &BuildError{Stage: "extract", Err: err}
	}
	if err := unzipTo(buf, buildDir); err != nil {
		return &BuildError{Stage: "extract", Err: err}
	}

	root, err := buildRoot(buildDir)
	if err != nil {
		return &BuildError{Stage: "extract", Err: err}
	}

	// Install step: best effort.
	if out, errOut, err := b.exec(ctx, root, b.installCmd); err != nil {
		if ctx.Err() != nil {
			metrics.BuildsTotal.WithLabelValues("timeout").Inc()
			return &BuildError{Stage: "install", TimedOut: true, Err: ctx.Err()}
		}
		zap.S().Warnw("install step failed, continuing",
			"version", version, "err", err, "stderr", errOut, "stdout", out)
	}

	// Build step: failures abort.
	if out, errOut, err := b.exec(ctx, root, b.buildCmd); err != nil {
		if ctx.Err() != nil {
			metrics.BuildsTotal.WithLabelValues("timeout").Inc()
			return &BuildError{Stage: "build", TimedOut: true, Err: ctx.Err()}
		}
		metrics.BuildsTotal.WithLabelValues("error").Inc()
		return &BuildError{Stage: "build", Stdout: out, Stderr: errOut, Err: err}
	}

	dist := filepath.Join(root, "dist")
	if fi, err := os.Stat(dist); err != nil || !fi.IsDir() {
		metrics.BuildsTotal.WithLabelValues("error").Inc()
		return &BuildError{Stage: "dist",
			Err: errors.New("build completed but produced no dist directory")}
	}

	target := filepath.Join(b.versionsRoot, version)
	if err := os.RemoveAll(target); err != nil {
		return err
	}
	if err := copyTree(dist, target); err != nil {
		return fmt.Errorf("relocate dist: %w", err)
	}

	if _, err := Normalize(target, version); err != nil {
		return err
	}

	metrics.BuildsTotal.WithLabelValues("ok").Inc()
	metrics.BuildDuration.Observe(time.Since(start).Seconds())
	zap.S().Infow("build completed", "version", version,
		"took", time.Since(start).Truncate(time.Millisecond))
	return nil
}

// exec runs one command line in dir with captured output.  Output tails are
// truncated to keep error envelopes readable.
func (b *Builder) exec(ctx context.Context, dir, cmdLine string) (string, string, error) {
	parts := strings.Fields(cmdLine)
	if len(parts) == 0 {
		return "", "", errors.New("empty command")
	}
	cmd := exec.CommandContext(ctx, parts[0], parts[1:]...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return tail(stdout.String()), tail(stderr.String()), err
}

// tail keeps the last 4 KiB of command output.
func tail(s string) string {
	const keep = 4 << 10
	if len(s) <= keep {
		return s
	}
	return "…" + s[len(s)-keep:]
}

// buildRoot descends into a single wrapping directory when the extracted
// tree has exactly one entry and it is a folder.
func buildRoot(dir string) (string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	if len(ents) == 1 && ents[0].IsDir() {
		return filepath.Join(dir, ents[0].Name()), nil
	}
	return dir, nil
}

// unzipTo extracts buf into dir with the same zip-slip guard the upload
// path uses.
func unzipTo(buf []byte, dir string) error {
	zr, err := newZipReader(buf)
	if err != nil {
		return err
	}
	return extractAll(zr, dir)
}

// copyTree copies src into dst recursively, creating dst.
func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		in, err := os.Open(path)
		if err != nil {
			return err
		}
		defer in.Close()
		out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
		if err != nil {
			return err
		}
		defer out.Close()
		_, err = io.Copy(out, in)
		return err
	})
}
