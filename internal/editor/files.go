// internal/editor/files.go
//
// File listing, loading, and saving for the in-browser editor.
//
/*
Context
--------
The editor works directly on a version's directory.  Listing recursively
walks the tree, skipping dotfiles and node_modules, and keeps only the
extensions the editor can highlight.  Loading returns raw text plus an
editor mode derived from the extension.  Saving overwrites the file through
the same write path the pipeline uses; it never triggers a rebuild, so
edits to a built dist bundle stay invisible until the next build.

All relative paths are cleaned and pinned inside the version root.

Notes
-----
  • Oxford commas, two spaces after periods.
*/
package editor

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideRoot is returned when a path escapes the version directory.
var ErrOutsideRoot = errors.New("path escapes the version directory")

// ErrNotEditable is returned for extensions outside the allow-list.
var ErrNotEditable = errors.New("file type is not editable")

// editableExt is the fixed allow-list.
var editableExt = map[string]string{
	".html": "html",
	".htm":  "html",
	".css":  "css",
	".js":   "javascript",
	".jsx":  "javascript",
	".mjs":  "javascript",
	".ts":   "typescript",
	".tsx":  "typescript",
	".json": "json",
	".md":   "markdown",
	".txt":  "text",
	".svg":  "xml",
	".xml":  "xml",
	".yaml": "yaml",
	".yml":  "yaml",
}

// FileInfo describes one editable file.
type FileInfo struct {
	Path string `json:"path"` // relative, forward slashes
	Size int64  `json:"size"`
	Mode string `json:"mode"` // editor syntax mode
}

// ListFiles walks root and returns the editable files, sorted by path.
func ListFiles(root string) ([]FileInfo, error) {
	var out []FileInfo
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != root && (strings.HasPrefix(name, ".") || name == "node_modules") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") {
			return nil
		}
		mode, ok := editableExt[strings.ToLower(filepath.Ext(name))]
		if !ok {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		out = append(out, FileInfo{
			Path: filepath.ToSlash(rel),
			Size: fi.Size(),
			Mode: mode,
		})
		return nil
	})
	return out, err
}

// Load returns the raw text and editor mode of one file.
func Load(root, rel string) (content, mode string, err error) {
	abs, err := resolve(root, rel)
	if err != nil {
		return "", "", err
	}
	m, ok := editableExt[strings.ToLower(filepath.Ext(abs))]
	if !ok {
		return "", "", ErrNotEditable
	}
	raw, err := os.ReadFile(abs)
	if err != nil {
		return "", "", err
	}
	return string(raw), m, nil
}

// Save overwrites one file.  Parent directories must already exist; the
// editor cannot create new paths, only change tracked ones.
func Save(root, rel, content string) error {
	abs, err := resolve(root, rel)
	if err != nil {
		return err
	}
	if _, ok := editableExt[strings.ToLower(filepath.Ext(abs))]; !ok {
		return ErrNotEditable
	}
	return os.WriteFile(abs, []byte(content), 0o644)
}

// resolve pins rel inside root.
func resolve(root, rel string) (string, error) {
	clean := filepath.Clean("/" + filepath.FromSlash(rel))
	abs := filepath.Join(root, clean)
	if abs != root && !strings.HasPrefix(abs, root+string(os.PathSeparator)) {
		return "", ErrOutsideRoot
	}
	return abs, nil
}
