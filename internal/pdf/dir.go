package pdf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNotFound is returned when a requested PDF is not in the directory.
var ErrNotFound = errors.New("PDF not found")

// Dir is a flat directory of downloaded PDFs, one file per paper.
type Dir struct {
	root string
}

// NewDir returns a Dir rooted at root.
func NewDir(root string) *Dir {
	return &Dir{root: root}
}

// Resolve maps a bare filename to its full path. Names containing path
// separators or parent references are rejected as not found.
func (d *Dir) Resolve(name string) (string, error) {
	if d.root == "" {
		return "", fmt.Errorf("pdf directory not configured")
	}
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	fullPath := filepath.Join(d.root, name)

	info, err := os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return "", fmt.Errorf("checking PDF: %w", err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	return fullPath, nil
}

// List returns the full paths of every *.pdf file in the directory, sorted
// by name. Subdirectories are ignored.
func (d *Dir) List() ([]string, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, fmt.Errorf("reading pdf directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		paths = append(paths, filepath.Join(d.root, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}
