// Package pathutil resolves directory allowlists. Both configuration and the
// tool policy use it.
package pathutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// ParseAllowedRoots splits a comma-separated PA_ALLOWED_ROOTS value into
// absolute, symlink-resolved roots without duplicates.
func ParseAllowedRoots(raw string) ([]string, error) {
	var roots []string
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if !filepath.IsAbs(item) {
			return nil, fmt.Errorf("PA_ALLOWED_ROOTS entries must be absolute paths: %s", item)
		}
		root := filepath.Clean(item)
		if real, err := filepath.EvalSymlinks(root); err == nil {
			root = real
		}
		if !slices.Contains(roots, root) {
			roots = append(roots, root)
		}
	}
	if len(roots) == 0 {
		return nil, errors.New("PA_ALLOWED_ROOTS is empty")
	}
	return roots, nil
}

// Within reports whether path is root or below it. Both must be clean.
func Within(path, root string) bool {
	return path == root || strings.HasPrefix(path, root+string(filepath.Separator))
}

// RealLocation resolves symlinks in the absolute path abs. For a path that
// does not exist yet the deepest existing ancestor is resolved and the rest
// appended.
func RealLocation(abs string) (string, error) {
	var missing []string
	dir := abs
	for {
		real, err := filepath.EvalSymlinks(dir)
		if err == nil {
			slices.Reverse(missing)
			return filepath.Join(append([]string{real}, missing...)...), nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("resolve %s: %w", abs, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no existing parent for path: %s", abs)
		}
		missing = append(missing, filepath.Base(dir))
		dir = parent
	}
}
