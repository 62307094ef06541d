package tool

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/PabloBotinGP/SIENNA-PA-MCP/internal/pathutil"
)

// ErrOutsideAllowlist is returned for paths outside every allowed root.
var ErrOutsideAllowlist = errors.New("path outside allowlist")

// Policy confines the project and results directories agents may point the
// tools at. A Policy without roots allows every path.
type Policy struct {
	AllowedRoots []string
}

func NewPolicy(allowedRootsCSV string) (*Policy, error) {
	if strings.TrimSpace(allowedRootsCSV) == "" {
		return &Policy{}, nil
	}
	roots, err := pathutil.ParseAllowedRoots(allowedRootsCSV)
	if err != nil {
		return nil, err
	}
	return &Policy{AllowedRoots: roots}, nil
}

// Restricted reports whether the policy has any roots.
func (p *Policy) Restricted() bool { return p != nil && len(p.AllowedRoots) > 0 }

// ResolveAllowedPath makes path absolute (relative paths are joined to
// baseDir, or the working directory when baseDir is empty) and checks the
// real location against the allowlist, so a symlink cannot leave a root.
func (p *Policy) ResolveAllowedPath(path string, baseDir string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", errors.New("path is empty")
	}
	joined := path
	if !filepath.IsAbs(joined) && baseDir != "" {
		joined = filepath.Join(baseDir, joined)
	}
	abs, err := filepath.Abs(joined)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	if !p.Restricted() {
		return abs, nil
	}

	real, err := pathutil.RealLocation(abs)
	if err != nil {
		return "", err
	}
	inside := slices.ContainsFunc(p.AllowedRoots, func(root string) bool {
		return pathutil.Within(real, root)
	})
	if !inside {
		return "", fmt.Errorf("%w: %s", ErrOutsideAllowlist, path)
	}
	return abs, nil
}
