package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar"
)

const maxListedFiles = 100

type ListFilesInput struct {
	Directory string `json:"directory"`
	Pattern   string `json:"pattern"`
}

// ListFiles lists result files below a directory, recursively.
type ListFiles struct {
	Policy     *Policy
	DefaultDir string
}

func NewListFiles(policy *Policy, defaultDir string) *ListFiles {
	return &ListFiles{Policy: policy, DefaultDir: defaultDir}
}

func (t *ListFiles) Name() string { return "list_result_files" }

func (t *ListFiles) Description() string {
	return "List files below a directory (recursively), useful for discovering simulation results or saved outputs."
}

func (t *ListFiles) Params() []Param {
	return []Param{
		{Name: "directory", Kind: KindString, Description: "Directory to search. Defaults to PA_RESULTS_DIR."},
		{Name: "pattern", Kind: KindString, Description: `Glob pattern to filter files, e.g. "*.csv" or "*.h5". Defaults to "*".`},
	}
}

func (t *ListFiles) Validate(raw json.RawMessage) error {
	_, err := t.parse(raw)
	return err
}

func (t *ListFiles) parse(raw json.RawMessage) (ListFilesInput, error) {
	var in ListFilesInput
	if err := decodeInput(raw, &in); err != nil {
		return in, fmt.Errorf("invalid list_result_files input: %w", err)
	}
	return in, nil
}

func (t *ListFiles) Execute(ctx context.Context, raw json.RawMessage) (Result, error) {
	in, err := t.parse(raw)
	if err != nil {
		return Result{}, err
	}
	if strings.TrimSpace(in.Pattern) == "" {
		in.Pattern = "*"
	}
	display := in.Directory
	if strings.TrimSpace(display) == "" {
		display = t.DefaultDir
	}
	if display == "" {
		display = "."
	}

	dir, err := t.Policy.ResolveAllowedPath(display, "")
	if err != nil {
		return errorResult(fmt.Sprintf("Error: %v", err)), nil
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return errorResult("Directory not found: " + display), nil
	}

	glob := "**/" + strings.TrimPrefix(filepath.ToSlash(in.Pattern), "/")
	if _, err := doublestar.Match(glob, "x"); errors.Is(err, doublestar.ErrBadPattern) {
		return errorResult(fmt.Sprintf("Error: invalid pattern '%s'", in.Pattern)), nil
	}

	type entry struct {
		rel  string
		size int64
	}
	var files []entry
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return nil
		}
		ok, _ := doublestar.Match(glob, filepath.ToSlash(rel))
		if !ok {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		files = append(files, entry{rel: rel, size: info.Size()})
		return nil
	})
	if walkErr != nil {
		return Result{}, fmt.Errorf("list %s: %w", dir, walkErr)
	}
	if len(files) == 0 {
		return textResult(fmt.Sprintf("No files matching '%s' in %s", in.Pattern, display)), nil
	}
	sort.Slice(files, func(i, j int) bool { return files[i].rel < files[j].rel })

	lines := []string{fmt.Sprintf("Files in %s (pattern: %s):", display, in.Pattern)}
	for _, f := range files[:min(len(files), maxListedFiles)] {
		lines = append(lines, fmt.Sprintf("  %s  (%.1f KB)", f.rel, float64(f.size)/1024))
	}
	if len(files) > maxListedFiles {
		lines = append(lines, fmt.Sprintf("  ... and %d more files", len(files)-maxListedFiles))
	}
	return Result{Text: strings.Join(lines, "\n"), Meta: map[string]any{"count": len(files)}}, nil
}
