package pathutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseAllowedRoots(t *testing.T) {
	roots, err := ParseAllowedRoots(" /workspace, /state,/workspace/ ,")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(roots) != 2 {
		t.Fatalf("expected 2 unique roots, got %d", len(roots))
	}
	if roots[0] != "/workspace" || roots[1] != "/state" {
		t.Fatalf("unexpected roots: %+v", roots)
	}
}

func TestParseAllowedRoots_Invalid(t *testing.T) {
	if _, err := ParseAllowedRoots(""); err == nil {
		t.Fatal("expected empty error")
	}
	if _, err := ParseAllowedRoots(" , "); err == nil {
		t.Fatal("expected empty error for blank entries")
	}
	if _, err := ParseAllowedRoots("workspace"); err == nil {
		t.Fatal("expected relative path error")
	}
}

func TestParseAllowedRoots_ResolvesSymlinks(t *testing.T) {
	base, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	real := filepath.Join(base, "real")
	if err := os.Mkdir(real, 0o755); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(base, "link")
	if err := os.Symlink(real, link); err != nil {
		t.Fatal(err)
	}

	roots, err := ParseAllowedRoots(link + "," + real)
	if err != nil {
		t.Fatal(err)
	}
	if len(roots) != 1 || roots[0] != real {
		t.Fatalf("expected link and target to collapse to %s, got %+v", real, roots)
	}
}

func TestWithin(t *testing.T) {
	cases := []struct {
		path, root string
		want       bool
	}{
		{"/data", "/data", true},
		{"/data/results/a.csv", "/data", true},
		{"/database", "/data", false},
		{"/", "/data", false},
	}
	for _, c := range cases {
		if got := Within(c.path, c.root); got != c.want {
			t.Errorf("Within(%q, %q) = %v, want %v", c.path, c.root, got, c.want)
		}
	}
}

func TestRealLocation_MissingLeaf(t *testing.T) {
	base, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	target := filepath.Join(base, "target")
	if err := os.Mkdir(target, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(target, filepath.Join(base, "link")); err != nil {
		t.Fatal(err)
	}

	got, err := RealLocation(filepath.Join(base, "link", "new", "out.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(target, "new", "out.csv"); got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}
