package db

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func logSession(t *testing.T, database interface {
	LogEvent(string, map[string]any) error
}, events ...string) {
	t.Helper()
	for _, ev := range events {
		if err := database.LogEvent(ev, map[string]any{"tool": "run_julia_script"}); err != nil {
			t.Fatal(err)
		}
	}
}

func TestLatestSessionID(t *testing.T) {
	db := testDB(t)

	if _, err := LatestSessionID(db); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}

	first, err := LogEvent(db, nil, EventServerStarted, nil)
	if err != nil {
		t.Fatal(err)
	}
	second, err := LogEvent(db, nil, EventServerStarted, nil)
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Fatal("expected distinct ids")
	}

	got, err := LatestSessionID(db)
	if err != nil {
		t.Fatal(err)
	}
	if got != second {
		t.Fatalf("expected %d, got %d", second, got)
	}
}

func TestSessionTree(t *testing.T) {
	db := testDB(t)

	root, err := LogEvent(db, nil, EventServerStarted, map[string]any{"version": "dev"})
	if err != nil {
		t.Fatal(err)
	}
	logSession(t, EventLog{DB: db, ParentID: &root}, EventToolCallStarted, EventToolCallDone)
	if _, err := LogEvent(db, nil, EventServerStarted, nil); err != nil {
		t.Fatal(err)
	}

	tree, err := SessionTree(db, root)
	if err != nil {
		t.Fatal(err)
	}
	if tree.Type != EventServerStarted || tree.Payload["version"] != "dev" {
		t.Fatalf("unexpected root: %+v", tree)
	}
	if len(tree.Children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(tree.Children))
	}
	if tree.Children[0].Type != EventToolCallStarted || tree.Children[1].Type != EventToolCallDone {
		t.Fatalf("children out of order: %s, %s", tree.Children[0].Type, tree.Children[1].Type)
	}

	if _, err := SessionTree(db, 9999); err == nil {
		t.Fatal("expected error for unknown event")
	}
}

func TestRenderTree(t *testing.T) {
	db := testDB(t)

	root, err := LogEvent(db, nil, EventServerStarted, map[string]any{"version": "dev", "command": "serve"})
	if err != nil {
		t.Fatal(err)
	}
	call, err := LogEvent(db, &root, EventToolCallStarted, map[string]any{"tool": "get_docstring"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := LogEvent(db, &call, "index.generated", map[string]any{"symbols": 42}); err != nil {
		t.Fatal(err)
	}
	if _, err := LogEvent(db, &root, EventServerStopped, nil); err != nil {
		t.Fatal(err)
	}

	tree, err := SessionTree(db, root)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := RenderTree(&buf, tree, 0); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d:\n%s", len(lines), buf.String())
	}
	if !strings.HasSuffix(lines[0], "server.started  command=serve  version=dev") {
		t.Fatalf("unexpected root line: %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "├── ") || !strings.HasSuffix(lines[1], "tool=get_docstring") {
		t.Fatalf("unexpected child line: %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "│   └── ") || !strings.HasSuffix(lines[2], "symbols=42") {
		t.Fatalf("unexpected grandchild line: %q", lines[2])
	}
	if !strings.HasPrefix(lines[3], "└── ") || !strings.HasSuffix(lines[3], EventServerStopped) {
		t.Fatalf("unexpected last line: %q", lines[3])
	}

	buf.Reset()
	if err := RenderTree(&buf, tree, 2); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "│   └── [...]") || strings.Contains(buf.String(), "symbols=42") {
		t.Fatalf("expected depth-limited output, got:\n%s", buf.String())
	}
}

func TestPayloadValue(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{"short", "short"},
		{float64(3), "3"},
		{1.5, "1.5"},
		{true, "true"},
	}
	for _, c := range cases {
		if got := payloadValue(c.in); got != c.want {
			t.Fatalf("payloadValue(%v) = %q, want %q", c.in, got, c.want)
		}
	}
	long := strings.Repeat("x", 100)
	if got := payloadValue(long); !strings.HasSuffix(got, `..."`) || len(got) != 85 {
		t.Fatalf("expected truncated quoted value, got %q", got)
	}
}
