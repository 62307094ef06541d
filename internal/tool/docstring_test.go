package tool

import (
	"context"
	"strings"
	"testing"

	"github.com/PabloBotinGP/SIENNA-PA-MCP/internal/runner"
)

func TestDocstring_RejectsInvalidSymbolWithoutRunning(t *testing.T) {
	exec := &fakeExecutor{}
	tl := NewDocstring(testJulia(t, exec))

	for _, sym := range []string{"calc-active-power", "", "1abc", `x"); run(`, "a b", "\\$x", "push!", "a!b"} {
		res, err := tl.Execute(context.Background(), mustJSON(t, DocstringInput{SymbolName: sym}))
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		if !res.IsError || !strings.Contains(res.Text, "Invalid symbol name") {
			t.Fatalf("expected invalid symbol for %q, got %q", sym, res.Text)
		}
	}
	if exec.calls() != 0 {
		t.Fatalf("expected no executions, got %d", exec.calls())
	}
}

func TestDocstring_RejectsUnknownModuleWithoutRunning(t *testing.T) {
	exec := &fakeExecutor{}
	tl := NewDocstring(testJulia(t, exec))

	res, err := tl.Execute(context.Background(), mustJSON(t, DocstringInput{SymbolName: "run", ModuleName: "Base"}))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !strings.Contains(res.Text, "Unknown module 'Base'") {
		t.Fatalf("unexpected text: %q", res.Text)
	}
	if !strings.Contains(res.Text, "PowerAnalytics, PowerAnalytics.Metrics, PowerAnalytics.Selectors") {
		t.Fatalf("expected sorted allow-list, got %q", res.Text)
	}
	if exec.calls() != 0 {
		t.Fatalf("expected no executions, got %d", exec.calls())
	}
}

func TestDocstring_DefaultModuleAndTrimmedOutput(t *testing.T) {
	exec := &fakeExecutor{res: runner.Result{Stdout: "\n  make_selector(T)\n\nCreate a selector.\n\n"}}
	tl := NewDocstring(testJulia(t, exec))

	res, err := tl.Execute(context.Background(), mustJSON(t, DocstringInput{SymbolName: "make_selector"}))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.Text != "make_selector(T)\n\nCreate a selector." {
		t.Fatalf("unexpected text: %q", res.Text)
	}
	sent := exec.last(t).Script
	if !strings.Contains(sent, "mod = PowerAnalytics\n") || !strings.Contains(sent, `sym = Symbol("make_selector")`) {
		t.Fatalf("unexpected script:\n%s", sent)
	}
}

func TestDocstring_RuntimeFailure(t *testing.T) {
	exec := &fakeExecutor{res: runner.Result{ExitCode: 1, Stderr: "ERROR: boom"}}
	tl := NewDocstring(testJulia(t, exec))

	res, err := tl.Execute(context.Background(), mustJSON(t, DocstringInput{SymbolName: "calc_active_power", ModuleName: "PowerAnalytics.Metrics"}))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !strings.HasPrefix(res.Text, "Error retrieving docstring:\nExit code: 1") {
		t.Fatalf("unexpected text: %q", res.Text)
	}
}

func TestIsJuliaIdentifier(t *testing.T) {
	cases := map[string]bool{
		"calc_active_power": true,
		"_private":          true,
		"push!":             false,
		"a!b":               false,
		"ComponentSelector": true,
		"x2":                true,
		"β":                 true,
		"2x":                false,
		"!x":                false,
		"a-b":               false,
		"a.b":               false,
		"":                  false,
	}
	for in, want := range cases {
		if got := IsJuliaIdentifier(in); got != want {
			t.Errorf("IsJuliaIdentifier(%q)=%v, want %v", in, got, want)
		}
	}
}
