package report

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloBotinGP/SIENNA-PA-MCP/internal/runner"
)

func TestFormat_SuccessOmitsExitLine(t *testing.T) {
	got := Format(runner.Result{Stdout: "total cost: 42\n"})

	assert.Equal(t, "--- stdout ---\ntotal cost: 42\n", got)
	assert.NotContains(t, got, "Exit code")
}

func TestFormat_FailureStartsWithExitLine(t *testing.T) {
	got := Format(runner.Result{ExitCode: 1, Stdout: "a", Stderr: "b"})

	assert.Equal(t, "Exit code: 1\n--- stdout ---\na\n--- stderr ---\nb", got)
}

func TestFormat_StdoutBeforeStderr(t *testing.T) {
	got := Format(runner.Result{Stdout: "data", Stderr: "warn"})
	assert.Less(t, strings.Index(got, "--- stdout ---"), strings.Index(got, "--- stderr ---"))
}

func TestFormat_NoOutput(t *testing.T) {
	assert.Equal(t, "(no output)", Format(runner.Result{}))
	assert.Equal(t, "Exit code: 2\n(no output)", Format(runner.Result{ExitCode: 2}))
	assert.Equal(t, "(no output)", Format(runner.Result{Stderr: "[ Info: loading\n"}))
}

func TestFormat_FiltersInfoLinesForAnyExitCode(t *testing.T) {
	stderr := "[ Info: Precompiling PowerAnalytics\n   [ Info: indented\nWarning: keep me\n"
	for _, code := range []int{0, 1, 137} {
		got := Format(runner.Result{ExitCode: code, Stderr: stderr})
		assert.NotContains(t, got, "[ Info:")
		assert.Contains(t, got, "Warning: keep me")
	}
}

func TestFormat_TruncatesStderrAfterFiltering(t *testing.T) {
	noise := strings.Repeat("[ Info: noise\n", 500)
	body := strings.Repeat("é", 2500)

	got := Format(runner.Result{ExitCode: 1, Stderr: noise + body})

	_, section, found := strings.Cut(got, "--- stderr ---\n")
	require.True(t, found)
	require.True(t, strings.HasSuffix(section, "\n... (truncated)"))
	kept := strings.TrimSuffix(section, "\n... (truncated)")
	assert.Equal(t, MaxStderrRunes, utf8.RuneCountInString(kept))
}

func TestFormat_ShortStderrNotTruncated(t *testing.T) {
	stderr := strings.Repeat("x", MaxStderrRunes)
	got := Format(runner.Result{ExitCode: 1, Stderr: stderr})
	assert.NotContains(t, got, "truncated")
}

func TestFormat_Idempotent(t *testing.T) {
	res := runner.Result{ExitCode: 3, Stdout: "out", Stderr: "[ Info: x\nerr"}
	assert.Equal(t, Format(res), Format(res))
}

func TestFormatter_StdoutLimits(t *testing.T) {
	f := Formatter{Stdout: Limits{MaxLines: 2}}

	got := f.Format(runner.Result{Stdout: "1\n2\n3\n4\n"})

	assert.Equal(t, "--- stdout ---\n1\n2\n... (stdout truncated)", got)
}

func TestApplyLimits(t *testing.T) {
	out, truncated := ApplyLimits("a\nb\n", Limits{MaxLines: 2})
	assert.False(t, truncated)
	assert.Equal(t, "a\nb\n", out)

	out, truncated = ApplyLimits("héllo", Limits{MaxBytes: 2})
	assert.True(t, truncated)
	assert.Equal(t, "h", out)

	out, truncated = ApplyLimits("abc", Limits{})
	assert.False(t, truncated)
	assert.Equal(t, "abc", out)
}
