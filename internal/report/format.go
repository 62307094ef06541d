package report

import (
	"strconv"
	"strings"

	"github.com/PabloBotinGP/SIENNA-PA-MCP/internal/runner"
)

// MaxStderrRunes bounds the filtered stderr shown to callers.
const MaxStderrRunes = 2000

const (
	infoPrefix      = "[ Info:"
	truncatedSuffix = "\n... (truncated)"
	stdoutCutSuffix = "\n... (stdout truncated)"
	noOutput        = "(no output)"
)

// Formatter renders results. The zero value leaves stdout unbounded.
type Formatter struct {
	Stdout Limits
}

// Format renders res with the zero Formatter.
func Format(res runner.Result) string {
	return Formatter{}.Format(res)
}

// Format renders res as:
//
//	Exit code: N        (non-zero only)
//	--- stdout ---
//	--- stderr ---      (after dropping "[ Info:" lines)
//
// with "(no output)" in place of both blocks when they are empty.
func (f Formatter) Format(res runner.Result) string {
	var parts []string
	hasOutput := false
	if res.ExitCode != 0 {
		parts = append(parts, "Exit code: "+strconv.Itoa(res.ExitCode))
	}
	if res.Stdout != "" {
		stdout := res.Stdout
		if f.Stdout.enabled() {
			if cut, truncated := ApplyLimits(stdout, f.Stdout); truncated {
				stdout = strings.TrimSuffix(cut, "\n") + stdoutCutSuffix
			}
		}
		parts = append(parts, "--- stdout ---\n"+stdout)
		hasOutput = true
	}
	if stderr := FilterStderr(res.Stderr); stderr != "" {
		if cut, truncated := truncateRunes(stderr, MaxStderrRunes); truncated {
			stderr = cut + truncatedSuffix
		}
		parts = append(parts, "--- stderr ---\n"+stderr)
		hasOutput = true
	}
	if !hasOutput {
		parts = append(parts, noOutput)
	}
	return strings.Join(parts, "\n")
}

// FilterStderr drops Julia's "[ Info:" log lines.
func FilterStderr(stderr string) string {
	if stderr == "" {
		return ""
	}
	lines := strings.Split(stderr, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimLeft(line, " \t"), infoPrefix) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
