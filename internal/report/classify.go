// Package report turns a runner.Result into the text handed back to callers:
// out-of-memory classification first, then formatting.
package report

import (
	"strings"

	"github.com/PabloBotinGP/SIENNA-PA-MCP/internal/runner"
)

const (
	// ExitSIGKILL is 128+SIGKILL after the runner normalizes signal deaths.
	// The Linux OOM killer and macOS jetsam both deliver SIGKILL.
	ExitSIGKILL = 137
	// statusNoMemory is the Windows NTSTATUS STATUS_NO_MEMORY.
	statusNoMemory uint32 = 0xC0000017
)

var oomMarkers = []string{
	"OutOfMemoryError",
	"Cannot allocate memory",
}

// IsOutOfMemory reports whether res looks like a memory exhaustion. The
// stderr match does not depend on the exit code.
func IsOutOfMemory(res runner.Result) bool {
	if res.ExitCode == ExitSIGKILL || uint32(res.ExitCode) == statusNoMemory {
		return true
	}
	for _, m := range oomMarkers {
		if strings.Contains(res.Stderr, m) {
			return true
		}
	}
	return strings.Contains(strings.ToLower(res.Stderr), "out of memory")
}

const oomAdvice = `The Julia process ran out of memory. Suggestions:
1. Narrow the analysis window: fewer time steps, fewer scenarios or a subset of components.
2. Split the script into smaller steps and save intermediate results to disk (CSV) between runs.
3. Set PA_HEAP_SIZE_HINT (for example 4G) so Julia fails gracefully before the OS kills it.
4. Read the julia_error_handling guidance for memory-related patterns.

Original error output:
`

// Classify rewrites stderr with remediation advice when a failed run was
// caused by memory exhaustion. Successful runs are returned unchanged.
func Classify(res runner.Result) runner.Result {
	if res.ExitCode == 0 || !IsOutOfMemory(res) {
		return res
	}
	res.Stderr = oomAdvice + res.Stderr
	return res
}

// Outcome is a coarse label for history and logs.
type Outcome string

const (
	OutcomeOK      Outcome = "ok"
	OutcomeFailed  Outcome = "failed"
	OutcomeTimeout Outcome = "timeout"
	OutcomeOOM     Outcome = "oom"
)

func OutcomeOf(res runner.Result) Outcome {
	switch {
	case res.TimedOut:
		return OutcomeTimeout
	case IsOutOfMemory(res):
		return OutcomeOOM
	case res.ExitCode != 0:
		return OutcomeFailed
	default:
		return OutcomeOK
	}
}
