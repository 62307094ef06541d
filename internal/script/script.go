// Package script composes the Julia source that is actually executed for a
// request: a project-root binding, the standard prelude when the caller did
// not bring its own, and the caller's script.
package script

import (
	"path/filepath"
	"strings"
)

// ProjectRootConst is the name of the constant bound to the project root in
// every prepared script. Scripts run from a temp file, so @__DIR__ would point
// there instead of at the project.
const ProjectRootConst = "PROJECT_ROOT"

// Prelude is prepended to scripts that do not set up their own imports.
const Prelude = `using PowerSystems
using PowerSimulations
using StorageSystemsSimulations
using HydroPowerSimulations
using DataFrames
using Dates
using CSV
using PowerAnalytics
using PowerAnalytics.Metrics
using Logging
Logging.disable_logging(Logging.Info)
`

// Detector decides whether a script already declares its own imports and
// logging setup.
type Detector interface {
	SelfContained(script string) bool
}

// DefaultMarkers are the substrings MarkerDetector looks for.
var DefaultMarkers = []string{
	"using PowerAnalytics",
	"import PowerAnalytics",
	"disable_logging",
}

// MarkerDetector reports a script as self-contained when it contains any of
// its markers.
type MarkerDetector struct {
	Markers []string
}

func (d MarkerDetector) SelfContained(script string) bool {
	markers := d.Markers
	if markers == nil {
		markers = DefaultMarkers
	}
	for _, m := range markers {
		if m != "" && strings.Contains(script, m) {
			return true
		}
	}
	return false
}

// Prepared is the text handed to the runner.
type Prepared struct {
	Text            string
	PreludeInjected bool
}

// Preparer builds Prepared scripts for one project root.
type Preparer struct {
	projectRoot string
	detector    Detector
}

// NewPreparer returns a Preparer binding projectRoot. A nil detector means
// MarkerDetector with DefaultMarkers.
func NewPreparer(projectRoot string, detector Detector) *Preparer {
	if abs, err := filepath.Abs(projectRoot); err == nil {
		projectRoot = abs
	}
	if detector == nil {
		detector = MarkerDetector{}
	}
	return &Preparer{projectRoot: projectRoot, detector: detector}
}

// ProjectRoot returns the absolute root bound into scripts.
func (p *Preparer) ProjectRoot() string { return p.projectRoot }

// Prepare never fails; it is a pure text transformation.
func (p *Preparer) Prepare(raw string) Prepared {
	var b strings.Builder
	b.WriteString("const ")
	b.WriteString(ProjectRootConst)
	b.WriteString(" = ")
	b.WriteString(QuoteString(p.projectRoot))
	b.WriteString("\n")

	injected := !p.detector.SelfContained(raw)
	if injected {
		b.WriteString(Prelude)
	}
	b.WriteString("\n")
	b.WriteString(raw)
	if !strings.HasSuffix(raw, "\n") {
		b.WriteString("\n")
	}
	return Prepared{Text: b.String(), PreludeInjected: injected}
}

// QuoteString renders s as a Julia string literal. Backslashes, quotes and
// '$' (interpolation) are escaped.
func QuoteString(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\', '"', '$':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '\n':
			b.WriteString(`\n`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
