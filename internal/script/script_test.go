package script

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepare_InjectsPreludeWhenMissing(t *testing.T) {
	p := NewPreparer("/data/project", nil)

	got := p.Prepare(`println("hello")`)

	assert.True(t, got.PreludeInjected)
	lines := strings.Split(got.Text, "\n")
	require.NotEmpty(t, lines)
	assert.Equal(t, `const PROJECT_ROOT = "/data/project"`, lines[0])
	assert.Contains(t, got.Text, "using PowerAnalytics.Metrics")
	assert.Contains(t, got.Text, "Logging.disable_logging(Logging.Info)")
	assert.True(t, strings.HasSuffix(got.Text, "println(\"hello\")\n"))
}

func TestPrepare_SelfContainedScriptGetsNoDuplicatePrelude(t *testing.T) {
	p := NewPreparer("/data/project", nil)
	raw := "using PowerAnalytics\nusing DataFrames\nprintln(1)\n"

	got := p.Prepare(raw)

	assert.False(t, got.PreludeInjected)
	assert.Equal(t, 1, strings.Count(got.Text, "using PowerAnalytics\n"))
	assert.Equal(t, 1, strings.Count(got.Text, "const PROJECT_ROOT"))
	assert.NotContains(t, got.Text, "using StorageSystemsSimulations")
}

func TestPrepare_BindingAlwaysFirst(t *testing.T) {
	p := NewPreparer("/x", MarkerDetector{Markers: []string{"#noprelude"}})

	for _, raw := range []string{"#noprelude\n1+1", "1+1"} {
		got := p.Prepare(raw)
		assert.True(t, strings.HasPrefix(got.Text, "const PROJECT_ROOT = \"/x\"\n"), raw)
	}
}

func TestPrepare_RelativeRootIsMadeAbsolute(t *testing.T) {
	p := NewPreparer(".", nil)
	assert.True(t, strings.HasPrefix(p.ProjectRoot(), "/") || strings.Contains(p.ProjectRoot(), `:\`))
}

func TestMarkerDetector(t *testing.T) {
	d := MarkerDetector{}
	cases := map[string]bool{
		"using PowerAnalytics":                  true,
		"import PowerAnalytics: Metrics":        true,
		"Logging.disable_logging(Logging.Warn)": true,
		"using DataFrames":                      false,
		"":                                      false,
	}
	for in, want := range cases {
		assert.Equal(t, want, d.SelfContained(in), in)
	}
}

func TestQuoteString(t *testing.T) {
	assert.Equal(t, `"C:\\runs\\a"`, QuoteString(`C:\runs\a`))
	assert.Equal(t, `"/home/\$USER/\"q\""`, QuoteString(`/home/$USER/"q"`))
}
