package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/PabloBotinGP/SIENNA-PA-MCP/internal/runner"
	"github.com/PabloBotinGP/SIENNA-PA-MCP/internal/script"
)

const defaultDocModule = "PowerAnalytics"

var docModules = map[string]struct{}{
	"PowerAnalytics":           {},
	"PowerAnalytics.Metrics":   {},
	"PowerAnalytics.Selectors": {},
}

type DocstringInput struct {
	SymbolName string `json:"symbol_name"`
	ModuleName string `json:"module_name"`
}

// Docstring prints the full Julia documentation for one symbol.
type Docstring struct {
	Julia
}

func NewDocstring(j Julia) *Docstring { return &Docstring{Julia: j} }

func (t *Docstring) Name() string { return "get_docstring" }

func (t *Docstring) Description() string {
	return "Get the full Julia docstring (signature, arguments, examples) for a symbol listed in the " +
		"poweranalytics://api-index resource."
}

func (t *Docstring) Params() []Param {
	return []Param{
		{Name: "symbol_name", Kind: KindString, Required: true, Description: `Julia symbol, e.g. "calc_active_power".`},
		{Name: "module_name", Kind: KindString, Description: "Module containing the symbol: " + allowedModules() + ". Defaults to PowerAnalytics."},
	}
}

func (t *Docstring) Validate(raw json.RawMessage) error {
	_, err := t.parse(raw)
	return err
}

func (t *Docstring) parse(raw json.RawMessage) (DocstringInput, error) {
	var in DocstringInput
	if err := decodeInput(raw, &in); err != nil {
		return in, fmt.Errorf("invalid get_docstring input: %w", err)
	}
	return in, nil
}

func (t *Docstring) Execute(ctx context.Context, raw json.RawMessage) (Result, error) {
	in, err := t.parse(raw)
	if err != nil {
		return Result{}, err
	}
	if in.ModuleName == "" {
		in.ModuleName = defaultDocModule
	}

	if !IsJuliaIdentifier(in.SymbolName) {
		return errorResult(fmt.Sprintf("Error: Invalid symbol name '%s'. Must be a valid Julia identifier.", in.SymbolName)), nil
	}
	if _, ok := docModules[in.ModuleName]; !ok {
		return errorResult(fmt.Sprintf("Error: Unknown module '%s'. Allowed modules: %s", in.ModuleName, allowedModules())), nil
	}

	res, err := t.Executor.Execute(ctx, runner.Request{
		Script:  docstringScript(in.ModuleName, in.SymbolName),
		WorkDir: t.DefaultProject,
		Label:   t.Name(),
	})
	if err != nil {
		return Result{}, err
	}
	if res.ExitCode != 0 {
		return errorResult("Error retrieving docstring:\n" + t.render(res)), nil
	}
	return textResult(strings.TrimSpace(res.Stdout)), nil
}

func docstringScript(module, symbol string) string {
	return script.Prelude + fmt.Sprintf(`
mod = %s
sym = Symbol(%s)
if isdefined(mod, sym)
    println(Base.doc(getfield(mod, sym)))
else
    println("Symbol '%s' not found in %s")
end
`, module, script.QuoteString(symbol), symbol, module)
}

// IsJuliaIdentifier accepts a letter or underscore followed by letters,
// digits, underscores or combining marks. Other punctuation, '!' included, is
// rejected.
func IsJuliaIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || unicode.IsLetter(r):
		case i > 0 && (unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)):
		default:
			return false
		}
	}
	return true
}

func allowedModules() string {
	names := make([]string, 0, len(docModules))
	for m := range docModules {
		names = append(names, m)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
