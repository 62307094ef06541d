package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/PabloBotinGP/SIENNA-PA-MCP/internal/script"
)

type promptArg struct {
	name        string
	description string
	fallback    string
}

// guide is a workflow prompt. body receives every declared argument, filled
// with its fallback when the client omitted it.
type guide struct {
	name        string
	description string
	args        []promptArg
	body        func(args map[string]string) string
}

const defaultResultsDir = "_simulation_results_RTS"

var guides = []guide{
	{
		name:        "analyze_simulation",
		description: "Step-by-step workflow for a PowerAnalytics analysis task.",
		args: []promptArg{
			{name: "task_description", description: "What to analyze.", fallback: "Analyze the simulation results"},
			{name: "results_dir", description: "Directory holding the simulation results.", fallback: defaultResultsDir},
			{name: "problem_name", description: `Decision model name, e.g. "UC".`, fallback: "UC"},
		},
		body: func(a map[string]string) string {
			return fmt.Sprintf(`## Task
%s

Results directory: %s
Problem name: %s

1. Call check_julia_environment.
2. Read poweranalytics://api-index and pick the relevant symbols.
3. Read poweranalytics://component-types for the component types involved.
4. Call get_docstring for each function you plan to use.
5. Write the script (see julia_coding_guide) and call run_julia_script. On failure follow julia_error_handling.
6. Save large tables as described in output_saving_conventions.
7. Present the findings as described in results_presentation.
`, a["task_description"], a["results_dir"], a["problem_name"])
		},
	},
	{
		name:        "julia_coding_guide",
		description: "Structure and conventions for PowerAnalytics.jl scripts.",
		body: func(map[string]string) string {
			return "## Julia coding guide\n\nStart every script with:\n```julia\n" + script.Prelude + "```\n\n" +
				`Then load results with create_problem_results_dict(results_dir, problem_name; populate_system = true),
pick a scenario, build selectors with make_selector(ComponentType) and compute metrics.

- The first DataFrame column is DateTime; data columns are named TypeName__component.
- Print size(df) and first(df, 5) instead of whole tables.
- No plotting libraries and no @show; use println and show(stdout, "text/plain", df).
`
		},
	},
	{
		name:        "julia_error_handling",
		description: "Reading Julia errors and retrying failed scripts.",
		body: func(map[string]string) string {
			return `## Julia error handling

- MethodError: wrong argument types; check the docstring signature (types, not strings).
- UndefVarError: missing import or misspelled symbol; check the API index.
- KeyError on a scenario: print keys(results_all) first.
- Empty DataFrame: the component type has no results in this simulation.
- Out of memory or timeout: process one scenario or a shorter window per run and save
  intermediate CSVs between runs.

Fix one error at a time and change only the failing part. After 3 failed attempts,
report the error to the user instead of retrying.
`
		},
	},
	{
		name:        "output_saving_conventions",
		description: "Where and how to save analysis outputs.",
		args: []promptArg{
			{name: "results_dir", description: "Base directory of the simulation results.", fallback: defaultResultsDir},
		},
		body: func(a map[string]string) string {
			return fmt.Sprintf(`## Output saving conventions

Save to %[1]s/results/ and create it with mkpath("%[1]s/results").
Name files {scenario}_{ComponentType}_{metric}.csv.
Save tables with more than 10 rows to CSV; print small summaries directly.
Always print the saved path. Overwriting existing files is fine.
`, a["results_dir"])
		},
	},
	{
		name:        "results_presentation",
		description: "How to present analysis results.",
		body: func(map[string]string) string {
			return `## Results presentation

Lead with a one-sentence finding, then numbers with units (MW, MWh, $/MWh, %),
then the power-systems explanation, then the saved CSV paths.
Give comparisons as absolute and percentage changes, side by side for scenarios.
Flag anomalies such as units at 0 MW all period, cost spikes or curtailment above 5%.
`
		},
	},
}

// PromptNames lists the registered prompts in order.
func PromptNames() []string {
	names := make([]string, 0, len(guides))
	for _, g := range guides {
		names = append(names, g.name)
	}
	return names
}

func (s *Server) addPrompts() {
	for _, g := range guides {
		opts := []mcp.PromptOption{mcp.WithPromptDescription(g.description)}
		for _, a := range g.args {
			opts = append(opts, mcp.WithArgument(a.name, mcp.ArgumentDescription(a.description)))
		}
		s.mcp.AddPrompt(mcp.NewPrompt(g.name, opts...), g.handler)
	}
}

func (g guide) handler(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	args := make(map[string]string, len(g.args))
	for _, a := range g.args {
		v := strings.TrimSpace(req.Params.Arguments[a.name])
		if v == "" {
			v = a.fallback
		}
		args[a.name] = v
	}
	return mcp.NewGetPromptResult(g.description, []mcp.PromptMessage{
		mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(g.body(args))),
	}), nil
}
