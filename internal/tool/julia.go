package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PabloBotinGP/SIENNA-PA-MCP/internal/report"
	"github.com/PabloBotinGP/SIENNA-PA-MCP/internal/runner"
	"github.com/PabloBotinGP/SIENNA-PA-MCP/internal/script"
)

// Julia holds what every script-running tool shares.
type Julia struct {
	Executor       runner.Executor
	Policy         *Policy
	DefaultProject string
	Formatter      report.Formatter
}

// projectDir resolves an optional project_path argument. The second return
// value is a rejection message for the agent.
func (j Julia) projectDir(projectPath string) (string, string) {
	path := strings.TrimSpace(projectPath)
	if path == "" {
		path = j.DefaultProject
	}
	if path == "" {
		path = "."
	}
	dir, err := j.Policy.ResolveAllowedPath(path, "")
	if err != nil {
		return "", fmt.Sprintf("Error: %v", err)
	}
	return dir, ""
}

func (j Julia) render(res runner.Result) string {
	return j.Formatter.Format(report.Classify(res))
}

type RunScriptInput struct {
	Script      string `json:"script"`
	ProjectPath string `json:"project_path"`
}

// RunScript executes agent-authored Julia code.
type RunScript struct {
	Julia
	Detector script.Detector
}

func NewRunScript(j Julia, detector script.Detector) *RunScript {
	return &RunScript{Julia: j, Detector: detector}
}

func (t *RunScript) Name() string { return "run_julia_script" }

func (t *RunScript) Description() string {
	return "Execute a Julia script with the PowerAnalytics.jl project activated and return its output. " +
		"When the script does not import PowerAnalytics itself, the standard imports are prepended and " +
		"Info logging is disabled. PROJECT_ROOT is always bound to the project directory."
}

func (t *RunScript) Params() []Param {
	return []Param{
		{Name: "script", Kind: KindString, Required: true, Description: "Complete Julia source code to execute."},
		{Name: "project_path", Kind: KindString, Description: "Julia project to activate and run in. Defaults to PA_PROJECT_PATH."},
	}
}

func (t *RunScript) Validate(raw json.RawMessage) error {
	_, err := t.parse(raw)
	return err
}

func (t *RunScript) parse(raw json.RawMessage) (RunScriptInput, error) {
	var in RunScriptInput
	if err := decodeInput(raw, &in); err != nil {
		return in, fmt.Errorf("invalid run_julia_script input: %w", err)
	}
	if strings.TrimSpace(in.Script) == "" {
		return in, fmt.Errorf("run_julia_script.script is required")
	}
	return in, nil
}

func (t *RunScript) Execute(ctx context.Context, raw json.RawMessage) (Result, error) {
	in, err := t.parse(raw)
	if err != nil {
		return Result{}, err
	}

	dir, reject := t.projectDir(in.ProjectPath)
	if reject != "" {
		return errorResult(reject), nil
	}
	prepared := script.NewPreparer(dir, t.Detector).Prepare(in.Script)

	res, err := t.Executor.Execute(ctx, runner.Request{Script: prepared.Text, WorkDir: dir, Label: t.Name()})
	if err != nil {
		return Result{}, err
	}
	text := t.render(res)
	if prepared.PreludeInjected {
		text += "\n\n" + PreludeNote
	}
	return Result{
		Text:    text,
		IsError: res.ExitCode != 0,
		Meta: map[string]any{
			"exit_code":        res.ExitCode,
			"prelude_injected": prepared.PreludeInjected,
			"outcome":          string(report.OutcomeOf(res)),
		},
	}, nil
}

// PreludeNote is appended when the standard imports were added to a script.
const PreludeNote = "(Note: the standard PowerAnalytics prelude was prepended because the script does not " +
	"import PowerAnalytics. Add `using PowerAnalytics` to manage imports yourself.)"
