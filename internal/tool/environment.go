package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/PabloBotinGP/SIENNA-PA-MCP/internal/runner"
	"github.com/PabloBotinGP/SIENNA-PA-MCP/internal/script"
)

// IndexGenerator regenerates missing documentation artifacts once the
// runtime is known to work. resources.Cache implements it.
type IndexGenerator interface {
	AutoGenerate(ctx context.Context) string
}

const environmentScript = script.Prelude + `
println("Julia version: ", VERSION)
println("PowerAnalytics loaded successfully.")
println("Project: ", Base.active_project())
`

type CheckEnvironmentInput struct {
	ProjectPath string `json:"project_path"`
}

// CheckEnvironment verifies Julia can load the package stack.
type CheckEnvironment struct {
	Julia
	Index IndexGenerator
}

func NewCheckEnvironment(j Julia, index IndexGenerator) *CheckEnvironment {
	return &CheckEnvironment{Julia: j, Index: index}
}

func (t *CheckEnvironment) Name() string { return "check_julia_environment" }

func (t *CheckEnvironment) Description() string {
	return "Verify that Julia is available and PowerAnalytics.jl can be loaded. " +
		"Also builds the API index resources on first use when a sysimage is configured."
}

func (t *CheckEnvironment) Params() []Param {
	return []Param{
		{Name: "project_path", Kind: KindString, Description: "Julia project to check. Defaults to PA_PROJECT_PATH."},
	}
}

func (t *CheckEnvironment) Validate(raw json.RawMessage) error {
	_, err := t.parse(raw)
	return err
}

func (t *CheckEnvironment) parse(raw json.RawMessage) (CheckEnvironmentInput, error) {
	var in CheckEnvironmentInput
	if err := decodeInput(raw, &in); err != nil {
		return in, fmt.Errorf("invalid check_julia_environment input: %w", err)
	}
	return in, nil
}

func (t *CheckEnvironment) Execute(ctx context.Context, raw json.RawMessage) (Result, error) {
	in, err := t.parse(raw)
	if err != nil {
		return Result{}, err
	}

	dir, reject := t.projectDir(in.ProjectPath)
	if reject != "" {
		return errorResult(reject), nil
	}
	res, err := t.Executor.Execute(ctx, runner.Request{Script: environmentScript, WorkDir: dir, Label: t.Name()})
	if err != nil {
		return Result{}, err
	}
	if res.ExitCode != 0 {
		return errorResult("Environment check FAILED.\n" + t.render(res)), nil
	}

	text := "Environment OK.\n" + res.Stdout
	if t.Index != nil {
		if msg := t.Index.AutoGenerate(ctx); msg != "" {
			text += "\n" + msg
		}
	}
	return textResult(text), nil
}
