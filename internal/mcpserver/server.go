// Package mcpserver exposes the tool registry and documentation resources
// over the Model Context Protocol.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/PabloBotinGP/SIENNA-PA-MCP/internal/resources"
	"github.com/PabloBotinGP/SIENNA-PA-MCP/internal/tool"
)

const (
	Name = "poweranalytics"

	APIIndexURI       = "poweranalytics://api-index"
	ComponentTypesURI = "poweranalytics://component-types"
)

// Instructions is sent to the client during initialization.
const Instructions = `Analyze power system simulation results with PowerAnalytics.jl, which operates on
results produced by PowerSimulations.jl using PowerSystems.jl data structures. Julia runs locally.

Workflow:
1. check_julia_environment verifies the setup.
2. Read poweranalytics://api-index to discover functions.
3. Read poweranalytics://component-types to discover component types.
4. get_docstring pulls full documentation for a symbol.
5. run_julia_script executes the Julia code you compose.
6. list_result_files finds simulation results and saved outputs.

Prompts: analyze_simulation, julia_coding_guide, julia_error_handling,
output_saving_conventions, results_presentation.

If a script fails, read the error, fix the script and retry (at most 3 attempts).`

// ResourceReader serves artifact text. resources.Cache implements it.
type ResourceReader interface {
	Read(a resources.Artifact) string
}

// Server wires tools and resources into an mcp-go server.
type Server struct {
	mcp    *server.MCPServer
	runner *tool.Runner
	logger *zap.Logger
}

func New(version string, registry *tool.Registry, runner *tool.Runner, docs ResourceReader, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		mcp: server.NewMCPServer(Name, version,
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
			server.WithPromptCapabilities(false),
			server.WithInstructions(Instructions),
			server.WithRecovery(),
		),
		runner: runner,
		logger: logger,
	}
	for _, meta := range registry.List() {
		s.mcp.AddTool(newTool(meta), s.handler(meta.Name))
	}
	s.addPrompts()
	if docs != nil {
		s.addResource(docs, APIIndexURI, "API index",
			"Auto-generated one-line-per-symbol index of all PowerAnalytics.jl exports.", resources.APIIndex)
		s.addResource(docs, ComponentTypesURI, "Component types",
			"Auto-generated PowerSystems.jl component type hierarchy.", resources.ComponentTypes)
	}
	return s
}

// MCP returns the underlying mcp-go server.
func (s *Server) MCP() *server.MCPServer { return s.mcp }

// Serve speaks MCP over in/out until ctx is done or in is closed. Nothing else
// may write to out.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(zap.NewStdLog(s.logger))
	return stdio.Listen(ctx, in, out)
}

func newTool(meta tool.Meta) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(meta.Description)}
	for _, p := range meta.Params {
		popts := []mcp.PropertyOption{mcp.Description(p.Description)}
		if p.Required {
			popts = append(popts, mcp.Required())
		}
		switch p.Kind {
		case tool.KindNumber:
			opts = append(opts, mcp.WithNumber(p.Name, popts...))
		default:
			opts = append(opts, mcp.WithString(p.Name, popts...))
		}
	}
	return mcp.NewTool(meta.Name, opts...)
}

func (s *Server) handler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := json.Marshal(req.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}
		res, err := s.runner.RunOne(ctx, tool.Call{Name: name, Arguments: args})
		if errors.Is(err, tool.ErrInvalidCall) {
			return mcp.NewToolResultError("Error: " + err.Error()), nil
		}
		if err != nil {
			return nil, err
		}
		if res.IsError {
			return mcp.NewToolResultError(res.Text), nil
		}
		return mcp.NewToolResultText(res.Text), nil
	}
}

func (s *Server) addResource(docs ResourceReader, uri, name, description string, a resources.Artifact) {
	s.mcp.AddResource(
		mcp.NewResource(uri, name,
			mcp.WithResourceDescription(description),
			mcp.WithMIMEType("text/markdown"),
		),
		func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			return []mcp.ResourceContents{
				mcp.TextResourceContents{URI: uri, MIMEType: "text/markdown", Text: docs.Read(a)},
			}, nil
		},
	)
}
