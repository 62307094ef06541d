package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/PabloBotinGP/SIENNA-PA-MCP/internal/config"
	"github.com/PabloBotinGP/SIENNA-PA-MCP/internal/db"
	"github.com/PabloBotinGP/SIENNA-PA-MCP/internal/mcpserver"
	"github.com/PabloBotinGP/SIENNA-PA-MCP/internal/report"
	"github.com/PabloBotinGP/SIENNA-PA-MCP/internal/resources"
	"github.com/PabloBotinGP/SIENNA-PA-MCP/internal/runner"
	"github.com/PabloBotinGP/SIENNA-PA-MCP/internal/script"
	"github.com/PabloBotinGP/SIENNA-PA-MCP/internal/tool"
)

// app is one wired process: executor, history, resources and tools.
type app struct {
	cfg      config.Config
	logger   *zap.Logger
	database *sql.DB
	events   *db.EventLog
	cache    *resources.Cache
	registry *tool.Registry
	tools    *tool.Runner
}

// newApp wires every component from cfg. command is recorded on the
// server.started event when history is enabled.
func newApp(cfg config.Config, logger *zap.Logger, command string) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	var exec runner.Executor = runner.New(runner.Config{
		Executable:   cfg.JuliaExecutable,
		ProjectPath:  cfg.ProjectPath,
		Timeout:      cfg.ScriptTimeout(),
		HeapSizeHint: cfg.HeapSizeHint,
		SysimagePath: cfg.SysimagePath,
		TempDir:      cfg.TempDir,
	}, logger.Named("runner"))

	var cacheSink resources.EventSink
	toolOpts := []tool.RunnerOption{tool.WithLogger(logger.Named("tools"))}

	if cfg.HistoryEnabled() {
		database, err := db.OpenDB(cfg.HistoryDB)
		if err != nil {
			return nil, err
		}
		a.database = database
		if err := db.InitSchema(database); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to init schema: %w", err)
		}
		id, err := db.LogEvent(database, nil, db.EventServerStarted, map[string]any{
			"version":      version,
			"command":      command,
			"project_path": cfg.ProjectPath,
		})
		if err != nil {
			a.Close()
			return nil, err
		}
		a.events = &db.EventLog{DB: database, ParentID: &id}
		cacheSink = a.events
		toolOpts = append(toolOpts, tool.WithEventSink(a.events))
		exec = db.NewRecorder(exec, database, logger.Named("history"))
	}

	policy, err := tool.NewPolicy(cfg.AllowedRoots)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.cache, err = resources.NewCache(resources.Options{
		Dir:          cfg.ResourcesDir,
		SysimagePath: cfg.SysimagePath,
		Executor:     exec,
		Sink:         cacheSink,
		Logger:       logger.Named("resources"),
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	julia := tool.Julia{
		Executor:       exec,
		Policy:         policy,
		DefaultProject: cfg.ProjectPath,
		Formatter: report.Formatter{
			Stdout: report.Limits{MaxLines: cfg.MaxStdoutLines, MaxBytes: cfg.MaxStdoutBytes},
		},
	}
	a.registry = tool.NewRegistry()
	tools := []tool.Tool{
		tool.NewRunScript(julia, script.MarkerDetector{}),
		tool.NewCheckEnvironment(julia, a.cache),
		tool.NewDocstring(julia),
		tool.NewListFiles(policy, cfg.ResultsDir),
		tool.NewRefreshIndex(a.cache),
	}
	if a.database != nil {
		tools = append(tools, tool.NewHistory(a.database))
	}
	for _, t := range tools {
		if err := a.registry.Register(t); err != nil {
			a.Close()
			return nil, err
		}
	}
	a.tools = tool.NewRunner(a.registry, toolOpts...)
	return a, nil
}

func (a *app) server() *mcpserver.Server {
	return mcpserver.New(version, a.registry, a.tools, a.cache, a.logger.Named("mcp"))
}

// call runs one registered tool the same way the MCP handler does.
func (a *app) call(ctx context.Context, name string, args map[string]any) (tool.Result, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return tool.Result{}, fmt.Errorf("encode %s arguments: %w", name, err)
	}
	return a.tools.RunOne(ctx, tool.Call{Name: name, Arguments: raw})
}

func (a *app) Close() {
	if a.events != nil {
		if err := a.events.LogEvent(db.EventServerStopped, nil); err != nil {
			a.logger.Warn("failed to log event", zap.String("event", db.EventServerStopped), zap.Error(err))
		}
		a.events = nil
	}
	if a.database != nil {
		if err := a.database.Close(); err != nil {
			a.logger.Warn("failed to close history db", zap.Error(err))
		}
		a.database = nil
	}
}
