package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/PabloBotinGP/SIENNA-PA-MCP/internal/db"
	"github.com/PabloBotinGP/SIENNA-PA-MCP/internal/tool"
)

// errFailed makes the process exit 1 after the command already printed its
// report.
var errFailed = errors.New("command failed")

var (
	runProject   string
	historyLimit int
	eventsID     int64
	eventsDepth  int
	eventsJSON   bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve MCP on stdin/stdout",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var runCmd = &cobra.Command{
	Use:   "run <file.jl>",
	Short: "Run one Julia script and print the report",
	Args:  cobra.ExactArgs(1),
	RunE:  runScriptFile,
}

var generateIndexCmd = &cobra.Command{
	Use:   "generate-index",
	Short: "Regenerate the API index and component type resources",
	Args:  cobra.NoArgs,
	RunE:  runGenerateIndex,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent script runs",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show the event tree of the latest server session",
	Args:  cobra.NoArgs,
	RunE:  runEvents,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cfg, logger, "serve")
	if err != nil {
		return err
	}
	defer a.Close()

	logger.Info("serving MCP on stdio",
		zap.String("version", version),
		zap.String("project_path", cfg.ProjectPath),
		zap.String("resources_dir", cfg.ResourcesDir),
		zap.Bool("history", cfg.HistoryEnabled()),
	)
	err = a.server().Serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("serve: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

func runScriptFile(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}
	a, err := newApp(cfg, logger, "run")
	if err != nil {
		return err
	}
	defer a.Close()

	callArgs := map[string]any{"script": string(data)}
	if runProject != "" {
		callArgs["project_path"] = runProject
	}
	res, err := a.call(cmd.Context(), "run_julia_script", callArgs)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.Text)
	if res.IsError {
		return errFailed
	}
	return nil
}

func runGenerateIndex(cmd *cobra.Command, args []string) error {
	a, err := newApp(cfg, logger, "generate-index")
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Fprintf(cmd.OutOrStdout(), "Generating resources in %s\n", cfg.ResourcesDir)
	rep, err := a.cache.Refresh(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), rep.String())
	if !rep.OK() {
		return errFailed
	}
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	database, err := openHistory()
	if err != nil {
		return err
	}
	defer database.Close()

	runs, err := db.RecentRuns(database, historyLimit)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), tool.FormatRuns(runs))
	return nil
}

func runEvents(cmd *cobra.Command, args []string) error {
	database, err := openHistory()
	if err != nil {
		return err
	}
	defer database.Close()

	rootID := eventsID
	if rootID == 0 {
		if rootID, err = db.LatestSessionID(database); err != nil {
			return err
		}
	}
	tree, err := db.SessionTree(database, rootID)
	if err != nil {
		return err
	}
	if eventsJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(tree)
	}
	return db.RenderTree(cmd.OutOrStdout(), tree, eventsDepth)
}

func openHistory() (*sql.DB, error) {
	if !cfg.HistoryEnabled() {
		return nil, errors.New("run history is disabled (PA_HISTORY_DB=off)")
	}
	database, err := db.OpenDB(cfg.HistoryDB)
	if err != nil {
		return nil, err
	}
	if err := db.InitSchema(database); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}
	return database, nil
}
