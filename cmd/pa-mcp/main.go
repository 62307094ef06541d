// Command pa-mcp serves PowerAnalytics.jl script execution to AI agents over
// MCP on stdio, and exposes the same pipeline as one-shot commands.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/PabloBotinGP/SIENNA-PA-MCP/internal/config"
	"github.com/PabloBotinGP/SIENNA-PA-MCP/internal/logging"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	// Global flags
	configFile string
	verbose    bool

	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "pa-mcp",
	Short: "PowerAnalytics.jl MCP server",
	Long: `pa-mcp runs Julia scripts written by an AI agent against PowerAnalytics.jl
and returns their output, classified and trimmed for the agent.

Run without arguments to serve MCP on stdin/stdout.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return err
		}
		logger, err = logging.New(cfg.LogLevel, verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file (or set PA_CONFIG_FILE)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	runCmd.Flags().StringVar(&runProject, "project", "", "Julia project directory (default: PA_PROJECT_PATH)")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of runs to show")
	eventsCmd.Flags().Int64Var(&eventsID, "id", 0, "Show the subtree of a specific event ID")
	eventsCmd.Flags().IntVarP(&eventsDepth, "depth", "L", 0, "Limit display depth (0 = unlimited)")
	eventsCmd.Flags().BoolVar(&eventsJSON, "json", false, "Output JSON")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(generateIndexCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(eventsCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
