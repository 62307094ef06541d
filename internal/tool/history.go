package tool

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/PabloBotinGP/SIENNA-PA-MCP/internal/db"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
)

type HistoryInput struct {
	Limit int `json:"limit"`
}

// History lists recent script runs from the history database.
type History struct {
	DB *sql.DB
}

func NewHistory(database *sql.DB) *History { return &History{DB: database} }

func (t *History) Name() string { return "list_execution_history" }

func (t *History) Description() string {
	return "List recent Julia script runs with their outcome (ok, failed, timeout, oom), exit code and duration."
}

func (t *History) Params() []Param {
	return []Param{
		{Name: "limit", Kind: KindNumber, Description: "Number of runs to return, newest first. Defaults to 20."},
	}
}

func (t *History) Validate(raw json.RawMessage) error {
	_, err := t.parse(raw)
	return err
}

func (t *History) parse(raw json.RawMessage) (HistoryInput, error) {
	var in HistoryInput
	if err := decodeInput(raw, &in); err != nil {
		return in, fmt.Errorf("invalid list_execution_history input: %w", err)
	}
	if in.Limit < 0 {
		return in, fmt.Errorf("list_execution_history.limit must be >= 0")
	}
	return in, nil
}

func (t *History) Execute(ctx context.Context, raw json.RawMessage) (Result, error) {
	in, err := t.parse(raw)
	if err != nil {
		return Result{}, err
	}
	if in.Limit == 0 {
		in.Limit = defaultHistoryLimit
	}
	in.Limit = min(in.Limit, maxHistoryLimit)

	runs, err := db.RecentRuns(t.DB, in.Limit)
	if err != nil {
		return Result{}, err
	}
	return textResult(FormatRuns(runs)), nil
}

// FormatRuns renders runs one per line, newest first.
func FormatRuns(runs []db.Run) string {
	if len(runs) == 0 {
		return "No runs recorded yet."
	}
	lines := make([]string, 0, len(runs)+1)
	lines = append(lines, fmt.Sprintf("Last %d runs (newest first):", len(runs)))
	for _, r := range runs {
		line := fmt.Sprintf("  %s  %-24s %-8s exit=%-4d %8s",
			r.StartedAt.UTC().Format(time.RFC3339), r.Label, r.Outcome, r.ExitCode, r.Duration.Round(time.Millisecond))
		if r.WorkDir != "" {
			line += "  " + r.WorkDir
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
