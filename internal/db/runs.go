package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Run is one row of the runs table.
type Run struct {
	ID          string
	Label       string
	WorkDir     string
	ExitCode    int
	Outcome     string
	Duration    time.Duration
	StdoutBytes int
	StderrBytes int
	ScriptBytes int
	Error       string
	StartedAt   time.Time
}

const maxErrorLen = 2000

// InsertRun stores r. ID, Label and Outcome are required.
func InsertRun(database *sql.DB, r Run) error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("run id cannot be empty")
	}
	if strings.TrimSpace(r.Label) == "" {
		return fmt.Errorf("run label cannot be empty")
	}
	if strings.TrimSpace(r.Outcome) == "" {
		return fmt.Errorf("run outcome cannot be empty")
	}
	_, err := database.Exec(
		`INSERT INTO runs (id, label, work_dir, exit_code, outcome, duration_ms,
			stdout_bytes, stderr_bytes, script_bytes, error, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Label, r.WorkDir, r.ExitCode, r.Outcome, r.Duration.Milliseconds(),
		r.StdoutBytes, r.StderrBytes, r.ScriptBytes, nullIfEmpty(truncateForDB(r.Error)), r.StartedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", r.ID, err)
	}
	return nil
}

// RecentRuns returns up to limit runs, newest first.
func RecentRuns(database *sql.DB, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := database.Query(
		`SELECT id, label, work_dir, exit_code, outcome, duration_ms,
			stdout_bytes, stderr_bytes, script_bytes, error, started_at
		FROM runs ORDER BY started_at DESC, created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r          Run
			durationMS int64
			startedAt  int64
			errText    sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Label, &r.WorkDir, &r.ExitCode, &r.Outcome, &durationMS,
			&r.StdoutBytes, &r.StderrBytes, &r.ScriptBytes, &errText, &startedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Duration = time.Duration(durationMS) * time.Millisecond
		r.StartedAt = time.UnixMilli(startedAt)
		r.Error = errText.String
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func truncateForDB(s string) string {
	if len(s) <= maxErrorLen {
		return s
	}
	return s[:maxErrorLen]
}

func nullIfEmpty(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}
