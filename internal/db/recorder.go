package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/PabloBotinGP/SIENNA-PA-MCP/internal/report"
	"github.com/PabloBotinGP/SIENNA-PA-MCP/internal/runner"
)

// OutcomeError marks runs whose executor returned an error.
const OutcomeError = "error"

// Recorder wraps an executor and stores every run in the runs table. A failed
// history write is logged and never fails the run.
type Recorder struct {
	next   runner.Executor
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

func NewRecorder(next runner.Executor, database *sql.DB, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{next: next, db: database, logger: logger, now: time.Now}
}

func (r *Recorder) Execute(ctx context.Context, req runner.Request) (runner.Result, error) {
	started := r.now()
	res, err := r.next.Execute(ctx, req)

	run := Run{
		ID:          uuid.NewString(),
		Label:       req.Label,
		WorkDir:     req.WorkDir,
		ScriptBytes: len(req.Script),
		StartedAt:   started,
	}
	if run.Label == "" {
		run.Label = "script"
	}
	if err != nil {
		run.ExitCode = runner.ExitTimeout
		run.Outcome = OutcomeError
		run.Error = err.Error()
		run.Duration = r.now().Sub(started)
	} else {
		run.ExitCode = res.ExitCode
		run.Outcome = string(report.OutcomeOf(res))
		run.Duration = res.Duration
		run.StdoutBytes = len(res.Stdout)
		run.StderrBytes = len(res.Stderr)
		if res.ExitCode != 0 {
			run.Error = report.FilterStderr(res.Stderr)
		}
	}
	if werr := InsertRun(r.db, run); werr != nil {
		r.logger.Warn("failed to record run", zap.String("run_id", run.ID), zap.Error(werr))
	}
	return res, err
}
