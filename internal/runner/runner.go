// Package runner executes one prepared Julia script as a child process and
// returns its fully materialized output.
//
// Stdout is drained through a pipe by os/exec. Stderr goes to a temp file that
// is read back only after the child has exited: Julia can emit tens of KB of
// diagnostics, and with two pipes a full stderr buffer blocks the child while
// the parent is still waiting on stdout.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"go.uber.org/zap"
)

// ExitTimeout is the exit code reported when the runner stopped the child
// itself (timeout or cancellation). No process output is kept in that case.
const ExitTimeout = -1

const (
	DefaultExecutable = "julia"
	DefaultTimeout    = 300 * time.Second

	// waitDelay bounds how long Wait keeps draining stdout after the child
	// exited or was killed, in case a grandchild still holds the pipe.
	waitDelay = 5 * time.Second
)

// Request is one script execution.
type Request struct {
	Script string
	// WorkDir overrides the configured project path. It is both the child's
	// working directory and the activated Julia project.
	WorkDir string
	// Label names the caller in logs and history.
	Label string
}

// Result is produced once per invocation.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
	TimedOut bool
}

// Executor is implemented by Runner and by decorators around it.
type Executor interface {
	Execute(ctx context.Context, req Request) (Result, error)
}

// Config is derived from process-wide configuration.
type Config struct {
	Executable   string
	ProjectPath  string
	Timeout      time.Duration
	HeapSizeHint string
	SysimagePath string
	// TempDir holds the per-invocation script and stderr files. Empty means
	// os.TempDir().
	TempDir string
}

type Runner struct {
	cfg    Config
	logger *zap.Logger
}

func New(cfg Config, logger *zap.Logger) *Runner {
	if cfg.Executable == "" {
		cfg.Executable = DefaultExecutable
	}
	if cfg.ProjectPath == "" {
		cfg.ProjectPath = "."
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{cfg: cfg, logger: logger}
}

// Config returns the effective configuration.
func (r *Runner) Config() Config { return r.cfg }

// Execute runs req.Script. Non-zero exits, signal deaths and timeouts are
// reported through the Result; the error is reserved for infrastructure
// failures such as an unwritable temp dir or a missing executable.
func (r *Runner) Execute(ctx context.Context, req Request) (Result, error) {
	workDir := req.WorkDir
	if workDir == "" {
		workDir = r.cfg.ProjectPath
	}
	log := r.logger.With(zap.String("label", req.Label), zap.String("workdir", workDir))

	scriptPath, err := writeTemp(r.cfg.TempDir, "pa-script-*.jl", req.Script)
	if err != nil {
		return Result{}, err
	}
	defer removeTemp(log, scriptPath)

	stderrFile, err := os.CreateTemp(r.cfg.TempDir, "pa-stderr-*.log")
	if err != nil {
		return Result{}, fmt.Errorf("create stderr file: %w", err)
	}
	stderrPath := stderrFile.Name()
	defer removeTemp(log, stderrPath)

	runCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, r.cfg.Executable, BuildArgs(r.cfg, workDir, scriptPath)...)
	cmd.Dir = workDir
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = stderrFile
	cmd.WaitDelay = waitDelay
	configureProcess(cmd)

	log.Debug("starting script", zap.Strings("argv", cmd.Args))
	start := time.Now()
	if err := cmd.Start(); err != nil {
		_ = stderrFile.Close()
		return Result{}, fmt.Errorf("start %s: %w", r.cfg.Executable, err)
	}
	waitErr := cmd.Wait()
	duration := time.Since(start)
	if err := stderrFile.Close(); err != nil {
		log.Warn("failed to close stderr file", zap.Error(err))
	}

	if waitErr != nil && runCtx.Err() != nil {
		res := Result{ExitCode: ExitTimeout, Duration: duration, TimedOut: true}
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			res.Stderr = timeoutMessage(r.cfg.Timeout)
			log.Warn("script timed out", zap.Duration("timeout", r.cfg.Timeout))
		} else {
			res.Stderr = "Script was canceled before it finished."
			log.Warn("script canceled", zap.Duration("after", duration))
		}
		return res, nil
	}
	if waitErr != nil && errors.Is(waitErr, exec.ErrWaitDelay) {
		log.Warn("stdout still held open after exit", zap.Error(waitErr))
		waitErr = nil
	}
	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		return Result{}, fmt.Errorf("wait for %s: %w", r.cfg.Executable, waitErr)
	}

	stderr, err := os.ReadFile(stderrPath)
	if err != nil {
		return Result{}, fmt.Errorf("read stderr file: %w", err)
	}

	res := Result{
		ExitCode: exitCode(cmd.ProcessState),
		Stdout:   stdout.String(),
		Stderr:   string(stderr),
		Duration: duration,
	}
	log.Info("script finished",
		zap.Int("exit_code", res.ExitCode),
		zap.Duration("duration", duration),
		zap.Int("stdout_bytes", len(res.Stdout)),
		zap.Int("stderr_bytes", len(res.Stderr)),
	)
	return res, nil
}

func timeoutMessage(timeout time.Duration) string {
	return fmt.Sprintf(
		"Script timed out after %s. Split the work into smaller chunks "+
			"(fewer scenarios, a shorter time window) and save intermediate results to disk between runs.",
		timeout,
	)
}

func writeTemp(dir, pattern, content string) (string, error) {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", fmt.Errorf("create script file: %w", err)
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write script file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("close script file: %w", err)
	}
	return f.Name(), nil
}

func removeTemp(log *zap.Logger, path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("failed to remove temp file", zap.String("path", path), zap.Error(err))
	}
}

func exitCode(state *os.ProcessState) int {
	if state == nil {
		return ExitTimeout
	}
	if code, ok := signalExitCode(state); ok {
		return code
	}
	return state.ExitCode()
}
