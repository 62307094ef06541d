package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/PabloBotinGP/SIENNA-PA-MCP/internal/db"
)

// ErrInvalidCall wraps unknown tool names and argument validation failures.
var ErrInvalidCall = errors.New("validation")

// Call represents one tool invocation request.
type Call struct {
	Name      string
	Arguments json.RawMessage
}

// EventSink records tool call lifecycle events. db.EventLog implements it.
type EventSink interface {
	LogEvent(eventType string, payload map[string]any) error
}

// Runner executes registered tools.
type Runner struct {
	registry *Registry
	events   EventSink
	logger   *zap.Logger
}

type RunnerOption func(*Runner)

func WithEventSink(sink EventSink) RunnerOption {
	return func(r *Runner) { r.events = sink }
}

func WithLogger(logger *zap.Logger) RunnerOption {
	return func(r *Runner) { r.logger = logger }
}

func NewRunner(registry *Registry, opts ...RunnerOption) *Runner {
	r := &Runner{registry: registry, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runner) RunOne(ctx context.Context, call Call) (Result, error) {
	if r == nil || r.registry == nil {
		return Result{}, fmt.Errorf("tool runner is not initialized")
	}
	toolName := strings.TrimSpace(call.Name)
	if toolName == "" {
		return Result{}, fmt.Errorf("%w: empty tool name", ErrInvalidCall)
	}
	t, ok := r.registry.Get(toolName)
	if !ok {
		return Result{}, fmt.Errorf("%w: unknown tool: %s", ErrInvalidCall, toolName)
	}
	if err := t.Validate(call.Arguments); err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrInvalidCall, err)
	}

	r.emit(db.EventToolCallStarted, map[string]any{"tool": toolName})
	start := time.Now()
	res, err := t.Execute(ctx, call.Arguments)
	elapsed := time.Since(start)
	if err != nil {
		r.logger.Error("tool call failed", zap.String("tool", toolName), zap.Duration("elapsed", elapsed), zap.Error(err))
		r.emit(db.EventToolCallFailed, map[string]any{"tool": toolName, "error": err.Error()})
		return res, err
	}
	r.logger.Info("tool call completed",
		zap.String("tool", toolName),
		zap.Duration("elapsed", elapsed),
		zap.Bool("is_error", res.IsError),
	)
	r.emit(db.EventToolCallDone, map[string]any{
		"tool":       toolName,
		"is_error":   res.IsError,
		"elapsed_ms": elapsed.Milliseconds(),
	})
	return res, nil
}

func (r *Runner) emit(eventType string, payload map[string]any) {
	if r.events == nil {
		return
	}
	if err := r.events.LogEvent(eventType, payload); err != nil {
		r.logger.Warn("failed to log event", zap.String("event", eventType), zap.Error(err))
	}
}
