package resources

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/PabloBotinGP/SIENNA-PA-MCP/internal/report"
	"github.com/PabloBotinGP/SIENNA-PA-MCP/internal/runner"
)

// Event types written to the EventSink.
const (
	EventGenerated        = "index.generated"
	EventGenerationFailed = "index.generation_failed"
	EventRefreshed        = "index.refreshed"
)

// EventSink receives generation events. db.EventLog implements it.
type EventSink interface {
	LogEvent(eventType string, payload map[string]any) error
}

// Options configures a Cache.
type Options struct {
	Dir          string
	SysimagePath string
	Executor     runner.Executor
	// Guard defaults to a fresh Guard owned by the cache.
	Guard  *Guard
	Sink   EventSink
	Logger *zap.Logger
}

type cachedFile struct {
	size    int64
	modTime time.Time
	text    string
}

// Cache reads artifacts from disk and regenerates them on demand.
type Cache struct {
	dir      string
	sysimage string
	exec     runner.Executor
	guard    *Guard
	sink     EventSink
	logger   *zap.Logger
	files    *lru.Cache[string, cachedFile]
	refresh  singleflight.Group
}

func NewCache(opts Options) (*Cache, error) {
	if opts.Dir == "" {
		return nil, errors.New("resources dir is required")
	}
	if opts.Executor == nil {
		return nil, errors.New("executor is required")
	}
	files, err := lru.New[string, cachedFile](len(All()))
	if err != nil {
		return nil, err
	}
	if opts.Guard == nil {
		opts.Guard = &Guard{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Cache{
		dir:      opts.Dir,
		sysimage: opts.SysimagePath,
		exec:     opts.Executor,
		guard:    opts.Guard,
		sink:     opts.Sink,
		logger:   opts.Logger,
		files:    files,
	}, nil
}

func (c *Cache) Guard() *Guard { return c.guard }

func (c *Cache) Path(a Artifact) string { return filepath.Join(c.dir, a.File) }

// Exists reports whether the artifact file is present.
func (c *Cache) Exists(a Artifact) bool {
	info, err := os.Stat(c.Path(a))
	return err == nil && info.Mode().IsRegular()
}

// Read returns the artifact text from disk, or its fallback when the file is
// missing or unreadable.
func (c *Cache) Read(a Artifact) string {
	path := c.Path(a)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		c.logger.Warn("resource file not found, using fallback",
			zap.String("path", path),
			zap.String("hint", "run refresh_api_index or pa-mcp generate-index"),
		)
		return a.Fallback
	}
	if f, ok := c.files.Get(path); ok && f.size == info.Size() && f.modTime.Equal(info.ModTime()) {
		return f.text
	}
	data, err := os.ReadFile(path)
	if err != nil {
		c.logger.Warn("failed to read resource file, using fallback", zap.String("path", path), zap.Error(err))
		return a.Fallback
	}
	c.files.Add(path, cachedFile{size: info.Size(), modTime: info.ModTime(), text: string(data)})
	return string(data)
}

// MissingSysimageWarning is returned by AutoGenerate when artifacts are
// missing and nothing can generate them quickly.
const MissingSysimageWarning = "Warning: the API index resources are missing and no sysimage is configured " +
	"(PA_SYSIMAGE_PATH), so static fallbacks are being served. " +
	"Call the refresh_api_index tool or run `pa-mcp generate-index` to build the full index."

// AutoGenerate regenerates missing artifacts at most once per process. It
// only runs when a sysimage makes Julia start fast enough to do so inline.
// The returned text is empty when nothing needed reporting.
func (c *Cache) AutoGenerate(ctx context.Context) string {
	if c.Exists(APIIndex) && c.Exists(ComponentTypes) {
		return ""
	}
	if c.guard.HasAttempted() {
		return ""
	}
	if !runner.SysimageAvailable(c.sysimage) {
		c.logger.Warn("resource files missing and no sysimage configured")
		return MissingSysimageWarning
	}
	if !c.guard.Claim() {
		return ""
	}

	c.logger.Info("resource files missing, generating with sysimage")
	rep, err := c.generate(ctx)
	if err != nil {
		c.logger.Error("automatic index generation failed", zap.Error(err))
		return "Automatic API index generation failed: " + err.Error()
	}
	if len(rep.Failures) > 0 {
		return "Automatic API index generation incomplete.\n" + rep.String()
	}
	return fmt.Sprintf("API index generated automatically. %d symbols indexed.", rep.Symbols)
}

// Refresh regenerates both artifacts unconditionally. Concurrent calls share
// one generation run. A caller whose ctx ends stops waiting; the shared run
// continues for the others, each script bounded by the runner timeout.
func (c *Cache) Refresh(ctx context.Context) (RefreshReport, error) {
	shared := context.WithoutCancel(ctx)
	ch := c.refresh.DoChan("refresh", func() (any, error) {
		c.guard.MarkAttempted()
		rep, err := c.generate(shared)
		if err != nil {
			return RefreshReport{}, err
		}
		c.emit(EventRefreshed, map[string]any{"symbols": rep.Symbols, "failures": len(rep.Failures)})
		return rep, nil
	})
	select {
	case <-ctx.Done():
		return RefreshReport{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return RefreshReport{}, res.Err
		}
		return res.Val.(RefreshReport), nil
	}
}

// Failure is one artifact whose generation script did not succeed.
type Failure struct {
	Artifact Artifact
	Report   string
}

// RefreshReport summarizes a generation run.
type RefreshReport struct {
	Symbols  int
	Failures []Failure
}

func (r RefreshReport) OK() bool { return len(r.Failures) == 0 }

func (r RefreshReport) String() string {
	if len(r.Failures) == 0 {
		return fmt.Sprintf("API index refreshed. %d symbols indexed.", r.Symbols)
	}
	parts := make([]string, 0, len(r.Failures))
	for _, f := range r.Failures {
		parts = append(parts, f.Artifact.Name+" generation failed:\n"+f.Report)
	}
	return "Partial failure:\n" + strings.Join(parts, "\n")
}

// CountSymbols counts index entries, one per "- " list line after the first.
func CountSymbols(index string) int { return strings.Count(index, "\n- ") }

func (c *Cache) generate(ctx context.Context) (RefreshReport, error) {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return RefreshReport{}, fmt.Errorf("create resources dir: %w", err)
	}
	var rep RefreshReport
	for _, a := range All() {
		res, err := c.exec.Execute(ctx, runner.Request{Script: a.Script, Label: "generate " + a.File})
		if err != nil {
			return rep, fmt.Errorf("generate %s: %w", a.File, err)
		}
		if res.ExitCode != 0 {
			formatted := report.Format(report.Classify(res))
			rep.Failures = append(rep.Failures, Failure{Artifact: a, Report: formatted})
			c.logger.Warn("index generation failed", zap.String("file", a.File), zap.Int("exit_code", res.ExitCode))
			c.emit(EventGenerationFailed, map[string]any{"file": a.File, "exit_code": res.ExitCode})
			continue
		}
		if err := writeFileAtomic(c.Path(a), res.Stdout); err != nil {
			return rep, err
		}
		fields := map[string]any{"file": a.File}
		if a.File == APIIndex.File {
			rep.Symbols = CountSymbols(res.Stdout)
			fields["symbols"] = rep.Symbols
		}
		c.logger.Info("index generated", zap.String("file", a.File), zap.Int("bytes", len(res.Stdout)))
		c.emit(EventGenerated, fields)
	}
	return rep, nil
}

func (c *Cache) emit(eventType string, payload map[string]any) {
	if c.sink == nil {
		return
	}
	if err := c.sink.LogEvent(eventType, payload); err != nil {
		c.logger.Warn("failed to log event", zap.String("event", eventType), zap.Error(err))
	}
}

// writeFileAtomic replaces path so concurrent readers never see a partial file.
func writeFileAtomic(path, text string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
