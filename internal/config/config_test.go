package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var configVars = []string{
	"JULIA_EXECUTABLE", "PA_PROJECT_PATH", "PA_RESULTS_DIR", "PA_SCRIPT_TIMEOUT", "PA_SYSIMAGE_PATH",
	"PA_HEAP_SIZE_HINT", "PA_RESOURCES_DIR", "PA_HISTORY_DB", "PA_ALLOWED_ROOTS", "PA_TEMP_DIR",
	"PA_MAX_STDOUT_LINES", "PA_MAX_STDOUT_BYTES", "PA_LOG_LEVEL", "PA_CONFIG_FILE",
}

// cleanEnv unsets every variable Load reads and runs in an empty directory so
// no .env file is picked up.
func cleanEnv(t *testing.T) string {
	t.Helper()
	for _, k := range configVars {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	cleanEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if cfg.JuliaExecutable != "julia" || cfg.ProjectPath != "." || cfg.ResultsDir != "." {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.ScriptTimeout() != 300*time.Second {
		t.Fatalf("unexpected timeout: %s", cfg.ScriptTimeout())
	}
	if cfg.HistoryDB != filepath.Join(cfg.ResourcesDir, "history.db") || !cfg.HistoryEnabled() {
		t.Fatalf("unexpected history db: %s", cfg.HistoryDB)
	}
	if cfg.AllowedRoots != "" || cfg.LogLevel != "info" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	cleanEnv(t)
	t.Setenv("JULIA_EXECUTABLE", "/opt/julia/bin/julia")
	t.Setenv("PA_SCRIPT_TIMEOUT", "60")
	t.Setenv("PA_HEAP_SIZE_HINT", "4G")
	t.Setenv("PA_HISTORY_DB", "off")
	t.Setenv("PA_LOG_LEVEL", "DEBUG")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if cfg.JuliaExecutable != "/opt/julia/bin/julia" || cfg.HeapSizeHint != "4G" {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if cfg.ScriptTimeout() != time.Minute {
		t.Fatalf("unexpected timeout: %s", cfg.ScriptTimeout())
	}
	if cfg.HistoryEnabled() {
		t.Fatal("expected history disabled")
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("unexpected log level %q", cfg.LogLevel)
	}
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	dir := cleanEnv(t)
	path := filepath.Join(dir, "pa-mcp.yaml")
	yml := "project_path: /data/rts\nresults_dir: /data/rts/results\nscript_timeout_seconds: 900\n"
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PA_RESULTS_DIR", "/scratch")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if cfg.ProjectPath != "/data/rts" || cfg.ScriptTimeoutSeconds != 900 {
		t.Fatalf("yaml not applied: %+v", cfg)
	}
	if cfg.ResultsDir != "/scratch" {
		t.Fatalf("env must override yaml, got %s", cfg.ResultsDir)
	}
}

func TestLoad_ConfigFileFromEnv(t *testing.T) {
	dir := cleanEnv(t)
	path := filepath.Join(dir, "c.yaml")
	if err := os.WriteFile(path, []byte("heap_size_hint: 8G\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PA_CONFIG_FILE", path)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if cfg.HeapSizeHint != "8G" {
		t.Fatalf("unexpected heap hint %q", cfg.HeapSizeHint)
	}
}

func TestLoad_UnknownYAMLField(t *testing.T) {
	dir := cleanEnv(t)
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("julia_exe: julia\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected unknown field error")
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := cleanEnv(t)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("PA_SYSIMAGE_PATH=/opt/pa.so\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("PA_SYSIMAGE_PATH") })

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if cfg.SysimagePath != "/opt/pa.so" {
		t.Fatalf("expected .env value, got %q", cfg.SysimagePath)
	}
}

func TestLoad_Validation(t *testing.T) {
	cases := map[string]string{
		"PA_SCRIPT_TIMEOUT":   "0",
		"PA_MAX_STDOUT_LINES": "-1",
		"PA_MAX_STDOUT_BYTES": "lots",
		"PA_LOG_LEVEL":        "verbose",
		"PA_ALLOWED_ROOTS":    "relative/dir",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			cleanEnv(t)
			t.Setenv(key, val)
			_, err := Load("")
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), key) {
				t.Fatalf("unexpected err: %v", err)
			}
		})
	}
}

func TestLoad_NormalizesAllowedRoots(t *testing.T) {
	cleanEnv(t)
	t.Setenv("PA_ALLOWED_ROOTS", "/workspace,/state,/workspace")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if cfg.AllowedRoots != "/workspace,/state" {
		t.Fatalf("unexpected normalized roots: %s", cfg.AllowedRoots)
	}
}
