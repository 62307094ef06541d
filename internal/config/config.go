// Package config loads server settings from an optional YAML file, a .env
// file and the environment, in increasing order of precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/PabloBotinGP/SIENNA-PA-MCP/internal/logging"
	"github.com/PabloBotinGP/SIENNA-PA-MCP/internal/pathutil"
)

// HistoryOff disables the run history database.
const HistoryOff = "off"

// Config holds every setting of the server.
type Config struct {
	JuliaExecutable      string `yaml:"julia_executable"`
	ProjectPath          string `yaml:"project_path"`
	ResultsDir           string `yaml:"results_dir"`
	ScriptTimeoutSeconds int    `yaml:"script_timeout_seconds"`
	SysimagePath         string `yaml:"sysimage_path"`
	HeapSizeHint         string `yaml:"heap_size_hint"`
	ResourcesDir         string `yaml:"resources_dir"`
	HistoryDB            string `yaml:"history_db"`
	AllowedRoots         string `yaml:"allowed_roots"`
	TempDir              string `yaml:"temp_dir"`
	MaxStdoutLines       int    `yaml:"max_stdout_lines"`
	MaxStdoutBytes       int    `yaml:"max_stdout_bytes"`
	LogLevel             string `yaml:"log_level"`
}

// Defaults returns the built-in settings.
func Defaults() Config {
	return Config{
		JuliaExecutable:      "julia",
		ProjectPath:          ".",
		ResultsDir:           ".",
		ScriptTimeoutSeconds: 300,
		ResourcesDir:         defaultResourcesDir(),
		LogLevel:             "info",
	}
}

// ScriptTimeout returns the per-script timeout.
func (c Config) ScriptTimeout() time.Duration {
	return time.Duration(c.ScriptTimeoutSeconds) * time.Second
}

// HistoryEnabled reports whether runs are recorded.
func (c Config) HistoryEnabled() bool {
	return c.HistoryDB != "" && !strings.EqualFold(c.HistoryDB, HistoryOff)
}

// Load reads configFile (or PA_CONFIG_FILE when empty), then .env in the
// working directory, then the environment.
func Load(configFile string) (Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()
	if configFile == "" {
		configFile = os.Getenv("PA_CONFIG_FILE")
	}
	if configFile != "" {
		if err := loadYAML(configFile, &cfg); err != nil {
			return Config{}, err
		}
	}

	cfg.JuliaExecutable = envOrDefault("JULIA_EXECUTABLE", cfg.JuliaExecutable)
	cfg.ProjectPath = envOrDefault("PA_PROJECT_PATH", cfg.ProjectPath)
	cfg.ResultsDir = envOrDefault("PA_RESULTS_DIR", cfg.ResultsDir)
	cfg.SysimagePath = envOrDefault("PA_SYSIMAGE_PATH", cfg.SysimagePath)
	cfg.HeapSizeHint = envOrDefault("PA_HEAP_SIZE_HINT", cfg.HeapSizeHint)
	cfg.ResourcesDir = envOrDefault("PA_RESOURCES_DIR", cfg.ResourcesDir)
	cfg.HistoryDB = envOrDefault("PA_HISTORY_DB", cfg.HistoryDB)
	cfg.AllowedRoots = envOrDefault("PA_ALLOWED_ROOTS", cfg.AllowedRoots)
	cfg.TempDir = envOrDefault("PA_TEMP_DIR", cfg.TempDir)
	cfg.LogLevel = strings.ToLower(envOrDefault("PA_LOG_LEVEL", cfg.LogLevel))

	var err error
	if cfg.ScriptTimeoutSeconds, err = envInt("PA_SCRIPT_TIMEOUT", cfg.ScriptTimeoutSeconds); err != nil {
		return Config{}, err
	}
	if cfg.MaxStdoutLines, err = envInt("PA_MAX_STDOUT_LINES", cfg.MaxStdoutLines); err != nil {
		return Config{}, err
	}
	if cfg.MaxStdoutBytes, err = envInt("PA_MAX_STDOUT_BYTES", cfg.MaxStdoutBytes); err != nil {
		return Config{}, err
	}

	if cfg.HistoryDB == "" {
		cfg.HistoryDB = filepath.Join(cfg.ResourcesDir, "history.db")
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.ScriptTimeoutSeconds <= 0 {
		return fmt.Errorf("PA_SCRIPT_TIMEOUT must be > 0")
	}
	if c.MaxStdoutLines < 0 {
		return fmt.Errorf("PA_MAX_STDOUT_LINES must be >= 0")
	}
	if c.MaxStdoutBytes < 0 {
		return fmt.Errorf("PA_MAX_STDOUT_BYTES must be >= 0")
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid PA_LOG_LEVEL: %w", err)
	}
	if strings.TrimSpace(c.AllowedRoots) != "" {
		roots, err := pathutil.ParseAllowedRoots(c.AllowedRoots)
		if err != nil {
			return fmt.Errorf("invalid PA_ALLOWED_ROOTS: %w", err)
		}
		c.AllowedRoots = strings.Join(roots, ",")
	}
	return nil
}

func loadYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func defaultResourcesDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "resources"
	}
	return filepath.Join(filepath.Dir(exe), "resources")
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %q", key, v)
	}
	return n, nil
}
