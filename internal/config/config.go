package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Workflow contains configuration for the generation orchestrator.
type Workflow struct {
	// Workers caps concurrently executing generation attempts. Prediction
	// sources hold memory-resident model artifacts, so this stays small.
	Workers              int `toml:"workers"`
	MaxAttempts          int `toml:"max_attempts"`
	RetryBackoffSeconds  int `toml:"retry_backoff_seconds"`
	SourceTimeoutSeconds int `toml:"source_timeout_seconds"`
}

// Taxonomy contains alias resolution and inheritance propagation settings.
type Taxonomy struct {
	MaxAliasDepth        int     `toml:"max_alias_depth"`
	PropagationThreshold float64 `toml:"propagation_threshold"`
	PropagationDecay     float64 `toml:"propagation_decay"`
}

// Source describes one configured prediction source. The order of sources in
// the configuration file is the explicit merge priority: earlier sources win
// exact-confidence ties.
type Source struct {
	Name     string `toml:"name"`
	Kind     string `toml:"kind"` // "custom" emits canonical tag ids, "general" emits external labels
	Endpoint string `toml:"endpoint"`
	Model    string `toml:"model"`
	Version  string `toml:"version"`
	// TimeoutSeconds overrides workflow.source_timeout_seconds for this source.
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// ThresholdRule sets the minimum confidence for one (source, category) pair.
type ThresholdRule struct {
	Source   string  `toml:"source"`
	Category string  `toml:"category"`
	Minimum  float64 `toml:"minimum"`
}

// Thresholds contains the per-source, per-category confidence filter table.
type Thresholds struct {
	Default float64         `toml:"default"`
	Rules   []ThresholdRule `toml:"rules"`
}

// Config encapsulates all configuration values for tagsmith.
//
// Configuration sections by subsystem:
//   - Paths: data and log directories
//   - Logging: log format and level
//   - Workflow: worker pool size, retry bounds, source timeouts
//   - Taxonomy: alias depth cap and inheritance propagation tuning
//   - Sources: configured prediction sources in merge-priority order
//   - Thresholds: confidence filter table keyed by (source, category)
type Config struct {
	Paths      Paths      `toml:"paths"`
	Logging    Logging    `toml:"logging"`
	Workflow   Workflow   `toml:"workflow"`
	Taxonomy   Taxonomy   `toml:"taxonomy"`
	Sources    []Source   `toml:"sources"`
	Thresholds Thresholds `toml:"thresholds"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/tagsmith/config.toml")
}

// Load locates, parses, normalizes, and validates a configuration file. The
// returned config has all path fields expanded.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the configured data and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the SQLite database location under the data directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "tagsmith.db")
}

// LogPath returns the daemon log file location.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.LogDir, "tagsmith.log")
}

// SourceTimeoutSeconds returns the effective per-source timeout.
func (c *Config) SourceTimeoutSeconds(source Source) int {
	if source.TimeoutSeconds > 0 {
		return source.TimeoutSeconds
	}
	return c.Workflow.SourceTimeoutSeconds
}

// CreateSample writes the annotated sample configuration to path.
func CreateSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists at %s", expanded)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config: %w", err)
	}
	if dir := filepath.Dir(expanded); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	trimmed := strings.TrimSpace(pathValue)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if trimmed == "~" {
			return home, nil
		}
		return filepath.Join(home, trimmed[2:]), nil
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return "", fmt.Errorf("resolve path %s: %w", trimmed, err)
	}
	return abs, nil
}

// ExpandPath resolves ~ and relative segments in a user-supplied path.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
