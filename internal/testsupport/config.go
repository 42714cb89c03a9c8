package testsupport

import (
	"path/filepath"
	"testing"

	"tagsmith/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It declares the standard custom + general source pair and applies any
// provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Workflow.RetryBackoffSeconds = 0
	cfg.Sources = []config.Source{
		{Name: "custom", Kind: "custom", Version: "v1"},
		{Name: "general", Kind: "general", Version: "v1"},
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithThresholdRule appends a confidence filter rule to the test config.
func WithThresholdRule(source, category string, minimum float64) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Thresholds.Rules = append(cfg.Thresholds.Rules, config.ThresholdRule{
			Source:   source,
			Category: category,
			Minimum:  minimum,
		})
	}
}

// WithDefaultThreshold sets the fallback confidence threshold.
func WithDefaultThreshold(minimum float64) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Thresholds.Default = minimum
	}
}

// WithPropagation tunes inheritance propagation for the test config.
func WithPropagation(threshold, decay float64) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Taxonomy.PropagationThreshold = threshold
		cfg.Taxonomy.PropagationDecay = decay
	}
}
