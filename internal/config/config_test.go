package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tagsmith/internal/config"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.toml")
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing file")
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if cfg.Workflow.Workers != 2 || cfg.Workflow.MaxAttempts != 3 {
		t.Fatalf("unexpected workflow defaults: %+v", cfg.Workflow)
	}
	if cfg.Taxonomy.MaxAliasDepth != 8 {
		t.Fatalf("unexpected alias depth default: %d", cfg.Taxonomy.MaxAliasDepth)
	}
}

func TestLoadOverlaysAndNormalizes(t *testing.T) {
	path := writeConfig(t, `
[workflow]
workers = 4

[[sources]]
name = " Custom "
kind = "CUSTOM"
endpoint = "http://localhost:1/predict"

[[sources]]
name = "general"
kind = "general"
endpoint = "http://localhost:2/predict"

[[thresholds.rules]]
source = "General"
category = "Character"
minimum = 0.75
`)
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("expected exists=true")
	}
	if cfg.Workflow.Workers != 4 {
		t.Fatalf("expected workers=4, got %d", cfg.Workflow.Workers)
	}
	if cfg.Sources[0].Name != "custom" || cfg.Sources[0].Kind != "custom" {
		t.Fatalf("source not normalized: %+v", cfg.Sources[0])
	}
	if cfg.Thresholds.Rules[0].Source != "general" || cfg.Thresholds.Rules[0].Category != "character" {
		t.Fatalf("rule not normalized: %+v", cfg.Thresholds.Rules[0])
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name     string
		contents string
		want     string
	}{
		{
			name:     "bad kind",
			contents: "[[sources]]\nname = \"x\"\nkind = \"hybrid\"\n",
			want:     "kind",
		},
		{
			name:     "duplicate source",
			contents: "[[sources]]\nname = \"a\"\nkind = \"custom\"\n\n[[sources]]\nname = \"a\"\nkind = \"general\"\n",
			want:     "duplicated",
		},
		{
			name:     "threshold range",
			contents: "[thresholds]\ndefault = 1.5\n",
			want:     "thresholds.default",
		},
		{
			name:     "bad category",
			contents: "[[thresholds.rules]]\nsource = \"a\"\ncategory = \"mood\"\nminimum = 0.5\n",
			want:     "category",
		},
		{
			name:     "zero workers",
			contents: "[workflow]\nworkers = 0\n",
			want:     "workers",
		},
		{
			name:     "decay range",
			contents: "[taxonomy]\npropagation_decay = 0.0\n",
			want:     "propagation_decay",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.contents)
			_, _, _, err := config.Load(path)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestCreateSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if err := config.CreateSample(path); err == nil {
		t.Fatal("expected error when config already exists")
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil || !exists {
		t.Fatalf("sample config should load cleanly, err=%v exists=%v", err, exists)
	}
	if len(cfg.Sources) != 2 {
		t.Fatalf("sample config should declare two sources, got %d", len(cfg.Sources))
	}
}

func TestSourceTimeoutFallback(t *testing.T) {
	cfg := config.Default()
	cfg.Workflow.SourceTimeoutSeconds = 30
	if got := cfg.SourceTimeoutSeconds(config.Source{}); got != 30 {
		t.Fatalf("expected workflow fallback, got %d", got)
	}
	if got := cfg.SourceTimeoutSeconds(config.Source{TimeoutSeconds: 5}); got != 5 {
		t.Fatalf("expected per-source override, got %d", got)
	}
}
