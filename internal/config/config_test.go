package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielpatrickdp/activity-classifier/internal/activity"
	"github.com/danielpatrickdp/activity-classifier/internal/apperr"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Seed != nil {
		t.Fatal("default config should not fix a seed")
	}
	if cfg.LedgerPath != "" {
		t.Fatal("default config should not persist runs")
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	body := `
data_path: data/sessions.csv.xz
fraction: 0.7
seed: 42
model: knn
neighbors: 3
filter: row.Activity != "Unknown"
remote_timeout: 30s
`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.DataPath != "data/sessions.csv.xz" || cfg.Fraction != 0.7 {
		t.Errorf("unexpected values: %+v", cfg)
	}
	if cfg.Seed == nil || *cfg.Seed != 42 {
		t.Errorf("expected seed 42, got %v", cfg.Seed)
	}
	if cfg.RemoteTimeout != 30*time.Second {
		t.Errorf("expected 30s timeout, got %v", cfg.RemoteTimeout)
	}
	// untouched keys keep defaults
	if cfg.SessionColumn != "Experiment" || cfg.PredictionWindow != 50 {
		t.Errorf("expected defaults to survive, got %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected loaded config to validate: %v", err)
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if !apperr.IsIO(err) {
		t.Fatalf("expected io error, got %v", err)
	}
}

func TestLoadFileMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("fraction: [unclosed"), 0644)
	_, err := LoadFile(path)
	if !apperr.IsParse(err) {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("ACTIVITY_DATA", "/tmp/x.csv.gz")
	t.Setenv("ACTIVITY_SEED", "7")
	t.Setenv("ACTIVITY_TOOLKIT", "remote")

	cfg := DefaultConfig()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if cfg.DataPath != "/tmp/x.csv.gz" {
		t.Errorf("expected data path override, got %s", cfg.DataPath)
	}
	if cfg.Seed == nil || *cfg.Seed != 7 {
		t.Errorf("expected seed 7, got %v", cfg.Seed)
	}
	if cfg.Toolkit != ToolkitRemote {
		t.Errorf("expected remote toolkit, got %s", cfg.Toolkit)
	}
}

func TestApplyEnvBadSeed(t *testing.T) {
	t.Setenv("ACTIVITY_SEED", "soon")
	cfg := DefaultConfig()
	if err := cfg.ApplyEnv(); !apperr.IsConfig(err) {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name string
		mut  func(*Config)
	}{
		{"fraction zero", func(c *Config) { c.Fraction = 0 }},
		{"fraction one", func(c *Config) { c.Fraction = 1 }},
		{"window zero", func(c *Config) { c.PredictionWindow = 0 }},
		{"unknown model", func(c *Config) { c.Model = "lstm" }},
		{"knn without neighbors", func(c *Config) { c.Model = "knn"; c.Neighbors = 0 }},
		{"unknown toolkit", func(c *Config) { c.Toolkit = "cloud" }},
		{"remote without addr", func(c *Config) { c.Toolkit = ToolkitRemote; c.RemoteAddr = "" }},
		{"no data path", func(c *Config) { c.DataPath = "" }},
		{"unknown output frequency", func(c *Config) { c.OutputFrequency = "per_session" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mut(&cfg)
			if err := cfg.Validate(); !apperr.IsConfig(err) {
				t.Fatalf("expected config error, got %v", err)
			}
		})
	}
}

func TestActivityOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Features = []string{"acc_x"}
	o := cfg.ActivityOptions()
	if o.PredictionWindow != 50 || o.SessionColumn != "Experiment" || len(o.Features) != 1 ||
		o.OutputFrequency != activity.FrequencyPerRow {
		t.Fatalf("unexpected options %+v", o)
	}
}
