package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/activity-classifier/internal/activity"
	"github.com/danielpatrickdp/activity-classifier/internal/apperr"
)

// #region toolkits
const (
	ToolkitLocal  = "local"
	ToolkitRemote = "remote"
)

// #endregion toolkits

// #region config
// Config holds everything one pipeline run needs.
type Config struct {
	DataPath         string        `yaml:"data_path" json:"data_path"`
	SessionColumn    string        `yaml:"session_column" json:"session_column"`
	TargetColumn     string        `yaml:"target_column" json:"target_column"`
	Fraction         float64       `yaml:"fraction" json:"fraction"` // share of sessions used for training
	Seed             *int64        `yaml:"seed" json:"seed,omitempty"` // nil splits non-deterministically
	PredictionWindow int           `yaml:"prediction_window" json:"prediction_window"`
	Features         []string      `yaml:"features" json:"features,omitempty"`
	Model            string        `yaml:"model" json:"model"` // centroid | knn
	Neighbors        int           `yaml:"neighbors" json:"neighbors"`
	OutputFrequency  string        `yaml:"output_frequency" json:"output_frequency"` // per_row | per_window
	Filter           string        `yaml:"filter" json:"filter,omitempty"` // CEL row predicate
	Toolkit          string        `yaml:"toolkit" json:"toolkit"`         // local | remote
	RemoteAddr       string        `yaml:"remote_addr" json:"remote_addr,omitempty"`
	RemoteTimeout    time.Duration `yaml:"remote_timeout" json:"remote_timeout,omitempty"`
	LedgerPath       string        `yaml:"ledger_path" json:"-"` // empty disables the run ledger
}

// DefaultConfig reproduces the reference run: the bundled gzip dataset,
// an 80/20 session split and 50-row prediction windows.
func DefaultConfig() Config {
	return Config{
		DataPath:         "./activity_data.csv.gz",
		SessionColumn:    "Experiment",
		TargetColumn:     "Activity",
		Fraction:         0.8,
		PredictionWindow: 50,
		Model:            string(activity.KindCentroid),
		Neighbors:        5,
		OutputFrequency:  string(activity.FrequencyPerRow),
		Toolkit:          ToolkitLocal,
		RemoteAddr:       "localhost:50051",
		RemoteTimeout:    5 * time.Minute,
	}
}

// #endregion config

// #region load
// LoadFile reads a YAML config over the defaults. Keys absent from the
// file keep their default value.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: read config %s: %w", apperr.ErrIO, path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: parse config %s: %w", apperr.ErrParse, path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from ACTIVITY_* environment variables.
func (c *Config) ApplyEnv() error {
	c.DataPath = envOr("ACTIVITY_DATA", c.DataPath)
	c.LedgerPath = envOr("ACTIVITY_LEDGER", c.LedgerPath)
	c.Toolkit = envOr("ACTIVITY_TOOLKIT", c.Toolkit)
	c.RemoteAddr = envOr("ACTIVITY_REMOTE_ADDR", c.RemoteAddr)
	c.Model = envOr("ACTIVITY_MODEL", c.Model)
	if v := os.Getenv("ACTIVITY_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: ACTIVITY_SEED=%q: %v", apperr.ErrConfig, v, err)
		}
		c.Seed = &seed
	}
	return nil
}

// #endregion load

// #region validate
// Validate checks values that can be judged without the dataset.
func (c Config) Validate() error {
	if c.DataPath == "" {
		return fmt.Errorf("%w: data_path is required", apperr.ErrConfig)
	}
	if c.SessionColumn == "" || c.TargetColumn == "" {
		return fmt.Errorf("%w: session_column and target_column are required", apperr.ErrConfig)
	}
	if !(c.Fraction > 0 && c.Fraction < 1) {
		return fmt.Errorf("%w: fraction %v must be in (0,1)", apperr.ErrConfig, c.Fraction)
	}
	if c.PredictionWindow <= 0 {
		return fmt.Errorf("%w: prediction_window must be positive, got %d", apperr.ErrConfig, c.PredictionWindow)
	}
	switch activity.Kind(c.Model) {
	case activity.KindCentroid:
	case activity.KindKNN:
		if c.Neighbors <= 0 {
			return fmt.Errorf("%w: neighbors must be positive for knn, got %d", apperr.ErrConfig, c.Neighbors)
		}
	default:
		return fmt.Errorf("%w: unknown model %q", apperr.ErrConfig, c.Model)
	}
	switch activity.Frequency(c.OutputFrequency) {
	case activity.FrequencyPerRow, activity.FrequencyPerWindow:
	default:
		return fmt.Errorf("%w: unknown output_frequency %q", apperr.ErrConfig, c.OutputFrequency)
	}
	switch c.Toolkit {
	case ToolkitLocal:
	case ToolkitRemote:
		if c.RemoteAddr == "" {
			return fmt.Errorf("%w: remote toolkit needs remote_addr", apperr.ErrConfig)
		}
	default:
		return fmt.Errorf("%w: unknown toolkit %q", apperr.ErrConfig, c.Toolkit)
	}
	return nil
}

// ActivityOptions returns the classifier options described by c.
func (c Config) ActivityOptions() activity.Options {
	return activity.Options{
		SessionColumn:    c.SessionColumn,
		TargetColumn:     c.TargetColumn,
		PredictionWindow: c.PredictionWindow,
		Features:         c.Features,
		Kind:             activity.Kind(c.Model),
		Neighbors:        c.Neighbors,
		OutputFrequency:  activity.Frequency(c.OutputFrequency),
	}
}

// #endregion validate

// #region helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
