package pipeline

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"

	"github.com/danielpatrickdp/activity-classifier/internal/apperr"
	"github.com/danielpatrickdp/activity-classifier/internal/config"
	"github.com/danielpatrickdp/activity-classifier/internal/ledger"
)

// #region config-from-run
// ConfigFromRun rebuilds the effective config of a recorded run. Fields the
// record does not carry keep their defaults.
func ConfigFromRun(rec ledger.RunRecord) (config.Config, error) {
	cfg := config.DefaultConfig()
	if err := json.Unmarshal([]byte(rec.ConfigJSON), &cfg); err != nil {
		return config.Config{}, fmt.Errorf("%w: run %s config: %w", apperr.ErrParse, rec.RunID, err)
	}
	return cfg, nil
}

// #endregion config-from-run

// #region compare
// Comparison reports how a re-run differs from a recorded run.
type Comparison struct {
	RunID            string
	RecordedAccuracy float64
	ReplayAccuracy   float64
	AccuracyDelta    float64
	SameSplit        bool
}

// Match reports whether the re-run reproduced the split and the accuracy
// within tol.
func (c Comparison) Match(tol float64) bool {
	return c.SameSplit && math.Abs(c.AccuracyDelta) <= tol
}

// Compare lines up a fresh result against the run it replays.
func Compare(recorded ledger.RunRecord, res Result) Comparison {
	return Comparison{
		RunID:            recorded.RunID,
		RecordedAccuracy: recorded.Accuracy,
		ReplayAccuracy:   res.Metrics.Accuracy,
		AccuracyDelta:    res.Metrics.Accuracy - recorded.Accuracy,
		SameSplit: slices.Equal(recorded.TrainSessions, res.TrainSessions) &&
			slices.Equal(recorded.TestSessions, res.TestSessions),
	}
}

// #endregion compare
