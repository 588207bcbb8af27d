package ledger

import "time"

// #region status
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// #endregion status

// #region types
// RunRecord is one pipeline run as persisted in the runs table.
type RunRecord struct {
	RunID         string
	Status        string
	Error         string
	ConfigJSON    string // effective config, seed included
	DataPath      string
	TrainSessions []string
	TestSessions  []string
	Accuracy      float64
	MetricsJSON   string
	ModelSummary  string
	CreatedAt     time.Time
}

// StageEntry is one timed pipeline stage.
type StageEntry struct {
	RunID     string
	Stage     string
	Status    string
	Detail    string
	Duration  time.Duration
	CreatedAt time.Time
}

// #endregion types
