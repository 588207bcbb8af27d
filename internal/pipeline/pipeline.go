package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/danielpatrickdp/activity-classifier/internal/apperr"
	"github.com/danielpatrickdp/activity-classifier/internal/config"
	"github.com/danielpatrickdp/activity-classifier/internal/dataset"
	"github.com/danielpatrickdp/activity-classifier/internal/eval"
	"github.com/danielpatrickdp/activity-classifier/internal/ledger"
	"github.com/danielpatrickdp/activity-classifier/internal/split"
	"github.com/danielpatrickdp/activity-classifier/internal/toolkit"
)

// #region types
// Stage names, in execution order.
const (
	StageConfig   = "config"
	StageLoad     = "load"
	StageFilter   = "filter"
	StageSplit    = "split"
	StageTrain    = "train"
	StageEvaluate = "evaluate"
)

// Recorder persists stage timings and the final run. *ledger.Store
// satisfies it.
type Recorder interface {
	LogStage(ledger.StageEntry) error
	RecordRun(ledger.RunRecord) error
}

// StageTiming is how long one stage took.
type StageTiming struct {
	Stage    string
	Duration time.Duration
}

// Result is the outcome of one pipeline run.
type Result struct {
	RunID         string
	Config        config.Config // effective config, Seed set to the seed used
	Rows          int           // rows loaded
	FilteredRows  int           // rows left after the row filter
	TrainRows     int
	TestRows      int
	TrainSessions []string
	TestSessions  []string
	ModelSummary  string
	Metrics       eval.Metrics
	Stages        []StageTiming
}

// #endregion types

// #region run
// Run executes load -> filter -> split -> train -> evaluate once. The first
// failing stage aborts the run; its error is returned wrapped with the stage
// name. rec may be nil.
func Run(ctx context.Context, cfg config.Config, tk toolkit.Toolkit, rec Recorder) (Result, error) {
	r := &runner{
		res: Result{RunID: uuid.New().String(), Config: cfg},
		rec: rec,
	}
	err := r.run(ctx, tk)
	r.finish(err)
	return r.res, err
}

type runner struct {
	res Result
	rec Recorder
}

func (r *runner) run(ctx context.Context, tk toolkit.Toolkit) error {
	cfg := r.res.Config

	if err := r.stage(StageConfig, func() (string, error) {
		if tk == nil {
			return "", fmt.Errorf("%w: no toolkit", apperr.ErrConfig)
		}
		return cfg.Toolkit, cfg.Validate()
	}); err != nil {
		return err
	}

	var table *dataset.Table
	if err := r.stage(StageLoad, func() (string, error) {
		t, err := dataset.Load(cfg.DataPath)
		if err != nil {
			return "", err
		}
		table = t
		r.res.Rows = t.Len()
		return fmt.Sprintf("%d rows, %d columns from %s", t.Len(), len(t.Columns), cfg.DataPath), nil
	}); err != nil {
		return err
	}

	if err := r.stage(StageFilter, func() (string, error) {
		t, err := dataset.Filter(table, cfg.Filter)
		if err != nil {
			return "", err
		}
		table = t
		r.res.FilteredRows = t.Len()
		if cfg.Filter == "" {
			return "no filter", nil
		}
		return fmt.Sprintf("%d of %d rows kept", t.Len(), r.res.Rows), nil
	}); err != nil {
		return err
	}

	var sp split.Split
	if err := r.stage(StageSplit, func() (string, error) {
		s, err := tk.SplitBySession(table, cfg.SessionColumn, cfg.Fraction, cfg.Seed)
		if err != nil {
			return "", err
		}
		sp = s
		seed := s.Seed
		r.res.Config.Seed = &seed
		r.res.TrainSessions = s.TrainSessions
		r.res.TestSessions = s.TestSessions
		r.res.TrainRows = s.Train.Len()
		r.res.TestRows = s.Test.Len()
		return fmt.Sprintf("%d train / %d test sessions, seed %d",
			len(s.TrainSessions), len(s.TestSessions), s.Seed), nil
	}); err != nil {
		return err
	}

	var model toolkit.Model
	if err := r.stage(StageTrain, func() (string, error) {
		m, err := tk.CreateClassifier(ctx, sp.Train, cfg.ActivityOptions())
		if err != nil {
			return "", err
		}
		model = m
		r.res.ModelSummary = m.Summary()
		return r.res.ModelSummary, nil
	}); err != nil {
		return err
	}

	return r.stage(StageEvaluate, func() (string, error) {
		m, err := tk.Evaluate(ctx, model, sp.Test)
		if err != nil {
			return "", err
		}
		r.res.Metrics = m
		return fmt.Sprintf("accuracy %.4f over %d predictions from %d windows", m.Accuracy, m.Predictions, m.Windows), nil
	})
}

// #endregion run

// #region stage
func (r *runner) stage(name string, fn func() (string, error)) error {
	start := time.Now()
	detail, err := fn()
	elapsed := time.Since(start)
	r.res.Stages = append(r.res.Stages, StageTiming{Stage: name, Duration: elapsed})

	entry := ledger.StageEntry{
		RunID:    r.res.RunID,
		Stage:    name,
		Status:   ledger.StatusOK,
		Detail:   detail,
		Duration: elapsed,
	}
	if err != nil {
		entry.Status = ledger.StatusFailed
		entry.Detail = err.Error()
		log.Printf("[%s] %s failed after %s (%s): %v", shortID(r.res.RunID), name, elapsed, apperr.Class(err), err)
	} else {
		log.Printf("[%s] %s: %s (%s)", shortID(r.res.RunID), name, detail, elapsed)
	}
	if r.rec != nil {
		if lerr := r.rec.LogStage(entry); lerr != nil {
			log.Printf("ledger error: %v", lerr)
		}
	}
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// finish records the run when a recorder is attached.
func (r *runner) finish(runErr error) {
	if r.rec == nil {
		return
	}
	cfgJSON, err := json.Marshal(r.res.Config)
	if err != nil {
		log.Printf("ledger error: marshal config: %v", err)
		return
	}
	rec := ledger.RunRecord{
		RunID:         r.res.RunID,
		Status:        ledger.StatusOK,
		ConfigJSON:    string(cfgJSON),
		DataPath:      r.res.Config.DataPath,
		TrainSessions: r.res.TrainSessions,
		TestSessions:  r.res.TestSessions,
		ModelSummary:  r.res.ModelSummary,
	}
	if runErr != nil {
		rec.Status = ledger.StatusFailed
		rec.Error = runErr.Error()
	} else {
		rec.Accuracy = r.res.Metrics.Accuracy
		if m, err := json.Marshal(r.res.Metrics.Map()); err == nil {
			rec.MetricsJSON = string(m)
		}
	}
	if err := r.rec.RecordRun(rec); err != nil {
		log.Printf("ledger error: %v", err)
	}
}

// #endregion stage

// #region helpers
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// #endregion helpers
