package toolkit

import (
	"context"
	"fmt"

	"github.com/danielpatrickdp/activity-classifier/internal/activity"
	"github.com/danielpatrickdp/activity-classifier/internal/apperr"
	"github.com/danielpatrickdp/activity-classifier/internal/dataset"
	"github.com/danielpatrickdp/activity-classifier/internal/eval"
	"github.com/danielpatrickdp/activity-classifier/internal/split"
)

// #region interfaces
// Model is a trained classifier. Its internals belong to the toolkit that
// produced it.
type Model interface {
	Summary() string
}

// Toolkit is the capability set the pipeline trains and evaluates through.
type Toolkit interface {
	SplitBySession(t *dataset.Table, sessionCol string, fraction float64, seed *int64) (split.Split, error)
	CreateClassifier(ctx context.Context, train *dataset.Table, opts activity.Options) (Model, error)
	Evaluate(ctx context.Context, m Model, test *dataset.Table) (eval.Metrics, error)
}

// #endregion interfaces

// #region local
// Local runs everything in process.
type Local struct{}

// NewLocal returns the in-process toolkit.
func NewLocal() *Local {
	return &Local{}
}

// SplitBySession partitions t by whole sessions.
func (Local) SplitBySession(t *dataset.Table, sessionCol string, fraction float64, seed *int64) (split.Split, error) {
	return split.BySession(t, sessionCol, fraction, seed)
}

// CreateClassifier fits a window classifier on train.
func (Local) CreateClassifier(ctx context.Context, train *dataset.Table, opts activity.Options) (Model, error) {
	c, err := activity.Create(ctx, train, opts)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Evaluate scores m on test. m must come from a Local toolkit.
func (Local) Evaluate(ctx context.Context, m Model, test *dataset.Table) (eval.Metrics, error) {
	c, ok := m.(*activity.Classifier)
	if !ok {
		return eval.Metrics{}, fmt.Errorf("%w: model %T was not created by the local toolkit", apperr.ErrConfig, m)
	}
	return c.Evaluate(ctx, test)
}

// #endregion local
