package activity

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/danielpatrickdp/activity-classifier/internal/apperr"
	"github.com/danielpatrickdp/activity-classifier/internal/dataset"
	"github.com/danielpatrickdp/activity-classifier/internal/eval"
)

// #region classifier
// Classifier predicts one activity label per prediction window.
type Classifier struct {
	Options      Options  // resolved, Features always set
	FeatureNames []string // names of the window vector entries
	Labels       []string // sorted labels seen in training
	TrainWindows int

	centroid *centroidModel
	knn      *knnModel
}

// Prediction is the label predicted for a single window.
type Prediction struct {
	Session string
	Start   int // first row of the window in the input table
	Rows    int
	Label   string
}

// #endregion classifier

// #region create
// Create validates opts against train and fits a classifier. Validation
// happens before any window is built.
func Create(ctx context.Context, train *dataset.Table, opts Options) (*Classifier, error) {
	o, err := opts.resolve(train)
	if err != nil {
		return nil, err
	}

	ws, err := Windows(ctx, train, o.SessionColumn, o.TargetColumn, o.Features, o.PredictionWindow)
	if err != nil {
		return nil, fmt.Errorf("window training data: %w", err)
	}

	c := &Classifier{
		Options:      o,
		FeatureNames: FeatureNames(o.Features),
		TrainWindows: len(ws),
	}
	labels := make(map[string]struct{})
	for _, w := range ws {
		labels[w.Label] = struct{}{}
	}
	for l := range labels {
		c.Labels = append(c.Labels, l)
	}
	sort.Strings(c.Labels)

	switch o.Kind {
	case KindKNN:
		m, err := fitKNN(ws, c.FeatureNames, o.TargetColumn, o.Neighbors)
		if err != nil {
			return nil, err
		}
		c.knn = m
	default:
		c.centroid = fitCentroid(ws)
	}
	return c, nil
}

// #endregion create

// #region predict
// Predict labels t. With per_row output there is one prediction per table
// row, in table order, each carrying its window's label. With per_window
// output there is one prediction per window. t needs the session column and
// the feature columns; the target column is not read.
func (c *Classifier) Predict(ctx context.Context, t *dataset.Table) ([]Prediction, error) {
	if err := c.checkSchema(t, false); err != nil {
		return nil, err
	}
	ws, err := Windows(ctx, t, c.Options.SessionColumn, "", c.Options.Features, c.Options.PredictionWindow)
	if err != nil {
		return nil, err
	}
	labels, err := c.predictWindows(ws)
	if err != nil {
		return nil, err
	}

	if c.Options.OutputFrequency == FrequencyPerWindow {
		out := make([]Prediction, len(ws))
		for i, w := range ws {
			out[i] = Prediction{Session: w.Session, Start: w.Start, Rows: w.Rows, Label: labels[i]}
		}
		return out, nil
	}
	out := make([]Prediction, t.Len())
	for i, w := range ws {
		for _, r := range w.Indices {
			out[r] = Prediction{Session: w.Session, Start: r, Rows: 1, Label: labels[i]}
		}
	}
	return out, nil
}

func (c *Classifier) predictWindows(ws []Window) ([]string, error) {
	if c.knn != nil {
		return c.knn.predictAll(ws)
	}
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = c.centroid.predict(w.Vector)
	}
	return out, nil
}

// #endregion predict

// #region evaluate
// Evaluate predicts every window of t and scores the predictions. Per row,
// each row's own label is compared with its window's prediction; per window,
// each window's majority label is.
func (c *Classifier) Evaluate(ctx context.Context, t *dataset.Table) (eval.Metrics, error) {
	if err := c.checkSchema(t, true); err != nil {
		return eval.Metrics{}, err
	}
	ws, err := Windows(ctx, t, c.Options.SessionColumn, c.Options.TargetColumn, c.Options.Features, c.Options.PredictionWindow)
	if err != nil {
		return eval.Metrics{}, err
	}
	if len(ws) == 0 {
		return eval.Metrics{}, fmt.Errorf("%w: test table has no windows", apperr.ErrConfig)
	}
	pred, err := c.predictWindows(ws)
	if err != nil {
		return eval.Metrics{}, err
	}

	var truth, got []string
	if c.Options.OutputFrequency == FrequencyPerWindow {
		truth = make([]string, len(ws))
		for i, w := range ws {
			truth[i] = w.Label
		}
		got = pred
	} else {
		rowLabels, err := t.Col(c.Options.TargetColumn)
		if err != nil {
			return eval.Metrics{}, err
		}
		truth = make([]string, 0, t.Len())
		got = make([]string, 0, t.Len())
		for i, w := range ws {
			for _, r := range w.Indices {
				truth = append(truth, rowLabels[r])
				got = append(got, pred[i])
			}
		}
	}

	m, err := eval.Score(truth, got)
	if err != nil {
		return eval.Metrics{}, err
	}
	m.Windows = len(ws)
	return m, nil
}

func (c *Classifier) checkSchema(t *dataset.Table, needTarget bool) error {
	if t == nil {
		return fmt.Errorf("%w: nil table", apperr.ErrSchema)
	}
	need := append([]string{c.Options.SessionColumn}, c.Options.Features...)
	if needTarget {
		need = append(need, c.Options.TargetColumn)
	}
	var missing []string
	for _, n := range need {
		if t.Index(n) < 0 {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: table is missing columns %s", apperr.ErrSchema, strings.Join(missing, ", "))
	}
	return nil
}

// #endregion evaluate

// #region summary
// Summary describes the fitted classifier in one line.
func (c *Classifier) Summary() string {
	return fmt.Sprintf("%s classifier: %d labels [%s], %d features x %d stats, window %d, %d training windows",
		c.Options.Kind, len(c.Labels), strings.Join(c.Labels, ","), len(c.Options.Features),
		statsPerFeature, c.Options.PredictionWindow, c.TrainWindows)
}

// #endregion summary
