package eval

import "sort"

// #region eval-metric
// EvalMetric is a single named metric value.
type EvalMetric struct {
	Name  string
	Value float64
}

// #endregion eval-metric

// #region class-score
// ClassScore holds one-vs-rest scores for a single label.
type ClassScore struct {
	Label     string
	Precision float64
	Recall    float64
	F1        float64
	Support   int // true labels equal to Label
}

// #endregion class-score

// #region metrics
// Metrics is the outcome of scoring predictions against true labels.
type Metrics struct {
	Accuracy    float64 // fraction of predictions equal to the true label
	Precision   float64 // macro average over labels
	Recall      float64 // macro average over labels
	F1          float64 // macro average over labels
	Classes     []ClassScore
	Confusion   map[string]map[string]int // true label -> predicted label -> count
	Predictions int                       // scored predictions
	Windows     int                       // prediction windows the predictions came from
}

// Map returns the metric-name to value mapping. "accuracy" is always present.
func (m Metrics) Map() map[string]float64 {
	out := map[string]float64{
		"accuracy":    m.Accuracy,
		"precision":   m.Precision,
		"recall":      m.Recall,
		"f1_score":    m.F1,
		"windows":     float64(m.Windows),
		"predictions": float64(m.Predictions),
	}
	for _, c := range m.Classes {
		out["precision/"+c.Label] = c.Precision
		out["recall/"+c.Label] = c.Recall
		out["f1_score/"+c.Label] = c.F1
	}
	return out
}

// List returns Map as a name-sorted slice.
func (m Metrics) List() []EvalMetric {
	mp := m.Map()
	out := make([]EvalMetric, 0, len(mp))
	for k, v := range mp {
		out = append(out, EvalMetric{Name: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// #endregion metrics
