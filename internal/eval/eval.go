package eval

import (
	"fmt"
	"sort"

	"github.com/danielpatrickdp/activity-classifier/internal/apperr"
)

// #region score
// Score compares predicted labels against true labels, position by position.
func Score(truth, predicted []string) (Metrics, error) {
	if len(truth) != len(predicted) {
		return Metrics{}, fmt.Errorf("%w: %d true labels vs %d predictions", apperr.ErrSchema, len(truth), len(predicted))
	}
	if len(truth) == 0 {
		return Metrics{}, fmt.Errorf("%w: nothing to evaluate", apperr.ErrConfig)
	}

	confusion := make(map[string]map[string]int)
	labelSet := make(map[string]struct{})
	correct := 0
	for i := range truth {
		tl, pl := truth[i], predicted[i]
		labelSet[tl] = struct{}{}
		labelSet[pl] = struct{}{}
		if confusion[tl] == nil {
			confusion[tl] = make(map[string]int)
		}
		confusion[tl][pl]++
		if tl == pl {
			correct++
		}
	}

	labels := make([]string, 0, len(labelSet))
	for l := range labelSet {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	m := Metrics{
		Accuracy:    float64(correct) / float64(len(truth)),
		Confusion:   confusion,
		Predictions: len(truth),
		Windows:     len(truth),
	}
	for _, l := range labels {
		cs := classScore(l, confusion)
		m.Classes = append(m.Classes, cs)
		m.Precision += cs.Precision
		m.Recall += cs.Recall
		m.F1 += cs.F1
	}
	k := float64(len(labels))
	m.Precision /= k
	m.Recall /= k
	m.F1 /= k
	return m, nil
}

// #endregion score

// #region helpers
func classScore(label string, confusion map[string]map[string]int) ClassScore {
	var tp, fp, fn int
	for tl, row := range confusion {
		for pl, n := range row {
			switch {
			case tl == label && pl == label:
				tp += n
			case pl == label:
				fp += n
			case tl == label:
				fn += n
			}
		}
	}
	cs := ClassScore{Label: label, Support: tp + fn}
	if tp+fp > 0 {
		cs.Precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		cs.Recall = float64(tp) / float64(tp+fn)
	}
	if cs.Precision+cs.Recall > 0 {
		cs.F1 = 2 * cs.Precision * cs.Recall / (cs.Precision + cs.Recall)
	}
	return cs
}

// #endregion helpers
