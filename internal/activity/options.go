package activity

import (
	"fmt"

	"github.com/danielpatrickdp/activity-classifier/internal/apperr"
	"github.com/danielpatrickdp/activity-classifier/internal/dataset"
)

// #region kind
// Kind selects the classifier fitted over window features.
type Kind string

const (
	KindCentroid Kind = "centroid"
	KindKNN      Kind = "knn"
)

// Frequency selects whether predictions and scores are per row or per window.
type Frequency string

const (
	FrequencyPerRow    Frequency = "per_row"
	FrequencyPerWindow Frequency = "per_window"
)

// #endregion kind

// #region options
// Options controls classifier creation.
type Options struct {
	SessionColumn    string
	TargetColumn     string
	PredictionWindow int      // rows per prediction
	Features         []string // empty means every column but session and target
	Kind             Kind
	Neighbors        int       // knn only
	OutputFrequency  Frequency // empty means per_row
}

// DefaultOptions mirrors the column names of the reference activity dataset.
func DefaultOptions() Options {
	return Options{
		SessionColumn:    "Experiment",
		TargetColumn:     "Activity",
		PredictionWindow: 50,
		Kind:             KindCentroid,
		Neighbors:        5,
		OutputFrequency:  FrequencyPerRow,
	}
}

// resolve validates o against t and returns a copy with Features filled in.
func (o Options) resolve(t *dataset.Table) (Options, error) {
	if o.PredictionWindow <= 0 {
		return o, fmt.Errorf("%w: prediction window must be positive, got %d", apperr.ErrConfig, o.PredictionWindow)
	}
	switch o.Kind {
	case "":
		o.Kind = KindCentroid
	case KindCentroid:
	case KindKNN:
		if o.Neighbors <= 0 {
			return o, fmt.Errorf("%w: knn needs a positive neighbor count, got %d", apperr.ErrConfig, o.Neighbors)
		}
	default:
		return o, fmt.Errorf("%w: unknown classifier kind %q", apperr.ErrConfig, o.Kind)
	}
	switch o.OutputFrequency {
	case "":
		o.OutputFrequency = FrequencyPerRow
	case FrequencyPerRow, FrequencyPerWindow:
	default:
		return o, fmt.Errorf("%w: unknown output frequency %q", apperr.ErrConfig, o.OutputFrequency)
	}
	if t == nil || t.Len() == 0 {
		return o, fmt.Errorf("%w: empty training table", apperr.ErrConfig)
	}
	if o.SessionColumn == "" || t.Index(o.SessionColumn) < 0 {
		return o, fmt.Errorf("%w: session column %q not found", apperr.ErrConfig, o.SessionColumn)
	}
	if o.TargetColumn == "" || t.Index(o.TargetColumn) < 0 {
		return o, fmt.Errorf("%w: target column %q not found", apperr.ErrConfig, o.TargetColumn)
	}
	if o.SessionColumn == o.TargetColumn {
		return o, fmt.Errorf("%w: session and target column are both %q", apperr.ErrConfig, o.SessionColumn)
	}

	if len(o.Features) == 0 {
		var feats []string
		for _, c := range t.Columns {
			if c != o.SessionColumn && c != o.TargetColumn {
				feats = append(feats, c)
			}
		}
		o.Features = feats
	} else {
		for _, f := range o.Features {
			if f == o.SessionColumn || f == o.TargetColumn {
				return o, fmt.Errorf("%w: feature %q is the session or target column", apperr.ErrConfig, f)
			}
			if t.Index(f) < 0 {
				return o, fmt.Errorf("%w: feature column %q not found", apperr.ErrConfig, f)
			}
		}
		o.Features = append([]string(nil), o.Features...)
	}
	if len(o.Features) == 0 {
		return o, fmt.Errorf("%w: no feature columns", apperr.ErrConfig)
	}
	return o, nil
}

// #endregion options
