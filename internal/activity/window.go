package activity

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/danielpatrickdp/activity-classifier/internal/apperr"
	"github.com/danielpatrickdp/activity-classifier/internal/dataset"
)

// statsPerFeature is the number of summary values computed per feature column.
const statsPerFeature = 4

// #region window
// Window is one prediction window: consecutive rows of a single session.
type Window struct {
	Session string
	Start   int // index of the first row in the source table
	Rows    int
	Indices []int     // source table rows covered by the window
	Label   string    // majority target label, "" when no target column was used
	Vector  []float64 // mean, std, min, max per feature column
}

// FeatureNames returns the names of the entries of Window.Vector.
func FeatureNames(features []string) []string {
	out := make([]string, 0, len(features)*statsPerFeature)
	for _, f := range features {
		out = append(out, f+"_mean", f+"_std", f+"_min", f+"_max")
	}
	return out
}

// #endregion window

// #region extract
// Windows cuts every session of t into windows of size rows. A trailing
// partial window is kept. target may be empty when labels are not needed.
// Sessions are processed concurrently; the returned order follows session
// first appearance, then row order.
func Windows(ctx context.Context, t *dataset.Table, session, target string, features []string, size int) ([]Window, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: prediction window must be positive, got %d", apperr.ErrConfig, size)
	}

	cols := make([][]float64, len(features))
	for i, f := range features {
		v, err := t.Floats(f)
		if err != nil {
			return nil, err
		}
		cols[i] = v
	}
	var labels []string
	if target != "" {
		l, err := t.Col(target)
		if err != nil {
			return nil, err
		}
		labels = l
	}

	order, groups, err := t.GroupRows(session)
	if err != nil {
		return nil, err
	}

	perSession := make([][]Window, len(order))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, id := range order {
		i, id := i, id
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			perSession[i] = sessionWindows(id, groups[id], cols, labels, size)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []Window
	for _, ws := range perSession {
		out = append(out, ws...)
	}
	return out, nil
}

func sessionWindows(id string, rows []int, cols [][]float64, labels []string, size int) []Window {
	out := make([]Window, 0, (len(rows)+size-1)/size)
	buf := make([]float64, 0, size)
	for lo := 0; lo < len(rows); lo += size {
		hi := min(lo+size, len(rows))
		chunk := rows[lo:hi]

		vec := make([]float64, 0, len(cols)*statsPerFeature)
		for _, col := range cols {
			buf = buf[:0]
			for _, r := range chunk {
				buf = append(buf, col[r])
			}
			mean := stat.Mean(buf, nil)
			std := math.Sqrt(stat.Moment(2, buf, nil))
			vec = append(vec, mean, std, floats.Min(buf), floats.Max(buf))
		}

		w := Window{Session: id, Start: chunk[0], Rows: len(chunk), Indices: chunk, Vector: vec}
		if labels != nil {
			w.Label = majority(labels, chunk)
		}
		out = append(out, w)
	}
	return out
}

// majority returns the most frequent label over rows; ties go to the
// lexicographically smallest label.
func majority(labels []string, rows []int) string {
	counts := make(map[string]int)
	for _, r := range rows {
		counts[labels[r]]++
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	best := keys[0]
	for _, k := range keys[1:] {
		if counts[k] > counts[best] {
			best = k
		}
	}
	return best
}

// #endregion extract
