package activity

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// #region centroid
// centroidModel predicts the label whose mean standardised window vector
// is closest in euclidean distance.
type centroidModel struct {
	labels    []string // sorted
	centroids [][]float64
	mean      []float64
	scale     []float64
}

func fitCentroid(ws []Window) *centroidModel {
	dim := len(ws[0].Vector)
	m := &centroidModel{
		mean:  make([]float64, dim),
		scale: make([]float64, dim),
	}

	col := make([]float64, len(ws))
	for d := 0; d < dim; d++ {
		for i, w := range ws {
			col[i] = w.Vector[d]
		}
		m.mean[d] = stat.Mean(col, nil)
		s := math.Sqrt(stat.Moment(2, col, nil))
		if s == 0 || math.IsNaN(s) {
			s = 1
		}
		m.scale[d] = s
	}

	sums := make(map[string][]float64)
	counts := make(map[string]int)
	for _, w := range ws {
		z := m.standardise(w.Vector)
		if sums[w.Label] == nil {
			sums[w.Label] = make([]float64, dim)
		}
		floats.Add(sums[w.Label], z)
		counts[w.Label]++
	}
	for l := range sums {
		m.labels = append(m.labels, l)
	}
	sort.Strings(m.labels)
	for _, l := range m.labels {
		c := sums[l]
		floats.Scale(1/float64(counts[l]), c)
		m.centroids = append(m.centroids, c)
	}
	return m
}

func (m *centroidModel) standardise(v []float64) []float64 {
	z := make([]float64, len(v))
	floats.SubTo(z, v, m.mean)
	floats.Div(z, m.scale)
	return z
}

func (m *centroidModel) predict(v []float64) string {
	z := m.standardise(v)
	best, bestDist := 0, math.Inf(1)
	for i, c := range m.centroids {
		if d := floats.Distance(z, c, 2); d < bestDist {
			best, bestDist = i, d
		}
	}
	return m.labels[best]
}

// #endregion centroid
