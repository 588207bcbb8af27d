package activity

import (
	"fmt"

	"github.com/sjwhitworth/golearn/base"
	"github.com/sjwhitworth/golearn/knn"
)

// #region knn
// knnModel wraps a golearn k-nearest-neighbour classifier over window vectors.
type knnModel struct {
	cls       *knn.KNNClassifier
	attrs     []base.Attribute
	classAttr *base.CategoricalAttribute
	fallback  string // placeholder class value for unlabelled rows
}

func fitKNN(ws []Window, names []string, target string, k int) (*knnModel, error) {
	m := &knnModel{
		attrs:     make([]base.Attribute, len(names)),
		classAttr: base.NewCategoricalAttribute(),
	}
	for i, n := range names {
		m.attrs[i] = base.NewFloatAttribute(n)
	}
	m.classAttr.SetName(target)
	m.fallback = ws[0].Label

	train, err := m.instances(ws, true)
	if err != nil {
		return nil, err
	}
	// golearn indexes past the end of the distance list when k exceeds the
	// training rows
	m.cls = knn.NewKnnClassifier("euclidean", "linear", min(k, len(ws)))
	if err := m.cls.Fit(train); err != nil {
		return nil, fmt.Errorf("knn fit: %w", err)
	}
	return m, nil
}

// instances packs windows into golearn DenseInstances sharing this model's
// attributes, so train and predict grids are compatible.
func (m *knnModel) instances(ws []Window, labelled bool) (*base.DenseInstances, error) {
	inst := base.NewDenseInstances()
	specs := make([]base.AttributeSpec, len(m.attrs))
	for i, a := range m.attrs {
		specs[i] = inst.AddAttribute(a)
	}
	classSpec := inst.AddAttribute(m.classAttr)
	if err := inst.AddClassAttribute(m.classAttr); err != nil {
		return nil, fmt.Errorf("knn class attribute: %w", err)
	}
	if err := inst.Extend(len(ws)); err != nil {
		return nil, fmt.Errorf("knn extend: %w", err)
	}
	for r, w := range ws {
		for i, v := range w.Vector {
			inst.Set(specs[i], r, base.PackFloatToBytes(v))
		}
		label := m.fallback
		if labelled {
			label = w.Label
		}
		inst.Set(classSpec, r, m.classAttr.GetSysValFromString(label))
	}
	return inst, nil
}

func (m *knnModel) predictAll(ws []Window) ([]string, error) {
	grid, err := m.instances(ws, false)
	if err != nil {
		return nil, err
	}
	pred, err := m.cls.Predict(grid)
	if err != nil {
		return nil, fmt.Errorf("knn predict: %w", err)
	}
	out := make([]string, len(ws))
	for i := range ws {
		out[i] = base.GetClass(pred, i)
	}
	return out, nil
}

// #endregion knn
