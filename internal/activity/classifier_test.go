package activity

import (
	"context"
	"strings"
	"testing"

	"github.com/danielpatrickdp/activity-classifier/internal/apperr"
	"github.com/danielpatrickdp/activity-classifier/internal/dataset"
	"github.com/danielpatrickdp/activity-classifier/internal/synth"
)

// #region helpers
func synthTable(t *testing.T, sessions int) *dataset.Table {
	t.Helper()
	cfg := synth.DefaultConfig()
	cfg.Sessions = sessions
	tbl, err := synth.Generate(cfg)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return tbl
}

func subset(t *testing.T, tbl *dataset.Table, ids ...string) *dataset.Table {
	t.Helper()
	keep := map[string]bool{}
	for _, id := range ids {
		keep[id] = true
	}
	out, err := tbl.SelectSessions("Experiment", keep)
	if err != nil {
		t.Fatalf("SelectSessions: %v", err)
	}
	return out
}

// #endregion helpers

// #region window-tests
func TestWindowsCountAndPartial(t *testing.T) {
	tbl, err := dataset.NewTable([]string{"s", "y", "x"}, [][]string{
		{"a", "up", "1"}, {"a", "up", "2"}, {"a", "down", "3"},
		{"b", "down", "4"}, {"b", "down", "6"},
	})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	ws, err := Windows(context.Background(), tbl, "s", "y", []string{"x"}, 2)
	if err != nil {
		t.Fatalf("Windows: %v", err)
	}
	// a -> [1,2] [3], b -> [4,6]
	if len(ws) != 3 {
		t.Fatalf("expected 3 windows, got %d", len(ws))
	}
	if ws[1].Rows != 1 || ws[1].Start != 2 {
		t.Errorf("expected partial window at row 2, got start=%d rows=%d", ws[1].Start, ws[1].Rows)
	}
	if ws[2].Session != "b" || ws[2].Label != "down" {
		t.Errorf("unexpected third window %+v", ws[2])
	}
	// mean, std, min, max of [4,6]
	want := []float64{5, 1, 4, 6}
	for i, v := range want {
		if ws[2].Vector[i] != v {
			t.Errorf("vector[%d]: expected %v, got %v", i, v, ws[2].Vector[i])
		}
	}
}

func TestMajorityTieBreak(t *testing.T) {
	got := majority([]string{"walk", "sit"}, []int{0, 1})
	if got != "sit" {
		t.Fatalf("expected lexicographically smallest label on tie, got %s", got)
	}
}

func TestFeatureNames(t *testing.T) {
	names := FeatureNames([]string{"acc_x"})
	if strings.Join(names, ",") != "acc_x_mean,acc_x_std,acc_x_min,acc_x_max" {
		t.Fatalf("unexpected names %v", names)
	}
}

// #endregion window-tests

// #region create-tests
func TestCreateRejectsNonPositiveWindow(t *testing.T) {
	tbl := synthTable(t, 2)
	for _, w := range []int{0, -5} {
		opts := DefaultOptions()
		opts.PredictionWindow = w
		_, err := Create(context.Background(), tbl, opts)
		if !apperr.IsConfig(err) {
			t.Fatalf("window %d: expected config error, got %v", w, err)
		}
	}
}

func TestCreateRejectsMissingColumns(t *testing.T) {
	tbl := synthTable(t, 2)
	opts := DefaultOptions()
	opts.TargetColumn = "Label"
	if _, err := Create(context.Background(), tbl, opts); !apperr.IsConfig(err) {
		t.Fatalf("expected config error for missing target, got %v", err)
	}

	opts = DefaultOptions()
	opts.Features = []string{"acc_x", "nope"}
	if _, err := Create(context.Background(), tbl, opts); !apperr.IsConfig(err) {
		t.Fatalf("expected config error for missing feature, got %v", err)
	}
}

func TestCreateRejectsUnknownKind(t *testing.T) {
	opts := DefaultOptions()
	opts.Kind = "lstm"
	if _, err := Create(context.Background(), synthTable(t, 2), opts); !apperr.IsConfig(err) {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestCreateNonNumericFeatureIsSchemaError(t *testing.T) {
	tbl, _ := dataset.NewTable([]string{"Experiment", "Activity", "x"}, [][]string{
		{"1", "walk", "fast"},
	})
	_, err := Create(context.Background(), tbl, DefaultOptions())
	if !apperr.IsSchema(err) {
		t.Fatalf("expected schema error, got %v", err)
	}
}

func TestCreateDefaultFeatures(t *testing.T) {
	c, err := Create(context.Background(), synthTable(t, 4), DefaultOptions())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if strings.Join(c.Options.Features, ",") != "acc_x,acc_y,acc_z" {
		t.Fatalf("unexpected default features %v", c.Options.Features)
	}
	if c.TrainWindows != 8 {
		t.Fatalf("expected 8 training windows, got %d", c.TrainWindows)
	}
	if len(c.Labels) != 2 {
		t.Fatalf("expected 2 labels, got %v", c.Labels)
	}
	if !strings.HasPrefix(c.Summary(), "centroid classifier") {
		t.Fatalf("unexpected summary %q", c.Summary())
	}
}

// #endregion create-tests

// #region evaluate-tests
func TestCentroidLearnsSyntheticActivities(t *testing.T) {
	tbl := synthTable(t, 10)
	train := subset(t, tbl, "1", "2", "3", "4", "5", "6", "7", "8")
	test := subset(t, tbl, "9", "10")

	c, err := Create(context.Background(), train, DefaultOptions())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	m, err := c.Evaluate(context.Background(), test)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if m.Windows != 4 {
		t.Fatalf("expected 4 test windows, got %d", m.Windows)
	}
	if m.Accuracy < 0.99 {
		t.Fatalf("expected separable synthetic data to be learned, accuracy %f", m.Accuracy)
	}
}

func TestKNNLearnsSyntheticActivities(t *testing.T) {
	tbl := synthTable(t, 10)
	train := subset(t, tbl, "1", "2", "3", "4", "5", "6", "7", "8")
	test := subset(t, tbl, "9", "10")

	opts := DefaultOptions()
	opts.Kind = KindKNN
	opts.Neighbors = 3
	c, err := Create(context.Background(), train, opts)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	m, err := c.Evaluate(context.Background(), test)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if m.Accuracy < 0 || m.Accuracy > 1 {
		t.Fatalf("accuracy out of range: %f", m.Accuracy)
	}
}

func TestEvaluateSchemaMismatch(t *testing.T) {
	tbl := synthTable(t, 3)
	c, err := Create(context.Background(), tbl, DefaultOptions())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	other, _ := dataset.NewTable([]string{"Experiment", "Activity", "acc_x"}, [][]string{{"1", "walking", "0.1"}})
	_, err = c.Evaluate(context.Background(), other)
	if !apperr.IsSchema(err) {
		t.Fatalf("expected schema error, got %v", err)
	}
}

func unlabelledCopy(t *testing.T, tbl *dataset.Table) *dataset.Table {
	t.Helper()
	cols := []string{"Experiment", "acc_x", "acc_y", "acc_z"}
	rows := make([][]string, 0, tbl.Len())
	for _, r := range tbl.Rows {
		rows = append(rows, []string{r[0], r[2], r[3], r[4]})
	}
	out, err := dataset.NewTable(cols, rows)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	return out
}

func TestPredictPerRowWithoutTargetColumn(t *testing.T) {
	tbl := synthTable(t, 3)
	c, err := Create(context.Background(), tbl, DefaultOptions())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	preds, err := c.Predict(context.Background(), unlabelledCopy(t, tbl))
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if len(preds) != tbl.Len() {
		t.Fatalf("expected %d row predictions, got %d", tbl.Len(), len(preds))
	}
	for i, p := range preds {
		if p.Start != i || p.Rows != 1 {
			t.Fatalf("prediction %d: expected row %d, got start=%d rows=%d", i, i, p.Start, p.Rows)
		}
		if p.Label != "walking" && p.Label != "sitting" {
			t.Fatalf("unexpected label %q", p.Label)
		}
	}
}

func TestPredictPerWindow(t *testing.T) {
	tbl := synthTable(t, 3)
	opts := DefaultOptions()
	opts.OutputFrequency = FrequencyPerWindow
	c, err := Create(context.Background(), tbl, opts)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	preds, err := c.Predict(context.Background(), unlabelledCopy(t, tbl))
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if len(preds) != 6 {
		t.Fatalf("expected 6 window predictions, got %d", len(preds))
	}
}

func TestCreateRejectsUnknownOutputFrequency(t *testing.T) {
	opts := DefaultOptions()
	opts.OutputFrequency = "per_session"
	if _, err := Create(context.Background(), synthTable(t, 2), opts); !apperr.IsConfig(err) {
		t.Fatalf("expected config error, got %v", err)
	}
}

// mixedWindowTables trains on one all-"a" and one all-"b" session and tests
// on a single window whose rows are labelled a,a,a,b.
func mixedWindowTables(t *testing.T) (train, test *dataset.Table) {
	t.Helper()
	cols := []string{"Experiment", "Activity", "x"}
	train, err := dataset.NewTable(cols, [][]string{
		{"1", "a", "0"}, {"1", "a", "0.1"}, {"1", "a", "0"}, {"1", "a", "0.1"},
		{"2", "b", "10"}, {"2", "b", "10.1"}, {"2", "b", "10"}, {"2", "b", "10.1"},
	})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	test, err = dataset.NewTable(cols, [][]string{
		{"3", "a", "0"}, {"3", "a", "0.1"}, {"3", "a", "0"}, {"3", "b", "0.1"},
	})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	return train, test
}

func TestEvaluateScoresPerRowByDefault(t *testing.T) {
	train, test := mixedWindowTables(t)
	opts := DefaultOptions()
	opts.PredictionWindow = 4
	c, err := Create(context.Background(), train, opts)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	m, err := c.Evaluate(context.Background(), test)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if m.Windows != 1 || m.Predictions != 4 {
		t.Fatalf("expected 1 window and 4 row predictions, got %d/%d", m.Windows, m.Predictions)
	}
	if m.Accuracy != 0.75 {
		t.Fatalf("expected per-row accuracy 0.75, got %f", m.Accuracy)
	}
	if m.Confusion["b"]["a"] != 1 {
		t.Errorf("expected the b row counted as predicted a, got %v", m.Confusion)
	}
}

func TestEvaluatePerWindowUsesMajorityLabel(t *testing.T) {
	train, test := mixedWindowTables(t)
	opts := DefaultOptions()
	opts.PredictionWindow = 4
	opts.OutputFrequency = FrequencyPerWindow
	c, err := Create(context.Background(), train, opts)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	m, err := c.Evaluate(context.Background(), test)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if m.Windows != 1 || m.Predictions != 1 || m.Accuracy != 1 {
		t.Fatalf("expected one correct window, got windows=%d predictions=%d accuracy=%f",
			m.Windows, m.Predictions, m.Accuracy)
	}
}

// #endregion evaluate-tests
