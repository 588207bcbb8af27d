package dataset

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/danielpatrickdp/activity-classifier/internal/apperr"
)

// #region helpers
func writeGzip(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	assert.NilError(t, err)
	zw := gzip.NewWriter(f)
	_, err = zw.Write([]byte(body))
	assert.NilError(t, err)
	assert.NilError(t, zw.Close())
	assert.NilError(t, f.Close())
	return path
}

const sample = `Experiment,Activity,acc_x,acc_y
1,walking,0.1,0.2
1,walking,0.3,0.1
2,sitting,1.5,1.2
2,sitting,1.4,1.1
3,walking,0.2,0.3
`

// #endregion helpers

// #region load-tests
func TestLoad_Gzip(t *testing.T) {
	tbl, err := Load(writeGzip(t, "data.csv.gz", sample))
	assert.NilError(t, err)
	assert.DeepEqual(t, tbl.Columns, []string{"Experiment", "Activity", "acc_x", "acc_y"})
	assert.Equal(t, tbl.Len(), 5)
	assert.Equal(t, tbl.Rows[2][1], "sitting")
}

func TestLoad_RoundTripGzip(t *testing.T) {
	tbl, err := Load(writeGzip(t, "in.csv.gz", sample))
	assert.NilError(t, err)

	out := filepath.Join(t.TempDir(), "out.csv.gz")
	assert.NilError(t, Write(out, tbl))

	again, err := Load(out)
	assert.NilError(t, err)
	assert.DeepEqual(t, again.Columns, tbl.Columns)
	assert.Equal(t, again.Len(), tbl.Len())
	assert.DeepEqual(t, again.Rows, tbl.Rows)
}

func TestLoad_RoundTripXZ(t *testing.T) {
	tbl, err := Read(strings.NewReader(sample))
	assert.NilError(t, err)

	out := filepath.Join(t.TempDir(), "out.csv.xz")
	assert.NilError(t, Write(out, tbl))

	again, err := Load(out)
	assert.NilError(t, err)
	assert.DeepEqual(t, again.Columns, tbl.Columns)
	assert.Equal(t, again.Len(), tbl.Len())
}

func TestLoad_MissingFileIsIOError(t *testing.T) {
	tbl, err := Load(filepath.Join(t.TempDir(), "nope.csv.gz"))
	assert.Assert(t, err != nil)
	assert.Assert(t, tbl == nil)
	assert.Assert(t, apperr.IsIO(err), "got %v", err)
}

func TestLoad_CorruptGzipIsIOError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv.gz")
	assert.NilError(t, os.WriteFile(path, []byte("definitely not gzip"), 0644))

	_, err := Load(path)
	assert.Assert(t, apperr.IsIO(err), "got %v", err)
}

func TestLoad_RaggedRowIsParseError(t *testing.T) {
	path := writeGzip(t, "ragged.csv.gz", "a,b,c\n1,2,3\n4,5\n")
	_, err := Load(path)
	assert.Assert(t, apperr.IsParse(err), "got %v", err)
}

func TestRead_StripsBOM(t *testing.T) {
	tbl, err := Read(strings.NewReader("\ufeffExperiment,Activity,x\n1,walking,0.5\n"))
	assert.NilError(t, err)
	assert.Equal(t, tbl.Columns[0], "Experiment")
	assert.Equal(t, tbl.Index("Experiment"), 0)
	assert.Equal(t, tbl.Len(), 1)
}

func TestRead_DuplicateColumnIsParseError(t *testing.T) {
	_, err := Read(strings.NewReader("a,b,a\n1,2,3\n"))
	assert.Assert(t, apperr.IsParse(err), "got %v", err)
}

func TestRead_EmptyInputIsParseError(t *testing.T) {
	_, err := Read(strings.NewReader(""))
	assert.Assert(t, apperr.IsParse(err), "got %v", err)
}

// #endregion load-tests

// #region table-tests
func TestSessionsFirstAppearanceOrder(t *testing.T) {
	tbl, err := Read(strings.NewReader(sample))
	assert.NilError(t, err)
	s, err := tbl.Sessions("Experiment")
	assert.NilError(t, err)
	assert.DeepEqual(t, s, []string{"1", "2", "3"})
}

func TestSelectSessions(t *testing.T) {
	tbl, err := Read(strings.NewReader(sample))
	assert.NilError(t, err)
	sub, err := tbl.SelectSessions("Experiment", map[string]bool{"1": true, "3": true})
	assert.NilError(t, err)
	assert.Equal(t, sub.Len(), 3)
	assert.Equal(t, sub.Index("acc_y"), 3)
}

func TestFloats_NonNumericIsSchemaError(t *testing.T) {
	tbl, err := Read(strings.NewReader(sample))
	assert.NilError(t, err)
	_, err = tbl.Floats("Activity")
	assert.Assert(t, apperr.IsSchema(err), "got %v", err)
}

func TestGroupRows(t *testing.T) {
	tbl, err := Read(strings.NewReader("s,v\na,1\nb,2\na,3\n"))
	assert.NilError(t, err)
	order, groups, err := tbl.GroupRows("s")
	assert.NilError(t, err)
	assert.DeepEqual(t, order, []string{"a", "b"})
	assert.DeepEqual(t, groups["a"], []int{0, 2})
}

// #endregion table-tests

// #region filter-tests
func TestFilter_KeepsMatchingRows(t *testing.T) {
	tbl, err := Read(strings.NewReader(sample))
	assert.NilError(t, err)
	out, err := Filter(tbl, `row.Activity == "walking" && row.acc_x < 0.25`)
	assert.NilError(t, err)
	assert.Equal(t, out.Len(), 2)
}

func TestFilter_EmptyExpressionIsIdentity(t *testing.T) {
	tbl, err := Read(strings.NewReader(sample))
	assert.NilError(t, err)
	out, err := Filter(tbl, "")
	assert.NilError(t, err)
	assert.Equal(t, out, tbl)
}

func TestFilter_BadExpressionIsConfigError(t *testing.T) {
	tbl, err := Read(strings.NewReader(sample))
	assert.NilError(t, err)
	_, err = Filter(tbl, `row.Activity ==`)
	assert.Assert(t, apperr.IsConfig(err), "got %v", err)
}

func TestFilter_NonBoolIsConfigError(t *testing.T) {
	tbl, err := Read(strings.NewReader(sample))
	assert.NilError(t, err)
	_, err = Filter(tbl, `row.acc_x + 1.0`)
	assert.Assert(t, apperr.IsConfig(err), "got %v", err)
}

// #endregion filter-tests
