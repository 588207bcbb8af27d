package dataset

import (
	"fmt"
	"strconv"

	"github.com/danielpatrickdp/activity-classifier/internal/apperr"
)

// #region table
// Table is an in-memory CSV table. Rows keep file order.
type Table struct {
	Columns []string
	Rows    [][]string

	index map[string]int
}

// NewTable builds a table, rejecting duplicate or empty column names and
// rows whose width differs from the header.
func NewTable(columns []string, rows [][]string) (*Table, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: empty header", apperr.ErrParse)
	}
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		if c == "" {
			return nil, fmt.Errorf("%w: empty column name at position %d", apperr.ErrParse, i)
		}
		if _, dup := index[c]; dup {
			return nil, fmt.Errorf("%w: duplicate column %q", apperr.ErrParse, c)
		}
		index[c] = i
	}
	for i, r := range rows {
		if len(r) != len(columns) {
			return nil, fmt.Errorf("%w: row %d has %d fields, header has %d", apperr.ErrParse, i+1, len(r), len(columns))
		}
	}
	return &Table{Columns: columns, Rows: rows, index: index}, nil
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Index returns the position of column name, or -1.
func (t *Table) Index(name string) int {
	if t.index == nil {
		t.index = make(map[string]int, len(t.Columns))
		for i, c := range t.Columns {
			t.index[c] = i
		}
	}
	if i, ok := t.index[name]; ok {
		return i
	}
	return -1
}

// Has reports whether the table has every named column.
func (t *Table) Has(names ...string) bool {
	for _, n := range names {
		if t.Index(n) < 0 {
			return false
		}
	}
	return true
}

// Col returns the string cells of a column.
func (t *Table) Col(name string) ([]string, error) {
	i := t.Index(name)
	if i < 0 {
		return nil, fmt.Errorf("%w: no column %q", apperr.ErrSchema, name)
	}
	out := make([]string, len(t.Rows))
	for r, row := range t.Rows {
		out[r] = row[i]
	}
	return out, nil
}

// Floats parses a column as float64 values.
func (t *Table) Floats(name string) ([]float64, error) {
	cells, err := t.Col(name)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(cells))
	for r, s := range cells {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: column %q row %d: %q is not numeric", apperr.ErrSchema, name, r+1, s)
		}
		out[r] = v
	}
	return out, nil
}

// #endregion table

// #region sessions
// Sessions returns the distinct values of col in order of first appearance.
func (t *Table) Sessions(col string) ([]string, error) {
	cells, err := t.Col(col)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var out []string
	for _, s := range cells {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out, nil
}

// SelectSessions returns a new table holding the rows whose col value is in keep.
// Rows are shared with the receiver, not copied.
func (t *Table) SelectSessions(col string, keep map[string]bool) (*Table, error) {
	i := t.Index(col)
	if i < 0 {
		return nil, fmt.Errorf("%w: no column %q", apperr.ErrSchema, col)
	}
	rows := make([][]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		if keep[row[i]] {
			rows = append(rows, row)
		}
	}
	return &Table{Columns: t.Columns, Rows: rows}, nil
}

// GroupRows returns row indices per session, in first-appearance order of
// the session and source order within it.
func (t *Table) GroupRows(col string) ([]string, map[string][]int, error) {
	i := t.Index(col)
	if i < 0 {
		return nil, nil, fmt.Errorf("%w: no column %q", apperr.ErrSchema, col)
	}
	var order []string
	groups := make(map[string][]int)
	for r, row := range t.Rows {
		s := row[i]
		if _, ok := groups[s]; !ok {
			order = append(order, s)
		}
		groups[s] = append(groups[s], r)
	}
	return order, groups, nil
}

// #endregion sessions
