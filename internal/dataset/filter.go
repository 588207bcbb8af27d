package dataset

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/danielpatrickdp/activity-classifier/internal/apperr"
)

// #region env
var (
	filterEnv     *cel.Env
	filterEnvErr  error
	filterEnvOnce sync.Once
)

func getFilterEnv() (*cel.Env, error) {
	filterEnvOnce.Do(func() {
		filterEnv, filterEnvErr = cel.NewEnv(
			cel.Variable("row", cel.MapType(cel.StringType, cel.DynType)),
		)
	})
	return filterEnv, filterEnvErr
}

// #endregion env

// #region filter
// Filter keeps the rows for which expr evaluates to true. expr is a CEL
// expression over `row`, a map from column name to cell value; numeric
// cells are doubles, everything else is a string.
//
//	row.Activity != "Unknown" && row.Experiment != 7
//
// An empty expression returns t unchanged.
func Filter(t *Table, expr string) (*Table, error) {
	if expr == "" {
		return t, nil
	}
	env, err := getFilterEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("%w: filter %q: %v", apperr.ErrConfig, expr, iss.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("%w: filter %q: %v", apperr.ErrConfig, expr, err)
	}

	rows := make([][]string, 0, len(t.Rows))
	for i, row := range t.Rows {
		out, _, err := prg.Eval(map[string]any{"row": rowValues(t.Columns, row)})
		if err != nil {
			return nil, fmt.Errorf("%w: filter row %d: %v", apperr.ErrConfig, i+1, err)
		}
		keep, ok := out.Value().(bool)
		if !ok {
			return nil, fmt.Errorf("%w: filter %q must return bool, got %T", apperr.ErrConfig, expr, out.Value())
		}
		if keep {
			rows = append(rows, row)
		}
	}
	return &Table{Columns: t.Columns, Rows: rows}, nil
}

func rowValues(columns, row []string) map[string]any {
	m := make(map[string]any, len(columns))
	for i, c := range columns {
		if v, err := strconv.ParseFloat(row[i], 64); err == nil {
			m[c] = v
		} else {
			m[c] = row[i]
		}
	}
	return m
}

// #endregion filter
