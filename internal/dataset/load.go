package dataset

import (
	"bufio"
	"compress/gzip"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/danielpatrickdp/activity-classifier/internal/apperr"
)

// #region load
// Load reads a CSV file into a Table. The first record is the header.
// Files ending in .gz are gunzipped and files ending in .xz are unxz'd.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", apperr.ErrIO, path, err)
	}
	defer f.Close()

	r, closeFn, err := decompressor(path, bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", apperr.ErrIO, path, err)
	}
	defer closeFn()

	t, err := Read(r)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return t, nil
}

// Read parses CSV from r into a Table.
func Read(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = false

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: no header", apperr.ErrParse)
	}
	if err != nil {
		return nil, classifyReadErr(err)
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, classifyReadErr(err)
		}
		rows = append(rows, rec)
	}
	return NewTable(header, rows)
}

func classifyReadErr(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return fmt.Errorf("%w: %w", apperr.ErrParse, err)
	}
	// gzip/xz checksum and truncation errors surface here
	return fmt.Errorf("%w: %w", apperr.ErrIO, err)
}

func decompressor(path string, r io.Reader) (io.Reader, func() error, error) {
	switch {
	case strings.HasSuffix(path, ".gz"):
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("gzip: %w", err)
		}
		return zr, zr.Close, nil
	case strings.HasSuffix(path, ".xz"):
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("xz: %w", err)
		}
		return xr, func() error { return nil }, nil
	}
	return r, func() error { return nil }, nil
}

// #endregion load

// #region write
// Write stores t as CSV at path, compressing by extension like Load.
func Write(path string, t *Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: create %s: %w", apperr.ErrIO, path, err)
	}

	var (
		w       io.Writer = f
		closers []io.Closer
	)
	switch {
	case strings.HasSuffix(path, ".gz"):
		zw := gzip.NewWriter(f)
		w, closers = zw, append(closers, zw)
	case strings.HasSuffix(path, ".xz"):
		xw, err := xz.NewWriter(f)
		if err != nil {
			f.Close()
			return fmt.Errorf("%w: xz writer: %w", apperr.ErrIO, err)
		}
		w, closers = xw, append(closers, xw)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		f.Close()
		return fmt.Errorf("%w: write header: %w", apperr.ErrIO, err)
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		f.Close()
		return fmt.Errorf("%w: write rows: %w", apperr.ErrIO, err)
	}
	for _, c := range closers {
		if err := c.Close(); err != nil {
			f.Close()
			return fmt.Errorf("%w: flush %s: %w", apperr.ErrIO, path, err)
		}
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", apperr.ErrIO, path, err)
	}
	return nil
}

// #endregion write
