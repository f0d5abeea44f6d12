// Package dataset provides the column-oriented storage the evaluator reads
// variable values from. Columns are contiguous float64 slices keyed by the
// variable's identity hash; the evaluation core never mutates them.
package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"

	"github.com/wildfunctions/treeval/pkg/tree"
)

// Range denotes a half-open row interval [Start, End).
type Range struct {
	Start, End int
}

// NewRange returns the range [start, end).
func NewRange(start, end int) Range { return Range{Start: start, End: end} }

// Size returns the number of rows in the range.
func (r Range) Size() int { return r.End - r.Start }

// Variable describes one column.
type Variable struct {
	Name string
	Hash uint64
}

// Dataset is an immutable set of equal-length columns.
type Dataset struct {
	rows    int
	vars    []Variable
	columns map[uint64][]float64
}

// New builds a dataset from named columns. All columns must have the same
// length and names must be unique.
func New(columns map[string][]float64) (*Dataset, error) {
	d := &Dataset{columns: make(map[uint64][]float64, len(columns))}
	d.rows = -1
	for name, col := range columns {
		if d.rows >= 0 && len(col) != d.rows {
			return nil, errors.Errorf("dataset: column %q has %d rows, want %d", name, len(col), d.rows)
		}
		d.rows = len(col)
		h := tree.VarHash(name)
		if _, dup := d.columns[h]; dup {
			return nil, errors.Errorf("dataset: duplicate column %q", name)
		}
		d.columns[h] = col
		d.vars = append(d.vars, Variable{Name: name, Hash: h})
	}
	if d.rows < 0 {
		d.rows = 0
	}
	return d, nil
}

// FromCSV reads a dataset from CSV with a header row of variable names.
func FromCSV(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "dataset: open csv")
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV reads CSV content with a header row of variable names.
func ReadCSV(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(err, "dataset: read csv header")
	}
	cols := make([][]float64, len(header))
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "dataset: read csv record")
		}
		for i, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "dataset: column %q", header[i])
			}
			cols[i] = append(cols[i], v)
		}
	}
	m := make(map[string][]float64, len(header))
	for i, name := range header {
		m[name] = cols[i]
	}
	return New(m)
}

// Rows returns the number of rows.
func (d *Dataset) Rows() int { return d.rows }

// Variables lists the columns in no particular order.
func (d *Dataset) Variables() []Variable { return d.vars }

// GetValues returns the column for the given variable hash, or nil when
// absent. The returned slice is a view; callers must not modify it.
func (d *Dataset) GetValues(hash uint64) []float64 { return d.columns[hash] }

// NameOf returns the name bound to a variable hash, or "".
func (d *Dataset) NameOf(hash uint64) string {
	for _, v := range d.vars {
		if v.Hash == hash {
			return v.Name
		}
	}
	return ""
}

// FullRange returns [0, Rows()).
func (d *Dataset) FullRange() Range { return Range{Start: 0, End: d.rows} }
