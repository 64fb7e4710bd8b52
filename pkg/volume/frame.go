// Package volume provides an in-memory volumetric table that satisfies the
// data collaborator contract of the selections engine.
package volume

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
)

var (
	ErrUnknownColumn   = errors.New("volume: unknown column")
	ErrDuplicateColumn = errors.New("volume: duplicate column")
	ErrRowWidth        = errors.New("volume: row width mismatch")
	ErrRealization     = errors.New("volume: realization is not an integer")
)

// DefaultRealizationColumn holds the realization number of each row.
const DefaultRealizationColumn = "REAL"

// Frame is an immutable table of string cells. Distinct values are reported in
// order of first appearance.
type Frame struct {
	columns    []string
	index      map[string]int
	rows       [][]string
	responses  []string
	selectors  []string
	parameters []string
	realColumn string
	reals      []int
}

// Option configures a Frame.
type Option func(*Frame)

// WithResponses declares the response columns.
func WithResponses(names ...string) Option {
	return func(f *Frame) {
		f.responses = append([]string{}, names...)
	}
}

// WithSelectors declares the selector columns.
func WithSelectors(names ...string) Option {
	return func(f *Frame) {
		f.selectors = append([]string{}, names...)
	}
}

// WithParameters declares sensitivity parameter names. Parameters live
// outside the table and need not be columns.
func WithParameters(names ...string) Option {
	return func(f *Frame) {
		f.parameters = append([]string{}, names...)
	}
}

// WithRealizationColumn overrides DefaultRealizationColumn.
func WithRealizationColumn(name string) Option {
	return func(f *Frame) {
		if name != "" {
			f.realColumn = name
		}
	}
}

// New builds a Frame from a header and rows. Declared responses and selectors
// must be columns, and realization cells must be integers.
func New(columns []string, rows [][]string, opts ...Option) (*Frame, error) {
	f := &Frame{
		columns:    append([]string{}, columns...),
		index:      make(map[string]int, len(columns)),
		realColumn: DefaultRealizationColumn,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}

	for i, column := range f.columns {
		if _, exists := f.index[column]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, column)
		}
		f.index[column] = i
	}
	for _, name := range slices.Concat(f.responses, f.selectors) {
		if _, ok := f.index[name]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
		}
	}

	f.rows = make([][]string, 0, len(rows))
	for i, row := range rows {
		if len(row) != len(f.columns) {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrRowWidth, i, len(row), len(f.columns))
		}
		f.rows = append(f.rows, append([]string{}, row...))
	}

	if _, ok := f.index[f.realColumn]; ok {
		for _, cell := range f.Distinct(f.realColumn) {
			number, err := strconv.Atoi(cell)
			if err != nil {
				return nil, fmt.Errorf("%w: %q", ErrRealization, cell)
			}
			f.reals = append(f.reals, number)
		}
		slices.Sort(f.reals)
	}
	return f, nil
}

// ReadCSV builds a Frame from CSV data whose first record is the header.
func ReadCSV(r io.Reader, opts ...Option) (*Frame, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("volume: read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("volume: read csv: missing header")
	}
	return New(records[0], records[1:], opts...)
}

func (f *Frame) Responses() []string  { return slices.Clone(f.responses) }
func (f *Frame) Selectors() []string  { return slices.Clone(f.selectors) }
func (f *Frame) Parameters() []string { return slices.Clone(f.parameters) }
func (f *Frame) Columns() []string    { return slices.Clone(f.columns) }

// Realizations returns the distinct realization numbers in ascending order.
func (f *Frame) Realizations() []int { return slices.Clone(f.reals) }

// Len reports the number of rows.
func (f *Frame) Len() int { return len(f.rows) }

// Distinct returns the distinct values of column. Unknown columns yield nil.
func (f *Frame) Distinct(column string) []string {
	return f.DistinctWhere(column, nil)
}

// DistinctWhere returns the distinct values of column among rows whose value
// in every where column is one of the listed values. An empty value list
// matches no rows.
func (f *Frame) DistinctWhere(column string, where map[string][]string) []string {
	target, ok := f.index[column]
	if !ok {
		return nil
	}
	type predicate struct {
		index   int
		allowed []string
	}
	predicates := make([]predicate, 0, len(where))
	for name, allowed := range where {
		idx, ok := f.index[name]
		if !ok {
			return nil
		}
		predicates = append(predicates, predicate{index: idx, allowed: allowed})
	}

	seen := map[string]bool{}
	var out []string
rows:
	for _, row := range f.rows {
		for _, p := range predicates {
			if !slices.Contains(p.allowed, row[p.index]) {
				continue rows
			}
		}
		value := row[target]
		if seen[value] {
			continue
		}
		seen[value] = true
		out = append(out, value)
	}
	return out
}
