// Package cleaning implements the standard tabular cleaning routine: trim
// strings, fill missing values, coerce numeric columns, drop rows with
// missing values and drop duplicate rows.
//
// Clean never mutates its input; it works on a deep copy.
package cleaning

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"datavitals/pkg/dataset"
	"datavitals/pkg/records"
)

var (
	// ErrInvalidInput is returned when the input is nil or structurally invalid.
	ErrInvalidInput = errors.New("cleaning: input must be a valid dataset")

	// ErrCleaningResultEmpty is returned when a non-empty input loses every
	// row to the cleaning rules.
	ErrCleaningResultEmpty = errors.New("cleaning: data cleaning resulted in an empty dataset; check input data or cleaning rules")
)

// Options toggles the individual cleaning steps. The zero value disables
// every step; start from DefaultOptions.
type Options struct {
	DropNulls      bool
	DropDuplicates bool
	TrimStrings    bool
	ConvertNumeric bool

	// FillMap replaces missing values per column. Columns that do not exist
	// in the dataset are ignored.
	FillMap map[string]records.Value

	// NormalizeUnicode applies NFC normalization to strings of string-like
	// columns in the trim step, so composed and decomposed forms of the same
	// text compare equal during duplicate removal. Requires TrimStrings.
	NormalizeUnicode bool
}

// DefaultOptions returns the standard strategy: every step enabled, no fills.
func DefaultOptions() Options {
	return Options{
		DropNulls:      true,
		DropDuplicates: true,
		TrimStrings:    true,
		ConvertNumeric: true,
	}
}

// WithFill returns a copy of o that fills missing values of column with v.
func (o Options) WithFill(column string, v records.Value) Options {
	fm := make(map[string]records.Value, len(o.FillMap)+1)
	for k, fv := range o.FillMap {
		fm[k] = fv
	}
	fm[column] = v
	o.FillMap = fm
	return o
}

// Stats describes what a cleaning run changed.
type Stats struct {
	RowsIn               int
	RowsOut              int
	TrimmedColumns       []string
	FilledCells          int
	ConvertedColumns     []string
	NullRowsDropped      int
	DuplicateRowsDropped int
}

// Clean returns a cleaned copy of ds.
//
// Steps run in fixed order, each skipped when its option is off:
//  1. trim strings in string-like columns
//  2. fill missing values from FillMap
//  3. convert columns whose every value parses as a number
//  4. drop rows containing any missing value
//  5. drop duplicate rows, keeping the first occurrence
//
// A zero-row input is returned as a copy without error. An input that
// becomes empty fails with ErrCleaningResultEmpty.
func Clean(ds *dataset.Dataset, opts Options) (*dataset.Dataset, error) {
	out, _, err := CleanWithStats(ds, opts)
	return out, err
}

// CleanWithStats is Clean that also reports per-step counts.
func CleanWithStats(ds *dataset.Dataset, opts Options) (*dataset.Dataset, Stats, error) {
	if ds == nil {
		return nil, Stats{}, fmt.Errorf("%w: nil dataset", ErrInvalidInput)
	}
	if err := ds.Validate(); err != nil {
		return nil, Stats{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	st := Stats{RowsIn: ds.NumRows()}
	if ds.IsEmpty() {
		return ds.Clone(), st, nil
	}

	out := ds.Clone()

	if opts.TrimStrings {
		st.TrimmedColumns = trimStrings(out, opts.NormalizeUnicode)
	}
	if len(opts.FillMap) > 0 {
		st.FilledCells = fillMissing(out, opts.FillMap)
	}
	if opts.ConvertNumeric {
		st.ConvertedColumns = convertNumeric(out)
	}
	if opts.DropNulls {
		before := out.NumRows()
		out = out.Filter(func(i int) bool { return !out.RowHasNull(i) })
		st.NullRowsDropped = before - out.NumRows()
	}
	if opts.DropDuplicates {
		before := out.NumRows()
		out = dropDuplicates(out)
		st.DuplicateRowsDropped = before - out.NumRows()
	}

	st.RowsOut = out.NumRows()
	if out.IsEmpty() {
		return nil, st, ErrCleaningResultEmpty
	}
	return out, st, nil
}

// trimStrings strips edge whitespace in every string-like column and returns
// the names of the columns it visited.
func trimStrings(d *dataset.Dataset, normalize bool) []string {
	var visited []string
	for c := range d.Columns {
		col := &d.Columns[c]
		if !col.IsStringLike() {
			continue
		}
		visited = append(visited, col.Name)

		for i, v := range col.Values {
			s, ok := v.Str()
			if !ok {
				continue
			}
			t := strings.TrimSpace(s)
			if normalize {
				t = norm.NFC.String(t)
			}
			if t != s {
				col.Values[i] = records.StringValue(t)
			}
		}
	}
	return visited
}

func fillMissing(d *dataset.Dataset, fill map[string]records.Value) int {
	n := 0
	for c := range d.Columns {
		col := &d.Columns[c]
		fv, ok := fill[col.Name]
		if !ok || fv.IsNull() {
			continue
		}
		for i, v := range col.Values {
			if v.IsNull() {
				col.Values[i] = fv
				n++
			}
		}
	}
	return n
}

func convertNumeric(d *dataset.Dataset) []string {
	var converted []string
	for c := range d.Columns {
		col, ok := coerceColumn(d.Columns[c])
		if !ok {
			continue
		}
		if hasStringCell(d.Columns[c]) {
			converted = append(converted, col.Name)
		}
		d.Columns[c] = col
	}
	return converted
}

func dropDuplicates(d *dataset.Dataset) *dataset.Dataset {
	seen := make(map[string]struct{}, d.NumRows())
	return d.Filter(func(i int) bool {
		k := d.RowKey(i)
		if _, dup := seen[k]; dup {
			return false
		}
		seen[k] = struct{}{}
		return true
	})
}
