// Package dataset provides a small columnar in-memory table: an ordered set of
// named, equal-length columns of records.Value cells.
//
// It is the tabular container consumed by the cleaning package. Operations
// that change shape (Filter) return a new Dataset; cells are immutable values
// so Clone is a full deep copy.
package dataset

import (
	"errors"
	"fmt"
	"sort"

	"datavitals/pkg/records"
)

var (
	ErrRaggedColumns   = errors.New("dataset: columns have different lengths")
	ErrDuplicateColumn = errors.New("dataset: duplicate column name")
	ErrEmptyColumnName = errors.New("dataset: empty column name")
)

// Column is one named sequence of cells.
type Column struct {
	Name   string
	Values []records.Value
}

// IsStringLike reports whether every cell is a String or Null. An all-Null
// column counts as string-like.
func (c Column) IsStringLike() bool {
	for _, v := range c.Values {
		if k := v.Kind(); k != records.String && k != records.Null {
			return false
		}
	}
	return true
}

// HasNull reports whether any cell is Null.
func (c Column) HasNull() bool {
	for _, v := range c.Values {
		if v.IsNull() {
			return true
		}
	}
	return false
}

func (c Column) clone() Column {
	return Column{Name: c.Name, Values: append([]records.Value(nil), c.Values...)}
}

// Dataset is an ordered collection of named columns of equal length.
//
// Columns is exported so callers can build a Dataset literally; use Validate
// (or New) to check the structural invariants before use.
type Dataset struct {
	Columns []Column
}

// New builds a Dataset and validates it.
func New(cols ...Column) (*Dataset, error) {
	d := &Dataset{Columns: cols}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// MustNew is New for fixtures; it panics on invalid input.
func MustNew(cols ...Column) *Dataset {
	d, err := New(cols...)
	if err != nil {
		panic(err)
	}
	return d
}

// Col builds a Column from plain Go values (see records.Of). It panics on
// unsupported types and is meant for literals and tests.
func Col(name string, vals ...any) Column {
	out := Column{Name: name, Values: make([]records.Value, len(vals))}
	for i, v := range vals {
		out.Values[i] = records.MustOf(v)
	}
	return out
}

// Validate checks that column names are non-empty and unique and that all
// columns have the same length.
func (d *Dataset) Validate() error {
	seen := make(map[string]struct{}, len(d.Columns))
	for i, c := range d.Columns {
		if c.Name == "" {
			return fmt.Errorf("%w (column %d)", ErrEmptyColumnName, i)
		}
		if _, dup := seen[c.Name]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateColumn, c.Name)
		}
		seen[c.Name] = struct{}{}

		if len(c.Values) != len(d.Columns[0].Values) {
			return fmt.Errorf("%w: %q has %d rows, %q has %d",
				ErrRaggedColumns, c.Name, len(c.Values), d.Columns[0].Name, len(d.Columns[0].Values))
		}
	}
	return nil
}

// NumRows returns the row count. A Dataset without columns has zero rows.
func (d *Dataset) NumRows() int {
	if len(d.Columns) == 0 {
		return 0
	}
	return len(d.Columns[0].Values)
}

func (d *Dataset) NumCols() int { return len(d.Columns) }

// IsEmpty reports whether the Dataset has zero rows.
func (d *Dataset) IsEmpty() bool { return d.NumRows() == 0 }

// ColumnNames returns the column names in order.
func (d *Dataset) ColumnNames() []string {
	out := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		out[i] = c.Name
	}
	return out
}

// ColumnIndex returns the position of the named column, or -1.
func (d *Dataset) ColumnIndex(name string) int {
	for i, c := range d.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Column returns the named column.
func (d *Dataset) Column(name string) (Column, bool) {
	if i := d.ColumnIndex(name); i >= 0 {
		return d.Columns[i], true
	}
	return Column{}, false
}

// Cell returns the value at (row, column index).
func (d *Dataset) Cell(row, col int) records.Value {
	return d.Columns[col].Values[row]
}

// Row returns a copy of row i across all columns.
func (d *Dataset) Row(i int) []records.Value {
	out := make([]records.Value, len(d.Columns))
	for c := range d.Columns {
		out[c] = d.Columns[c].Values[i]
	}
	return out
}

// RowHasNull reports whether any cell of row i is Null.
func (d *Dataset) RowHasNull(i int) bool {
	for c := range d.Columns {
		if d.Columns[c].Values[i].IsNull() {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (d *Dataset) Clone() *Dataset {
	out := &Dataset{Columns: make([]Column, len(d.Columns))}
	for i, c := range d.Columns {
		out.Columns[i] = c.clone()
	}
	return out
}

// Filter returns a new Dataset holding the rows for which keep returns true,
// in their original relative order. Rows are renumbered from zero.
func (d *Dataset) Filter(keep func(row int) bool) *Dataset {
	n := d.NumRows()
	idx := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if keep(i) {
			idx = append(idx, i)
		}
	}

	out := &Dataset{Columns: make([]Column, len(d.Columns))}
	for c, col := range d.Columns {
		vals := make([]records.Value, len(idx))
		for j, i := range idx {
			vals[j] = col.Values[i]
		}
		out.Columns[c] = Column{Name: col.Name, Values: vals}
	}
	return out
}

// FromRecords lays records out as columns. If columns is empty, the sorted
// union of all record keys is used. Fields a record lacks become Null.
func FromRecords(recs []records.Record, columns ...string) (*Dataset, error) {
	if len(columns) == 0 {
		seen := map[string]struct{}{}
		for _, r := range recs {
			for k := range r {
				if _, ok := seen[k]; !ok {
					seen[k] = struct{}{}
					columns = append(columns, k)
				}
			}
		}
		sort.Strings(columns)
	}

	cols := make([]Column, len(columns))
	for c, name := range columns {
		vals := make([]records.Value, len(recs))
		for i, r := range recs {
			vals[i] = r[name]
		}
		cols[c] = Column{Name: name, Values: vals}
	}
	return New(cols...)
}

// ToRecords converts each row into a Record keyed by column name.
func (d *Dataset) ToRecords() []records.Record {
	n := d.NumRows()
	out := make([]records.Record, n)
	for i := 0; i < n; i++ {
		r := make(records.Record, len(d.Columns))
		for _, c := range d.Columns {
			r[c.Name] = c.Values[i]
		}
		out[i] = r
	}
	return out
}
