// Package profile summarizes the health of a raw dataset before cleaning:
// per-column inferred type, missing values and bounded distinct counts, plus
// the number of rows the cleaner would drop as null or duplicate.
//
// Profiling is best-effort and never fails on cell contents.
package profile

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"datavitals/pkg/dataset"
	"datavitals/pkg/records"
)

// DistinctCap bounds distinct tracking per column. Once reached, the column
// is reported as capped and its set is released.
const DistinctCap = 10000

// Inferred column types.
const (
	TypeInteger   = "integer"
	TypeFloat     = "float"
	TypeBoolean   = "boolean"
	TypeDate      = "date"
	TypeTimestamp = "timestamp"
	TypeText      = "text"
	TypeEmpty     = "empty"
)

// Column is the profile of one column.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`

	// Layout is the time layout matched by every value of a date or
	// timestamp column.
	Layout string `json:"layout,omitempty"`

	// Present counts cells holding a non-blank value. Blank counts strings
	// that are empty after trimming; the cleaner's trim step leaves them in
	// place, so they are not missing.
	Present int `json:"present"`
	Nulls   int `json:"nulls"`
	Blank   int `json:"blank"`

	Distinct int  `json:"distinct"`
	Capped   bool `json:"capped"`
}

// Uniqueness is Distinct / Present, or 0 for a column without values.
func (c Column) Uniqueness() float64 {
	if c.Present == 0 {
		return 0
	}
	return float64(c.Distinct) / float64(c.Present)
}

// Report is the profile of a dataset.
type Report struct {
	Rows          int      `json:"rows"`
	RowsWithNulls int      `json:"rows_with_nulls"`
	DuplicateRows int      `json:"duplicate_rows"`
	Columns       []Column `json:"columns"`
}

// Build profiles ds.
func Build(ds *dataset.Dataset) Report {
	rep := Report{Rows: ds.NumRows(), Columns: make([]Column, 0, ds.NumCols())}

	seen := make(map[string]struct{}, rep.Rows)
	for i := 0; i < rep.Rows; i++ {
		if ds.RowHasNull(i) {
			rep.RowsWithNulls++
		}
		k := ds.RowKey(i)
		if _, dup := seen[k]; dup {
			rep.DuplicateRows++
			continue
		}
		seen[k] = struct{}{}
	}

	for _, col := range ds.Columns {
		rep.Columns = append(rep.Columns, profileColumn(col))
	}
	return rep
}

func profileColumn(col dataset.Column) Column {
	out := Column{Name: col.Name}
	inf := newInference()
	distinct := make(map[string]struct{})

	for _, v := range col.Values {
		if v.IsNull() {
			out.Nulls++
			continue
		}
		text := strings.TrimSpace(v.String())
		if text == "" {
			out.Blank++
			continue
		}
		out.Present++
		inf.observe(v, text)

		if out.Capped {
			continue
		}
		distinct[text] = struct{}{}
		if len(distinct) >= DistinctCap {
			out.Capped = true
			distinct = nil
		}
	}

	if out.Capped {
		out.Distinct = DistinctCap
	} else {
		out.Distinct = len(distinct)
	}
	out.Type, out.Layout = inf.result()
	return out
}

var dateLayouts = []string{
	"2006-01-02",
	"02.01.2006",
	"02/01/2006",
	"01/02/2006",
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05.000Z07:00",
	"02.01.2006 15:04:05",
}

// inference narrows the candidate types of a column as values arrive. Time
// candidates keep the layouts every value so far has matched.
type inference struct {
	seen       bool
	allInt     bool
	allFloat   bool
	allBool    bool
	dates      []string
	timestamps []string
}

func newInference() *inference {
	return &inference{
		allInt:     true,
		allFloat:   true,
		allBool:    true,
		dates:      dateLayouts,
		timestamps: timestampLayouts,
	}
}

func (in *inference) observe(v records.Value, text string) {
	in.seen = true

	switch v.Kind() {
	case records.Int:
		in.allBool = false
		in.dates, in.timestamps = nil, nil
		return
	case records.Float:
		in.allInt, in.allBool = false, false
		in.dates, in.timestamps = nil, nil
		return
	case records.Bool:
		in.allInt, in.allFloat = false, false
		in.dates, in.timestamps = nil, nil
		return
	}

	if in.allInt {
		if _, err := strconv.ParseInt(text, 10, 64); err != nil {
			in.allInt = false
		}
	}
	if in.allFloat {
		if _, err := strconv.ParseFloat(text, 64); err != nil {
			in.allFloat = false
		}
	}
	if in.allBool {
		if _, ok := parseBoolLoose(text); !ok {
			in.allBool = false
		}
	}
	in.dates = matchingLayouts(in.dates, text)
	in.timestamps = matchingLayouts(in.timestamps, text)
}

// result prefers the most specific type.
func (in *inference) result() (string, string) {
	switch {
	case !in.seen:
		return TypeEmpty, ""
	case in.allInt:
		return TypeInteger, ""
	case in.allBool:
		return TypeBoolean, ""
	case len(in.dates) > 0:
		return TypeDate, in.dates[0]
	case len(in.timestamps) > 0:
		return TypeTimestamp, in.timestamps[0]
	case in.allFloat:
		return TypeFloat, ""
	default:
		return TypeText, ""
	}
}

func matchingLayouts(layouts []string, s string) []string {
	if len(layouts) == 0 {
		return nil
	}
	var out []string
	for _, lay := range layouts {
		if _, err := time.Parse(lay, s); err == nil {
			out = append(out, lay)
		}
	}
	return out
}

func parseBoolLoose(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "t", "true", "yes", "y":
		return true, true
	case "f", "false", "no", "n":
		return false, true
	default:
		return false, false
	}
}

// WriteText writes a human-readable report with columns in dataset order.
func (r Report) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "rows\t%d\n", r.Rows)
	fmt.Fprintf(tw, "rows_with_nulls\t%d\n", r.RowsWithNulls)
	fmt.Fprintf(tw, "duplicate_rows\t%d\n", r.DuplicateRows)
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "column\ttype\tpresent\tnulls\tblank\tunique\tratio")
	for _, c := range r.Columns {
		unique := strconv.Itoa(c.Distinct)
		if c.Capped {
			unique = ">=" + unique
		}
		typ := c.Type
		if c.Layout != "" {
			typ += " (" + c.Layout + ")"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\t%.1f%%\n",
			c.Name, typ, c.Present, c.Nulls, c.Blank, unique, c.Uniqueness()*100)
	}
	return tw.Flush()
}

// KeyCandidates returns columns whose present values are all distinct and
// that have no missing cells, most specific type first then by name.
func (r Report) KeyCandidates() []string {
	var out []Column
	for _, c := range r.Columns {
		if c.Present == r.Rows && r.Rows > 0 && c.Distinct == c.Present && !c.Capped {
			out = append(out, c)
		}
	}
	rank := func(t string) int {
		switch t {
		case TypeInteger:
			return 0
		case TypeText:
			return 2
		default:
			return 1
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := rank(out[i].Type), rank(out[j].Type)
		if ri != rj {
			return ri < rj
		}
		return out[i].Name < out[j].Name
	})

	names := make([]string, len(out))
	for i, c := range out {
		names[i] = c.Name
	}
	return names
}
