// Package render writes datasets and records for the command line.
//
// Formats:
//   - json: one array of objects, keys in column order
//   - jsonl: one object per line
//   - csv: header row then one row per record; Null renders as an empty field
package render

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"datavitals/pkg/dataset"
	"datavitals/pkg/records"
)

const (
	FormatJSON  = "json"
	FormatJSONL = "jsonl"
	FormatCSV   = "csv"
)

// Dataset writes ds to w in format ("" means json).
func Dataset(w io.Writer, ds *dataset.Dataset, format string) error {
	switch format {
	case "", FormatJSON:
		return writeJSON(w, ds, false)
	case FormatJSONL:
		return writeJSON(w, ds, true)
	case FormatCSV:
		return writeCSV(w, ds)
	default:
		return fmt.Errorf("render: unsupported format %q", format)
	}
}

// Records lays recs out with dataset.FromRecords (sorted union of keys) and
// writes them like Dataset.
func Records(w io.Writer, recs []records.Record, format string) error {
	ds, err := dataset.FromRecords(recs)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return Dataset(w, ds, format)
}

func writeJSON(w io.Writer, ds *dataset.Dataset, lines bool) error {
	bw := bufio.NewWriter(w)

	keys := make([][]byte, ds.NumCols())
	for c, name := range ds.ColumnNames() {
		k, err := json.Marshal(name)
		if err != nil {
			return err
		}
		keys[c] = k
	}

	if !lines {
		bw.WriteByte('[')
	}
	for r := 0; r < ds.NumRows(); r++ {
		if !lines && r > 0 {
			bw.WriteByte(',')
		}
		if !lines {
			bw.WriteString("\n  ")
		}
		bw.WriteByte('{')
		for c, v := range ds.Row(r) {
			if c > 0 {
				bw.WriteByte(',')
			}
			b, err := v.MarshalJSON()
			if err != nil {
				return fmt.Errorf("render: row %d column %s: %w", r, keys[c], err)
			}
			bw.Write(keys[c])
			bw.WriteByte(':')
			bw.Write(b)
		}
		bw.WriteByte('}')
		if lines {
			bw.WriteByte('\n')
		}
	}
	if !lines {
		if ds.NumRows() > 0 {
			bw.WriteByte('\n')
		}
		bw.WriteString("]\n")
	}
	return bw.Flush()
}

func writeCSV(w io.Writer, ds *dataset.Dataset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ds.ColumnNames()); err != nil {
		return err
	}
	row := make([]string, ds.NumCols())
	for r := 0; r < ds.NumRows(); r++ {
		for c, v := range ds.Row(r) {
			row[c] = v.String()
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
