// Package csv loads delimited text into a dataset.Dataset.
//
// Every non-empty field becomes a String value; type coercion is left to the
// cleaner. Empty fields, and fields missing from short rows, become Null.
//
// Parser options (config.Options):
//   - has_header (bool, default true)
//   - columns ([]string): names for headerless input, default column_1..N
//   - comma (rune, default ','; "\t" accepted)
//   - comment (rune, default none)
//   - trim_space (bool, default false): the cleaner trims, so raw text is kept
//   - lazy_quotes (bool, default false)
//   - fields_per_record (int, default 0 = ragged rows allowed)
//   - header_map (map original -> column name)
//   - normalize_headers (bool, default true): lower-case, spaces to '_'
//   - encoding (string): any WHATWG label such as windows-1250 or latin1
package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"

	"datavitals/internal/config"
	"datavitals/internal/parser"
	"datavitals/pkg/dataset"
	"datavitals/pkg/records"
)

// ErrNoHeader is returned when has_header is set and the input is empty.
var ErrNoHeader = errors.New("csv: missing header row")

// Load reads r into a Dataset.
//
// Malformed rows are reported to onErr with their 1-based line number and
// skipped. With a nil onErr the first malformed row aborts the load.
func Load(
	ctx context.Context,
	r io.Reader,
	opt config.Options,
	onErr func(line int, err error),
) (*dataset.Dataset, error) {
	src, err := decodeReader(r, opt.String("encoding", ""))
	if err != nil {
		return nil, err
	}

	hasHeader := opt.Bool("has_header", true)
	trim := opt.Bool("trim_space", false)
	normalize := opt.Bool("normalize_headers", true)
	hm := opt.StringMap("header_map")

	cr := csv.NewReader(src)
	cr.Comma = opt.Rune("comma", ',')
	if c := opt.Rune("comment", 0); c != 0 {
		cr.Comment = c
	}
	cr.LazyQuotes = opt.Bool("lazy_quotes", false)
	cr.FieldsPerRecord = -1
	if n := opt.Int("fields_per_record", 0); n > 0 {
		cr.FieldsPerRecord = n
	}

	var names []string
	if hasHeader {
		hdr, err := cr.Read()
		if err == io.EOF {
			return nil, ErrNoHeader
		}
		if err != nil {
			return nil, fmt.Errorf("csv: read header: %w", err)
		}
		names = headerNames(hdr, hm, normalize)
	} else {
		names = opt.StringSlice("columns")
	}

	var rows [][]string
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			line := 0
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				line = pe.Line
			}
			if onErr == nil {
				return nil, fmt.Errorf("csv: line %d: %w", line, err)
			}
			onErr(line, err)
			continue
		}
		rows = append(rows, rec)

		if !hasHeader && len(rec) > len(names) {
			names = extendNames(names, len(rec))
		}
	}

	return build(names, rows, trim)
}

func decodeReader(r io.Reader, name string) (io.Reader, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "utf-8") || strings.EqualFold(name, "utf8") {
		return r, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("csv: unknown encoding %q: %w", name, err)
	}
	return transform.NewReader(r, enc.NewDecoder()), nil
}

func headerNames(hdr []string, hm map[string]string, normalize bool) []string {
	names := make([]string, len(hdr))
	for i, h := range hdr {
		names[i] = parser.ColumnName(h, i, hm, normalize)
	}
	return parser.UniqueNames(names)
}

func extendNames(names []string, n int) []string {
	for i := len(names); i < n; i++ {
		names = append(names, parser.GeneratedName(i))
	}
	return names
}

// build pivots rows into columns. Fields beyond the header are dropped.
func build(names []string, rows [][]string, trim bool) (*dataset.Dataset, error) {
	cols := make([]dataset.Column, len(names))
	for c, name := range names {
		vals := make([]records.Value, len(rows))
		for r, rec := range rows {
			if c >= len(rec) {
				continue
			}
			v := rec[c]
			if trim {
				v = strings.TrimSpace(v)
			}
			if v != "" {
				vals[r] = records.StringValue(v)
			}
		}
		cols[c] = dataset.Column{Name: name, Values: vals}
	}

	ds, err := dataset.New(cols...)
	if err != nil {
		return nil, fmt.Errorf("csv: %w", err)
	}
	return ds, nil
}
