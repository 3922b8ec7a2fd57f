// Package html extracts an HTML <table> into a dataset.Dataset using goquery.
//
// Parser options:
//   - table_selector (string, default "table")
//   - table_index (int, default 0): which match of table_selector to read
//   - has_header (bool, default true): the <thead> row, else the first row
//   - header_map, normalize_headers: as for CSV
//
// Cell text is whitespace-collapsed. Empty cells are Null; colspan repeats a
// cell across the spanned columns.
package html

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"datavitals/internal/config"
	"datavitals/internal/parser"
	"datavitals/pkg/dataset"
	"datavitals/pkg/records"
)

var ErrNoTable = errors.New("html: no matching table")

func Load(ctx context.Context, r io.Reader, opt config.Options) (*dataset.Dataset, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("html: parse: %w", err)
	}

	sel := opt.String("table_selector", "table")
	idx := opt.Int("table_index", 0)
	tables := doc.Find(sel)
	if idx < 0 || idx >= tables.Length() {
		return nil, fmt.Errorf("%w: %q index %d (found %d)", ErrNoTable, sel, idx, tables.Length())
	}
	table := tables.Eq(idx)

	// Rows of nested tables belong to those tables, not this one.
	rows := table.Find("tr").FilterFunction(func(_ int, tr *goquery.Selection) bool {
		return tr.ParentsFiltered("table").First().IsSelection(table)
	})

	var header []string
	var body [][]string
	hasHeader := opt.Bool("has_header", true)
	theadRow := table.ChildrenFiltered("thead").Find("tr").First()

	var walkErr error
	rows.EachWithBreak(func(i int, tr *goquery.Selection) bool {
		if err := ctx.Err(); err != nil {
			walkErr = err
			return false
		}
		cells := rowCells(tr)
		switch {
		case hasHeader && header == nil && (theadRow.Length() == 0 || tr.IsSelection(theadRow)):
			header = cells
		case tr.ParentFiltered("thead").Length() > 0:
			// extra header rows
		default:
			body = append(body, cells)
		}
		return true
	})
	if walkErr != nil {
		return nil, walkErr
	}

	hm := opt.StringMap("header_map")
	normalize := opt.Bool("normalize_headers", true)

	width := len(header)
	for _, r := range body {
		if len(r) > width {
			width = len(r)
		}
	}

	names := make([]string, width)
	for c := range names {
		names[c] = parser.GeneratedName(c)
		if c < len(header) {
			names[c] = parser.ColumnName(header[c], c, hm, normalize)
		}
	}
	names = parser.UniqueNames(names)

	cols := make([]dataset.Column, width)
	for c := range cols {
		vals := make([]records.Value, len(body))
		for r, row := range body {
			if c < len(row) && row[c] != "" {
				vals[r] = records.StringValue(row[c])
			}
		}
		cols[c] = dataset.Column{Name: names[c], Values: vals}
	}

	ds, err := dataset.New(cols...)
	if err != nil {
		return nil, fmt.Errorf("html: %w", err)
	}
	return ds, nil
}

func rowCells(tr *goquery.Selection) []string {
	var out []string
	tr.ChildrenFiltered("td,th").Each(func(_ int, cell *goquery.Selection) {
		text := strings.Join(strings.Fields(cell.Text()), " ")
		span := 1
		if v, ok := cell.Attr("colspan"); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 1 {
				span = n
			}
		}
		for i := 0; i < span; i++ {
			out = append(out, text)
		}
	})
	return out
}
