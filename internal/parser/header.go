// Package parser holds helpers shared by the csv, json and html loaders.
package parser

import (
	"strconv"
	"strings"
)

// ColumnName turns the i-th (0-based) raw header cell into a column name.
// header_map entries win; otherwise the header is optionally lower-cased with
// spaces replaced by '_'. Blank headers become column_<i+1>. Loaders pass the
// full header through UniqueNames afterwards.
func ColumnName(raw string, i int, headerMap map[string]string, normalize bool) string {
	h := strings.TrimSpace(strings.TrimPrefix(raw, "\uFEFF"))
	switch mapped, ok := headerMap[h]; {
	case ok:
		h = mapped
	case normalize:
		h = strings.ReplaceAll(strings.ToLower(h), " ", "_")
	}
	if h == "" {
		return GeneratedName(i)
	}
	return h
}

// UniqueNames returns names with repeats renamed to <name>_2, <name>_3 and so
// on. The first occurrence keeps its name and a suffix never reuses a name
// present elsewhere in the input.
func UniqueNames(names []string) []string {
	taken := make(map[string]struct{}, len(names))
	for _, n := range names {
		taken[n] = struct{}{}
	}

	out := make([]string, len(names))
	first := make(map[string]bool, len(names))
	for i, n := range names {
		if !first[n] {
			first[n] = true
			out[i] = n
			continue
		}
		for k := 2; ; k++ {
			cand := n + "_" + strconv.Itoa(k)
			if _, ok := taken[cand]; !ok {
				taken[cand] = struct{}{}
				out[i] = cand
				break
			}
		}
	}
	return out
}

// GeneratedName names an unlabelled column.
func GeneratedName(i int) string {
	return "column_" + strconv.Itoa(i+1)
}
