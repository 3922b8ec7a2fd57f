package parser

import (
	"reflect"
	"testing"
)

func TestColumnName(t *testing.T) {
	t.Parallel()

	hm := map[string]string{"Full Name": "name"}
	tests := []struct {
		raw       string
		i         int
		normalize bool
		want      string
	}{
		{raw: "\uFEFFID", i: 0, normalize: true, want: "id"},
		{raw: " Full Name ", i: 1, normalize: true, want: "name"},
		{raw: "Hire Date", i: 2, normalize: true, want: "hire_date"},
		{raw: "Hire Date", i: 2, normalize: false, want: "Hire Date"},
		{raw: "   ", i: 3, normalize: true, want: "column_4"},
	}
	for _, tt := range tests {
		if got := ColumnName(tt.raw, tt.i, hm, tt.normalize); got != tt.want {
			t.Fatalf("ColumnName(%q)=%q want=%q", tt.raw, got, tt.want)
		}
	}
}

func TestUniqueNames(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   []string
		want []string
	}{
		{in: []string{"id", "name"}, want: []string{"id", "name"}},
		{in: []string{"name", "name", "name"}, want: []string{"name", "name_2", "name_3"}},
		{in: []string{"a", "a", "a_2"}, want: []string{"a", "a_3", "a_2"}},
		{in: nil, want: []string{}},
	}
	for _, tt := range tests {
		if got := UniqueNames(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Fatalf("UniqueNames(%q)=%q want=%q", tt.in, got, tt.want)
		}
	}
}
