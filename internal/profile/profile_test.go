package profile

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datavitals/pkg/dataset"
)

func TestBuild_Employees(t *testing.T) {
	t.Parallel()

	ds := dataset.MustNew(
		dataset.Col("id", 1, 2, 2, 3, nil),
		dataset.Col("name", " Alice ", "Bob", "Bob", nil, "Eve"),
		dataset.Col("salary", "1000", "2000", "2000", "3000", "4000"),
	)

	rep := Build(ds)
	assert.Equal(t, 5, rep.Rows)
	assert.Equal(t, 2, rep.RowsWithNulls)
	assert.Equal(t, 1, rep.DuplicateRows)

	require.Len(t, rep.Columns, 3)
	id, name, salary := rep.Columns[0], rep.Columns[1], rep.Columns[2]

	assert.Equal(t, Column{Name: "id", Type: TypeInteger, Present: 4, Nulls: 1, Distinct: 3}, id)
	assert.Equal(t, TypeText, name.Type)
	assert.Equal(t, 3, name.Distinct, "trimmed text is compared")
	assert.Equal(t, TypeInteger, salary.Type)
	assert.Equal(t, 4, salary.Distinct)
	assert.InDelta(t, 0.8, salary.Uniqueness(), 1e-9)
}

func TestBuild_TypeInference(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		vals       []any
		wantType   string
		wantLayout string
	}{
		{name: "float_strings", vals: []any{"1.5", "2", "-3e2"}, wantType: TypeFloat},
		{name: "native_float", vals: []any{1.5, 2}, wantType: TypeFloat},
		{name: "bool_words", vals: []any{"yes", "No", "TRUE"}, wantType: TypeBoolean},
		{name: "native_bool", vals: []any{true, false}, wantType: TypeBoolean},
		{name: "iso_date", vals: []any{"2024-01-31", "2023-12-01"}, wantType: TypeDate, wantLayout: "2006-01-02"},
		{name: "eu_date", vals: []any{"31.01.2024"}, wantType: TypeDate, wantLayout: "02.01.2006"},
		{name: "timestamp", vals: []any{"2024-01-31 10:00:00", "2024-02-01 23:59:59"}, wantType: TypeTimestamp, wantLayout: "2006-01-02 15:04:05"},
		{name: "mixed", vals: []any{"2024-01-31", "abc"}, wantType: TypeText},
		{name: "only_missing", vals: []any{nil, "  "}, wantType: TypeEmpty},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rep := Build(dataset.MustNew(dataset.Col("c", tt.vals...)))
			require.Len(t, rep.Columns, 1)
			assert.Equal(t, tt.wantType, rep.Columns[0].Type)
			assert.Equal(t, tt.wantLayout, rep.Columns[0].Layout)
		})
	}
}

func TestBuild_BlankIsNotNull(t *testing.T) {
	t.Parallel()

	rep := Build(dataset.MustNew(dataset.Col("c", "", " ", nil, "x")))
	c := rep.Columns[0]
	assert.Equal(t, 2, c.Blank)
	assert.Equal(t, 1, c.Nulls)
	assert.Equal(t, 1, c.Present)
	assert.Equal(t, 1, rep.RowsWithNulls)
}

func TestBuild_DistinctCap(t *testing.T) {
	t.Parallel()

	vals := make([]any, DistinctCap+5)
	for i := range vals {
		vals[i] = i
	}
	c := Build(dataset.MustNew(dataset.Col("n", vals...))).Columns[0]
	assert.True(t, c.Capped)
	assert.Equal(t, DistinctCap, c.Distinct)
	assert.Equal(t, DistinctCap+5, c.Present)
}

func TestReport_KeyCandidatesAndText(t *testing.T) {
	t.Parallel()

	ds := dataset.MustNew(
		dataset.Col("code", "a", "b", "c"),
		dataset.Col("id", 3, 1, 2),
		dataset.Col("day", "2024-01-01", "2024-01-02", "2024-01-03"),
		dataset.Col("grp", "x", "x", "y"),
		dataset.Col("opt", 1, nil, 2),
	)
	rep := Build(ds)
	assert.Equal(t, []string{"id", "day", "code"}, rep.KeyCandidates())

	var buf bytes.Buffer
	require.NoError(t, rep.WriteText(&buf))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "rows             3\n"), out)
	assert.Contains(t, out, "date (2006-01-02)")
	assert.Contains(t, out, "66.7%")
}
