package cleaning

import (
	"errors"
	"testing"

	"datavitals/pkg/dataset"
	"datavitals/pkg/records"
)

func rawEmployees() *dataset.Dataset {
	return dataset.MustNew(
		dataset.Col("id", 1, 2, 2, 3, nil),
		dataset.Col("name", " Alice ", "Bob", "Bob", nil, "Eve"),
		dataset.Col("salary", "1000", "2000", "2000", "3000", "4000"),
	)
}

func TestClean_Defaults_ExampleWorkflow(t *testing.T) {
	t.Parallel()

	in := rawEmployees()
	out, err := Clean(in, DefaultOptions())
	if err != nil {
		t.Fatalf("Clean err=%v", err)
	}

	if out.NumRows() != 2 {
		t.Fatalf("expected 2 rows, got %d", out.NumRows())
	}

	wantNames := []string{"Alice", "Bob"}
	wantSalary := []int64{1000, 2000}
	for i := 0; i < 2; i++ {
		name, _ := out.Cell(i, 1).Str()
		if name != wantNames[i] {
			t.Fatalf("row %d name got=%q want=%q", i, name, wantNames[i])
		}
		sal, ok := out.Cell(i, 2).Int()
		if !ok || sal != wantSalary[i] {
			t.Fatalf("row %d salary got=%#v want=%d", i, out.Cell(i, 2), wantSalary[i])
		}
	}

	// Input untouched.
	if s, _ := in.Cell(0, 1).Str(); s != " Alice " {
		t.Fatalf("input mutated: %q", s)
	}
	if in.NumRows() != 5 {
		t.Fatalf("input rows changed: %d", in.NumRows())
	}
}

func TestClean_IdentityOnCleanData(t *testing.T) {
	t.Parallel()

	in := dataset.MustNew(
		dataset.Col("id", 1, 2, 3),
		dataset.Col("city", "Prague", "Brno", "Ostrava"),
		dataset.Col("score", 1.5, 2.25, 3.0),
	)

	out, err := Clean(in, DefaultOptions())
	if err != nil {
		t.Fatalf("Clean err=%v", err)
	}
	if out.NumRows() != in.NumRows() {
		t.Fatalf("rows got=%d want=%d", out.NumRows(), in.NumRows())
	}
	for i := 0; i < in.NumRows(); i++ {
		if in.RowKey(i) != out.RowKey(i) {
			t.Fatalf("row %d differs: in=%v out=%v", i, in.Row(i), out.Row(i))
		}
	}
}

func TestClean_EmptyInputReturnsCopy(t *testing.T) {
	t.Parallel()

	in := dataset.MustNew(dataset.Col("a"), dataset.Col("b"))
	out, err := Clean(in, DefaultOptions())
	if err != nil {
		t.Fatalf("Clean err=%v", err)
	}
	if out == in {
		t.Fatalf("expected a copy, got the same pointer")
	}
	if out.NumRows() != 0 || out.NumCols() != 2 {
		t.Fatalf("unexpected shape rows=%d cols=%d", out.NumRows(), out.NumCols())
	}
}

func TestClean_BecomesEmpty(t *testing.T) {
	t.Parallel()

	in := dataset.MustNew(dataset.Col("a", nil, nil), dataset.Col("b", 1, 2))
	_, err := Clean(in, DefaultOptions())
	if !errors.Is(err, ErrCleaningResultEmpty) {
		t.Fatalf("expected ErrCleaningResultEmpty, got %v", err)
	}
}

func TestClean_InvalidInput(t *testing.T) {
	t.Parallel()

	if _, err := Clean(nil, DefaultOptions()); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("nil: expected ErrInvalidInput, got %v", err)
	}

	ragged := &dataset.Dataset{Columns: []dataset.Column{
		dataset.Col("a", 1, 2),
		dataset.Col("b", 1),
	}}
	_, err := Clean(ragged, DefaultOptions())
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("ragged: expected ErrInvalidInput, got %v", err)
	}
	if !errors.Is(err, dataset.ErrRaggedColumns) {
		t.Fatalf("ragged: expected structural cause to be wrapped, got %v", err)
	}
}

func TestClean_NoNullsAndNoDuplicatesInOutput(t *testing.T) {
	t.Parallel()

	in := dataset.MustNew(
		dataset.Col("a", "x", "x", nil, "y", "x", "y"),
		dataset.Col("b", 1, 1, 2, 3, 1, 3),
	)
	out, err := Clean(in, DefaultOptions())
	if err != nil {
		t.Fatalf("Clean err=%v", err)
	}

	seen := map[string]bool{}
	for i := 0; i < out.NumRows(); i++ {
		if out.RowHasNull(i) {
			t.Fatalf("row %d has a missing value: %v", i, out.Row(i))
		}
		k := out.RowKey(i)
		if seen[k] {
			t.Fatalf("row %d duplicated: %v", i, out.Row(i))
		}
		seen[k] = true
	}
	if out.NumRows() != 2 {
		t.Fatalf("expected 2 rows, got %d", out.NumRows())
	}
	// First occurrences in original order.
	if s, _ := out.Cell(0, 0).Str(); s != "x" {
		t.Fatalf("row 0 got=%q want=x", s)
	}
	if s, _ := out.Cell(1, 0).Str(); s != "y" {
		t.Fatalf("row 1 got=%q want=y", s)
	}
}

func TestClean_FillMap(t *testing.T) {
	t.Parallel()

	in := dataset.MustNew(
		dataset.Col("name", "Ann", nil),
		dataset.Col("dept", nil, "ops"),
	)
	opts := DefaultOptions().
		WithFill("name", records.StringValue("unknown")).
		WithFill("dept", records.StringValue("n/a")).
		WithFill("missing_column", records.IntValue(0))

	out, st, err := CleanWithStats(in, opts)
	if err != nil {
		t.Fatalf("Clean err=%v", err)
	}
	if out.NumRows() != 2 {
		t.Fatalf("expected both rows to survive, got %d", out.NumRows())
	}
	if s, _ := out.Cell(1, 0).Str(); s != "unknown" {
		t.Fatalf("fill name got=%q", s)
	}
	if st.FilledCells != 2 {
		t.Fatalf("FilledCells got=%d want=2", st.FilledCells)
	}
}

func TestClean_FillRunsAfterTrim(t *testing.T) {
	t.Parallel()

	in := dataset.MustNew(dataset.Col("s", " a ", nil))
	opts := DefaultOptions().WithFill("s", records.StringValue("  padded  "))

	out, err := Clean(in, opts)
	if err != nil {
		t.Fatalf("Clean err=%v", err)
	}
	if s, _ := out.Cell(1, 0).Str(); s != "  padded  " {
		t.Fatalf("fill value must not be trimmed, got %q", s)
	}
}

func TestClean_StepsCanBeDisabled(t *testing.T) {
	t.Parallel()

	in := dataset.MustNew(
		dataset.Col("s", " a ", " a ", nil),
		dataset.Col("n", "1", "1", "2"),
	)
	out, err := Clean(in, Options{})
	if err != nil {
		t.Fatalf("Clean err=%v", err)
	}
	if out.NumRows() != 3 {
		t.Fatalf("expected all rows kept, got %d", out.NumRows())
	}
	if s, _ := out.Cell(0, 0).Str(); s != " a " {
		t.Fatalf("expected untrimmed value, got %q", s)
	}
	if out.Cell(0, 1).Kind() != records.String {
		t.Fatalf("expected string column to stay string, got %s", out.Cell(0, 1).Kind())
	}
}

func TestClean_NormalizeUnicodeMergesDuplicates(t *testing.T) {
	t.Parallel()

	composed := "Kl\u00e1ra"    // á as one code point
	decomposed := "Kla\u0301ra" // a + combining acute

	in := dataset.MustNew(dataset.Col("name", composed, decomposed))

	plain, err := Clean(in, DefaultOptions())
	if err != nil {
		t.Fatalf("Clean err=%v", err)
	}
	if plain.NumRows() != 2 {
		t.Fatalf("without normalization expected 2 rows, got %d", plain.NumRows())
	}

	opts := DefaultOptions()
	opts.NormalizeUnicode = true
	merged, err := Clean(in, opts)
	if err != nil {
		t.Fatalf("Clean err=%v", err)
	}
	if merged.NumRows() != 1 {
		t.Fatalf("with normalization expected 1 row, got %d", merged.NumRows())
	}
}
