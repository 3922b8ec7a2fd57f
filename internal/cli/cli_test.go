package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datavitals/pkg/cleaning"
	"datavitals/pkg/etl"
	"datavitals/pkg/records"
	"datavitals/pkg/sqlbuilder"
)

// execute runs the command tree with quiet logging and no ambient metrics
// configuration. Tests using it must not be parallel: metrics state and the
// environment are process-wide.
func execute(t *testing.T, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	t.Setenv("METRICS_BACKEND", "")
	t.Setenv("PUSHGATEWAY_URL", "")

	var out, errb bytes.Buffer
	root := NewRootCmd(Streams{In: strings.NewReader(stdin), Out: &out, Err: &errb})
	root.SetArgs(append([]string{"--log-level", "error", "--log-json"}, args...))
	err = root.Execute()
	return out.String(), errb.String(), err
}

func TestDemo(t *testing.T) {
	out, _, err := execute(t, "", "demo")
	require.NoError(t, err)

	assert.Contains(t, out, "Cleaned data:\nid,name,salary\n1,Alice,1000\n2,Bob,2000\n")
	assert.Contains(t, out, "ETL output:\n"+
		`{"id":2,"name":"Alice","salary":2000}`+"\n"+
		`{"id":4,"name":"Bob","salary":4000}`+"\n")
	assert.True(t, strings.HasSuffix(out, "Generated SQL:\nSELECT id, name, salary FROM employees WHERE active = TRUE LIMIT 5\n"), out)
}

func TestClean_CSVFromStdin(t *testing.T) {
	in := "ID,Name\n1, a \n1, a \n2,\n"

	out, _, err := execute(t, in, "clean", "-o", "csv")
	require.NoError(t, err)
	assert.Equal(t, "id,name\n1,a\n", out)

	out, _, err = execute(t, in, "clean", "-o", "csv", "--fill", "name=x")
	require.NoError(t, err)
	assert.Equal(t, "id,name\n1,a\n2,x\n", out)

	out, _, err = execute(t, in, "clean", "-o", "csv", "--no-drop-duplicates", "--no-drop-nulls", "--no-trim")
	require.NoError(t, err)
	assert.Equal(t, "id,name\n1,\" a \"\n1,\" a \"\n2,\n", out)
}

func TestClean_Errors(t *testing.T) {
	_, _, err := execute(t, "a\n", "clean", "--fill", "novalue")
	require.ErrorContains(t, err, "want key=value")

	_, _, err = execute(t, "a\n,\n", "clean")
	require.ErrorIs(t, err, cleaning.ErrCleaningResultEmpty)

	_, _, err = execute(t, "a\n1\n", "clean", "--format", "xml")
	require.ErrorContains(t, err, "unsupported input format")
}

func TestETL_JSON(t *testing.T) {
	out, _, err := execute(t, `[{"id": 1, "salary": 1000, "name": "A"}]`,
		"etl", "--format", "json", "--transform", "double", "-o", "jsonl")
	require.NoError(t, err)
	assert.Equal(t, `{"id":2,"name":"A","salary":2000}`+"\n", out)

	out, _, err = execute(t, `[]`, "etl", "--format", "json")
	require.NoError(t, err)
	assert.Equal(t, "[]\n", out)
}

func TestETL_Errors(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		args  []string
		want  error
	}{
		{name: "null_source", stdin: `null`, want: etl.ErrNullSource},
		{name: "object_source", stdin: `{"a": 1}`, want: etl.ErrInvalidSourceType},
		{name: "scalar_record", stdin: `[1]`, want: etl.ErrInvalidRecordType},
		{name: "unknown_transform", stdin: `[{"a": 1}]`, args: []string{"--transform", "triple"}, want: etl.ErrUnsupportedTransform},
		{name: "unknown_destination", stdin: `[{"a": 1}]`, args: []string{"--destination", "s3"}, want: etl.ErrUnsupportedDestination},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"etl", "--format", "json"}, tt.args...)
			_, _, err := execute(t, tt.stdin, args...)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestETL_CSVRows(t *testing.T) {
	out, _, err := execute(t, "id,v\n1,x\n", "etl", "--format", "csv", "-o", "csv")
	require.NoError(t, err)
	assert.Equal(t, "id,v\n1,x\n", out)
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "full",
			args: []string{"--table", "employees", "--columns", "id,name", "--where", "active=true", "--limit", "5"},
			want: "SELECT id, name FROM employees WHERE active = TRUE LIMIT 5\n",
		},
		{
			name: "where_order_kept",
			args: []string{"--table", "t", "--where", "b=2", "--where", "a=x"},
			want: "SELECT * FROM t WHERE b = 2 AND a = 'x'\n",
		},
		{
			name: "where_json_order_kept",
			args: []string{"--table", "t", "--where-json", `{"b": 2.5, "a": null}`},
			want: "SELECT * FROM t WHERE b = 2.5 AND a = NULL\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, "", append([]string{"select"}, tt.args...)...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestSelect_Errors(t *testing.T) {
	_, _, err := execute(t, "", "select", "--columns", "id")
	require.ErrorIs(t, err, sqlbuilder.ErrInvalidTable)

	_, _, err = execute(t, "", "select", "--table", "t", "--limit", "0")
	require.ErrorIs(t, err, sqlbuilder.ErrInvalidLimit)

	_, _, err = execute(t, "", "select", "--table", "t", "--where-json", `[1]`)
	require.ErrorIs(t, err, sqlbuilder.ErrInvalidWhere)

	_, _, err = execute(t, "", "select", "--table", "t", "--where", "a=1", "--where-json", `{}`)
	require.ErrorContains(t, err, "mutually exclusive")
}

func writePipeline(t *testing.T, transform string) (cfg, out string) {
	t.Helper()
	dir := t.TempDir()

	in := filepath.Join(dir, "in.csv")
	require.NoError(t, os.WriteFile(in, []byte("id,name,salary\n1,Alice,1000\n2,,2000\n2,,2000\n"), 0o644))
	out = filepath.Join(dir, "out.csv")

	doc := fmt.Sprintf(`job: payroll
source:
  file:
    path: %q
clean:
  fill:
    name: unknown
etl:
  transform: %s
query:
  table: employees
  limit: 5
output:
  format: csv
  path: %q
`, in, transform, out)

	cfg = filepath.Join(dir, "pipeline.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte(doc), 0o644))
	return cfg, out
}

func TestRun_Pipeline(t *testing.T) {
	cfg, outPath := writePipeline(t, "double")

	stdout, _, err := execute(t, "", "run", "--config", cfg)
	require.NoError(t, err)
	assert.Empty(t, stdout)

	got, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "id,name,salary\n2,Alice,2000\n4,unknown,4000\n", string(got))
}

func TestRun_Validate(t *testing.T) {
	cfg, outPath := writePipeline(t, "none")
	stdout, _, err := execute(t, "", "run", "--config", cfg, "--validate")
	require.NoError(t, err)
	assert.Equal(t, "ok\n", stdout)
	assert.NoFileExists(t, outPath)

	cfg, _ = writePipeline(t, "triple")
	_, stderr, err := execute(t, "", "run", "--config", cfg)
	require.ErrorContains(t, err, "invalid")
	assert.Contains(t, stderr, "error: etl.transform: ")
}

func TestRun_PushesMetrics(t *testing.T) {
	var pushes atomic.Int64
	var lastPath atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pushes.Add(1)
		lastPath.Store(r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg, _ := writePipeline(t, "none")
	_, _, err := execute(t, "", "--metrics-backend", "pushgateway", "--pushgateway-url", srv.URL, "run", "--config", cfg)
	require.NoError(t, err)

	assert.Equal(t, int64(1), pushes.Load())
	assert.Equal(t, "/metrics/job/payroll", lastPath.Load())
}

func TestProfile(t *testing.T) {
	in := "id,name\n1,a\n2,\n3,\n"

	out, _, err := execute(t, in, "profile")
	require.NoError(t, err)
	assert.Contains(t, out, "rows_with_nulls  2\n")
	assert.Contains(t, out, "key candidates: id\n")

	out, _, err = execute(t, in, "profile", "--json")
	require.NoError(t, err)
	var rep struct {
		Rows          int `json:"rows"`
		RowsWithNulls int `json:"rows_with_nulls"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, 3, rep.Rows)
	assert.Equal(t, 2, rep.RowsWithNulls)
}

func TestParseScalar(t *testing.T) {
	t.Parallel()

	assert.True(t, parseScalar("5").Equal(records.IntValue(5)))
	assert.True(t, parseScalar("2.5").Equal(records.FloatValue(2.5)))
	assert.True(t, parseScalar("true").Equal(records.BoolValue(true)))
	assert.True(t, parseScalar("null").IsNull())
	assert.True(t, parseScalar(`"007"`).Equal(records.StringValue("007")))
	assert.True(t, parseScalar("O'Brien").Equal(records.StringValue("O'Brien")))
	assert.True(t, parseScalar("").Equal(records.StringValue("")))
}

func TestFirstNonEmpty(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "b", firstNonEmpty("", "  ", " b ", "c"))
	assert.Equal(t, "", firstNonEmpty())
}
