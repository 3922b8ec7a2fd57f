package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"datavitals/internal/config"
	"datavitals/internal/metrics"
	"datavitals/internal/metrics/datadog"
	"datavitals/internal/metrics/prompush"
	csvparser "datavitals/internal/parser/csv"
	htmlparser "datavitals/internal/parser/html"
	jsonparser "datavitals/internal/parser/json"
	"datavitals/internal/render"
	"datavitals/internal/source"
	"datavitals/pkg/dataset"
	"datavitals/pkg/records"
)

const defaultPushgatewayURL = "http://localhost:9091"

type app struct {
	streams Streams

	flags struct {
		logLevel       string
		logJSON        bool
		job            string
		metricsBackend string
		pushgatewayURL string
		metricsTags    string
		httpTimeout    time.Duration
	}

	log    zerolog.Logger
	runID  string
	loader *source.Loader
}

func newLoader(timeout time.Duration) *source.Loader {
	return source.NewLoader(nil, timeout)
}

// startMetrics installs the metrics backend chosen by flag → env → document
// → none and returns the matching shutdown func, which is never nil.
func (a *app) startMetrics(ctx context.Context, mc config.MetricsConfig, job string) func() {
	if a.flags.job != "" {
		job = a.flags.job
	}
	if job == "" {
		job = "datavitals"
	}

	name := firstNonEmpty(a.flags.metricsBackend, os.Getenv("METRICS_BACKEND"), mc.Backend)
	noop := func() {}

	switch name {
	case "pushgateway":
		gwURL := firstNonEmpty(a.flags.pushgatewayURL, os.Getenv("PUSHGATEWAY_URL"), mc.PushgatewayURL, defaultPushgatewayURL)
		b, err := prompush.NewBackend(job, gwURL)
		if err != nil {
			a.log.Warn().Err(err).Msg("metrics: prom push backend unavailable; using nop")
			return noop
		}
		a.log.Debug().Str("backend", name).Str("url", gwURL).Str("job", job).Msg("metrics enabled")
		metrics.SetBackend(b)
		return func() {
			if err := metrics.Flush(); err != nil {
				a.log.Warn().Err(err).Msg("metrics: flush failed")
			}
			metrics.SetBackend(nil)
		}

	case "datadog":
		tags := datadog.ParseTagsCSV(firstNonEmpty(a.flags.metricsTags, os.Getenv("METRICS_TAGS")))
		tags = append(tags, mc.Tags...)
		tags = append(tags, "run_id:"+a.runID)

		b, err := datadog.NewBackend(ctx, datadog.Options{JobName: job, Tags: tags})
		if err != nil {
			a.log.Warn().Err(err).Msg("metrics: datadog backend unavailable; using nop")
			return noop
		}
		a.log.Debug().Str("backend", name).Str("job", job).Strs("tags", tags).Msg("metrics enabled")
		metrics.SetBackend(b)
		return func() {
			if err := b.Close(); err != nil {
				a.log.Warn().Err(err).Msg("metrics: datadog close/flush failed")
			}
			metrics.SetBackend(nil)
		}

	case "", "none":
		return noop

	default:
		a.log.Warn().Str("backend", name).Msg("metrics: unknown backend; metrics disabled")
		return noop
	}
}

// step runs fn as a named pipeline step, recording its duration and outcome.
func (a *app) step(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	took := time.Since(start)

	metrics.RecordStep(name, metrics.StatusOf(err), took)

	ev := a.log.Debug()
	if err != nil {
		ev = a.log.Error().Err(err)
	}
	ev.Str("step", name).Dur("took", took).Msg("step finished")
	return err
}

// loadDataset reads in and parses it with the loader for kind. An empty kind
// is guessed from the input name, defaulting to csv.
func (a *app) loadDataset(ctx context.Context, in source.Input, kind string, opt config.Options) (*dataset.Dataset, error) {
	if kind == "" {
		kind = config.KindFromName(in.Name())
	}
	if kind == "" {
		kind = "csv"
	}

	raw, err := a.loader.Load(ctx, in)
	if err != nil {
		return nil, err
	}

	var ds *dataset.Dataset
	switch kind {
	case "csv":
		ds, err = csvparser.Load(ctx, bytes.NewReader(raw), opt, func(line int, err error) {
			a.log.Warn().Int("line", line).Err(err).Msg("csv: skipping malformed row")
		})
	case "json":
		ds, err = jsonparser.Load(ctx, bytes.NewReader(raw), opt)
	case "html":
		ds, err = htmlparser.Load(ctx, bytes.NewReader(raw), opt)
	default:
		return nil, fmt.Errorf("unsupported input format %q (want csv, json or html)", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", in.Name(), err)
	}

	metrics.AddRecords("loaded", ds.NumRows())
	a.log.Info().Str("input", in.Name()).Str("format", kind).
		Int("rows", ds.NumRows()).Int("columns", ds.NumCols()).Msg("input loaded")
	return ds, nil
}

// writeDataset renders ds to path ("" or "-" is stdout).
func (a *app) writeDataset(path string, ds *dataset.Dataset, format string) error {
	return a.writeOutput(path, func(w io.Writer) error { return render.Dataset(w, ds, format) })
}

// writeRecords renders recs to path ("" or "-" is stdout).
func (a *app) writeRecords(path string, recs []records.Record, format string) error {
	return a.writeOutput(path, func(w io.Writer) error { return render.Records(w, recs, format) })
}

func (a *app) writeOutput(path string, write func(io.Writer) error) error {
	if path == "" || path == "-" {
		return write(a.streams.Out)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	a.log.Info().Str("path", path).Msg("output written")
	return nil
}

// parseAssignments splits repeated key=value flags. Values are read as JSON
// scalars when they parse as one (1, 2.5, true, null, "x") and as plain
// strings otherwise. Order is preserved.
func parseAssignments(flag string, in []string) ([]string, []records.Value, error) {
	keys := make([]string, 0, len(in))
	vals := make([]records.Value, 0, len(in))
	for _, kv := range in {
		k, v, ok := strings.Cut(kv, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, nil, fmt.Errorf("--%s %q: want key=value", flag, kv)
		}
		keys = append(keys, k)
		vals = append(vals, parseScalar(v))
	}
	return keys, vals, nil
}

func parseScalar(s string) records.Value {
	var v records.Value
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		return v
	}
	return records.StringValue(s)
}

// parseOptions turns repeated key=value flags into parser options. Values stay
// strings; the option accessors coerce them.
func parseOptions(in []string) (config.Options, error) {
	opt := config.Options{}
	for _, kv := range in {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("--option %q: want key=value", kv)
		}
		opt[strings.TrimSpace(k)] = v
	}
	return opt, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
