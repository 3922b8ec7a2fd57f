// Package datadog implements a Datadog backend for internal/metrics.
//
// Metrics are buffered in memory and submitted on a ticker (default once per
// minute) plus one final time on Close, so a long `datavitals run` shows up
// as a time series and a short `datavitals clean` still reports its tail.
//
// Concurrency: IncCounter/ObserveHistogram may be called from any goroutine.
// Flush snapshots and resets the buffers under the lock and submits outside it.
package datadog

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	dd "github.com/DataDog/datadog-api-client-go/v2/api/datadog"
	"github.com/DataDog/datadog-api-client-go/v2/api/datadogV2"

	"datavitals/internal/metrics"
)

// Options controls Datadog backend configuration.
type Options struct {
	// JobName becomes tag "job:<name>" on every metric. Defaults to "datavitals".
	JobName string

	// Tags are extra Datadog tags, e.g. "service:ingest".
	Tags []string

	// FlushEvery defaults to 60s when <= 0.
	FlushEvery time.Duration

	// Test seams; production leaves them nil.
	now       func() time.Time
	newTicker func(d time.Duration) *time.Ticker
	submitter metricsSubmitter
}

// metricsSubmitter is the part of *datadogV2.MetricsApi the backend uses.
type metricsSubmitter interface {
	SubmitMetrics(ctx context.Context, body datadogV2.MetricPayload, params ...datadogV2.SubmitMetricsOptionalParameters) (datadogV2.IntakePayloadAccepted, *http.Response, error)
}

// Backend implements metrics.Backend for Datadog.
type Backend struct {
	api metricsSubmitter
	ctx context.Context

	flushEvery time.Duration
	stopCh     chan struct{}
	doneCh     chan struct{}
	closeOnce  sync.Once

	baseTags []string

	now       func() time.Time
	newTicker func(d time.Duration) *time.Ticker

	mu           sync.Mutex
	stepCounts   map[stepKey]float64
	recordCounts map[string]float64
	stepDur      map[stepKey][]float64
}

type stepKey struct {
	step   string
	status string
}

func resolveEnvTag() string {
	if v := strings.TrimSpace(os.Getenv("ENV")); v != "" {
		return "env:" + v
	}
	if v := strings.TrimSpace(os.Getenv("DD_ENV")); v != "" {
		return "env:" + v
	}
	return "env:unknown"
}

// NewBackend constructs a backend on the official client and starts its flush
// loop. Credentials and site come from the usual DD_API_KEY / DD_SITE
// environment variables read by the client; network errors surface on Flush.
func NewBackend(parent context.Context, opts Options) (*Backend, error) {
	if parent == nil {
		return nil, wrapInitErr(fmt.Errorf("nil context"))
	}

	job := opts.JobName
	if job == "" {
		job = "datavitals"
	}
	flushEvery := opts.FlushEvery
	if flushEvery <= 0 {
		flushEvery = 60 * time.Second
	}

	baseTags := make([]string, 0, 2+len(opts.Tags))
	baseTags = append(baseTags, resolveEnvTag(), "job:"+job)
	baseTags = append(baseTags, opts.Tags...)

	nowFn := opts.now
	if nowFn == nil {
		nowFn = time.Now
	}
	newTicker := opts.newTicker
	if newTicker == nil {
		newTicker = time.NewTicker
	}

	submitter := opts.submitter
	if submitter == nil {
		client := dd.NewAPIClient(dd.NewConfiguration())
		submitter = datadogV2.NewMetricsApi(client)
	}

	b := &Backend{
		api:          submitter,
		ctx:          dd.NewDefaultContext(parent),
		flushEvery:   flushEvery,
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
		baseTags:     baseTags,
		now:          nowFn,
		newTicker:    newTicker,
		stepCounts:   make(map[stepKey]float64),
		recordCounts: make(map[string]float64),
		stepDur:      make(map[stepKey][]float64),
	}

	go b.loop()
	return b, nil
}

func (b *Backend) loop() {
	defer close(b.doneCh)

	t := b.newTicker(b.flushEvery)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			_ = b.Flush()
		case <-b.stopCh:
			return
		}
	}
}

// Close stops the flush loop and submits whatever is still buffered. Calling
// it again only repeats the final Flush.
func (b *Backend) Close() error {
	b.closeOnce.Do(func() {
		close(b.stopCh)
		<-b.doneCh
	})
	return b.Flush()
}

// IncCounter implements metrics.Backend. Unknown names and non-positive
// deltas are dropped.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	if delta <= 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch name {
	case metrics.StepTotal:
		b.stepCounts[keyOf(labels)] += delta
	case metrics.RecordsTotal:
		kind := labels["kind"]
		if kind == "" {
			return
		}
		b.recordCounts[kind] += delta
	}
}

// ObserveHistogram implements metrics.Backend.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if value < 0 || name != metrics.StepDurationSeconds {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	k := keyOf(labels)
	b.stepDur[k] = append(b.stepDur[k], value)
}

func keyOf(l metrics.Labels) stepKey {
	k := stepKey{step: l["step"], status: l["status"]}
	if k.status == "" {
		k.status = "unknown"
	}
	return k
}

type snapshot struct {
	stepCounts   map[stepKey]float64
	recordCounts map[string]float64
	stepDur      map[stepKey][]float64
}

func (s snapshot) isEmpty() bool {
	return len(s.stepCounts) == 0 && len(s.recordCounts) == 0 && len(s.stepDur) == 0
}

func (b *Backend) snapshotAndReset() snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := snapshot{
		stepCounts:   b.stepCounts,
		recordCounts: b.recordCounts,
		stepDur:      b.stepDur,
	}
	b.stepCounts = make(map[stepKey]float64)
	b.recordCounts = make(map[string]float64)
	b.stepDur = make(map[stepKey][]float64)
	return s
}

// Flush submits buffered metrics and resets the buffers, even when the
// submission fails. It returns nil without calling Datadog when there is
// nothing to send.
func (b *Backend) Flush() error {
	snap := b.snapshotAndReset()
	if snap.isEmpty() {
		return nil
	}

	payload := datadogV2.MetricPayload{Series: b.buildSeries(snap, b.now().Unix())}
	if _, _, err := b.api.SubmitMetrics(b.ctx, payload, *datadogV2.NewSubmitMetricsOptionalParameters()); err != nil {
		return fmt.Errorf("datadog submit: %w", err)
	}
	return nil
}

// buildSeries turns a snapshot into Datadog series at one timestamp. Output is
// sorted by metric name and tags so payloads are stable.
func (b *Backend) buildSeries(s snapshot, nowUnix int64) []datadogV2.MetricSeries {
	series := make([]datadogV2.MetricSeries, 0, len(s.stepCounts)+len(s.recordCounts)+6*len(s.stepDur))

	for k, v := range s.stepCounts {
		if v == 0 {
			continue
		}
		tags := withTags(b.baseTags, "step:"+k.step, "status:"+k.status)
		series = append(series, pointSeries("datavitals.step.total", datadogV2.METRICINTAKETYPE_COUNT, v, tags, nowUnix))
	}

	for kind, v := range s.recordCounts {
		if v == 0 {
			continue
		}
		tags := withTags(b.baseTags, "kind:"+kind)
		series = append(series, pointSeries("datavitals.records.total", datadogV2.METRICINTAKETYPE_COUNT, v, tags, nowUnix))
	}

	for k, samples := range s.stepDur {
		tags := withTags(b.baseTags, "step:"+k.step, "status:"+k.status)
		series = appendPercentiles(series, "datavitals.step.duration_seconds", samples, tags, nowUnix)
	}

	sort.SliceStable(series, func(i, j int) bool {
		if series[i].Metric != series[j].Metric {
			return series[i].Metric < series[j].Metric
		}
		return strings.Join(series[i].Tags, ",") < strings.Join(series[j].Tags, ",")
	})
	return series
}

// appendPercentiles adds p50/p90/p95/p99/max/samples gauges for samples.
// samples is not mutated.
func appendPercentiles(series []datadogV2.MetricSeries, prefix string, samples []float64, tags []string, nowUnix int64) []datadogV2.MetricSeries {
	if len(samples) == 0 {
		return series
	}
	cp := append([]float64(nil), samples...)
	sort.Float64s(cp)

	gauge := func(suffix string, v float64) datadogV2.MetricSeries {
		return pointSeries(prefix+"."+suffix, datadogV2.METRICINTAKETYPE_GAUGE, v, tags, nowUnix)
	}
	return append(series,
		gauge("p50", percentileNearestRank(cp, 0.50)),
		gauge("p90", percentileNearestRank(cp, 0.90)),
		gauge("p95", percentileNearestRank(cp, 0.95)),
		gauge("p99", percentileNearestRank(cp, 0.99)),
		gauge("max", cp[len(cp)-1]),
		gauge("samples", float64(len(cp))),
	)
}

func pointSeries(metric string, typ datadogV2.MetricIntakeType, value float64, tags []string, nowUnix int64) datadogV2.MetricSeries {
	return datadogV2.MetricSeries{
		Metric: metric,
		Type:   typ.Ptr(),
		Points: []datadogV2.MetricPoint{
			{Timestamp: dd.PtrInt64(nowUnix), Value: dd.PtrFloat64(value)},
		},
		Tags: tags,
	}
}

func withTags(base []string, extras ...string) []string {
	out := make([]string, 0, len(base)+len(extras))
	out = append(out, base...)
	return append(out, extras...)
}

// percentileNearestRank expects s sorted ascending.
func percentileNearestRank(s []float64, p float64) float64 {
	n := len(s)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return s[0]
	}
	if p >= 1 {
		return s[n-1]
	}
	idx := int(p*float64(n-1) + 0.5)
	if idx >= n {
		idx = n - 1
	}
	return s[idx]
}

var (
	_ metrics.Backend = (*Backend)(nil)
	_ metrics.Flusher = (*Backend)(nil)
)

// ParseTagsCSV parses comma-separated tags like "env:prod,service:ingest".
func ParseTagsCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func wrapInitErr(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("datadog metrics init: %w", err)
}
