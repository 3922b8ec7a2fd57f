// Package prompush implements a metrics.Backend that records into a private
// Prometheus registry and pushes it to a Pushgateway on Flush. It suits
// short-lived CLI invocations that a scraper would never catch.
package prompush

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"datavitals/internal/metrics"
)

type Backend struct {
	pusher *push.Pusher

	reg          *prometheus.Registry
	stepTotal    *prometheus.CounterVec
	recordsTotal *prometheus.CounterVec
	stepDuration *prometheus.HistogramVec
}

// NewBackend validates gatewayURL and prepares a pusher for job.
func NewBackend(job, gatewayURL string) (*Backend, error) {
	if strings.TrimSpace(job) == "" {
		return nil, fmt.Errorf("prompush: empty job name")
	}
	u, err := url.Parse(gatewayURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("prompush: invalid pushgateway url %q", gatewayURL)
	}

	b := &Backend{
		reg: prometheus.NewRegistry(),
		stepTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.StepTotal,
			Help: "Pipeline steps executed, by step and status.",
		}, []string{"step", "status"}),
		recordsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.RecordsTotal,
			Help: "Rows or records handled, by kind.",
		}, []string{"kind"}),
		stepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    metrics.StepDurationSeconds,
			Help:    "Step wall time in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"step", "status"}),
	}
	b.reg.MustRegister(b.stepTotal, b.recordsTotal, b.stepDuration)
	b.pusher = push.New(gatewayURL, job).Gatherer(b.reg)
	return b, nil
}

// IncCounter implements metrics.Backend. Unknown names are ignored.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	if delta <= 0 {
		return
	}
	switch name {
	case metrics.StepTotal:
		b.stepTotal.WithLabelValues(labels["step"], statusOrUnknown(labels)).Add(delta)
	case metrics.RecordsTotal:
		if kind := labels["kind"]; kind != "" {
			b.recordsTotal.WithLabelValues(kind).Add(delta)
		}
	}
}

// ObserveHistogram implements metrics.Backend.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if value < 0 || name != metrics.StepDurationSeconds {
		return
	}
	b.stepDuration.WithLabelValues(labels["step"], statusOrUnknown(labels)).Observe(value)
}

// Flush replaces the job's metric group on the gateway with the current
// registry contents. Counters are cumulative for the life of the process.
func (b *Backend) Flush() error {
	if err := b.pusher.Push(); err != nil {
		return fmt.Errorf("prompush: push: %w", err)
	}
	return nil
}

func statusOrUnknown(l metrics.Labels) string {
	if s := l["status"]; s != "" {
		return s
	}
	return "unknown"
}

var (
	_ metrics.Backend = (*Backend)(nil)
	_ metrics.Flusher = (*Backend)(nil)
)
