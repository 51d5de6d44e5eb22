package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "layoutswap"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	stageDuration  *prom.HistogramVec
	runDuration    prom.Histogram
	runOutcome     *prom.CounterVec
	fetchDuration  *prom.HistogramVec
	fetchOutcome   *prom.CounterVec
	matches        *prom.CounterVec
	commitDuration *prom.HistogramVec
	commitResults  *prom.CounterVec
	concurrency    prom.Gauge
}

// NewPrometheusRecorder constructs collectors and registers them on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		runDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Total run duration",
			Buckets:   prom.ExponentialBuckets(1, 2, 12),
		}),
		runOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "run_outcomes_total",
			Help:      "Run outcomes by mode and result",
		}, []string{"mode", "result"}),
		fetchDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of document fetches",
			Buckets:   prom.DefBuckets,
		}, []string{"lane"}),
		fetchOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_outcomes_total",
			Help:      "Document fetches by lane and outcome",
		}, []string{"lane", "outcome"}),
		matches: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "matches_total",
			Help:      "Assets whose layout matched the mapping",
		}, []string{"lane"}),
		commitDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "commit_duration_seconds",
			Help:      "Duration of document commits",
			Buckets:   prom.DefBuckets,
		}, []string{"result"}),
		commitResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "commit_results_total",
			Help:      "Commit results by success/error",
		}, []string{"result"}),
		concurrency: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "concurrency",
			Help:      "Configured fetch/commit concurrency bound",
		}),
	}
	reg.MustRegister(pr.stageDuration, pr.runDuration, pr.runOutcome, pr.fetchDuration,
		pr.fetchOutcome, pr.matches, pr.commitDuration, pr.commitResults, pr.concurrency)
	return pr
}

func resultLabel(success bool) string {
	if success {
		return string(ResultSuccess)
	}
	return "error"
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRunOutcome(mode string, result ResultLabel) {
	if p == nil {
		return
	}
	p.runOutcome.WithLabelValues(mode, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveFetchDuration(lane string, d time.Duration) {
	if p == nil {
		return
	}
	p.fetchDuration.WithLabelValues(lane).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncFetchOutcome(lane, outcome string) {
	if p == nil {
		return
	}
	p.fetchOutcome.WithLabelValues(lane, outcome).Inc()
}

func (p *PrometheusRecorder) IncMatch(lane string) {
	if p == nil {
		return
	}
	p.matches.WithLabelValues(lane).Inc()
}

func (p *PrometheusRecorder) ObserveCommitDuration(d time.Duration, success bool) {
	if p == nil {
		return
	}
	p.commitDuration.WithLabelValues(resultLabel(success)).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncCommitResult(success bool) {
	if p == nil {
		return
	}
	p.commitResults.WithLabelValues(resultLabel(success)).Inc()
}

func (p *PrometheusRecorder) SetConcurrency(n int) {
	if p == nil {
		return
	}
	p.concurrency.Set(float64(n))
}
