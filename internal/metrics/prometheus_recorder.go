package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once            sync.Once
	publishDuration *prom.HistogramVec
	batchDuration   prom.Histogram
	publishOutcome  *prom.CounterVec
	uploadedFiles   prom.Counter
	skippedFiles    prom.Counter
	cacheHits       prom.Counter
	cacheMisses     prom.Counter
	throttleWait    prom.Histogram
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.publishDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "mouseadmin",
			Name:      "publish_duration_seconds",
			Help:      "Duration of publish runs per schema",
			Buckets:   prom.DefBuckets,
		}, []string{"schema"})
		pr.batchDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "mouseadmin",
			Name:      "batch_duration_seconds",
			Help:      "Duration of individual upload batches",
			Buckets:   prom.DefBuckets,
		})
		pr.publishOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "mouseadmin",
			Name:      "publish_outcomes_total",
			Help:      "Publish outcomes per schema by final status",
		}, []string{"schema", "result"})
		pr.uploadedFiles = prom.NewCounter(prom.CounterOpts{
			Namespace: "mouseadmin",
			Name:      "uploaded_files_total",
			Help:      "Total files uploaded to the remote host",
		})
		pr.skippedFiles = prom.NewCounter(prom.CounterOpts{
			Namespace: "mouseadmin",
			Name:      "skipped_files_total",
			Help:      "Files skipped because the remote copy was identical",
		})
		pr.cacheHits = prom.NewCounter(prom.CounterOpts{
			Namespace: "mouseadmin",
			Name:      "cache_hits_total",
			Help:      "Remote content served from the local mirror",
		})
		pr.cacheMisses = prom.NewCounter(prom.CounterOpts{
			Namespace: "mouseadmin",
			Name:      "cache_misses_total",
			Help:      "Remote content fetched over the network",
		})
		pr.throttleWait = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "mouseadmin",
			Name:      "throttle_wait_seconds",
			Help:      "Time spent waiting for rate-limit windows",
			Buckets:   []float64{0.5, 1, 3, 10, 30, 66, 120},
		})
		reg.MustRegister(pr.publishDuration, pr.batchDuration, pr.publishOutcome, pr.uploadedFiles, pr.skippedFiles, pr.cacheHits, pr.cacheMisses, pr.throttleWait)
	})
	return pr
}

func (p *PrometheusRecorder) ObservePublishDuration(schema string, d time.Duration) {
	if p == nil || p.publishDuration == nil {
		return
	}
	p.publishDuration.WithLabelValues(schema).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBatchDuration(d time.Duration) {
	if p == nil || p.batchDuration == nil {
		return
	}
	p.batchDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncPublishOutcome(schema string, result ResultLabel) {
	if p == nil || p.publishOutcome == nil {
		return
	}
	p.publishOutcome.WithLabelValues(schema, string(result)).Inc()
}

func (p *PrometheusRecorder) IncUploadedFiles(n int) {
	if p == nil || p.uploadedFiles == nil {
		return
	}
	p.uploadedFiles.Add(float64(n))
}

func (p *PrometheusRecorder) IncSkippedFiles(n int) {
	if p == nil || p.skippedFiles == nil {
		return
	}
	p.skippedFiles.Add(float64(n))
}

func (p *PrometheusRecorder) IncCacheHit() {
	if p == nil || p.cacheHits == nil {
		return
	}
	p.cacheHits.Inc()
}

func (p *PrometheusRecorder) IncCacheMiss() {
	if p == nil || p.cacheMisses == nil {
		return
	}
	p.cacheMisses.Inc()
}

func (p *PrometheusRecorder) ObserveThrottleWait(d time.Duration) {
	if p == nil || p.throttleWait == nil {
		return
	}
	p.throttleWait.Observe(d.Seconds())
}
