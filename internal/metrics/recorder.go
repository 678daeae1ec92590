package metrics

import "time"

// ResultLabel enumerates publish result categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultSkipped ResultLabel = "skipped"
	ResultFatal   ResultLabel = "fatal"
)

// Recorder defines observability hooks for publish and cache metrics.
// Implementations may forward to Prometheus, OpenTelemetry, etc. The
// NoopRecorder is the default when metrics are not configured.
type Recorder interface {
	ObservePublishDuration(schema string, d time.Duration)
	ObserveBatchDuration(d time.Duration)
	IncPublishOutcome(schema string, result ResultLabel)
	IncUploadedFiles(n int)
	IncSkippedFiles(n int)
	IncCacheHit()
	IncCacheMiss()
	ObserveThrottleWait(d time.Duration)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) ObservePublishDuration(string, time.Duration) {}
func (NoopRecorder) ObserveBatchDuration(time.Duration)           {}
func (NoopRecorder) IncPublishOutcome(string, ResultLabel)        {}
func (NoopRecorder) IncUploadedFiles(int)                         {}
func (NoopRecorder) IncSkippedFiles(int)                          {}
func (NoopRecorder) IncCacheHit()                                 {}
func (NoopRecorder) IncCacheMiss()                                {}
func (NoopRecorder) ObserveThrottleWait(time.Duration)            {}
