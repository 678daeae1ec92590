package metrics

import (
	"testing"
	"time"
)

var (
	_ Recorder = NoopRecorder{}
	_ Recorder = (*testRecorder)(nil)
)

type testRecorder struct {
	publishDurations map[string]int
	publishOutcomes  map[string]map[ResultLabel]int
	batchDurations   int
	uploaded         int
	skipped          int
	cacheHits        int
	cacheMisses      int
	throttleWaits    int
}

func newTestRecorder() *testRecorder {
	return &testRecorder{publishDurations: map[string]int{}, publishOutcomes: map[string]map[ResultLabel]int{}}
}

func (t *testRecorder) ObservePublishDuration(schema string, _ time.Duration) {
	t.publishDurations[schema]++
}
func (t *testRecorder) ObserveBatchDuration(_ time.Duration) { t.batchDurations++ }
func (t *testRecorder) IncPublishOutcome(schema string, result ResultLabel) {
	m, ok := t.publishOutcomes[schema]
	if !ok {
		m = map[ResultLabel]int{}
		t.publishOutcomes[schema] = m
	}
	m[result]++
}
func (t *testRecorder) IncUploadedFiles(n int)               { t.uploaded += n }
func (t *testRecorder) IncSkippedFiles(n int)                { t.skipped += n }
func (t *testRecorder) IncCacheHit()                         { t.cacheHits++ }
func (t *testRecorder) IncCacheMiss()                        { t.cacheMisses++ }
func (t *testRecorder) ObserveThrottleWait(_ time.Duration)  { t.throttleWaits++ }

func TestTestRecorderTallies(t *testing.T) {
	r := newTestRecorder()
	r.ObservePublishDuration("reviews", time.Second)
	r.IncPublishOutcome("reviews", ResultSuccess)
	r.IncPublishOutcome("reviews", ResultSkipped)
	r.IncUploadedFiles(3)
	r.IncSkippedFiles(2)
	r.IncCacheHit()
	r.IncCacheMiss()
	r.ObserveThrottleWait(66 * time.Second)
	if r.publishDurations["reviews"] != 1 {
		t.Fatalf("expected one publish duration observation")
	}
	if r.publishOutcomes["reviews"][ResultSuccess] != 1 || r.publishOutcomes["reviews"][ResultSkipped] != 1 {
		t.Fatalf("unexpected outcome tallies: %v", r.publishOutcomes)
	}
	if r.uploaded != 3 || r.skipped != 2 {
		t.Fatalf("unexpected file tallies: uploaded=%d skipped=%d", r.uploaded, r.skipped)
	}
	if r.cacheHits != 1 || r.cacheMisses != 1 || r.throttleWaits != 1 {
		t.Fatalf("unexpected cache/throttle tallies")
	}
}
