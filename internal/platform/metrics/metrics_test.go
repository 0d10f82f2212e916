package metrics

import (
	"testing"
	"time"
)

func TestCollectorSnapshot(t *testing.T) {
	c := New()
	c.Record(200, 10*time.Millisecond)
	c.Record(502, 30*time.Millisecond)
	c.Record(429, 0)
	c.ScoreComputed()
	c.Submission("fixed", true)
	c.Submission("tree", true)
	c.Submission("tree", false)
	c.BackendFailure()

	snap := c.Snapshot()
	if snap["requestsTotal"] != uint64(3) || snap["errorsTotal"] != uint64(1) || snap["rateLimitedTotal"] != uint64(1) {
		t.Fatalf("unexpected request counters %+v", snap)
	}
	if snap["avgDurationMs"] != float64(40)/3 {
		t.Fatalf("unexpected average duration %v", snap["avgDurationMs"])
	}
	if snap["fixedSubmissionsTotal"] != uint64(1) || snap["treeSubmissionsTotal"] != uint64(1) || snap["failedSubmissionsTotal"] != uint64(1) {
		t.Fatalf("unexpected submission counters %+v", snap)
	}
	if snap["scoresComputedTotal"] != uint64(1) || snap["backendFailuresTotal"] != uint64(1) {
		t.Fatalf("unexpected domain counters %+v", snap)
	}
}
