package metrics

import (
	"sync/atomic"
	"time"
)

type Collector struct {
	totalRequests     uint64
	errorRequests     uint64
	rateLimited       uint64
	totalDurationMs   uint64
	scoresComputed    uint64
	submissionsFixed  uint64
	submissionsTree   uint64
	submissionsFailed uint64
	backendFailures   uint64
	structureRefresh  uint64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	if status == 429 {
		atomic.AddUint64(&c.rateLimited, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

func (c *Collector) ScoreComputed() {
	atomic.AddUint64(&c.scoresComputed, 1)
}

// Submission counts a submit attempt by variant ("fixed" or "tree").
func (c *Collector) Submission(variant string, ok bool) {
	if !ok {
		atomic.AddUint64(&c.submissionsFailed, 1)
		return
	}
	if variant == "tree" {
		atomic.AddUint64(&c.submissionsTree, 1)
		return
	}
	atomic.AddUint64(&c.submissionsFixed, 1)
}

func (c *Collector) BackendFailure() {
	atomic.AddUint64(&c.backendFailures, 1)
}

func (c *Collector) StructureRefreshed() {
	atomic.AddUint64(&c.structureRefresh, 1)
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":           total,
		"errorsTotal":             atomic.LoadUint64(&c.errorRequests),
		"rateLimitedTotal":        atomic.LoadUint64(&c.rateLimited),
		"avgDurationMs":           avg,
		"totalDurationMs":         totalMs,
		"scoresComputedTotal":     atomic.LoadUint64(&c.scoresComputed),
		"fixedSubmissionsTotal":   atomic.LoadUint64(&c.submissionsFixed),
		"treeSubmissionsTotal":    atomic.LoadUint64(&c.submissionsTree),
		"failedSubmissionsTotal":  atomic.LoadUint64(&c.submissionsFailed),
		"backendFailuresTotal":    atomic.LoadUint64(&c.backendFailures),
		"structureRefreshesTotal": atomic.LoadUint64(&c.structureRefresh),
	}
}
