package metrics

import (
	"time"
)

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordResponseSize records the size of an HTTP response body
func (r *Registry) RecordResponseSize(method, path string, size float64) {
	r.HTTPResponseSizeBytes.WithLabelValues(method, path).Observe(size)
}

// IncHTTPRequestsInFlight increments the in-flight HTTP request gauge
func (r *Registry) IncHTTPRequestsInFlight() {
	r.HTTPRequestsInFlight.Inc()
}

// DecHTTPRequestsInFlight decrements the in-flight HTTP request gauge
func (r *Registry) DecHTTPRequestsInFlight() {
	r.HTTPRequestsInFlight.Dec()
}

// SetIndexStats updates the index size/capacity gauges
func (r *Registry) SetIndexStats(keys, capacity int) {
	r.IndexKeysTotal.Set(float64(keys))
	r.IndexCapacity.Set(float64(capacity))
}

// RecordIndexRehash records a capacity-doubling rehash event
func (r *Registry) RecordIndexRehash() {
	r.IndexRehashesTotal.Inc()
}

// RecordAOFAppend records an AOF append attempt and its latency
func (r *Registry) RecordAOFAppend(outcome string, duration time.Duration, bytesWritten int) {
	r.AOFAppendsTotal.WithLabelValues(outcome).Inc()
	r.AOFAppendDuration.Observe(duration.Seconds())
	if outcome == "ok" {
		r.AOFBytesWritten.Add(float64(bytesWritten))
	}
}

// RecordAOFFsync records a single fsync call against the AOF
func (r *Registry) RecordAOFFsync() {
	r.AOFFsyncsTotal.Inc()
}

// SetAOFRingDepth updates the batched-mode ring buffer depth gauge
func (r *Registry) SetAOFRingDepth(depth int) {
	r.AOFRingDepth.Set(float64(depth))
}

// RecordRDBDump records an RDB snapshot dump and its duration
func (r *Registry) RecordRDBDump(outcome string, duration time.Duration) {
	r.RDBDumpsTotal.WithLabelValues(outcome).Inc()
	r.RDBDumpDuration.Observe(duration.Seconds())
	if outcome == "ok" {
		r.RDBLastDumpUnix.SetToCurrentTime()
	}
}

// RecordCompaction records an AOF compaction run outcome
func (r *Registry) RecordCompaction(outcome string) {
	r.CompactionsTotal.WithLabelValues(outcome).Inc()
}

// SetWorkersUp updates the supervisor's live-worker-count gauge
func (r *Registry) SetWorkersUp(n int) {
	r.WorkersUp.Set(float64(n))
}

// RecordWorkerExit records a worker process exit by kind ("normal", "fatal")
func (r *Registry) RecordWorkerExit(kind string) {
	r.WorkerExits.WithLabelValues(kind).Inc()
}
