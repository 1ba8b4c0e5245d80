package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the application
type Registry struct {
	// HTTP Metrics
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPRequestsInFlight  prometheus.Gauge
	HTTPResponseSizeBytes *prometheus.HistogramVec

	// Index Metrics
	IndexKeysTotal     prometheus.Gauge
	IndexCapacity      prometheus.Gauge
	IndexRehashesTotal prometheus.Counter

	// AOF Metrics
	AOFAppendsTotal   *prometheus.CounterVec
	AOFAppendDuration prometheus.Histogram
	AOFFsyncsTotal    prometheus.Counter
	AOFBytesWritten   prometheus.Counter
	AOFRingDepth      prometheus.Gauge

	// RDB / compaction Metrics
	RDBDumpsTotal    *prometheus.CounterVec
	RDBDumpDuration  prometheus.Histogram
	RDBLastDumpUnix  prometheus.Gauge
	CompactionsTotal *prometheus.CounterVec

	// Supervisor Metrics
	WorkersUp   prometheus.Gauge
	WorkerExits *prometheus.CounterVec

	// System Metrics
	UptimeSeconds    prometheus.Gauge
	GoRoutines       prometheus.Gauge
	MemoryAllocBytes prometheus.Gauge
	MemorySysBytes   prometheus.Gauge

	registry *prometheus.Registry
	mu       sync.RWMutex
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
	}

	// Initialize all metrics
	r.initHTTPMetrics()
	r.initIndexMetrics()
	r.initAOFMetrics()
	r.initRDBMetrics()
	r.initSupervisorMetrics()
	r.initSystemMetrics()

	return r
}

// PrometheusRegistry returns the underlying Prometheus registry, for mounting
// at GET /metrics via promhttp.HandlerFor.
func (r *Registry) PrometheusRegistry() *prometheus.Registry {
	return r.registry
}
