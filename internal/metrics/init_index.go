package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initIndexMetrics() {
	r.IndexKeysTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "ramforge_index_keys_total",
			Help: "Number of live keys in the in-memory index",
		},
	)

	r.IndexCapacity = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "ramforge_index_capacity",
			Help: "Current bucket capacity of the index",
		},
	)

	r.IndexRehashesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "ramforge_index_rehashes_total",
			Help: "Total number of index rehash (capacity doubling) events",
		},
	)
}

func (r *Registry) initAOFMetrics() {
	r.AOFAppendsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "ramforge_aof_appends_total",
			Help: "Total number of AOF append attempts by outcome",
		},
		[]string{"outcome"},
	)

	r.AOFAppendDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ramforge_aof_append_duration_seconds",
			Help:    "AOF append latency in seconds, including fsync in sync mode",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
	)

	r.AOFFsyncsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "ramforge_aof_fsyncs_total",
			Help: "Total number of fsync calls issued against the AOF",
		},
	)

	r.AOFBytesWritten = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "ramforge_aof_bytes_written_total",
			Help: "Total bytes written to the AOF",
		},
	)

	r.AOFRingDepth = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "ramforge_aof_ring_depth",
			Help: "Current number of pending entries in the batched AOF ring buffer",
		},
	)
}

func (r *Registry) initRDBMetrics() {
	r.RDBDumpsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "ramforge_rdb_dumps_total",
			Help: "Total number of RDB snapshot dumps by outcome",
		},
		[]string{"outcome"},
	)

	r.RDBDumpDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ramforge_rdb_dump_duration_seconds",
			Help:    "RDB dump duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
		},
	)

	r.RDBLastDumpUnix = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "ramforge_rdb_last_dump_unix_seconds",
			Help: "Unix timestamp of the last successful RDB dump",
		},
	)

	r.CompactionsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "ramforge_compactions_total",
			Help: "Total number of AOF compaction runs by outcome",
		},
		[]string{"outcome"},
	)
}

func (r *Registry) initSupervisorMetrics() {
	r.WorkersUp = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "ramforge_workers_up",
			Help: "Number of supervised worker processes currently running",
		},
	)

	r.WorkerExits = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "ramforge_worker_exits_total",
			Help: "Total number of worker process exits by kind",
		},
		[]string{"kind"},
	)
}
