// Package persistence orchestrates the RDB and AOF engines into the single
// durability story a worker relies on: load order at boot, periodic
// snapshotting, and compaction on demand.
package persistence

import (
	"sync"
	"time"

	"github.com/dd0wney/ramforge/internal/aof"
	"github.com/dd0wney/ramforge/internal/index"
	"github.com/dd0wney/ramforge/internal/logging"
	"github.com/dd0wney/ramforge/internal/metrics"
	"github.com/dd0wney/ramforge/internal/rdb"
)

// Config names the on-disk paths and timing knobs a Controller needs to boot
// and run a worker's durability layer.
type Config struct {
	RDBPath          string
	AOFPath          string
	AOFFlushInterval time.Duration
	AOFRingCapacity  int
	SnapshotInterval time.Duration // zero disables the periodic snapshot ticker
}

// Controller owns the index, the AOF handle, and the snapshot ticker for one
// worker process. Boot order is fixed: load the RDB snapshot first (the
// cheap bulk state), then replay the AOF on top of it (the tail the
// snapshot hadn't captured yet) — never the reverse, or the AOF replay
// would be overwritten by stale snapshot data.
type Controller struct {
	cfg Config
	log logging.Logger
	reg *metrics.Registry

	idx *index.Index
	aof *aof.AOF

	compactMu sync.Mutex // serializes concurrent Compact calls

	stopSnapshot chan struct{}
	snapshotWg   sync.WaitGroup
}

// Init loads the RDB snapshot then replays the AOF into a fresh index,
// opens the AOF for further appends, and (if cfg.SnapshotInterval > 0)
// starts the periodic snapshot ticker. Any corruption surfaced by either
// load is returned unwrapped so the caller can map it to the fatal
// exit-code-2 path.
func Init(cfg Config, log logging.Logger, reg *metrics.Registry) (*Controller, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}
	log = log.With(logging.Component("persistence"))

	idx := index.New()

	if err := rdb.Load(cfg.RDBPath, idx); err != nil {
		return nil, err
	}
	if err := aof.Load(cfg.AOFPath, idx); err != nil {
		return nil, err
	}

	a, err := aof.Open(aof.Config{
		Path:          cfg.AOFPath,
		FlushInterval: cfg.AOFFlushInterval,
		RingCapacity:  cfg.AOFRingCapacity,
	}, log, reg)
	if err != nil {
		return nil, err
	}

	c := &Controller{cfg: cfg, log: log, reg: reg, idx: idx, aof: a}

	if cfg.SnapshotInterval > 0 {
		c.startSnapshotTicker()
	}

	log.Info("persistence boot complete",
		logging.Count(idx.Len()),
		logging.Path(cfg.RDBPath))

	return c, nil
}

// Index returns the live in-memory index backing every HTTP request.
func (c *Controller) Index() *index.Index { return c.idx }

// Append durably records (key, value) before the caller is allowed to
// mutate the index (index-last discipline). On success the caller
// applies idx.Save or idx.Remove itself.
func (c *Controller) Append(key int32, value []byte) error {
	return c.aof.Append(key, value)
}

// LastAppendError reports the outcome of the most recently attempted Append,
// for the "aof_writable" liveness check. Nil before any Append has run.
func (c *Controller) LastAppendError() error {
	return c.aof.LastError()
}

func (c *Controller) startSnapshotTicker() {
	c.stopSnapshot = make(chan struct{})
	c.snapshotWg.Add(1)

	go func() {
		defer c.snapshotWg.Done()
		ticker := time.NewTicker(c.cfg.SnapshotInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := rdb.Dump(c.cfg.RDBPath, c.idx, c.log, c.reg); err != nil {
					c.log.Error("periodic snapshot failed", logging.Error(err))
				}
			case <-c.stopSnapshot:
				return
			}
		}
	}()
}

// Compact performs a full rewrite cycle: a fresh RDB snapshot followed by
// an AOF rewrite to one record per live key. Concurrent
// calls are serialized; compaction never runs more than one at a time
// per worker.
func (c *Controller) Compact() error {
	c.compactMu.Lock()
	defer c.compactMu.Unlock()

	start := time.Now()

	if err := rdb.Dump(c.cfg.RDBPath, c.idx, c.log, c.reg); err != nil {
		c.recordCompaction("error")
		return err
	}
	if err := c.aof.Rewrite(c.idx); err != nil {
		c.recordCompaction("error")
		return err
	}

	c.recordCompaction("ok")
	c.log.Info("compaction complete", logging.Latency(time.Since(start)), logging.Count(c.idx.Len()))
	return nil
}

func (c *Controller) recordCompaction(outcome string) {
	if c.reg != nil {
		c.reg.RecordCompaction(outcome)
	}
}

// Shutdown stops the snapshot ticker, takes one final snapshot, and closes
// the AOF. Errors from the final snapshot are logged but don't block the
// AOF close: a worker exiting cleanly should still leave its log durable.
func (c *Controller) Shutdown() error {
	if c.stopSnapshot != nil {
		close(c.stopSnapshot)
		c.snapshotWg.Wait()
	}

	if err := rdb.Dump(c.cfg.RDBPath, c.idx, c.log, c.reg); err != nil {
		c.log.Error("final snapshot on shutdown failed", logging.Error(err))
	}

	if err := c.aof.Shutdown(); err != nil {
		return err
	}
	return nil
}
