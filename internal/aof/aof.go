// Package aof implements the append-only file: the per-write durability log
// that every accepted mutation is framed into before the in-memory index is
// allowed to see it. It supports two append disciplines, sync and batched,
// over the same on-disk record format, plus replay and compaction.
package aof

import (
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dd0wney/ramforge/internal/engine"
	"github.com/dd0wney/ramforge/internal/logging"
	"github.com/dd0wney/ramforge/internal/metrics"
)

// Mode selects the append discipline.
type Mode int

const (
	// ModeBatched enqueues appends into a bounded ring, flushed and fsync'd
	// together on a bounded group-commit interval.
	ModeBatched Mode = iota
	// ModeSync issues write+fsync synchronously for every Append.
	ModeSync
)

// Config configures an AOF instance.
type Config struct {
	Path string
	// RingCapacity bounds the batched-mode pending-append ring. Ignored in
	// sync mode.
	RingCapacity int
	// FlushInterval selects the mode: zero means sync mode, any positive
	// value selects batched mode with that group-commit window.
	FlushInterval time.Duration
}

func (c Config) mode() Mode {
	if c.FlushInterval <= 0 {
		return ModeSync
	}
	return ModeBatched
}

// AOF is the append-only log shared (via the filesystem) by every worker in
// the supervised cluster. One AOF instance wraps exactly one worker's file
// descriptor onto the shared path.
type AOF struct {
	cfg  Config
	mode Mode
	log  logging.Logger
	reg  *metrics.Registry

	// gate serializes Append against Rewrite: Rewrite takes the write lock
	// so no append can observe a half-swapped file descriptor; ordinary
	// appends take the read lock and run concurrently with each other.
	gate sync.RWMutex

	fileMu sync.Mutex // guards file, independent of gate's append/rewrite semantics
	file   *os.File

	lockFile *os.File // sidecar path.lock, flocked around each physical write

	// batched mode only
	ring    chan *pendingAppend
	stopCh  chan struct{}
	writeWg sync.WaitGroup

	// lastErr caches the outcome of the most recent Append, for the
	// "aof_writable" liveness probe to read without touching the disk itself.
	lastErr atomic.Value // holds an error, possibly nil wrapped via errBox
}

// errBox lets a nil error live inside an atomic.Value, which otherwise panics
// on storing a nil interface.
type errBox struct{ err error }

type pendingAppend struct {
	key   int32
	value []byte
	done  chan error
}

// Open creates or opens the AOF at cfg.Path for appending and starts the
// batched writer goroutine if cfg selects batched mode.
func Open(cfg Config, log logging.Logger, reg *metrics.Registry) (*AOF, error) {
	if cfg.RingCapacity <= 0 {
		cfg.RingCapacity = 1024
	}
	if log == nil {
		log = logging.NewNopLogger()
	}

	f, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, engine.IOFailure("aof.Open", cfg.Path, err)
	}

	lockFile, err := os.OpenFile(cfg.Path+".lock", os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		f.Close()
		return nil, engine.IOFailure("aof.Open", cfg.Path+".lock", err)
	}

	a := &AOF{
		cfg:      cfg,
		mode:     cfg.mode(),
		log:      log.With(logging.Component("aof")),
		reg:      reg,
		file:     f,
		lockFile: lockFile,
	}

	if a.mode == ModeBatched {
		a.startWriter()
	}

	return a, nil
}

func (a *AOF) startWriter() {
	a.ring = make(chan *pendingAppend, a.cfg.RingCapacity)
	a.stopCh = make(chan struct{})
	a.writeWg.Add(1)
	go a.writerLoop()
}

// Path returns the AOF's on-disk path.
func (a *AOF) Path() string { return a.cfg.Path }

// Mode reports the active append discipline.
func (a *AOF) Mode() Mode { return a.mode }

// Append durably records (key, value), per the configured mode. On success
// the caller may update the in-memory index; on failure the index must not
// be touched (index-last discipline).
func (a *AOF) Append(key int32, value []byte) error {
	a.gate.RLock()
	defer a.gate.RUnlock()

	var err error
	switch a.mode {
	case ModeSync:
		err = a.appendSync(key, value)
	default:
		err = a.appendBatched(key, value)
	}
	a.lastErr.Store(errBox{err})
	return err
}

// LastError reports the outcome of the most recent Append, or nil if none
// has run yet or the most recent one succeeded. It never touches disk itself;
// it exists so a liveness probe can answer instantly.
func (a *AOF) LastError() error {
	v, ok := a.lastErr.Load().(errBox)
	if !ok {
		return nil
	}
	return v.err
}

// Shutdown stops the batched writer cleanly (final flush, fsync) and closes
// the file descriptors. Safe to call once; a second call is a no-op error.
func (a *AOF) Shutdown() error {
	if a.mode == ModeBatched && a.stopCh != nil {
		select {
		case <-a.stopCh:
		default:
			close(a.stopCh)
			a.writeWg.Wait()
		}
	}

	a.fileMu.Lock()
	defer a.fileMu.Unlock()

	var firstErr error
	if err := a.file.Sync(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := a.file.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := a.lockFile.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if firstErr != nil {
		return engine.IOFailure("aof.Shutdown", a.cfg.Path, firstErr)
	}
	return nil
}

func (a *AOF) recordAppend(outcome string, start time.Time, n int) {
	if a.reg != nil {
		a.reg.RecordAOFAppend(outcome, time.Since(start), n)
	}
}

func (a *AOF) recordFsync() {
	if a.reg != nil {
		a.reg.RecordAOFFsync()
	}
}
