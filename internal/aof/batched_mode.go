package aof

import (
	"errors"
	"time"

	"github.com/dd0wney/ramforge/internal/bufpool"
	"github.com/dd0wney/ramforge/internal/engine"
	"github.com/dd0wney/ramforge/internal/logging"
)

// appendBatched copies value into a pooled buffer, enqueues it on the ring,
// and blocks until the writer goroutine has flushed it (and the group it was
// flushed with) to disk. The pooled buffer is returned in flush, whether the
// write succeeds or fails.
func (a *AOF) appendBatched(key int32, value []byte) error {
	owned := bufpool.GetBytesSized(len(value))
	copy(owned, value)

	pa := &pendingAppend{key: key, value: owned, done: make(chan error, 1)}

	select {
	case a.ring <- pa:
	case <-a.stopCh:
		return engine.IOFailure("aof.Append", a.cfg.Path, errors.New("aof is shut down"))
	}

	if a.reg != nil {
		a.reg.SetAOFRingDepth(len(a.ring))
	}

	return <-pa.done
}

// writerLoop is the sole consumer of the ring. It wakes on a new entry
// arriving or on the flush interval elapsing, drains everything currently
// queued, and issues exactly one fsync per drain.
func (a *AOF) writerLoop() {
	defer a.writeWg.Done()

	ticker := time.NewTicker(a.cfg.FlushInterval)
	defer ticker.Stop()

	var pending []*pendingAppend

	for {
		select {
		case pa := <-a.ring:
			pending = append(pending, pa)
			pending = a.drainNonBlocking(pending)
			a.flush(pending)
			pending = nil

		case <-ticker.C:
			if len(pending) > 0 {
				a.flush(pending)
				pending = nil
			}

		case <-a.stopCh:
			pending = a.drainNonBlocking(pending)
			a.flush(pending)
			return
		}
	}
}

// drainNonBlocking pulls every entry currently sitting in the ring without
// blocking, implementing "drain the ring to end" for the calling wakeup.
func (a *AOF) drainNonBlocking(pending []*pendingAppend) []*pendingAppend {
	for {
		select {
		case pa := <-a.ring:
			pending = append(pending, pa)
		default:
			return pending
		}
	}
}

// flush writes every pending entry as one consolidated buffer, issues a
// single fsync, and notifies every waiter of the outcome. Every pooled value
// buffer acquired by appendBatched is returned to the pool here, regardless
// of outcome.
func (a *AOF) flush(pending []*pendingAppend) {
	if len(pending) == 0 {
		return
	}

	start := time.Now()
	builder := bufpool.NewBufferBuilder(bufpool.MediumSize * len(pending))
	for _, pa := range pending {
		builder.Write(encodeRecord(nil, pa.key, pa.value))
	}
	buf := builder.Bytes()

	err := a.withFileLock(func() error {
		a.fileMu.Lock()
		defer a.fileMu.Unlock()
		if _, err := a.file.Write(buf); err != nil {
			return err
		}
		return a.file.Sync()
	})
	builder.Release()

	for _, pa := range pending {
		bufpool.PutBytes(pa.value)
	}

	if err != nil {
		wrapped := engine.IOFailure("aof.Append", a.cfg.Path, err)
		a.recordAppend("error", start, 0)
		a.log.Error("batched aof flush failed", logging.Int("batch_size", len(pending)), logging.Error(err))
		for _, pa := range pending {
			pa.done <- wrapped
		}
		return
	}

	a.recordFsync()
	a.recordAppend("ok", start, len(buf))
	for _, pa := range pending {
		pa.done <- nil
	}
}
