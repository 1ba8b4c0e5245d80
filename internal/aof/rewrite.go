package aof

import (
	"os"

	"github.com/dd0wney/ramforge/internal/engine"
	"github.com/dd0wney/ramforge/internal/index"
)

// Rewrite compacts the AOF: it replaces the replay log with exactly one
// record per live key, dropping every overwritten/deleted history entry. It
// blocks new appends for its duration (the gate's write lock) and, in
// batched mode, pauses and then restarts the writer goroutine around the
// file swap so no in-flight flush can race the rename.
//
// In sync mode the source of truth for "live keys" is not idx but a scratch
// index freshly replayed from the AOF file on disk: workers don't share
// memory, so idx only reflects records this worker applied locally, while
// the shared AOF may hold keys a sibling worker appended and this worker
// never loaded into its own index. Rewriting from idx alone would silently
// drop those records. Batched mode keeps using idx directly: it's an
// optimization for the single-writer-per-file case this engine otherwise
// assumes, and reloading from disk there would just replay idx's own writes
// back at itself.
func (a *AOF) Rewrite(idx *index.Index) error {
	a.gate.Lock()
	defer a.gate.Unlock()

	if a.mode == ModeBatched {
		close(a.stopCh)
		a.writeWg.Wait()
	}

	err := a.rewriteLocked(idx)

	if a.mode == ModeBatched {
		a.startWriter()
	}
	return err
}

// rewriteLocked writes a fresh AOF to a sibling tmp file, fsyncs and closes
// it, then takes the cross-process advisory lock for the swap: close the
// current fd, atomically rename tmp over path, reopen for append. Callers
// must hold a.gate for writing.
func (a *AOF) rewriteLocked(idx *index.Index) error {
	source := idx
	if a.mode == ModeSync {
		scratch := index.New()
		if err := Load(a.cfg.Path, scratch); err != nil {
			return err
		}
		source = scratch
	}

	tmpPath := a.cfg.Path + ".tmp"

	tmpFile, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return engine.IOFailure("aof.Rewrite", tmpPath, err)
	}

	var writeErr error
	source.Iterate(func(key int32, value []byte) {
		if writeErr != nil {
			return
		}
		buf := encodeRecord(nil, key, value)
		if _, err := tmpFile.Write(buf); err != nil {
			writeErr = err
		}
	})
	if writeErr == nil {
		writeErr = tmpFile.Sync()
	}
	if closeErr := tmpFile.Close(); writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		os.Remove(tmpPath)
		return engine.IOFailure("aof.Rewrite", tmpPath, writeErr)
	}

	swapErr := a.withFileLock(func() error {
		a.fileMu.Lock()
		defer a.fileMu.Unlock()

		if err := a.file.Close(); err != nil {
			return err
		}
		if err := os.Rename(tmpPath, a.cfg.Path); err != nil {
			return err
		}
		f, err := os.OpenFile(a.cfg.Path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		a.file = f
		return nil
	})
	if swapErr != nil {
		return engine.IOFailure("aof.Rewrite", a.cfg.Path, swapErr)
	}
	return nil
}
