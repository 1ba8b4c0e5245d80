package aof

import (
	"time"

	"github.com/dd0wney/ramforge/internal/bufpool"
	"github.com/dd0wney/ramforge/internal/engine"
)

// appendSync writes the fully framed record directly to the append file
// descriptor and fsyncs before returning. Any write or fsync error is
// surfaced as ErrIO (mapped upstream to HTTP 503); no goroutine is involved.
func (a *AOF) appendSync(key int32, value []byte) error {
	start := time.Now()
	buf := encodeRecord(bufpool.GetBytesSized(0), key, value)
	defer bufpool.PutBytes(buf)

	err := a.withFileLock(func() error {
		a.fileMu.Lock()
		defer a.fileMu.Unlock()
		if _, err := a.file.Write(buf); err != nil {
			return err
		}
		return a.file.Sync()
	})
	if err != nil {
		a.recordAppend("error", start, 0)
		return engine.IOFailure("aof.Append", a.cfg.Path, err)
	}

	a.recordFsync()
	a.recordAppend("ok", start, len(buf))
	return nil
}
