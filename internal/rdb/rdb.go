// Package rdb implements the point-in-time snapshot file: every live key
// dumped once, trailed by a single running CRC32C over the whole payload
// rather than the AOF's per-record footer.
package rdb

import (
	"bufio"
	"errors"
	"io"
	"os"
	"time"

	"github.com/dd0wney/ramforge/internal/crc32c"
	"github.com/dd0wney/ramforge/internal/engine"
	"github.com/dd0wney/ramforge/internal/index"
	"github.com/dd0wney/ramforge/internal/logging"
	"github.com/dd0wney/ramforge/internal/metrics"
	"github.com/dd0wney/ramforge/internal/record"
)

var errCRCMismatch = errors.New("rdb trailer crc mismatch")

// Load reads path into idx. A missing file is a cold start, not an error: a
// fresh worker with no prior snapshot starts from an empty index. Any
// truncation or trailer CRC mismatch is reported as ErrCorruptPersistence.
func Load(path string, idx *index.Index) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return engine.IOFailure("rdb.Load", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(bufio.NewReader(f))
	if err != nil {
		return engine.IOFailure("rdb.Load", path, err)
	}
	if len(data) < record.CRCSize {
		return engine.Corrupt("rdb.Load", path, int64(len(data)), io.ErrUnexpectedEOF)
	}

	payload := data[:len(data)-record.CRCSize]
	trailer := data[len(data)-record.CRCSize:]
	wantCRC := uint32(trailer[0]) | uint32(trailer[1])<<8 | uint32(trailer[2])<<16 | uint32(trailer[3])<<24
	if crc32c.Of(payload) != wantCRC {
		return engine.Corrupt("rdb.Load", path, int64(len(payload)), errCRCMismatch)
	}

	r := newByteReader(payload)
	var offset int64
	for r.remaining() > 0 {
		key, value, err := record.ReadFields(r)
		if err != nil {
			return engine.Corrupt("rdb.Load", path, offset, err)
		}
		idx.Save(key, value)
		offset += int64(record.HeaderSize) + int64(len(value))
	}
	return nil
}

// Dump writes a fresh snapshot of idx to path: clone first so the dump
// streams a consistent point-in-time view without holding the live index
// lock for the duration of the write, then swap in atomically via a
// sibling tmp file and rename, the no-fork emulation of copy-on-write semantics.
func Dump(path string, idx *index.Index, log logging.Logger, reg *metrics.Registry) error {
	start := time.Now()
	if log == nil {
		log = logging.NewNopLogger()
	}
	log = log.With(logging.Component("rdb"))

	snapshot := idx.Clone()
	tmpPath := path + ".tmp"

	err := dumpTo(tmpPath, snapshot)
	if err == nil {
		err = os.Rename(tmpPath, path)
	}
	if err != nil {
		os.Remove(tmpPath)
		if reg != nil {
			reg.RecordRDBDump("error", time.Since(start))
		}
		log.Error("rdb dump failed", logging.Path(path), logging.Error(err))
		return engine.IOFailure("rdb.Dump", path, err)
	}

	if reg != nil {
		reg.RecordRDBDump("ok", time.Since(start))
	}
	log.Info("rdb dump complete", logging.Path(path), logging.Count(snapshot.Len()), logging.Latency(time.Since(start)))
	return nil
}

func dumpTo(tmpPath string, snapshot *index.Index) error {
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	running := crc32c.Checksum(0, nil)
	var writeErr error

	snapshot.Iterate(func(key int32, value []byte) {
		if writeErr != nil {
			return
		}
		buf := record.EncodeFields(nil, key, value)
		running = crc32c.Checksum(running, buf)
		if _, err := w.Write(buf); err != nil {
			writeErr = err
		}
	})
	if writeErr != nil {
		return writeErr
	}

	trailer := record.PutUint32LE(nil, running)
	if _, err := w.Write(trailer); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return f.Sync()
}
