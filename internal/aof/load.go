package aof

import (
	"bufio"
	"errors"
	"io"
	"os"

	"github.com/dd0wney/ramforge/internal/crc32c"
	"github.com/dd0wney/ramforge/internal/engine"
	"github.com/dd0wney/ramforge/internal/index"
	"github.com/dd0wney/ramforge/internal/record"
)

// Load replays every record in the AOF at path into idx, in file order, so
// later writes of the same key win (Save is an idempotent upsert). A
// missing file is treated as an empty log: cold start with no prior AOF is
// not an error. Any CRC mismatch or torn trailing record is reported as
// ErrCorruptPersistence; callers at startup turn that into a fatal exit.
func Load(path string, idx *index.Index) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return engine.IOFailure("aof.Load", path, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var offset int64

	for {
		key, value, err := record.ReadFields(r)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return engine.Corrupt("aof.Load", path, offset, err)
		}

		wantCRC, err := record.ReadUint32LE(r)
		if err != nil {
			return engine.Corrupt("aof.Load", path, offset, err)
		}

		gotCRC := crc32c.Of(record.EncodeFields(nil, key, value))
		if gotCRC != wantCRC {
			return engine.Corrupt("aof.Load", path, offset, errCRCMismatch)
		}

		idx.Save(key, value)
		offset += int64(record.HeaderSize) + int64(len(value)) + int64(record.CRCSize)
	}
}

var errCRCMismatch = errors.New("aof record crc mismatch")
