package aof

import (
	"github.com/dd0wney/ramforge/internal/crc32c"
	"github.com/dd0wney/ramforge/internal/record"
)

// encodeRecord appends one framed, CRC-footed record to dst: key (4 LE) |
// size (4 LE) | bytes (size) | crc32c(key‖size‖bytes) (4 LE). The CRC is
// always computed from a seed of zero, fresh per record.
func encodeRecord(dst []byte, key int32, value []byte) []byte {
	start := len(dst)
	dst = record.EncodeFields(dst, key, value)
	crc := crc32c.Of(dst[start:])
	return record.PutUint32LE(dst, crc)
}
