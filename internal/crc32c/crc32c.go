// Package crc32c exposes a single streaming CRC-32C (Castagnoli, RFC 3720)
// primitive used to footer every AOF record and the RDB trailer. The stdlib
// table is hardware-accelerated on amd64/arm64 when SSE4.2/ARM CRC
// instructions are available, so there is no reason to hand-roll the
// polynomial.
package crc32c

import "hash/crc32"

var table = crc32.MakeTable(crc32.Castagnoli)

// Checksum computes the Castagnoli CRC-32 of data, starting from seed.
// A fresh record uses seed 0; streaming callers (the RDB trailer) pass the
// running value back in.
func Checksum(seed uint32, data []byte) uint32 {
	return crc32.Update(seed, table, data)
}

// Of is a convenience wrapper for the common case of a single-shot checksum
// computed with seed 0.
func Of(data []byte) uint32 {
	return Checksum(0, data)
}
