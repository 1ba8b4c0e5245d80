// Package record implements the on-disk field framing shared by the AOF and
// RDB codecs: a little-endian key|size|bytes triple. Neither the per-record
// CRC footer (AOF) nor the whole-payload trailing CRC (RDB) lives here; each
// caller layers its own checksum discipline on top of the same field layout.
package record

import (
	"encoding/binary"
	"io"
)

const (
	// KeySize is the width in bytes of the little-endian int32 key field.
	KeySize = 4
	// SizeFieldSize is the width in bytes of the little-endian uint32 value-length field.
	SizeFieldSize = 4
	// CRCSize is the width in bytes of a little-endian uint32 CRC footer.
	CRCSize = 4
	// HeaderSize is the combined width of the key and size fields.
	HeaderSize = KeySize + SizeFieldSize
)

// EncodeFields appends the key|size|bytes framing for (key, value) to dst and
// returns the extended slice. It performs no CRC work; callers checksum the
// appended region themselves.
func EncodeFields(dst []byte, key int32, value []byte) []byte {
	var header [HeaderSize]byte
	binary.LittleEndian.PutUint32(header[0:4], uint32(key))
	binary.LittleEndian.PutUint32(header[4:8], uint32(len(value)))
	dst = append(dst, header[:]...)
	dst = append(dst, value...)
	return dst
}

// PutUint32LE appends v to dst in little-endian order.
func PutUint32LE(dst []byte, v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return append(dst, b[:]...)
}

// ReadFields reads one key|size|bytes triple from r. A clean end of stream
// (no bytes read at all) is reported as io.EOF; any read that starts a
// record but cannot complete it is reported as io.ErrUnexpectedEOF, which
// callers treat as torn-tail corruption rather than a valid end of file.
func ReadFields(r io.Reader) (key int32, value []byte, err error) {
	var header [HeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return 0, nil, err
	}
	key = int32(binary.LittleEndian.Uint32(header[0:4]))
	size := binary.LittleEndian.Uint32(header[4:8])

	value = make([]byte, size)
	if _, err := io.ReadFull(r, value); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return 0, nil, err
	}
	return key, value, nil
}

// ReadUint32LE reads a little-endian uint32 from r. Any error, including a
// clean io.EOF, is returned verbatim to the caller — by this point in a
// record the caller has already committed to expecting more bytes, so an
// io.EOF here is itself a torn-tail signal that the caller re-wraps.
func ReadUint32LE(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}
