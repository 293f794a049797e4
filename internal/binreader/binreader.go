// Package binreader is a small little-endian structured reader over a
// seekable byte stream. It reads fields one at a time with encoding/binary
// rather than decoding whole structs by reflection: every value in this
// archive format is a primitive integer, so per-field reads stay on the
// fast path binary.Read reserves for them.
package binreader

import (
	"encoding/binary"
	"io"
)

// Reader wraps an io.ReadSeeker and accumulates the first error seen across
// a run of reads, so callers can issue several reads in a row and check
// once at the end instead of after every call.
type Reader struct {
	r   io.ReadSeeker
	err error
}

// New wraps r. r is read from its current position.
func New(r io.ReadSeeker) *Reader {
	return &Reader{r: r}
}

// Err returns the first error encountered by any read or seek so far.
func (b *Reader) Err() error { return b.err }

// SeekAbs seeks to an absolute offset from the start of the stream.
func (b *Reader) SeekAbs(off int64) {
	if b.err != nil {
		return
	}
	_, b.err = b.r.Seek(off, io.SeekStart)
}

func (b *Reader) read(v any) {
	if b.err != nil {
		return
	}
	b.err = binary.Read(b.r, binary.LittleEndian, v)
}

// U8 reads one byte.
func (b *Reader) U8() uint8 {
	var v uint8
	b.read(&v)
	return v
}

// U16 reads a little-endian uint16.
func (b *Reader) U16() uint16 {
	var v uint16
	b.read(&v)
	return v
}

// U32 reads a little-endian uint32.
func (b *Reader) U32() uint32 {
	var v uint32
	b.read(&v)
	return v
}

// U64 reads a little-endian uint64.
func (b *Reader) U64() uint64 {
	var v uint64
	b.read(&v)
	return v
}

// Bytes reads exactly n raw bytes.
func (b *Reader) Bytes(n int) []byte {
	buf := make([]byte, n)
	if b.err != nil {
		return buf
	}
	_, b.err = io.ReadFull(b.r, buf)
	return buf
}
