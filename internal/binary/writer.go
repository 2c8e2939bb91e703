package binary

import (
	"bytes"
	"encoding/binary"
	"math/big"
)

var (
	mask7    = big.NewInt(0x7f)
	minusOne = big.NewInt(-1)
)

// Writer provides buffered writing utilities for the wire format.
type Writer struct {
	buf *bytes.Buffer
}

// NewWriter creates a new Writer.
func NewWriter() *Writer {
	return &Writer{buf: &bytes.Buffer{}}
}

// Bytes returns the written bytes.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// Len returns the number of bytes written.
func (w *Writer) Len() int {
	return w.buf.Len()
}

// Byte writes a single byte.
func (w *Writer) Byte(b byte) {
	w.buf.WriteByte(b)
}

// WriteBytes writes a byte slice.
func (w *Writer) WriteBytes(data []byte) {
	w.buf.Write(data)
}

// WriteU64 writes an unsigned LEB128 encoded uint64.
func (w *Writer) WriteU64(v uint64) {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		w.buf.WriteByte(b)
		if v == 0 {
			break
		}
	}
}

// WriteS64 writes a signed LEB128 encoded int64.
func (w *Writer) WriteS64(v int64) {
	more := true
	for more {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && (b&0x40) == 0) || (v == -1 && (b&0x40) != 0) {
			more = false
		} else {
			b |= 0x80
		}
		w.buf.WriteByte(b)
	}
}

// WriteBigU writes a non-negative big integer as unsigned LEB128.
func (w *Writer) WriteBigU(v *big.Int) {
	if v.IsUint64() {
		w.WriteU64(v.Uint64())
		return
	}
	n := new(big.Int).Set(v)
	chunk := new(big.Int)
	for {
		b := byte(chunk.And(n, mask7).Uint64())
		n.Rsh(n, 7)
		if n.Sign() != 0 {
			b |= 0x80
		}
		w.buf.WriteByte(b)
		if n.Sign() == 0 {
			break
		}
	}
}

// WriteBigS writes a big integer as signed LEB128.
func (w *Writer) WriteBigS(v *big.Int) {
	if v.IsInt64() {
		w.WriteS64(v.Int64())
		return
	}
	// big.Int And/Rsh use two's complement semantics for negative values.
	n := new(big.Int).Set(v)
	chunk := new(big.Int)
	for {
		b := byte(chunk.And(n, mask7).Uint64())
		n.Rsh(n, 7)
		if (n.Sign() == 0 && b&0x40 == 0) || (n.Cmp(minusOne) == 0 && b&0x40 != 0) {
			w.buf.WriteByte(b)
			return
		}
		w.buf.WriteByte(b | 0x80)
	}
}

// WriteText writes a length-prefixed UTF-8 string.
func (w *Writer) WriteText(s string) {
	w.WriteU64(uint64(len(s)))
	w.buf.WriteString(s)
}

// WriteU16LE writes a little-endian uint16.
func (w *Writer) WriteU16LE(v uint16) {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	w.buf.Write(buf[:])
}

// WriteU32LE writes a little-endian uint32 (fixed 4 bytes).
func (w *Writer) WriteU32LE(v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	w.buf.Write(buf[:])
}

// WriteU64LE writes a little-endian uint64 (fixed 8 bytes).
func (w *Writer) WriteU64LE(v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	w.buf.Write(buf[:])
}
