package binary

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"math/big"
	"unicode/utf8"
)

// MaxBigLEB bounds the encoded length of an arbitrary-precision LEB128 number.
// Decoding cost grows quadratically with length, so longer numbers are rejected.
const MaxBigLEB = 4096

var (
	// ErrOverflow is returned when a LEB128 value exceeds the maximum size.
	ErrOverflow = errors.New("leb128: overflow")
	// ErrInvalidUTF8 is returned when a text payload is not valid UTF-8.
	ErrInvalidUTF8 = errors.New("invalid UTF-8 in text")
)

// Reader reads wire primitives from an in-memory buffer with position tracking.
type Reader struct {
	data []byte
	pos  int
}

// NewReader creates a new Reader over data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Position returns the current byte position.
func (r *Reader) Position() int {
	return r.pos
}

// Len returns the number of unread bytes.
func (r *Reader) Len() int {
	return len(r.data) - r.pos
}

// ReadByte reads a single byte and advances the position.
func (r *Reader) ReadByte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, io.ErrUnexpectedEOF
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

// ReadBytes reads exactly n bytes. The returned slice aliases the buffer.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 || n > r.Len() {
		return nil, r.wrapError(io.ErrUnexpectedEOF)
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// Skip advances past n bytes.
func (r *Reader) Skip(n int) error {
	_, err := r.ReadBytes(n)
	return err
}

// ReadU32 reads an unsigned LEB128 encoded uint32.
func (r *Reader) ReadU32() (uint32, error) {
	v, err := r.ReadU64()
	if err != nil {
		return 0, err
	}
	if v > math.MaxUint32 {
		return 0, r.wrapError(ErrOverflow)
	}
	return uint32(v), nil
}

// ReadU64 reads an unsigned LEB128 encoded uint64.
func (r *Reader) ReadU64() (uint64, error) {
	var result uint64
	var shift uint
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		if shift == 63 && b > 1 {
			return 0, r.wrapError(ErrOverflow)
		}
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
		if shift >= 70 {
			return 0, r.wrapError(ErrOverflow)
		}
	}
}

// ReadS64 reads a signed LEB128 encoded int64.
func (r *Reader) ReadS64() (int64, error) {
	var result int64
	var shift uint
	var b byte
	var err error
	for {
		b, err = r.ReadByte()
		if err != nil {
			return 0, err
		}
		result |= int64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			break
		}
		if shift >= 70 {
			return 0, r.wrapError(ErrOverflow)
		}
	}
	// Sign extend
	if shift < 64 && b&0x40 != 0 {
		result |= ^int64(0) << shift
	}
	return result, nil
}

// ReadBigU reads an unsigned LEB128 number of arbitrary precision.
func (r *Reader) ReadBigU() (*big.Int, error) {
	result, _, _, err := r.readBigMagnitude()
	return result, err
}

// ReadBigS reads a signed LEB128 number of arbitrary precision.
func (r *Reader) ReadBigS() (*big.Int, error) {
	result, shift, last, err := r.readBigMagnitude()
	if err != nil {
		return nil, err
	}
	if last&0x40 != 0 {
		bias := new(big.Int).Lsh(big.NewInt(1), shift)
		result.Sub(result, bias)
	}
	return result, nil
}

func (r *Reader) readBigMagnitude() (*big.Int, uint, byte, error) {
	result := new(big.Int)
	chunk := new(big.Int)
	var shift uint
	for n := 0; ; n++ {
		if n >= MaxBigLEB {
			return nil, 0, 0, r.wrapError(ErrOverflow)
		}
		b, err := r.ReadByte()
		if err != nil {
			return nil, 0, 0, err
		}
		chunk.SetUint64(uint64(b & 0x7f))
		result.Or(result, chunk.Lsh(chunk, shift))
		shift += 7
		if b&0x80 == 0 {
			return result, shift, b, nil
		}
	}
}

// ReadText reads a length-prefixed UTF-8 string.
func (r *Reader) ReadText() (string, error) {
	length, err := r.ReadU64()
	if err != nil {
		return "", err
	}
	if length > uint64(r.Len()) {
		return "", r.wrapError(io.ErrUnexpectedEOF)
	}
	data, err := r.ReadBytes(int(length))
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", r.wrapError(ErrInvalidUTF8)
	}
	return string(data), nil
}

// ReadU16LE reads a little-endian uint16.
func (r *Reader) ReadU16LE() (uint16, error) {
	buf, err := r.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf), nil
}

// ReadU32LE reads a little-endian uint32 (fixed 4 bytes).
func (r *Reader) ReadU32LE() (uint32, error) {
	buf, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf), nil
}

// ReadU64LE reads a little-endian uint64 (fixed 8 bytes).
func (r *Reader) ReadU64LE() (uint64, error) {
	buf, err := r.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf), nil
}

func (r *Reader) wrapError(err error) error {
	return fmt.Errorf("at position %d: %w", r.pos, err)
}

// ParseError represents an error during binary parsing with position information.
type ParseError struct {
	Err      error
	Section  string
	Position int
}

func (e *ParseError) Error() string {
	if e.Section != "" {
		return fmt.Sprintf("candid: %s at position %d: %v", e.Section, e.Position, e.Err)
	}
	return fmt.Sprintf("candid: at position %d: %v", e.Position, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// WrapError creates a ParseError with the current position.
func (r *Reader) WrapError(section string, err error) error {
	return &ParseError{
		Position: r.pos,
		Section:  section,
		Err:      err,
	}
}
