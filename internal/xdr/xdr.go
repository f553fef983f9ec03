// Package xdr provides big-endian binary encoding and decoding utilities
// for reading and writing FRESCO container boxes.
//
// The container follows ISO base media file format conventions, so every
// multi-byte integer is stored most significant byte first. This package
// provides bounds-checked readers and a growing writer for the primitive
// types used in box headers and payloads.
package xdr

import (
	"encoding/binary"
	"errors"
	"math"
)

var (
	// ErrShortBuffer is returned when a read operation cannot complete
	// because there isn't enough data left in the buffer.
	ErrShortBuffer = errors.New("xdr: buffer too short")

	// ErrNegativeSize is returned when a size parameter is negative.
	ErrNegativeSize = errors.New("xdr: negative size")
)

// ByteOrder is the byte order used by FRESCO containers.
var ByteOrder = binary.BigEndian

// Reader provides big-endian binary reading from a byte slice.
// It maintains a read position and provides bounds checking on all operations.
type Reader struct {
	data []byte
	pos  int
}

// NewReader creates a Reader from a byte slice.
func NewReader(data []byte) *Reader {
	return &Reader{data: data, pos: 0}
}

// Len returns the number of unread bytes.
func (r *Reader) Len() int {
	if r.pos >= len(r.data) {
		return 0
	}
	return len(r.data) - r.pos
}

// Pos returns the current read position.
func (r *Reader) Pos() int {
	return r.pos
}

// Skip advances the read position by n bytes.
func (r *Reader) Skip(n int) error {
	if n < 0 {
		return ErrNegativeSize
	}
	if n > r.Len() {
		return ErrShortBuffer
	}
	r.pos += n
	return nil
}

// ReadByte reads a single byte.
func (r *Reader) ReadByte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, ErrShortBuffer
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

// ReadSlice returns the next n bytes without copying them.
// The returned slice aliases the reader's buffer.
func (r *Reader) ReadSlice(n int) ([]byte, error) {
	if n < 0 {
		return nil, ErrNegativeSize
	}
	if n > r.Len() {
		return nil, ErrShortBuffer
	}
	s := r.data[r.pos : r.pos+n : r.pos+n]
	r.pos += n
	return s, nil
}

// ReadUint16 reads an unsigned 16-bit integer in big-endian order.
func (r *Reader) ReadUint16() (uint16, error) {
	if r.Len() < 2 {
		return 0, ErrShortBuffer
	}
	v := ByteOrder.Uint16(r.data[r.pos:])
	r.pos += 2
	return v, nil
}

// ReadUint32 reads an unsigned 32-bit integer in big-endian order.
func (r *Reader) ReadUint32() (uint32, error) {
	if r.Len() < 4 {
		return 0, ErrShortBuffer
	}
	v := ByteOrder.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

// ReadUint64 reads an unsigned 64-bit integer in big-endian order.
func (r *Reader) ReadUint64() (uint64, error) {
	if r.Len() < 8 {
		return 0, ErrShortBuffer
	}
	v := ByteOrder.Uint64(r.data[r.pos:])
	r.pos += 8
	return v, nil
}

// ReadFloat32 reads a 32-bit IEEE 754 floating-point number.
func (r *Reader) ReadFloat32() (float32, error) {
	v, err := r.ReadUint32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// ReadFourCC reads a four character code such as a box type.
func (r *Reader) ReadFourCC() (string, error) {
	b, err := r.ReadSlice(4)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// BufferWriter provides a growing buffer for writing binary data.
type BufferWriter struct {
	buf []byte
}

// NewBufferWriter creates a BufferWriter with an initial capacity.
func NewBufferWriter(capacity int) *BufferWriter {
	return &BufferWriter{buf: make([]byte, 0, capacity)}
}

// Len returns the number of bytes written.
func (w *BufferWriter) Len() int {
	return len(w.buf)
}

// Bytes returns the written data as a byte slice.
// The returned slice is valid until the next write operation.
func (w *BufferWriter) Bytes() []byte {
	return w.buf
}

// WriteByte writes a single byte.
func (w *BufferWriter) WriteByte(b byte) {
	w.buf = append(w.buf, b)
}

// WriteBytes writes a byte slice.
func (w *BufferWriter) WriteBytes(b []byte) {
	w.buf = append(w.buf, b...)
}

// WriteUint16 writes an unsigned 16-bit integer in big-endian order.
func (w *BufferWriter) WriteUint16(v uint16) {
	w.buf = ByteOrder.AppendUint16(w.buf, v)
}

// WriteUint32 writes an unsigned 32-bit integer in big-endian order.
func (w *BufferWriter) WriteUint32(v uint32) {
	w.buf = ByteOrder.AppendUint32(w.buf, v)
}

// WriteUint64 writes an unsigned 64-bit integer in big-endian order.
func (w *BufferWriter) WriteUint64(v uint64) {
	w.buf = ByteOrder.AppendUint64(w.buf, v)
}

// WriteFloat32 writes a 32-bit IEEE 754 floating-point number.
func (w *BufferWriter) WriteFloat32(v float32) {
	w.WriteUint32(math.Float32bits(v))
}

// WriteFourCC writes a four character code. Shorter codes are space padded.
func (w *BufferWriter) WriteFourCC(code string) {
	var cc [4]byte
	copy(cc[:], "    ")
	copy(cc[:], code)
	w.buf = append(w.buf, cc[:]...)
}

// PutUint32At overwrites four bytes at offset, used to back-patch box sizes.
func (w *BufferWriter) PutUint32At(offset int, v uint32) error {
	if offset < 0 || offset+4 > len(w.buf) {
		return ErrShortBuffer
	}
	ByteOrder.PutUint32(w.buf[offset:], v)
	return nil
}
