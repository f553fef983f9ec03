// Package bitio provides MSB-first bit packing used by the Rice entropy coder.
package bitio

import "errors"

// ErrTruncated is returned when a read runs past the end of the data.
var ErrTruncated = errors.New("bitio: truncated data")

// Writer writes bits MSB first into a growing byte buffer.
type Writer struct {
	buf   []byte
	acc   uint64 // pending bits, right aligned
	nbits uint   // number of pending bits in acc (0-63)
}

// NewWriter creates a Writer with the given initial capacity in bytes.
func NewWriter(capacity int) *Writer {
	return &Writer{buf: make([]byte, 0, capacity)}
}

// WriteBits writes the low n bits of val, most significant first (n <= 32).
func (w *Writer) WriteBits(val uint32, n uint) {
	if n == 0 {
		return
	}
	w.acc = w.acc<<n | uint64(val)&(1<<n-1)
	w.nbits += n
	for w.nbits >= 8 {
		w.nbits -= 8
		w.buf = append(w.buf, byte(w.acc>>w.nbits))
	}
}

// WriteBit writes a single bit.
func (w *Writer) WriteBit(bit uint32) {
	w.WriteBits(bit&1, 1)
}

// WriteUnary writes q one bits followed by a terminating zero bit.
func (w *Writer) WriteUnary(q uint32) {
	for q >= 32 {
		w.WriteBits(0xFFFFFFFF, 32)
		q -= 32
	}
	// q ones then a zero: (1<<q - 1) << 1
	w.WriteBits(uint32((uint64(1)<<q-1)<<1), uint(q)+1)
}

// Len returns the number of bytes written so far, counting a partial byte.
func (w *Writer) Len() int {
	n := len(w.buf)
	if w.nbits > 0 {
		n++
	}
	return n
}

// Bytes pads the final partial byte with zeros and returns the buffer.
// The writer must not be used afterwards.
func (w *Writer) Bytes() []byte {
	if w.nbits > 0 {
		w.buf = append(w.buf, byte(w.acc<<(8-w.nbits)))
		w.nbits = 0
		w.acc = 0
	}
	return w.buf
}

// Reader reads bits MSB first from a byte slice.
type Reader struct {
	data  []byte
	pos   int    // next byte to load
	acc   uint64 // loaded bits, right aligned
	nbits uint   // valid bits in acc
}

// NewReader creates a Reader over data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

func (r *Reader) fill(n uint) error {
	for r.nbits < n {
		if r.pos >= len(r.data) {
			return ErrTruncated
		}
		r.acc = r.acc<<8 | uint64(r.data[r.pos])
		r.pos++
		r.nbits += 8
	}
	return nil
}

// ReadBits reads n bits (n <= 32).
func (r *Reader) ReadBits(n uint) (uint32, error) {
	if n == 0 {
		return 0, nil
	}
	if err := r.fill(n); err != nil {
		return 0, err
	}
	r.nbits -= n
	v := uint32(r.acc>>r.nbits) & uint32(uint64(1)<<n-1)
	r.acc &= uint64(1)<<r.nbits - 1
	return v, nil
}

// ReadBit reads a single bit.
func (r *Reader) ReadBit() (uint32, error) {
	return r.ReadBits(1)
}

// ReadUnary counts one bits up to the terminating zero. Runs longer than
// limit are reported as ErrTruncated since a valid stream never produces them.
func (r *Reader) ReadUnary(limit uint32) (uint32, error) {
	var q uint32
	for {
		b, err := r.ReadBit()
		if err != nil {
			return 0, err
		}
		if b == 0 {
			return q, nil
		}
		q++
		if q > limit {
			return 0, ErrTruncated
		}
	}
}

// Remaining returns the number of whole unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}
