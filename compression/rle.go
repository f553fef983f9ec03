package compression

import (
	"errors"
)

// RLE errors
var (
	ErrRLECorrupted = errors.New("compression: corrupted RLE data")
	ErrRLEOverflow  = errors.New("compression: RLE output exceeds expected size")
)

const (
	// rleMinRun is the shortest repeat worth coding as a run.
	rleMinRun = 3
	// rleMaxSpan is the longest run or literal a single control byte covers.
	rleMaxSpan = 128
)

// RLECompress packs bytes with signed control bytes:
//
//	c < 0: repeat the next byte 1-c times
//	c >= 0: copy the next c+1 bytes literally
//
// Flat image regions turn into long runs of zero residual bytes, which this
// backend captures with two bytes per 128.
func RLECompress(src []byte) []byte {
	if len(src) == 0 {
		return nil
	}
	dst := make([]byte, 0, len(src)+len(src)/rleMaxSpan+1)

	lit := 0 // start of the pending literal span
	flush := func(end int) {
		for lit < end {
			n := min(end-lit, rleMaxSpan)
			dst = append(dst, byte(n-1))
			dst = append(dst, src[lit:lit+n]...)
			lit += n
		}
	}

	i := 0
	for i < len(src) {
		run := runLength(src[i:])
		if run < rleMinRun {
			i++
			continue
		}
		flush(i)
		dst = append(dst, byte(int8(1-run)), src[i])
		i += run
		lit = i
	}
	flush(len(src))
	return dst
}

// runLength counts leading copies of b[0], capped at rleMaxSpan.
func runLength(b []byte) int {
	n := 1
	for n < len(b) && n < rleMaxSpan && b[n] == b[0] {
		n++
	}
	return n
}

// RLEDecompress expands RLECompress output; the result must be exactly
// expectedSize bytes.
func RLEDecompress(src []byte, expectedSize int) ([]byte, error) {
	// A two byte run expands to at most rleMaxSpan bytes.
	if expectedSize < 0 || expectedSize > len(src)/2*rleMaxSpan {
		return nil, ErrRLECorrupted
	}
	dst := make([]byte, expectedSize)
	pos := 0

	for i := 0; i < len(src); {
		c := int(int8(src[i]))
		i++

		if c < 0 {
			n := 1 - c
			if i >= len(src) {
				return nil, ErrRLECorrupted
			}
			if pos+n > expectedSize {
				return nil, ErrRLEOverflow
			}
			v := src[i]
			i++
			for end := pos + n; pos < end; pos++ {
				dst[pos] = v
			}
			continue
		}

		n := c + 1
		if i+n > len(src) {
			return nil, ErrRLECorrupted
		}
		if pos+n > expectedSize {
			return nil, ErrRLEOverflow
		}
		pos += copy(dst[pos:], src[i:i+n])
		i += n
	}

	if pos != expectedSize {
		return nil, ErrRLECorrupted
	}
	return dst, nil
}
