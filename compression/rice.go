package compression

import (
	"errors"

	"github.com/mrjoshuak/go-fresco/internal/bitio"
)

// ErrRiceCorrupted is returned for malformed Rice bit streams.
var ErrRiceCorrupted = errors.New("compression: corrupted Rice data")

// Rice coding constants
const (
	// riceBlockSize is the number of symbols sharing one parameter k.
	riceBlockSize = 64
	// riceKBits is the width of the per-block parameter field.
	riceKBits = 5
	// riceMaxK is the largest k the encoder searches.
	riceMaxK = 24
	// riceZeroBlock is the k code for a block whose symbols are all zero.
	riceZeroBlock = 31
	// riceEscape is the unary quotient that announces a raw 32-bit value.
	riceEscape = 24
)

// riceEncode writes symbols as adaptive Golomb-Rice codes.
//
// Symbols are zigzag mapped and split into blocks of riceBlockSize. Each
// block starts with a 5-bit k (or riceZeroBlock for an all-zero block);
// every value u is then coded as unary(u>>k) followed by the k low bits.
// Quotients of riceEscape or more are replaced by unary(riceEscape) and
// the full 32-bit value.
func riceEncode(symbols []int32) []byte {
	w := bitio.NewWriter(len(symbols)/2 + 8)
	var block [riceBlockSize]uint32

	for start := 0; start < len(symbols); start += riceBlockSize {
		end := min(start+riceBlockSize, len(symbols))
		vals := block[:end-start]
		var set uint32
		for i, s := range symbols[start:end] {
			vals[i] = Zigzag(s)
			set |= vals[i]
		}

		if set == 0 {
			w.WriteBits(riceZeroBlock, riceKBits)
			continue
		}

		k := riceBestK(vals)
		w.WriteBits(uint32(k), riceKBits)
		for _, u := range vals {
			q := u >> k
			if q >= riceEscape {
				w.WriteUnary(riceEscape)
				w.WriteBits(u, 32)
				continue
			}
			w.WriteUnary(q)
			w.WriteBits(u, k)
		}
	}
	return w.Bytes()
}

// riceBestK returns the parameter minimizing the coded size of vals.
func riceBestK(vals []uint32) uint {
	bestK := uint(0)
	bestCost := uint64(1<<63 - 1)
	for k := uint(0); k <= riceMaxK; k++ {
		var cost uint64
		for _, u := range vals {
			q := uint64(u >> k)
			if q >= riceEscape {
				cost += riceEscape + 1 + 32
			} else {
				cost += q + 1 + uint64(k)
			}
		}
		if cost < bestCost {
			bestCost = cost
			bestK = k
		}
		// Costs are convex in k; stop once they start rising.
		if cost > bestCost {
			break
		}
	}
	return bestK
}

// riceDecode reads exactly n symbols written by riceEncode.
func riceDecode(src []byte, n int) ([]int32, error) {
	// Every block carries at least its parameter field.
	minBits := uint64((n+riceBlockSize-1)/riceBlockSize) * riceKBits
	if uint64(len(src))*8 < minBits {
		return nil, ErrRiceCorrupted
	}

	symbols := make([]int32, n)
	r := bitio.NewReader(src)

	for start := 0; start < n; start += riceBlockSize {
		end := min(start+riceBlockSize, n)

		kv, err := r.ReadBits(riceKBits)
		if err != nil {
			return nil, ErrRiceCorrupted
		}
		if kv == riceZeroBlock {
			continue // symbols already zero
		}
		if kv > riceMaxK {
			return nil, ErrRiceCorrupted
		}
		k := uint(kv)

		for i := start; i < end; i++ {
			q, err := r.ReadUnary(riceEscape)
			if err != nil {
				return nil, ErrRiceCorrupted
			}
			var u uint32
			if q == riceEscape {
				u, err = r.ReadBits(32)
			} else {
				var low uint32
				low, err = r.ReadBits(k)
				u = q<<k | low
			}
			if err != nil {
				return nil, ErrRiceCorrupted
			}
			symbols[i] = Unzigzag(u)
		}
	}

	// Only zero padding of the final byte may remain.
	if r.Remaining() != 0 {
		return nil, ErrRiceCorrupted
	}
	return symbols, nil
}
