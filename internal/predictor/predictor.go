// Package predictor implements the causal 2D predictors used by the
// lossless transform.
//
// Each sample is predicted from already coded neighbors and replaced by
// the difference from that prediction. For images with local coherence
// the residuals cluster around zero and entropy code well. Arithmetic is
// exact int32, so every mode reconstructs its input bit for bit.
//
// Neighbor naming follows the usual convention:
//
//	c b
//	a x
//
// On the first row b and c fall back to a; on the first column a and c
// fall back to b; the top-left sample is predicted as zero.
package predictor

import "fmt"

// Mode selects a prediction function. The numeric values are stored in
// tile headers.
type Mode uint8

// Prediction modes
const (
	None     Mode = iota // 0
	Left                 // a
	Up                   // b
	Average              // floor((a+b)/2)
	Paeth                // PNG Paeth
	MED                  // LOCO-I median edge detector
	Gradient             // a+b-c
	NumModes
)

var modeNames = [NumModes]string{"none", "left", "up", "average", "paeth", "med", "gradient"}

// String returns the mode name.
func (m Mode) String() string {
	if m < NumModes {
		return modeNames[m]
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m < NumModes
}

// Predict returns the prediction of mode m from neighbors a (left),
// b (up) and c (up-left).
func Predict(m Mode, a, b, c int32) int32 {
	switch m {
	case Left:
		return a
	case Up:
		return b
	case Average:
		return (a + b) >> 1
	case Paeth:
		p := a + b - c
		pa, pb, pc := abs(p-a), abs(p-b), abs(p-c)
		if pa <= pb && pa <= pc {
			return a
		}
		if pb <= pc {
			return b
		}
		return c
	case MED:
		lo, hi := min(a, b), max(a, b)
		if c >= hi {
			return lo
		}
		if c <= lo {
			return hi
		}
		return a + b - c
	case Gradient:
		return a + b - c
	default:
		return 0
	}
}

// neighbors returns a, b, c for sample (x, y) of a plane with stride w.
func neighbors(p []int32, w, x, y int) (a, b, c int32) {
	i := y*w + x
	switch {
	case y == 0 && x == 0:
		return 0, 0, 0
	case y == 0:
		a = p[i-1]
		return a, a, a
	case x == 0:
		b = p[i-w]
		return b, b, b
	default:
		return p[i-1], p[i-w], p[i-w-1]
	}
}

// Encode writes the residuals of src under mode m into dst. Both slices
// hold a w x h plane; dst must not alias src.
func Encode(dst, src []int32, w, h int, m Mode) {
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			a, b, c := neighbors(src, w, x, y)
			i := y*w + x
			dst[i] = src[i] - Predict(m, a, b, c)
		}
	}
}

// Decode reverses Encode. dst may be the same slice as res, in which case
// the plane is reconstructed in place.
func Decode(dst, res []int32, w, h int, m Mode) {
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			a, b, c := neighbors(dst, w, x, y)
			i := y*w + x
			dst[i] = res[i] + Predict(m, a, b, c)
		}
	}
}

// Cost returns the sum of absolute residuals of src under mode m without
// materializing them.
func Cost(src []int32, w, h int, m Mode) uint64 {
	var sum uint64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			a, b, c := neighbors(src, w, x, y)
			sum += uint64(abs(src[y*w+x] - Predict(m, a, b, c)))
		}
	}
	return sum
}

// Best returns the candidate with the lowest Cost. Ties go to the lowest
// mode id; an empty candidate list yields MED.
func Best(src []int32, w, h int, candidates []Mode) Mode {
	best := MED
	var bestCost uint64
	first := true
	for _, m := range candidates {
		cost := Cost(src, w, h, m)
		if first || cost < bestCost || (cost == bestCost && m < best) {
			best, bestCost, first = m, cost, false
		}
	}
	return best
}

func abs(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
