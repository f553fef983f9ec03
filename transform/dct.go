package transform

import "math"

// Standard JPEG quantization tables (ITU T.81 Annex K), row-major.
var (
	lumaQuant = [64]int32{
		16, 11, 10, 16, 24, 40, 51, 61,
		12, 12, 14, 19, 26, 58, 60, 55,
		14, 13, 16, 24, 40, 57, 69, 56,
		14, 17, 22, 29, 51, 87, 80, 62,
		18, 22, 37, 56, 68, 109, 103, 77,
		24, 35, 55, 64, 81, 104, 113, 92,
		49, 64, 78, 87, 103, 121, 120, 101,
		72, 92, 95, 98, 112, 100, 103, 99,
	}
	chromaQuant = [64]int32{
		17, 18, 24, 47, 99, 99, 99, 99,
		18, 21, 26, 66, 99, 99, 99, 99,
		24, 26, 56, 99, 99, 99, 99, 99,
		47, 66, 99, 99, 99, 99, 99, 99,
		99, 99, 99, 99, 99, 99, 99, 99,
		99, 99, 99, 99, 99, 99, 99, 99,
		99, 99, 99, 99, 99, 99, 99, 99,
		99, 99, 99, 99, 99, 99, 99, 99,
	}
)

// zigzag[i] is the row-major position of the i-th coefficient in scan order.
var zigzag = [64]int{
	0, 1, 8, 16, 9, 2, 3, 10,
	17, 24, 32, 25, 18, 11, 4, 5,
	12, 19, 26, 33, 40, 48, 41, 34,
	27, 20, 13, 6, 7, 14, 21, 28,
	35, 42, 49, 56, 57, 50, 43, 36,
	29, 22, 15, 23, 30, 37, 44, 51,
	58, 59, 52, 45, 38, 31, 39, 46,
	53, 60, 61, 54, 47, 55, 62, 63,
}

// QuantTable returns the quantization steps (row-major) for a quality
// level. Steps never increase as quality rises; quality 100 gives all ones
// for 8-bit samples.
func QuantTable(quality, bitDepth int, chroma bool) [64]int32 {
	base := &lumaQuant
	if chroma {
		base = &chromaQuant
	}
	quality = min(max(quality, 1), 100)
	var scale int32
	if quality < 50 {
		scale = int32(5000 / quality)
	} else {
		scale = int32(200 - 2*quality)
	}

	var steps [64]int32
	for i, b := range base {
		s := max((b*scale+50)/100, 1)
		if bitDepth == 16 {
			s *= 256
		}
		steps[i] = s
	}
	return steps
}

// dctBasis[k][n] = alpha(k) * cos((2n+1) k pi / 16), the orthonormal
// DCT-II basis.
var dctBasis [8][8]float32

func init() {
	for k := 0; k < 8; k++ {
		alpha := math.Sqrt(2.0 / 8.0)
		if k == 0 {
			alpha = 1 / math.Sqrt(8)
		}
		for n := 0; n < 8; n++ {
			dctBasis[k][n] = float32(alpha * math.Cos(float64(2*n+1)*float64(k)*math.Pi/16))
		}
	}
}

// fdct8x8 performs a separable forward DCT in place.
func fdct8x8(block *[64]float32) {
	var tmp [64]float32
	for row := 0; row < 8; row++ {
		src := block[row*8 : row*8+8]
		for k := 0; k < 8; k++ {
			var sum float32
			for n, v := range src {
				sum += float32(v * dctBasis[k][n])
			}
			tmp[row*8+k] = sum
		}
	}
	for col := 0; col < 8; col++ {
		for k := 0; k < 8; k++ {
			var sum float32
			for n := 0; n < 8; n++ {
				sum += float32(tmp[n*8+col] * dctBasis[k][n])
			}
			block[k*8+col] = sum
		}
	}
}

// idct8x8 performs a separable inverse DCT in place.
func idct8x8(block *[64]float32) {
	var tmp [64]float32
	for col := 0; col < 8; col++ {
		for n := 0; n < 8; n++ {
			var sum float32
			for k := 0; k < 8; k++ {
				sum += float32(block[k*8+col] * dctBasis[k][n])
			}
			tmp[n*8+col] = sum
		}
	}
	for row := 0; row < 8; row++ {
		src := tmp[row*8 : row*8+8]
		for n := 0; n < 8; n++ {
			var sum float32
			for k, v := range src {
				sum += float32(v * dctBasis[k][n])
			}
			block[row*8+n] = sum
		}
	}
}
