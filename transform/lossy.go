package transform

import (
	"math"

	"github.com/mrjoshuak/go-fresco/internal/predictor"
)

// DC prediction modes searched at effort 5 and above.
var dcCandidates = []predictor.Mode{predictor.Left, predictor.Up, predictor.MED}

// lossyPlanes returns how many leading planes take the DCT path; a
// trailing alpha plane is coded losslessly.
func lossyPlanes(t *Tile) int {
	if t.hasAlpha() {
		return t.Channels - 1
	}
	return t.Channels
}

func levelShift(t *Tile) float32 {
	return float32(int32(1) << (t.BitDepth - 1))
}

func forwardLossy(t *Tile, quality, effort int) *Coded {
	planes := readPlanes(t)
	nColor := lossyPlanes(t)
	shift := levelShift(t)

	fp := make([][]float32, nColor)
	for ch := range fp {
		f := make([]float32, len(planes[ch]))
		for i, v := range planes[ch] {
			f[i] = float32(v) - shift
		}
		fp[ch] = f
	}
	if t.decorrelated() {
		forwardYCbCr(fp[0], fp[1], fp[2])
	}

	c := &Coded{
		Kind:    KindLossy,
		Modes:   make([]predictor.Mode, t.Channels),
		Symbols: make([]int32, 0, SymbolCount(KindLossy, t)),
	}
	bw, bh := (t.Width+7)/8, (t.Height+7)/8

	for ch := 0; ch < nColor; ch++ {
		steps := QuantTable(quality, t.BitDepth, ch > 0 && t.Channels >= 3)
		coeffs := make([]int32, bw*bh*64)
		dc := make([]int32, bw*bh)

		var block [64]float32
		for by := 0; by < bh; by++ {
			for bx := 0; bx < bw; bx++ {
				gatherBlock(&block, fp[ch], t.Width, t.Height, bx, by)
				fdct8x8(&block)
				b := by*bw + bx
				out := coeffs[b*64 : b*64+64]
				for i, pos := range zigzag {
					out[i] = quantize(block[pos], steps[pos])
				}
				dc[b] = out[0]
			}
		}

		mode := predictor.Left
		if effort >= 5 {
			mode = predictor.Best(dc, bw, bh, dcCandidates)
		}
		res := make([]int32, len(dc))
		predictor.Encode(res, dc, bw, bh, mode)
		for b, r := range res {
			coeffs[b*64] = r
		}

		c.Modes[ch] = mode
		c.Symbols = append(c.Symbols, coeffs...)
	}

	if t.hasAlpha() {
		alpha := planes[t.Channels-1]
		m := predictor.Best(alpha, t.Width, t.Height, PredictorCandidates(effort))
		res := make([]int32, len(alpha))
		predictor.Encode(res, alpha, t.Width, t.Height, m)
		c.Modes[t.Channels-1] = m
		c.Symbols = append(c.Symbols, res...)
	}
	return c
}

func inverseLossy(c *Coded, t *Tile, quality int) {
	nColor := lossyPlanes(t)
	shift := levelShift(t)
	bw, bh := (t.Width+7)/8, (t.Height+7)/8
	symbols := c.Symbols

	fp := make([][]float32, nColor)
	for ch := 0; ch < nColor; ch++ {
		steps := QuantTable(quality, t.BitDepth, ch > 0 && t.Channels >= 3)
		coeffs := symbols[:bw*bh*64]
		symbols = symbols[bw*bh*64:]

		dc := make([]int32, bw*bh)
		for b := range dc {
			dc[b] = coeffs[b*64]
		}
		predictor.Decode(dc, dc, bw, bh, c.Modes[ch])

		plane := make([]float32, t.Width*t.Height)
		var block [64]float32
		for by := 0; by < bh; by++ {
			for bx := 0; bx < bw; bx++ {
				b := by*bw + bx
				in := coeffs[b*64 : b*64+64]
				for i, pos := range zigzag {
					v := in[i]
					if i == 0 {
						v = dc[b]
					}
					block[pos] = float32(v) * float32(steps[pos])
				}
				idct8x8(&block)
				scatterBlock(&block, plane, t.Width, t.Height, bx, by)
			}
		}
		fp[ch] = plane
	}
	if t.decorrelated() {
		inverseYCbCr(fp[0], fp[1], fp[2])
	}

	planes := make([][]int32, t.Channels)
	limit := float32(t.maxSample())
	for ch, f := range fp {
		p := make([]int32, len(f))
		for i, v := range f {
			v = float32(math.Round(float64(v + shift)))
			p[i] = int32(min(max(v, 0), limit))
		}
		planes[ch] = p
	}
	if t.hasAlpha() {
		alpha := make([]int32, t.Width*t.Height)
		predictor.Decode(alpha, symbols, t.Width, t.Height, c.Modes[t.Channels-1])
		planes[t.Channels-1] = alpha
	}
	writePlanes(t, planes)
}

// gatherBlock copies block (bx, by) of a w x h plane, replicating the last
// row and column into positions outside the plane.
func gatherBlock(block *[64]float32, plane []float32, w, h, bx, by int) {
	for y := 0; y < 8; y++ {
		sy := min(by*8+y, h-1)
		row := plane[sy*w : sy*w+w]
		for x := 0; x < 8; x++ {
			block[y*8+x] = row[min(bx*8+x, w-1)]
		}
	}
}

// scatterBlock writes the part of block (bx, by) that lies inside the plane.
func scatterBlock(block *[64]float32, plane []float32, w, h, bx, by int) {
	for y := 0; y < 8 && by*8+y < h; y++ {
		row := plane[(by*8+y)*w:]
		for x := 0; x < 8 && bx*8+x < w; x++ {
			row[bx*8+x] = block[y*8+x]
		}
	}
}

func quantize(v float32, step int32) int32 {
	return int32(math.Round(float64(v) / float64(step)))
}
