package transform

import (
	"github.com/mrjoshuak/go-fresco/internal/predictor"
)

func forwardLossless(t *Tile, effort int) *Coded {
	planes := readPlanes(t)
	if t.decorrelated() {
		forwardRCT(planes[0], planes[1], planes[2])
	}

	c := &Coded{
		Kind:    KindLossless,
		Modes:   make([]predictor.Mode, t.Channels),
		Symbols: make([]int32, t.Width*t.Height*t.Channels),
	}
	n := t.Width * t.Height
	candidates := PredictorCandidates(effort)
	for ch, p := range planes {
		m := predictor.Best(p, t.Width, t.Height, candidates)
		c.Modes[ch] = m
		predictor.Encode(c.Symbols[ch*n:(ch+1)*n], p, t.Width, t.Height, m)
	}
	return c
}

func inverseLossless(c *Coded, t *Tile) {
	n := t.Width * t.Height
	planes := make([][]int32, t.Channels)
	for ch := range planes {
		p := make([]int32, n)
		predictor.Decode(p, c.Symbols[ch*n:(ch+1)*n], t.Width, t.Height, c.Modes[ch])
		planes[ch] = p
	}
	if t.decorrelated() {
		inverseRCT(planes[0], planes[1], planes[2])
	}
	writePlanes(t, planes)
}
