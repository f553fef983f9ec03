// Package transform converts tile samples into integer symbols with low
// entropy, and back.
//
// Two paths are provided:
//
//   - Lossless: a reversible color transform for RGB data followed by
//     causal 2D prediction per plane. Reconstruction is exact.
//   - Lossy: level shift, YCbCr conversion, 8x8 DCT and quantization with
//     quality scaled JPEG tables. Alpha planes stay lossless.
//
// The output of Forward is a Coded value: one mode byte per plane plus
// the symbol sequence handed to the entropy coder.
package transform

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/mrjoshuak/go-fresco/internal/predictor"
)

// Kind identifies the transform path of a tile. The numeric values are
// part of the bitstream.
type Kind uint8

// Transform kinds
const (
	KindLossless Kind = 0
	KindLossy    Kind = 1
)

func (k Kind) String() string {
	switch k {
	case KindLossless:
		return "lossless"
	case KindLossy:
		return "lossy"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Transform errors
var (
	// ErrGeometry reports a tile buffer that disagrees with its declared
	// dimensions, channel count or bit depth.
	ErrGeometry = errors.New("transform: tile geometry mismatch")
	// ErrCorrupted reports coded data inconsistent with the tile geometry.
	ErrCorrupted = errors.New("transform: corrupted tile data")
	// ErrParams reports out of range quality or effort.
	ErrParams = errors.New("transform: invalid parameters")
)

// Tile is a rectangle of interleaved samples. 16-bit samples are stored
// little-endian.
type Tile struct {
	Width    int
	Height   int
	Channels int // 1..4
	BitDepth int // 8 or 16

	// Decorrelate enables the RGB color transform on the first three
	// channels. It is only honored for 3 and 4 channel tiles.
	Decorrelate bool

	Pix []byte
}

// Validate checks the buffer size invariant.
func (t *Tile) Validate() error {
	if t.Width <= 0 || t.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrGeometry, t.Width, t.Height)
	}
	if t.Channels < 1 || t.Channels > 4 {
		return fmt.Errorf("%w: %d channels", ErrGeometry, t.Channels)
	}
	if t.BitDepth != 8 && t.BitDepth != 16 {
		return fmt.Errorf("%w: bit depth %d", ErrGeometry, t.BitDepth)
	}
	if want := t.Width * t.Height * t.Channels * (t.BitDepth / 8); len(t.Pix) != want {
		return fmt.Errorf("%w: buffer is %d bytes, want %d", ErrGeometry, len(t.Pix), want)
	}
	return nil
}

func (t *Tile) decorrelated() bool {
	return t.Decorrelate && t.Channels >= 3
}

// hasAlpha reports whether the last channel is alpha (GRAYA or RGBA).
func (t *Tile) hasAlpha() bool {
	return t.Channels == 2 || t.Channels == 4
}

func (t *Tile) maxSample() int32 {
	return int32(1)<<t.BitDepth - 1
}

// Params selects the transform path and its search depth.
type Params struct {
	Lossless bool
	Quality  int // 1..100, lossy only
	Effort   int // 1..10
}

func (p Params) validate() error {
	if p.Effort < 1 || p.Effort > 10 {
		return fmt.Errorf("%w: effort %d", ErrParams, p.Effort)
	}
	if !p.Lossless && (p.Quality < 1 || p.Quality > 100) {
		return fmt.Errorf("%w: quality %d", ErrParams, p.Quality)
	}
	return nil
}

// Coded is the transformed form of a tile.
type Coded struct {
	Kind    Kind
	Modes   []predictor.Mode // one per channel
	Symbols []int32
}

// Forward transforms a tile.
func Forward(t *Tile, p Params) (*Coded, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	if p.Lossless {
		return forwardLossless(t, p.Effort), nil
	}
	return forwardLossy(t, p.Quality, p.Effort), nil
}

// Inverse reconstructs t.Pix from c. The geometry fields of t must be set
// and t.Pix must already have the right size. quality must match the value
// used by Forward for lossy tiles.
func Inverse(c *Coded, t *Tile, quality int) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if len(c.Modes) != t.Channels {
		return fmt.Errorf("%w: %d modes for %d channels", ErrCorrupted, len(c.Modes), t.Channels)
	}
	for _, m := range c.Modes {
		if !m.Valid() {
			return fmt.Errorf("%w: predictor %s", ErrCorrupted, m)
		}
	}
	if n := SymbolCount(c.Kind, t); n < 0 || len(c.Symbols) != n {
		return fmt.Errorf("%w: %d symbols, want %d", ErrCorrupted, len(c.Symbols), n)
	}

	switch c.Kind {
	case KindLossless:
		inverseLossless(c, t)
	case KindLossy:
		if quality < 1 || quality > 100 {
			return fmt.Errorf("%w: quality %d", ErrCorrupted, quality)
		}
		inverseLossy(c, t, quality)
	default:
		return fmt.Errorf("%w: unknown kind %s", ErrCorrupted, c.Kind)
	}
	return nil
}

// SymbolCount returns the number of symbols a tile of the given kind and
// geometry produces, or -1 for an unknown kind.
func SymbolCount(k Kind, t *Tile) int {
	plane := t.Width * t.Height
	switch k {
	case KindLossless:
		return plane * t.Channels
	case KindLossy:
		blocks := ((t.Width + 7) / 8) * ((t.Height + 7) / 8)
		n := 0
		for ch := 0; ch < t.Channels; ch++ {
			if t.hasAlpha() && ch == t.Channels-1 {
				n += plane
			} else {
				n += blocks * 64
			}
		}
		return n
	default:
		return -1
	}
}

// PredictorCandidates returns the prediction modes searched at an effort
// level.
func PredictorCandidates(effort int) []predictor.Mode {
	switch {
	case effort <= 1:
		return []predictor.Mode{predictor.MED}
	case effort <= 4:
		return []predictor.Mode{predictor.Left, predictor.Up, predictor.MED}
	default:
		return []predictor.Mode{
			predictor.None, predictor.Left, predictor.Up, predictor.Average,
			predictor.Paeth, predictor.MED, predictor.Gradient,
		}
	}
}

// readPlanes splits interleaved samples into one int32 plane per channel.
func readPlanes(t *Tile) [][]int32 {
	n := t.Width * t.Height
	planes := make([][]int32, t.Channels)
	for ch := range planes {
		planes[ch] = make([]int32, n)
	}
	if t.BitDepth == 8 {
		for i := 0; i < n; i++ {
			for ch, p := range planes {
				p[i] = int32(t.Pix[i*t.Channels+ch])
			}
		}
		return planes
	}
	for i := 0; i < n; i++ {
		for ch, p := range planes {
			p[i] = int32(binary.LittleEndian.Uint16(t.Pix[(i*t.Channels+ch)*2:]))
		}
	}
	return planes
}

// writePlanes interleaves planes back into t.Pix, clamping to the sample
// range.
func writePlanes(t *Tile, planes [][]int32) {
	n := t.Width * t.Height
	maxV := t.maxSample()
	for i := 0; i < n; i++ {
		for ch, p := range planes {
			v := min(max(p[i], 0), maxV)
			if t.BitDepth == 8 {
				t.Pix[i*t.Channels+ch] = byte(v)
			} else {
				binary.LittleEndian.PutUint16(t.Pix[(i*t.Channels+ch)*2:], uint16(v))
			}
		}
	}
}
