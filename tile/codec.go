package tile

import (
	"errors"
	"fmt"

	"github.com/mrjoshuak/go-fresco/compression"
	"github.com/mrjoshuak/go-fresco/internal/predictor"
	"github.com/mrjoshuak/go-fresco/transform"
)

// ErrCorrupted wraps every failure to decode a tile stream.
var ErrCorrupted = errors.New("tile: corrupted tile stream")

// A tile stream is
//
//	[transform kind u8][mode count u8][mode u8 ...][entropy stream]
//
// with one predictor mode per channel.

// EncodeTile transforms and entropy codes one tile.
func EncodeTile(t *transform.Tile, p transform.Params) ([]byte, error) {
	c, err := transform.Forward(t, p)
	if err != nil {
		return nil, err
	}
	stream, err := compression.Encode(c.Symbols, p.Effort)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, 2+len(c.Modes)+len(stream))
	out = append(out, byte(c.Kind), byte(len(c.Modes)))
	for _, m := range c.Modes {
		out = append(out, byte(m))
	}
	return append(out, stream...), nil
}

// DecodeTile reconstructs t.Pix from a tile stream. The geometry of t must
// be set. When t.Pix is nil it is allocated once the entropy stream has
// decoded, so the buffer size is backed by real data rather than by the
// header alone. quality is the value recorded for lossy images.
func DecodeTile(data []byte, t *transform.Tile, quality int) error {
	if len(data) < 2 {
		return fmt.Errorf("%w: %d byte stream", ErrCorrupted, len(data))
	}
	kind := transform.Kind(data[0])
	nmodes := int(data[1])
	if nmodes != t.Channels || len(data) < 2+nmodes {
		return fmt.Errorf("%w: %d modes for %d channels", ErrCorrupted, nmodes, t.Channels)
	}
	modes := make([]predictor.Mode, nmodes)
	for i := range modes {
		modes[i] = predictor.Mode(data[2+i])
	}

	n := transform.SymbolCount(kind, t)
	if n < 0 {
		return fmt.Errorf("%w: transform %s", ErrCorrupted, kind)
	}
	symbols, err := compression.Decode(data[2+nmodes:], n)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCorrupted, err)
	}

	if t.Pix == nil {
		t.Pix = make([]byte, t.Width*t.Height*t.Channels*(t.BitDepth/8))
	}

	c := &transform.Coded{Kind: kind, Modes: modes, Symbols: symbols}
	if err := transform.Inverse(c, t, quality); err != nil {
		if errors.Is(err, transform.ErrCorrupted) {
			return fmt.Errorf("%w: %w", ErrCorrupted, err)
		}
		return err
	}
	return nil
}

// StreamInfo reports the transform kind and entropy method of a tile
// stream without decoding it.
func StreamInfo(data []byte) (transform.Kind, compression.Method, error) {
	if len(data) < 2 || len(data) < 2+int(data[1]) {
		return 0, 0, ErrCorrupted
	}
	m, err := compression.StreamMethod(data[2+int(data[1]):])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %w", ErrCorrupted, err)
	}
	return transform.Kind(data[0]), m, nil
}
