package fresco

import (
	"fmt"
	"sync"

	"github.com/mrjoshuak/go-fresco/container"
	"github.com/mrjoshuak/go-fresco/raster"
	"github.com/mrjoshuak/go-fresco/tile"
	"github.com/mrjoshuak/go-fresco/transform"
)

type encoderState uint8

const (
	stateCreated encoderState = iota
	stateParamsSet
	stateReady
	stateClosed
)

func (s encoderState) String() string {
	switch s {
	case stateCreated:
		return "created"
	case stateParamsSet:
		return "params set"
	case stateReady:
		return "ready"
	default:
		return "closed"
	}
}

// Encoder turns images into FRESCO containers. An Encoder is safe for
// concurrent use; each call works on a snapshot of the parameters.
type Encoder struct {
	mu     sync.Mutex
	state  encoderState
	params EncodeParams
}

// NewEncoder returns an encoder using DefaultEncodeParams.
func NewEncoder() *Encoder {
	return &Encoder{params: DefaultEncodeParams()}
}

// SetParams validates p and stores a copy of it.
func (e *Encoder) SetParams(p EncodeParams) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == stateClosed {
		return newError("set params", InvalidParameter, "encoder is closed")
	}
	if err := p.Validate(); err != nil {
		return err
	}
	e.params = p.clone()
	e.state = stateParamsSet
	return nil
}

// Params returns a copy of the current parameters.
func (e *Encoder) Params() EncodeParams {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.params.clone()
}

// Close releases the encoder. Later calls fail with InvalidParameter.
func (e *Encoder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = stateClosed
	return nil
}

func (e *Encoder) begin() (EncodeParams, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == stateClosed {
		return EncodeParams{}, newError("encode", InvalidParameter, "encoder is closed")
	}
	e.state = stateReady
	return e.params.clone(), nil
}

// Encode encodes a self-describing input: a raw FRAW buffer or an image
// in a registered format (PNG, JPEG, BMP, TIFF, JPEG 2000). The returned
// buffer comes from the current Allocator; release it with Free.
func (e *Encoder) Encode(input []byte) ([]byte, error) {
	if len(input) == 0 {
		return nil, newError("encode", InvalidParameter, "empty input")
	}
	img, err := raster.Sniff(input)
	if err != nil {
		return nil, wrap("encode", err, UnsupportedFormat)
	}
	return e.EncodeImage(img)
}

// EncodeRaw encodes interleaved samples described by info. 16-bit samples
// are little-endian.
func (e *Encoder) EncodeRaw(info raster.ImageInfo, pix []byte) ([]byte, error) {
	if len(pix) == 0 {
		return nil, newError("encode", InvalidParameter, "empty pixel buffer")
	}
	if err := raster.Validate(info, len(pix)); err != nil {
		return nil, wrap("encode", err, InvalidParameter)
	}
	return e.EncodeImage(&raster.Image{Info: info, Pix: pix})
}

// EncodeImage encodes img.
func (e *Encoder) EncodeImage(img *raster.Image) (out []byte, err error) {
	if img == nil || len(img.Pix) == 0 {
		return nil, newError("encode", InvalidParameter, "no image")
	}
	if err := img.Validate(); err != nil {
		return nil, wrap("encode", err, InvalidParameter)
	}
	p, err := e.begin()
	if err != nil {
		return nil, err
	}
	if p.reserved() {
		return nil, newError("encode", NotImplemented, "animation, 3D and vector payloads")
	}

	defer func() {
		if r := recover(); r != nil {
			out, err = nil, newError("encode", EncodingFailed, "panic: %v", r)
		}
	}()

	data, err := encode(img, &p)
	if err != nil {
		return nil, wrap("encode", err, EncodingFailed)
	}
	out, err = alloc(len(data))
	if err != nil {
		return nil, wrap("encode", err, OutOfMemory)
	}
	copy(out, data)
	return out, nil
}

func transformParams(p *EncodeParams) transform.Params {
	return transform.Params{
		Lossless: p.Mode == Lossless,
		Quality:  p.Quality,
		Effort:   p.Effort,
	}
}

func encode(img *raster.Image, p *EncodeParams) ([]byte, error) {
	log := Logger()
	size := p.tileSize()
	sched := tile.NewScheduler(tile.Options{
		MaxThreads: p.MaxThreads,
		TileSize:   size,
		Params:     transformParams(p),
		Logger:     log,
	})
	tiles, grid, err := sched.Encode(img)
	if err != nil {
		return nil, err
	}

	streams := make([][]byte, len(tiles))
	for i, t := range tiles {
		streams[i] = t.Data
	}

	var preview *container.Preview
	if p.Preview {
		if preview, err = encodePreview(img, p); err != nil {
			return nil, fmt.Errorf("preview: %w", err)
		}
	}

	info := container.Info{
		Image:      img.Info,
		Quality:    uint8(p.Quality),
		Effort:     uint8(p.Effort),
		TileSize:   uint32(size),
		TileCols:   uint32(grid.Cols),
		TileRows:   uint32(grid.Rows),
		FrameCount: 1,
	}
	if p.Mode == Lossless {
		info.Flags |= container.FlagLossless
	}
	data, err := container.Write(info, streams, preview, p.Attributes)
	if err != nil {
		return nil, err
	}
	log.Debug("encoded", "image", img.Info.String(), "mode", p.Mode.String(),
		"tiles", len(tiles), "bytes", len(data))
	return data, nil
}

// encodePreview codes a downscaled copy of img as a single tile with the
// image's own transform parameters.
func encodePreview(img *raster.Image, p *EncodeParams) (*container.Preview, error) {
	pv := raster.Preview(img, PreviewMaxSize, PreviewMaxSize)
	if pv == nil {
		return nil, nil
	}
	t := &transform.Tile{
		Width:       int(pv.Info.Width),
		Height:      int(pv.Info.Height),
		Channels:    int(pv.Info.Channels),
		BitDepth:    int(pv.Info.BitDepth),
		Decorrelate: pv.Info.ColorSpace.IsRGB(),
		Pix:         pv.Pix,
	}
	data, err := tile.EncodeTile(t, transformParams(p))
	if err != nil {
		return nil, err
	}
	return &container.Preview{Width: pv.Info.Width, Height: pv.Info.Height, Data: data}, nil
}
