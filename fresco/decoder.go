package fresco

import (
	"sync"

	"github.com/mrjoshuak/go-fresco/container"
	"github.com/mrjoshuak/go-fresco/raster"
	"github.com/mrjoshuak/go-fresco/tile"
	"github.com/mrjoshuak/go-fresco/transform"
)

// Decoder reconstructs images from FRESCO containers. A Decoder is safe
// for concurrent use.
type Decoder struct {
	mu     sync.Mutex
	closed bool
	params DecodeParams
}

// NewDecoder returns a decoder using DefaultDecodeParams.
func NewDecoder() *Decoder {
	return &Decoder{params: DefaultDecodeParams()}
}

// SetParams validates and stores p.
func (d *Decoder) SetParams(p DecodeParams) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return newError("set params", InvalidParameter, "decoder is closed")
	}
	if err := p.Validate(); err != nil {
		return err
	}
	d.params = p
	return nil
}

// Close releases the decoder. Later calls fail with InvalidParameter.
func (d *Decoder) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

func (d *Decoder) begin(data []byte) (DecodeParams, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return DecodeParams{}, newError("decode", InvalidParameter, "decoder is closed")
	}
	if len(data) == 0 {
		return DecodeParams{}, newError("decode", InvalidParameter, "empty input")
	}
	return d.params, nil
}

// Decode returns the interleaved pixels of a container, 16-bit samples
// little-endian. The buffer comes from the current Allocator; release it
// with Free. With MetadataOnly set the result is nil.
func (d *Decoder) Decode(data []byte) ([]byte, error) {
	img, err := d.DecodeImage(data)
	if err != nil {
		return nil, err
	}
	return img.Pix, nil
}

// DecodeImage decodes a container into an Image whose Pix comes from the
// current Allocator. With MetadataOnly set only Info is filled in.
func (d *Decoder) DecodeImage(data []byte) (img *raster.Image, err error) {
	p, err := d.begin(data)
	if err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			img, err = nil, newError("decode", DecodingFailed, "panic: %v", r)
		}
	}()

	if p.MetadataOnly {
		info, err := container.ParseHeader(data)
		if err != nil {
			return nil, wrap("decode", err, DecodingFailed)
		}
		return &raster.Image{Info: info.Image}, nil
	}

	f, err := container.Parse(data)
	if err != nil {
		return nil, wrap("decode", err, DecodingFailed)
	}
	if p.Progressive && f.Preview != nil && p.OnPreview != nil {
		pv, err := decodePreview(f)
		if err != nil {
			return nil, wrap("decode", err, DecodingFailed)
		}
		p.OnPreview(pv)
	}

	sched := tile.NewScheduler(tile.Options{
		MaxThreads: p.MaxThreads,
		TileSize:   int(f.Info.TileSize),
		Params:     containerParams(&f.Info),
		Alloc:      alloc,
		Logger:     Logger(),
	})
	img, err = sched.Decode(f.Info.Image, f.Tiles)
	if err != nil {
		return nil, wrap("decode", err, DecodingFailed)
	}
	Logger().Debug("decoded", "image", img.Info.String(), "tiles", len(f.Tiles))
	return img, nil
}

// DecodePreview decodes only the embedded preview. It returns nil when
// the container has none.
func (d *Decoder) DecodePreview(data []byte) (img *raster.Image, err error) {
	if _, err := d.begin(data); err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			img, err = nil, newError("decode preview", DecodingFailed, "panic: %v", r)
		}
	}()
	f, err := container.Parse(data)
	if err != nil {
		return nil, wrap("decode preview", err, DecodingFailed)
	}
	if f.Preview == nil {
		return nil, nil
	}
	img, err = decodePreview(f)
	if err != nil {
		return nil, wrap("decode preview", err, DecodingFailed)
	}
	return img, nil
}

func containerParams(info *container.Info) transform.Params {
	return transform.Params{
		Lossless: info.Lossless(),
		Quality:  int(info.Quality),
		Effort:   int(info.Effort),
	}
}

func decodePreview(f *container.File) (*raster.Image, error) {
	info := f.Info.Image
	info.Width, info.Height = f.Preview.Width, f.Preview.Height
	if err := info.Validate(); err != nil {
		return nil, err
	}
	t := &transform.Tile{
		Width:       int(info.Width),
		Height:      int(info.Height),
		Channels:    int(info.Channels),
		BitDepth:    int(info.BitDepth),
		Decorrelate: info.ColorSpace.IsRGB(),
	}
	if err := tile.DecodeTile(f.Preview.Data, t, int(f.Info.Quality)); err != nil {
		return nil, err
	}
	return &raster.Image{Info: info, Pix: t.Pix}, nil
}
