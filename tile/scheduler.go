package tile

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/mrjoshuak/go-fresco/raster"
	"github.com/mrjoshuak/go-fresco/transform"
)

// Options configures a Scheduler.
type Options struct {
	// MaxThreads bounds the worker pool; 0 means GOMAXPROCS at call time.
	MaxThreads int

	// TileSize is the tile edge in pixels.
	TileSize int

	// Params selects the transform path. Quality is also needed to decode
	// lossy tiles.
	Params transform.Params

	// Alloc, when set, provides the decoded image buffer.
	Alloc func(n int) ([]byte, error)

	// Logger receives debug records; nil disables logging.
	Logger *slog.Logger
}

// DefaultOptions returns lossy quality 85, effort 5, 256 pixel tiles and
// automatic thread count.
func DefaultOptions() Options {
	return Options{
		TileSize: DefaultSize,
		Params:   transform.Params{Quality: 85, Effort: 5},
	}
}

// CompressedTile is the coded form of one tile. Each tile owns its Data.
type CompressedTile struct {
	Index Index
	Rect  image.Rectangle
	Data  []byte
}

// Scheduler runs tile encode and decode work on a bounded worker pool.
type Scheduler struct {
	opts Options
}

// NewScheduler creates a scheduler with fixed options.
func NewScheduler(opts Options) *Scheduler {
	return &Scheduler{opts: opts}
}

func (s *Scheduler) debug(msg string, args ...any) {
	if s.opts.Logger != nil {
		s.opts.Logger.Debug(msg, args...)
	}
}

func tileOf(info raster.ImageInfo, r image.Rectangle) *transform.Tile {
	return &transform.Tile{
		Width:       r.Dx(),
		Height:      r.Dy(),
		Channels:    int(info.Channels),
		BitDepth:    int(info.BitDepth),
		Decorrelate: info.ColorSpace.IsRGB(),
	}
}

// Encode codes every tile of img and returns them in row-major order.
// The output is identical for every worker count.
func (s *Scheduler) Encode(img *raster.Image) ([]CompressedTile, Grid, error) {
	if err := img.Validate(); err != nil {
		return nil, Grid{}, err
	}
	grid, err := NewGrid(int(img.Info.Width), int(img.Info.Height), s.opts.TileSize)
	if err != nil {
		return nil, Grid{}, err
	}
	n := grid.Count()
	workers := Workers(s.opts.MaxThreads, n)
	s.debug("encode tiles", "cols", grid.Cols, "rows", grid.Rows, "workers", workers)

	tiles := make([]CompressedTile, n)
	err = Run(n, workers, func(i int) error {
		r := grid.Rect(i)
		t := tileOf(img.Info, r)
		t.Pix = img.CopyRect(r.Min.X, r.Min.Y, r.Dx(), r.Dy())
		data, err := EncodeTile(t, s.opts.Params)
		if err != nil {
			return fmt.Errorf("tile %d: %w", i, err)
		}
		tiles[i] = CompressedTile{Index: grid.Index(i), Rect: r, Data: data}
		return nil
	})
	if err != nil {
		return nil, Grid{}, err
	}
	return tiles, grid, nil
}

// Decode reconstructs an image from its tile streams, given in row-major
// order. Workers decode into private buffers; the coordinator assembles
// the output after all of them finish. No pixel memory is committed for a
// tile until its stream has decoded.
func (s *Scheduler) Decode(info raster.ImageInfo, streams [][]byte) (*raster.Image, error) {
	if err := info.Validate(); err != nil {
		return nil, err
	}
	grid, err := NewGrid(int(info.Width), int(info.Height), s.opts.TileSize)
	if err != nil {
		return nil, err
	}
	n := grid.Count()
	if len(streams) != n {
		return nil, fmt.Errorf("%w: %d tile streams for a %dx%d grid", ErrCorrupted, len(streams), grid.Cols, grid.Rows)
	}
	workers := Workers(s.opts.MaxThreads, n)
	s.debug("decode tiles", "cols", grid.Cols, "rows", grid.Rows, "workers", workers)

	decoded := make([][]byte, n)
	err = Run(n, workers, func(i int) error {
		r := grid.Rect(i)
		t := tileOf(info, r)
		if err := DecodeTile(streams[i], t, s.opts.Params.Quality); err != nil {
			return fmt.Errorf("tile %d: %w", i, err)
		}
		decoded[i] = t.Pix
		return nil
	})
	if err != nil {
		return nil, err
	}

	size := int(info.BufferSize())
	var pix []byte
	if s.opts.Alloc != nil {
		if pix, err = s.opts.Alloc(size); err != nil {
			return nil, err
		}
	} else {
		pix = make([]byte, size)
	}
	img := &raster.Image{Info: info, Pix: pix}
	for i, data := range decoded {
		r := grid.Rect(i)
		img.SetRect(r.Min.X, r.Min.Y, r.Dx(), r.Dy(), data)
	}
	return img, nil
}
