package fresco

import (
	"maps"
	"math"

	"github.com/mrjoshuak/go-fresco/compression"
	"github.com/mrjoshuak/go-fresco/raster"
	"github.com/mrjoshuak/go-fresco/tile"
)

// Mode selects the coding path.
type Mode uint8

// Coding modes
const (
	Lossy    Mode = 0
	Lossless Mode = 1
)

func (m Mode) String() string {
	switch m {
	case Lossy:
		return "lossy"
	case Lossless:
		return "lossless"
	default:
		return "unknown"
	}
}

// Parameter limits
const (
	MinQuality  = 1
	MaxQuality  = 100
	MinEffort   = compression.MinEffort
	MaxEffort   = compression.MaxEffort
	MinTileSize = tile.MinSize
	MaxTileSize = tile.MaxSize

	// PreviewMaxSize bounds both preview dimensions.
	PreviewMaxSize = 256
)

// EncodeParams controls encoding. The encoder keeps its own copy.
type EncodeParams struct {
	Mode    Mode
	Quality int // 1..100, used by the lossy path
	Effort  int // 1..10, speed versus size

	// MaxThreads bounds tile parallelism; 0 uses GOMAXPROCS at call time.
	MaxThreads int

	// TileSize is the tile edge in pixels; 0 selects the default.
	TileSize int

	// Reserved features. Accepted here, rejected by Encode with
	// NotImplemented.
	EnableAnimation bool
	Enable3D        bool
	EnableVector    bool

	// Preview embeds a low resolution copy for progressive decoding.
	Preview bool

	// Attributes are stored verbatim in the container.
	Attributes map[string]string
}

// DefaultEncodeParams returns lossy quality 85, effort 5, automatic
// threads and 256 pixel tiles.
func DefaultEncodeParams() EncodeParams {
	return EncodeParams{
		Mode:     Lossy,
		Quality:  85,
		Effort:   5,
		TileSize: tile.DefaultSize,
	}
}

// Validate checks every field and returns an InvalidParameter error for
// the first bad one.
func (p *EncodeParams) Validate() error {
	const op = "params"
	switch {
	case p.Mode != Lossy && p.Mode != Lossless:
		return newError(op, InvalidParameter, "mode %d", p.Mode)
	case p.Quality < MinQuality || p.Quality > MaxQuality:
		return newError(op, InvalidParameter, "quality %d outside [%d, %d]", p.Quality, MinQuality, MaxQuality)
	case p.Effort < MinEffort || p.Effort > MaxEffort:
		return newError(op, InvalidParameter, "effort %d outside [%d, %d]", p.Effort, MinEffort, MaxEffort)
	case p.MaxThreads < 0:
		return newError(op, InvalidParameter, "max threads %d", p.MaxThreads)
	case p.TileSize != 0 && (p.TileSize < MinTileSize || p.TileSize > MaxTileSize):
		return newError(op, InvalidParameter, "tile size %d outside [%d, %d]", p.TileSize, MinTileSize, MaxTileSize)
	case len(p.Attributes) > math.MaxUint16:
		return newError(op, InvalidParameter, "%d attributes", len(p.Attributes))
	}
	for k, v := range p.Attributes {
		if k == "" || len(k) > math.MaxUint16 || uint64(len(v)) > math.MaxUint32 {
			return newError(op, InvalidParameter, "attribute %q", k)
		}
	}
	return nil
}

func (p *EncodeParams) reserved() bool {
	return p.EnableAnimation || p.Enable3D || p.EnableVector
}

func (p *EncodeParams) tileSize() int {
	if p.TileSize == 0 {
		return tile.DefaultSize
	}
	return p.TileSize
}

func (p EncodeParams) clone() EncodeParams {
	p.Attributes = maps.Clone(p.Attributes)
	return p
}

// DecodeParams controls decoding.
type DecodeParams struct {
	// MaxThreads bounds tile parallelism; 0 uses GOMAXPROCS at call time.
	MaxThreads int

	// Progressive decodes the embedded preview first and passes it to
	// OnPreview before the full image is reconstructed.
	Progressive bool

	// MetadataOnly skips pixel reconstruction.
	MetadataOnly bool

	// OnPreview receives the preview during a progressive decode.
	OnPreview func(*raster.Image)
}

// DefaultDecodeParams returns automatic threads and a full decode.
func DefaultDecodeParams() DecodeParams {
	return DecodeParams{}
}

// Validate checks the parameters.
func (p *DecodeParams) Validate() error {
	if p.MaxThreads < 0 {
		return newError("params", InvalidParameter, "max threads %d", p.MaxThreads)
	}
	return nil
}
