// Package container frames FRESCO tile streams in ISO base media file
// format style boxes.
//
// Layout (all integers big-endian):
//
//	ftyp  20 bytes   major brand "frsc", minor version, compatible brand
//	fhdr  60 bytes   fixed image header, ends with a CRC-32 of bytes 0..75
//	meta  optional   string attributes
//	prev  optional   low resolution preview tile stream
//	tdat             per tile [u32 length][u32 CRC-32C][stream], row-major
//
// The first 80 bytes are always ftyp followed by fhdr, so ParseHeader can
// describe an image without touching its payload.
package container

import (
	"errors"
	"fmt"

	"github.com/mrjoshuak/go-fresco/raster"
)

// Box types and brand
const (
	BoxFileType = "ftyp"
	BoxHeader   = "fhdr"
	BoxMeta     = "meta"
	BoxPreview  = "prev"
	BoxTileData = "tdat"

	Brand        = "frsc"
	MinorVersion = 0
)

// Fixed sizes
const (
	FileTypeSize  = 20
	HeaderBoxSize = 60

	// HeaderSize is the fixed region read by ParseHeader.
	HeaderSize = FileTypeSize + HeaderBoxSize

	boxHeaderSize      = 8
	largeBoxHeaderSize = 16
	tileEntryHeader    = 8
	crcOffset          = HeaderSize - 4
)

// Tile edge bounds accepted in a header. They match the tile package.
const (
	MinTileSize = 8
	MaxTileSize = 65536
)

// Version is the header version written by this package.
const Version = 1

// Header flags
const (
	FlagLossless   uint8 = 1 << 0
	FlagPreview    uint8 = 1 << 1
	FlagAnimation  uint8 = 1 << 2
	Flag3D         uint8 = 1 << 3
	FlagVector     uint8 = 1 << 4
	FlagAttributes uint8 = 1 << 5
)

// Errors
var (
	// ErrUnsupported reports data that is not a FRESCO container or uses
	// an unknown version.
	ErrUnsupported = errors.New("container: unsupported format")
	// ErrCorrupted reports a structurally invalid or truncated container.
	ErrCorrupted = errors.New("container: corrupted data")
)

// Info is the content of the fixed header.
type Info struct {
	Image raster.ImageInfo
	Flags uint8

	Quality  uint8
	Effort   uint8
	TileSize uint32
	TileCols uint32
	TileRows uint32

	FrameCount uint32
	FrameRate  float32

	// CompressedSize is the size of the tile payload.
	CompressedSize uint64
	// FileSize is the length of the buffer the header was parsed from.
	FileSize uint64
}

// Lossless reports whether the tiles use the lossless transform.
func (i *Info) Lossless() bool { return i.Flags&FlagLossless != 0 }

// HasPreview reports whether a prev box is present.
func (i *Info) HasPreview() bool { return i.Flags&FlagPreview != 0 }

// Preview is an embedded low resolution copy of the image, coded as a
// single tile with the image's channel layout.
type Preview struct {
	Width  uint32
	Height uint32
	Data   []byte
}

// File is a fully parsed container. Tiles and Preview.Data alias the
// parsed buffer.
type File struct {
	Info       Info
	Attributes map[string]string
	Preview    *Preview
	Tiles      [][]byte
}

func corruptf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorrupted, fmt.Sprintf(format, args...))
}
