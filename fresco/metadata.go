package fresco

import (
	"fmt"

	"github.com/mrjoshuak/go-fresco/container"
	"github.com/mrjoshuak/go-fresco/raster"
)

// Library version
const (
	VersionMajor = 0
	VersionMinor = 1
	VersionPatch = 0
)

// Version returns the library version.
func Version() (major, minor, patch int) {
	return VersionMajor, VersionMinor, VersionPatch
}

// VersionString returns the version as "major.minor.patch".
func VersionString() string {
	return fmt.Sprintf("%d.%d.%d", VersionMajor, VersionMinor, VersionPatch)
}

// Metadata describes a container. It is read from the fixed header only.
type Metadata struct {
	raster.ImageInfo

	Mode       Mode
	Quality    int
	Effort     int
	TileSize   int
	TileCols   int
	TileRows   int
	HasPreview bool

	FrameCount     uint32
	FrameRate      float32
	FileSize       uint64
	CompressedSize uint64
}

// GetMetadata describes a container without decoding any tile.
func GetMetadata(data []byte) (Metadata, error) {
	if len(data) == 0 {
		return Metadata{}, newError("metadata", InvalidParameter, "empty input")
	}
	info, err := container.ParseHeader(data)
	if err != nil {
		return Metadata{}, wrap("metadata", err, DecodingFailed)
	}
	m := Metadata{
		ImageInfo:      info.Image,
		Mode:           Lossy,
		Quality:        int(info.Quality),
		Effort:         int(info.Effort),
		TileSize:       int(info.TileSize),
		TileCols:       int(info.TileCols),
		TileRows:       int(info.TileRows),
		HasPreview:     info.HasPreview(),
		FrameCount:     info.FrameCount,
		FrameRate:      info.FrameRate,
		FileSize:       info.FileSize,
		CompressedSize: info.CompressedSize,
	}
	if info.Lossless() {
		m.Mode = Lossless
	}
	return m, nil
}
