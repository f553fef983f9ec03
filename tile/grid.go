// Package tile partitions images into independently coded tiles and runs
// their transform and entropy stages on a bounded worker pool.
package tile

import (
	"errors"
	"fmt"
	"image"
)

// Tile size bounds
const (
	MinSize     = 8
	MaxSize     = 65536
	DefaultSize = 256
)

// Errors
var (
	ErrTileSize = errors.New("tile: tile size out of range")
	ErrGeometry = errors.New("tile: invalid image geometry")
)

// Index addresses a tile by row and column.
type Index struct {
	Row, Col int
}

// Grid partitions a Width x Height image into tiles of Size pixels per
// edge. Tiles are numbered row-major; the last row and column are clipped
// to the image bounds.
type Grid struct {
	Width, Height int
	Size          int
	Cols, Rows    int
}

// NewGrid computes the tile layout for an image.
func NewGrid(width, height, size int) (Grid, error) {
	if size < MinSize || size > MaxSize {
		return Grid{}, fmt.Errorf("%w: %d", ErrTileSize, size)
	}
	if width <= 0 || height <= 0 {
		return Grid{}, fmt.Errorf("%w: %dx%d", ErrGeometry, width, height)
	}
	return Grid{
		Width:  width,
		Height: height,
		Size:   size,
		Cols:   (width + size - 1) / size,
		Rows:   (height + size - 1) / size,
	}, nil
}

// Count returns the number of tiles.
func (g Grid) Count() int {
	return g.Cols * g.Rows
}

// Index returns the row and column of tile i.
func (g Grid) Index(i int) Index {
	return Index{Row: i / g.Cols, Col: i % g.Cols}
}

// Rect returns the pixel rectangle of tile i, clipped to the image.
func (g Grid) Rect(i int) image.Rectangle {
	idx := g.Index(i)
	x0, y0 := idx.Col*g.Size, idx.Row*g.Size
	return image.Rect(x0, y0, min(x0+g.Size, g.Width), min(y0+g.Size, g.Height))
}
