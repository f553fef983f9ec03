// Package raster describes in-memory pixel buffers and detects the shape
// of encoder input.
//
// Pixels are stored interleaved, row-major, with no padding between rows.
// 16-bit samples are little-endian.
package raster

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedFormat is returned when input bytes or an ImageInfo do not
// describe a supported image.
var ErrUnsupportedFormat = errors.New("raster: unsupported format")

// ColorSpace labels the meaning of the channels. The numeric values are
// stored in container headers.
type ColorSpace uint8

// Color spaces
const (
	RGB ColorSpace = iota
	RGBA
	YUV420
	YUV422
	YUV444
	Gray
	GrayA
)

var colorSpaceNames = [...]string{"rgb", "rgba", "yuv420", "yuv422", "yuv444", "gray", "graya"}

// String returns the lower-case name of the color space.
func (c ColorSpace) String() string {
	if int(c) < len(colorSpaceNames) {
		return colorSpaceNames[c]
	}
	return fmt.Sprintf("colorspace(%d)", uint8(c))
}

// Channels returns the channel count the color space requires, or 0 for
// unknown values.
func (c ColorSpace) Channels() int {
	switch c {
	case Gray:
		return 1
	case GrayA:
		return 2
	case RGB, YUV420, YUV422, YUV444:
		return 3
	case RGBA:
		return 4
	default:
		return 0
	}
}

// IsRGB reports whether the first three channels are R, G and B.
func (c ColorSpace) IsRGB() bool {
	return c == RGB || c == RGBA
}

// IsYUV reports whether the channels are Y, U and V.
func (c ColorSpace) IsYUV() bool {
	return c == YUV420 || c == YUV422 || c == YUV444
}

// ParseColorSpace parses a name as printed by String.
func ParseColorSpace(s string) (ColorSpace, error) {
	s = strings.ToLower(s)
	for i, name := range colorSpaceNames {
		if s == name {
			return ColorSpace(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown colorspace %q", ErrUnsupportedFormat, s)
}

// DefaultColorSpace returns the natural color space for a channel count.
func DefaultColorSpace(channels int) ColorSpace {
	switch channels {
	case 1:
		return Gray
	case 2:
		return GrayA
	case 4:
		return RGBA
	default:
		return RGB
	}
}

// ImageInfo describes the geometry and sample format of an image.
type ImageInfo struct {
	Width      uint32
	Height     uint32
	Channels   uint8 // 1..4
	BitDepth   uint8 // 8 or 16
	ColorSpace ColorSpace
}

// BytesPerSample returns 1 or 2.
func (info ImageInfo) BytesPerSample() int {
	return int(info.BitDepth+7) / 8
}

// BufferSize returns width*height*channels*bytesPerSample.
func (info ImageInfo) BufferSize() uint64 {
	return uint64(info.Width) * uint64(info.Height) * uint64(info.Channels) * uint64(info.BytesPerSample())
}

// Stride returns the number of bytes per row.
func (info ImageInfo) Stride() int {
	return int(info.Width) * int(info.Channels) * info.BytesPerSample()
}

func (info ImageInfo) String() string {
	return fmt.Sprintf("%dx%d %s %d-bit", info.Width, info.Height, info.ColorSpace, info.BitDepth)
}

// Validate checks the fields of info without reference to a buffer.
func (info ImageInfo) Validate() error {
	if info.Width == 0 || info.Height == 0 {
		return fmt.Errorf("%w: dimensions %dx%d", ErrUnsupportedFormat, info.Width, info.Height)
	}
	if info.Channels < 1 || info.Channels > 4 {
		return fmt.Errorf("%w: %d channels", ErrUnsupportedFormat, info.Channels)
	}
	if info.BitDepth != 8 && info.BitDepth != 16 {
		return fmt.Errorf("%w: bit depth %d", ErrUnsupportedFormat, info.BitDepth)
	}
	if want := info.ColorSpace.Channels(); want != int(info.Channels) {
		return fmt.Errorf("%w: colorspace %s with %d channels", ErrUnsupportedFormat, info.ColorSpace, info.Channels)
	}
	return nil
}

// Validate checks info and the buffer size invariant for a buffer of size
// bytes.
func Validate(info ImageInfo, size int) error {
	if err := info.Validate(); err != nil {
		return err
	}
	if size < 0 || uint64(size) != info.BufferSize() {
		return fmt.Errorf("%w: buffer is %d bytes, %s needs %d", ErrUnsupportedFormat, size, info, info.BufferSize())
	}
	return nil
}

// Image is a pixel buffer with its description.
type Image struct {
	Info ImageInfo
	Pix  []byte
}

// NewImage allocates a zeroed image.
func NewImage(info ImageInfo) (*Image, error) {
	if err := info.Validate(); err != nil {
		return nil, err
	}
	return &Image{Info: info, Pix: make([]byte, info.BufferSize())}, nil
}

// Validate checks the buffer size invariant.
func (img *Image) Validate() error {
	return Validate(img.Info, len(img.Pix))
}

// CopyRect copies the w x h rectangle at (x, y) into a tightly packed
// buffer.
func (img *Image) CopyRect(x, y, w, h int) []byte {
	stride := img.Info.Stride()
	pixel := int(img.Info.Channels) * img.Info.BytesPerSample()
	row := w * pixel
	out := make([]byte, row*h)
	for r := 0; r < h; r++ {
		off := (y+r)*stride + x*pixel
		copy(out[r*row:], img.Pix[off:off+row])
	}
	return out
}

// SetRect writes a tightly packed w x h buffer at (x, y).
func (img *Image) SetRect(x, y, w, h int, src []byte) {
	stride := img.Info.Stride()
	pixel := int(img.Info.Channels) * img.Info.BytesPerSample()
	row := w * pixel
	for r := 0; r < h; r++ {
		off := (y+r)*stride + x*pixel
		copy(img.Pix[off:off+row], src[r*row:(r+1)*row])
	}
}
