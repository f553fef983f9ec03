package raster

import (
	"bytes"
	"fmt"
	"image"

	// Formats accepted by Sniff.
	_ "image/jpeg"
	_ "image/png"

	_ "github.com/mrjoshuak/go-jpeg2000"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// Sniff infers the image described by data. Geometry is never guessed
// from the byte count: data must either carry the raw header or be an
// encoded image in a format registered with the image package (PNG, JPEG,
// BMP, TIFF, JPEG 2000).
func Sniff(data []byte) (*Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrUnsupportedFormat)
	}
	if IsRaw(data) {
		return DecodeRaw(data)
	}

	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	return FromImage(src)
}

// SniffFormat names the container of data without decoding pixels:
// "fraw", a registered image format name, or "" when unknown.
func SniffFormat(data []byte) string {
	if IsRaw(data) {
		return "fraw"
	}
	_, name, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return ""
	}
	return name
}
