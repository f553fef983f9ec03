package raster

import (
	"bytes"
	"fmt"

	"github.com/mrjoshuak/go-fresco/internal/xdr"
)

// Raw header layout (big-endian):
//
//	magic "FRAW" | version u8 | channels u8 | bit depth u8 | colorspace u8 |
//	width u32 | height u32
//
// followed by the interleaved pixel buffer.
const (
	RawMagic      = "FRAW"
	RawVersion    = 1
	RawHeaderSize = 16
)

// IsRaw reports whether data starts with the raw header magic.
func IsRaw(data []byte) bool {
	return bytes.HasPrefix(data, []byte(RawMagic))
}

// EncodeRaw serializes an image with its self-describing raw header.
func EncodeRaw(img *Image) ([]byte, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	w := xdr.NewBufferWriter(RawHeaderSize + len(img.Pix))
	w.WriteFourCC(RawMagic)
	w.WriteByte(RawVersion)
	w.WriteByte(img.Info.Channels)
	w.WriteByte(img.Info.BitDepth)
	w.WriteByte(byte(img.Info.ColorSpace))
	w.WriteUint32(img.Info.Width)
	w.WriteUint32(img.Info.Height)
	w.WriteBytes(img.Pix)
	return w.Bytes(), nil
}

// DecodeRaw parses a raw header and returns an Image aliasing data.
func DecodeRaw(data []byte) (*Image, error) {
	if !IsRaw(data) {
		return nil, fmt.Errorf("%w: missing %s magic", ErrUnsupportedFormat, RawMagic)
	}
	if len(data) < RawHeaderSize {
		return nil, fmt.Errorf("%w: truncated raw header", ErrUnsupportedFormat)
	}
	r := xdr.NewReader(data[len(RawMagic):RawHeaderSize])
	hdr, _ := r.ReadSlice(4)
	width, _ := r.ReadUint32()
	height, _ := r.ReadUint32()
	if hdr[0] != RawVersion {
		return nil, fmt.Errorf("%w: raw version %d", ErrUnsupportedFormat, hdr[0])
	}

	img := &Image{
		Info: ImageInfo{
			Width:      width,
			Height:     height,
			Channels:   hdr[1],
			BitDepth:   hdr[2],
			ColorSpace: ColorSpace(hdr[3]),
		},
		Pix: data[RawHeaderSize:],
	}
	if err := img.Validate(); err != nil {
		return nil, err
	}
	return img, nil
}
