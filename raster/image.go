package raster

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
)

type opaquer interface {
	Opaque() bool
}

// FromImage converts a decoded image into interleaved samples. Gray
// images stay single channel; opaque color images drop alpha. 16-bit
// source models keep 16-bit samples.
func FromImage(src image.Image) (*Image, error) {
	b := src.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("%w: empty image", ErrUnsupportedFormat)
	}
	opaque := false
	if o, ok := src.(opaquer); ok {
		opaque = o.Opaque()
	}

	info := ImageInfo{Width: uint32(b.Dx()), Height: uint32(b.Dy()), BitDepth: 8}
	switch src.ColorModel() {
	case color.GrayModel:
		info.ColorSpace = Gray
	case color.Gray16Model:
		info.ColorSpace, info.BitDepth = Gray, 16
	case color.RGBA64Model, color.NRGBA64Model:
		info.BitDepth = 16
		info.ColorSpace = RGBA
	default:
		info.ColorSpace = RGBA
	}
	if info.ColorSpace == RGBA && opaque {
		info.ColorSpace = RGB
	}
	info.Channels = uint8(info.ColorSpace.Channels())

	img, err := NewImage(info)
	if err != nil {
		return nil, err
	}

	ch := int(info.Channels)
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			s := pixelAt(src, x, y, info.ColorSpace == Gray)
			for k := 0; k < ch; k++ {
				if info.BitDepth == 8 {
					img.Pix[i] = byte(s[k] >> 8)
					i++
				} else {
					binary.LittleEndian.PutUint16(img.Pix[i:], s[k])
					i += 2
				}
			}
		}
	}
	return img, nil
}

// pixelAt returns the straight alpha samples of (x, y) scaled to 16 bits.
// Non-premultiplied and gray sources are read directly so translucent
// pixels keep their exact color.
func pixelAt(src image.Image, x, y int, gray bool) [4]uint16 {
	switch s := src.(type) {
	case *image.NRGBA:
		c := s.NRGBAAt(x, y)
		return [4]uint16{expand8(c.R), expand8(c.G), expand8(c.B), expand8(c.A)}
	case *image.NRGBA64:
		c := s.NRGBA64At(x, y)
		return [4]uint16{c.R, c.G, c.B, c.A}
	case *image.Gray:
		v := expand8(s.GrayAt(x, y).Y)
		return [4]uint16{v, v, v, 0xffff}
	case *image.Gray16:
		v := s.Gray16At(x, y).Y
		return [4]uint16{v, v, v, 0xffff}
	}
	if gray {
		v := color.Gray16Model.Convert(src.At(x, y)).(color.Gray16).Y
		return [4]uint16{v, v, v, 0xffff}
	}
	c := color.NRGBA64Model.Convert(src.At(x, y)).(color.NRGBA64)
	return [4]uint16{c.R, c.G, c.B, c.A}
}

func expand8(v uint8) uint16 {
	return uint16(v)<<8 | uint16(v)
}

// sample returns channel ch of pixel i scaled to 16 bits.
func (img *Image) sample(i, ch int) uint16 {
	idx := i*int(img.Info.Channels) + ch
	if img.Info.BitDepth == 8 {
		v := uint16(img.Pix[idx])
		return v<<8 | v
	}
	return binary.LittleEndian.Uint16(img.Pix[idx*2:])
}

// ToImage converts the samples into an image.Image suitable for the
// standard encoders. YUV data is converted to RGB with BT.601 full range
// coefficients.
func (img *Image) ToImage() image.Image {
	w, h := int(img.Info.Width), int(img.Info.Height)
	rect := image.Rect(0, 0, w, h)

	if img.Info.ColorSpace == Gray {
		if img.Info.BitDepth == 8 {
			return &image.Gray{Pix: append([]byte(nil), img.Pix...), Stride: w, Rect: rect}
		}
		out := image.NewGray16(rect)
		for i := 0; i < w*h; i++ {
			out.SetGray16(i%w, i/w, color.Gray16{Y: img.sample(i, 0)})
		}
		return out
	}

	// Color spaces without alpha become opaque RGBA images so encoders
	// that inspect the concrete type write three components.
	var out image.Image
	var set func(x, y int, c color.NRGBA64)
	opaque := img.Info.ColorSpace != RGBA && img.Info.ColorSpace != GrayA
	switch {
	case opaque && img.Info.BitDepth == 8:
		o := image.NewRGBA(rect)
		set = func(x, y int, c color.NRGBA64) {
			o.SetRGBA(x, y, color.RGBA{R: uint8(c.R >> 8), G: uint8(c.G >> 8), B: uint8(c.B >> 8), A: 0xff})
		}
		out = o
	case opaque:
		o := image.NewRGBA64(rect)
		set = func(x, y int, c color.NRGBA64) {
			o.SetRGBA64(x, y, color.RGBA64{R: c.R, G: c.G, B: c.B, A: 0xffff})
		}
		out = o
	case img.Info.BitDepth == 8:
		o := image.NewNRGBA(rect)
		set = func(x, y int, c color.NRGBA64) {
			o.SetNRGBA(x, y, color.NRGBA{R: uint8(c.R >> 8), G: uint8(c.G >> 8), B: uint8(c.B >> 8), A: uint8(c.A >> 8)})
		}
		out = o
	default:
		o := image.NewNRGBA64(rect)
		set = o.SetNRGBA64
		out = o
	}

	for i := 0; i < w*h; i++ {
		var c color.NRGBA64
		switch img.Info.ColorSpace {
		case GrayA:
			v := img.sample(i, 0)
			c = color.NRGBA64{R: v, G: v, B: v, A: img.sample(i, 1)}
		case RGBA:
			c = color.NRGBA64{R: img.sample(i, 0), G: img.sample(i, 1), B: img.sample(i, 2), A: img.sample(i, 3)}
		case YUV420, YUV422, YUV444:
			r, g, b := yuvToRGB(img.sample(i, 0), img.sample(i, 1), img.sample(i, 2))
			c = color.NRGBA64{R: r, G: g, B: b, A: 0xffff}
		default:
			c = color.NRGBA64{R: img.sample(i, 0), G: img.sample(i, 1), B: img.sample(i, 2), A: 0xffff}
		}
		set(i%w, i/w, c)
	}
	return out
}

func yuvToRGB(y, u, v uint16) (r, g, b uint16) {
	yf := float64(y)
	cb := float64(u) - 32768
	cr := float64(v) - 32768
	return clamp16(yf + 1.402*cr),
		clamp16(yf - 0.344136*cb - 0.714136*cr),
		clamp16(yf + 1.772*cb)
}

func clamp16(v float64) uint16 {
	if v <= 0 {
		return 0
	}
	if v >= 0xffff {
		return 0xffff
	}
	return uint16(v + 0.5)
}
