package raster

import (
	"encoding/binary"
	"image"
	"math"

	"golang.org/x/image/draw"
)

// PreviewSize returns preview dimensions that fit within maxWidth x
// maxHeight while preserving the aspect ratio. Images already inside the
// bounds keep their size.
func PreviewSize(width, height, maxWidth, maxHeight int) (int, int) {
	if maxWidth <= 0 || maxHeight <= 0 || width <= 0 || height <= 0 {
		return 0, 0
	}
	if width <= maxWidth && height <= maxHeight {
		return width, height
	}
	scale := math.Min(float64(maxWidth)/float64(width), float64(maxHeight)/float64(height))
	pw := max(int(float64(width)*scale), 1)
	ph := max(int(float64(height)*scale), 1)
	return pw, ph
}

// Preview returns a downscaled copy of img fitting in maxWidth x
// maxHeight, with the same channel layout, bit depth and color space.
// Each channel is resampled independently, so the result is valid for
// every color space including YUV. Returns nil when the bounds are empty.
func Preview(img *Image, maxWidth, maxHeight int) *Image {
	w, h := int(img.Info.Width), int(img.Info.Height)
	pw, ph := PreviewSize(w, h, maxWidth, maxHeight)
	if pw == 0 {
		return nil
	}

	info := img.Info
	info.Width, info.Height = uint32(pw), uint32(ph)
	out := &Image{Info: info, Pix: make([]byte, info.BufferSize())}

	srcPlane := image.NewGray16(image.Rect(0, 0, w, h))
	dstPlane := image.NewGray16(image.Rect(0, 0, pw, ph))
	channels := int(img.Info.Channels)

	for ch := 0; ch < channels; ch++ {
		for i := 0; i < w*h; i++ {
			binary.BigEndian.PutUint16(srcPlane.Pix[i*2:], img.sample(i, ch))
		}
		draw.ApproxBiLinear.Scale(dstPlane, dstPlane.Bounds(), srcPlane, srcPlane.Bounds(), draw.Src, nil)

		for i := 0; i < pw*ph; i++ {
			v := binary.BigEndian.Uint16(dstPlane.Pix[i*2:])
			idx := i*channels + ch
			if info.BitDepth == 8 {
				out.Pix[idx] = byte(v >> 8)
			} else {
				binary.LittleEndian.PutUint16(out.Pix[idx*2:], v)
			}
		}
	}
	return out
}
