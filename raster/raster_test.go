package raster

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"testing"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func rgbInfo(w, h uint32) ImageInfo {
	return ImageInfo{Width: w, Height: h, Channels: 3, BitDepth: 8, ColorSpace: RGB}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		info ImageInfo
		size int
		ok   bool
	}{
		{"rgb 8x8", rgbInfo(8, 8), 192, true},
		{"rgb short", rgbInfo(8, 8), 191, false},
		{"gray16", ImageInfo{Width: 3, Height: 2, Channels: 1, BitDepth: 16, ColorSpace: Gray}, 12, true},
		{"yuv444", ImageInfo{Width: 2, Height: 2, Channels: 3, BitDepth: 8, ColorSpace: YUV444}, 12, true},
		{"zero width", ImageInfo{Width: 0, Height: 2, Channels: 1, BitDepth: 8, ColorSpace: Gray}, 0, false},
		{"five channels", ImageInfo{Width: 1, Height: 1, Channels: 5, BitDepth: 8, ColorSpace: RGB}, 5, false},
		{"depth 12", ImageInfo{Width: 1, Height: 1, Channels: 1, BitDepth: 12, ColorSpace: Gray}, 2, false},
		{"colorspace mismatch", ImageInfo{Width: 1, Height: 1, Channels: 3, BitDepth: 8, ColorSpace: RGBA}, 3, false},
		{"unknown colorspace", ImageInfo{Width: 1, Height: 1, Channels: 3, BitDepth: 8, ColorSpace: 42}, 3, false},
		{"negative size", rgbInfo(1, 1), -1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.info, tt.size)
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrUnsupportedFormat) {
				t.Errorf("err = %v, want ErrUnsupportedFormat", err)
			}
		})
	}
}

func TestColorSpace(t *testing.T) {
	for cs := RGB; cs <= GrayA; cs++ {
		got, err := ParseColorSpace(cs.String())
		if err != nil || got != cs {
			t.Errorf("ParseColorSpace(%q) = %v, %v", cs.String(), got, err)
		}
		if DefaultColorSpace(cs.Channels()).Channels() != cs.Channels() {
			t.Errorf("%s: default colorspace channel mismatch", cs)
		}
	}
	if _, err := ParseColorSpace("cmyk"); err == nil {
		t.Error("expected error for cmyk")
	}
	if ColorSpace(9).String() != "colorspace(9)" {
		t.Errorf("String = %q", ColorSpace(9).String())
	}
}

func TestRawRoundTrip(t *testing.T) {
	img, err := NewImage(ImageInfo{Width: 5, Height: 3, Channels: 2, BitDepth: 16, ColorSpace: GrayA})
	if err != nil {
		t.Fatal(err)
	}
	for i := range img.Pix {
		img.Pix[i] = byte(i * 7)
	}
	raw, err := EncodeRaw(img)
	if err != nil {
		t.Fatal(err)
	}
	if len(raw) != RawHeaderSize+len(img.Pix) {
		t.Fatalf("raw size %d", len(raw))
	}
	want := []byte{'F', 'R', 'A', 'W', 1, 2, 16, byte(GrayA), 0, 0, 0, 5, 0, 0, 0, 3}
	if !bytes.Equal(raw[:RawHeaderSize], want) {
		t.Errorf("header = %v, want %v", raw[:RawHeaderSize], want)
	}

	got, err := Sniff(raw)
	if err != nil {
		t.Fatal(err)
	}
	if got.Info != img.Info || !bytes.Equal(got.Pix, img.Pix) {
		t.Errorf("sniffed %v, want %v", got.Info, img.Info)
	}
}

func TestDecodeRawErrors(t *testing.T) {
	img, _ := NewImage(rgbInfo(2, 2))
	raw, _ := EncodeRaw(img)

	bad := bytes.Clone(raw)
	bad[4] = 9
	tests := map[string][]byte{
		"truncated header": raw[:10],
		"truncated pixels": raw[:len(raw)-1],
		"version":          bad,
	}
	for name, data := range tests {
		if _, err := DecodeRaw(data); !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("%s: err = %v", name, err)
		}
	}
}

func TestSniffRejectsHeaderless(t *testing.T) {
	// 192 bytes could be an 8x8 RGB image, but nothing says so.
	if _, err := Sniff(make([]byte, 192)); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("err = %v, want ErrUnsupportedFormat", err)
	}
	if _, err := Sniff(nil); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("empty: err = %v", err)
	}
}

func testNRGBA(w, h int, alpha uint8) *image.NRGBA {
	src := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			src.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 20), G: uint8(y * 30), B: 99, A: alpha})
		}
	}
	return src
}

func TestSniffEncodedFormats(t *testing.T) {
	src := testNRGBA(6, 4, 255)
	encoders := map[string]func(*bytes.Buffer) error{
		"png":  func(b *bytes.Buffer) error { return png.Encode(b, src) },
		"bmp":  func(b *bytes.Buffer) error { return bmp.Encode(b, src) },
		"tiff": func(b *bytes.Buffer) error { return tiff.Encode(b, src, nil) },
	}
	for name, enc := range encoders {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := enc(&buf); err != nil {
				t.Fatal(err)
			}
			if got := SniffFormat(buf.Bytes()); got != name {
				t.Errorf("SniffFormat = %q", got)
			}
			img, err := Sniff(buf.Bytes())
			if err != nil {
				t.Fatal(err)
			}
			if img.Info.Width != 6 || img.Info.Height != 4 || img.Info.ColorSpace != RGB {
				t.Fatalf("info = %v", img.Info)
			}
			// Pixel (3, 2): R=60, G=60, B=99.
			i := (2*6 + 3) * 3
			if img.Pix[i] != 60 || img.Pix[i+1] != 60 || img.Pix[i+2] != 99 {
				t.Errorf("pixel = %v", img.Pix[i:i+3])
			}
		})
	}
}

func TestFromImageModels(t *testing.T) {
	gray := image.NewGray16(image.Rect(0, 0, 2, 1))
	gray.SetGray16(1, 0, color.Gray16{Y: 0x1234})
	img, err := FromImage(gray)
	if err != nil {
		t.Fatal(err)
	}
	if img.Info.ColorSpace != Gray || img.Info.BitDepth != 16 {
		t.Fatalf("info = %v", img.Info)
	}
	if img.Pix[2] != 0x34 || img.Pix[3] != 0x12 {
		t.Errorf("16-bit sample not little-endian: %v", img.Pix)
	}

	img, err = FromImage(testNRGBA(3, 3, 128))
	if err != nil {
		t.Fatal(err)
	}
	if img.Info.ColorSpace != RGBA || img.Pix[3] != 128 {
		t.Errorf("translucent image: info %v alpha %d", img.Info, img.Pix[3])
	}
}

func TestToImageRoundTrip(t *testing.T) {
	for _, info := range []ImageInfo{
		{Width: 4, Height: 3, Channels: 4, BitDepth: 8, ColorSpace: RGBA},
		{Width: 4, Height: 3, Channels: 1, BitDepth: 8, ColorSpace: Gray},
		{Width: 4, Height: 3, Channels: 1, BitDepth: 16, ColorSpace: Gray},
		{Width: 4, Height: 3, Channels: 4, BitDepth: 16, ColorSpace: RGBA},
		{Width: 4, Height: 3, Channels: 3, BitDepth: 8, ColorSpace: RGB},
		{Width: 4, Height: 3, Channels: 3, BitDepth: 16, ColorSpace: RGB},
	} {
		img, _ := NewImage(info)
		for i := range img.Pix {
			img.Pix[i] = byte(i*13 + 1)
		}
		if info.Channels == 4 {
			// Mostly opaque, so FromImage keeps the alpha channel.
			bps := info.BytesPerSample()
			for p := 0; p < 12; p++ {
				for k := 0; k < bps; k++ {
					img.Pix[(p*4+3)*bps+k] = 0xff
				}
			}
			img.Pix[3*bps] = 7 // one translucent pixel
		}
		got, err := FromImage(img.ToImage())
		if err != nil {
			t.Fatal(err)
		}
		if got.Info != info || !bytes.Equal(got.Pix, img.Pix) {
			t.Errorf("%v: round trip mismatch (%v)", info, got.Info)
		}
	}
}

func TestFromImageTranslucentExact(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 16, 4))
	for i := 0; i < 64; i++ {
		src.SetNRGBA(i%16, i/16, color.NRGBA{R: uint8(i * 4), G: uint8(255 - i), B: uint8(i * 7), A: uint8(i)})
	}
	img, err := FromImage(src)
	if err != nil {
		t.Fatal(err)
	}
	if img.Info.ColorSpace != RGBA || img.Info.BitDepth != 8 {
		t.Fatalf("info = %v", img.Info)
	}
	if !bytes.Equal(img.Pix, src.Pix) {
		t.Error("translucent samples changed")
	}

	src16 := image.NewNRGBA64(image.Rect(0, 0, 2, 1))
	src16.SetNRGBA64(0, 0, color.NRGBA64{R: 0x1234, G: 0xfedc, B: 0x0101, A: 0x0002})
	src16.SetNRGBA64(1, 0, color.NRGBA64{R: 0xffff, G: 0, B: 0x8000, A: 0x7fff})
	img16, err := FromImage(src16)
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range []uint16{0x1234, 0xfedc, 0x0101, 0x0002, 0xffff, 0, 0x8000, 0x7fff} {
		if got := binary.LittleEndian.Uint16(img16.Pix[i*2:]); got != want {
			t.Errorf("sample %d = %#x, want %#x", i, got, want)
		}
	}
}

func TestToImageOpaqueTypes(t *testing.T) {
	tests := []struct {
		info ImageInfo
		want string
	}{
		{ImageInfo{Width: 2, Height: 2, Channels: 3, BitDepth: 8, ColorSpace: RGB}, "*image.RGBA"},
		{ImageInfo{Width: 2, Height: 2, Channels: 3, BitDepth: 16, ColorSpace: RGB}, "*image.RGBA64"},
		{ImageInfo{Width: 2, Height: 2, Channels: 3, BitDepth: 8, ColorSpace: YUV444}, "*image.RGBA"},
		{ImageInfo{Width: 2, Height: 2, Channels: 4, BitDepth: 8, ColorSpace: RGBA}, "*image.NRGBA"},
		{ImageInfo{Width: 2, Height: 2, Channels: 2, BitDepth: 16, ColorSpace: GrayA}, "*image.NRGBA64"},
	}
	for _, tt := range tests {
		img, _ := NewImage(tt.info)
		if got := fmt.Sprintf("%T", img.ToImage()); got != tt.want {
			t.Errorf("%v: ToImage type %s, want %s", tt.info, got, tt.want)
		}
	}
}

func TestRects(t *testing.T) {
	img, _ := NewImage(rgbInfo(4, 4))
	for i := range img.Pix {
		img.Pix[i] = byte(i)
	}
	sub := img.CopyRect(1, 2, 2, 2)
	want := []byte{27, 28, 29, 30, 31, 32, 39, 40, 41, 42, 43, 44}
	if !bytes.Equal(sub, want) {
		t.Errorf("CopyRect = %v, want %v", sub, want)
	}
	dst, _ := NewImage(rgbInfo(4, 4))
	dst.SetRect(1, 2, 2, 2, sub)
	if !bytes.Equal(dst.CopyRect(1, 2, 2, 2), sub) {
		t.Error("SetRect did not write the rectangle")
	}
	if dst.Pix[0] != 0 {
		t.Error("SetRect wrote outside the rectangle")
	}
}

func TestPreview(t *testing.T) {
	tests := []struct {
		w, h, mw, mh int
		pw, ph       int
	}{
		{100, 50, 32, 32, 32, 16},
		{10, 10, 32, 32, 10, 10},
		{1000, 1, 32, 32, 32, 1},
		{10, 10, 0, 32, 0, 0},
	}
	for _, tt := range tests {
		pw, ph := PreviewSize(tt.w, tt.h, tt.mw, tt.mh)
		if pw != tt.pw || ph != tt.ph {
			t.Errorf("PreviewSize(%d,%d,%d,%d) = %d,%d want %d,%d", tt.w, tt.h, tt.mw, tt.mh, pw, ph, tt.pw, tt.ph)
		}
	}

	img, _ := NewImage(ImageInfo{Width: 64, Height: 32, Channels: 3, BitDepth: 8, ColorSpace: YUV444})
	for i := 0; i < len(img.Pix); i += 3 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2] = 200, 100, 50
	}
	p := Preview(img, 16, 16)
	if p == nil || p.Info.Width != 16 || p.Info.Height != 8 || p.Info.ColorSpace != YUV444 {
		t.Fatalf("preview info = %+v", p)
	}
	for i := 0; i < len(p.Pix); i += 3 {
		if p.Pix[i] != 200 || p.Pix[i+1] != 100 || p.Pix[i+2] != 50 {
			t.Fatalf("flat image preview changed at %d: %v", i, p.Pix[i:i+3])
		}
	}
	if Preview(img, 0, 0) != nil {
		t.Error("expected nil preview for empty bounds")
	}
}
