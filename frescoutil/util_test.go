package frescoutil

import (
	"math"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/mrjoshuak/go-fresco/fresco"
	"github.com/mrjoshuak/go-fresco/raster"
)

func testImage(w, h uint32, cs raster.ColorSpace, depth uint8) *raster.Image {
	info := raster.ImageInfo{Width: w, Height: h, Channels: uint8(cs.Channels()), BitDepth: depth, ColorSpace: cs}
	img := &raster.Image{Info: info, Pix: make([]byte, info.BufferSize())}
	for i := range img.Pix {
		img.Pix[i] = byte(i*7 + i/13)
	}
	return img
}

func encode(t *testing.T, img *raster.Image, edit func(*fresco.EncodeParams)) []byte {
	t.Helper()
	p := fresco.DefaultEncodeParams()
	if edit != nil {
		edit(&p)
	}
	enc := fresco.NewEncoder()
	if err := enc.SetParams(p); err != nil {
		t.Fatal(err)
	}
	data, err := enc.EncodeImage(img)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestGetFileInfo(t *testing.T) {
	img := testImage(40, 20, raster.RGBA, 8)
	data := encode(t, img, func(p *fresco.EncodeParams) {
		p.Mode = fresco.Lossless
		p.TileSize = 16
		p.Preview = true
		p.Attributes = map[string]string{"owner": "x", "comments": "y"}
	})
	path := writeTemp(t, "a.frsc", data)

	fi, err := GetFileInfo(path)
	if err != nil {
		t.Fatal(err)
	}
	if fi.Path != path || fi.ImageInfo != img.Info || !fi.Lossless || !fi.HasPreview {
		t.Errorf("info %+v", fi)
	}
	if fi.TileCols != 3 || fi.TileRows != 2 {
		t.Errorf("tile grid %dx%d", fi.TileCols, fi.TileRows)
	}
	if !slices.Equal(fi.Attributes, []string{"comments", "owner"}) {
		t.Errorf("attributes %v", fi.Attributes)
	}
	total := 0
	for _, n := range fi.Methods {
		total += n
	}
	if total != 6 {
		t.Errorf("methods %v cover %d tiles", fi.Methods, total)
	}
	if fi.FileSize != int64(len(data)) || fi.Ratio() <= 0 {
		t.Errorf("size %d ratio %f", fi.FileSize, fi.Ratio())
	}

	if _, err := GetFileInfo(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("missing file accepted")
	}
}

func TestValidate(t *testing.T) {
	data := encode(t, testImage(30, 30, raster.Gray, 16), nil)
	if r := Validate(data); !r.Valid || r.Code != fresco.OK || len(r.Errors) != 0 {
		t.Errorf("valid container rejected: %+v", r)
	}

	tests := []struct {
		name string
		data []byte
		code fresco.Code
	}{
		{"short", data[:10], fresco.CorruptedData},
		{"truncated", data[:len(data)-3], fresco.CorruptedData},
		{"not a container", make([]byte, 200), fresco.UnsupportedFormat},
	}
	for _, tt := range tests {
		r := Validate(tt.data)
		if r.Valid || r.Code != tt.code || len(r.Errors) == 0 {
			t.Errorf("%s: %+v", tt.name, r)
		}
	}

	r, err := ValidateFile(filepath.Join(t.TempDir(), "missing"))
	if err != nil || r.Valid || r.Code != fresco.IO {
		t.Errorf("missing file: %+v, %v", r, err)
	}
}

func TestCompareImages(t *testing.T) {
	a := testImage(16, 8, raster.RGB, 8)

	same, err := CompareImages(a, a)
	if err != nil {
		t.Fatal(err)
	}
	if !same.Identical() || !math.IsInf(same.PSNR, 1) {
		t.Errorf("self comparison %+v", same)
	}

	b := &raster.Image{Info: a.Info, Pix: slices.Clone(a.Pix)}
	b.Pix[4] += 10 // channel 1
	b.Pix[9] -= 3  // channel 0
	c, err := CompareImages(a, b)
	if err != nil {
		t.Fatal(err)
	}
	if c.Differing != 2 || c.MaxError[0] != 3 || c.MaxError[1] != 10 || c.MaxError[2] != 0 {
		t.Errorf("comparison %+v", c)
	}
	n := float64(len(a.Pix))
	if want := 10 * math.Log10(255*255/(109/n)); math.Abs(c.PSNR-want) > 1e-9 {
		t.Errorf("PSNR %f, want %f", c.PSNR, want)
	}

	other := testImage(16, 9, raster.RGB, 8)
	if _, err := CompareImages(a, other); err == nil {
		t.Error("different geometry accepted")
	}
}

func TestCompareFilesLossy(t *testing.T) {
	img := testImage(64, 32, raster.RGB, 16)
	raw, err := raster.EncodeRaw(img)
	if err != nil {
		t.Fatal(err)
	}
	rawPath := writeTemp(t, "in.fraw", raw)

	var prev float64
	for _, q := range []int{20, 60, 95} {
		data := encode(t, img, func(p *fresco.EncodeParams) { p.Quality = q })
		c, err := CompareFiles(rawPath, writeTemp(t, "out.frsc", data))
		if err != nil {
			t.Fatal(err)
		}
		if c.PSNR < prev-0.5 {
			t.Errorf("quality %d: PSNR %.2f dropped below %.2f", q, c.PSNR, prev)
		}
		prev = c.PSNR
	}
}
