package main

import (
	"bufio"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mrjoshuak/go-jpeg2000"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/mrjoshuak/go-fresco/raster"
)

type imageWriter func(w io.Writer, img *raster.Image) error

// writers maps output extensions to encoders. Anything else gets the
// bare interleaved pixels.
var writers = map[string]imageWriter{
	".png":  viaImage(png.Encode),
	".jpg":  viaImage(func(w io.Writer, m image.Image) error { return jpeg.Encode(w, m, &jpeg.Options{Quality: 95}) }),
	".jpeg": viaImage(func(w io.Writer, m image.Image) error { return jpeg.Encode(w, m, &jpeg.Options{Quality: 95}) }),
	".bmp":  viaImage(bmp.Encode),
	".tif":  viaImage(encodeTIFF),
	".tiff": viaImage(encodeTIFF),
	".jp2":  viaImage(jpeg2000Encoder(jpeg2000.FormatJP2)),
	".j2k":  viaImage(jpeg2000Encoder(jpeg2000.FormatJ2K)),
	".fraw": writeFRAW,
}

func viaImage(enc func(io.Writer, image.Image) error) imageWriter {
	return func(w io.Writer, img *raster.Image) error {
		return enc(w, img.ToImage())
	}
}

func encodeTIFF(w io.Writer, m image.Image) error {
	return tiff.Encode(w, m, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
}

func jpeg2000Encoder(format jpeg2000.Format) func(io.Writer, image.Image) error {
	return func(w io.Writer, m image.Image) error {
		opts := jpeg2000.DefaultOptions()
		opts.Format = format
		opts.Lossless = true
		return jpeg2000.Encode(w, m, opts)
	}
}

func writeFRAW(w io.Writer, img *raster.Image) error {
	data, err := raster.EncodeRaw(img)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func writePixels(w io.Writer, img *raster.Image) error {
	_, err := w.Write(img.Pix)
	return err
}

// writeImage writes img in the format named by the extension of path.
func writeImage(path string, img *raster.Image) error {
	ext := strings.ToLower(filepath.Ext(path))
	write, ok := writers[ext]
	if !ok {
		write = writePixels
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(f)
	if err := write(bw, img); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
