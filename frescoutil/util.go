// Package frescoutil provides file level helpers around FRESCO
// containers: summaries, validation and image comparison.
//
// Example usage:
//
//	info, _ := frescoutil.GetFileInfo("scan.frsc")
//	fmt.Printf("Size: %dx%d, ratio %.2f\n", info.Width, info.Height, info.Ratio())
//
//	cmp, _ := frescoutil.CompareImages(original, decoded)
//	fmt.Printf("PSNR %.2f dB\n", cmp.PSNR)
package frescoutil

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"os"
	"slices"

	"github.com/mrjoshuak/go-fresco/container"
	"github.com/mrjoshuak/go-fresco/fresco"
	"github.com/mrjoshuak/go-fresco/raster"
	"github.com/mrjoshuak/go-fresco/tile"
)

// ===========================================
// File Information
// ===========================================

// FileInfo summarises a container.
type FileInfo struct {
	Path string
	raster.ImageInfo

	Lossless   bool
	Quality    int
	Effort     int
	TileSize   int
	TileCols   int
	TileRows   int
	HasPreview bool
	Attributes []string // sorted names

	// Methods counts tiles per entropy method name.
	Methods map[string]int

	FileSize       int64
	CompressedSize int64
}

// Ratio is the raw pixel size divided by the file size.
func (fi *FileInfo) Ratio() float64 {
	if fi.FileSize == 0 {
		return 0
	}
	return float64(fi.BufferSize()) / float64(fi.FileSize)
}

// GetFileInfo returns summary information about a container file.
func GetFileInfo(path string) (*FileInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	fi, err := Inspect(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	fi.Path = path
	return fi, nil
}

// Inspect parses a container in memory without decoding pixels.
func Inspect(data []byte) (*FileInfo, error) {
	f, err := container.Parse(data)
	if err != nil {
		return nil, err
	}
	info := f.Info
	fi := &FileInfo{
		ImageInfo:      info.Image,
		Lossless:       info.Lossless(),
		Quality:        int(info.Quality),
		Effort:         int(info.Effort),
		TileSize:       int(info.TileSize),
		TileCols:       int(info.TileCols),
		TileRows:       int(info.TileRows),
		HasPreview:     info.HasPreview(),
		Attributes:     slices.Sorted(maps.Keys(f.Attributes)),
		Methods:        make(map[string]int),
		FileSize:       int64(len(data)),
		CompressedSize: int64(info.CompressedSize),
	}
	for i, t := range f.Tiles {
		_, m, err := tile.StreamInfo(t)
		if err != nil {
			return nil, fmt.Errorf("tile %d: %w", i, err)
		}
		fi.Methods[m.String()]++
	}
	return fi, nil
}

// ===========================================
// Validation
// ===========================================

// ValidationResult contains the results of file validation.
type ValidationResult struct {
	Valid    bool
	Code     fresco.Code
	Warnings []string
	Errors   []string
}

// ValidateFile reads a container and fully decodes it.
func ValidateFile(path string) (*ValidationResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return &ValidationResult{Code: fresco.IO, Errors: []string{fmt.Sprintf("cannot read file: %v", err)}}, nil
	}
	return Validate(data), nil
}

// Validate checks every box, tile checksum and tile stream of a container
// by decoding it completely.
func Validate(data []byte) *ValidationResult {
	result := &ValidationResult{Valid: true}
	fail := func(err error) *ValidationResult {
		result.Valid = false
		result.Code = fresco.CodeOf(err)
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	if len(data) < container.HeaderSize {
		return fail(&fresco.Error{Code: fresco.CorruptedData, Op: "validate",
			Err: fmt.Errorf("%d bytes is shorter than the %d byte header", len(data), container.HeaderSize)})
	}
	m, err := fresco.GetMetadata(data)
	if err != nil {
		return fail(err)
	}

	dec := fresco.NewDecoder()
	defer dec.Close()
	pix, err := dec.Decode(data)
	if err != nil {
		return fail(err)
	}
	fresco.Free(pix)

	if m.Width > 32768 || m.Height > 32768 {
		result.Warnings = append(result.Warnings, "very large image dimensions")
	}
	if m.FrameCount != 1 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("frame count %d, only the first frame is stored", m.FrameCount))
	}
	return result
}

// ===========================================
// Comparison
// ===========================================

// ErrMismatch reports images that cannot be compared sample by sample.
var ErrMismatch = errors.New("frescoutil: images have different geometry")

// Comparison holds per-channel and overall error statistics.
type Comparison struct {
	MaxError     []int // per channel
	MeanAbsError float64
	MSE          float64
	// PSNR in dB; +Inf for identical images.
	PSNR float64
	// Differing counts samples that are not equal.
	Differing int
}

// Identical reports whether every sample matches.
func (c *Comparison) Identical() bool { return c.Differing == 0 }

// CompareImages compares two images of the same geometry.
func CompareImages(a, b *raster.Image) (*Comparison, error) {
	if a.Info != b.Info {
		return nil, fmt.Errorf("%w: %v vs %v", ErrMismatch, a.Info, b.Info)
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}

	channels := int(a.Info.Channels)
	bps := a.Info.BytesPerSample()
	n := len(a.Pix) / bps
	c := &Comparison{MaxError: make([]int, channels)}

	var sumAbs, sumSq float64
	for i := 0; i < n; i++ {
		va, vb := sampleAt(a.Pix, i, bps), sampleAt(b.Pix, i, bps)
		d := va - vb
		if d < 0 {
			d = -d
		}
		if d == 0 {
			continue
		}
		c.Differing++
		ch := i % channels
		c.MaxError[ch] = max(c.MaxError[ch], d)
		sumAbs += float64(d)
		sumSq += float64(d) * float64(d)
	}

	c.MeanAbsError = sumAbs / float64(n)
	c.MSE = sumSq / float64(n)
	if c.MSE == 0 {
		c.PSNR = math.Inf(1)
	} else {
		peak := float64(int(1)<<a.Info.BitDepth - 1)
		c.PSNR = 10 * math.Log10(peak*peak/c.MSE)
	}
	return c, nil
}

func sampleAt(pix []byte, i, bps int) int {
	if bps == 1 {
		return int(pix[i])
	}
	return int(pix[2*i]) | int(pix[2*i+1])<<8
}

// CompareFiles decodes two files and compares their pixels. Each file may
// be a FRESCO container or any input accepted by the encoder.
func CompareFiles(path1, path2 string) (*Comparison, error) {
	a, err := loadImage(path1)
	if err != nil {
		return nil, err
	}
	b, err := loadImage(path2)
	if err != nil {
		return nil, err
	}
	return CompareImages(a, b)
}

// loadImage reads a container or an encoder input format from disk.
func loadImage(path string) (*raster.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if container.IsContainer(data) {
		img, err := fresco.NewDecoder().DecodeImage(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return img, nil
	}
	img, err := raster.Sniff(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}
