// fresco encodes, decodes, converts and inspects FRESCO images.
//
// Usage:
//
//	fresco encode [options] <input> <output.frsc>
//	fresco decode [options] <input.frsc> <output>
//	fresco convert [options] <input> <output>
//	fresco info <file> [<file> ...]
//	fresco version
//	fresco help
//
// Inputs are FRAW raw files or PNG, JPEG, BMP, TIFF and JPEG 2000 images.
// Headerless raw pixels need --width, --height and --channels. Outputs
// are chosen by extension: .frsc, .png, .jpg, .bmp, .tif, .jp2, .j2k,
// .fraw, or bare pixels for anything else.
//
// Exit codes:
//
//	0: success
//	1: any failure
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mrjoshuak/go-fresco/container"
	"github.com/mrjoshuak/go-fresco/fresco"
	"github.com/mrjoshuak/go-fresco/frescoutil"
	"github.com/mrjoshuak/go-fresco/raster"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stderr)
		return 1
	}
	var err error
	switch cmd, rest := args[0], args[1:]; cmd {
	case "encode":
		err = cmdEncode(rest, stderr)
	case "decode":
		err = cmdDecode(rest, stderr)
	case "convert":
		err = cmdConvert(rest, stderr)
	case "info":
		err = cmdInfo(rest, stdout)
	case "version", "--version", "-version":
		fmt.Fprintf(stdout, "fresco version %s\n", fresco.VersionString())
	case "help", "-h", "--help":
		printUsage(stdout)
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", cmd)
		printUsage(stderr)
		return 1
	}
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %s\n", describe(err))
		return 1
	}
	return 0
}

// describe prefers the static code string for library errors.
func describe(err error) string {
	var fe *fresco.Error
	if errors.As(err, &fe) {
		if fe.Err != nil {
			return fmt.Sprintf("%s (%v)", fresco.ErrorString(fe.Code), fe.Err)
		}
		return fresco.ErrorString(fe.Code)
	}
	return err.Error()
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `Usage: fresco <command> [options] <args>

Commands:
  encode   <input> <output.frsc>   encode an image or raw pixels
  decode   <input.frsc> <output>   decode a container
  convert  <input> <output>        convert between any supported formats
  info     <file> [<file> ...]     describe containers
  version                          print the library version
  help                             show this help

Run "fresco <command> -h" for the options of a command.
`)
}

// ===========================================
// Options
// ===========================================

type options struct {
	quality     int
	effort      int
	lossless    bool
	lossy       bool
	tileSize    int
	threads     int
	progressive bool
	noPreview   bool
	verbose     bool

	width      uint
	height     uint
	channels   uint
	depth      uint
	colorspace string
}

func newFlagSet(name, usage string, stderr io.Writer, o *options, encoding bool) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: fresco %s [options] %s\n\nOptions:\n", name, usage)
		fs.PrintDefaults()
	}
	def := fresco.DefaultEncodeParams()
	fs.IntVar(&o.threads, "threads", 0, "worker threads (0 = all CPUs)")
	fs.BoolVar(&o.verbose, "v", false, "verbose output")
	fs.BoolVar(&o.progressive, "progressive", false, "decode the embedded preview first")
	if encoding {
		fs.IntVar(&o.quality, "quality", def.Quality, "lossy quality (1-100)")
		fs.IntVar(&o.effort, "effort", def.Effort, "compression effort (1-10)")
		fs.BoolVar(&o.lossless, "lossless", false, "lossless coding")
		fs.BoolVar(&o.lossy, "lossy", false, "lossy coding (default)")
		fs.IntVar(&o.tileSize, "tile-size", def.TileSize, "tile edge in pixels")
		fs.BoolVar(&o.noPreview, "no-preview", false, "do not embed a preview")
		fs.UintVar(&o.width, "width", 0, "width of headerless raw input")
		fs.UintVar(&o.height, "height", 0, "height of headerless raw input")
		fs.UintVar(&o.channels, "channels", 0, "channels of headerless raw input")
		fs.UintVar(&o.depth, "depth", 8, "bit depth of headerless raw input")
		fs.StringVar(&o.colorspace, "colorspace", "", "color space of headerless raw input")
	}
	return fs
}

func parse(fs *flag.FlagSet, args []string, n int) ([]string, error) {
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != n {
		fs.Usage()
		return nil, fmt.Errorf("expected %d arguments, got %d", n, fs.NArg())
	}
	return fs.Args(), nil
}

func (o *options) setLogger(stderr io.Writer) {
	if o.verbose {
		fresco.SetLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}
}

func (o *options) encodeParams() (fresco.EncodeParams, error) {
	if o.lossless && o.lossy {
		return fresco.EncodeParams{}, errors.New("--lossless and --lossy are exclusive")
	}
	p := fresco.DefaultEncodeParams()
	if o.lossless {
		p.Mode = fresco.Lossless
	}
	p.Quality = o.quality
	p.Effort = o.effort
	p.TileSize = o.tileSize
	p.MaxThreads = o.threads
	p.Preview = !o.noPreview
	return p, nil
}

func (o *options) decodeParams(stderr io.Writer) fresco.DecodeParams {
	p := fresco.DefaultDecodeParams()
	p.MaxThreads = o.threads
	p.Progressive = o.progressive
	if o.progressive {
		p.OnPreview = func(img *raster.Image) {
			fmt.Fprintf(stderr, "preview: %dx%d\n", img.Info.Width, img.Info.Height)
		}
	}
	return p
}

// rawInfo describes headerless input, or returns false when no geometry
// was given on the command line.
func (o *options) rawInfo() (raster.ImageInfo, bool, error) {
	if o.width == 0 && o.height == 0 && o.channels == 0 {
		return raster.ImageInfo{}, false, nil
	}
	if o.width == 0 || o.height == 0 || o.channels == 0 {
		return raster.ImageInfo{}, false, errors.New("--width, --height and --channels must be given together")
	}
	info := raster.ImageInfo{
		Width:      uint32(o.width),
		Height:     uint32(o.height),
		Channels:   uint8(o.channels),
		BitDepth:   uint8(o.depth),
		ColorSpace: raster.DefaultColorSpace(int(o.channels)),
	}
	if o.colorspace != "" {
		cs, err := raster.ParseColorSpace(o.colorspace)
		if err != nil {
			return raster.ImageInfo{}, false, err
		}
		info.ColorSpace = cs
	}
	return info, true, info.Validate()
}

// ===========================================
// Commands
// ===========================================

func cmdEncode(args []string, stderr io.Writer) error {
	var o options
	fs := newFlagSet("encode", "<input> <output.frsc>", stderr, &o, true)
	files, err := parse(fs, args, 2)
	if err != nil {
		return err
	}
	o.setLogger(stderr)
	img, err := loadInput(files[0], &o)
	if err != nil {
		return err
	}
	return writeContainer(files[1], img, &o)
}

func cmdDecode(args []string, stderr io.Writer) error {
	var o options
	fs := newFlagSet("decode", "<input.frsc> <output>", stderr, &o, false)
	files, err := parse(fs, args, 2)
	if err != nil {
		return err
	}
	o.setLogger(stderr)
	data, err := os.ReadFile(files[0])
	if err != nil {
		return err
	}
	img, err := decode(data, &o, stderr)
	if err != nil {
		return err
	}
	defer fresco.Free(img.Pix)
	return writeImage(files[1], img)
}

func cmdConvert(args []string, stderr io.Writer) error {
	var o options
	fs := newFlagSet("convert", "<input> <output>", stderr, &o, true)
	files, err := parse(fs, args, 2)
	if err != nil {
		return err
	}
	o.setLogger(stderr)

	data, err := os.ReadFile(files[0])
	if err != nil {
		return err
	}
	var img *raster.Image
	if container.IsContainer(data) {
		if img, err = decode(data, &o, stderr); err != nil {
			return err
		}
		defer fresco.Free(img.Pix)
	} else if img, err = sniffInput(data, &o); err != nil {
		return err
	}

	if isContainerPath(files[1]) {
		return writeContainer(files[1], img, &o)
	}
	return writeImage(files[1], img)
}

func cmdInfo(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return errors.New("no input files specified")
	}
	var failed bool
	for _, path := range args {
		fi, err := frescoutil.GetFileInfo(path)
		if err != nil {
			fmt.Fprintf(stdout, "%s: %s\n", path, describe(err))
			failed = true
			continue
		}
		printInfo(stdout, fi)
	}
	if failed {
		return errors.New("one or more files could not be read")
	}
	return nil
}

func printInfo(w io.Writer, fi *frescoutil.FileInfo) {
	mode := fmt.Sprintf("lossy (quality %d)", fi.Quality)
	if fi.Lossless {
		mode = "lossless"
	}
	fmt.Fprintf(w, "%s:\n", fi.Path)
	fmt.Fprintf(w, "  size:        %dx%d\n", fi.Width, fi.Height)
	fmt.Fprintf(w, "  format:      %d channels, %d bit, %s\n", fi.Channels, fi.BitDepth, fi.ColorSpace)
	fmt.Fprintf(w, "  mode:        %s, effort %d\n", mode, fi.Effort)
	fmt.Fprintf(w, "  tiles:       %dx%d of %d pixels\n", fi.TileCols, fi.TileRows, fi.TileSize)
	fmt.Fprintf(w, "  methods:     %v\n", fi.Methods)
	fmt.Fprintf(w, "  preview:     %v\n", fi.HasPreview)
	if len(fi.Attributes) > 0 {
		fmt.Fprintf(w, "  attributes:  %s\n", strings.Join(fi.Attributes, ", "))
	}
	fmt.Fprintf(w, "  file size:   %d bytes (ratio %.2f:1)\n", fi.FileSize, fi.Ratio())
}

// ===========================================
// Helpers
// ===========================================

func isContainerPath(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".frsc" || ext == ".fresco"
}

func loadInput(path string, o *options) (*raster.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return sniffInput(data, o)
}

func sniffInput(data []byte, o *options) (*raster.Image, error) {
	info, ok, err := o.rawInfo()
	if err != nil {
		return nil, err
	}
	if ok {
		if err := raster.Validate(info, len(data)); err != nil {
			return nil, err
		}
		return &raster.Image{Info: info, Pix: data}, nil
	}
	return raster.Sniff(data)
}

func decode(data []byte, o *options, stderr io.Writer) (*raster.Image, error) {
	dec := fresco.NewDecoder()
	defer dec.Close()
	if err := dec.SetParams(o.decodeParams(stderr)); err != nil {
		return nil, err
	}
	return dec.DecodeImage(data)
}

func writeContainer(path string, img *raster.Image, o *options) error {
	p, err := o.encodeParams()
	if err != nil {
		return err
	}
	enc := fresco.NewEncoder()
	defer enc.Close()
	if err := enc.SetParams(p); err != nil {
		return err
	}
	data, err := enc.EncodeImage(img)
	if err != nil {
		return err
	}
	defer fresco.Free(data)
	return os.WriteFile(path, data, 0o644)
}
