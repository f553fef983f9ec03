package tile

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"math/rand"
	"testing"

	"github.com/mrjoshuak/go-fresco/raster"
	"github.com/mrjoshuak/go-fresco/transform"
)

func testImage(t *testing.T, w, h uint32, cs raster.ColorSpace, depth uint8) *raster.Image {
	t.Helper()
	img, err := raster.NewImage(raster.ImageInfo{
		Width: w, Height: h, Channels: uint8(cs.Channels()), BitDepth: depth, ColorSpace: cs,
	})
	if err != nil {
		t.Fatal(err)
	}
	rng := rand.New(rand.NewSource(int64(w*h) + int64(depth)))
	for i := range img.Pix {
		img.Pix[i] = byte(i/7) + byte(rng.Intn(4))
	}
	return img
}

func flatten(tiles []CompressedTile) [][]byte {
	out := make([][]byte, len(tiles))
	for i, t := range tiles {
		out[i] = t.Data
	}
	return out
}

func TestSchedulerLosslessRoundTrip(t *testing.T) {
	images := []*raster.Image{
		testImage(t, 8, 8, raster.RGB, 8),
		testImage(t, 37, 21, raster.RGBA, 8),
		testImage(t, 30, 17, raster.Gray, 16),
		testImage(t, 19, 40, raster.GrayA, 8),
		testImage(t, 16, 16, raster.YUV444, 16),
	}
	for _, img := range images {
		for _, size := range []int{8, 16, 256} {
			opts := Options{MaxThreads: 3, TileSize: size, Params: transform.Params{Lossless: true, Effort: 4}}
			s := NewScheduler(opts)
			tiles, grid, err := s.Encode(img)
			if err != nil {
				t.Fatalf("%v tile %d: encode: %v", img.Info, size, err)
			}
			if len(tiles) != grid.Count() {
				t.Fatalf("%d tiles for %d grid cells", len(tiles), grid.Count())
			}
			for i, ct := range tiles {
				if ct.Index != grid.Index(i) || ct.Rect != grid.Rect(i) {
					t.Fatalf("tile %d out of row-major order", i)
				}
			}
			got, err := s.Decode(img.Info, flatten(tiles))
			if err != nil {
				t.Fatalf("%v tile %d: decode: %v", img.Info, size, err)
			}
			if !bytes.Equal(got.Pix, img.Pix) {
				t.Errorf("%v tile %d: round trip mismatch", img.Info, size)
			}
		}
	}
}

func TestSchedulerThreadInvariance(t *testing.T) {
	img := testImage(t, 100, 70, raster.RGB, 8)
	var want [32]byte
	for i, threads := range []int{1, 2, 8, 0} {
		opts := DefaultOptions()
		opts.TileSize = 16
		opts.MaxThreads = threads
		tiles, _, err := NewScheduler(opts).Encode(img)
		if err != nil {
			t.Fatal(err)
		}
		h := sha256.New()
		for _, ct := range tiles {
			h.Write(ct.Data)
		}
		var sum [32]byte
		copy(sum[:], h.Sum(nil))
		if i == 0 {
			want = sum
		} else if sum != want {
			t.Errorf("threads=%d: output differs from single-threaded encode", threads)
		}
	}
}

func TestSchedulerLossyGeometry(t *testing.T) {
	img := testImage(t, 33, 9, raster.RGBA, 8)
	s := NewScheduler(Options{TileSize: 16, Params: transform.Params{Quality: 60, Effort: 6}})
	tiles, _, err := s.Encode(img)
	if err != nil {
		t.Fatal(err)
	}
	got, err := s.Decode(img.Info, flatten(tiles))
	if err != nil {
		t.Fatal(err)
	}
	if got.Info != img.Info || len(got.Pix) != len(img.Pix) {
		t.Errorf("decoded %v (%d bytes), want %v", got.Info, len(got.Pix), img.Info)
	}
}

// A header describing a 65536x65536 RGBA16 image with one short tile
// stream must fail on the stream before any pixel memory is sized from
// the header.
func TestSchedulerDecodeOversizedTile(t *testing.T) {
	info := raster.ImageInfo{Width: 65536, Height: 65536, Channels: 4, BitDepth: 16, ColorSpace: raster.RGBA}
	stream := binary.AppendUvarint([]byte{0, 4, 5, 5, 5, 5, 0}, 65536*65536*4)

	var allocs int
	s := NewScheduler(Options{
		TileSize: MaxSize,
		Params:   transform.Params{Lossless: true, Effort: 5},
		Alloc: func(n int) ([]byte, error) {
			allocs++
			return make([]byte, n), nil
		},
	})
	if _, err := s.Decode(info, [][]byte{stream}); !errors.Is(err, ErrCorrupted) {
		t.Errorf("err = %v, want ErrCorrupted", err)
	}
	if allocs != 0 {
		t.Errorf("output allocated %d times for a corrupt stream", allocs)
	}
}

func TestDecodeTileAllocatesAfterStream(t *testing.T) {
	src := &transform.Tile{Width: 9, Height: 5, Channels: 2, BitDepth: 16, Pix: make([]byte, 180)}
	for i := range src.Pix {
		src.Pix[i] = byte(i * 3)
	}
	data, err := EncodeTile(src, transform.Params{Lossless: true, Effort: 4})
	if err != nil {
		t.Fatal(err)
	}

	out := &transform.Tile{Width: 9, Height: 5, Channels: 2, BitDepth: 16}
	if err := DecodeTile(data[:len(data)-1], out, 0); !errors.Is(err, ErrCorrupted) {
		t.Errorf("truncated: err = %v", err)
	}
	if out.Pix != nil {
		t.Error("truncated stream allocated pixels")
	}
	if err := DecodeTile(data, out, 0); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out.Pix, src.Pix) {
		t.Error("round trip mismatch")
	}
}

func TestSchedulerDecodeErrors(t *testing.T) {
	img := testImage(t, 20, 20, raster.RGB, 8)
	s := NewScheduler(Options{MaxThreads: 2, TileSize: 8, Params: transform.Params{Lossless: true, Effort: 5}})
	tiles, _, err := s.Encode(img)
	if err != nil {
		t.Fatal(err)
	}
	streams := flatten(tiles)

	if _, err := s.Decode(img.Info, streams[:len(streams)-1]); !errors.Is(err, ErrCorrupted) {
		t.Errorf("missing tile: err = %v", err)
	}

	broken := append([][]byte(nil), streams...)
	broken[4] = broken[4][:len(broken[4])-1]
	if _, err := s.Decode(img.Info, broken); !errors.Is(err, ErrCorrupted) {
		t.Errorf("truncated tile: err = %v", err)
	}
}

func TestSchedulerAlloc(t *testing.T) {
	img := testImage(t, 10, 10, raster.Gray, 8)
	calls := 0
	opts := Options{TileSize: 8, Params: transform.Params{Lossless: true, Effort: 2}}
	tiles, _, err := NewScheduler(opts).Encode(img)
	if err != nil {
		t.Fatal(err)
	}
	opts.Alloc = func(n int) ([]byte, error) {
		calls++
		return make([]byte, n), nil
	}
	if _, err := NewScheduler(opts).Decode(img.Info, flatten(tiles)); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("Alloc called %d times, want 1", calls)
	}

	wantErr := errors.New("no memory")
	opts.Alloc = func(int) ([]byte, error) { return nil, wantErr }
	if _, err := NewScheduler(opts).Decode(img.Info, flatten(tiles)); !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want alloc error", err)
	}
}

func TestTileCodec(t *testing.T) {
	tile := &transform.Tile{Width: 8, Height: 8, Channels: 3, BitDepth: 8, Decorrelate: true, Pix: make([]byte, 192)}
	for i := range tile.Pix {
		tile.Pix[i] = byte(i)
	}
	data, err := EncodeTile(tile, transform.Params{Lossless: true, Effort: 9})
	if err != nil {
		t.Fatal(err)
	}
	if data[0] != byte(transform.KindLossless) || data[1] != 3 {
		t.Errorf("header = %v", data[:2])
	}
	kind, _, err := StreamInfo(data)
	if err != nil || kind != transform.KindLossless {
		t.Errorf("StreamInfo = %v, %v", kind, err)
	}

	out := *tile
	out.Pix = make([]byte, 192)
	if err := DecodeTile(data, &out, 0); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out.Pix, tile.Pix) {
		t.Error("round trip mismatch")
	}

	for _, bad := range [][]byte{nil, {0}, {0, 3, 1}, {0, 2, 0, 0, 0}, {5, 3, 0, 0, 0, 0}} {
		if err := DecodeTile(bad, &out, 0); !errors.Is(err, ErrCorrupted) {
			t.Errorf("DecodeTile(%v) err = %v", bad, err)
		}
	}
}
