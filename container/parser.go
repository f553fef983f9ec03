package container

import (
	"bytes"
	"fmt"
	"hash/crc32"

	"github.com/mrjoshuak/go-fresco/internal/xdr"
	"github.com/mrjoshuak/go-fresco/raster"
)

// signature is the fixed start of every container: the ftyp box header
// and major brand.
var signature = []byte{0, 0, 0, FileTypeSize, 'f', 't', 'y', 'p', 'f', 'r', 's', 'c'}

// IsContainer reports whether b starts with the container signature.
func IsContainer(b []byte) bool {
	return bytes.HasPrefix(b, signature)
}

// ParseHeader decodes the fixed header. It reads at most HeaderSize bytes
// of b; FileSize is set to len(b).
func ParseHeader(b []byte) (Info, error) {
	n := min(len(b), len(signature))
	if !bytes.Equal(b[:n], signature[:n]) || n == 0 {
		return Info{}, fmt.Errorf("%w: missing %s signature", ErrUnsupported, Brand)
	}
	if len(b) < HeaderSize {
		return Info{}, corruptf("header truncated at %d bytes", len(b))
	}
	hdr := b[:HeaderSize]

	r := xdr.NewReader(hdr[len(signature):])
	_, _ = r.ReadUint32() // minor version
	if cc, _ := r.ReadFourCC(); cc != Brand {
		return Info{}, corruptf("compatible brand %q", cc)
	}
	size, _ := r.ReadUint32()
	typ, _ := r.ReadFourCC()
	if size != HeaderBoxSize || typ != BoxHeader {
		return Info{}, corruptf("expected %s box, found %q of %d bytes", BoxHeader, typ, size)
	}

	version, _ := r.ReadByte()
	if version != Version {
		return Info{}, fmt.Errorf("%w: header version %d", ErrUnsupported, version)
	}
	if want, got := crc32.ChecksumIEEE(hdr[:crcOffset]), xdr.ByteOrder.Uint32(hdr[crcOffset:]); want != got {
		return Info{}, corruptf("header checksum %08x, want %08x", got, want)
	}

	var info Info
	info.Flags, _ = r.ReadByte()
	_, _ = r.ReadUint16()
	info.Image.Width, _ = r.ReadUint32()
	info.Image.Height, _ = r.ReadUint32()
	info.Image.Channels, _ = r.ReadByte()
	info.Image.BitDepth, _ = r.ReadByte()
	cs, _ := r.ReadByte()
	info.Image.ColorSpace = raster.ColorSpace(cs)
	mode, _ := r.ReadByte()
	info.Quality, _ = r.ReadByte()
	info.Effort, _ = r.ReadByte()
	_, _ = r.ReadUint16()
	info.TileSize, _ = r.ReadUint32()
	info.TileCols, _ = r.ReadUint32()
	info.TileRows, _ = r.ReadUint32()
	info.FrameCount, _ = r.ReadUint32()
	info.FrameRate, _ = r.ReadFloat32()
	info.CompressedSize, _ = r.ReadUint64()
	info.FileSize = uint64(len(b))

	if err := info.Image.Validate(); err != nil {
		return Info{}, fmt.Errorf("%w: %w", ErrCorrupted, err)
	}
	if (mode == 1) != info.Lossless() || mode > 1 {
		return Info{}, corruptf("mode %d with flags %02x", mode, info.Flags)
	}
	if info.TileSize < MinTileSize || info.TileSize > MaxTileSize {
		return Info{}, corruptf("tile size %d outside [%d, %d]", info.TileSize, MinTileSize, MaxTileSize)
	}
	cols := (uint64(info.Image.Width) + uint64(info.TileSize) - 1) / uint64(info.TileSize)
	rows := (uint64(info.Image.Height) + uint64(info.TileSize) - 1) / uint64(info.TileSize)
	if uint64(info.TileCols) != cols || uint64(info.TileRows) != rows {
		return Info{}, corruptf("tile layout %dx%d, want %dx%d", info.TileCols, info.TileRows, cols, rows)
	}
	return info, nil
}

// Parse decodes the header and every box, validating all declared lengths
// and tile checksums.
func Parse(b []byte) (*File, error) {
	info, err := ParseHeader(b)
	if err != nil {
		return nil, err
	}
	f := &File{Info: info}
	var sawTiles bool

	r := xdr.NewReader(b[HeaderSize:])
	for r.Len() > 0 {
		typ, body, err := readBox(r)
		if err != nil {
			return nil, err
		}
		switch typ {
		case BoxMeta:
			if f.Attributes, err = parseMeta(body); err != nil {
				return nil, err
			}
		case BoxPreview:
			if f.Preview, err = parsePreview(body); err != nil {
				return nil, err
			}
			if f.Preview.Width > info.Image.Width || f.Preview.Height > info.Image.Height {
				return nil, corruptf("preview %dx%d larger than the image", f.Preview.Width, f.Preview.Height)
			}
		case BoxTileData:
			if sawTiles {
				return nil, corruptf("duplicate %s box", BoxTileData)
			}
			sawTiles = true
			if uint64(len(body)) != info.CompressedSize {
				return nil, corruptf("tile payload is %d bytes, header says %d", len(body), info.CompressedSize)
			}
			if f.Tiles, err = parseTiles(body, uint64(info.TileCols)*uint64(info.TileRows)); err != nil {
				return nil, err
			}
		}
		// Unknown boxes are skipped.
	}

	if !sawTiles {
		return nil, corruptf("missing %s box", BoxTileData)
	}
	if info.HasPreview() != (f.Preview != nil) {
		return nil, corruptf("preview flag does not match boxes")
	}
	if (info.Flags&FlagAttributes != 0) != (f.Attributes != nil) {
		return nil, corruptf("attribute flag does not match boxes")
	}
	return f, nil
}

// ExtractTiles returns the tile streams of a container in row-major order.
func ExtractTiles(b []byte) ([][]byte, error) {
	f, err := Parse(b)
	if err != nil {
		return nil, err
	}
	return f.Tiles, nil
}

// readBox reads one box and returns its type and payload.
func readBox(r *xdr.Reader) (string, []byte, error) {
	if r.Len() < boxHeaderSize {
		return "", nil, corruptf("%d trailing bytes", r.Len())
	}
	avail := uint64(r.Len())
	size32, _ := r.ReadUint32()
	typ, _ := r.ReadFourCC()

	size, hdr := uint64(size32), uint64(boxHeaderSize)
	switch size32 {
	case 0:
		size = avail // box extends to the end
	case 1:
		large, err := r.ReadUint64()
		if err != nil {
			return "", nil, corruptf("truncated %q largesize", typ)
		}
		size, hdr = large, largeBoxHeaderSize
	}
	if size < hdr || size > avail {
		return "", nil, corruptf("%q box of %d bytes with %d available", typ, size, avail)
	}
	body, _ := r.ReadSlice(int(size - hdr))
	return typ, body, nil
}

func parseMeta(body []byte) (map[string]string, error) {
	r := xdr.NewReader(body)
	count, err := r.ReadUint16()
	if err != nil {
		return nil, corruptf("truncated %s box", BoxMeta)
	}
	attrs := make(map[string]string, count)
	for range count {
		klen, err := r.ReadUint16()
		if err != nil {
			return nil, corruptf("truncated %s box", BoxMeta)
		}
		key, err := r.ReadSlice(int(klen))
		if err != nil {
			return nil, corruptf("truncated %s box", BoxMeta)
		}
		vlen, err := r.ReadUint32()
		if err != nil || uint64(vlen) > uint64(r.Len()) {
			return nil, corruptf("truncated %s box", BoxMeta)
		}
		val, _ := r.ReadSlice(int(vlen))
		attrs[string(key)] = string(val)
	}
	if r.Len() != 0 {
		return nil, corruptf("%d extra bytes in %s box", r.Len(), BoxMeta)
	}
	return attrs, nil
}

func parsePreview(body []byte) (*Preview, error) {
	r := xdr.NewReader(body)
	w, err1 := r.ReadUint32()
	h, err2 := r.ReadUint32()
	if err1 != nil || err2 != nil || w == 0 || h == 0 {
		return nil, corruptf("invalid %s box", BoxPreview)
	}
	data, _ := r.ReadSlice(r.Len())
	return &Preview{Width: w, Height: h, Data: data}, nil
}

func parseTiles(body []byte, count uint64) ([][]byte, error) {
	if count > uint64(len(body))/tileEntryHeader {
		return nil, corruptf("%d tiles cannot fit in %d bytes", count, len(body))
	}
	r := xdr.NewReader(body)
	tiles := make([][]byte, count)
	for i := range tiles {
		n, err := r.ReadUint32()
		if err != nil {
			return nil, corruptf("tile %d: truncated entry", i)
		}
		sum, err := r.ReadUint32()
		if err != nil || uint64(n) > uint64(r.Len()) {
			return nil, corruptf("tile %d: %d bytes declared, %d available", i, n, r.Len())
		}
		data, _ := r.ReadSlice(int(n))
		if crc32.Checksum(data, castagnoli) != sum {
			return nil, corruptf("tile %d: checksum mismatch", i)
		}
		tiles[i] = data
	}
	if r.Len() != 0 {
		return nil, corruptf("%d bytes after the last tile", r.Len())
	}
	return tiles, nil
}
