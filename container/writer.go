package container

import (
	"hash/crc32"
	"math"
	"slices"

	"github.com/mrjoshuak/go-fresco/internal/xdr"
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// Write assembles a container. info supplies the image description,
// coding parameters and tile layout; Flags bits for preview and attributes
// are set from the arguments, and CompressedSize is computed.
func Write(info Info, tiles [][]byte, preview *Preview, attrs map[string]string) ([]byte, error) {
	if err := info.Image.Validate(); err != nil {
		return nil, err
	}
	if uint64(len(tiles)) != uint64(info.TileCols)*uint64(info.TileRows) {
		return nil, corruptf("%d tiles for a %dx%d layout", len(tiles), info.TileCols, info.TileRows)
	}

	var payload uint64
	for _, t := range tiles {
		if uint64(len(t)) > math.MaxUint32 {
			return nil, corruptf("tile of %d bytes", len(t))
		}
		payload += tileEntryHeader + uint64(len(t))
	}
	info.CompressedSize = payload
	info.Flags &^= FlagPreview | FlagAttributes
	if preview != nil {
		info.Flags |= FlagPreview
	}
	if len(attrs) > 0 {
		info.Flags |= FlagAttributes
	}

	w := xdr.NewBufferWriter(HeaderSize + int(payload) + 64)
	writeHeader(w, &info)
	if len(attrs) > 0 {
		if err := writeMeta(w, attrs); err != nil {
			return nil, err
		}
	}
	if preview != nil {
		start := beginBox(w, BoxPreview)
		w.WriteUint32(preview.Width)
		w.WriteUint32(preview.Height)
		w.WriteBytes(preview.Data)
		endBox(w, start)
	}

	// tdat may exceed the 32-bit box size; use largesize when it does.
	if payload+boxHeaderSize > math.MaxUint32 {
		w.WriteUint32(1)
		w.WriteFourCC(BoxTileData)
		w.WriteUint64(payload + largeBoxHeaderSize)
	} else {
		w.WriteUint32(uint32(payload + boxHeaderSize))
		w.WriteFourCC(BoxTileData)
	}
	for _, t := range tiles {
		w.WriteUint32(uint32(len(t)))
		w.WriteUint32(crc32.Checksum(t, castagnoli))
		w.WriteBytes(t)
	}
	return w.Bytes(), nil
}

func writeHeader(w *xdr.BufferWriter, info *Info) {
	w.WriteUint32(FileTypeSize)
	w.WriteFourCC(BoxFileType)
	w.WriteFourCC(Brand)
	w.WriteUint32(MinorVersion)
	w.WriteFourCC(Brand)

	w.WriteUint32(HeaderBoxSize)
	w.WriteFourCC(BoxHeader)
	w.WriteByte(Version)
	w.WriteByte(info.Flags)
	w.WriteUint16(0)
	w.WriteUint32(info.Image.Width)
	w.WriteUint32(info.Image.Height)
	w.WriteByte(info.Image.Channels)
	w.WriteByte(info.Image.BitDepth)
	w.WriteByte(byte(info.Image.ColorSpace))
	mode := byte(0)
	if info.Lossless() {
		mode = 1
	}
	w.WriteByte(mode)
	w.WriteByte(info.Quality)
	w.WriteByte(info.Effort)
	w.WriteUint16(0)
	w.WriteUint32(info.TileSize)
	w.WriteUint32(info.TileCols)
	w.WriteUint32(info.TileRows)
	w.WriteUint32(info.FrameCount)
	w.WriteFloat32(info.FrameRate)
	w.WriteUint64(info.CompressedSize)
	w.WriteUint32(crc32.ChecksumIEEE(w.Bytes()[:crcOffset]))
}

func writeMeta(w *xdr.BufferWriter, attrs map[string]string) error {
	if len(attrs) > math.MaxUint16 {
		return corruptf("%d attributes", len(attrs))
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		if len(k) == 0 || len(k) > math.MaxUint16 {
			return corruptf("attribute name of %d bytes", len(k))
		}
		keys = append(keys, k)
	}
	slices.Sort(keys)

	start := beginBox(w, BoxMeta)
	w.WriteUint16(uint16(len(keys)))
	for _, k := range keys {
		v := attrs[k]
		w.WriteUint16(uint16(len(k)))
		w.WriteBytes([]byte(k))
		w.WriteUint32(uint32(len(v)))
		w.WriteBytes([]byte(v))
	}
	endBox(w, start)
	return nil
}

// beginBox writes a box header with a placeholder size.
func beginBox(w *xdr.BufferWriter, typ string) int {
	start := w.Len()
	w.WriteUint32(0)
	w.WriteFourCC(typ)
	return start
}

func endBox(w *xdr.BufferWriter, start int) {
	_ = w.PutUint32At(start, uint32(w.Len()-start))
}
