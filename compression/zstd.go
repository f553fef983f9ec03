package compression

import (
	"errors"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// ErrZstdCorrupted is returned for malformed Zstandard payloads.
var ErrZstdCorrupted = errors.New("compression: corrupted zstd data")

// zstdMaxMemory caps decoder allocations driven by frame headers.
const zstdMaxMemory = 1 << 30

// Shared encoders per level. EncodeAll is safe for concurrent use and a
// single-goroutine encoder produces the same bytes on every run.
var zstdEncoders = map[zstd.EncoderLevel]func() (*zstd.Encoder, error){
	zstd.SpeedDefault:           newZstdEncoder(zstd.SpeedDefault),
	zstd.SpeedBetterCompression: newZstdEncoder(zstd.SpeedBetterCompression),
	zstd.SpeedBestCompression:   newZstdEncoder(zstd.SpeedBestCompression),
}

func newZstdEncoder(level zstd.EncoderLevel) func() (*zstd.Encoder, error) {
	return sync.OnceValues(func() (*zstd.Encoder, error) {
		return zstd.NewWriter(nil,
			zstd.WithEncoderLevel(level),
			zstd.WithEncoderConcurrency(1),
		)
	})
}

var zstdDecoder = sync.OnceValues(func() (*zstd.Decoder, error) {
	return zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(0),
		zstd.WithDecoderMaxMemory(zstdMaxMemory),
	)
})

// zstdLevel maps effort onto an encoder level.
func zstdLevel(effort int) zstd.EncoderLevel {
	switch {
	case effort >= 10:
		return zstd.SpeedBestCompression
	case effort == 9:
		return zstd.SpeedBetterCompression
	default:
		return zstd.SpeedDefault
	}
}

// ZstdCompress compresses src into a single Zstandard frame.
func ZstdCompress(src []byte, effort int) ([]byte, error) {
	if len(src) == 0 {
		return nil, nil
	}
	enc, err := zstdEncoders[zstdLevel(effort)]()
	if err != nil {
		return nil, err
	}
	return enc.EncodeAll(src, make([]byte, 0, len(src)/2)), nil
}

// ZstdDecompress decodes src, which must produce exactly expectedSize bytes.
func ZstdDecompress(src []byte, expectedSize int) ([]byte, error) {
	if len(src) == 0 {
		if expectedSize != 0 {
			return nil, ErrZstdCorrupted
		}
		return nil, nil
	}
	var h zstd.Header
	if err := h.Decode(src); err != nil || (h.HasFCS && h.FrameContentSize != uint64(expectedSize)) {
		return nil, ErrZstdCorrupted
	}
	dec, err := zstdDecoder()
	if err != nil {
		return nil, err
	}
	out, err := dec.DecodeAll(src, make([]byte, 0, min(expectedSize, 4*len(src))))
	if err != nil || len(out) != expectedSize {
		return nil, ErrZstdCorrupted
	}
	return out, nil
}
