// Package compression implements the FRESCO entropy coder.
//
// A tile's transform stage produces a sequence of signed integer symbols
// (prediction residuals or quantized DCT coefficients). This package packs
// such a sequence into a compact, self-describing byte stream and restores
// it exactly. Several backends are available; the encoder tries the ones
// allowed by the effort level and keeps the smallest result.
//
// Stream layout:
//
//	[method u8][uvarint symbol count][method payload]
//
// Rice payloads are a raw bit stream. Byte oriented backends (RLE, Deflate,
// Huffman, Zstd) operate on the symbols serialized as zigzag varints and
// prefix their payload with the uvarint length of that serialization.
package compression

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Method identifies the backend used for an entropy stream.
type Method uint8

// Entropy coding methods. The numeric values are part of the bitstream.
const (
	MethodRice    Method = 0
	MethodRLE     Method = 1
	MethodDeflate Method = 2
	MethodHuffman Method = 3
	MethodZstd    Method = 4
)

// String returns the method name.
func (m Method) String() string {
	switch m {
	case MethodRice:
		return "rice"
	case MethodRLE:
		return "rle"
	case MethodDeflate:
		return "deflate"
	case MethodHuffman:
		return "huffman"
	case MethodZstd:
		return "zstd"
	default:
		return fmt.Sprintf("method(%d)", uint8(m))
	}
}

// Entropy stream errors
var (
	// ErrCorrupted wraps every failure to decode an entropy stream.
	ErrCorrupted = errors.New("compression: corrupted entropy stream")

	ErrUnknownMethod = errors.New("compression: unknown entropy method")
	ErrSymbolCount   = errors.New("compression: symbol count mismatch")
	ErrVarint        = errors.New("compression: malformed varint")
	ErrInvalidEffort = errors.New("compression: effort out of range")
)

// Effort bounds shared with the encoder parameters.
const (
	MinEffort = 1
	MaxEffort = 10
)

// Candidates returns the methods tried at the given effort level, in the
// order used for tie breaking.
func Candidates(effort int) []Method {
	switch {
	case effort <= 2:
		return []Method{MethodRice}
	case effort <= 4:
		return []Method{MethodRice, MethodHuffman}
	case effort <= 7:
		return []Method{MethodRice, MethodRLE, MethodDeflate, MethodHuffman}
	default:
		return []Method{MethodRice, MethodRLE, MethodDeflate, MethodHuffman, MethodZstd}
	}
}

// Encode packs symbols into an entropy stream. All candidate methods for
// the effort level are tried and the shortest stream is returned; ties go
// to the method listed first, so output is a pure function of the input.
func Encode(symbols []int32, effort int) ([]byte, error) {
	if effort < MinEffort || effort > MaxEffort {
		return nil, ErrInvalidEffort
	}

	var best []byte
	var packed []byte // varint serialization, built on first use
	for _, m := range Candidates(effort) {
		if m != MethodRice && packed == nil {
			packed = PackVarints(symbols)
		}
		out, err := EncodeMethod(m, symbols, packed, effort)
		if err != nil {
			return nil, fmt.Errorf("compression: %s: %w", m, err)
		}
		if out == nil {
			continue // backend declined (e.g. incompressible)
		}
		if best == nil || len(out) < len(best) {
			best = out
		}
	}
	return best, nil
}

// EncodeMethod encodes symbols with a single method. packed may be nil, in
// which case it is computed when needed. A nil result with a nil error means
// the backend cannot represent this input profitably.
func EncodeMethod(m Method, symbols []int32, packed []byte, effort int) ([]byte, error) {
	hdr := make([]byte, 0, 1+binary.MaxVarintLen64)
	hdr = append(hdr, byte(m))
	hdr = binary.AppendUvarint(hdr, uint64(len(symbols)))

	if m == MethodRice {
		return append(hdr, riceEncode(symbols)...), nil
	}

	if packed == nil {
		packed = PackVarints(symbols)
	}
	var body []byte
	var err error
	switch m {
	case MethodRLE:
		body = RLECompress(packed)
	case MethodDeflate:
		body, err = ZIPCompressLevel(packed, deflateLevel(effort))
	case MethodHuffman:
		body, err = HuffmanCompress(packed)
	case MethodZstd:
		body, err = ZstdCompress(packed, effort)
	default:
		return nil, ErrUnknownMethod
	}
	if err != nil {
		return nil, err
	}
	if body == nil && len(packed) > 0 {
		return nil, nil
	}

	out := binary.AppendUvarint(hdr, uint64(len(packed)))
	return append(out, body...), nil
}

// StreamMethod reports the method recorded in an entropy stream header.
func StreamMethod(src []byte) (Method, error) {
	if len(src) == 0 {
		return 0, ErrCorrupted
	}
	m := Method(src[0])
	if m > MethodZstd {
		return m, fmt.Errorf("%w: %w", ErrCorrupted, ErrUnknownMethod)
	}
	return m, nil
}

// Decode restores exactly n symbols from an entropy stream. Any structural
// problem, including truncation, is reported as an error wrapping
// ErrCorrupted.
func Decode(src []byte, n int) ([]int32, error) {
	symbols, err := decode(src, n)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupted, err)
	}
	return symbols, nil
}

func decode(src []byte, n int) ([]int32, error) {
	if len(src) == 0 {
		return nil, ErrVarint
	}
	m := Method(src[0])
	count, k := binary.Uvarint(src[1:])
	if k <= 0 {
		return nil, ErrVarint
	}
	if n < 0 || count != uint64(n) {
		return nil, ErrSymbolCount
	}
	body := src[1+k:]

	if m == MethodRice {
		return riceDecode(body, n)
	}

	packedLen, k := binary.Uvarint(body)
	if k <= 0 {
		return nil, ErrVarint
	}
	// A symbol occupies between 1 and 5 varint bytes.
	if packedLen < uint64(n) || packedLen > uint64(n)*binary.MaxVarintLen32 {
		return nil, ErrSymbolCount
	}
	body = body[k:]

	var packed []byte
	var err error
	switch m {
	case MethodRLE:
		packed, err = RLEDecompress(body, int(packedLen))
	case MethodDeflate:
		packed, err = ZIPDecompress(body, int(packedLen))
	case MethodHuffman:
		packed, err = HuffmanDecompress(body, int(packedLen))
	case MethodZstd:
		packed, err = ZstdDecompress(body, int(packedLen))
	default:
		return nil, ErrUnknownMethod
	}
	if err != nil {
		return nil, err
	}
	return UnpackVarints(packed, n)
}

// Zigzag maps signed values to unsigned so small magnitudes stay small.
func Zigzag(v int32) uint32 {
	return uint32(v<<1) ^ uint32(v>>31)
}

// Unzigzag reverses Zigzag.
func Unzigzag(u uint32) int32 {
	return int32(u>>1) ^ -int32(u&1)
}

// PackVarints serializes symbols as zigzag uvarints.
func PackVarints(symbols []int32) []byte {
	out := make([]byte, 0, len(symbols)+len(symbols)/4)
	for _, s := range symbols {
		out = binary.AppendUvarint(out, uint64(Zigzag(s)))
	}
	return out
}

// UnpackVarints parses exactly n zigzag uvarints and requires that they
// consume all of src.
func UnpackVarints(src []byte, n int) ([]int32, error) {
	symbols := make([]int32, n)
	pos := 0
	for i := range symbols {
		u, k := binary.Uvarint(src[pos:])
		if k <= 0 || u > math.MaxUint32 {
			return nil, ErrVarint
		}
		symbols[i] = Unzigzag(uint32(u))
		pos += k
	}
	if pos != len(src) {
		return nil, ErrSymbolCount
	}
	return symbols, nil
}

// deflateLevel maps effort onto a zlib level.
func deflateLevel(effort int) CompressionLevel {
	if effort >= 9 {
		return CompressionLevelBestSize
	}
	return CompressionLevel(effort)
}
