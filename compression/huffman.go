package compression

import (
	"encoding/binary"
	"errors"

	"github.com/klauspost/compress/huff0"
)

// ErrHuffmanCorrupted is returned for malformed Huffman block streams.
var ErrHuffmanCorrupted = errors.New("compression: corrupted Huffman data")

// huffBlockSize bounds each independently coded block; huff0 accepts at
// most huff0.BlockSizeMax bytes per call.
const huffBlockSize = 64 << 10

// Huffman block kinds
const (
	huffBlockRaw  = 0 // stored bytes
	huffBlockRLE  = 1 // one byte repeated rawLen times
	huffBlockHuff = 2 // huff0 1X stream with its table
)

// HuffmanCompress codes src as a sequence of canonical Huffman blocks:
//
//	[kind u8][uvarint rawLen] then
//	  raw:  rawLen bytes
//	  rle:  1 byte
//	  huff: [uvarint encLen][encLen bytes]
func HuffmanCompress(src []byte) ([]byte, error) {
	if len(src) == 0 {
		return nil, nil
	}
	dst := make([]byte, 0, len(src)/2+16)

	for start := 0; start < len(src); start += huffBlockSize {
		block := src[start:min(start+huffBlockSize, len(src))]

		// A fresh scratch never reuses a previous table, so every block
		// carries its own and decodes independently.
		s := &huff0.Scratch{Reuse: huff0.ReusePolicyNone}
		enc, _, err := huff0.Compress1X(block, s)
		switch {
		case err == nil && len(enc) < len(block):
			dst = append(dst, huffBlockHuff)
			dst = binary.AppendUvarint(dst, uint64(len(block)))
			dst = binary.AppendUvarint(dst, uint64(len(enc)))
			dst = append(dst, enc...)
		case errors.Is(err, huff0.ErrUseRLE):
			dst = append(dst, huffBlockRLE)
			dst = binary.AppendUvarint(dst, uint64(len(block)))
			dst = append(dst, block[0])
		case err == nil, errors.Is(err, huff0.ErrIncompressible):
			dst = append(dst, huffBlockRaw)
			dst = binary.AppendUvarint(dst, uint64(len(block)))
			dst = append(dst, block...)
		default:
			return nil, err
		}
	}
	return dst, nil
}

// HuffmanDecompress reverses HuffmanCompress. The blocks must expand to
// exactly expectedSize bytes.
func HuffmanDecompress(src []byte, expectedSize int) ([]byte, error) {
	dst := make([]byte, 0, min(expectedSize, huffBlockSize))

	for len(src) > 0 {
		kind := src[0]
		rawLen, k := binary.Uvarint(src[1:])
		if k <= 0 || rawLen == 0 || rawLen > huffBlockSize || uint64(len(dst))+rawLen > uint64(expectedSize) {
			return nil, ErrHuffmanCorrupted
		}
		src = src[1+k:]
		n := int(rawLen)

		switch kind {
		case huffBlockRaw:
			if len(src) < n {
				return nil, ErrHuffmanCorrupted
			}
			dst = append(dst, src[:n]...)
			src = src[n:]

		case huffBlockRLE:
			if len(src) < 1 {
				return nil, ErrHuffmanCorrupted
			}
			for range n {
				dst = append(dst, src[0])
			}
			src = src[1:]

		case huffBlockHuff:
			encLen, k := binary.Uvarint(src)
			if k <= 0 || encLen > uint64(len(src)-k) {
				return nil, ErrHuffmanCorrupted
			}
			enc := src[k : k+int(encLen)]
			src = src[k+int(encLen):]

			s, remain, err := huff0.ReadTable(enc, nil)
			if err != nil {
				return nil, ErrHuffmanCorrupted
			}
			s.MaxDecodedSize = n
			out, err := s.Decompress1X(remain)
			if err != nil || len(out) != n {
				return nil, ErrHuffmanCorrupted
			}
			dst = append(dst, out...)

		default:
			return nil, ErrHuffmanCorrupted
		}
	}

	if len(dst) != expectedSize {
		return nil, ErrHuffmanCorrupted
	}
	return dst, nil
}
