package compression

import (
	"bytes"
	"errors"
	"io"
	"sync"

	"github.com/klauspost/compress/zlib"
)

// Deflate errors
var (
	ErrZIPCorrupted = errors.New("compression: corrupted deflate data")
	ErrZIPLevel     = errors.New("compression: invalid deflate level")
)

// CompressionLevel is a zlib compression level.
type CompressionLevel int

// Zlib levels used by the entropy coder.
const (
	CompressionLevelBestSpeed CompressionLevel = 1
	CompressionLevelBestSize  CompressionLevel = 9
)

// zlibWriter pairs a reusable writer with its destination buffer.
type zlibWriter struct {
	w   *zlib.Writer
	buf bytes.Buffer
}

// One writer pool per level; Reset keeps the level a writer was built with.
var zlibWriterPools [CompressionLevelBestSize + 1]sync.Pool

func getZlibWriter(level CompressionLevel) (*zlibWriter, error) {
	if v := zlibWriterPools[level].Get(); v != nil {
		zw := v.(*zlibWriter)
		zw.buf.Reset()
		zw.w.Reset(&zw.buf)
		return zw, nil
	}
	zw := &zlibWriter{}
	w, err := zlib.NewWriterLevel(&zw.buf, int(level))
	if err != nil {
		return nil, err
	}
	zw.w = w
	return zw, nil
}

// ZIPCompressLevel compresses src as a zlib stream at the given level.
func ZIPCompressLevel(src []byte, level CompressionLevel) ([]byte, error) {
	if len(src) == 0 {
		return nil, nil
	}
	if level < CompressionLevelBestSpeed || level > CompressionLevelBestSize {
		return nil, ErrZIPLevel
	}

	zw, err := getZlibWriter(level)
	if err != nil {
		return nil, err
	}
	defer zlibWriterPools[level].Put(zw)

	if _, err := zw.w.Write(src); err != nil {
		return nil, err
	}
	if err := zw.w.Close(); err != nil {
		return nil, err
	}
	return bytes.Clone(zw.buf.Bytes()), nil
}

type zlibReader struct {
	r   io.ReadCloser
	src bytes.Reader
}

var zlibReaderPool = sync.Pool{
	New: func() any { return &zlibReader{} },
}

// ZIPDecompress inflates src, which must expand to exactly expectedSize
// bytes with nothing left over.
func ZIPDecompress(src []byte, expectedSize int) ([]byte, error) {
	if len(src) == 0 {
		if expectedSize != 0 {
			return nil, ErrZIPCorrupted
		}
		return nil, nil
	}

	zr := zlibReaderPool.Get().(*zlibReader)
	defer zlibReaderPool.Put(zr)
	zr.src.Reset(src)

	var err error
	if zr.r == nil {
		zr.r, err = zlib.NewReader(&zr.src)
	} else {
		err = zr.r.(zlib.Resetter).Reset(&zr.src, nil)
	}
	if err != nil {
		zr.r = nil
		return nil, ErrZIPCorrupted
	}

	// Grow with the inflated data instead of trusting expectedSize. Reading
	// one byte past it catches long streams; reaching EOF verifies the
	// checksum.
	var dst bytes.Buffer
	dst.Grow(min(expectedSize, 4*len(src)))
	n, err := io.Copy(&dst, io.LimitReader(zr.r, int64(expectedSize)+1))
	if err != nil || n != int64(expectedSize) {
		return nil, ErrZIPCorrupted
	}
	return dst.Bytes(), nil
}
