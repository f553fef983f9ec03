package compression

import (
	"encoding/binary"
	"errors"
	"math"
	"math/rand"
	"slices"
	"testing"
)

// residuals returns a Laplacian-like symbol sequence typical of
// prediction residuals.
func residuals(n int, seed int64, spread float64) []int32 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]int32, n)
	for i := range out {
		v := rng.ExpFloat64() * spread
		if rng.Intn(2) == 0 {
			v = -v
		}
		out[i] = int32(v)
	}
	return out
}

func TestZigzag(t *testing.T) {
	tests := []struct {
		in   int32
		want uint32
	}{
		{0, 0}, {-1, 1}, {1, 2}, {-2, 3}, {2, 4},
		{math.MaxInt32, math.MaxUint32 - 1},
		{math.MinInt32, math.MaxUint32},
	}
	for _, tt := range tests {
		if got := Zigzag(tt.in); got != tt.want {
			t.Errorf("Zigzag(%d) = %d, want %d", tt.in, got, tt.want)
		}
		if got := Unzigzag(tt.want); got != tt.in {
			t.Errorf("Unzigzag(%d) = %d, want %d", tt.want, got, tt.in)
		}
	}
}

func TestCandidates(t *testing.T) {
	tests := []struct {
		effort int
		want   []Method
	}{
		{1, []Method{MethodRice}},
		{2, []Method{MethodRice}},
		{3, []Method{MethodRice, MethodHuffman}},
		{5, []Method{MethodRice, MethodRLE, MethodDeflate, MethodHuffman}},
		{7, []Method{MethodRice, MethodRLE, MethodDeflate, MethodHuffman}},
		{10, []Method{MethodRice, MethodRLE, MethodDeflate, MethodHuffman, MethodZstd}},
	}
	for _, tt := range tests {
		if got := Candidates(tt.effort); !slices.Equal(got, tt.want) {
			t.Errorf("Candidates(%d) = %v, want %v", tt.effort, got, tt.want)
		}
	}
}

func TestEncodeDecodeAllMethods(t *testing.T) {
	inputs := map[string][]int32{
		"empty":     {},
		"single":    {-7},
		"zeros":     make([]int32, 5000),
		"residuals": residuals(10000, 1, 4),
		"wide":      residuals(3000, 2, 3000),
		"extremes":  {math.MaxInt32, math.MinInt32, 0, -1, 1, math.MinInt32},
	}
	for name, symbols := range inputs {
		for m := MethodRice; m <= MethodZstd; m++ {
			t.Run(name+"/"+m.String(), func(t *testing.T) {
				stream, err := EncodeMethod(m, symbols, nil, 10)
				if err != nil {
					t.Fatalf("EncodeMethod: %v", err)
				}
				if stream == nil {
					t.Skip("method declined input")
				}
				if got, err := StreamMethod(stream); err != nil || got != m {
					t.Errorf("StreamMethod = %v, %v", got, err)
				}
				got, err := Decode(stream, len(symbols))
				if err != nil {
					t.Fatalf("Decode: %v", err)
				}
				if !slices.Equal(got, symbols) {
					t.Error("round trip mismatch")
				}
			})
		}
	}
}

func TestEncodePicksSmallest(t *testing.T) {
	symbols := residuals(20000, 3, 2)
	for effort := MinEffort; effort <= MaxEffort; effort++ {
		stream, err := Encode(symbols, effort)
		if err != nil {
			t.Fatalf("effort %d: %v", effort, err)
		}
		for _, m := range Candidates(effort) {
			alt, err := EncodeMethod(m, symbols, nil, effort)
			if err != nil {
				t.Fatal(err)
			}
			if alt != nil && len(alt) < len(stream) {
				t.Errorf("effort %d: %s gives %d bytes, Encode chose %d", effort, m, len(alt), len(stream))
			}
		}
		got, err := Decode(stream, len(symbols))
		if err != nil {
			t.Fatalf("effort %d decode: %v", effort, err)
		}
		if !slices.Equal(got, symbols) {
			t.Errorf("effort %d: round trip mismatch", effort)
		}
	}
}

func TestEncodeHigherEffortNotLarger(t *testing.T) {
	symbols := residuals(30000, 4, 6)
	prev := -1
	for _, effort := range []int{1, 3, 5} {
		stream, err := Encode(symbols, effort)
		if err != nil {
			t.Fatal(err)
		}
		if prev >= 0 && len(stream) > prev {
			t.Errorf("effort %d produced %d bytes, more than %d", effort, len(stream), prev)
		}
		prev = len(stream)
	}
}

func TestEncodeInvalidEffort(t *testing.T) {
	for _, effort := range []int{0, 11, -3} {
		if _, err := Encode([]int32{1}, effort); !errors.Is(err, ErrInvalidEffort) {
			t.Errorf("effort %d: err = %v", effort, err)
		}
	}
}

func TestDecodeErrors(t *testing.T) {
	symbols := residuals(500, 5, 3)
	stream, err := Encode(symbols, 6)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		src  []byte
		n    int
	}{
		{"empty", nil, 0},
		{"method only", stream[:1], len(symbols)},
		{"wrong count", stream, len(symbols) + 1},
		{"truncated", stream[:len(stream)/2], len(symbols)},
		{"unknown method", append([]byte{9}, stream[1:]...), len(symbols)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(tt.src, tt.n); !errors.Is(err, ErrCorrupted) {
				t.Errorf("err = %v, want ErrCorrupted", err)
			}
		})
	}
}

func TestUnpackVarintsTrailing(t *testing.T) {
	packed := PackVarints([]int32{1, 2, 3})
	if _, err := UnpackVarints(append(packed, 0), 3); err == nil {
		t.Error("expected error for trailing byte")
	}
	if _, err := UnpackVarints(packed[:2], 3); err == nil {
		t.Error("expected error for missing varint")
	}
}

// A header may claim far more symbols than its payload can hold; decoding
// must fail on the payload without sizing buffers from the claim.
func TestDecodeOversizedCount(t *testing.T) {
	const n = 1 << 30
	small := PackVarints([]int32{1, 2, 3})
	zlibBody, err := ZIPCompressLevel(small, CompressionLevelBestSpeed)
	if err != nil {
		t.Fatal(err)
	}
	zstdBody, err := ZstdCompress(small, 10)
	if err != nil {
		t.Fatal(err)
	}

	byteStream := func(m Method, body []byte) []byte {
		src := binary.AppendUvarint([]byte{byte(m)}, n)
		src = binary.AppendUvarint(src, n)
		return append(src, body...)
	}
	tests := map[string][]byte{
		"rice":    binary.AppendUvarint([]byte{byte(MethodRice)}, n),
		"rle":     byteStream(MethodRLE, []byte{0x81, 0}),
		"deflate": byteStream(MethodDeflate, zlibBody),
		"huffman": byteStream(MethodHuffman, []byte{huffBlockRLE, 100, 5}),
		"zstd":    byteStream(MethodZstd, zstdBody),
	}
	for name, src := range tests {
		if _, err := Decode(src, n); !errors.Is(err, ErrCorrupted) {
			t.Errorf("%s: err = %v, want ErrCorrupted", name, err)
		}
	}
}
