package compression

import (
	"slices"
	"testing"
)

func TestRiceZeroBlocks(t *testing.T) {
	// 128 zeros are two blocks of five bits each.
	enc := riceEncode(make([]int32, 128))
	if len(enc) != 2 {
		t.Fatalf("encoded %d bytes, want 2", len(enc))
	}
	got, err := riceDecode(enc, 128)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range got {
		if v != 0 {
			t.Fatalf("symbol %d = %d", i, v)
		}
	}
}

func TestRiceKnownBits(t *testing.T) {
	// Symbols 0,1 zigzag to 0,2 and k=0 is cheapest: "00000" then unary
	// codes "0" and "110", padded to two bytes.
	enc := riceEncode([]int32{0, 1})
	want := []byte{0b00000011, 0b00000000}
	if !slices.Equal(enc, want) {
		t.Errorf("got %08b, want %08b", enc, want)
	}
}

func TestRiceEscape(t *testing.T) {
	symbols := []int32{0, 0, 0, 1 << 30, -(1 << 29), 0}
	enc := riceEncode(symbols)
	got, err := riceDecode(enc, len(symbols))
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, symbols) {
		t.Errorf("got %v, want %v", got, symbols)
	}
}

func TestRiceBestK(t *testing.T) {
	small := []uint32{0, 1, 0, 2, 1, 0}
	if k := riceBestK(small); k != 0 {
		t.Errorf("small values: k = %d, want 0", k)
	}
	large := make([]uint32, 64)
	for i := range large {
		large[i] = 1000 + uint32(i)
	}
	if k := riceBestK(large); k < 8 || k > 10 {
		t.Errorf("values near 1000: k = %d", k)
	}
}

func TestRiceDecodeErrors(t *testing.T) {
	symbols := residuals(300, 9, 5)
	enc := riceEncode(symbols)

	if _, err := riceDecode(enc[:len(enc)-2], len(symbols)); err != ErrRiceCorrupted {
		t.Errorf("truncated: err = %v", err)
	}
	if _, err := riceDecode(append(slices.Clone(enc), 0), len(symbols)); err != ErrRiceCorrupted {
		t.Errorf("trailing byte: err = %v", err)
	}
	// k code 25 is outside the searched range and not the zero marker.
	if _, err := riceDecode([]byte{25 << 3, 0, 0}, 1); err != ErrRiceCorrupted {
		t.Errorf("bad k: err = %v", err)
	}
}
