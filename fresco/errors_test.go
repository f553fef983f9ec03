package fresco

import (
	"errors"
	"fmt"
	"testing"

	"github.com/mrjoshuak/go-fresco/compression"
	"github.com/mrjoshuak/go-fresco/container"
	"github.com/mrjoshuak/go-fresco/raster"
	"github.com/mrjoshuak/go-fresco/tile"
)

func TestErrorString(t *testing.T) {
	tests := []struct {
		code Code
		want string
	}{
		{OK, "Success"},
		{InvalidParameter, "Invalid parameter"},
		{OutOfMemory, "Out of memory"},
		{IO, "I/O error"},
		{UnsupportedFormat, "Unsupported format"},
		{CorruptedData, "Corrupted data"},
		{EncodingFailed, "Encoding failed"},
		{DecodingFailed, "Decoding failed"},
		{NotImplemented, "Not implemented"},
		{Code(-99), "Unknown error"},
	}
	for _, tt := range tests {
		if got := ErrorString(tt.code); got != tt.want {
			t.Errorf("ErrorString(%d) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestErrorMatching(t *testing.T) {
	cause := errors.New("boom")
	err := fmt.Errorf("context: %w", &Error{Code: CorruptedData, Op: "decode", Err: cause})

	if !errors.Is(err, ErrCorruptedData) {
		t.Error("not matched by its sentinel")
	}
	if errors.Is(err, ErrDecodingFailed) {
		t.Error("matched a different sentinel")
	}
	if !errors.Is(err, cause) {
		t.Error("cause not reachable")
	}
	if CodeOf(err) != CorruptedData || CodeOf(nil) != OK {
		t.Errorf("CodeOf = %v", CodeOf(err))
	}
	if got := (&Error{Code: IO, Op: "read", Err: cause}).Error(); got != "fresco: read: I/O error: boom" {
		t.Errorf("Error() = %q", got)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want Code
	}{
		{container.ErrUnsupported, UnsupportedFormat},
		{raster.ErrUnsupportedFormat, UnsupportedFormat},
		{fmt.Errorf("x: %w", container.ErrCorrupted), CorruptedData},
		{fmt.Errorf("tile 3: %w", tile.ErrCorrupted), CorruptedData},
		{compression.ErrCorrupted, CorruptedData},
		{tile.ErrTileSize, InvalidParameter},
		{&MemoryLimitExceededError{}, OutOfMemory},
		{&tile.PanicError{Task: 1, Value: "x"}, EncodingFailed},
		{errors.New("other"), EncodingFailed},
	}
	for _, tt := range tests {
		if got := wrap("encode", tt.err, EncodingFailed); CodeOf(got) != tt.want {
			t.Errorf("%v: code %v, want %v", tt.err, CodeOf(got), tt.want)
		}
	}
	if wrap("encode", nil, EncodingFailed) != nil {
		t.Error("nil error wrapped")
	}
}
