package fresco

import (
	"errors"
	"fmt"

	"github.com/mrjoshuak/go-fresco/compression"
	"github.com/mrjoshuak/go-fresco/container"
	"github.com/mrjoshuak/go-fresco/raster"
	"github.com/mrjoshuak/go-fresco/tile"
	"github.com/mrjoshuak/go-fresco/transform"
)

// Code is a status code. The numeric values are stable.
type Code int

// Status codes
const (
	OK                Code = 0
	InvalidParameter  Code = -1
	OutOfMemory       Code = -2
	IO                Code = -3
	UnsupportedFormat Code = -4
	CorruptedData     Code = -5
	EncodingFailed    Code = -6
	DecodingFailed    Code = -7
	NotImplemented    Code = -8
)

var codeStrings = map[Code]string{
	OK:                "Success",
	InvalidParameter:  "Invalid parameter",
	OutOfMemory:       "Out of memory",
	IO:                "I/O error",
	UnsupportedFormat: "Unsupported format",
	CorruptedData:     "Corrupted data",
	EncodingFailed:    "Encoding failed",
	DecodingFailed:    "Decoding failed",
	NotImplemented:    "Not implemented",
}

// ErrorString returns the static description of a code.
func ErrorString(c Code) string {
	if s, ok := codeStrings[c]; ok {
		return s
	}
	return "Unknown error"
}

func (c Code) String() string { return ErrorString(c) }

// Error is the error type returned by every operation of this package.
// Match it with errors.Is against the Err* values, or read Code directly.
type Error struct {
	Code Code
	Op   string // encode, decode, metadata, ...
	Err  error  // underlying cause, may be nil
}

func (e *Error) Error() string {
	msg := "fresco: "
	if e.Op != "" {
		msg += e.Op + ": "
	}
	msg += ErrorString(e.Code)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for e's code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Op == "" && t.Err == nil && t.Code == e.Code
}

// Sentinels for errors.Is
var (
	ErrInvalidParameter  = &Error{Code: InvalidParameter}
	ErrOutOfMemory       = &Error{Code: OutOfMemory}
	ErrIO                = &Error{Code: IO}
	ErrUnsupportedFormat = &Error{Code: UnsupportedFormat}
	ErrCorruptedData     = &Error{Code: CorruptedData}
	ErrEncodingFailed    = &Error{Code: EncodingFailed}
	ErrDecodingFailed    = &Error{Code: DecodingFailed}
	ErrNotImplemented    = &Error{Code: NotImplemented}
)

// CodeOf returns the code carried by err: OK for nil, the code of the
// outermost *Error, or a classification of a foreign error as if it were
// raised while decoding.
func CodeOf(err error) Code {
	if err == nil {
		return OK
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return classify(err, DecodingFailed)
}

func newError(op string, c Code, format string, args ...any) *Error {
	return &Error{Code: c, Op: op, Err: fmt.Errorf(format, args...)}
}

// wrap converts an error from the pipeline packages into an *Error.
// fallback is used for anything that is not a recognised condition.
func wrap(op string, err error, fallback Code) error {
	if err == nil {
		return nil
	}
	var fe *Error
	if errors.As(err, &fe) {
		return err
	}
	return &Error{Code: classify(err, fallback), Op: op, Err: err}
}

func classify(err error, fallback Code) Code {
	var memErr *MemoryLimitExceededError
	var panicErr *tile.PanicError
	switch {
	case errors.As(err, &memErr):
		return OutOfMemory
	case errors.As(err, &panicErr):
		return fallback
	case errors.Is(err, container.ErrUnsupported),
		errors.Is(err, raster.ErrUnsupportedFormat):
		return UnsupportedFormat
	case errors.Is(err, container.ErrCorrupted),
		errors.Is(err, tile.ErrCorrupted),
		errors.Is(err, compression.ErrCorrupted),
		errors.Is(err, transform.ErrCorrupted):
		return CorruptedData
	case errors.Is(err, tile.ErrTileSize),
		errors.Is(err, transform.ErrParams):
		return InvalidParameter
	}
	return fallback
}
