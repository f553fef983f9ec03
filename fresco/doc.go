// Package fresco encodes raw pixel buffers into FRESCO containers and back.
//
// An image is split into square tiles that are coded independently on a
// bounded worker pool. Each tile goes through a transform stage (8x8 DCT
// with quality scaled quantization for lossy coding, reversible color
// transform and causal prediction for lossless coding) and an entropy
// coder that picks the smallest of several backends. The tile streams are
// framed in a box container whose fixed 80 byte header describes the
// image, so GetMetadata never touches the payload.
//
// Basic usage:
//
//	enc := fresco.NewEncoder()
//	p := fresco.DefaultEncodeParams()
//	p.Mode = fresco.Lossless
//	if err := enc.SetParams(p); err != nil {
//	    return err
//	}
//	data, err := enc.EncodeRaw(info, pix)
//	...
//	pix, err = fresco.NewDecoder().Decode(data)
//	defer fresco.Free(pix)
//
// Every error returned by this package is an *Error carrying a Code;
// compare with errors.Is(err, fresco.ErrCorruptedData) and friends.
// Output buffers are allocated through the process-wide Allocator.
package fresco
