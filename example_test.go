package gofresco_test

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/mrjoshuak/go-fresco/fresco"
	"github.com/mrjoshuak/go-fresco/frescometa"
	"github.com/mrjoshuak/go-fresco/raster"
)

func gradient() (raster.ImageInfo, []byte) {
	info := raster.ImageInfo{Width: 8, Height: 8, Channels: 3, BitDepth: 8, ColorSpace: raster.RGB}
	pix := make([]byte, info.BufferSize())
	for i := range pix {
		pix[i] = byte(i)
	}
	return info, pix
}

// Example_lossless encodes raw pixels losslessly and decodes them again.
func Example_lossless() {
	info, pix := gradient()

	enc := fresco.NewEncoder()
	defer enc.Close()
	p := fresco.DefaultEncodeParams()
	p.Mode = fresco.Lossless
	if err := enc.SetParams(p); err != nil {
		fmt.Println("Error:", err)
		return
	}
	data, err := enc.EncodeRaw(info, pix)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	defer fresco.Free(data)

	dec := fresco.NewDecoder()
	defer dec.Close()
	out, err := dec.Decode(data)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	defer fresco.Free(out)

	fmt.Println("identical:", bytes.Equal(out, pix))
	// Output: identical: true
}

// Example_metadata reads the header of a container without decoding it.
func Example_metadata() {
	info, pix := gradient()
	attrs := map[string]string{}
	frescometa.SetOwner(attrs, "Example Studio")

	enc := fresco.NewEncoder()
	p := fresco.DefaultEncodeParams()
	p.Quality = 90
	p.Attributes = attrs
	if err := enc.SetParams(p); err != nil {
		fmt.Println("Error:", err)
		return
	}
	data, err := enc.EncodeRaw(info, pix)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	m, err := fresco.GetMetadata(data)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Printf("%dx%d %s, %s quality %d\n", m.Width, m.Height, m.ColorSpace, m.Mode, m.Quality)

	read, _ := frescometa.Read(data)
	fmt.Println("owner:", frescometa.Owner(read))
	// Output:
	// 8x8 rgb, lossy quality 90
	// owner: Example Studio
}

// Example_errors shows how failures are classified.
func Example_errors() {
	_, err := fresco.NewDecoder().Decode([]byte("definitely not a container"))
	fmt.Println(errors.Is(err, fresco.ErrUnsupportedFormat), fresco.ErrorString(fresco.CodeOf(err)))

	p := fresco.DefaultEncodeParams()
	p.Quality = 101
	err = fresco.NewEncoder().SetParams(p)
	fmt.Println(errors.Is(err, fresco.ErrInvalidParameter))
	// Output:
	// true Unsupported format
	// true
}
