// Package raster packs monochrome receipt images into the printer's
// raster wire format.
package raster

import (
	"image"
	"image/color"
)

// Bitmap is a 1-bit-per-pixel monochrome image: MSB first within each
// byte, rows padded to a byte boundary. A set bit is a dark (printed)
// pixel.
type Bitmap struct {
	Width  int
	Height int
	Stride int // bytes per row
	Bytes  []byte
}

// New returns an all-white bitmap of the given size.
func New(width, height int) *Bitmap {
	stride := (width + 7) / 8
	return &Bitmap{
		Width:  width,
		Height: height,
		Stride: stride,
		Bytes:  make([]byte, stride*height),
	}
}

// At reports whether the pixel at (x, y) is dark. Out-of-range points are
// white.
func (b *Bitmap) At(x, y int) bool {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return false
	}
	return b.Bytes[y*b.Stride+x/8]&(0x80>>uint(x%8)) != 0
}

// Set marks the pixel at (x, y) dark or white. Out-of-range points are
// ignored.
func (b *Bitmap) Set(x, y int, dark bool) {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return
	}
	mask := byte(0x80 >> uint(x%8))
	if dark {
		b.Bytes[y*b.Stride+x/8] |= mask
	} else {
		b.Bytes[y*b.Stride+x/8] &^= mask
	}
}

// FromImage thresholds src into a Bitmap: luma below 128 prints dark.
// The width is padded up to a multiple of 8 with blank columns, which the
// wire format requires.
func FromImage(src image.Image) *Bitmap {
	bounds := src.Bounds()
	w := (bounds.Dx() + 7) &^ 7
	b := New(w, bounds.Dy())
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			c := color.GrayModel.Convert(src.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray)
			if c.Y < 128 {
				b.Set(x, y, true)
			}
		}
	}
	return b
}

// Image expands the bitmap back into a grayscale image, for the dry-run
// file sink and for tests.
func (b *Bitmap) Image() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, b.Width, b.Height))
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			v := uint8(0xff)
			if b.At(x, y) {
				v = 0
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return img
}
