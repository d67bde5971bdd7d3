// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package bitmap unpacks monochrome QuickDraw bitmaps.
package bitmap

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/32bitkid/bitreader"
	"github.com/elliotnunn/stackres/internal/datarange"
)

// Size is the edge of an ICON resource.
const Size = 32

var ErrWidth = errors.New("bitmap: width is not a multiple of 8")

// Image is a 1-bit image. Rows are stored MSB first and each row
// begins on a fresh 32-bit word.
type Image struct {
	Width, Height int
	Data          []uint32
}

// New makes a blank image.
func New(width, height int) *Image {
	return &Image{
		Width:  width,
		Height: height,
		Data:   make([]uint32, wordsPerRow(width)*height),
	}
}

func wordsPerRow(width int) int { return (width + 31) / 32 }

// Unpack reads a bitmap with byte-aligned rows starting at offset 0 of r.
func Unpack(r datarange.Range, width, height int) (*Image, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("bitmap: bad dimensions %dx%d", width, height)
	}
	if width%8 != 0 {
		return nil, fmt.Errorf("%w: %d", ErrWidth, width)
	}
	rowSize := width / 8
	n := rowSize * height
	if height != 0 && n/height != rowSize {
		return nil, fmt.Errorf("%w: %dx%d bitmap", datarange.ErrOutOfRange, width, height)
	}
	// nothing is allocated until the source is known to be big enough
	src, err := r.Sub(0, n)
	if err != nil {
		return nil, err
	}
	if width%32 == 0 {
		return unpackWords(src, width, height)
	}
	return unpackBytes(src, width, height), nil
}

// unpackWords handles the common case where rows are a whole number of words.
func unpackWords(src datarange.Range, width, height int) (*Image, error) {
	img := New(width, height)
	br := bitreader.NewReader(src.Reader())
	for i := range img.Data {
		w, err := br.Read32(32)
		if err != nil {
			return nil, fmt.Errorf("bitmap: word %d: %w", i, err)
		}
		img.Data[i] = w
	}
	return img, nil
}

func unpackBytes(src datarange.Range, width, height int) *Image {
	img := New(width, height)
	rowSize := width / 8
	b := src.Bytes()

	i := 0
	shift := 24
	for range height {
		for range rowSize {
			img.Data[i] |= uint32(b[0]) << shift
			b = b[1:]
			if shift == 0 {
				shift = 24
				i++
			} else {
				shift -= 8
			}
		}
		// never let a row share a word with the next one
		if shift != 24 {
			shift = 24
			i++
		}
	}
	return img
}

// Pixel reports whether the pixel is set (black).
func (img *Image) Pixel(x, y int) bool {
	if x < 0 || y < 0 || x >= img.Width || y >= img.Height {
		return false
	}
	w := img.Data[y*wordsPerRow(img.Width)+x/32]
	return w>>(31-x%32)&1 != 0
}

func (img *Image) ColorModel() color.Model { return color.GrayModel }

func (img *Image) Bounds() image.Rectangle { return image.Rect(0, 0, img.Width, img.Height) }

func (img *Image) At(x, y int) color.Color {
	if img.Pixel(x, y) {
		return color.Gray{0}
	}
	return color.Gray{0xff}
}

// Paletted converts the image to an 8-bit image whose index 0 is clear and 1 is set.
// The palette must have at least two colours.
func (img *Image) Paletted(pal color.Palette) *image.Paletted {
	out := image.NewPaletted(img.Bounds(), pal)
	for y := range img.Height {
		row := out.Pix[y*out.Stride:]
		for x := range img.Width {
			if img.Pixel(x, y) {
				row[x] = 1
			}
		}
	}
	return out
}

// String draws the image with block characters, one line per row.
func (img *Image) String() string {
	b := make([]rune, 0, (img.Width+1)*img.Height)
	for y := range img.Height {
		for x := range img.Width {
			if img.Pixel(x, y) {
				b = append(b, '█')
			} else {
				b = append(b, '░')
			}
		}
		b = append(b, '\n')
	}
	return string(b)
}
