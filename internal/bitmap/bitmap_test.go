// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package bitmap

import (
	"bytes"
	"image/color"
	"image/png"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/elliotnunn/stackres/internal/datarange"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWordPathMatchesBytePath(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for _, dim := range [][2]int{{32, 32}, {64, 3}, {96, 7}} {
		w, h := dim[0], dim[1]
		raw := make([]byte, w/8*h)
		for i := range raw {
			raw[i] = byte(rng.UintN(256))
		}
		fast, err := unpackWords(datarange.New(raw), w, h)
		require.NoError(t, err)
		slow := unpackBytes(datarange.New(raw), w, h)
		assert.Equal(t, fast.Data, slow.Data, "%dx%d", w, h)
	}
}

func TestRowsStartOnFreshWord(t *testing.T) {
	// 24 pixels wide: 3 bytes per row, never merged with the next row
	raw := []byte{
		0x11, 0x22, 0x33,
		0x44, 0x55, 0x66,
	}
	img, err := Unpack(datarange.New(raw), 24, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0x11223300, 0x44556600}, img.Data)

	// 40 pixels wide: 5 bytes per row spill into a second word
	raw = []byte{
		0x01, 0x02, 0x03, 0x04, 0x05,
		0x06, 0x07, 0x08, 0x09, 0x0a,
	}
	img, err = Unpack(datarange.New(raw), 40, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0x01020304, 0x05000000, 0x06070809, 0x0a000000}, img.Data)
}

func TestPixel(t *testing.T) {
	raw := []byte{0x80, 0x01, 0x00}
	img, err := Unpack(datarange.New(raw), 8, 3)
	require.NoError(t, err)
	assert.True(t, img.Pixel(0, 0))
	assert.False(t, img.Pixel(1, 0))
	assert.True(t, img.Pixel(7, 1))
	assert.False(t, img.Pixel(0, 2))
	assert.False(t, img.Pixel(8, 0))
	assert.Equal(t, "█░░░░░░░\n░░░░░░░█\n░░░░░░░░\n", img.String())
}

func TestUnpackErrors(t *testing.T) {
	_, err := Unpack(datarange.New(make([]byte, 64)), 12, 2)
	assert.ErrorIs(t, err, ErrWidth)

	_, err = Unpack(datarange.New(make([]byte, 127)), Size, Size)
	assert.ErrorIs(t, err, datarange.ErrOutOfRange)

	_, err = Unpack(datarange.New(make([]byte, 5)), 24, 2)
	assert.ErrorIs(t, err, datarange.ErrOutOfRange)

	// huge dimensions fail before anything is allocated
	_, err = Unpack(datarange.New(make([]byte, 16)), 8, math.MaxInt)
	assert.ErrorIs(t, err, datarange.ErrOutOfRange)
	_, err = Unpack(datarange.New(make([]byte, 16)), Size, math.MaxInt/2)
	assert.ErrorIs(t, err, datarange.ErrOutOfRange)
	_, err = Unpack(datarange.New(make([]byte, 16)), 8<<20, math.MaxInt/1024)
	assert.ErrorIs(t, err, datarange.ErrOutOfRange)

	img, err := Unpack(datarange.New(nil), 0, math.MaxInt)
	require.NoError(t, err)
	assert.Empty(t, img.Data)
}

func TestEncodesAsPNG(t *testing.T) {
	raw := bytes.Repeat([]byte{0xaa, 0x55, 0xff, 0x00}, Size)
	img, err := Unpack(datarange.New(raw), Size, Size)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	back, err := png.Decode(&buf)
	require.NoError(t, err)
	for x := range Size {
		r, _, _, _ := back.At(x, 5).RGBA()
		assert.Equal(t, img.Pixel(x, 5), r == 0, "x=%d", x)
	}
}

func TestPaletted(t *testing.T) {
	raw := make([]byte, 4*Size)
	raw[4] = 0x40 // row 1, x=1
	img, err := Unpack(datarange.New(raw), Size, Size)
	require.NoError(t, err)

	paper := color.RGBA{0xff, 0xff, 0xe0, 0xff}
	ink := color.RGBA{0x20, 0x40, 0x80, 0xff}
	p := img.Paletted(color.Palette{paper, ink})
	assert.Equal(t, img.Bounds(), p.Bounds())
	assert.Equal(t, ink, p.At(1, 1))
	assert.Equal(t, paper, p.At(0, 1))
	assert.Equal(t, paper, p.At(1, 0))
}
