// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package sound decodes 'snd ' resources into 16-bit PCM.
//
// A sound resource is nominally a list of Sound Manager commands followed by a
// sound header. In practice only a handful of trivial command lists ever occur,
// and the header always follows the commands directly, whatever the offset
// field of the command says.
package sound

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
	"slices"
	"time"

	"github.com/elliotnunn/stackres/internal/datarange"
	"github.com/elliotnunn/stackres/internal/resource"
)

var (
	ErrUnsupportedResourceFormat  = errors.New("sound: unsupported resource format")
	ErrEmptyCommandList           = errors.New("sound: empty command list")
	ErrUnsupportedCommandSequence = errors.New("sound: unsupported command sequence")
	ErrUnsupportedSoundFormat     = errors.New("sound: unsupported sound header")
	ErrUnsupportedCompression     = errors.New("sound: unsupported compression")
)

// Sound is decoded audio, mono or interleaved.
type Sound struct {
	SampleRate float64 // Hz
	Samples    []int16
	Channels   int
}

func (s *Sound) Duration() time.Duration {
	ch := max(s.Channels, 1)
	if s.SampleRate <= 0 {
		return 0
	}
	frames := float64(len(s.Samples) / ch)
	return time.Duration(frames / s.SampleRate * float64(time.Second))
}

const (
	nullCmd   = 0
	bufferCmd = 80
	soundCmd  = 81

	cmdMask = 0x7fff // the high bit says the parameter is an offset into the resource
	cmdSize = 8

	middleC = 60
)

// The null command is not a no-op in practice: the Sound Manager takes it as a hint
// that the next command should be treated as bufferCmd. Either way it decodes the same.
var validCommandLists = [][]int{
	{bufferCmd},
	{soundCmd},
	{nullCmd, bufferCmd},
	{nullCmd, soundCmd},
}

// Offset of the command count for each resource format.
// Format 2 was used by HyperCard only, and quickly deprecated.
var commandCountOffsets = map[int]int{
	1: 0xa,
	2: 0x4,
}

const (
	encodeStandard   = 0x00
	encodeExtended   = 0xff
	encodeCompressed = 0xfe
)

// Compression names a MACE variant.
type Compression int

const (
	MACE3 Compression = 3 // 3:1
	MACE6 Compression = 6 // 6:1
)

func (c Compression) String() string {
	return fmt.Sprintf("MACE %d:1", int(c))
}

// bytesPerFrame is the compressed size of one frame of one channel.
func (c Compression) bytesPerFrame() int {
	if c == MACE3 {
		return 2
	}
	return 1
}

// A Decompressor expands MACE audio. The codec itself lives outside this package.
type Decompressor interface {
	Decompress(data []byte, c Compression, frames, channels int) ([]int16, error)
}

// Decoder reads sound resources.
// The zero value is ready to use and rejects compressed sounds.
type Decoder struct {
	// MACE handles 6:1 compressed sounds when set.
	MACE Decompressor
}

func init() {
	Register()
}

// Register makes the default decoder the one used for 'snd ' entries.
func Register() {
	resource.Register(resource.TypeSound, Decode)
}

// Decode reads a sound resource with the zero Decoder.
func Decode(r datarange.Range) (*Sound, error) {
	return Decoder{}.Decode(r)
}

// FromEntry decodes (once) and returns the sound held by a resource entry.
func FromEntry(e *resource.Entry) (*Sound, error) {
	return resource.Content[*Sound](e)
}

func (d Decoder) Decode(r datarange.Range) (*Sound, error) {
	format, err := r.UInt16(0)
	if err != nil {
		return nil, err
	}
	countOffset, ok := commandCountOffsets[format]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedResourceFormat, format)
	}

	count, err := r.UInt16(countOffset)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrEmptyCommandList
	}

	commandOffset := countOffset + 2
	commands := make([]int, count)
	for i := range commands {
		c, err := r.UInt16(commandOffset + i*cmdSize)
		if err != nil {
			return nil, err
		}
		commands[i] = c & cmdMask
	}
	if !slices.ContainsFunc(validCommandLists, func(l []int) bool { return slices.Equal(l, commands) }) {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedCommandSequence, commands)
	}

	payload, err := r.From(commandOffset + count*cmdSize)
	if err != nil {
		return nil, err
	}
	return d.decodeHeader(payload)
}

func (d Decoder) decodeHeader(r datarange.Range) (*Sound, error) {
	encode, err := r.UInt8(0x14)
	if err != nil {
		return nil, err
	}
	switch encode {
	case encodeStandard:
		return decodeStandard(r)
	case encodeCompressed:
		return d.decodeCompressed(r)
	case encodeExtended:
		return nil, fmt.Errorf("%w: extended header", ErrUnsupportedSoundFormat)
	default:
		return nil, fmt.Errorf("%w: encoding %#02x", ErrUnsupportedSoundFormat, encode)
	}
}

// sampleRate reads the 16.16 fixed-point rate and moves it so that the sound's
// base note lands on middle C, which is the note HyperCard always plays.
func sampleRate(r datarange.Range) (float64, error) {
	fixed, err := r.UInt32(0x8)
	if err != nil {
		return 0, err
	}
	basePitch, err := r.UInt8(0x15)
	if err != nil {
		return 0, err
	}
	rate := float64(fixed) / 65536
	return rate * math.Pow(2, float64(middleC-basePitch)/12), nil
}

func decodeStandard(r datarange.Range) (*Sound, error) {
	n, err := r.UInt32(0x4)
	if err != nil {
		return nil, err
	}
	rate, err := sampleRate(r)
	if err != nil {
		return nil, err
	}
	raw, err := r.Sub(0x16, n)
	if err != nil {
		return nil, err
	}

	samples := make([]int16, n)
	for i, b := range raw.Bytes() {
		samples[i] = (int16(b) - 0x80) * 0x100
	}
	return &Sound{SampleRate: rate, Samples: samples, Channels: 1}, nil
}

func (d Decoder) decodeCompressed(r datarange.Range) (*Sound, error) {
	channels, err := r.UInt32(0x4)
	if err != nil {
		return nil, err
	}
	frames, err := r.UInt32(0x16)
	if err != nil {
		return nil, err
	}
	id, err := r.SInt16(0x38)
	if err != nil {
		return nil, err
	}
	c := MACE6
	if id == 3 {
		c = MACE3
	}
	if c != MACE6 || d.MACE == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCompression, c)
	}

	rate, err := sampleRate(r)
	if err != nil {
		return nil, err
	}
	length, ok := payloadSize(channels, frames, c.bytesPerFrame())
	if !ok {
		return nil, fmt.Errorf("%w: %d channels of %d frames", datarange.ErrOutOfRange, channels, frames)
	}
	data, err := r.Sub(0x40, length)
	if err != nil {
		return nil, err
	}
	samples, err := d.MACE.Decompress(data.Bytes(), c, frames, channels)
	if err != nil {
		return nil, fmt.Errorf("sound: %s: %w", c, err)
	}
	return &Sound{SampleRate: rate, Samples: samples, Channels: channels}, nil
}

func payloadSize(channels, frames, bytesPerFrame int) (int, bool) {
	hi, lo := bits.Mul64(uint64(channels), uint64(frames))
	if hi != 0 {
		return 0, false
	}
	hi, lo = bits.Mul64(lo, uint64(bytesPerFrame))
	if hi != 0 || lo > math.MaxInt {
		return 0, false
	}
	return int(lo), true
}
