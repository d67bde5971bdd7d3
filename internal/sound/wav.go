// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package sound

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// WriteWAV writes the sound as a 16-bit little-endian RIFF WAVE file.
// The rate is rounded to the nearest whole Hz, which is all the format allows.
func (s *Sound) WriteWAV(w io.Writer) error {
	ch := max(s.Channels, 1)
	rate := math.Round(s.SampleRate)
	if rate < 1 || rate > math.MaxUint32 {
		return errors.New("sound: sample rate out of range for WAVE")
	}
	// BlockAlign is 2*channels in 16 bits
	if ch > math.MaxUint16/2 {
		return fmt.Errorf("sound: %d channels is too many for WAVE", ch)
	}
	if uint64(rate)*uint64(ch)*2 > math.MaxUint32 {
		return errors.New("sound: byte rate out of range for WAVE")
	}
	dataSize := 2 * len(s.Samples)
	if uint64(dataSize) > math.MaxUint32-36 {
		return errors.New("sound: too long for WAVE")
	}

	hdr := struct {
		Riff          [4]byte
		RiffSize      uint32
		Wave          [4]byte
		Fmt           [4]byte
		FmtSize       uint32
		AudioFormat   uint16
		Channels      uint16
		SampleRate    uint32
		ByteRate      uint32
		BlockAlign    uint16
		BitsPerSample uint16
		Data          [4]byte
		DataSize      uint32
	}{
		Riff:          [4]byte{'R', 'I', 'F', 'F'},
		RiffSize:      uint32(36 + dataSize),
		Wave:          [4]byte{'W', 'A', 'V', 'E'},
		Fmt:           [4]byte{'f', 'm', 't', ' '},
		FmtSize:       16,
		AudioFormat:   1, // PCM
		Channels:      uint16(ch),
		SampleRate:    uint32(rate),
		ByteRate:      uint32(rate) * uint32(ch) * 2,
		BlockAlign:    uint16(ch * 2),
		BitsPerSample: 16,
		Data:          [4]byte{'d', 'a', 't', 'a'},
		DataSize:      uint32(dataSize),
	}
	if err := binary.Write(w, binary.LittleEndian, &hdr); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, s.Samples)
}
