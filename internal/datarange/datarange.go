// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package datarange reads big-endian fields out of a window of a shared byte buffer.
//
// A [Range] is cheap to copy. Many ranges may alias the same buffer, which must never
// be written to once the first range has been made from it.
package datarange

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/encoding/charmap"
)

var (
	ErrOutOfRange      = errors.New("datarange: read out of range")
	ErrMalformedString = errors.New("datarange: unterminated string")
)

// RangeError describes a read that would have left its window.
// Off is relative to the window, Start is the window's offset in the whole buffer.
type RangeError struct {
	Op    string
	Off   int
	Width int
	Start int
	Len   int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("datarange: %s of %d bytes at %d exceeds window [%d,+%d)",
		e.Op, e.Width, e.Off, e.Start, e.Len)
}

func (e *RangeError) Unwrap() error { return ErrOutOfRange }

type Range struct {
	data   []byte // the whole shared buffer
	off, n int
}

// New returns a Range covering all of b.
func New(b []byte) Range {
	return Range{data: b, off: 0, n: len(b)}
}

func (r Range) Offset() int { return r.off }
func (r Range) Len() int    { return r.n }

// Bytes returns the window without copying. The caller must not modify it.
func (r Range) Bytes() []byte { return r.data[r.off : r.off+r.n : r.off+r.n] }

// Sub returns the window [off, off+n) relative to r.
func (r Range) Sub(off, n int) (Range, error) {
	if err := r.check("sub", off, n); err != nil {
		return Range{}, err
	}
	return Range{data: r.data, off: r.off + off, n: n}, nil
}

// From returns everything in r from off onwards.
func (r Range) From(off int) (Range, error) {
	if off < 0 || off > r.n {
		return Range{}, &RangeError{Op: "from", Off: off, Width: 0, Start: r.off, Len: r.n}
	}
	return Range{data: r.data, off: r.off + off, n: r.n - off}, nil
}

func (r Range) check(op string, off, width int) error {
	if off < 0 || width < 0 || off > r.n || width > r.n-off {
		return &RangeError{Op: op, Off: off, Width: width, Start: r.off, Len: r.n}
	}
	return nil
}

func (r Range) field(op string, off, width int) ([]byte, error) {
	if err := r.check(op, off, width); err != nil {
		return nil, err
	}
	return r.data[r.off+off:][:width], nil
}

func (r Range) UInt8(off int) (int, error) {
	b, err := r.field("uint8", off, 1)
	if err != nil {
		return 0, err
	}
	return int(b[0]), nil
}

func (r Range) SInt8(off int) (int, error) {
	b, err := r.field("sint8", off, 1)
	if err != nil {
		return 0, err
	}
	return int(int8(b[0])), nil
}

func (r Range) UInt16(off int) (int, error) {
	b, err := r.field("uint16", off, 2)
	if err != nil {
		return 0, err
	}
	return int(binary.BigEndian.Uint16(b)), nil
}

func (r Range) SInt16(off int) (int, error) {
	b, err := r.field("sint16", off, 2)
	if err != nil {
		return 0, err
	}
	return int(int16(binary.BigEndian.Uint16(b))), nil
}

// UInt32 is only exact above 1<<31 where int is 64 bits wide.
func (r Range) UInt32(off int) (int, error) {
	b, err := r.field("uint32", off, 4)
	if err != nil {
		return 0, err
	}
	return int(binary.BigEndian.Uint32(b)), nil
}

func (r Range) SInt32(off int) (int, error) {
	b, err := r.field("sint32", off, 4)
	if err != nil {
		return 0, err
	}
	return int(int32(binary.BigEndian.Uint32(b))), nil
}

// Flag tests one bit of the 16-bit word at off.
func (r Range) Flag(off int, bit uint) (bool, error) {
	v, err := r.UInt16(off)
	if err != nil {
		return false, err
	}
	return v&(1<<bit) != 0, nil
}

// Rectangle is a QuickDraw rectangle.
type Rectangle struct {
	Top, Left, Bottom, Right int
}

func (r Rectangle) Width() int  { return r.Right - r.Left }
func (r Rectangle) Height() int { return r.Bottom - r.Top }

// Rectangle reads top, left, bottom and right.
// The top bit of each coordinate sometimes carries a flag, so it is dropped.
func (r Range) Rectangle(off int) (Rectangle, error) {
	b, err := r.field("rectangle", off, 8)
	if err != nil {
		return Rectangle{}, err
	}
	return Rectangle{
		Top:    int(binary.BigEndian.Uint16(b[0:]) & 0x7fff),
		Left:   int(binary.BigEndian.Uint16(b[2:]) & 0x7fff),
		Bottom: int(binary.BigEndian.Uint16(b[4:]) & 0x7fff),
		Right:  int(binary.BigEndian.Uint16(b[6:]) & 0x7fff),
	}, nil
}

// CString reads a null-terminated Mac OS Roman string.
func (r Range) CString(off int) (string, error) {
	if err := r.check("cstring", off, 0); err != nil {
		return "", err
	}
	b := r.data[r.off+off : r.off+r.n]
	end := bytes.IndexByte(b, 0)
	if end < 0 {
		return "", fmt.Errorf("%w at %d", ErrMalformedString, off)
	}
	return macRoman(b[:end])
}

// String reads exactly n bytes of Mac OS Roman text.
func (r Range) String(off, n int) (string, error) {
	b, err := r.field("string", off, n)
	if err != nil {
		return "", err
	}
	return macRoman(b)
}

func macRoman(b []byte) (string, error) {
	u, err := charmap.Macintosh.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(u), nil
}

// Reader returns a fresh reader positioned at the start of the window.
func (r Range) Reader() *bytes.Reader { return bytes.NewReader(r.Bytes()) }

// ReadAt has the semantics of [io.ReaderAt].
func (r Range) ReadAt(p []byte, off int64) (n int, err error) {
	if off < 0 {
		return 0, &RangeError{Op: "readat", Off: int(off), Width: len(p), Start: r.off, Len: r.n}
	}
	if off >= int64(r.n) {
		return 0, io.EOF
	}
	n = copy(p, r.data[r.off+int(off):r.off+r.n])
	if n < len(p) {
		err = io.EOF
	}
	return n, err
}
