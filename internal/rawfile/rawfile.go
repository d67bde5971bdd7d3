// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package rawfile opens a file holding the bytes of a single resource.
package rawfile

import (
	"bytes"
	"fmt"
	"io"

	"github.com/elliotnunn/stackres/internal/datarange"
	"github.com/therootcompany/xz"
)

const xzMagic = "\xfd7zXZ\x00"

func nop() error { return nil }

// Open maps the file into memory and returns a range over it,
// plus a function to release the mapping once no range is in use.
// An xz-compressed file is decompressed into an ordinary buffer instead.
func Open(path string) (datarange.Range, func() error, error) {
	data, release, err := mapFile(path)
	if err != nil {
		return datarange.Range{}, nil, err
	}
	if !bytes.HasPrefix(data, []byte(xzMagic)) {
		return datarange.New(data), release, nil
	}

	defer release()
	plain, err := unxz(data)
	if err != nil {
		return datarange.Range{}, nil, fmt.Errorf("rawfile: %s: %w", path, err)
	}
	return datarange.New(plain), nop, nil
}

func unxz(data []byte) ([]byte, error) {
	r, err := xz.NewReader(bytes.NewReader(data), xz.DefaultDictMax)
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}
