// Copyright (c) Elliot Nunn
// Licensed under the MIT license

//go:build !unix

package rawfile

import "os"

// mapFile reads the entire file when mmap is not available.
func mapFile(path string) ([]byte, func() error, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	return data, nop, nil
}
