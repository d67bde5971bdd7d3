// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package resource

import (
	"github.com/elliotnunn/stackres/internal/bitmap"
	"github.com/elliotnunn/stackres/internal/datarange"
)

func init() {
	Register(TypeIcon, DecodeIcon)
}

// DecodeIcon reads an 'ICON' resource: a bare 32x32 bitmap with no header.
func DecodeIcon(r datarange.Range) (*bitmap.Image, error) {
	return bitmap.Unpack(r, bitmap.Size, bitmap.Size)
}

func (e *Entry) Icon() (*bitmap.Image, error) {
	return Content[*bitmap.Image](e)
}
