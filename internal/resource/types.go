// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package resource

import (
	"encoding/binary"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// Type is a four-character resource type code such as 'ICON'.
type Type uint32

const (
	TypeIcon            Type = 0x49434F4E // ICON
	TypeSound           Type = 0x736E6420 // snd
	TypeFontFamily      Type = 0x464F4E44 // FOND
	TypeBitmapFont      Type = 0x4E464E54 // NFNT
	TypeBitmapFontOld   Type = 0x464F4E54 // FONT
	TypeVectorFont      Type = 0x73666E74 // sfnt
	TypeCardColor       Type = 0x48436364 // HCcd
	TypeBackgroundColor Type = 0x48436267 // HCbg
	TypePicture         Type = 0x50494354 // PICT
)

func (t Type) String() string {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(t))
	s, err := charmap.Macintosh.NewDecoder().Bytes(b[:])
	if err != nil {
		return fmt.Sprintf("%#08x", uint32(t))
	}
	return string(s)
}

// ParseType converts a four-character Mac OS Roman code back into a Type.
func ParseType(s string) (Type, error) {
	b, err := charmap.Macintosh.NewEncoder().Bytes([]byte(s))
	if err != nil || len(b) != 4 {
		return 0, fmt.Errorf("resource: %q is not a four-character type", s)
	}
	return Type(binary.BigEndian.Uint32(b)), nil
}

// A slash cannot appear in a file name, so the usual Mac convention swaps it for a colon.
func typeFromFilename(name string) (Type, error) {
	return ParseType(strings.ReplaceAll(name, ":", "/"))
}

// Filename is the type as it appears in a path.
func (t Type) Filename() string {
	return strings.ReplaceAll(t.String(), "/", ":")
}
