// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package resource

import (
	"reflect"
	"sync"

	"github.com/elliotnunn/stackres/internal/datarange"
)

// A Decoder turns the bytes of one resource into its typed value.
type Decoder func(datarange.Range) (any, error)

type registration struct {
	t      Type
	goType reflect.Type
	decode Decoder
}

var (
	regMu  sync.RWMutex
	byGo   = make(map[reflect.Type]registration)
	byType = make(map[Type]registration)
)

// Register binds the Go type T to a resource type and its decoder.
// A later registration for the same T or the same resource type replaces the earlier one.
func Register[T any](t Type, decode func(datarange.Range) (T, error)) {
	reg := registration{
		t:      t,
		goType: reflect.TypeFor[T](),
		decode: func(r datarange.Range) (any, error) {
			v, err := decode(r)
			if err != nil {
				return nil, err
			}
			return v, nil
		},
	}
	regMu.Lock()
	defer regMu.Unlock()
	byGo[reg.goType] = reg
	byType[t] = reg
}

// DecoderFor returns the decoder registered for a resource type.
func DecoderFor(t Type) (Decoder, bool) {
	reg, ok := lookupType(t)
	return reg.decode, ok
}

func lookupGo(goType reflect.Type) (registration, bool) {
	regMu.RLock()
	defer regMu.RUnlock()
	reg, ok := byGo[goType]
	return reg, ok
}

func lookupType(t Type) (registration, bool) {
	regMu.RLock()
	defer regMu.RUnlock()
	reg, ok := byType[t]
	return reg, ok
}
