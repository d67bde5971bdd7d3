// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package resource holds the resources of a stack and decodes them on demand.
package resource

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/elliotnunn/stackres/internal/datarange"
)

var (
	ErrTypeMismatch   = errors.New("resource: content requested as the wrong type")
	ErrAlreadyDecoded = errors.New("resource: raw data no longer available")
	ErrNoDecoder      = errors.New("resource: no decoder registered")
)

type contentState uint8

const (
	stateRaw contentState = iota
	stateDeferred
	stateDecoded
)

// An Entry is one resource. Its content moves from raw bytes (or a deferred loader)
// to a decoded value exactly once, on the first request.
// An Entry is safe for concurrent use by multiple goroutines.
type Entry struct {
	ID   int
	Name string
	Type Type

	mu    sync.Mutex
	state contentState
	raw   datarange.Range
	load  func() (any, error)
	value any
	err   error
}

// NewEntry makes an entry whose content will be decoded from r.
func NewEntry(id int, name string, t Type, r datarange.Range) *Entry {
	return &Entry{ID: id, Name: name, Type: t, state: stateRaw, raw: r}
}

// NewDeferred makes an entry whose content comes from calling load, at most once.
func NewDeferred(id int, name string, t Type, load func() (any, error)) *Entry {
	return &Entry{ID: id, Name: name, Type: t, state: stateDeferred, load: load}
}

// NewDecoded makes an entry that already holds its value.
func NewDecoded(id int, name string, t Type, v any) *Entry {
	return &Entry{ID: id, Name: name, Type: t, state: stateDecoded, value: v}
}

func (e *Entry) String() string {
	if e.Name != "" {
		return fmt.Sprintf("'%s' %d %q", e.Type, e.ID, e.Name)
	}
	return fmt.Sprintf("'%s' %d", e.Type, e.ID)
}

// IsDecoded reports whether the raw bytes are gone.
// A deferred entry counts as decoded before its loader runs.
func (e *Entry) IsDecoded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state != stateRaw
}

// RawRange returns the undecoded bytes.
func (e *Entry) RawRange() (datarange.Range, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != stateRaw {
		return datarange.Range{}, fmt.Errorf("%w: %s", ErrAlreadyDecoded, e)
	}
	return e.raw, nil
}

// Content returns the decoded value of e as a T, decoding it first if needed.
// T must be the Go type registered for e's resource type. Asking for any other T
// fails with ErrTypeMismatch (also ErrNoDecoder if nothing registered T at all),
// and a raw entry stays raw.
func Content[T any](e *Entry) (T, error) {
	var zero T
	want := reflect.TypeFor[T]()

	e.mu.Lock()
	defer e.mu.Unlock()

	var decode Decoder
	if e.state == stateRaw {
		reg, ok := lookupGo(want)
		if !ok {
			return zero, fmt.Errorf("%w: %s: %w for %v", ErrTypeMismatch, e, ErrNoDecoder, want)
		}
		if reg.t != e.Type {
			return zero, fmt.Errorf("%w: %s is not '%s'", ErrTypeMismatch, e, reg.t)
		}
		decode = reg.decode
	}
	if err := e.resolve(decode); err != nil {
		return zero, err
	}

	v, ok := e.value.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s holds %T, not %v", ErrTypeMismatch, e, e.value, want)
	}
	return v, nil
}

// Value returns the decoded value using whichever decoder is registered for the type.
func (e *Entry) Value() (any, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	var decode Decoder
	if e.state == stateRaw {
		reg, ok := lookupType(e.Type)
		if !ok {
			return nil, fmt.Errorf("%w for %s", ErrNoDecoder, e)
		}
		decode = reg.decode
	}
	if err := e.resolve(decode); err != nil {
		return nil, err
	}
	return e.value, nil
}

// resolve must be called with e.mu held.
// Failures are remembered so that a bad resource is only decoded once.
func (e *Entry) resolve(decode Decoder) error {
	switch e.state {
	case stateRaw:
		e.value, e.err = decode(e.raw)
		e.raw = datarange.Range{}
	case stateDeferred:
		e.value, e.err = e.load()
		e.load = nil
	}
	if e.state != stateDecoded {
		e.state = stateDecoded
		if e.err != nil {
			e.err = fmt.Errorf("%s: %w", e, e.err)
		}
	}
	return e.err
}
