// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package decodecache

import (
	"errors"
	"sync"
	"testing"

	"github.com/cockroachdb/pebble/v2"
	"github.com/cockroachdb/pebble/v2/vfs"
	"github.com/elliotnunn/stackres/internal/bitmap"
	"github.com/elliotnunn/stackres/internal/datarange"
	"github.com/elliotnunn/stackres/internal/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct {
	mu sync.Mutex
	n  int
}

func (c *counter) icon(r datarange.Range) (*bitmap.Image, error) {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
	return resource.DecodeIcon(r)
}

func (c *counter) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

func iconBytes(first byte) []byte {
	b := make([]byte, 128)
	b[0] = first
	return b
}

func TestMemoryTier(t *testing.T) {
	c, err := Open("", 16)
	require.NoError(t, err)
	defer c.Close()

	var cnt counter
	dec := Wrap(c, resource.TypeIcon, cnt.icon)

	a, err := dec(datarange.New(iconBytes(0x80)))
	require.NoError(t, err)
	// same content in a different buffer is still a hit, and shares the value
	b, err := dec(datarange.New(iconBytes(0x80)))
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, 1, cnt.count())

	_, err = dec(datarange.New(iconBytes(0x01)))
	require.NoError(t, err)
	assert.Equal(t, 2, cnt.count())

	hits, diskHits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(0), diskHits)
	assert.Equal(t, int64(2), misses)
}

func TestErrorsAreNotCached(t *testing.T) {
	c, err := Open("", 4)
	require.NoError(t, err)
	defer c.Close()

	calls := 0
	errNope := errors.New("nope")
	dec := Wrap(c, resource.TypeIcon, func(datarange.Range) (*bitmap.Image, error) {
		calls++
		return nil, errNope
	})
	for range 2 {
		_, err := dec(datarange.New([]byte{1}))
		assert.ErrorIs(t, err, errNope)
	}
	assert.Equal(t, 2, calls)
}

func TestTypeIsPartOfKey(t *testing.T) {
	c, err := Open("", 4)
	require.NoError(t, err)
	defer c.Close()

	var cnt counter
	raw := iconBytes(0xff)
	_, err = Wrap(c, resource.TypeIcon, cnt.icon)(datarange.New(raw))
	require.NoError(t, err)
	_, err = Wrap(c, resource.TypePicture, cnt.icon)(datarange.New(raw))
	require.NoError(t, err)
	assert.Equal(t, 2, cnt.count())
}

func TestDiskTierSurvivesReopen(t *testing.T) {
	mem := vfs.NewMem()
	raw := iconBytes(0xa5)

	c, err := openWith("cache", 4, &pebble.Options{FS: mem})
	require.NoError(t, err)
	var cnt counter
	first, err := Wrap(c, resource.TypeIcon, cnt.icon)(datarange.New(raw))
	require.NoError(t, err)
	require.NoError(t, c.Close())

	c, err = openWith("cache", 4, &pebble.Options{FS: mem})
	require.NoError(t, err)
	defer c.Close()
	second, err := Wrap(c, resource.TypeIcon, cnt.icon)(datarange.New(raw))
	require.NoError(t, err)

	assert.Equal(t, 1, cnt.count())
	assert.Equal(t, first.Data, second.Data)
	_, diskHits, _ := c.Stats()
	assert.Equal(t, int64(1), diskHits)
}

func TestBadMagic(t *testing.T) {
	_, err := decode[*bitmap.Image]([]byte("not a cached value"))
	assert.ErrorIs(t, err, errBadMagic)

	b, err := encode(bitmap.New(8, 2))
	require.NoError(t, err)
	img, err := decode[*bitmap.Image](b)
	require.NoError(t, err)
	assert.Equal(t, 8, img.Width)
	assert.Len(t, img.Data, 2)
}

func TestOpenErrors(t *testing.T) {
	_, err := Open("", 0)
	assert.Error(t, err)
}

func TestRegisteredThroughResource(t *testing.T) {
	c, err := Open("", 4)
	require.NoError(t, err)
	defer c.Close()

	var cnt counter
	resource.Register(resource.TypeIcon, Wrap(c, resource.TypeIcon, cnt.icon))
	defer resource.Register(resource.TypeIcon, resource.DecodeIcon)

	for id := range 3 {
		e := resource.NewEntry(id, "", resource.TypeIcon, datarange.New(iconBytes(7)))
		_, err := e.Icon()
		require.NoError(t, err)
	}
	assert.Equal(t, 1, cnt.count())
}
