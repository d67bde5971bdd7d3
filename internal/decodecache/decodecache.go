// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package decodecache remembers decoded resources across tables and across runs.
//
// Resources are identified by their type and a hash of their bytes, so identical
// icons in different stacks decode once. Recent values are kept in memory;
// if a directory is given, every value is also written to a pebble database there.
package decodecache

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"hash/maphash"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/pebble/v2"
	"github.com/dgryski/go-tinylfu"
	"github.com/elliotnunn/stackres/internal/datarange"
	"github.com/elliotnunn/stackres/internal/resource"
)

// 16 byte header, similar properties to PNG
// if bumping the version, put it in the last byte
const magic = "\x89stackres\x0d\x0a\x1a\x0a\x00\x00\x01"

// then the rest of the value is just a Go gob

var errBadMagic = errors.New("decodecache: stale or foreign value")

type key struct {
	t   resource.Type
	n   int
	sum uint64
}

func keyOf(t resource.Type, b []byte) key {
	return key{t: t, n: len(b), sum: xxhash.Sum64(b)}
}

func (k key) bytes() []byte {
	b := binary.BigEndian.AppendUint32(nil, uint32(k.t))
	b = binary.BigEndian.AppendUint64(b, uint64(k.n))
	return binary.BigEndian.AppendUint64(b, k.sum)
}

var seed = maphash.MakeSeed()

func keyHash(k key) uint64 { return maphash.Comparable(seed, k) }

// A Cache is safe for concurrent use by multiple goroutines.
type Cache struct {
	mu  sync.Mutex // tinylfu is not goroutine safe
	mem *tinylfu.T[key, any]
	db  *pebble.DB

	hits, diskHits, misses atomic.Int64
}

// Open makes a cache holding up to entries values in memory.
// If dir is empty the cache lives only in memory.
func Open(dir string, entries int) (*Cache, error) {
	if dir == "" {
		return openWith("", entries, nil)
	}
	return openWith(dir, entries, &pebble.Options{})
}

func openWith(dir string, entries int, opts *pebble.Options) (*Cache, error) {
	if entries < 1 {
		return nil, fmt.Errorf("decodecache: need room for at least one entry, not %d", entries)
	}
	c := &Cache{mem: tinylfu.New[key, any](entries, entries*10, keyHash)}
	if opts != nil {
		db, err := pebble.Open(dir, opts)
		if err != nil {
			return nil, fmt.Errorf("decodecache: %w", err)
		}
		c.db = db
	}
	return c, nil
}

func (c *Cache) Close() error {
	slog.Debug("decodeCacheStats", "hits", c.hits.Load(), "diskHits", c.diskHits.Load(), "misses", c.misses.Load())
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Stats returns how many lookups were answered from memory, from disk, and not at all.
func (c *Cache) Stats() (hits, diskHits, misses int64) {
	return c.hits.Load(), c.diskHits.Load(), c.misses.Load()
}

func (c *Cache) memGet(k key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mem.Get(k)
}

func (c *Cache) memAdd(k key, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mem.Add(k, v)
}

func (c *Cache) diskGet(k key) ([]byte, bool) {
	if c.db == nil {
		return nil, false
	}
	val, closer, err := c.db.Get(k.bytes())
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false
	} else if err != nil {
		slog.Warn("decodeCacheReadError", "key", k.bytes(), "err", err)
		return nil, false
	}
	defer closer.Close()
	return bytes.Clone(val), true
}

func (c *Cache) diskSet(k key, val []byte) {
	if c.db == nil {
		return
	}
	if err := c.db.Set(k.bytes(), val, pebble.NoSync); err != nil {
		slog.Warn("decodeCacheWriteError", "err", err)
	}
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(magic)
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decode[T any](b []byte) (T, error) {
	var v T
	rest, ok := bytes.CutPrefix(b, []byte(magic))
	if !ok {
		return v, errBadMagic
	}
	err := gob.NewDecoder(bytes.NewReader(rest)).Decode(&v)
	return v, err
}

// Wrap returns a decoder that consults the cache before calling decode.
// Failed decodes are not cached. The result can be passed to [resource.Register].
//
// A memory hit returns the very value stored by the first decode, so resources with
// identical bytes share one value. Callers must treat decoded values as read-only.
func Wrap[T any](c *Cache, t resource.Type, decodeFn func(datarange.Range) (T, error)) func(datarange.Range) (T, error) {
	return func(r datarange.Range) (T, error) {
		k := keyOf(t, r.Bytes())

		if v, ok := c.memGet(k); ok {
			if tv, ok := v.(T); ok {
				c.hits.Add(1)
				return tv, nil
			}
		}

		if b, ok := c.diskGet(k); ok {
			v, err := decode[T](b)
			if err == nil {
				c.diskHits.Add(1)
				c.memAdd(k, v)
				return v, nil
			}
			slog.Debug("decodeCacheDiscard", "type", t.String(), "err", err)
		}

		c.misses.Add(1)
		v, err := decodeFn(r)
		if err != nil {
			return v, err
		}
		c.memAdd(k, v)
		if c.db != nil {
			b, err := encode(v)
			if err != nil {
				slog.Warn("decodeCacheEncodeError", "type", t.String(), "err", err)
			} else {
				c.diskSet(k, b)
			}
		}
		return v, nil
	}
}
