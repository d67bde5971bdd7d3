// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package resource

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"log/slog"
	"path"
	"slices"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/elliotnunn/stackres/internal/datarange"
)

var ErrDuplicate = errors.New("resource: duplicate type and ID")

type key struct {
	t  Type
	id int
}

// A Table is the set of resources belonging to one stack.
// Adding entries is not safe for concurrent use, but reading and decoding are.
type Table struct {
	entries []*Entry
	byKey   map[key]*Entry
}

func NewTable() *Table {
	return &Table{byKey: make(map[key]*Entry)}
}

func (t *Table) Add(e *Entry) error {
	k := key{e.Type, e.ID}
	if _, ok := t.byKey[k]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, e)
	}
	t.byKey[k] = e
	t.entries = append(t.entries, e)
	return nil
}

func (t *Table) Len() int { return len(t.entries) }

func (t *Table) Lookup(typ Type, id int) (*Entry, bool) {
	e, ok := t.byKey[key{typ, id}]
	return e, ok
}

// LookupName finds a resource by name, ignoring case as the Resource Manager does.
func (t *Table) LookupName(typ Type, name string) (*Entry, bool) {
	for _, e := range t.entries {
		if e.Type == typ && strings.EqualFold(e.Name, name) {
			return e, true
		}
	}
	return nil, false
}

// All yields every entry in the order it was added.
func (t *Table) All() iter.Seq[*Entry] {
	return func(yield func(*Entry) bool) {
		for _, e := range t.entries {
			if !yield(e) {
				return
			}
		}
	}
}

func (t *Table) OfType(typ Type) iter.Seq[*Entry] {
	return func(yield func(*Entry) bool) {
		for _, e := range t.entries {
			if e.Type == typ && !yield(e) {
				return
			}
		}
	}
}

// LoadFS collects resources that have already been extracted into a tree of
// "TYPE/ID" files, with names given by "TYPE/named/NAME" symlinks.
// Pattern selects files with doublestar syntax and defaults to "*/*".
// The bytes of every resource end up in a single shared buffer.
func LoadFS(fsys fs.FS, pattern string) (*Table, error) {
	if pattern == "" {
		pattern = "*/*"
	}
	matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("resource: bad pattern %q: %w", pattern, err)
	}

	type r struct {
		name string
		t    Type
		id   int
		data []byte
	}
	var rlist []r
	size := 0
	names := make(map[string]string)
	seenDir := make(map[string]bool)
	for _, m := range matches {
		dir, base := path.Split(m)
		dir = strings.TrimSuffix(dir, "/")
		if strings.Contains(dir, "/") {
			continue // too deep, probably under "named"
		}
		t, err := typeFromFilename(dir)
		if err != nil {
			slog.Debug("resourceSkipType", "path", m, "err", err)
			continue
		}
		id, err := strconv.ParseInt(base, 10, 16)
		if err != nil {
			slog.Debug("resourceSkipID", "path", m, "err", err)
			continue
		}
		data, err := fs.ReadFile(fsys, m)
		if err != nil {
			return nil, err
		}
		if !seenDir[dir] {
			seenDir[dir] = true
			if err := readNames(fsys, dir, names); err != nil {
				return nil, err
			}
		}
		rlist = append(rlist, r{name: m, t: t, id: int(id), data: data})
		size += len(data)
	}

	slices.SortFunc(rlist, func(a, b r) int {
		return cmp.Or(cmp.Compare(a.t, b.t), cmp.Compare(a.id, b.id))
	})

	buf := make([]byte, 0, size)
	for _, r := range rlist {
		buf = append(buf, r.data...)
	}
	whole := datarange.New(buf)

	tbl := NewTable()
	off := 0
	for _, r := range rlist {
		rng, err := whole.Sub(off, len(r.data))
		if err != nil {
			return nil, err
		}
		off += len(r.data)
		if err := tbl.Add(NewEntry(r.id, names[r.name], r.t, rng)); err != nil {
			return nil, err
		}
	}
	slog.Debug("resourceTableLoaded", "count", tbl.Len(), "bytes", len(buf))
	return tbl, nil
}

// readNames maps "TYPE/ID" paths to resource names using the symlinks under TYPE/named.
func readNames(fsys fs.FS, dir string, names map[string]string) error {
	namedDir := path.Join(dir, "named")
	list, err := fs.ReadDir(fsys, namedDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	} else if err != nil {
		return err
	}
	for _, l := range list {
		if l.Type()&fs.ModeSymlink == 0 {
			continue
		}
		link := path.Join(namedDir, l.Name())
		target, err := fs.ReadLink(fsys, link)
		if err != nil {
			slog.Debug("resourceBadName", "path", link, "err", err)
			continue
		}
		// accept both root-relative and link-relative targets
		if !strings.HasPrefix(target, dir+"/") {
			target = path.Join(namedDir, target)
		}
		names[target] = strings.ReplaceAll(l.Name(), ":", "/")
	}
	return nil
}
