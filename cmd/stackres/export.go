// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package main

import (
	"bufio"
	"context"
	"fmt"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"

	"github.com/elliotnunn/stackres/internal/resource"
	"github.com/elliotnunn/stackres/internal/sound"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var exportCmd = &cobra.Command{
	Use:   "export DIR OUT [PATTERN]",
	Short: "Convert icons to PNG and sounds to WAV",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		pattern := ""
		if len(args) > 2 {
			pattern = args[2]
		}
		tbl, err := resource.LoadFS(os.DirFS(args[0]), pattern)
		if err != nil {
			return err
		}

		bar := newProgress(exportable(tbl), cfg.Progress)
		n, failed, err := exportTable(cmd.Context(), tbl, args[1], cfg.Palette(), cfg.Workers, bar.Increment)
		bar.Wait()
		if err != nil {
			return err
		}
		slog.Info("exportDone", "written", n, "failed", failed, "out", args[1])
		return nil
	},
}

func exportable(tbl *resource.Table) int {
	n := 0
	for e := range tbl.All() {
		if e.Type == resource.TypeIcon || e.Type == resource.TypeSound {
			n++
		}
	}
	return n
}

// exportTable writes OUT/TYPE/ID.png and OUT/TYPE/ID.wav files, drawing icons in pal.
// A resource that will not decode is logged and skipped, it does not stop the others.
func exportTable(ctx context.Context, tbl *resource.Table, out string, pal color.Palette, workers int, done func()) (written, failed int, err error) {
	var nWritten, nFailed atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for e := range tbl.All() {
		var ext string
		switch e.Type {
		case resource.TypeIcon:
			ext = ".png"
		case resource.TypeSound:
			ext = ".wav"
		default:
			continue
		}
		if ctx.Err() != nil {
			break
		}

		g.Go(func() error {
			defer done()
			dir := filepath.Join(out, e.Type.Filename())
			if err := os.MkdirAll(dir, 0o777); err != nil {
				return err
			}
			name := filepath.Join(dir, strconv.Itoa(e.ID)+ext)
			err := exportEntry(e, name, pal)
			if os.IsPermission(err) {
				return err
			} else if err != nil {
				slog.Warn("exportFailed", "resource", e.String(), "err", err)
				nFailed.Add(1)
				return nil
			}
			nWritten.Add(1)
			return nil
		})
	}
	err = g.Wait()
	return int(nWritten.Load()), int(nFailed.Load()), err
}

func exportEntry(e *resource.Entry, name string, pal color.Palette) error {
	var write func(*bufio.Writer) error
	switch e.Type {
	case resource.TypeIcon:
		img, err := e.Icon()
		if err != nil {
			return err
		}
		write = func(w *bufio.Writer) error { return png.Encode(w, img.Paletted(pal)) }
	case resource.TypeSound:
		snd, err := sound.FromEntry(e)
		if err != nil {
			return err
		}
		write = func(w *bufio.Writer) error { return snd.WriteWAV(w) }
	default:
		return fmt.Errorf("cannot export %s", e)
	}

	f, err := os.Create(name)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	err = write(w)
	if err == nil {
		err = w.Flush()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(name)
	}
	return err
}
