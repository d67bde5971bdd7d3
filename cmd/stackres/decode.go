// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/elliotnunn/stackres/internal/bitmap"
	"github.com/elliotnunn/stackres/internal/rawfile"
	"github.com/elliotnunn/stackres/internal/resource"
	"github.com/spf13/cobra"
)

var decodeCmd = &cobra.Command{
	Use:   "decode TYPE FILE",
	Short: "Decode one resource saved as a bare file (optionally xz-compressed)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := resource.ParseType(args[0])
		if err != nil {
			return err
		}
		r, release, err := rawfile.Open(args[1])
		if err != nil {
			return err
		}
		defer release()

		e := resource.NewEntry(0, filepath.Base(args[1]), t, r)
		return decodeOne(cmd.OutOrStdout(), e)
	},
}

func decodeOne(w io.Writer, e *resource.Entry) error {
	if _, ok := resource.DecoderFor(e.Type); !ok {
		return fmt.Errorf("no decoder for '%s'", e.Type)
	}
	v, err := e.Value()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s: %s\n", e, describe(e))
	if img, ok := v.(*bitmap.Image); ok {
		fmt.Fprint(w, img)
	}
	return nil
}
