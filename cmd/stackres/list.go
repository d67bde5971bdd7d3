// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/elliotnunn/stackres/internal/bitmap"
	"github.com/elliotnunn/stackres/internal/resource"
	"github.com/elliotnunn/stackres/internal/sound"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list DIR [PATTERN]",
	Short: "List the resources in an extracted resource tree",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		pattern := ""
		if len(args) > 1 {
			pattern = args[1]
		}
		tbl, err := resource.LoadFS(os.DirFS(args[0]), pattern)
		if err != nil {
			return err
		}
		return listTable(cmd.OutOrStdout(), tbl)
	},
}

func listTable(w io.Writer, tbl *resource.Table) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tID\tSIZE\tNAME\tCONTENT")
	for e := range tbl.All() {
		size := "-"
		if r, err := e.RawRange(); err == nil {
			size = fmt.Sprint(r.Len())
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n", e.Type, e.ID, size, e.Name, describe(e))
	}
	return tw.Flush()
}

// describe decodes the entry (if it is a kind we understand) and summarises it.
func describe(e *resource.Entry) string {
	if _, ok := resource.DecoderFor(e.Type); !ok {
		return ""
	}
	v, err := e.Value()
	if err != nil {
		return "error: " + err.Error()
	}
	switch v := v.(type) {
	case *bitmap.Image:
		return fmt.Sprintf("%dx%d bitmap", v.Width, v.Height)
	case *sound.Sound:
		return fmt.Sprintf("%.2f Hz, %d ch, %d samples, %s",
			v.SampleRate, max(v.Channels, 1), len(v.Samples), v.Duration().Round(time.Millisecond))
	default:
		return fmt.Sprintf("%T", v)
	}
}
