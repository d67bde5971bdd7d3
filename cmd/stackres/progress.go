// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package main

import (
	"os"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"
)

// progress is a bar on stderr, or nothing at all when stderr is not a terminal.
type progress struct {
	container *mpb.Progress
	bar       *mpb.Bar
}

func newProgress(total int, enabled bool) *progress {
	p := &progress{}
	if !enabled || total == 0 || !term.IsTerminal(int(os.Stderr.Fd())) {
		return p
	}
	p.container = mpb.New(
		mpb.WithOutput(os.Stderr),
		mpb.WithWidth(64),
		mpb.WithRefreshRate(100*time.Millisecond),
	)
	p.bar = p.container.New(int64(total),
		mpb.BarStyle().Lbound("[").Filler("█").Tip("█").Padding("░").Rbound("]"),
		mpb.PrependDecorators(
			decor.Name("exporting", decor.WC{C: decor.DindentRight}),
			decor.CountersNoUnit("%d/%d", decor.WC{W: 12}),
		),
		mpb.AppendDecorators(decor.Percentage()),
	)
	return p
}

// Increment is safe to call from several goroutines.
func (p *progress) Increment() {
	if p.bar != nil {
		p.bar.Increment()
	}
}

func (p *progress) Wait() {
	if p.container == nil {
		return
	}
	p.bar.Abort(false) // no-op if already complete
	p.container.Wait()
}
