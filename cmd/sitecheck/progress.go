package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"

	"github.com/nao1215/sitecheck/internal/model"
)

// progressPrinter renders pipeline events as one line per stage.
// It is safe for concurrent use by several pipelines.
type progressPrinter struct {
	mu  sync.Mutex
	out io.Writer

	dim  *color.Color
	good *color.Color
	bad  *color.Color
}

func newProgressPrinter(out io.Writer, colorize bool) *progressPrinter {
	p := &progressPrinter{
		out:  out,
		dim:  color.New(color.Faint),
		good: color.New(color.FgGreen),
		bad:  color.New(color.FgRed),
	}
	for _, c := range []*color.Color{p.dim, p.good, p.bad} {
		if colorize {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// OnEvent implements pipeline.Observer.
func (p *progressPrinter) OnEvent(e model.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch e.Kind {
	case model.EventStageStarted:
		fmt.Fprintf(p.out, "%s %s: %s\n",
			p.dim.Sprintf("[%2d/%d]", e.Index, e.Total), e.Site, e.Stage.Label())
	case model.EventSiteCompleted:
		fmt.Fprintf(p.out, "%s %s\n", p.good.Sprint("done"), e.Site)
	case model.EventSiteFailed:
		fmt.Fprintf(p.out, "%s %s at %s\n", p.bad.Sprint("failed"), e.Site, e.Stage.Label())
	}
}
