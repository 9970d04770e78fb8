package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/manash/genstate/pkg/models"
)

// printer writes JSON when stdout is not a terminal (or --json is set) and
// aligned, colored text otherwise.
type printer struct {
	out  io.Writer
	json bool

	active   func(a ...any) string
	undone   func(a ...any) string
	inactive func(a ...any) string
	bold     func(a ...any) string
}

func (a *App) printer() *printer {
	jsonOut := a.jsonOut || !a.IsTerminal(a.Out)
	newColor := func(attrs ...color.Attribute) func(a ...any) string {
		c := color.New(attrs...)
		if jsonOut {
			c.DisableColor()
		} else {
			c.EnableColor()
		}
		return c.SprintFunc()
	}
	return &printer{
		out:      a.Out,
		json:     jsonOut,
		active:   newColor(color.FgGreen),
		undone:   newColor(color.FgYellow),
		inactive: newColor(color.FgHiBlack),
		bold:     newColor(color.Bold),
	}
}

func (p *printer) JSON(v any) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *printer) Linef(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

func (p *printer) table(header ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(p.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	return tw
}

// status colors an iteration status. Colored cells go last in a table row so
// escape codes do not skew the alignment.
func (p *printer) status(s models.IterationStatus) string {
	switch s {
	case models.StatusUndone:
		return p.undone(s.String())
	case models.StatusInactive, models.StatusArchived:
		return p.inactive(s.String())
	default:
		return p.active(models.StatusActive.String())
	}
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
