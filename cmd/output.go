package cmd

import (
	"io"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// newColor returns a color that is only applied when w is a terminal.
func newColor(w io.Writer, attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if isTerminal(w) {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
