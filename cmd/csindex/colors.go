package main

import (
	"io"
	"os"

	"golang.org/x/term"
)

// shouldUseColor determines if color output should be used.
// Respects --no-color and the NO_COLOR environment variable.
func shouldUseColor(w io.Writer, noColorFlag bool) bool {
	if noColorFlag || os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
