package diag

import (
	"fmt"
	"io"
	"sort"

	"github.com/sgranade/choicescript-vscode-sub001/core/source"
)

// ANSI color codes
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
	ColorGray   = "\033[90m"
)

// Colorize wraps text in ANSI color codes if color is enabled
func Colorize(text, color string, useColor bool) string {
	if !useColor {
		return text
	}
	return color + text + ColorReset
}

// SeverityColor is the ANSI color a severity is printed in.
func SeverityColor(s Severity) string {
	switch s {
	case SeverityError:
		return ColorRed
	case SeverityWarning:
		return ColorYellow
	case SeverityInformation:
		return ColorBlue
	default:
		return ColorGray
	}
}

// Sort orders diagnostics by document then by start position, keeping the
// original order for ties.
func Sort(diags []Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		a, b := diags[i].Location, diags[j].Location
		if a.URI != b.URI {
			return a.URI < b.URI
		}
		return a.Before(b)
	})
}

// Write prints one diagnostic per line in the compiler-style
// "path:line:col: severity: message" layout.
func Write(w io.Writer, diags []Diagnostic, useColor bool) {
	for _, d := range diags {
		path := source.URIToPath(d.Location.URI)
		start := d.Location.Range.Start
		sev := Colorize(d.Severity.String(), SeverityColor(d.Severity), useColor)
		_, _ = fmt.Fprintf(w, "%s:%d:%d: %s: %s\n", path, start.Line+1, start.Character+1, sev, d.Message)
	}
}
