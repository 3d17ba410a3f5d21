// Package diag holds diagnostics as data. Nothing in the analysis core
// returns a Go error for malformed ChoiceScript; it records one of these.
package diag

import (
	"fmt"

	"github.com/sgranade/choicescript-vscode-sub001/core/source"
)

// Severity ranks a diagnostic. The values match the language server
// protocol's DiagnosticSeverity numbering.
type Severity int

const (
	SeverityError       Severity = 1
	SeverityWarning     Severity = 2
	SeverityInformation Severity = 3
	SeverityHint        Severity = 4
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInformation:
		return "info"
	case SeverityHint:
		return "hint"
	default:
		return "unknown"
	}
}

// Issue is a diagnostic that has not yet been resolved against a document:
// its span is an absolute byte range into the document text.
type Issue struct {
	Severity Severity
	Span     source.Span
	Message  string
}

// Errorf builds an Error-severity issue.
func Errorf(span source.Span, format string, args ...interface{}) Issue {
	return Issue{Severity: SeverityError, Span: span, Message: fmt.Sprintf(format, args...)}
}

// Warningf builds a Warning-severity issue.
func Warningf(span source.Span, format string, args ...interface{}) Issue {
	return Issue{Severity: SeverityWarning, Span: span, Message: fmt.Sprintf(format, args...)}
}

// Resolve converts the issue into a diagnostic located in doc.
func (i Issue) Resolve(doc source.Document) Diagnostic {
	return Diagnostic{
		Severity: i.Severity,
		Location: source.SpanToLocation(doc, i.Span),
		Message:  i.Message,
	}
}

// Diagnostic is the (severity, range, message) triple handed to consumers.
type Diagnostic struct {
	Severity Severity
	Location source.Location
	Message  string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Location, d.Severity, d.Message)
}

// CountErrors returns how many diagnostics have Error severity.
func CountErrors(diags []Diagnostic) int {
	n := 0
	for _, d := range diags {
		if d.Severity == SeverityError {
			n++
		}
	}
	return n
}
