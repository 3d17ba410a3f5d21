// Package source is the document collaborator of the analysis core: immutable
// text addressed by a URI, with conversion between byte offsets and
// editor positions.
package source

import (
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/sgranade/choicescript-vscode-sub001/core/invariant"
)

// Span is a half-open byte range [Start, End) into a document's text.
type Span struct {
	Start int
	End   int
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int { return s.End - s.Start }

// Shift returns the span moved by delta bytes.
func (s Span) Shift(delta int) Span {
	return Span{Start: s.Start + delta, End: s.End + delta}
}

// Position is a zero-based line and character, with characters counted in
// UTF-16 code units the way language-server clients count them.
type Position struct {
	Line      int
	Character int
}

// Before reports whether p is strictly before other.
func (p Position) Before(other Position) bool {
	if p.Line != other.Line {
		return p.Line < other.Line
	}
	return p.Character < other.Character
}

// After reports whether p is strictly after other.
func (p Position) After(other Position) bool {
	return other.Before(p)
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line+1, p.Character+1)
}

// Range is a half-open [Start, End) range of positions.
type Range struct {
	Start Position
	End   Position
}

// Contains reports whether pos lies within the range. The end is inclusive so
// that a cursor sitting right after a symbol still counts as inside it.
func (r Range) Contains(pos Position) bool {
	return !pos.Before(r.Start) && !r.End.Before(pos)
}

// Location is a range resolved against one specific document.
type Location struct {
	URI   string
	Range Range
}

// Before orders locations within the same document by start position.
func (l Location) Before(other Location) bool {
	return l.Range.Start.Before(other.Range.Start)
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%s", l.URI, l.Range.Start)
}

// Document is the read-only view of a source file the core works against.
type Document interface {
	URI() string
	Text() string
	PositionAt(offset int) Position
	OffsetAt(pos Position) int
}

// TextDocument is an in-memory Document with a precomputed line table.
type TextDocument struct {
	uri        string
	text       string
	lineStarts []int
}

// NewTextDocument creates a document over text. The URI is normalized.
func NewTextDocument(uri, text string) *TextDocument {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &TextDocument{uri: NormalizeURI(uri), text: text, lineStarts: starts}
}

func (d *TextDocument) URI() string  { return d.uri }
func (d *TextDocument) Text() string { return d.text }

// LineCount returns the number of lines, counting a trailing empty line.
func (d *TextDocument) LineCount() int { return len(d.lineStarts) }

// PositionAt converts a byte offset into a line/character position. Offsets
// past the end of the text clamp to the end.
func (d *TextDocument) PositionAt(offset int) Position {
	invariant.Precondition(offset >= 0, "offset must not be negative, got %d", offset)
	if offset > len(d.text) {
		offset = len(d.text)
	}
	line := sort.Search(len(d.lineStarts), func(i int) bool {
		return d.lineStarts[i] > offset
	}) - 1
	start := d.lineStarts[line]
	return Position{Line: line, Character: utf16Len(d.text[start:offset])}
}

// OffsetAt converts a position back to a byte offset, clamping characters
// past the end of the line to the line end.
func (d *TextDocument) OffsetAt(pos Position) int {
	if pos.Line < 0 {
		return 0
	}
	if pos.Line >= len(d.lineStarts) {
		return len(d.text)
	}
	start := d.lineStarts[pos.Line]
	end := len(d.text)
	if pos.Line+1 < len(d.lineStarts) {
		end = d.lineStarts[pos.Line+1] - 1
	}
	units := 0
	for i, r := range d.text[start:end] {
		if units >= pos.Character {
			return start + i
		}
		units += runeUTF16Len(r)
	}
	return end
}

// SpanToRange converts a span into a range against doc.
func SpanToRange(doc Document, span Span) Range {
	invariant.Precondition(span.End >= span.Start, "span must not run backwards: %v", span)
	return Range{Start: doc.PositionAt(span.Start), End: doc.PositionAt(span.End)}
}

// SpanToLocation resolves a span into a location in doc.
func SpanToLocation(doc Document, span Span) Location {
	return Location{URI: doc.URI(), Range: SpanToRange(doc, span)}
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += runeUTF16Len(r)
	}
	return n
}

func runeUTF16Len(r rune) int {
	if r >= 0x10000 && r <= utf8.MaxRune {
		return 2
	}
	return 1
}
