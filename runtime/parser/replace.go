package parser

import (
	"strings"

	"github.com/sgranade/choicescript-vscode-sub001/core/source"
	"github.com/sgranade/choicescript-vscode-sub001/runtime/expr"
)

// textOptions describes where a run of text being scanned sits.
type textOptions struct {
	inString       bool // inside a quoted string in an expression
	inMultireplace bool // inside an option of a @{} multireplace
}

// scanText finds the ${} replacements and @{} multireplaces in [start, end).
// Either may be written with ! or !! after the sigil to capitalize.
func (p *parser) scanText(start, end int, opts textOptions) {
	for i := start; i < end; i++ {
		sigil := p.text[i]
		if sigil != '$' && sigil != '@' {
			continue
		}
		open := i + 1
		for open < end && open < i+3 && p.text[open] == '!' {
			open++
		}
		if open >= end || p.text[open] != '{' {
			continue
		}
		if sigil == '$' {
			i = p.replacement(i, open, end)
		} else {
			i = p.multireplace(i, open, end, opts)
		}
	}
}

// replacement handles a ${expression}. It returns the offset of the closing
// brace, or end if there is none.
func (p *parser) replacement(start, open, end int) int {
	closeAt := p.closing(open, end, '{', '}')
	if closeAt < 0 {
		p.errorf(source.Span{Start: start, End: open + 1}, "Replacement is missing its }")
		return end
	}
	inner := p.text[open+1 : closeAt]
	if strings.TrimSpace(inner) == "" {
		p.errorf(source.Span{Start: start, End: closeAt + 1}, "Replacement is empty")
		return closeAt
	}
	p.expression(inner, open+1, false)
	return closeAt
}

// multireplace handles a @{test option1|option2|...}. The test is a
// parenthesized expression, a {reference}, a function call, or a bare
// variable; each option is text that may hold its own replacements.
func (p *parser) multireplace(start, open, end int, opts textOptions) int {
	if opts.inMultireplace {
		p.errorf(source.Span{Start: start, End: open + 1}, "Multireplaces can't be nested")
	}
	closeAt := p.textClosing(open, end)
	if closeAt < 0 {
		p.errorf(source.Span{Start: start, End: open + 1}, "Multireplace is missing its }")
		return end
	}
	whole := source.Span{Start: start, End: closeAt + 1}
	testStart := skipSpace(p.text, open+1, closeAt)
	if testStart >= closeAt {
		p.errorf(whole, "Multireplace is empty")
		return closeAt
	}

	testEnd := p.multireplaceTest(testStart, closeAt)
	if testEnd < 0 {
		return closeAt
	}
	p.expression(p.text[testStart:testEnd], testStart, false)

	bodyStart := testEnd
	if strings.TrimSpace(p.text[bodyStart:closeAt]) == "" {
		p.errorf(whole, "Multireplace has no options after its test")
		return closeAt
	}
	if c := p.text[bodyStart]; c != ' ' && c != '\t' {
		p.warnf(source.Span{Start: testStart, End: bodyStart + 1}, "Multireplace needs a space after its test")
	} else {
		bodyStart++
	}

	options := p.splitOptions(bodyStart, closeAt)
	if len(options) < 2 {
		p.errorf(whole, "Multireplace must have at least two options separated by |")
	}
	for _, o := range options {
		p.scanText(o.Start, o.End, textOptions{inString: opts.inString, inMultireplace: true})
	}
	return closeAt
}

// multireplaceTest returns the end of the test at pos, or -1 after
// reporting a malformed one.
func (p *parser) multireplaceTest(pos, end int) int {
	switch p.text[pos] {
	case '(':
		c := p.closing(pos, end, '(', ')')
		if c < 0 {
			p.errorf(source.Span{Start: pos, End: pos + 1}, "Multireplace test is missing its )")
			return -1
		}
		return c + 1
	case '{':
		c := p.closing(pos, end, '{', '}')
		if c < 0 {
			p.errorf(source.Span{Start: pos, End: pos + 1}, "Multireplace test is missing its }")
			return -1
		}
		return c + 1
	}

	stop := pos
	for stop < end && isWordByte(p.text[stop]) {
		stop++
	}
	if stop == pos {
		p.errorf(source.Span{Start: pos, End: pos + 1}, "Multireplace must start with a variable or a parenthesized test")
		return -1
	}
	if expr.IsFunction(p.text[pos:stop]) && stop < end && p.text[stop] == '(' {
		c := p.closing(stop, end, '(', ')')
		if c < 0 {
			p.errorf(source.Span{Start: stop, End: stop + 1}, "Multireplace test is missing its )")
			return -1
		}
		return c + 1
	}
	return stop
}

// splitOptions splits a multireplace body on the | characters that aren't
// inside a nested replacement.
func (p *parser) splitOptions(start, end int) []source.Span {
	var options []source.Span
	depth := 0
	from := start
	for j := start; j < end; j++ {
		switch p.text[j] {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		case '|':
			if depth == 0 {
				options = append(options, source.Span{Start: from, End: j})
				from = j + 1
			}
		}
	}
	return append(options, source.Span{Start: from, End: end})
}

// closing returns the offset of the bracket matching the one at pos, or -1.
// Brackets inside quoted strings don't count, since the region holds an
// expression.
func (p *parser) closing(pos, end int, open, close byte) int {
	depth := 0
	for j := pos; j < end; j++ {
		switch p.text[j] {
		case '"':
			j = p.stringEnd(j, end)
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return -1
}

// textClosing is closing for a {} region holding free text, where quotes
// are ordinary characters.
func (p *parser) textClosing(pos, end int) int {
	depth := 0
	for j := pos; j < end; j++ {
		switch p.text[j] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return -1
}

// stringEnd returns the offset of the quote closing the string opened at
// pos, or end if it is unterminated.
func (p *parser) stringEnd(pos, end int) int {
	for j := pos + 1; j < end; j++ {
		switch p.text[j] {
		case '\\':
			j++
		case '"':
			return j
		}
	}
	return end
}
