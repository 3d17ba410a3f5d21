package expr

import (
	"strings"

	"github.com/sgranade/choicescript-vscode-sub001/core/diag"
	"github.com/sgranade/choicescript-vscode-sub001/core/invariant"
	"github.com/sgranade/choicescript-vscode-sub001/core/source"
)

// ASCII character classes
var (
	isSpace     [128]bool
	isDigit     [128]bool
	isWordStart [128]bool
	isWordPart  [128]bool
	// startsToken marks characters that end a run of unrecognized text
	startsToken [128]bool
)

func init() {
	for i := 0; i < 128; i++ {
		ch := byte(i)
		isSpace[i] = ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' || ch == '\f'
		isDigit[i] = '0' <= ch && ch <= '9'
		isWordStart[i] = ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z') || ch == '_'
		isWordPart[i] = isWordStart[i] || isDigit[i]
	}
	for _, ch := range "\"{}()%+-*/^=!<>&#" {
		startsToken[ch] = true
	}
	for i := 0; i < 128; i++ {
		startsToken[i] = startsToken[i] || isSpace[i] || isDigit[i] || isWordStart[i]
	}
}

func class(table *[128]bool, ch byte) bool {
	return ch < 128 && table[ch]
}

// tokenizer splits an expression's text into raw tokens. Bracketed and
// parenthesized regions are handed to New, so nested expressions are built
// during the same pass.
type tokenizer struct {
	text   string
	origin int // absolute offset of text[0]
	tokens []Token
	issues []diag.Issue
}

func tokenize(text string, origin int) ([]Token, []diag.Issue) {
	t := &tokenizer{text: text, origin: origin}
	t.run()
	return t.tokens, t.issues
}

func (t *tokenizer) span(start, end int) source.Span {
	return source.Span{Start: t.origin + start, End: t.origin + end}
}

func (t *tokenizer) run() {
	pos := 0
	for pos < len(t.text) {
		ch := t.text[pos]
		if class(&isSpace, ch) {
			pos++
			continue
		}

		prev := pos
		switch {
		case ch == '"':
			pos = t.scanString(pos)
		case ch == '{':
			pos = t.scanGroup(pos, '{', '}', KindVariableReference)
		case ch == '(':
			pos = t.scanGroup(pos, '(', ')', KindParentheses)
		case ch == '}' || ch == ')':
			t.tokens = append(t.tokens, &Unknown{text: t.text[pos : pos+1], span: t.span(pos, pos+1)})
			what := "parenthesis"
			if ch == '}' {
				what = "curly bracket"
			}
			t.issues = append(t.issues, diag.Errorf(t.span(pos, pos+1), "Unexpected close %s", what))
			pos++
		case class(&isDigit, ch):
			pos = t.scanNumber(pos)
		case class(&isWordStart, ch):
			pos = t.scanWord(pos)
		default:
			pos = t.scanOperator(pos)
		}

		invariant.Invariant(pos > prev, "tokenizer must advance (stuck at %d)", prev)
	}
}

// scanString reads a quoted string. Backslash escapes the next character.
func (t *tokenizer) scanString(start int) int {
	for i := start + 1; i < len(t.text); i++ {
		switch t.text[i] {
		case '\\':
			i++
		case '"':
			t.tokens = append(t.tokens, &Literal{
				kind:         KindString,
				text:         t.text[start : i+1],
				span:         t.span(start, i+1),
				Terminated:   true,
				Replacements: t.replacements(start+1, i),
			})
			return i + 1
		}
	}
	t.tokens = append(t.tokens, &Literal{
		kind:         KindString,
		text:         t.text[start:],
		span:         t.span(start, len(t.text)),
		Replacements: t.replacements(start+1, len(t.text)),
	})
	t.issues = append(t.issues, diag.Errorf(t.span(start, start+1), "Missing close quote"))
	return len(t.text)
}

// replacements parses the contents of each closed ${}, $!{} or $!!{} in
// text[start:end] as a nested expression. Empty and unclosed replacements
// are skipped.
func (t *tokenizer) replacements(start, end int) []*Expression {
	var out []*Expression
	for i := start; i < end; i++ {
		if t.text[i] != '$' {
			continue
		}
		j := i + 1
		for k := 0; k < 2 && j < end && t.text[j] == '!'; k++ {
			j++
		}
		if j >= end || t.text[j] != '{' {
			continue
		}
		depth := 0
		closeAt := -1
		for k := j; k < end && closeAt < 0; k++ {
			switch t.text[k] {
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					closeAt = k
				}
			}
		}
		if closeAt < 0 {
			return out
		}
		if inner := t.text[j+1 : closeAt]; strings.TrimSpace(inner) != "" {
			out = append(out, New(inner, t.origin+j+1, false))
		}
		i = closeAt
	}
	return out
}

// scanGroup reads a {} or () region and parses its contents as a nested
// expression. A missing close leaves the group's Inner unset.
func (t *tokenizer) scanGroup(start int, open, close byte, kind Kind) int {
	end := findClose(t.text, start, open, close)
	if end < 0 {
		t.tokens = append(t.tokens, &Group{kind: kind, text: t.text[start:], span: t.span(start, len(t.text))})
		what := "parenthesis"
		if open == '{' {
			what = "curly bracket"
		}
		t.issues = append(t.issues, diag.Errorf(t.span(start, start+1), "Missing close %s", what))
		return len(t.text)
	}
	inner := New(t.text[start+1:end], t.origin+start+1, false)
	t.tokens = append(t.tokens, &Group{
		kind:  kind,
		text:  t.text[start : end+1],
		span:  t.span(start, end+1),
		Inner: inner,
	})
	return end + 1
}

// findClose returns the index of the bracket closing the one at start, or -1.
// Quoted strings are skipped so brackets inside them don't count.
func findClose(text string, start int, open, close byte) int {
	depth := 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '"':
			j := i + 1
			for ; j < len(text); j++ {
				if text[j] == '\\' {
					j++
				} else if text[j] == '"' {
					break
				}
			}
			if j >= len(text) {
				return -1
			}
			i = j
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func (t *tokenizer) scanNumber(start int) int {
	i := start
	for i < len(t.text) && class(&isDigit, t.text[i]) {
		i++
	}
	if i+1 < len(t.text) && t.text[i] == '.' && class(&isDigit, t.text[i+1]) {
		i++
		for i < len(t.text) && class(&isDigit, t.text[i]) {
			i++
		}
	}
	t.tokens = append(t.tokens, &Literal{kind: KindNumber, text: t.text[start:i], span: t.span(start, i), Terminated: true})
	return i
}

func (t *tokenizer) scanWord(start int) int {
	i := start
	for i < len(t.text) && class(&isWordPart, t.text[i]) {
		i++
	}
	word := t.text[start:i]
	lower := strings.ToLower(word)
	span := t.span(start, i)

	switch {
	case namedOperators[lower] != 0:
		t.tokens = append(t.tokens, &Operator{kind: namedOperators[lower], text: word, span: span})
	case booleanValues[lower]:
		t.tokens = append(t.tokens, &Literal{kind: KindBoolean, text: word, span: span, Terminated: true})
	case IsFunction(lower):
		t.tokens = append(t.tokens, &Call{name: lower, text: word, span: span})
	default:
		t.tokens = append(t.tokens, &Variable{name: word, span: span})
	}
	return i
}

func (t *tokenizer) scanOperator(start int) int {
	rest := t.text[start:]
	for _, op := range symbolOperators {
		if strings.HasPrefix(rest, op) {
			end := start + len(op)
			t.tokens = append(t.tokens, &Operator{kind: operatorKinds[op], text: op, span: t.span(start, end)})
			return end
		}
	}

	if rest[0] == '%' || rest[0] == '!' {
		t.tokens = append(t.tokens, &Operator{kind: KindUnknownOperator, text: rest[:1], span: t.span(start, start+1)})
		t.issues = append(t.issues, diag.Errorf(t.span(start, start+1), "Unknown operator %q", rest[:1]))
		return start + 1
	}

	// Consume a run of unclassifiable characters as a single element.
	end := start + 1
	for end < len(t.text) && !class(&startsToken, t.text[end]) {
		end++
	}
	t.tokens = append(t.tokens, &Unknown{text: t.text[start:end], span: t.span(start, end)})
	t.issues = append(t.issues, diag.Errorf(t.span(start, end), "Unrecognized element %q", t.text[start:end]))
	return end
}
