package expr

import "github.com/sgranade/choicescript-vscode-sub001/core/source"

// Kind classifies a token.
type Kind int

const (
	KindUnknown Kind = iota

	// Operators
	KindMathOperator         // + - * / %+ %- ^
	KindComparisonOperator   // = != < > <= >=
	KindStringOperator       // & #
	KindBooleanNamedOperator // and, or
	KindNumericNamedOperator // modulo
	KindUnknownOperator      // an operator-looking character with no meaning, like a bare %

	// Operands
	KindNumber
	KindString
	KindBoolean
	KindVariable
	KindVariableReference // {expr}
	KindParentheses       // (expr)
	KindFunctionName      // a function keyword not yet merged with its arguments
	KindFunctionCall      // name(expr)
)

var kindNames = map[Kind]string{
	KindUnknown:              "Unknown",
	KindMathOperator:         "MathOperator",
	KindComparisonOperator:   "ComparisonOperator",
	KindStringOperator:       "StringOperator",
	KindBooleanNamedOperator: "BooleanNamedOperator",
	KindNumericNamedOperator: "NumericNamedOperator",
	KindUnknownOperator:      "UnknownOperator",
	KindNumber:               "Number",
	KindString:               "String",
	KindBoolean:              "Boolean",
	KindVariable:             "Variable",
	KindVariableReference:    "VariableReference",
	KindParentheses:          "Parentheses",
	KindFunctionName:         "FunctionName",
	KindFunctionCall:         "FunctionCall",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "Kind(?)"
}

// IsOperator reports whether the kind is any operator.
func (k Kind) IsOperator() bool {
	return k >= KindMathOperator && k <= KindUnknownOperator
}

// IsValue reports whether a token of this kind can stand as an operand.
func (k Kind) IsValue() bool {
	switch k {
	case KindNumber, KindString, KindBoolean, KindVariable,
		KindVariableReference, KindParentheses, KindFunctionCall:
		return true
	}
	return false
}

// Token is one element of an expression. The concrete variants below form a
// closed set; only Group and Call own a nested Expression.
type Token interface {
	Kind() Kind
	Text() string
	Span() source.Span
	token()
}

// Operator is any operator token.
type Operator struct {
	kind Kind
	text string
	span source.Span
}

func (o *Operator) Kind() Kind { return o.kind }
func (o *Operator) Text() string { return o.text }
func (o *Operator) Span() source.Span { return o.span }
func (*Operator) token() {}

// Literal is a number, quoted string, or true/false.
type Literal struct {
	kind Kind
	text string
	span source.Span
	// Terminated is false for a string missing its closing quote.
	Terminated bool
	// Replacements holds the ${} expressions inside a string, in order.
	Replacements []*Expression
}

func (l *Literal) Kind() Kind { return l.kind }
func (l *Literal) Text() string { return l.text }
func (l *Literal) Span() source.Span { return l.span }
func (*Literal) token() {}

// Contents returns a string literal's text without its quotes.
func (l *Literal) Contents() string {
	if l.kind != KindString || len(l.text) == 0 {
		return l.text
	}
	s := l.text[1:]
	if l.Terminated && len(s) > 0 {
		s = s[:len(s)-1]
	}
	return s
}

// ContentsSpan returns the span of a string literal's text inside its quotes.
func (l *Literal) ContentsSpan() source.Span {
	c := l.Contents()
	start := l.span.Start
	if l.kind == KindString {
		start++
	}
	return source.Span{Start: start, End: start + len(c)}
}

// Variable is a bare variable name.
type Variable struct {
	span source.Span
	name string
}

func (v *Variable) Kind() Kind { return KindVariable }
func (v *Variable) Text() string { return v.name }
func (v *Variable) Span() source.Span { return v.span }
func (*Variable) token() {}

// Name returns the variable name as written.
func (v *Variable) Name() string { return v.name }

// Group is a {variable reference} or a (parenthesized expression).
type Group struct {
	kind Kind
	text string
	span source.Span
	// Inner is nil when the closing bracket is missing.
	Inner *Expression
}

func (g *Group) Kind() Kind { return g.kind }
func (g *Group) Text() string { return g.text }
func (g *Group) Span() source.Span { return g.span }
func (*Group) token() {}

// Call is a function name, merged with its parenthesized arguments once the
// expression is combined.
type Call struct {
	name string
	text string
	span source.Span
	// merged is set once a following parenthetical has been attached.
	merged bool
	// Args is nil for a bare function name, or when the parentheses are
	// missing their close.
	Args *Expression
}

func (c *Call) Kind() Kind {
	if !c.merged {
		return KindFunctionName
	}
	return KindFunctionCall
}
func (c *Call) Text() string { return c.text }
func (c *Call) Span() source.Span { return c.span }
func (*Call) token() {}

// Name returns the function name, lowercased.
func (c *Call) Name() string { return c.name }

// Unknown is text the tokenizer couldn't classify.
type Unknown struct {
	text string
	span source.Span
}

func (u *Unknown) Kind() Kind { return KindUnknown }
func (u *Unknown) Text() string { return u.text }
func (u *Unknown) Span() source.Span { return u.span }
func (*Unknown) token() {}
