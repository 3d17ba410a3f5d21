// Package expr tokenizes ChoiceScript expressions and infers, without
// evaluating anything, the single type each expression produces.
package expr

import (
	"fmt"
	"sort"

	"github.com/sgranade/choicescript-vscode-sub001/core/diag"
	"github.com/sgranade/choicescript-vscode-sub001/core/invariant"
	"github.com/sgranade/choicescript-vscode-sub001/core/source"
)

// Expression is a tokenized expression and its inferred type.
//
// Nested expressions form a tree: every {} or () token owns exactly one child,
// every ${} inside a string owns one, and the parent owns the children in
// token order.
type Expression struct {
	Text   string
	Offset int // absolute offset of Text[0] in the document
	// IsAssignment enables the bare-delta forms "+1", "&"x"" and friends.
	IsAssignment bool

	// Tokens is the raw token stream.
	Tokens []Token
	// Combined merges each function name with the parenthetical after it.
	Combined []Token
	Children []*Expression

	EvalType         EvalType
	ParseIssues      []diag.Issue
	ValidationIssues []diag.Issue
}

// New tokenizes text and infers its type. offset is the absolute position of
// text within the document, so every token and issue span is absolute.
func New(text string, offset int, isAssignment bool) *Expression {
	e := &Expression{
		Text:         text,
		Offset:       offset,
		IsAssignment: isAssignment,
		EvalType:     EvalUnprocessed,
	}
	e.Tokens, e.ParseIssues = tokenize(text, offset)
	for _, tok := range e.Tokens {
		switch t := tok.(type) {
		case *Group:
			if t.Inner != nil {
				e.Children = append(e.Children, t.Inner)
			}
		case *Literal:
			e.Children = append(e.Children, t.Replacements...)
		}
	}
	e.Combined = e.combine()
	e.EvalType = e.evaluate()

	invariant.Postcondition(e.EvalType != EvalUnprocessed, "expression %q left unprocessed", text)
	return e
}

// Span covers the expression's whole text.
func (e *Expression) Span() source.Span {
	return source.Span{Start: e.Offset, End: e.Offset + len(e.Text)}
}

// Slice returns a new expression over the text from combined token i's start
// up to combined token j's start (or the end of the text when j is the
// token count).
func (e *Expression) Slice(i, j int) *Expression {
	invariant.Precondition(i >= 0 && i <= j && j <= len(e.Combined),
		"slice [%d:%d] out of range for %d tokens", i, j, len(e.Combined))

	start := len(e.Text)
	if i < len(e.Combined) {
		start = e.Combined[i].Span().Start - e.Offset
	}
	end := len(e.Text)
	if j < len(e.Combined) {
		end = e.Combined[j].Span().Start - e.Offset
	}
	return New(e.Text[start:end], e.Offset+start, false)
}

// IsParenthesized reports whether the expression is a single token, so no
// operator sits outside parentheses.
func (e *Expression) IsParenthesized() bool {
	return len(e.Combined) <= 1
}

// Issues returns every parse and validation issue of the expression and its
// nested expressions, ordered by position.
func (e *Expression) Issues() []diag.Issue {
	var all []diag.Issue
	var collect func(*Expression)
	collect = func(x *Expression) {
		all = append(all, x.ParseIssues...)
		all = append(all, x.ValidationIssues...)
		for _, c := range x.Children {
			collect(c)
		}
	}
	collect(e)
	sort.SliceStable(all, func(i, j int) bool { return all[i].Span.Start < all[j].Span.Start })
	return all
}

// Walk visits every combined token depth-first, descending into variable
// references, parentheses, function arguments, and string replacements.
// Returning false from fn skips the token's nested expressions.
func (e *Expression) Walk(fn func(Token) bool) {
	for _, tok := range e.Combined {
		if !fn(tok) {
			continue
		}
		switch t := tok.(type) {
		case *Group:
			if t.Inner != nil {
				t.Inner.Walk(fn)
			}
		case *Call:
			if t.Args != nil {
				t.Args.Walk(fn)
			}
		case *Literal:
			for _, r := range t.Replacements {
				r.Walk(fn)
			}
		}
	}
}

func (e *Expression) combine() []Token {
	combined := make([]Token, 0, len(e.Tokens))
	for i := 0; i < len(e.Tokens); i++ {
		call, ok := e.Tokens[i].(*Call)
		if !ok {
			combined = append(combined, e.Tokens[i])
			continue
		}
		if i+1 < len(e.Tokens) && e.Tokens[i+1].Kind() == KindParentheses {
			paren := e.Tokens[i+1].(*Group)
			span := source.Span{Start: call.span.Start, End: paren.span.End}
			combined = append(combined, &Call{
				name:   call.name,
				text:   e.Text[span.Start-e.Offset : span.End-e.Offset],
				span:   span,
				merged: true,
				Args:   paren.Inner,
			})
			i++
			continue
		}
		e.ParseIssues = append(e.ParseIssues,
			diag.Errorf(call.span, "Function %q must be followed by parentheses", call.text))
		combined = append(combined, call)
	}
	return combined
}

func (e *Expression) invalid(span source.Span, format string, args ...interface{}) {
	e.ValidationIssues = append(e.ValidationIssues, diag.Errorf(span, format, args...))
}

func (e *Expression) warn(span source.Span, format string, args ...interface{}) {
	e.ValidationIssues = append(e.ValidationIssues, diag.Warningf(span, format, args...))
}

func (e *Expression) evaluate() EvalType {
	toks := e.Combined
	switch len(toks) {
	case 0:
		return EvalEmpty
	case 1:
		return e.evaluateSingle(toks[0])
	case 2:
		return e.evaluatePair(toks[0], toks[1])
	case 3:
		return e.evaluateTriple(toks[0], toks[1], toks[2])
	default:
		return e.evaluateTooMany()
	}
}

func (e *Expression) evaluateSingle(tok Token) EvalType {
	if tok.Kind().IsOperator() {
		if tok.Kind() != KindUnknownOperator {
			e.invalid(tok.Span(), "Incomplete expression: %q needs values on both sides", tok.Text())
		}
		return EvalError
	}
	t, ok := e.operand(tok)
	if !ok {
		return EvalError
	}
	return t
}

func (e *Expression) evaluatePair(first, second Token) EvalType {
	if e.IsAssignment && isCompoundOperator(first) && second.Kind().IsValue() {
		t, ok := e.operand(second)
		if !ok {
			return EvalError
		}
		switch first.Text() {
		case "&":
			return EvalStringChange
		case "#":
			if !t.accepts(EvalNumber) {
				e.invalid(second.Span(), "Must be a number or a variable to use %q", first.Text())
				return EvalError
			}
			return EvalStringChange
		default:
			if !t.accepts(EvalNumber) {
				e.invalid(second.Span(), "Must be a number or a variable to use %q", first.Text())
				return EvalError
			}
			return EvalNumberChange
		}
	}

	if first.Kind().IsValue() && second.Kind().IsValue() {
		e.invalid(second.Span(), "Missing an operator before %q", second.Text())
	} else {
		e.invalid(e.tokenSpan(), "Incomplete expression")
	}
	return EvalError
}

func (e *Expression) evaluateTriple(left, op, right Token) EvalType {
	if !op.Kind().IsOperator() {
		e.invalid(op.Span(), "Expected an operator, not %q", op.Text())
		return EvalError
	}
	if op.Kind() == KindUnknownOperator {
		return EvalError
	}

	lt, lok := e.operandBeside(left, op)
	rt, rok := e.operandBeside(right, op)
	if !lok || !rok {
		return EvalError
	}

	switch op.Kind() {
	case KindStringOperator:
		if op.Text() == "&" {
			// Concatenation turns anything into a string.
			return EvalString
		}
		ok := e.require(left, lt, EvalString, op)
		ok = e.require(right, rt, EvalNumber, op) && ok
		if !ok {
			return EvalError
		}
		return EvalString

	case KindMathOperator, KindNumericNamedOperator:
		ok := e.require(left, lt, EvalNumber, op)
		ok = e.require(right, rt, EvalNumber, op) && ok
		if !ok {
			return EvalError
		}
		return EvalNumber

	case KindBooleanNamedOperator:
		ok := e.require(left, lt, EvalBoolean, op)
		ok = e.require(right, rt, EvalBoolean, op) && ok
		if !ok {
			return EvalError
		}
		return EvalBoolean

	case KindComparisonOperator:
		if isInequality(op.Text()) {
			e.require(left, lt, EvalNumber, op)
			e.require(right, rt, EvalNumber, op)
		}
		if lt.IsConcrete() && rt.IsConcrete() && lt != rt {
			e.warn(e.tokenSpan(), "Comparing %s to %s will never be true", describe(lt), describe(rt))
		}
		return EvalBoolean
	}

	return EvalError
}

// require checks that an operand's type fits the operator and flags it if not.
func (e *Expression) require(tok Token, got, want EvalType, op Token) bool {
	if got.accepts(want) {
		return true
	}
	switch want {
	case EvalNumber:
		e.invalid(tok.Span(), "Must be a number or a variable to use %q", op.Text())
	case EvalBoolean:
		e.invalid(tok.Span(), "Must be true/false or a variable to use %q", op.Text())
	default:
		e.invalid(tok.Span(), "Must be a string or a variable to use %q", op.Text())
	}
	return false
}

func (e *Expression) evaluateTooMany() EvalType {
	toks := e.Combined
	for i := 0; i+1 < len(toks); i++ {
		if toks[i].Kind() != KindMathOperator || toks[i].Text() != "-" || toks[i+1].Kind() != KindNumber {
			continue
		}
		afterComparison := i > 0 && toks[i-1].Kind() == KindComparisonOperator
		beforeComparison := i+2 < len(toks) && toks[i+2].Kind() == KindComparisonOperator
		if (i == 0 && beforeComparison) || afterComparison {
			span := source.Span{Start: toks[i].Span().Start, End: toks[i+1].Span().End}
			e.invalid(span, "Negative numbers can't be used in comparisons; write (0 - %s) instead", toks[i+1].Text())
			return EvalError
		}
	}
	span := source.Span{Start: toks[3].Span().Start, End: toks[len(toks)-1].Span().End}
	e.invalid(span, "Too many elements - are you missing parentheses?")
	return EvalError
}

// operandBeside checks a token sitting next to an operator.
func (e *Expression) operandBeside(tok, op Token) (EvalType, bool) {
	if tok.Kind().IsOperator() {
		e.invalid(tok.Span(), "Expected a value next to %q, not the operator %q", op.Text(), tok.Text())
		return EvalError, false
	}
	return e.operand(tok)
}

// operand resolves a token's effective type, unwrapping functions and
// parentheses, and reports whether the token is well-formed enough to check.
func (e *Expression) operand(tok Token) (EvalType, bool) {
	switch t := tok.(type) {
	case *Literal:
		switch t.kind {
		case KindNumber:
			return EvalNumber, true
		case KindBoolean:
			return EvalBoolean, true
		default:
			return EvalString, true
		}
	case *Variable:
		return EvalUnknowable, true
	case *Group:
		if t.kind == KindVariableReference || t.Inner == nil {
			// An unclosed group is already reported by the tokenizer.
			return EvalUnknowable, true
		}
		switch t.Inner.EvalType {
		case EvalEmpty:
			e.invalid(t.span, "Empty parentheses")
			return EvalError, false
		case EvalError:
			return EvalError, false
		}
		return t.Inner.EvalType, true
	case *Call:
		fn := Functions[t.name]
		if !t.merged {
			return EvalError, false
		}
		if t.Args == nil {
			return fn.Returns, true
		}
		switch t.Args.EvalType {
		case EvalEmpty:
			e.invalid(t.span, "Function %q is missing its argument", t.name)
			return EvalError, false
		case EvalError:
			return EvalError, false
		}
		if !t.Args.EvalType.accepts(fn.ArgType) {
			e.invalid(t.Args.Span(), "%s() requires %s, not %s", t.name, describe(fn.ArgType), describe(t.Args.EvalType))
		}
		return fn.Returns, true
	}
	return EvalError, false
}

func (e *Expression) tokenSpan() source.Span {
	if len(e.Combined) == 0 {
		return e.Span()
	}
	return source.Span{Start: e.Combined[0].Span().Start, End: e.Combined[len(e.Combined)-1].Span().End}
}

// String renders the expression for debugging.
func (e *Expression) String() string {
	return fmt.Sprintf("%q:%s", e.Text, e.EvalType)
}
