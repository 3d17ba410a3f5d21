package parser

import (
	"strings"

	"github.com/sgranade/choicescript-vscode-sub001/core/lang"
	"github.com/sgranade/choicescript-vscode-sub001/core/source"
	"github.com/sgranade/choicescript-vscode-sub001/runtime/expr"
)

// declaredName reads and checks the variable name a *create or *temp
// declares. ok is false when there is nothing usable to declare.
func (p *parser) declaredName(cmd command) (name string, span source.Span, ok bool) {
	end := cmd.argsStart + len(cmd.args)
	start, stop := p.nextToken(cmd.argsStart, end)
	if start < 0 {
		p.errorf(cmd.span, "*%s is missing its variable name", cmd.name)
		return "", source.Span{}, false
	}
	name = p.text[start:stop]
	span = source.Span{Start: start, End: stop}
	switch {
	case !isValidName(name):
		p.errorf(span, "%q isn't a valid variable name", name)
		return "", span, false
	case expr.IsKeyword(name):
		p.errorf(span, "%q is a reserved word and can't be a variable name", name)
		return "", span, false
	case strings.HasPrefix(strings.ToLower(name), "choice_"):
		p.errorf(span, "Variable names can't start with \"choice_\"")
		return "", span, false
	}
	return name, span, true
}

func (p *parser) parseCreate(cmd command) {
	if p.state.hasTemp {
		p.errorf(cmd.span, "*create must come before any *temp")
	}
	name, span, ok := p.declaredName(cmd)
	if !ok {
		return
	}
	p.emit()
	p.cb.OnGlobalVariableCreate(name, p.loc(span))

	end := cmd.argsStart + len(cmd.args)
	valueStart := skipSpace(p.text, span.End, end)
	if valueStart >= end {
		p.errorf(span, "*create is missing its initial value")
		return
	}
	value := p.expression(p.text[valueStart:end], valueStart, false)
	if len(value.Combined) != 1 || !value.EvalType.IsConcrete() || value.Combined[0].Kind() == expr.KindParentheses ||
		value.Combined[0].Kind() == expr.KindFunctionCall {
		p.errorf(value.Span(), "*create's initial value must be a number, string, or true/false")
	}
}

func (p *parser) parseTemp(cmd command) {
	name, span, ok := p.declaredName(cmd)
	if !ok {
		return
	}
	p.state.hasTemp = true
	p.emit()
	p.cb.OnLocalVariableCreate(name, p.loc(span))

	end := cmd.argsStart + len(cmd.args)
	valueStart := skipSpace(p.text, span.End, end)
	if valueStart < end {
		p.expression(p.text[valueStart:end], valueStart, false)
	}
}

func (p *parser) parseLabel(cmd command) {
	end := cmd.argsStart + len(cmd.args)
	start, stop := p.nextToken(cmd.argsStart, end)
	if start < 0 {
		p.errorf(cmd.span, "*label is missing its name")
		return
	}
	name := p.text[start:stop]
	span := source.Span{Start: start, End: stop}
	if p.state.labels[name] {
		p.errorf(span, "Label %q was already defined", name)
	}
	p.state.labels[name] = true
	p.emit()
	p.cb.OnLabelCreate(name, p.loc(span))

	if rest := skipSpace(p.text, stop, end); rest < end {
		p.warnf(source.Span{Start: rest, End: end}, "Label names can't contain spaces; this text is ignored")
	}
}

// parseParams declares each named parameter as a local variable. With no
// names, the parameters are only reachable as param_1, param_2 and so on.
func (p *parser) parseParams(cmd command) {
	p.state.hasTemp = true
	end := cmd.argsStart + len(cmd.args)
	pos := cmd.argsStart
	for {
		start, stop := p.nextToken(pos, end)
		if start < 0 {
			return
		}
		pos = stop
		name := p.text[start:stop]
		span := source.Span{Start: start, End: stop}
		if !isValidName(name) || expr.IsKeyword(name) {
			p.errorf(span, "%q isn't a valid parameter name", name)
			continue
		}
		p.emit()
		p.cb.OnLocalVariableCreate(name, p.loc(span))
	}
}

// variableToken reports the variable an argument token names, written bare
// or as a {reference}. It returns false when the token is neither.
func (p *parser) variableToken(start, stop int) bool {
	text := p.text[start:stop]
	if strings.HasPrefix(text, "{") {
		p.expression(text, start, false)
		return true
	}
	if !isValidName(text) {
		return false
	}
	p.reference(text, source.Span{Start: start, End: stop})
	return true
}

// parseVariableArgument handles commands whose only argument is a variable.
func (p *parser) parseVariableArgument(cmd command) {
	end := cmd.argsStart + len(cmd.args)
	start, stop := p.nextToken(cmd.argsStart, end)
	if start < 0 {
		p.errorf(cmd.span, "*%s is missing its variable", cmd.name)
		return
	}
	if !p.variableToken(start, stop) {
		p.errorf(source.Span{Start: start, End: stop}, "%q isn't a valid variable name", p.text[start:stop])
	}
	if rest := skipSpace(p.text, stop, end); rest < end && cmd.name == "delete" {
		p.errorf(source.Span{Start: rest, End: end}, "*delete takes only one variable")
	}
}

// parseRangedVariable handles "*rand var min max" and
// "*input_number var min max".
func (p *parser) parseRangedVariable(cmd command) {
	end := cmd.argsStart + len(cmd.args)
	start, stop := p.nextToken(cmd.argsStart, end)
	if start < 0 {
		p.errorf(cmd.span, "*%s is missing its variable", cmd.name)
		return
	}
	if !p.variableToken(start, stop) {
		p.errorf(source.Span{Start: start, End: stop}, "%q isn't a valid variable name", p.text[start:stop])
	}

	pos := stop
	for _, which := range []string{"minimum", "maximum"} {
		s, e := p.nextToken(pos, end)
		if s < 0 {
			p.errorf(source.Span{Start: end, End: end}, "*%s is missing its %s value", cmd.name, which)
			return
		}
		pos = e
		bound := p.expression(p.text[s:e], s, false)
		if bound.EvalType != expr.EvalNumber && bound.EvalType != expr.EvalUnknowable && bound.EvalType != expr.EvalError {
			p.errorf(bound.Span(), "The %s value must be a number", which)
		}
	}
	if rest := skipSpace(p.text, pos, end); rest < end {
		p.errorf(source.Span{Start: rest, End: end}, "Too many arguments to *%s", cmd.name)
	}
}

// parseSet handles "*set target value". The target must be a variable or a
// {reference}; the value is checked as an assignment expression, so bare
// changes like "+2" are allowed.
func (p *parser) parseSet(cmd command) {
	if cmd.args == "" {
		p.errorf(cmd.span, "*set is missing its variable")
		return
	}
	whole := expr.New(cmd.args, cmd.argsStart, false)
	if len(whole.Combined) == 0 {
		p.errorf(cmd.span, "*set is missing its variable")
		return
	}

	target := whole.Combined[0]
	switch t := target.(type) {
	case *expr.Variable:
		if lang.IsBuiltinVariable(t.Name()) && !strings.EqualFold(t.Name(), "implicit_control_flow") {
			p.warnf(t.Span(), "%q is set by the interpreter", t.Name())
		}
		p.reference(t.Name(), t.Span())
	case *expr.Group:
		if t.Kind() != expr.KindVariableReference {
			p.errorf(t.Span(), "%q isn't a variable that can be set", t.Text())
			return
		}
		if t.Inner == nil {
			p.errorf(source.Span{Start: t.Span().Start, End: t.Span().Start + 1}, "Missing close curly bracket")
			return
		}
		p.expressionDetails(t.Inner)
	default:
		p.errorf(target.Span(), "%q isn't a variable that can be set", target.Text())
		return
	}

	if len(whole.Combined) == 1 {
		p.errorf(target.Span(), "*set is missing the value to set %s to", target.Text())
		return
	}
	valueStart := whole.Combined[1].Span().Start
	p.expression(p.text[valueStart:cmd.argsStart+len(cmd.args)], valueStart, true)
}

func (p *parser) parseAchieve(cmd command) {
	end := cmd.argsStart + len(cmd.args)
	start, stop := p.nextToken(cmd.argsStart, end)
	if start < 0 {
		p.errorf(cmd.span, "*achieve is missing its achievement")
		return
	}
	p.emit()
	p.cb.OnAchievementReference(p.text[start:stop], p.loc(source.Span{Start: start, End: stop}))
}

func (p *parser) parseImage(cmd command) {
	end := cmd.argsStart + len(cmd.args)
	start, stop := p.nextToken(cmd.argsStart, end)
	if start < 0 {
		p.errorf(cmd.span, "*%s is missing its image file", cmd.name)
		return
	}
	p.emit()
	p.cb.OnImageReference(p.text[start:stop], p.loc(source.Span{Start: start, End: stop}))

	// An alignment may follow, then alt text.
	if s, e := p.nextToken(stop, end); s >= 0 && cmd.name == "image" {
		switch strings.ToLower(p.text[s:e]) {
		case "left", "right", "center", "none":
		default:
			p.errorf(source.Span{Start: s, End: e}, "Image alignment must be left, right, center, or none")
		}
	}
}
