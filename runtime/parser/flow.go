package parser

import (
	"strings"

	"github.com/sgranade/choicescript-vscode-sub001/core/source"
	"github.com/sgranade/choicescript-vscode-sub001/runtime/expr"
)

// parseFlowControl handles *goto, *gosub, *goto_scene, *gosub_scene and
// *return.
//
//	*goto label
//	*gosub label [param...]
//	*goto_scene scene [label]
//	*gosub_scene scene [label] [param...]
func (p *parser) parseFlowControl(cmd command) {
	ev := FlowControlEvent{Command: cmd.name, CommandLocation: p.loc(cmd.span)}
	end := cmd.argsStart + len(cmd.args)
	pos := cmd.argsStart

	if cmd.name == "return" {
		if cmd.args != "" {
			p.errorf(cmd.argsSpan(), "*return doesn't take any arguments")
		}
		p.flowControlEvent(ev)
		return
	}

	toScene := strings.HasSuffix(cmd.name, "_scene")
	if toScene {
		start, stop := p.nextToken(pos, end)
		if start < 0 {
			p.errorf(cmd.span, "*%s is missing its scene", cmd.name)
			p.flowControlEvent(ev)
			return
		}
		pos = stop
		ev.Scene, ev.SceneLocation, ev.SceneIsReference = p.flowTarget(start, stop)
	}

	start, stop := p.nextToken(pos, end)
	switch {
	case start >= 0:
		pos = stop
		ev.Label, ev.LabelLocation, ev.LabelIsReference = p.flowTarget(start, stop)
	case !toScene:
		p.errorf(cmd.span, "*%s is missing its label", cmd.name)
	}

	if rest := skipSpace(p.text, pos, end); rest < end {
		if strings.HasPrefix(cmd.name, "gosub") {
			ev.ParamCount = p.gosubParams(rest, end)
		} else {
			p.errorf(source.Span{Start: rest, End: end}, "*%s takes no arguments after the label", cmd.name)
		}
	}
	p.flowControlEvent(ev)
}

// flowTarget reads a label or scene token, which is either literal text or
// a {reference} whose contents are an expression.
func (p *parser) flowTarget(start, stop int) (string, source.Location, bool) {
	text := p.text[start:stop]
	loc := p.loc(source.Span{Start: start, End: stop})
	if !strings.HasPrefix(text, "{") {
		return text, loc, false
	}
	p.expression(text, start, false)
	return text, loc, true
}

// gosubParams checks each parameter passed by a gosub as an independent
// expression and returns how many there are.
func (p *parser) gosubParams(start, end int) int {
	params := expr.New(p.text[start:end], start, false)
	for i := range params.Combined {
		p.expressionDetails(params.Slice(i, i+1))
	}
	return len(params.Combined)
}

func (p *parser) flowControlEvent(ev FlowControlEvent) {
	p.emit()
	p.cb.OnFlowControlEvent(ev)
}
