package parser

import (
	"strings"

	"github.com/sgranade/choicescript-vscode-sub001/runtime/expr"
)

// parseIf handles an *if and the *elseif/*elsif/*else chain after it. Each
// branch owns the lines indented deeper than it; the chain continues while
// the next line at the same indent is another branch, and ends at *else.
func (p *parser) parseIf(cmd command, i, to int) int {
	indent := p.lines[i].indent()
	for {
		p.condition(cmd)

		end := p.blockEnd(i, to, indent)
		p.enter(blockIf, i)
		p.parseLines(i+1, end)
		p.exit(blockIf, end)

		if cmd.name == "else" || end >= to || p.lines[end].indent() != indent {
			return end
		}
		next, ok := p.command(end)
		if !ok || (next.name != "elseif" && next.name != "elsif" && next.name != "else") {
			return end
		}
		p.commandCount++
		p.emit()
		p.cb.OnCommand(next.name, p.loc(next.span))
		cmd, i = next, end
	}
}

// condition checks the test of an *if-style command.
func (p *parser) condition(cmd command) *expr.Expression {
	if cmd.name == "else" {
		if cmd.args != "" {
			p.errorf(cmd.argsSpan(), "*else doesn't take a condition")
		}
		return nil
	}
	if cmd.args == "" {
		p.errorf(cmd.span, "*%s is missing its condition", cmd.name)
		return nil
	}
	e := p.expression(cmd.args, cmd.argsStart, false)
	p.requireBoolean(e, cmd.name)
	return e
}

func (p *parser) requireBoolean(e *expr.Expression, what string) {
	switch e.EvalType {
	case expr.EvalBoolean, expr.EvalEmpty, expr.EvalUnknowable, expr.EvalError:
		return
	}
	p.errorf(e.Span(), "*%s's condition must be true or false, not a %s", what, strings.ToLower(e.EvalType.String()))
}
