package parser

import (
	"strings"

	"github.com/sgranade/choicescript-vscode-sub001/core/lang"
	"github.com/sgranade/choicescript-vscode-sub001/core/source"
)

// choiceBlock is the state of one *choice or *fake_choice while its options
// are read.
type choiceBlock struct {
	cmd    command
	fake   bool
	groups []string
	// scopes are the option spans in document order.
	scopes []source.Span
}

// optionSignature identifies an option when comparing the sub-options that
// every member of a parent group must repeat.
type optionSignature struct {
	condition string
	text      string
	span      source.Span
}

// bareIf is an *if, *elseif or *else line wrapping the options indented
// beneath it.
type bareIf struct {
	indent      int
	childIndent int // -1 until the first line under the *if is seen
	condition   string
}

// parseChoice handles *choice and *fake_choice. Group names split the
// options into tiers: each option of one tier holds the next tier's options,
// which must be the same under every option of the parent tier.
//
//	*choice color size
//	  #Red
//	    #Small
//	      ...
//	    #Large
//	      ...
//	  #Blue
//	    #Small
//	      ...
//	    #Large
//	      ...
func (p *parser) parseChoice(cmd command, i, to int) int {
	cmdIndent := p.lines[i].indent()
	end := p.blockEnd(i, to, cmdIndent)
	c := &choiceBlock{cmd: cmd, fake: cmd.name == "fake_choice"}

	argsEnd := cmd.argsStart + len(cmd.args)
	for pos := cmd.argsStart; ; {
		start, stop := p.nextToken(pos, argsEnd)
		if start < 0 {
			break
		}
		pos = stop
		name := p.text[start:stop]
		if !isValidName(name) {
			p.errorf(source.Span{Start: start, End: stop}, "Choice group names can only contain letters, numbers, or _")
			continue
		}
		c.groups = append(c.groups, name)
	}

	if !p.consistentIndentation(i+1, end) {
		return end
	}
	first := p.nextContentLine(i+1, end)
	if first >= end {
		p.errorf(cmd.span, "*%s has no options", cmd.name)
		return end
	}

	p.enter(blockChoice, i)
	next, _ := p.parseTier(c, first, end, 0)
	p.exit(blockChoice, next)

	if next < end {
		ln := p.lines[next]
		p.errorf(source.Span{Start: ln.start, End: ln.content}, "This line is indented less than the choice's options")
		p.parseLines(next, end)
	}

	blockEnd := p.lines[p.lastContentLine(i, end)].end
	p.emit()
	p.cb.OnChoiceScope(p.loc(source.Span{Start: cmd.span.Start - 1, End: blockEnd}))
	for _, span := range c.scopes {
		p.emit()
		p.cb.OnChoiceScope(p.loc(span))
	}
	return end
}

// consistentIndentation reports whether lines [from, to) are all indented
// with the same character, flagging the first line that isn't.
func (p *parser) consistentIndentation(from, to int) bool {
	var want byte
	for j := from; j < to; j++ {
		ln := p.lines[j]
		if ln.blank || ln.indent() == 0 {
			continue
		}
		indent := p.text[ln.start:ln.content]
		span := source.Span{Start: ln.start, End: ln.content}
		if strings.Contains(indent, " ") && strings.Contains(indent, "\t") {
			p.errorf(span, "Tabs and spaces can't be mixed in a choice's indentation")
			return false
		}
		if want == 0 {
			want = indent[0]
		} else if indent[0] != want {
			p.errorf(span, "Tabs and spaces can't be mixed in a choice's indentation")
			return false
		}
	}
	return true
}

// parseTier reads the options of one group tier starting at line from. It
// returns the first line it did not consume and the tier's options.
func (p *parser) parseTier(c *choiceBlock, from, to, depth int) (int, []optionSignature) {
	base := p.lines[from].indent()
	var (
		sigs      []optionSignature
		reference []optionSignature // sub-options of the tier's first option
		ifs       []bareIf
	)

	i := from
	for {
		i = p.nextContentLine(i, to)
		if i >= to {
			break
		}
		ln := p.lines[i]
		indent := ln.indent()
		if indent < base {
			break
		}
		for len(ifs) > 0 && ifs[len(ifs)-1].indent >= indent {
			ifs = ifs[:len(ifs)-1]
		}

		want := base
		if len(ifs) > 0 {
			top := &ifs[len(ifs)-1]
			if top.childIndent < 0 {
				top.childIndent = indent
			}
			want = top.childIndent
		}
		if indent != want {
			p.errorf(source.Span{Start: ln.start, End: ln.content}, "This line is indented inconsistently with the options around it")
			i = p.blockEnd(i, to, indent)
			continue
		}

		if cmd, ok := p.command(i); ok && !p.isOptionLine(i) {
			switch cmd.name {
			case "if", "elseif", "elsif", "else":
				p.reportCommand(cmd)
				var cond string
				if e := p.condition(cmd); e != nil {
					cond = strings.TrimSpace(e.Text)
				} else {
					cond = cmd.name
				}
				next := p.nextContentLine(i+1, to)
				if next >= to || p.lines[next].indent() <= indent {
					p.errorf(cmd.span, "*%s must be followed by an indented #option", cmd.name)
				}
				ifs = append(ifs, bareIf{indent: indent, childIndent: -1, condition: cond})
				i++
				continue
			case "comment":
				p.reportCommand(cmd)
				i++
				continue
			}
		}

		sig, ok := p.optionLine(i)
		if !ok {
			p.errorf(source.Span{Start: ln.content, End: ln.end}, "Must be either an #option or an *if")
			i = p.blockEnd(i, to, indent)
			continue
		}
		var conds []string
		for _, b := range ifs {
			conds = append(conds, b.condition)
		}
		if sig.condition != "" {
			conds = append(conds, sig.condition)
		}
		sig.condition = strings.Join(conds, " & ")

		bodyEnd := p.blockEnd(i, to, indent)
		scope := len(c.scopes)
		c.scopes = append(c.scopes, source.Span{Start: ln.content})

		if depth < len(c.groups)-1 {
			switch subs := p.parseSubTier(c, i, bodyEnd, depth); {
			case subs == nil:
			case reference == nil:
				reference = subs
			default:
				p.compareGroups(c, depth, sig.span, reference, subs)
			}
		} else if p.nextContentLine(i+1, bodyEnd) >= bodyEnd {
			if !c.fake {
				p.errorf(sig.span, "An option in a *choice must have contents")
			}
		} else {
			p.enter(blockOption, i)
			p.parseLines(i+1, bodyEnd)
			p.exit(blockOption, bodyEnd)
		}

		c.scopes[scope].End = p.lines[p.lastContentLine(i, bodyEnd)].end
		sigs = append(sigs, sig)
		i = bodyEnd
	}
	return i, sigs
}

// parseSubTier reads the options nested under the option at line i. It
// returns nil if there are none.
func (p *parser) parseSubTier(c *choiceBlock, i, bodyEnd, depth int) []optionSignature {
	first := p.nextContentLine(i+1, bodyEnd)
	if first >= bodyEnd {
		ln := p.lines[i]
		p.errorf(source.Span{Start: ln.content, End: ln.end}, "Missing options for group %q", c.groups[depth+1])
		return nil
	}
	next, subs := p.parseTier(c, first, bodyEnd, depth+1)
	if next < bodyEnd {
		ln := p.lines[next]
		p.errorf(source.Span{Start: ln.start, End: ln.content}, "This line is indented less than the options in group %q", c.groups[depth+1])
	}
	if subs == nil {
		subs = []optionSignature{}
	}
	return subs
}

// compareGroups checks that an option's sub-options repeat the ones under
// the first option of its tier.
func (p *parser) compareGroups(c *choiceBlock, depth int, at source.Span, want, got []optionSignature) {
	group := c.groups[depth+1]
	if len(got) != len(want) {
		p.errorf(at, "Group %q should have %d options, the same as under the first option, but has %d", group, len(want), len(got))
		return
	}
	for k := range want {
		switch {
		case got[k].condition != want[k].condition:
			p.errorf(got[k].span, "Option %d of group %q must have the same *if conditions as under the first option", k+1, group)
			return
		case got[k].text != want[k].text:
			p.errorf(got[k].span, "Option %d of group %q must be %q, the same as under the first option", k+1, group, want[k].text)
			return
		}
	}
}

// isOptionLine reports whether line i holds an #option, possibly after an
// inline *if, *selectable_if or reuse modifier.
func (p *parser) isOptionLine(i int) bool {
	ln := p.lines[i]
	if p.text[ln.content] == '#' {
		return true
	}
	cmd, ok := p.command(i)
	if !ok {
		return false
	}
	switch cmd.name {
	case "if", "elseif", "elsif", "else":
		return p.optionHash(cmd.argsStart, ln.end) >= 0
	case "selectable_if":
		return true
	}
	return lang.OptionModifiers[cmd.name]
}

// optionLine parses an #option line and the commands that may precede the
// # on it. It returns false if the line isn't an option.
func (p *parser) optionLine(i int) (optionSignature, bool) {
	ln := p.lines[i]
	pos := ln.content
	sig := optionSignature{span: source.Span{Start: ln.content, End: ln.end}}

	for pos < ln.end && p.text[pos] == '*' {
		cmd, ok := p.commandAt(pos, ln.end, i)
		if !ok {
			return sig, false
		}
		switch {
		case cmd.name == "if" || cmd.name == "selectable_if":
			p.reportCommand(cmd)
			hash := p.optionHash(cmd.argsStart, ln.end)
			if hash < 0 {
				p.errorf(cmd.span, "*%s on an option line must be followed by an #option", cmd.name)
				return sig, true
			}
			condText := strings.TrimRight(p.text[cmd.argsStart:hash], " \t")
			if condText == "" {
				p.errorf(cmd.span, "*%s is missing its condition", cmd.name)
			} else {
				e := p.expression(condText, cmd.argsStart, false)
				p.requireBoolean(e, cmd.name)
				if !e.IsParenthesized() {
					p.warnf(e.Span(), "Arguments to *%s before an #option must be in parentheses", cmd.name)
				}
				if cmd.name == "if" {
					sig.condition = strings.TrimSpace(condText)
				}
			}
			pos = hash
		case lang.OptionModifiers[cmd.name]:
			p.reportCommand(cmd)
			pos = cmd.argsStart
		default:
			if p.optionHash(cmd.argsStart, ln.end) < 0 {
				return sig, false
			}
			p.reportCommand(cmd)
			p.errorf(cmd.span, "*%s can't be used on an #option line", cmd.name)
			return sig, true
		}
	}

	if pos >= ln.end || p.text[pos] != '#' {
		return sig, false
	}
	textStart := skipSpace(p.text, pos+1, ln.end)
	sig.text = strings.TrimSpace(p.text[pos+1 : ln.end])
	sig.span = source.Span{Start: pos, End: ln.end}
	if sig.text == "" {
		p.errorf(sig.span, "Option is missing its text")
		return sig, true
	}
	p.scanText(textStart, ln.end, textOptions{})
	return sig, true
}

// optionHash finds the # that starts an option after an inline condition,
// ignoring any inside parentheses, braces, or strings. It returns -1 if
// there is none.
func (p *parser) optionHash(pos, end int) int {
	depth := 0
	for j := pos; j < end; j++ {
		switch p.text[j] {
		case '"':
			j = p.stringEnd(j, end)
		case '(', '{':
			depth++
		case ')', '}':
			if depth > 0 {
				depth--
			}
		case '#':
			if depth == 0 {
				return j
			}
		}
	}
	return -1
}

func (p *parser) reportCommand(cmd command) {
	p.commandCount++
	p.emit()
	p.cb.OnCommand(cmd.name, p.loc(cmd.span))
}
