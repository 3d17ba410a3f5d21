package parser

import (
	"strings"

	"github.com/sgranade/choicescript-vscode-sub001/core/source"
)

// parseStatChart handles a *stat_chart and its indented entries:
//
//	*stat_chart
//	  text name Name
//	  percent strength Strength
//	  opposed_pair courage
//	    Brave
//	    Cowardly
func (p *parser) parseStatChart(cmd command, i, to int) int {
	end := p.blockEnd(i, to, p.lines[i].indent())
	if cmd.args != "" {
		p.errorf(cmd.argsSpan(), "*stat_chart doesn't take any arguments")
	}
	first := p.nextContentLine(i+1, end)
	if first >= end {
		p.errorf(cmd.span, "*stat_chart must have at least one stat")
		return end
	}

	p.enter(blockStats, i)
	defer p.exit(blockStats, end)

	base := p.lines[first].indent()
	j := first
	for j < end {
		j = p.nextContentLine(j, end)
		if j >= end {
			break
		}
		ln := p.lines[j]
		entryEnd := p.blockEnd(j, end, ln.indent())
		if ln.indent() != base {
			p.errorf(source.Span{Start: ln.start, End: ln.content}, "*stat_chart entries must all have the same indentation")
			j = entryEnd
			continue
		}
		p.statChartEntry(j, entryEnd)
		j = entryEnd
	}
	return end
}

// statChartEntry parses one entry at line j; its label lines, if any, run
// up to entryEnd.
func (p *parser) statChartEntry(j, entryEnd int) {
	ln := p.lines[j]
	kindEnd := ln.content
	for kindEnd < ln.end && p.text[kindEnd] != ' ' && p.text[kindEnd] != '\t' {
		kindEnd++
	}
	kind := strings.ToLower(p.text[ln.content:kindEnd])
	kindSpan := source.Span{Start: ln.content, End: kindEnd}

	switch kind {
	case "text", "percent", "opposed_pair":
	default:
		p.errorf(kindSpan, "Must be one of text, percent, or opposed_pair")
		return
	}

	start, stop := p.nextToken(kindEnd, ln.end)
	if start < 0 {
		p.errorf(kindSpan, "%s is missing its variable", kind)
		return
	}
	if !p.variableToken(start, stop) {
		p.errorf(source.Span{Start: start, End: stop}, "%q isn't a valid variable name", p.text[start:stop])
	}
	labelStart := skipSpace(p.text, stop, ln.end)
	if labelStart < ln.end {
		p.scanText(labelStart, ln.end, textOptions{})
	}

	var labels []int
	for k := j + 1; k < entryEnd; k++ {
		if !p.lines[k].blank {
			labels = append(labels, k)
		}
	}
	if kind != "opposed_pair" {
		if len(labels) > 0 {
			l := p.lines[labels[0]]
			p.errorf(source.Span{Start: l.content, End: l.end}, "Only opposed_pair entries can have indented labels")
		}
		return
	}
	switch {
	case len(labels) == 2:
		for _, k := range labels {
			p.scanText(p.lines[k].content, p.lines[k].end, textOptions{})
		}
	case len(labels) == 0 && labelStart < ln.end:
		// The label on the entry line names the left stat.
	default:
		p.errorf(kindSpan, "opposed_pair must be followed by two indented labels")
	}
}
