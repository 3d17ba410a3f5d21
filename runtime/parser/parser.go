// Package parser scans ChoiceScript documents. It builds no syntax tree:
// each recognized construct is reported through Callbacks as it is found,
// and malformed source is reported as diagnostics rather than errors.
package parser

import (
	"fmt"
	"strings"
	"time"

	"github.com/sgranade/choicescript-vscode-sub001/core/diag"
	"github.com/sgranade/choicescript-vscode-sub001/core/invariant"
	"github.com/sgranade/choicescript-vscode-sub001/core/lang"
	"github.com/sgranade/choicescript-vscode-sub001/core/source"
	"github.com/sgranade/choicescript-vscode-sub001/runtime/expr"
)

// Result holds what a parse produces besides its callbacks.
type Result struct {
	Telemetry   *Telemetry   // nil unless telemetry is enabled
	DebugEvents []DebugEvent // nil unless debug tracing is enabled
}

// Parse scans doc from top to bottom, recursing into indented blocks, and
// reports every construct to cb. It never fails on malformed input.
func Parse(doc source.Document, cb Callbacks, opts ...Option) *Result {
	invariant.NotNil(doc, "doc")
	invariant.NotNil(cb, "callbacks")

	config := newConfig(opts)

	var startTotal time.Time
	if config.telemetry >= TelemetryTiming {
		startTotal = time.Now()
	}

	p := newParser(doc, cb, config)
	p.parseLines(0, len(p.lines))

	result := &Result{DebugEvents: p.debugEvents}
	if config.telemetry >= TelemetryBasic {
		result.Telemetry = &Telemetry{
			LineCount:    len(p.lines),
			CommandCount: p.commandCount,
			EventCount:   p.eventCount,
			ErrorCount:   p.errorCount,
		}
		if config.telemetry >= TelemetryTiming {
			result.Telemetry.ParseTime = time.Since(startTotal)
		}
	}

	config.logger.Debug("parsed document",
		"uri", doc.URI(),
		"lines", len(p.lines),
		"commands", p.commandCount,
		"errors", p.errorCount)

	return result
}

// line is one physical line of the document. Offsets are absolute.
type line struct {
	start   int // first character
	content int // first character after the indentation
	end     int // just past the last character, excluding the line break
	blank   bool
}

func (l line) indent() int { return l.content - l.start }

// parser is the internal parser state
type parser struct {
	doc     source.Document
	text    string
	lines   []line
	cb      Callbacks
	config  *Config
	state   *ParsingState
	startup bool

	commandCount int
	eventCount   int
	errorCount   int
	debugEvents  []DebugEvent
}

func newParser(doc source.Document, cb Callbacks, config *Config) *parser {
	p := &parser{
		doc:    doc,
		text:   doc.Text(),
		cb:     cb,
		config: config,
		state:  newParsingState(),
	}
	if config.startup != nil {
		p.startup = *config.startup
	} else {
		p.startup = strings.EqualFold(source.SceneName(doc.URI()), "startup")
	}
	if config.debug > DebugOff {
		p.debugEvents = make([]DebugEvent, 0, 32)
	}
	p.lines = splitLines(p.text)
	return p
}

func splitLines(text string) []line {
	var lines []line
	start := 0
	for start <= len(text) {
		end := strings.IndexByte(text[start:], '\n')
		next := 0
		if end < 0 {
			end = len(text)
			next = len(text) + 1
		} else {
			end += start
			next = end + 1
		}
		l := line{start: start, end: end}
		if l.end > l.start && text[l.end-1] == '\r' {
			l.end--
		}
		l.content = l.start
		for l.content < l.end && (text[l.content] == ' ' || text[l.content] == '\t') {
			l.content++
		}
		l.blank = strings.TrimSpace(text[l.content:l.end]) == ""
		lines = append(lines, l)
		start = next
	}
	return lines
}

// recordDebugEvent records debug events when debug tracing is enabled
func (p *parser) recordDebugEvent(event string, lineIndex int) {
	if p.config.debug == DebugOff || p.debugEvents == nil {
		return
	}
	p.debugEvents = append(p.debugEvents, DebugEvent{
		Timestamp: time.Now(),
		Event:     event,
		Line:      lineIndex,
		Context:   p.state.String(),
	})
}

func (p *parser) enter(kind string, lineIndex int) {
	p.recordDebugEvent("enter_"+kind, lineIndex)
	p.state.push(kind)
}

func (p *parser) exit(kind string, lineIndex int) {
	p.state.pop()
	if p.config.debug >= DebugDetailed {
		p.recordDebugEvent("exit_"+kind, lineIndex)
	}
}

// parseLines parses lines [from, to).
func (p *parser) parseLines(from, to int) {
	i := from
	for i < to {
		next := p.parseLine(i, to)
		invariant.Invariant(next > i, "parser must advance past line %d", i)
		i = next
	}
}

// parseLine parses the line at i and returns the index of the next line to
// parse, past any block the line owns.
func (p *parser) parseLine(i, to int) int {
	ln := p.lines[i]
	if ln.blank {
		return i + 1
	}
	if cmd, ok := p.command(i); ok {
		return p.parseCommand(cmd, i, to)
	}
	p.scanText(ln.content, ln.end, textOptions{})
	return i + 1
}

// command is a *word at the start of a line.
type command struct {
	name      string
	span      source.Span // the name, without its *
	line      int
	args      string
	argsStart int
}

func (c command) argsSpan() source.Span {
	return source.Span{Start: c.argsStart, End: c.argsStart + len(c.args)}
}

// command reads the *command at the start of line i, if there is one.
func (p *parser) command(i int) (command, bool) {
	ln := p.lines[i]
	return p.commandAt(ln.content, ln.end, i)
}

func (p *parser) commandAt(pos, end, lineIndex int) (command, bool) {
	if pos >= end || p.text[pos] != '*' {
		return command{}, false
	}
	nameEnd := pos + 1
	for nameEnd < end && isWordByte(p.text[nameEnd]) {
		nameEnd++
	}
	if nameEnd == pos+1 {
		return command{}, false
	}
	argsStart := skipSpace(p.text, nameEnd, end)
	return command{
		name:      strings.ToLower(p.text[pos+1 : nameEnd]),
		span:      source.Span{Start: pos + 1, End: nameEnd},
		line:      lineIndex,
		args:      strings.TrimRight(p.text[argsStart:end], " \t"),
		argsStart: argsStart,
	}, true
}

func (p *parser) parseCommand(cmd command, i, to int) int {
	p.commandCount++
	p.emit()
	p.cb.OnCommand(cmd.name, p.loc(cmd.span))

	if isError, ok := lang.StartupOnlyCommands[cmd.name]; ok && !p.startup {
		if isError {
			p.errorf(cmd.span, "*%s can only be used in startup.txt", cmd.name)
		} else {
			p.warnf(cmd.span, "*%s can only be used in startup.txt", cmd.name)
		}
	}

	switch cmd.name {
	case "if":
		return p.parseIf(cmd, i, to)
	case "elseif", "elsif", "else":
		p.errorf(cmd.span, "*%s must follow an *if", cmd.name)
	case "choice", "fake_choice":
		return p.parseChoice(cmd, i, to)
	case "stat_chart":
		return p.parseStatChart(cmd, i, to)
	case "achievement":
		return p.parseAchievement(cmd, i, to)
	case "scene_list":
		return p.parseSceneList(cmd, i, to)
	case "comment":
	case "create":
		p.parseCreate(cmd)
	case "temp":
		p.parseTemp(cmd)
	case "label":
		p.parseLabel(cmd)
	case "params":
		p.parseParams(cmd)
	case "delete", "input_text":
		p.parseVariableArgument(cmd)
	case "rand", "input_number":
		p.parseRangedVariable(cmd)
	case "set":
		p.parseSet(cmd)
	case "goto", "gosub", "goto_scene", "gosub_scene", "return":
		p.parseFlowControl(cmd)
	case "achieve":
		p.parseAchieve(cmd)
	case "image", "text_image", "kindle_image":
		p.parseImage(cmd)
	case "print":
		if cmd.args == "" {
			p.errorf(cmd.span, "*print is missing its expression")
		} else {
			p.expression(cmd.args, cmd.argsStart, false)
		}
	case "selectable_if", "hide_reuse", "disable_reuse", "allow_reuse":
		p.errorf(cmd.span, "*%s must be on an #option line inside a *choice", cmd.name)
	default:
		if !lang.IsCommand(cmd.name) {
			msg := fmt.Sprintf("Unknown command *%s", cmd.name)
			if s := lang.SuggestCommand(cmd.name); s != "" {
				msg += fmt.Sprintf(" - did you mean *%s?", s)
			}
			p.errorf(cmd.span, "%s", msg)
		} else if cmd.args != "" {
			p.scanText(cmd.argsStart, cmd.argsStart+len(cmd.args), textOptions{})
		}
	}
	return i + 1
}

// blockEnd returns the index of the first non-blank line after i indented
// no deeper than indent, or to.
func (p *parser) blockEnd(i, to, indent int) int {
	j := i + 1
	for j < to {
		if !p.lines[j].blank && p.lines[j].indent() <= indent {
			break
		}
		j++
	}
	return j
}

// lastContentLine returns the last non-blank line in [from, to), or from-1.
func (p *parser) lastContentLine(from, to int) int {
	for j := to - 1; j >= from; j-- {
		if !p.lines[j].blank {
			return j
		}
	}
	return from - 1
}

// nextContentLine returns the first non-blank line at or after i, or to.
func (p *parser) nextContentLine(i, to int) int {
	for i < to && p.lines[i].blank {
		i++
	}
	return i
}

// expression parses text as an expression, reporting its issues and
// variable references and scanning its strings for replacements.
func (p *parser) expression(text string, offset int, isAssignment bool) *expr.Expression {
	e := expr.New(text, offset, isAssignment)
	p.expressionDetails(e)
	return e
}

// expressionDetails reports e's issues and variable references. Text inside
// strings is left to scanText, which also handles multireplace,
// so issues from a string's own replacement expressions are not repeated.
func (p *parser) expressionDetails(e *expr.Expression) {
	var strs []source.Span
	e.Walk(func(tok expr.Token) bool {
		if t, ok := tok.(*expr.Literal); ok && t.Kind() == expr.KindString {
			strs = append(strs, t.ContentsSpan())
			return false
		}
		return true
	})
	for _, is := range e.Issues() {
		if !insideAny(is.Span, strs) {
			p.issue(is)
		}
	}
	e.Walk(func(tok expr.Token) bool {
		switch t := tok.(type) {
		case *expr.Variable:
			p.reference(t.Name(), t.Span())
		case *expr.Literal:
			if t.Kind() == expr.KindString {
				cs := t.ContentsSpan()
				p.scanText(cs.Start, cs.End, textOptions{inString: true})
				return false
			}
		}
		return true
	})
}

func insideAny(span source.Span, outer []source.Span) bool {
	for _, o := range outer {
		if span.Start >= o.Start && span.End <= o.End {
			return true
		}
	}
	return false
}

// nextToken returns the bounds of the next whitespace-delimited token in
// [pos, end). A token starting with { runs to its matching }. start is -1
// when no token remains.
func (p *parser) nextToken(pos, end int) (start, stop int) {
	pos = skipSpace(p.text, pos, end)
	if pos >= end {
		return -1, -1
	}
	if p.text[pos] == '{' {
		if c := p.closing(pos, end, '{', '}'); c >= 0 {
			return pos, c + 1
		}
		return pos, end
	}
	stop = pos
	for stop < end && p.text[stop] != ' ' && p.text[stop] != '\t' {
		stop++
	}
	return pos, stop
}

func (p *parser) emit() { p.eventCount++ }

func (p *parser) loc(span source.Span) source.Location {
	return source.SpanToLocation(p.doc, span)
}

func (p *parser) issue(is diag.Issue) {
	if is.Severity == diag.SeverityError {
		p.errorCount++
	}
	p.emit()
	p.cb.OnParseError(is.Resolve(p.doc))
}

func (p *parser) errorf(span source.Span, format string, args ...interface{}) {
	p.issue(diag.Errorf(span, format, args...))
}

func (p *parser) warnf(span source.Span, format string, args ...interface{}) {
	p.issue(diag.Warningf(span, format, args...))
}

func (p *parser) reference(name string, span source.Span) {
	p.emit()
	p.cb.OnVariableReference(name, p.loc(span))
}

func isWordByte(b byte) bool {
	return b == '_' || ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z') || ('0' <= b && b <= '9')
}

// isValidName reports whether s can name a variable.
func isValidName(s string) bool {
	if s == "" || ('0' <= s[0] && s[0] <= '9') {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isWordByte(s[i]) {
			return false
		}
	}
	return true
}

func skipSpace(text string, pos, end int) int {
	for pos < end && (text[pos] == ' ' || text[pos] == '\t') {
		pos++
	}
	return pos
}
