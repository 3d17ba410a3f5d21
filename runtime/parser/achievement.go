package parser

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/sgranade/choicescript-vscode-sub001/core/source"
)

const (
	maxAchievementPointsEach = 100
	maxAchievementTitle      = 50
	maxAchievementDesc       = 200
)

// parseAchievement handles an *achievement and its description lines:
//
//	*achievement codename visible 10 Title
//	  Pre-earned description
//	  Post-earned description
//
// A hidden achievement's pre-earned description must be "hidden", and its
// post-earned description is required.
func (p *parser) parseAchievement(cmd command, i, to int) int {
	end := p.blockEnd(i, to, p.lines[i].indent())
	argsEnd := cmd.argsStart + len(cmd.args)

	start, stop := p.nextToken(cmd.argsStart, argsEnd)
	if start < 0 {
		p.errorf(cmd.span, "*achievement is missing its codename")
		return end
	}
	ach := Achievement{Codename: p.text[start:stop], Location: p.loc(source.Span{Start: start, End: stop})}
	codenameSpan := source.Span{Start: start, End: stop}
	if !isValidName(ach.Codename) {
		p.errorf(codenameSpan, "Achievement codenames can only contain letters, numbers, or _")
	}

	p.state.achievementCount++
	if p.state.achievementCount > p.config.maxAchievements {
		p.errorf(codenameSpan, "No more than %d achievements allowed", p.config.maxAchievements)
	}

	start, stop = p.nextToken(stop, argsEnd)
	if start < 0 {
		p.errorf(codenameSpan, "*achievement is missing its visibility")
		return p.finishAchievement(ach, i, end)
	}
	switch strings.ToLower(p.text[start:stop]) {
	case "visible":
		ach.Visible = true
	case "hidden":
	default:
		p.errorf(source.Span{Start: start, End: stop}, "Achievement visibility must be visible or hidden")
	}

	start, stop = p.nextToken(stop, argsEnd)
	if start < 0 {
		p.errorf(codenameSpan, "*achievement is missing its points")
		return p.finishAchievement(ach, i, end)
	}
	p.achievementPoints(&ach, source.Span{Start: start, End: stop})

	titleStart := skipSpace(p.text, stop, argsEnd)
	if titleStart >= argsEnd {
		p.errorf(codenameSpan, "*achievement is missing its title")
		return p.finishAchievement(ach, i, end)
	}
	ach.Title = p.text[titleStart:argsEnd]
	titleSpan := source.Span{Start: titleStart, End: argsEnd}
	if utf8.RuneCountInString(ach.Title) > maxAchievementTitle {
		p.errorf(titleSpan, "Achievement titles must be %d characters or less", maxAchievementTitle)
	}
	p.checkAchievementText(ach.Title, titleSpan)

	return p.finishAchievement(ach, i, end)
}

func (p *parser) achievementPoints(ach *Achievement, span source.Span) {
	points, err := strconv.Atoi(p.text[span.Start:span.End])
	if err != nil {
		p.errorf(span, "Achievement points must be a whole number")
		return
	}
	if points < 1 || points > maxAchievementPointsEach {
		p.errorf(span, "Achievement points must be between 1 and %d", maxAchievementPointsEach)
		return
	}
	ach.Points = points
	p.state.achievementPoints += points
	if p.state.achievementPoints > p.config.maxAchievementPoints && !p.state.pointsExceeded {
		p.state.pointsExceeded = true
		p.errorf(span, "Total achievement points must be %s or less", thousands(p.config.maxAchievementPoints))
	}
}

// finishAchievement reads the description lines under the *achievement at
// line i and reports the achievement.
func (p *parser) finishAchievement(ach Achievement, i, end int) int {
	var descs []source.Span
	for j := i + 1; j < end; j++ {
		ln := p.lines[j]
		if ln.blank {
			continue
		}
		stop := ln.end
		for stop > ln.content && (p.text[stop-1] == ' ' || p.text[stop-1] == '\t') {
			stop--
		}
		descs = append(descs, source.Span{Start: ln.content, End: stop})
	}

	cmdLine := p.lines[i]
	cmdSpan := source.Span{Start: cmdLine.content, End: cmdLine.end}
	switch {
	case len(descs) == 0:
		p.errorf(cmdSpan, "*achievement is missing its pre-earned description")
	case !ach.Visible && !strings.EqualFold(p.text[descs[0].Start:descs[0].End], "hidden"):
		p.errorf(descs[0], "A hidden achievement's pre-earned description must be \"hidden\"")
	}
	if !ach.Visible && len(descs) == 1 {
		p.errorf(cmdSpan, "A hidden achievement must have a post-earned description")
	}
	if len(descs) > 2 {
		p.errorf(descs[2], "*achievement can only have pre-earned and post-earned descriptions")
		descs = descs[:2]
	}
	for _, d := range descs {
		text := p.text[d.Start:d.End]
		if utf8.RuneCountInString(text) > maxAchievementDesc {
			p.errorf(d, "Achievement descriptions must be %d characters or less", maxAchievementDesc)
		}
		p.checkAchievementText(text, d)
	}

	if isValidName(ach.Codename) {
		p.emit()
		p.cb.OnAchievementCreate(ach)
	}
	return end
}

// checkAchievementText flags markup the achievements screen can't show.
func (p *parser) checkAchievementText(text string, span source.Span) {
	open := strings.IndexByte(text, '[')
	if strings.Contains(text, "${") || strings.Contains(text, "@{") ||
		(open >= 0 && strings.IndexByte(text[open:], ']') >= 0) {
		p.errorf(span, "Achievement text can't include ${}, @{}, or [] markup")
	}
}

// thousands formats n with comma separators.
func thousands(n int) string {
	if n < 0 {
		return "-" + thousands(-n)
	}
	s := strconv.Itoa(n)
	var b strings.Builder
	for k, r := range s {
		if k > 0 && (len(s)-k)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// parseSceneList handles a *scene_list and its indented scene names. A $
// before a name marks a scene that must be purchased.
func (p *parser) parseSceneList(cmd command, i, to int) int {
	end := p.blockEnd(i, to, p.lines[i].indent())
	first := p.nextContentLine(i+1, end)
	if first >= end {
		p.errorf(cmd.span, "*scene_list is missing its scenes")
		return end
	}

	base := p.lines[first].indent()
	var scenes []string
	for j := first; j < end; j++ {
		ln := p.lines[j]
		if ln.blank {
			continue
		}
		if ln.indent() != base {
			p.errorf(source.Span{Start: ln.start, End: ln.content}, "Scene list entries must all have the same indentation")
			continue
		}
		pos := ln.content
		if p.text[pos] == '$' {
			pos = skipSpace(p.text, pos+1, ln.end)
		}
		start, stop := p.nextToken(pos, ln.end)
		if start < 0 {
			p.errorf(source.Span{Start: ln.content, End: ln.end}, "Missing scene name after $")
			continue
		}
		scenes = append(scenes, p.text[start:stop])
	}

	last := p.lines[p.lastContentLine(i, end)]
	p.emit()
	p.cb.OnSceneDefinition(scenes, p.loc(source.Span{Start: cmd.span.Start - 1, End: last.end}))
	return end
}
