package indexer

import (
	"fmt"
	"strings"

	"github.com/sgranade/choicescript-vscode-sub001/core/diag"
	"github.com/sgranade/choicescript-vscode-sub001/core/source"
	"github.com/sgranade/choicescript-vscode-sub001/runtime/index"
	"github.com/sgranade/choicescript-vscode-sub001/runtime/parser"
)

// collector accumulates parser events into fresh tables for one document.
type collector struct {
	source    source.Document
	isStartup bool

	doc          *index.DocumentIndex
	globals      index.SymbolTable
	sceneList    []string
	achievements map[string]parser.Achievement

	paramStarts       []source.Location
	achievementStarts []source.Location
}

var _ parser.Callbacks = (*collector)(nil)

func newCollector(doc source.Document, isStartup, isStatsFile bool) *collector {
	d := index.NewDocumentIndex(doc.URI())
	d.IsStatsFile = isStatsFile
	return &collector{
		source:       doc,
		isStartup:    isStartup,
		doc:          d,
		globals:      index.NewSymbolTable(),
		achievements: make(map[string]parser.Achievement),
	}
}

func (c *collector) errorf(loc source.Location, format string, args ...interface{}) {
	c.doc.ParseErrors = append(c.doc.ParseErrors, diag.Diagnostic{
		Severity: diag.SeverityError,
		Location: loc,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (c *collector) OnCommand(name string, loc source.Location) {
	switch name {
	case "params":
		c.paramStarts = append(c.paramStarts, loc)
	case "check_achievements":
		c.achievementStarts = append(c.achievementStarts, loc)
	}
}

func (c *collector) OnGlobalVariableCreate(name string, loc source.Location) {
	if !c.isStartup {
		return
	}
	if first, ok := c.globals.First(name); ok {
		c.errorf(loc, "Variable %q was already created on line %d", name, first.Range.Start.Line+1)
		return
	}
	c.globals.Add(name, loc)
}

func (c *collector) OnLocalVariableCreate(name string, loc source.Location) {
	c.doc.LocalVariables.Add(name, loc)
}

func (c *collector) OnLabelCreate(name string, loc source.Location) {
	if _, ok := c.doc.Labels[name]; !ok {
		c.doc.Labels[name] = loc
	}
}

func (c *collector) OnVariableReference(name string, loc source.Location) {
	c.doc.VariableReferences.Add(name, loc)
}

func (c *collector) OnFlowControlEvent(ev parser.FlowControlEvent) {
	c.doc.FlowControlEvents = append(c.doc.FlowControlEvents, ev)
}

func (c *collector) OnSceneDefinition(scenes []string, _ source.Location) {
	if c.isStartup {
		c.sceneList = append(c.sceneList, scenes...)
	}
}

func (c *collector) OnAchievementCreate(ach parser.Achievement) {
	if !c.isStartup {
		return
	}
	key := strings.ToLower(ach.Codename)
	if first, ok := c.achievements[key]; ok {
		c.errorf(ach.Location, "Achievement %q was already created on line %d", ach.Codename, first.Location.Range.Start.Line+1)
		return
	}
	c.achievements[key] = ach
}

func (c *collector) OnAchievementReference(codename string, loc source.Location) {
	c.doc.AchievementReferences.Add(codename, loc)
}

func (c *collector) OnImageReference(file string, loc source.Location) {
	c.doc.Images.Add(file, loc)
}

func (c *collector) OnChoiceScope(loc source.Location) {
	c.doc.Scopes.Choices = append(c.doc.Scopes.Choices, loc.Range)
}

func (c *collector) OnParseError(d diag.Diagnostic) {
	c.doc.ParseErrors = append(c.doc.ParseErrors, d)
}

// finishScopes turns each *params and *check_achievements into a scope
// running from the command to the end of the document.
func (c *collector) finishScopes() {
	end := c.source.PositionAt(len(c.source.Text()))
	for _, loc := range c.paramStarts {
		c.doc.Scopes.ParamVariables = append(c.doc.Scopes.ParamVariables, source.Range{Start: loc.Range.Start, End: end})
	}
	for _, loc := range c.achievementStarts {
		c.doc.Scopes.AchievementVariables = append(c.doc.Scopes.AchievementVariables, source.Range{Start: loc.Range.Start, End: end})
	}
}
