package parser

import (
	"github.com/sgranade/choicescript-vscode-sub001/core/diag"
	"github.com/sgranade/choicescript-vscode-sub001/core/source"
)

// Callbacks receives one call per construct the parser recognizes, in
// document order. Every location is resolved against the parsed document.
type Callbacks interface {
	// OnCommand is called for every *word at the start of a line, known or
	// not, before any command-specific callback.
	OnCommand(name string, loc source.Location)
	OnGlobalVariableCreate(name string, loc source.Location)
	OnLocalVariableCreate(name string, loc source.Location)
	OnLabelCreate(name string, loc source.Location)
	OnVariableReference(name string, loc source.Location)
	OnFlowControlEvent(ev FlowControlEvent)
	OnSceneDefinition(scenes []string, loc source.Location)
	OnAchievementCreate(ach Achievement)
	OnAchievementReference(codename string, loc source.Location)
	OnImageReference(file string, loc source.Location)
	// OnChoiceScope is called for a whole choice block, then for each of its
	// options in document order.
	OnChoiceScope(loc source.Location)
	OnParseError(d diag.Diagnostic)
}

// FlowControlEvent records one *goto, *gosub, *goto_scene, *gosub_scene or
// *return. Label and Scene are empty when absent. A label or scene written
// as a {variable} reference keeps its braces and sets the matching
// IsReference flag, since its value is only known at runtime.
type FlowControlEvent struct {
	Command         string
	CommandLocation source.Location

	Label            string
	LabelLocation    source.Location
	LabelIsReference bool

	Scene            string
	SceneLocation    source.Location
	SceneIsReference bool

	// ParamCount is the number of parameters passed by a gosub.
	ParamCount int
}

// HasLabel reports whether the event names a label.
func (ev FlowControlEvent) HasLabel() bool { return ev.Label != "" }

// HasScene reports whether the event names a scene.
func (ev FlowControlEvent) HasScene() bool { return ev.Scene != "" }

// Achievement is a parsed *achievement declaration.
type Achievement struct {
	Codename string
	Location source.Location
	Visible  bool
	Points   int
	Title    string
}

// NopCallbacks implements Callbacks by ignoring every event. Embed it to
// handle only the events you need.
type NopCallbacks struct{}

func (NopCallbacks) OnCommand(string, source.Location)              {}
func (NopCallbacks) OnGlobalVariableCreate(string, source.Location) {}
func (NopCallbacks) OnLocalVariableCreate(string, source.Location)  {}
func (NopCallbacks) OnLabelCreate(string, source.Location)          {}
func (NopCallbacks) OnVariableReference(string, source.Location)    {}
func (NopCallbacks) OnFlowControlEvent(FlowControlEvent)            {}
func (NopCallbacks) OnSceneDefinition([]string, source.Location)    {}
func (NopCallbacks) OnAchievementCreate(Achievement)                {}
func (NopCallbacks) OnAchievementReference(string, source.Location) {}
func (NopCallbacks) OnImageReference(string, source.Location)       {}
func (NopCallbacks) OnChoiceScope(source.Location)                  {}
func (NopCallbacks) OnParseError(diag.Diagnostic)                   {}
