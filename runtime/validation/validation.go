// Package validation checks a document's references against the rest of
// the project. It only reads the index.
package validation

import (
	"fmt"
	"strings"

	"github.com/sgranade/choicescript-vscode-sub001/core/diag"
	"github.com/sgranade/choicescript-vscode-sub001/core/invariant"
	"github.com/sgranade/choicescript-vscode-sub001/core/lang"
	"github.com/sgranade/choicescript-vscode-sub001/core/source"
	"github.com/sgranade/choicescript-vscode-sub001/runtime/index"
	"github.com/sgranade/choicescript-vscode-sub001/runtime/parser"
)

// purchasedPrefix names the variables *check_purchase sets.
const purchasedPrefix = "choice_purchased_"

// Validate returns the cross-document diagnostics for uri. Until the whole
// project has been indexed nothing can be trusted to be missing, so it
// returns nil.
func Validate(uri string, idx *index.ProjectIndex) []diag.Diagnostic {
	invariant.NotNil(idx, "idx")
	if !idx.IsFullyIndexed() {
		return nil
	}
	doc, ok := idx.Document(uri)
	if !ok {
		return nil
	}

	v := &validator{idx: idx, doc: doc}
	v.checkVariables()
	v.checkFlowControl()
	v.checkAchievements()
	v.checkRecursion()
	diag.Sort(v.diags)
	return v.diags
}

type validator struct {
	idx   *index.ProjectIndex
	doc   *index.DocumentIndex
	diags []diag.Diagnostic
}

func (v *validator) report(sev diag.Severity, loc source.Location, format string, args ...interface{}) {
	v.diags = append(v.diags, diag.Diagnostic{Severity: sev, Location: loc, Message: fmt.Sprintf(format, args...)})
}

func withSuggestion(msg, target string, candidates []string) string {
	if s := lang.ClosestMatch(target, candidates); s != "" && s != target {
		return fmt.Sprintf("%s - did you mean %q?", msg, s)
	}
	return msg
}

func (v *validator) checkVariables() {
	globals := v.idx.GlobalVariables()
	var known []string
	for _, name := range v.doc.VariableReferences.Names() {
		sym, _ := v.doc.VariableReferences.Lookup(name)
		for _, loc := range sym.Locations {
			if v.variableDefined(globals, sym.Name, loc.Range.Start) {
				continue
			}
			if v.doc.LocalVariables.Has(sym.Name) {
				v.report(diag.SeverityError, loc, "Variable %q used before it was created", sym.Name)
				continue
			}
			if known == nil {
				known = append(globals.Names(), v.doc.LocalVariables.Names()...)
			}
			v.report(diag.SeverityError, loc, "%s", withSuggestion(fmt.Sprintf("Variable %q not defined", sym.Name), sym.Name, known))
		}
	}
}

// variableDefined reports whether name can be read at pos.
func (v *validator) variableDefined(globals index.SymbolTable, name string, pos source.Position) bool {
	lower := strings.ToLower(name)
	switch {
	case globals.Has(name), lang.IsBuiltinVariable(name), strings.HasPrefix(lower, purchasedPrefix):
		return true
	case lower == lang.ParamCountVariable || strings.HasPrefix(lower, lang.ParamVariablePrefix):
		if inScope(v.doc.Scopes.ParamVariables, pos) {
			return true
		}
	case strings.HasPrefix(lower, lang.AchievedVariablePrefix):
		if inScope(v.doc.Scopes.AchievementVariables, pos) {
			return true
		}
	}
	_, ok := v.idx.LocalDeclaration(v.doc.URI, name, pos)
	return ok
}

func inScope(scopes []source.Range, pos source.Position) bool {
	for _, r := range scopes {
		if r.Contains(pos) {
			return true
		}
	}
	return false
}

func (v *validator) checkFlowControl() {
	for _, ev := range v.doc.FlowControlEvents {
		target := v.doc
		if ev.HasScene() {
			if ev.SceneIsReference {
				continue
			}
			doc, ok := v.idx.Document(v.idx.GetSceneURI(ev.Scene))
			if !ok {
				v.report(diag.SeverityError, ev.SceneLocation, "%s",
					withSuggestion(fmt.Sprintf("Scene %q wasn't found", ev.Scene), ev.Scene, v.sceneNames()))
				continue
			}
			target = doc
		}
		if !ev.HasLabel() || ev.LabelIsReference {
			continue
		}
		if _, ok := target.Labels[ev.Label]; ok {
			continue
		}
		msg := fmt.Sprintf("Label %q wasn't found", ev.Label)
		if ev.HasScene() {
			msg = fmt.Sprintf("Label %q wasn't found in scene %q", ev.Label, ev.Scene)
		}
		v.report(diag.SeverityError, ev.LabelLocation, "%s", withSuggestion(msg, ev.Label, labelNames(target)))
	}
}

func (v *validator) sceneNames() []string {
	var names []string
	for _, uri := range v.idx.Documents() {
		names = append(names, source.SceneName(uri))
	}
	return names
}

func labelNames(doc *index.DocumentIndex) []string {
	names := make([]string, 0, len(doc.Labels))
	for name := range doc.Labels {
		names = append(names, name)
	}
	return names
}

func (v *validator) checkAchievements() {
	achievements := v.idx.Achievements()
	var codenames []string
	for _, a := range achievements {
		codenames = append(codenames, a.Codename)
	}
	for _, name := range v.doc.AchievementReferences.Names() {
		if _, ok := v.idx.Achievement(name); ok {
			continue
		}
		sym, _ := v.doc.AchievementReferences.Lookup(name)
		msg := withSuggestion(fmt.Sprintf("Achievement %q wasn't found", sym.Name), sym.Name, codenames)
		for _, loc := range sym.Locations {
			v.report(diag.SeverityError, loc, "%s", msg)
		}
	}
}

// subroutineCalls maps each label in doc to the labels it *gosubs before
// its first *return.
func subroutineCalls(doc *index.DocumentIndex) map[string][]parser.FlowControlEvent {
	calls := make(map[string][]parser.FlowControlEvent)
	for label, loc := range doc.Labels {
		for _, ev := range doc.FlowControlEvents {
			start := ev.CommandLocation.Range.Start
			if !start.After(loc.Range.Start) {
				continue
			}
			if ev.Command == "return" {
				break
			}
			if ev.Command == "gosub" && ev.HasLabel() && !ev.LabelIsReference {
				calls[label] = append(calls[label], ev)
			}
		}
	}
	return calls
}
