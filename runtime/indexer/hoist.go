package indexer

import (
	"github.com/sgranade/choicescript-vscode-sub001/core/source"
)

// hoisted is one subroutine variable re-keyed to a *gosub call site.
type hoisted struct {
	name  string
	label string
	call  source.Location
}

// hoistSubroutineLocals finds, for every *gosub to a label in this document,
// the variables whose only declarations lie between the label and the first
// *return after it. Those variables become visible from the *gosub onward,
// so they are recorded in the subroutine table at the call site.
func (c *collector) hoistSubroutineLocals() []hoisted {
	var out []hoisted
	for _, ev := range c.doc.FlowControlEvents {
		if ev.Command != "gosub" || !ev.HasLabel() || ev.LabelIsReference {
			continue
		}
		label, ok := c.doc.Labels[ev.Label]
		if !ok {
			continue
		}
		ret, ok := c.returnAfter(label.Range.Start)
		if !ok {
			continue
		}

		for _, name := range c.doc.LocalVariables.Names() {
			sym, _ := c.doc.LocalVariables.Lookup(name)
			if !within(sym.Locations, label.Range.Start, ret) {
				continue
			}
			if sub, ok := c.doc.SubroutineLocalVariables.Lookup(name); ok && containsLocation(sub.Locations, ev.CommandLocation) {
				continue
			}
			c.doc.SubroutineLocalVariables.Add(sym.Name, ev.CommandLocation)
			out = append(out, hoisted{name: sym.Name, label: ev.Label, call: ev.CommandLocation})
		}
	}
	return out
}

// returnAfter returns the position of the first *return after pos.
func (c *collector) returnAfter(pos source.Position) (source.Position, bool) {
	for _, ev := range c.doc.FlowControlEvents {
		if ev.Command == "return" && ev.CommandLocation.Range.Start.After(pos) {
			return ev.CommandLocation.Range.Start, true
		}
	}
	return source.Position{}, false
}

// checkReturns flags each *return that no label precedes, since nothing
// could have called it as a subroutine.
func (c *collector) checkReturns() {
	for _, ev := range c.doc.FlowControlEvents {
		if ev.Command != "return" {
			continue
		}
		start := ev.CommandLocation.Range.Start
		found := false
		for _, loc := range c.doc.Labels {
			if loc.Range.Start.Before(start) {
				found = true
				break
			}
		}
		if !found {
			c.errorf(ev.CommandLocation, "*return has no associated label")
		}
	}
}

func within(locs []source.Location, after, before source.Position) bool {
	if len(locs) == 0 {
		return false
	}
	for _, loc := range locs {
		if !loc.Range.Start.After(after) || !loc.Range.Start.Before(before) {
			return false
		}
	}
	return true
}

func containsLocation(locs []source.Location, want source.Location) bool {
	for _, loc := range locs {
		if loc == want {
			return true
		}
	}
	return false
}
