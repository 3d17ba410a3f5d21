package validation

import (
	"sort"
	"strings"

	"github.com/sgranade/choicescript-vscode-sub001/core/diag"
	"github.com/sgranade/choicescript-vscode-sub001/runtime/parser"
)

// RecursionCycle is a chain of subroutines that *gosub their way back to
// the first one.
type RecursionCycle struct {
	Call  parser.FlowControlEvent // the *gosub that closes the cycle
	Cycle []string                // e.g. ["a", "b", "a"]
}

// checkRecursion warns about subroutines that can *gosub back into
// themselves.
func (v *validator) checkRecursion() {
	for _, c := range FindRecursion(subroutineCalls(v.doc)) {
		v.report(diag.SeverityWarning, c.Call.LabelLocation,
			"Recursive *gosub detected: %s", strings.Join(c.Cycle, " -> "))
	}
}

// FindRecursion returns each cycle in a label -> *gosub graph once, found
// depth-first from the labels in sorted order.
func FindRecursion(calls map[string][]parser.FlowControlEvent) []RecursionCycle {
	labels := make([]string, 0, len(calls))
	for label := range calls {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	var cycles []RecursionCycle
	reported := make(map[parser.FlowControlEvent]bool)
	done := make(map[string]bool)
	for _, label := range labels {
		detectRecursion(label, calls, nil, make(map[string]bool), done, reported, &cycles)
	}
	return cycles
}

// detectRecursion performs depth-first search to detect cycles in *gosub
// calls.
func detectRecursion(label string, calls map[string][]parser.FlowControlEvent, path []string,
	visiting, done map[string]bool, reported map[parser.FlowControlEvent]bool, cycles *[]RecursionCycle) {
	if done[label] {
		return
	}

	visiting[label] = true
	path = append(path, label)

	for _, ev := range calls[label] {
		if visiting[ev.Label] {
			if reported[ev] {
				continue
			}
			reported[ev] = true

			cycleStart := 0
			for i, l := range path {
				if l == ev.Label {
					cycleStart = i
					break
				}
			}
			cycle := append(append([]string(nil), path[cycleStart:]...), ev.Label)
			*cycles = append(*cycles, RecursionCycle{Call: ev, Cycle: cycle})
			continue
		}
		detectRecursion(ev.Label, calls, path, visiting, done, reported, cycles)
	}

	// Unmark this label (backtrack)
	delete(visiting, label)
	done[label] = true
}
