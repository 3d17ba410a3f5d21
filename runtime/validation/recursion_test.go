package validation

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sgranade/choicescript-vscode-sub001/runtime/parser"
)

func gosub(label string) parser.FlowControlEvent {
	return parser.FlowControlEvent{Command: "gosub", Label: label}
}

func cycles(found []RecursionCycle) [][]string {
	var out [][]string
	for _, c := range found {
		out = append(out, c.Cycle)
	}
	return out
}

func TestFindRecursion(t *testing.T) {
	tests := []struct {
		name  string
		calls map[string][]parser.FlowControlEvent
		want  [][]string
	}{
		{
			name:  "simple recursion",
			calls: map[string][]parser.FlowControlEvent{"build": {gosub("build")}},
			want:  [][]string{{"build", "build"}},
		},
		{
			name: "indirect recursion",
			calls: map[string][]parser.FlowControlEvent{
				"build":  {gosub("test")},
				"test":   {gosub("deploy")},
				"deploy": {gosub("build")},
			},
			want: [][]string{{"build", "test", "deploy", "build"}},
		},
		{
			name: "no recursion",
			calls: map[string][]parser.FlowControlEvent{
				"a": {gosub("b"), gosub("c")},
				"b": {gosub("d")},
				"c": {gosub("d")},
			},
			want: nil,
		},
		{
			name: "cycle reached from outside",
			calls: map[string][]parser.FlowControlEvent{
				"a": {gosub("b")},
				"b": {gosub("c")},
				"c": {gosub("b")},
			},
			want: [][]string{{"b", "c", "b"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cycles(FindRecursion(tt.calls))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("cycles mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRecursiveGosubWarning(t *testing.T) {
	idx := project(t, map[string]string{
		chapterURI: "*gosub a\n*finish\n*label a\n*gosub b\n*return\n*label b\n*gosub a\n*return\n",
	})

	diags := Validate(chapterURI, idx)
	require.Len(t, diags, 1)
	assert.Equal(t, "Recursive *gosub detected: a -> b -> a", diags[0].Message)
	assert.Equal(t, 6, diags[0].Location.Range.Start.Line)
}

func TestGosubAfterReturnIsNotPartOfSubroutine(t *testing.T) {
	idx := project(t, map[string]string{
		chapterURI: "*label a\n*return\n*gosub a\n*finish\n",
	})

	assert.Empty(t, Validate(chapterURI, idx))
}
