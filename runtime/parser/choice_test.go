package parser

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sgranade/choicescript-vscode-sub001/core/source"
)

func TestChoiceScopes(t *testing.T) {
	r := parseScene(t, "*choice\n\t#One\n\t\tText\n\t#Two\nEnd")

	want := []source.Range{
		rng(0, 0, 3, 5), // whole block
		rng(1, 1, 2, 6), // #One and its contents
		rng(3, 1, 3, 5), // #Two
	}
	if diff := cmp.Diff(want, r.scopes); diff != "" {
		t.Errorf("choice scopes mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"An option in a *choice must have contents"}, r.errors())
}

func TestFakeChoiceOptionsMayBeEmpty(t *testing.T) {
	r := parseScene(t, "*fake_choice\n  #A\n  #B\nAfter\n")
	assert.Empty(t, r.diags)
	assert.Len(t, r.scopes, 3)

	r = parseScene(t, "*choice\n  #A\n  #B\nAfter\n")
	assert.Equal(t, []string{
		"An option in a *choice must have contents",
		"An option in a *choice must have contents",
	}, r.errors())
}

func TestChoiceOptionBodiesAreParsed(t *testing.T) {
	r := parseScene(t, "*choice\n  #Fight ${enemy}\n    *set courage +1\n    *goto fight\n  #Flee\n    *goto_scene home\n")

	assert.Empty(t, r.diags)
	assert.Equal(t, []string{"enemy", "courage"}, r.refs)
	require.Len(t, r.flows, 2)
	assert.Equal(t, "fight", r.flows[0].Label)
	assert.Equal(t, "home", r.flows[1].Scene)
}

func TestChoiceConditions(t *testing.T) {
	r := parseScene(t, "*choice\n  *if (x) #A\n    a\n  *if x = 1 #B\n    b\n  *if y\n    #C\n      c\n  *selectable_if (z) #D\n    d\n")

	assert.Empty(t, r.errors())
	assert.Equal(t, []string{"Arguments to *if before an #option must be in parentheses"}, r.warnings())
	assert.Equal(t, []string{"x", "x", "y", "z"}, r.refs)
	assert.Equal(t, []string{"choice", "if", "if", "if", "selectable_if"}, r.commands)
	assert.Len(t, r.scopes, 5)
}

func TestChoiceIfWrapsSeveralOptions(t *testing.T) {
	r := parseScene(t, "*choice\n  *if flag\n    #A\n      a\n    #B\n      b\n  *else\n    #C\n      c\n  #D\n    d\n")

	assert.Empty(t, r.diags)
	assert.Len(t, r.scopes, 5)
}

func TestChoiceReuseModifiers(t *testing.T) {
	r := parseScene(t, "*choice\n  *hide_reuse #A\n    a\n  *disable_reuse *if (x) #B\n    b\n")

	assert.Empty(t, r.diags)
	assert.Equal(t, []string{"choice", "hide_reuse", "disable_reuse", "if"}, r.commands)
}

func TestChoiceInvalidLines(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"text instead of option", "*choice\n  Text here\n  #A\n    a\n", "Must be either an #option or an *if"},
		{"no options", "*choice\nText\n", "*choice has no options"},
		{"if without option", "*choice\n  *if x\n  #A\n    a\n", "*if must be followed by an indented #option"},
		{"option without text", "*choice\n  #\n    a\n", "Option is missing its text"},
		{"inconsistent indent", "*choice\n  *if x\n    #A\n      a\n   #B\n     b\n", "This line is indented inconsistently with the options around it"},
		{"option indented less", "*choice\n    #A\n      a\n  #B\n    b\n", "This line is indented less than the choice's options"},
		{"modifier outside choice", "*hide_reuse\n", "*hide_reuse must be on an #option line inside a *choice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := parseScene(t, tt.input)
			assert.Contains(t, r.errors(), tt.want)
		})
	}
}

func TestChoiceCommandInsteadOfOption(t *testing.T) {
	r := parseScene(t, "*choice\n  *goto x\n  #A\n    a\n")

	assert.Equal(t, []string{"Must be either an #option or an *if"}, r.errors())
	assert.Len(t, r.scopes, 2)
	assert.Empty(t, r.flows)
}

func TestChoiceCommandBeforeOptionOnSameLine(t *testing.T) {
	r := parseScene(t, "*choice\n  *goto x #A\n    a\n")

	assert.Equal(t, []string{"*goto can't be used on an #option line"}, r.errors())
}

func TestChoiceMixedIndentation(t *testing.T) {
	r := parseScene(t, "*choice\n\t#A\n\t\ta\n  #B\n    b\nAfter ${x}\n")

	assert.Equal(t, []string{"Tabs and spaces can't be mixed in a choice's indentation"}, r.errors())
	assert.Equal(t, rng(3, 0, 3, 2), r.diags[0].Location.Range)
	assert.Empty(t, r.scopes)
	assert.Equal(t, []string{"x"}, r.refs)
}

const groupedChoice = `*choice color size
  #Red
    #Small
      Small red.
    #Large
      Large red.
  #Blue
    #Small
      Small blue.
    #Large
      Large blue.
`

func TestChoiceGroups(t *testing.T) {
	r := parseScene(t, groupedChoice)

	assert.Empty(t, r.diags)
	assert.Len(t, r.scopes, 7)
	assert.Equal(t, rng(1, 2, 5, 16), r.scopes[1])
}

func TestChoiceGroupMismatch(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "different option text",
			input: "*choice color size\n  #Red\n    #Small\n      a\n    #Large\n      b\n  #Blue\n    #Small\n      c\n    #Huge\n      d\n",
			want:  `Option 2 of group "size" must be "Large", the same as under the first option`,
		},
		{
			name:  "different option count",
			input: "*choice color size\n  #Red\n    #Small\n      a\n    #Large\n      b\n  #Blue\n    #Small\n      c\n",
			want:  `Group "size" should have 2 options, the same as under the first option, but has 1`,
		},
		{
			name:  "different conditions",
			input: "*choice color size\n  #Red\n    *if (big) #Small\n      a\n  #Blue\n    #Small\n      c\n",
			want:  `Option 1 of group "size" must have the same *if conditions as under the first option`,
		},
		{
			name:  "missing sub-options",
			input: "*choice color size\n  #Red\n  #Blue\n    #Small\n      c\n",
			want:  `Missing options for group "size"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := parseScene(t, tt.input)
			assert.Equal(t, []string{tt.want}, r.errors())
		})
	}
}

func TestNestedChoices(t *testing.T) {
	r := parseScene(t, "*choice\n  #Outer\n    *fake_choice\n      #Inner\n    Done.\n  #Other\n    Fine.\n")

	assert.Empty(t, r.diags)
	// Inner block and option first, since they finish first.
	assert.Len(t, r.scopes, 5)
	assert.Equal(t, rng(2, 4, 3, 12), r.scopes[0])
}
