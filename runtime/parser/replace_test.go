package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReplacements(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		refs     []string
		errors   []string
		warnings []string
	}{
		{
			name:  "replace and multireplace",
			input: "Hi ${name}, @{(strength > 50) strong|weak}.",
			refs:  []string{"name", "strength"},
		},
		{name: "capitalized", input: "$!{name} and $!!{title}", refs: []string{"name", "title"}},
		{name: "capitalized multireplace", input: "@!{flag yes|no}", refs: []string{"flag"}},
		{name: "bare dollar", input: "It cost $5.", refs: nil},
		{name: "empty replacement", input: "${}", errors: []string{"Replacement is empty"}},
		{name: "unclosed replacement", input: "${x", errors: []string{"Replacement is missing its }"}},
		{name: "one option", input: "@{x only}", refs: []string{"x"}, errors: []string{"Multireplace must have at least two options separated by |"}},
		{name: "unclosed multireplace", input: "@{x a|b", errors: []string{"Multireplace is missing its }"}},
		{name: "empty multireplace", input: "@{}", errors: []string{"Multireplace is empty"}},
		{name: "no options", input: "@{x }", refs: []string{"x"}, errors: []string{"Multireplace has no options after its test"}},
		{name: "missing space", input: "@{(x)a|b}", refs: []string{"x"}, warnings: []string{"Multireplace needs a space after its test"}},
		{name: "nested", input: "@{x a|@{y b|c}}", refs: []string{"x", "y"}, errors: []string{"Multireplaces can't be nested"}},
		{name: "replacement in option", input: "@{x a|${y}}", refs: []string{"x", "y"}},
		{name: "unclosed test", input: "@{(x a|b}", errors: []string{"Multireplace test is missing its )"}},
		{name: "bad test", input: "@{+ a|b}", errors: []string{"Multireplace must start with a variable or a parenthesized test"}},
		{name: "function test", input: "@{not(x) a|b}", refs: []string{"x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := parseScene(t, tt.input)
			assert.Equal(t, tt.refs, r.refs)
			assert.Equal(t, tt.errors, r.errors())
			assert.Equal(t, tt.warnings, r.warnings())
		})
	}
}

func TestReplacementInsideString(t *testing.T) {
	r := parseScene(t, "*set greeting \"Hello ${name}\"\n")

	assert.Empty(t, r.diags)
	assert.Equal(t, []string{"greeting", "name"}, r.refs)
}

func TestReplacementErrorInsideStringReportedOnce(t *testing.T) {
	r := parseScene(t, "*set total \"Total ${1 + true}\"\n")

	assert.Equal(t, []string{`Must be a number or a variable to use "+"`}, r.errors())
	assert.Equal(t, rng(0, 24, 0, 28), r.diags[0].Location.Range)
}

func TestReplacementLocation(t *testing.T) {
	r := parseScene(t, "Text ${strength}\n")

	assert.Equal(t, []string{"strength"}, r.refs)
	assert.Equal(t, rng(0, 7, 0, 15), r.refLocs[0].Range)
}
