package parser

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAchievementCreate(t *testing.T) {
	r := parseStartup(t, "*achievement brave visible 10 Brave Heart\n  Be brave.\n  You were brave.\n")

	assert.Empty(t, r.diags)
	want := []Achievement{{Codename: "brave", Visible: true, Points: 10, Title: "Brave Heart"}}
	if diff := cmp.Diff(want, r.achievements, cmpopts.IgnoreFields(Achievement{}, "Location")); diff != "" {
		t.Errorf("achievements mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, rng(0, 13, 0, 18), r.achievements[0].Location.Range)
}

func TestAchievementOnlyInStartup(t *testing.T) {
	r := parseScene(t, "*achievement brave visible 10 Brave\n  Be brave.\n")
	assert.Contains(t, r.errors(), "*achievement can only be used in startup.txt")
}

func TestAchievementCountLimit(t *testing.T) {
	var b strings.Builder
	for n := 0; n < 101; n++ {
		fmt.Fprintf(&b, "*achievement a%d visible 1 Title\n  Pre\n  Post\n", n)
	}
	r := parseStartup(t, b.String())

	require.Equal(t, []string{"No more than 100 achievements allowed"}, r.errors())
	assert.Equal(t, 300, r.diags[0].Location.Range.Start.Line)
	assert.Len(t, r.achievements, 101)
}

func TestAchievementPointLimit(t *testing.T) {
	var b strings.Builder
	for n := 0; n < 12; n++ {
		fmt.Fprintf(&b, "*achievement a%d visible 100 Title\n  Pre\n  Post\n", n)
	}
	r := parseStartup(t, b.String())

	require.Equal(t, []string{"Total achievement points must be 1,000 or less"}, r.errors())
	assert.Equal(t, 30, r.diags[0].Location.Range.Start.Line)
}

func TestAchievementLimitsOption(t *testing.T) {
	input := "*achievement a visible 5 A\n  Pre\n*achievement b visible 5 B\n  Pre\n"
	r := parseStartup(t, input, WithAchievementLimits(1, 8))

	assert.Equal(t, []string{
		"No more than 1 achievements allowed",
		"Total achievement points must be 8 or less",
	}, r.errors())
}

func TestAchievementErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bad visibility", "*achievement a shown 10 Title\n  Pre\n", "Achievement visibility must be visible or hidden"},
		{"points not a number", "*achievement a visible ten Title\n  Pre\n", "Achievement points must be a whole number"},
		{"points out of range", "*achievement a visible 0 Title\n  Pre\n", "Achievement points must be between 1 and 100"},
		{"missing title", "*achievement a visible 10\n  Pre\n", "*achievement is missing its title"},
		{"long title", "*achievement a visible 10 " + strings.Repeat("x", 51) + "\n  Pre\n", "Achievement titles must be 50 characters or less"},
		{"missing description", "*achievement a visible 10 Title\n", "*achievement is missing its pre-earned description"},
		{"hidden not hidden", "*achievement a hidden 10 Title\n  Shown\n  Earned\n", `A hidden achievement's pre-earned description must be "hidden"`},
		{"hidden without post", "*achievement a hidden 10 Title\n  hidden\n", "A hidden achievement must have a post-earned description"},
		{"too many descriptions", "*achievement a visible 10 Title\n  Pre\n  Post\n  Extra\n", "*achievement can only have pre-earned and post-earned descriptions"},
		{"long description", "*achievement a visible 10 Title\n  " + strings.Repeat("x", 201) + "\n", "Achievement descriptions must be 200 characters or less"},
		{"markup", "*achievement a visible 10 Title\n  Has ${x} in it\n", "Achievement text can't include ${}, @{}, or [] markup"},
		{"invalid codename", "*achievement bad-name visible 10 Title\n  Pre\n", "Achievement codenames can only contain letters, numbers, or _"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := parseStartup(t, tt.input)
			assert.Equal(t, []string{tt.want}, r.errors())
		})
	}
}

func TestInvalidCodenameNotReported(t *testing.T) {
	r := parseStartup(t, "*achievement bad-name visible 10 Title\n  Pre\n")
	assert.Empty(t, r.achievements)
}

func TestHiddenAchievement(t *testing.T) {
	r := parseStartup(t, "*achievement secret hidden 25 Secret\n  hidden\n  You found it.\n")

	assert.Empty(t, r.diags)
	require.Len(t, r.achievements, 1)
	assert.False(t, r.achievements[0].Visible)
	assert.Equal(t, 25, r.achievements[0].Points)
}

func TestThousands(t *testing.T) {
	tests := map[int]string{0: "0", 999: "999", 1000: "1,000", 1234567: "1,234,567", -1000: "-1,000"}
	for n, want := range tests {
		assert.Equal(t, want, thousands(n))
	}
}
