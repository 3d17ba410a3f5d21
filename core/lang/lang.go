// Package lang holds the static facts about the ChoiceScript language that
// the parser and validator share: which commands exist, which of them only
// belong in startup.txt, and which variables the interpreter provides.
package lang

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Commands lists every command the interpreter accepts.
var Commands = []string{
	"abort", "achieve", "achievement", "advertisement", "allow_reuse", "author",
	"bug", "check_achievements", "check_purchase", "check_registration", "choice",
	"comment", "config", "create", "create_array", "delay_break", "delay_ending",
	"delete", "disable_reuse", "else", "elseif", "elsif", "end_trial", "ending",
	"fake_choice", "feedback", "finish", "gosub", "gosub_scene", "goto",
	"goto_random_scene", "goto_scene", "gotoref", "hide_reuse", "if", "ifid",
	"image", "input_number", "input_text", "kindle_image", "kindle_product",
	"label", "line_break", "link", "link_button", "login", "looplimit",
	"more_games", "page_break", "params", "print", "product", "purchase",
	"purchase_discount", "rand", "redirect_scene", "reset", "restart",
	"restore_checkpoint", "restore_game", "restore_purchases", "return",
	"save_checkpoint", "save_game", "scene_list", "script", "selectable_if",
	"send_email", "set", "setref", "share_this_game", "show_password", "sound",
	"stat_chart", "subscribe", "temp", "temp_array", "text_image", "title",
	"youtube",
}

// StartupOnlyCommands may only appear in the startup document. The bool
// reports whether using one elsewhere is an error (true) or a warning.
var StartupOnlyCommands = map[string]bool{
	"create":       true,
	"create_array": true,
	"scene_list":   true,
	"achievement":  true,
	"title":        false,
	"author":       false,
	"product":      false,
	"ifid":         false,
}

// FlowControlCommands transfer control to a label and/or scene.
var FlowControlCommands = map[string]bool{
	"goto":        true,
	"gosub":       true,
	"goto_scene":  true,
	"gosub_scene": true,
	"return":      true,
}

// OptionModifiers may prefix an #option line inside a choice.
var OptionModifiers = map[string]bool{
	"hide_reuse":    true,
	"disable_reuse": true,
	"allow_reuse":   true,
}

// ImageCommands reference an image file as their first argument.
var ImageCommands = map[string]bool{
	"image":        true,
	"text_image":   true,
	"kindle_image": true,
}

// BuiltinVariables are set by the interpreter and never declared by a game.
var BuiltinVariables = []string{
	"choice_is_advertising_supported", "choice_is_ios_app", "choice_is_steam",
	"choice_is_trial", "choice_is_web", "choice_kindle", "choice_nightmode",
	"choice_prerelease", "choice_purchase_supported", "choice_purchased_adfree",
	"choice_quicktest", "choice_randomtest", "choice_register_allowed",
	"choice_registered", "choice_release_date", "choice_restore_purchases_allowed",
	"choice_save_allowed", "choice_subscribe_allowed", "choice_time_stamp",
	"choice_title", "implicit_control_flow",
}

// ParamCountVariable and ParamVariablePrefix name the variables *params
// exposes when it is given no explicit names.
const (
	ParamCountVariable  = "param_count"
	ParamVariablePrefix = "param_"
)

// AchievedVariablePrefix prefixes the per-achievement variables that
// *check_achievements sets.
const AchievedVariablePrefix = "choice_achieved_"

var (
	commandSet = toSet(Commands)
	builtinSet = toSet(BuiltinVariables)
)

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

// IsCommand reports whether name is a known command (without the *).
func IsCommand(name string) bool {
	return commandSet[name]
}

// IsBuiltinVariable reports whether name is an interpreter-provided variable.
func IsBuiltinVariable(name string) bool {
	return builtinSet[strings.ToLower(name)]
}

// ClosestMatch returns the candidate that best matches target using fuzzy
// ranking, or "" if nothing is close.
func ClosestMatch(target string, candidates []string) string {
	if len(candidates) == 0 || target == "" {
		return ""
	}
	ranks := fuzzy.RankFindFold(target, candidates)
	if len(ranks) > 0 {
		sort.Sort(ranks)
		return ranks[0].Target
	}
	// Misspellings rarely contain the whole intended word, so fall back to
	// comparing the other way around.
	best, bestDist := "", -1
	for _, c := range candidates {
		d := fuzzy.LevenshteinDistance(strings.ToLower(target), strings.ToLower(c))
		if bestDist < 0 || d < bestDist {
			best, bestDist = c, d
		}
	}
	if bestDist >= 0 && bestDist <= len(target)/2+1 {
		return best
	}
	return ""
}

// SuggestCommand returns the closest known command to an unknown one.
func SuggestCommand(name string) string {
	return ClosestMatch(name, Commands)
}
