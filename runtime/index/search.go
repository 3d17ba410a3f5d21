package index

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/sgranade/choicescript-vscode-sub001/core/source"
)

// SymbolKind says what a search match names.
type SymbolKind int

const (
	KindGlobalVariable SymbolKind = iota
	KindLocalVariable
	KindLabel
	KindAchievement
	KindScene
)

func (k SymbolKind) String() string {
	switch k {
	case KindGlobalVariable:
		return "global"
	case KindLocalVariable:
		return "local"
	case KindLabel:
		return "label"
	case KindAchievement:
		return "achievement"
	case KindScene:
		return "scene"
	default:
		return "unknown"
	}
}

// Match is one result of Search.
type Match struct {
	Kind     SymbolKind
	Name     string
	Location source.Location
	// Distance is the fuzzy edit distance; lower is closer.
	Distance int
}

// Search finds the declared symbols whose names fuzzily match query,
// closest first. A limit of zero or less returns every match.
func (x *ProjectIndex) Search(query string, limit int) []Match {
	var candidates []Match
	for _, name := range x.GlobalVariables().Names() {
		loc, _ := x.GlobalVariables().First(name)
		candidates = append(candidates, Match{Kind: KindGlobalVariable, Name: name, Location: loc})
	}
	for _, a := range x.Achievements() {
		candidates = append(candidates, Match{Kind: KindAchievement, Name: a.Codename, Location: a.Location})
	}
	for _, scene := range x.GetAllReferencedScenes() {
		candidates = append(candidates, Match{Kind: KindScene, Name: scene, Location: source.Location{URI: x.GetSceneURI(scene)}})
	}
	for _, uri := range x.Documents() {
		doc, ok := x.Document(uri)
		if !ok {
			continue
		}
		for _, name := range doc.LocalVariables.Names() {
			loc, _ := doc.LocalVariables.First(name)
			candidates = append(candidates, Match{Kind: KindLocalVariable, Name: name, Location: loc})
		}
		for label, loc := range doc.Labels {
			candidates = append(candidates, Match{Kind: KindLabel, Name: label, Location: loc})
		}
	}

	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.Name
	}
	ranks := fuzzy.RankFindFold(query, names)

	matches := make([]Match, 0, len(ranks))
	for _, r := range ranks {
		m := candidates[r.OriginalIndex]
		m.Distance = r.Distance
		matches = append(matches, m)
	}
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.Distance != b.Distance {
			return a.Distance < b.Distance
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.Location.URI < b.Location.URI
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}
