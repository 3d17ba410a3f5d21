// Package index stores the symbol tables of a ChoiceScript project.
//
// Each document's tables are replaced wholesale whenever the document is
// re-indexed, so an entry handed out by a getter is never modified afterwards
// and may be read without holding any lock. Callers must treat returned
// tables as read-only.
package index

import (
	"sort"
	"sync"

	"github.com/sgranade/choicescript-vscode-sub001/core/diag"
	"github.com/sgranade/choicescript-vscode-sub001/core/invariant"
	"github.com/sgranade/choicescript-vscode-sub001/core/source"
	"github.com/sgranade/choicescript-vscode-sub001/runtime/parser"
)

// Scopes are derived ranges of a document in which extra variables exist.
type Scopes struct {
	AchievementVariables []source.Range // after *check_achievements
	ParamVariables       []source.Range // after *params
	Choices              []source.Range // choice blocks and their options
}

// DocumentIndex holds the tables built from one document.
type DocumentIndex struct {
	URI string
	// IsStatsFile marks choicescript_stats.txt, which is shown from the
	// stats screen rather than reached by *goto_scene.
	IsStatsFile bool
	// ContentHash identifies the text the tables were built from, so an
	// unchanged file needn't be parsed again.
	ContentHash string

	LocalVariables SymbolTable
	// SubroutineLocalVariables re-keys variables declared only inside a
	// *gosub subroutine to the *gosub call sites.
	SubroutineLocalVariables SymbolTable
	VariableReferences       SymbolTable
	AchievementReferences    SymbolTable
	Images                   SymbolTable

	// Labels are case-sensitive and keep their first declaration.
	Labels map[string]source.Location

	FlowControlEvents []parser.FlowControlEvent
	Scopes            Scopes
	ParseErrors       []diag.Diagnostic
}

// NewDocumentIndex returns empty tables for uri.
func NewDocumentIndex(uri string) *DocumentIndex {
	return &DocumentIndex{
		URI:                      source.NormalizeURI(uri),
		LocalVariables:           NewSymbolTable(),
		SubroutineLocalVariables: NewSymbolTable(),
		VariableReferences:       NewSymbolTable(),
		AchievementReferences:    NewSymbolTable(),
		Images:                   NewSymbolTable(),
		Labels:                   make(map[string]source.Location),
	}
}

// ProjectTables are the project-wide facts only the startup document defines.
type ProjectTables struct {
	GlobalVariables SymbolTable
	SceneList       []string
	// Achievements are keyed by lowercased codename.
	Achievements map[string]parser.Achievement
}

func emptyProjectTables() ProjectTables {
	return ProjectTables{
		GlobalVariables: NewSymbolTable(),
		Achievements:    make(map[string]parser.Achievement),
	}
}

// ProjectIndex is the symbol store for one project. It is safe for
// concurrent use.
type ProjectIndex struct {
	mu           sync.RWMutex
	docs         map[string]*DocumentIndex
	startupURI   string
	project      ProjectTables
	fullyIndexed bool
}

// New returns an empty index.
func New() *ProjectIndex {
	return &ProjectIndex{
		docs:    make(map[string]*DocumentIndex),
		project: emptyProjectTables(),
	}
}

// SetDocument stores doc, replacing any previous tables for its URI.
func (x *ProjectIndex) SetDocument(doc *DocumentIndex) {
	invariant.NotNil(doc, "doc")
	x.mu.Lock()
	defer x.mu.Unlock()
	x.docs[source.NormalizeURI(doc.URI)] = doc
}

// SetProject makes uri the startup document and replaces the project-wide
// tables in one step.
func (x *ProjectIndex) SetProject(uri string, tables ProjectTables) {
	if tables.GlobalVariables == nil {
		tables.GlobalVariables = NewSymbolTable()
	}
	if tables.Achievements == nil {
		tables.Achievements = make(map[string]parser.Achievement)
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	x.startupURI = source.NormalizeURI(uri)
	x.project = tables
}

// Document returns the tables for uri.
func (x *ProjectIndex) Document(uri string) (*DocumentIndex, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	doc, ok := x.docs[source.NormalizeURI(uri)]
	return doc, ok
}

// Documents returns the URIs of every indexed document, sorted.
func (x *ProjectIndex) Documents() []string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	uris := make([]string, 0, len(x.docs))
	for uri := range x.docs {
		uris = append(uris, uri)
	}
	sort.Strings(uris)
	return uris
}

// RemoveDocument deletes uri's tables. Removing the startup document also
// clears the project-wide tables.
func (x *ProjectIndex) RemoveDocument(uri string) {
	uri = source.NormalizeURI(uri)
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.docs, uri)
	if uri == x.startupURI {
		x.startupURI = ""
		x.project = emptyProjectTables()
	}
}

// StartupURI returns the startup document's URI, or "" if none is indexed.
func (x *ProjectIndex) StartupURI() string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.startupURI
}

// IsStartup reports whether uri is the startup document.
func (x *ProjectIndex) IsStartup(uri string) bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.startupURI != "" && x.startupURI == source.NormalizeURI(uri)
}

// GlobalVariables returns the *create'd variables.
func (x *ProjectIndex) GlobalVariables() SymbolTable {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.project.GlobalVariables
}

// SceneList returns the scenes named by *scene_list.
func (x *ProjectIndex) SceneList() []string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.project.SceneList
}

// Achievements returns the declared achievements keyed by lowercased
// codename.
func (x *ProjectIndex) Achievements() map[string]parser.Achievement {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.project.Achievements
}

// Achievement looks up one achievement by codename, in any casing.
func (x *ProjectIndex) Achievement(codename string) (parser.Achievement, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	a, ok := x.project.Achievements[symbolKey(codename)]
	return a, ok
}

// SetFullyIndexed records whether every document in the project has been
// indexed at least once.
func (x *ProjectIndex) SetFullyIndexed(done bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.fullyIndexed = done
}

// IsFullyIndexed reports whether cross-document checks can trust the index.
func (x *ProjectIndex) IsFullyIndexed() bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.fullyIndexed
}

// GetAllReferencedScenes returns the scene list followed by every other
// scene named literally in a *goto_scene or *gosub_scene anywhere in the
// project, without duplicates.
func (x *ProjectIndex) GetAllReferencedScenes() []string {
	x.mu.RLock()
	defer x.mu.RUnlock()

	seen := make(map[string]bool)
	var scenes []string
	add := func(s string) {
		if s != "" && !seen[s] {
			seen[s] = true
			scenes = append(scenes, s)
		}
	}
	for _, s := range x.project.SceneList {
		add(s)
	}

	uris := make([]string, 0, len(x.docs))
	for uri := range x.docs {
		uris = append(uris, uri)
	}
	sort.Strings(uris)
	for _, uri := range uris {
		for _, ev := range x.docs[uri].FlowControlEvents {
			if ev.HasScene() && !ev.SceneIsReference {
				add(ev.Scene)
			}
		}
	}
	return scenes
}

// GetSceneURI returns the URI of the file for scene, which lives next to
// the startup document. It returns "" until a startup document is known.
func (x *ProjectIndex) GetSceneURI(scene string) string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if x.startupURI == "" {
		return ""
	}
	return source.SiblingURI(x.startupURI, scene)
}

// Label returns where label was declared in uri.
func (x *ProjectIndex) Label(uri, label string) (source.Location, bool) {
	doc, ok := x.Document(uri)
	if !ok {
		return source.Location{}, false
	}
	loc, ok := doc.Labels[label]
	return loc, ok
}

// LocalDeclaration returns a declaration of the local variable name at or
// before pos in uri. The
// subroutine table is consulted first, so a variable set inside a *gosub
// subroutine counts as declared at the call site.
func (x *ProjectIndex) LocalDeclaration(uri, name string, pos source.Position) (source.Location, bool) {
	doc, ok := x.Document(uri)
	if !ok {
		return source.Location{}, false
	}
	for _, table := range []SymbolTable{doc.SubroutineLocalVariables, doc.LocalVariables} {
		sym, ok := table.Lookup(name)
		if !ok {
			continue
		}
		for _, loc := range sym.Locations {
			if !pos.Before(loc.Range.Start) {
				return loc, true
			}
		}
	}
	return source.Location{}, false
}
