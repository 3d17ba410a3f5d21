package index

import (
	"bytes"
	"errors"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sgranade/choicescript-vscode-sub001/core/source"
	"github.com/sgranade/choicescript-vscode-sub001/runtime/parser"
)

const (
	startupURI = "file:///game/scenes/startup.txt"
	chapterURI = "file:///game/scenes/chapter1.txt"
)

func at(uri string, line, char int) source.Location {
	pos := source.Position{Line: line, Character: char}
	return source.Location{URI: uri, Range: source.Range{Start: pos, End: pos}}
}

func TestSymbolTableIsCaseInsensitive(t *testing.T) {
	table := NewSymbolTable()
	table.Add("Strength", at(chapterURI, 0, 0))
	table.Add("STRENGTH", at(chapterURI, 4, 0))

	sym, ok := table.Lookup("strength")
	require.True(t, ok)
	assert.Equal(t, "Strength", sym.Name)
	assert.Len(t, sym.Locations, 2)
	assert.Equal(t, []string{"Strength"}, table.Names())

	first, ok := table.First("sTrEnGtH")
	require.True(t, ok)
	assert.Equal(t, 0, first.Range.Start.Line)
	assert.False(t, table.Has("wisdom"))
}

func TestSymbolTableClone(t *testing.T) {
	table := NewSymbolTable()
	table.Add("x", at(chapterURI, 0, 0))
	clone := table.Clone()
	clone.Add("x", at(chapterURI, 1, 0))
	clone.Add("y", at(chapterURI, 2, 0))

	sym, _ := table.Lookup("x")
	assert.Len(t, sym.Locations, 1)
	assert.False(t, table.Has("y"))
}

func TestSetDocumentReplacesWholesale(t *testing.T) {
	idx := New()
	first := NewDocumentIndex(chapterURI)
	first.LocalVariables.Add("a", at(chapterURI, 0, 0))
	idx.SetDocument(first)

	second := NewDocumentIndex(chapterURI)
	second.LocalVariables.Add("b", at(chapterURI, 0, 0))
	idx.SetDocument(second)

	doc, ok := idx.Document(chapterURI)
	require.True(t, ok)
	assert.Equal(t, []string{"b"}, doc.LocalVariables.Names())
	assert.Equal(t, []string{chapterURI}, idx.Documents())
}

func TestDocumentURIsAreNormalized(t *testing.T) {
	idx := New()
	idx.SetDocument(NewDocumentIndex("FILE:///c%3A/game/startup.txt"))

	_, ok := idx.Document("file:///C:/game/startup.txt")
	assert.True(t, ok)
}

func TestRemoveStartupClearsProjectTables(t *testing.T) {
	idx := New()
	globals := NewSymbolTable()
	globals.Add("strength", at(startupURI, 0, 8))
	idx.SetDocument(NewDocumentIndex(startupURI))
	idx.SetDocument(NewDocumentIndex(chapterURI))
	idx.SetProject(startupURI, ProjectTables{
		GlobalVariables: globals,
		SceneList:       []string{"startup", "chapter1"},
		Achievements:    map[string]parser.Achievement{"brave": {Codename: "Brave", Points: 10}},
	})

	a, ok := idx.Achievement("BRAVE")
	require.True(t, ok)
	assert.Equal(t, 10, a.Points)

	idx.RemoveDocument(chapterURI)
	assert.True(t, idx.GlobalVariables().Has("strength"))
	assert.True(t, idx.IsStartup(startupURI))

	idx.RemoveDocument(startupURI)
	assert.Empty(t, idx.Documents())
	assert.Empty(t, idx.GlobalVariables())
	assert.Empty(t, idx.SceneList())
	assert.Empty(t, idx.Achievements())
	assert.Equal(t, "", idx.StartupURI())
	assert.Equal(t, "", idx.GetSceneURI("chapter1"))
}

func TestGetAllReferencedScenes(t *testing.T) {
	idx := New()
	idx.SetProject(startupURI, ProjectTables{SceneList: []string{"startup", "chapter1"}})

	doc := NewDocumentIndex(chapterURI)
	doc.FlowControlEvents = []parser.FlowControlEvent{
		{Command: "goto_scene", Scene: "chapter2"},
		{Command: "gosub_scene", Scene: "chapter1", Label: "intro"},
		{Command: "goto_scene", Scene: "{next}", SceneIsReference: true},
		{Command: "goto", Label: "end"},
		{Command: "goto_scene", Scene: "epilogue"},
	}
	idx.SetDocument(doc)

	want := []string{"startup", "chapter1", "chapter2", "epilogue"}
	if diff := cmp.Diff(want, idx.GetAllReferencedScenes()); diff != "" {
		t.Errorf("referenced scenes mismatch (-want +got):\n%s", diff)
	}
}

func TestGetSceneURI(t *testing.T) {
	idx := New()
	assert.Equal(t, "", idx.GetSceneURI("chapter1"))

	idx.SetProject(startupURI, ProjectTables{})
	assert.Equal(t, chapterURI, idx.GetSceneURI("chapter1"))
}

func TestFullyIndexedFlag(t *testing.T) {
	idx := New()
	assert.False(t, idx.IsFullyIndexed())
	idx.SetFullyIndexed(true)
	assert.True(t, idx.IsFullyIndexed())
}

func TestLocalDeclaration(t *testing.T) {
	idx := New()
	doc := NewDocumentIndex(chapterURI)
	doc.LocalVariables.Add("v", at(chapterURI, 10, 6))
	doc.LocalVariables.Add("w", at(chapterURI, 2, 6))
	doc.SubroutineLocalVariables.Add("v", at(chapterURI, 1, 0))
	idx.SetDocument(doc)

	tests := []struct {
		name  string
		line  int
		found bool
		want  int
	}{
		{"before the call site", 0, false, 0},
		{"after the call site", 3, true, 1},
		{"after the raw declaration", 11, true, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, ok := idx.LocalDeclaration(chapterURI, "V", source.Position{Line: tt.line})
			assert.Equal(t, tt.found, ok)
			if ok {
				assert.Equal(t, tt.want, loc.Range.Start.Line)
			}
		})
	}

	loc, ok := idx.LocalDeclaration(chapterURI, "w", source.Position{Line: 5})
	require.True(t, ok)
	assert.Equal(t, 2, loc.Range.Start.Line)

	_, ok = idx.LocalDeclaration(chapterURI, "w", source.Position{Line: 1})
	assert.False(t, ok)
	_, ok = idx.LocalDeclaration("file:///game/scenes/missing.txt", "w", source.Position{Line: 5})
	assert.False(t, ok)
}

func TestLabelsAreCaseSensitive(t *testing.T) {
	idx := New()
	doc := NewDocumentIndex(chapterURI)
	doc.Labels["Start"] = at(chapterURI, 3, 7)
	idx.SetDocument(doc)

	_, ok := idx.Label(chapterURI, "Start")
	assert.True(t, ok)
	_, ok = idx.Label(chapterURI, "start")
	assert.False(t, ok)
}

func TestSearch(t *testing.T) {
	idx := New()
	globals := NewSymbolTable()
	globals.Add("strength", at(startupURI, 1, 8))
	globals.Add("stealth", at(startupURI, 2, 8))
	idx.SetProject(startupURI, ProjectTables{
		GlobalVariables: globals,
		SceneList:       []string{"strongroom"},
	})
	doc := NewDocumentIndex(chapterURI)
	doc.LocalVariables.Add("str_bonus", at(chapterURI, 0, 6))
	doc.Labels["strike"] = at(chapterURI, 4, 7)
	idx.SetDocument(doc)

	matches := idx.Search("str", 0)
	var names []string
	for _, m := range matches {
		names = append(names, m.Name)
	}
	assert.ElementsMatch(t, []string{"strength", "str_bonus", "strike", "strongroom"}, names)
	assert.NotContains(t, names, "stealth")

	for i := 1; i < len(matches); i++ {
		assert.LessOrEqual(t, matches[i-1].Distance, matches[i].Distance)
	}

	limited := idx.Search("str", 2)
	assert.Len(t, limited, 2)

	scene := idx.Search("strongroom", 1)
	require.Len(t, scene, 1)
	assert.Equal(t, KindScene, scene[0].Kind)
	assert.Equal(t, "file:///game/scenes/strongroom.txt", scene[0].Location.URI)
}

func TestSnapshotRoundTrip(t *testing.T) {
	idx := New()
	globals := NewSymbolTable()
	globals.Add("Strength", at(startupURI, 1, 8))
	idx.SetProject(startupURI, ProjectTables{
		GlobalVariables: globals,
		SceneList:       []string{"startup", "chapter1"},
		Achievements:    map[string]parser.Achievement{"brave": {Codename: "brave", Visible: true, Points: 10, Title: "Brave"}},
	})
	doc := NewDocumentIndex(chapterURI)
	doc.LocalVariables.Add("v", at(chapterURI, 2, 6))
	doc.Labels["start"] = at(chapterURI, 0, 7)
	doc.FlowControlEvents = []parser.FlowControlEvent{{Command: "goto", Label: "start"}}
	doc.Scopes.Choices = []source.Range{{End: source.Position{Line: 3, Character: 5}}}
	idx.SetDocument(doc)
	idx.SetFullyIndexed(true)

	var buf bytes.Buffer
	require.NoError(t, idx.WriteSnapshot(&buf))

	restored := New()
	require.NoError(t, restored.ReadSnapshot(bytes.NewReader(buf.Bytes())))

	assert.Equal(t, startupURI, restored.StartupURI())
	assert.True(t, restored.IsFullyIndexed())
	assert.Equal(t, idx.SceneList(), restored.SceneList())
	if diff := cmp.Diff(idx.GlobalVariables(), restored.GlobalVariables()); diff != "" {
		t.Errorf("globals mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(idx.Achievements(), restored.Achievements()); diff != "" {
		t.Errorf("achievements mismatch (-want +got):\n%s", diff)
	}
	got, ok := restored.Document(chapterURI)
	require.True(t, ok)
	if diff := cmp.Diff(doc, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestSnapshotIsDeterministic(t *testing.T) {
	build := func() *ProjectIndex {
		idx := New()
		doc := NewDocumentIndex(chapterURI)
		for _, name := range []string{"a", "b", "c", "d"} {
			doc.LocalVariables.Add(name, at(chapterURI, 0, 0))
		}
		idx.SetDocument(doc)
		return idx
	}

	var first, second bytes.Buffer
	require.NoError(t, build().WriteSnapshot(&first))
	require.NoError(t, build().WriteSnapshot(&second))
	assert.Equal(t, first.Bytes(), second.Bytes())
}

func TestSnapshotVersionMismatch(t *testing.T) {
	tests := []string{"v2.0.0", "garbage", ""}
	for _, version := range tests {
		t.Run(version, func(t *testing.T) {
			data, err := cbor.Marshal(snapshotFile{Version: version})
			require.NoError(t, err)

			idx := New()
			idx.SetFullyIndexed(true)
			err = idx.ReadSnapshot(bytes.NewReader(data))
			assert.True(t, errors.Is(err, ErrSnapshotVersion), "got %v", err)
			assert.True(t, idx.IsFullyIndexed(), "index must be unchanged")
		})
	}
}

func TestSnapshotAcceptsMinorVersions(t *testing.T) {
	body, err := cbor.Marshal(snapshotBody{StartupURI: startupURI})
	require.NoError(t, err)
	data, err := cbor.Marshal(snapshotFile{Version: "v1.3.0", Body: body})
	require.NoError(t, err)

	idx := New()
	require.NoError(t, idx.ReadSnapshot(bytes.NewReader(data)))
	assert.Equal(t, startupURI, idx.StartupURI())
}
