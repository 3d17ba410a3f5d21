package workspace

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sgranade/choicescript-vscode-sub001/core/source"
	"github.com/sgranade/choicescript-vscode-sub001/internal/config"
	"github.com/sgranade/choicescript-vscode-sub001/runtime/index"
)

const startupText = `*create strength 50
*scene_list
  startup
  chapter1
`

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, text := range files {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(text), 0o644))
	}
}

func sceneNames(idx *index.ProjectIndex) []string {
	var names []string
	for _, uri := range idx.Documents() {
		names = append(names, source.SceneName(uri))
	}
	return names
}

func newProject(t *testing.T, files map[string]string, opts ...Option) (*Workspace, string) {
	t.Helper()
	root := t.TempDir()
	writeFiles(t, root, files)
	return New(root, index.New(), opts...), root
}

func TestDiscoverFollowsReferencedScenes(t *testing.T) {
	w, _ := newProject(t, map[string]string{
		"startup.txt":            startupText,
		"chapter1.txt":           "*goto_scene chapter2\n",
		"chapter2.txt":           "*temp x 1\n${x}\n*goto_scene epilogue\n",
		"orphan.txt":             "Never referenced.\n",
		"choicescript_stats.txt": "${strength}\n",
	})

	require.NoError(t, w.Discover(context.Background()))

	want := []string{"chapter1", "chapter2", "choicescript_stats", "startup"}
	if diff := cmp.Diff(want, sceneNames(w.Index())); diff != "" {
		t.Errorf("indexed scenes mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, w.Index().IsFullyIndexed())

	stats, ok := w.Index().Document(source.FileURI(filepath.Join(w.SceneDir(), "choicescript_stats.txt")))
	require.True(t, ok)
	assert.True(t, stats.IsStatsFile)

	var missing []string
	for _, d := range w.AllDiagnostics() {
		if strings.HasPrefix(d.Message, `Scene "epilogue" wasn't found`) {
			missing = append(missing, d.Location.URI)
		}
	}
	assert.Equal(t, []string{source.FileURI(filepath.Join(w.SceneDir(), "chapter2.txt"))}, missing)
}

func TestDiscoverWithoutStartup(t *testing.T) {
	w, _ := newProject(t, map[string]string{"chapter1.txt": "Hi\n"})

	err := w.Discover(context.Background())
	assert.True(t, errors.Is(err, ErrNoStartup), "got %v", err)
	assert.False(t, w.Index().IsFullyIndexed())
}

func TestDiscoverHonorsConfig(t *testing.T) {
	cfg := config.Default()
	cfg.SceneDirectory = "scenes"
	cfg.Ignore = []string{"chapter1.txt"}
	w, _ := newProject(t, map[string]string{
		"scenes/startup.txt":  startupText,
		"scenes/chapter1.txt": "Ignored.\n",
	}, WithConfig(cfg))

	require.NoError(t, w.Discover(context.Background()))
	assert.Equal(t, []string{"startup"}, sceneNames(w.Index()))
}

func TestDiscoverStopsWhenCancelled(t *testing.T) {
	w, _ := newProject(t, map[string]string{
		"startup.txt":  startupText,
		"chapter1.txt": "Hi\n",
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, w.Discover(ctx), context.Canceled)
	assert.False(t, w.Index().IsFullyIndexed())
}

func TestIndexFileSkipsUnchangedText(t *testing.T) {
	w, root := newProject(t, map[string]string{"chapter1.txt": "*temp a 1\n"})
	p := filepath.Join(root, "chapter1.txt")

	changed, err := w.IndexFile(p)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = w.IndexFile(p)
	require.NoError(t, err)
	assert.False(t, changed, "same text should not be parsed again")

	writeFiles(t, root, map[string]string{"chapter1.txt": "*temp b 1\n"})
	changed, err = w.IndexFile(p)
	require.NoError(t, err)
	assert.True(t, changed)

	doc, ok := w.Index().Document(source.FileURI(p))
	require.True(t, ok)
	assert.Equal(t, []string{"b"}, doc.LocalVariables.Names())
	assert.True(t, strings.HasPrefix(doc.ContentHash, "blake2b:"))
}

func TestIndexFileMissing(t *testing.T) {
	w, root := newProject(t, nil)
	_, err := w.IndexFile(filepath.Join(root, "nope.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRemoveFile(t *testing.T) {
	w, root := newProject(t, map[string]string{"startup.txt": startupText, "chapter1.txt": "Hi\n"})
	require.NoError(t, w.Discover(context.Background()))

	w.RemoveFile(filepath.Join(root, "chapter1.txt"))
	assert.Equal(t, []string{"startup"}, sceneNames(w.Index()))
}

func TestDiagnosticsCombineParseAndValidation(t *testing.T) {
	w, root := newProject(t, map[string]string{
		"startup.txt":  startupText,
		"chapter1.txt": "${missing}\n*bogus\n",
	})
	require.NoError(t, w.Discover(context.Background()))

	diags := w.Diagnostics(source.FileURI(filepath.Join(root, "chapter1.txt")))
	require.Len(t, diags, 2)
	assert.Equal(t, 0, diags[0].Location.Range.Start.Line)
	assert.True(t, strings.HasPrefix(diags[0].Message, `Variable "missing" not defined`), diags[0].Message)
	assert.Equal(t, 1, diags[1].Location.Range.Start.Line)

	assert.Nil(t, w.Diagnostics("file:///elsewhere/none.txt"))
}

func TestSnapshotRoundTrip(t *testing.T) {
	w, root := newProject(t, map[string]string{"startup.txt": startupText, "chapter1.txt": "Hi\n"})
	require.NoError(t, w.Discover(context.Background()))
	snap := filepath.Join(root, "index.cbor")
	require.NoError(t, w.SaveSnapshot(snap))
	_, err := os.Stat(snap + ".tmp")
	assert.True(t, os.IsNotExist(err))

	restored := New(root, index.New())
	require.NoError(t, restored.LoadSnapshot(snap))
	assert.Equal(t, sceneNames(w.Index()), sceneNames(restored.Index()))
	assert.False(t, restored.Index().IsFullyIndexed())

	changed, err := restored.IndexFile(filepath.Join(root, "chapter1.txt"))
	require.NoError(t, err)
	assert.False(t, changed, "snapshot hashes should match the files on disk")
}

func TestLoadSnapshotMissingFile(t *testing.T) {
	w, root := newProject(t, nil)
	assert.NoError(t, w.LoadSnapshot(filepath.Join(root, "none.cbor")))
}

func TestWatchReindexesChangedScene(t *testing.T) {
	cfg := config.Default()
	cfg.DebounceMillis = 10
	w, root := newProject(t, map[string]string{"startup.txt": startupText, "chapter1.txt": "Hi\n"}, WithConfig(cfg))
	require.NoError(t, w.Discover(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- w.Watch(ctx, func([]string) { calls.Add(1) })
	}()

	uri := source.FileURI(filepath.Join(root, "chapter1.txt"))
	n := 0
	require.Eventually(t, func() bool {
		// Rewrite each time in case the watcher wasn't registered yet.
		n++
		writeFiles(t, root, map[string]string{"chapter1.txt": strings.Repeat("*temp fresh 1\n", n)})
		doc, ok := w.Index().Document(uri)
		return ok && doc.LocalVariables.Has("fresh")
	}, 5*time.Second, 50*time.Millisecond)
	assert.Eventually(t, func() bool { return calls.Load() > 0 }, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestConcurrentRefreshesLeaveIndexComplete(t *testing.T) {
	files := map[string]string{"startup.txt": startupText}
	for i := 0; i < 8; i++ {
		files[fmt.Sprintf("scene%d.txt", i)] = "Hi\n"
	}
	w, root := newProject(t, files)
	require.NoError(t, w.Discover(context.Background()))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		path := filepath.Join(root, fmt.Sprintf("scene%d.txt", i))
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.refresh(context.Background(), path)
		}()
	}
	wg.Wait()

	assert.True(t, w.Index().IsFullyIndexed())
	for i := 0; i < 8; i++ {
		_, ok := w.Index().Document(source.FileURI(filepath.Join(root, fmt.Sprintf("scene%d.txt", i))))
		assert.True(t, ok, "scene%d", i)
	}
}

func TestRefreshWaitsForRefreshInProgress(t *testing.T) {
	w, root := newProject(t, map[string]string{"startup.txt": startupText, "chapter1.txt": "*temp a 1\n"})
	require.NoError(t, w.Discover(context.Background()))

	// Stand in for a refresh that is still running.
	w.refreshMu.Lock()
	w.Index().SetFullyIndexed(false)

	done := make(chan struct{})
	go func() {
		defer close(done)
		w.refresh(context.Background(), filepath.Join(root, "chapter1.txt"))
	}()

	assert.Never(t, w.Index().IsFullyIndexed, 50*time.Millisecond, 5*time.Millisecond)

	w.Index().SetFullyIndexed(true)
	w.refreshMu.Unlock()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("refresh did not finish")
	}
	assert.True(t, w.Index().IsFullyIndexed())
}

func TestDebouncerCoalesces(t *testing.T) {
	d := newDebouncer(20 * time.Millisecond)
	defer d.stop()

	var runs atomic.Int32
	for i := 0; i < 5; i++ {
		d.trigger("a", func() { runs.Add(1) })
	}
	d.trigger("b", func() { runs.Add(10) })
	d.cancel("b")

	assert.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), runs.Load())
}
