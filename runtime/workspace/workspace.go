// Package workspace indexes a ChoiceScript project on disk and keeps the
// index current as files change.
package workspace

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/crypto/blake2b"

	"github.com/sgranade/choicescript-vscode-sub001/core/diag"
	"github.com/sgranade/choicescript-vscode-sub001/core/invariant"
	"github.com/sgranade/choicescript-vscode-sub001/core/source"
	"github.com/sgranade/choicescript-vscode-sub001/internal/config"
	"github.com/sgranade/choicescript-vscode-sub001/runtime/index"
	"github.com/sgranade/choicescript-vscode-sub001/runtime/indexer"
	"github.com/sgranade/choicescript-vscode-sub001/runtime/validation"
)

// ErrNoStartup is returned when the project has no startup file.
var ErrNoStartup = errors.New("startup file not found")

// Option configures a Workspace.
type Option func(*Workspace)

// WithLogger sets the logger for workspace and indexing debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Workspace) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithConfig sets the project configuration. The default is
// config.Default().
func WithConfig(cfg *config.Config) Option {
	return func(w *Workspace) {
		if cfg != nil {
			w.cfg = cfg
		}
	}
}

// WithIndexerOptions passes extra options to every indexer run.
func WithIndexerOptions(opts ...indexer.Option) Option {
	return func(w *Workspace) {
		w.indexerOpts = append(w.indexerOpts, opts...)
	}
}

// Workspace is a project directory and the index built from it.
type Workspace struct {
	root        string
	cfg         *config.Config
	idx         *index.ProjectIndex
	logger      *slog.Logger
	indexerOpts []indexer.Option

	// refreshMu serializes watcher refreshes so the index is only marked
	// fully indexed once none is in progress.
	refreshMu sync.Mutex
}

// New returns a workspace rooted at root that indexes into idx.
func New(root string, idx *index.ProjectIndex, opts ...Option) *Workspace {
	invariant.NotNil(idx, "idx")
	w := &Workspace{
		root:   root,
		cfg:    config.Default(),
		idx:    idx,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Index returns the project index.
func (w *Workspace) Index() *index.ProjectIndex { return w.idx }

// SceneDir returns the directory holding the scene files.
func (w *Workspace) SceneDir() string { return w.cfg.SceneDir(w.root) }

// ScenePath returns the file for a scene name.
func (w *Workspace) ScenePath(scene string) string {
	return filepath.Join(w.SceneDir(), scene+".txt")
}

// Discover indexes the startup file, then every scene it leads to, then the
// stats file, and marks the index fully indexed.
func (w *Workspace) Discover(ctx context.Context) error {
	startup := filepath.Join(w.SceneDir(), w.cfg.StartupFile)
	if _, err := os.Stat(startup); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNoStartup, startup)
		}
		return fmt.Errorf("stat startup file: %w", err)
	}
	if _, err := w.IndexFile(startup); err != nil {
		return err
	}
	if err := w.indexReferencedScenes(ctx); err != nil {
		return err
	}

	stats := filepath.Join(w.SceneDir(), w.cfg.StatsFile)
	if _, err := os.Stat(stats); err == nil {
		if _, err := w.IndexFile(stats); err != nil {
			return err
		}
		if err := w.indexReferencedScenes(ctx); err != nil {
			return err
		}
	}

	w.idx.SetFullyIndexed(true)
	w.logger.Debug("project indexed", "root", w.root, "documents", len(w.idx.Documents()))
	return nil
}

// indexReferencedScenes indexes referenced scenes until no new ones turn up.
// Scenes without a file are skipped; the validator reports them.
func (w *Workspace) indexReferencedScenes(ctx context.Context) error {
	seen := make(map[string]bool)
	queue := w.idx.GetAllReferencedScenes()
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		scene := queue[0]
		queue = queue[1:]
		if seen[scene] {
			continue
		}
		seen[scene] = true

		p := w.ScenePath(scene)
		if w.cfg.Ignored(filepath.Base(p)) {
			continue
		}
		if _, err := os.Stat(p); err != nil {
			w.logger.Debug("referenced scene has no file", "scene", scene, "path", p)
			continue
		}
		if _, err := w.IndexFile(p); err != nil {
			return err
		}
		queue = append(queue, w.idx.GetAllReferencedScenes()...)
	}
	return nil
}

// IndexFile indexes one file, unless its tables were already built from the
// same text. It reports whether the file was parsed.
func (w *Workspace) IndexFile(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("read scene: %w", err)
	}
	uri := source.FileURI(path)
	hash := contentHash(data)
	if doc, ok := w.idx.Document(uri); ok && doc.ContentHash == hash {
		w.logger.Debug("scene unchanged", "uri", uri)
		return false, nil
	}

	base := filepath.Base(path)
	opts := append([]indexer.Option{indexer.WithLogger(w.logger), indexer.WithContentHash(hash)}, w.indexerOpts...)
	scenes := indexer.UpdateProjectIndex(source.NewTextDocument(uri, string(data)),
		base == w.cfg.StartupFile, base == w.cfg.StatsFile, w.idx, opts...)
	if len(scenes) > 0 {
		w.logger.Debug("scheduled scenes", "uri", uri, "scenes", scenes)
	}
	return true, nil
}

// RemoveFile drops a deleted file from the index.
func (w *Workspace) RemoveFile(path string) {
	w.idx.RemoveDocument(source.FileURI(path))
}

// Diagnostics returns the parse and validation diagnostics for one document.
func (w *Workspace) Diagnostics(uri string) []diag.Diagnostic {
	doc, ok := w.idx.Document(uri)
	if !ok {
		return nil
	}
	diags := append([]diag.Diagnostic(nil), doc.ParseErrors...)
	diags = append(diags, validation.Validate(uri, w.idx)...)
	diag.Sort(diags)
	return diags
}

// AllDiagnostics returns the diagnostics of every indexed document.
func (w *Workspace) AllDiagnostics() []diag.Diagnostic {
	var diags []diag.Diagnostic
	for _, uri := range w.idx.Documents() {
		diags = append(diags, w.Diagnostics(uri)...)
	}
	return diags
}

// LoadSnapshot restores the index from a snapshot file, if it exists.
func (w *Workspace) LoadSnapshot(path string) error {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()
	if err := w.idx.ReadSnapshot(f); err != nil {
		return err
	}
	// Files may have changed since the snapshot was taken.
	w.idx.SetFullyIndexed(false)
	return nil
}

// SaveSnapshot writes the index to a snapshot file.
func (w *Workspace) SaveSnapshot(path string) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	if err := w.idx.WriteSnapshot(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close snapshot: %w", err)
	}
	return os.Rename(tmp, path)
}

func contentHash(data []byte) string {
	sum := blake2b.Sum256(data)
	return "blake2b:" + hex.EncodeToString(sum[:])
}

func isSceneFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".txt")
}
