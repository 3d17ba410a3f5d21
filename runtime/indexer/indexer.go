// Package indexer folds the parser's events for one document into a
// project index.
package indexer

import (
	"io"
	"log/slog"

	"github.com/sgranade/choicescript-vscode-sub001/core/diag"
	"github.com/sgranade/choicescript-vscode-sub001/core/invariant"
	"github.com/sgranade/choicescript-vscode-sub001/core/source"
	"github.com/sgranade/choicescript-vscode-sub001/runtime/index"
	"github.com/sgranade/choicescript-vscode-sub001/runtime/parser"
)

// Option configures UpdateProjectIndex.
type Option func(*config)

type config struct {
	logger      *slog.Logger
	parserOpts  []parser.Option
	contentHash string
}

// WithLogger sets the logger used for indexing debug output. It is also
// passed to the parser.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithContentHash records the hash of the document's text in its tables.
func WithContentHash(hash string) Option {
	return func(c *config) {
		c.contentHash = hash
	}
}

// WithParserOptions passes extra options to the parser.
func WithParserOptions(opts ...parser.Option) Option {
	return func(c *config) {
		c.parserOpts = append(c.parserOpts, opts...)
	}
}

// UpdateProjectIndex parses doc and replaces its tables in idx. The
// startup document also replaces the project-wide tables. It returns the
// scenes that became referenced because of this document, for the caller
// to index next.
func UpdateProjectIndex(doc source.Document, isStartup, isStatsFile bool, idx *index.ProjectIndex, opts ...Option) []string {
	invariant.NotNil(doc, "doc")
	invariant.NotNil(idx, "idx")

	cfg := &config{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(cfg)
	}

	before := make(map[string]bool)
	for _, s := range idx.GetAllReferencedScenes() {
		before[s] = true
	}

	c := newCollector(doc, isStartup, isStatsFile)
	c.doc.ContentHash = cfg.contentHash
	parserOpts := append([]parser.Option{parser.WithStartup(isStartup), parser.WithLogger(cfg.logger)}, cfg.parserOpts...)
	parser.Parse(doc, c, parserOpts...)

	c.finishScopes()
	hoisted := c.hoistSubroutineLocals()
	for _, h := range hoisted {
		cfg.logger.Debug("hoisted subroutine variable",
			"uri", c.doc.URI,
			"variable", h.name,
			"label", h.label,
			"call", h.call.Range.Start.String())
	}
	c.checkReturns()

	idx.SetDocument(c.doc)
	if isStartup {
		idx.SetProject(doc.URI(), index.ProjectTables{
			GlobalVariables: c.globals,
			SceneList:       c.sceneList,
			Achievements:    c.achievements,
		})
	}

	var added []string
	for _, s := range idx.GetAllReferencedScenes() {
		if !before[s] {
			added = append(added, s)
		}
	}

	cfg.logger.Debug("indexed document",
		"uri", c.doc.URI,
		"startup", isStartup,
		"local_variables", len(c.doc.LocalVariables),
		"labels", len(c.doc.Labels),
		"flow_control_events", len(c.doc.FlowControlEvents),
		"diagnostics", len(c.doc.ParseErrors),
		"errors", diag.CountErrors(c.doc.ParseErrors),
		"new_scenes", added)
	return added
}
