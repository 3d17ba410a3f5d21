// Command csindex indexes a ChoiceScript project and reports on it.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sgranade/choicescript-vscode-sub001/internal/config"
	"github.com/sgranade/choicescript-vscode-sub001/runtime/index"
	"github.com/sgranade/choicescript-vscode-sub001/runtime/workspace"
)

// errProblemsFound makes the process exit 1 without printing anything more.
var errProblemsFound = errors.New("problems found")

type app struct {
	project  string
	snapshot string
	debug    bool
	noColor  bool

	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := newRootCmd(os.Stdout, os.Stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errProblemsFound) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	rootCmd := &cobra.Command{
		Use:           "csindex",
		Short:         "Index and check ChoiceScript projects",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.logger = newLogger(a.stderr, a.debug || os.Getenv("CSINDEX_DEBUG") != "")
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.PersistentFlags().StringVarP(&a.project, "project", "p", ".", "Project root directory")
	rootCmd.PersistentFlags().StringVar(&a.snapshot, "snapshot", "", "Index snapshot file (overrides csproject.json)")
	rootCmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug output")
	rootCmd.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(
		a.checkCmd(),
		a.symbolsCmd(),
		a.scenesCmd(),
		a.searchCmd(),
		a.watchCmd(),
		a.exprCmd(),
	)
	return rootCmd
}

func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	}))
}

// openWorkspace loads the project configuration and a snapshot if one is
// configured.
func (a *app) openWorkspace() (*workspace.Workspace, *config.Config, error) {
	cfg, err := config.Load(a.project)
	if err != nil {
		return nil, nil, err
	}
	if a.snapshot != "" {
		cfg.Snapshot = a.snapshot
	}
	w := workspace.New(a.project, index.New(), workspace.WithConfig(cfg), workspace.WithLogger(a.logger))
	if cfg.Snapshot != "" {
		if err := w.LoadSnapshot(a.snapshotPath(cfg)); err != nil {
			a.logger.Warn("ignoring snapshot", "error", err)
		}
	}
	return w, cfg, nil
}

// discover indexes the whole project and saves the snapshot.
func (a *app) discover(ctx context.Context) (*workspace.Workspace, error) {
	w, cfg, err := a.openWorkspace()
	if err != nil {
		return nil, err
	}
	if err := w.Discover(ctx); err != nil {
		return nil, err
	}
	if cfg.Snapshot != "" {
		if err := w.SaveSnapshot(a.snapshotPath(cfg)); err != nil {
			a.logger.Warn("could not save snapshot", "error", err)
		}
	}
	return w, nil
}

func (a *app) snapshotPath(cfg *config.Config) string {
	if filepath.IsAbs(cfg.Snapshot) {
		return cfg.Snapshot
	}
	return filepath.Join(a.project, cfg.Snapshot)
}
