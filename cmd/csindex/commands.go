package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sgranade/choicescript-vscode-sub001/core/diag"
	"github.com/sgranade/choicescript-vscode-sub001/core/source"
	"github.com/sgranade/choicescript-vscode-sub001/runtime/index"
	"github.com/sgranade/choicescript-vscode-sub001/runtime/workspace"
)

func (a *app) checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [scene...]",
		Short: "Report problems in the project or the named scenes",
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := a.discover(cmd.Context())
			if err != nil {
				return err
			}
			diags, err := sceneDiagnostics(w, args)
			if err != nil {
				return err
			}
			diag.Write(a.stdout, diags, shouldUseColor(a.stdout, a.noColor))
			if diag.CountErrors(diags) > 0 {
				return errProblemsFound
			}
			return nil
		},
	}
}

// sceneDiagnostics returns the diagnostics of the named scenes, or of every
// indexed document if none are named.
func sceneDiagnostics(w *workspace.Workspace, scenes []string) ([]diag.Diagnostic, error) {
	if len(scenes) == 0 {
		return w.AllDiagnostics(), nil
	}
	var diags []diag.Diagnostic
	for _, scene := range scenes {
		uri := w.Index().GetSceneURI(scene)
		if _, ok := w.Index().Document(uri); !ok {
			return nil, fmt.Errorf("scene %q is not part of the project", scene)
		}
		diags = append(diags, w.Diagnostics(uri)...)
	}
	return diags, nil
}

func (a *app) symbolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "symbols <scene>",
		Short: "List the labels, variables and flow control of a scene",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := a.discover(cmd.Context())
			if err != nil {
				return err
			}
			doc, ok := w.Index().Document(w.Index().GetSceneURI(args[0]))
			if !ok {
				return fmt.Errorf("scene %q is not part of the project", args[0])
			}
			writeSymbols(a.stdout, doc)
			return nil
		},
	}
}

func writeSymbols(out io.Writer, doc *index.DocumentIndex) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintf(tw, "scene %s\n", source.SceneName(doc.URI))

	labels := make([]string, 0, len(doc.Labels))
	for name := range doc.Labels {
		labels = append(labels, name)
	}
	sort.Slice(labels, func(i, j int) bool {
		return doc.Labels[labels[i]].Before(doc.Labels[labels[j]])
	})
	if len(labels) > 0 {
		fmt.Fprintln(tw, "\nlabels:")
		for _, name := range labels {
			fmt.Fprintf(tw, "  %s\t%s\n", name, position(doc.Labels[name]))
		}
	}

	writeTable(tw, "local variables", doc.LocalVariables)
	writeTable(tw, "subroutine variables", doc.SubroutineLocalVariables)
	writeTable(tw, "references", doc.VariableReferences)
	writeTable(tw, "achievements", doc.AchievementReferences)
	writeTable(tw, "images", doc.Images)

	if len(doc.FlowControlEvents) > 0 {
		fmt.Fprintln(tw, "\nflow control:")
		for _, ev := range doc.FlowControlEvents {
			var target []string
			if ev.HasScene() {
				target = append(target, ev.Scene)
			}
			if ev.HasLabel() {
				target = append(target, ev.Label)
			}
			fmt.Fprintf(tw, "  *%s\t%s\t%s\n", ev.Command, strings.Join(target, " "), position(ev.CommandLocation))
		}
	}
}

func writeTable(out io.Writer, title string, table index.SymbolTable) {
	names := table.Names()
	if len(names) == 0 {
		return
	}
	fmt.Fprintf(out, "\n%s:\n", title)
	for _, name := range names {
		sym, _ := table.Lookup(name)
		positions := make([]string, len(sym.Locations))
		for i, loc := range sym.Locations {
			positions[i] = position(loc)
		}
		fmt.Fprintf(out, "  %s\t%s\n", sym.Name, strings.Join(positions, ", "))
	}
}

// position formats a location's start the way editors count: from 1.
func position(loc source.Location) string {
	return fmt.Sprintf("%d:%d", loc.Range.Start.Line+1, loc.Range.Start.Character+1)
}

func (a *app) scenesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scenes",
		Short: "List every scene the project refers to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := a.discover(cmd.Context())
			if err != nil {
				return err
			}
			for _, scene := range w.Index().GetAllReferencedScenes() {
				mark := ""
				if _, ok := w.Index().Document(w.Index().GetSceneURI(scene)); !ok {
					mark = " (missing)"
				}
				fmt.Fprintf(a.stdout, "%s%s\n", scene, mark)
			}
			return nil
		},
	}
}

func (a *app) searchCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Fuzzy-search variables, labels, achievements and scenes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := a.discover(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			for _, m := range w.Index().Search(args[0], limit) {
				fmt.Fprintf(tw, "%s\t%s\t%s:%s\n", m.Name, m.Kind, source.SceneName(m.Location.URI), position(m.Location))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of results (0 for all)")
	return cmd
}

func (a *app) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Check the project, then re-check scenes as they change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := a.discover(cmd.Context())
			if err != nil {
				return err
			}
			useColor := shouldUseColor(a.stdout, a.noColor)
			diag.Write(a.stdout, w.AllDiagnostics(), useColor)

			err = w.Watch(cmd.Context(), func(uris []string) {
				for _, uri := range uris {
					fmt.Fprintf(a.stdout, "-- %s\n", source.URIToPath(uri))
				}
				// Changing one scene can fix or break references in the others.
				diag.Write(a.stdout, w.AllDiagnostics(), useColor)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}
