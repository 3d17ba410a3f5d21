package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/sgranade/choicescript-vscode-sub001/core/diag"
	"github.com/sgranade/choicescript-vscode-sub001/runtime/expr"
)

func (a *app) exprCmd() *cobra.Command {
	var assign bool
	cmd := &cobra.Command{
		Use:   "expr [expression]",
		Short: "Show the type of an expression, or read expressions interactively",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			useColor := shouldUseColor(a.stdout, a.noColor)
			if len(args) == 1 {
				describeExpression(a.stdout, args[0], assign, useColor)
				return nil
			}
			return a.repl(assign, useColor)
		},
	}
	cmd.Flags().BoolVar(&assign, "assign", false, "Treat expressions as the value of a *set")
	return cmd
}

// repl reads expressions until EOF and prints the type of each.
func (a *app) repl(assign, useColor bool) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt: "> ",
		Stdout: a.stdout,
		Stderr: a.stderr,
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			fmt.Fprintln(a.stdout)
			return nil
		}
		if err != nil {
			return err
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		describeExpression(a.stdout, line, assign, useColor)
	}
}

// describeExpression prints the inferred type of text, then each issue with
// a caret under where it starts.
func describeExpression(out io.Writer, text string, assign, useColor bool) {
	e := expr.New(text, 0, assign)
	fmt.Fprintln(out, e.EvalType)
	for _, issue := range e.Issues() {
		col := issue.Span.Start
		if col > len(text) {
			col = len(text)
		}
		sev := diag.Colorize(issue.Severity.String(), diag.SeverityColor(issue.Severity), useColor)
		fmt.Fprintf(out, "  %s\n  %s^ %s: %s\n", text, strings.Repeat(" ", col), sev, issue.Message)
	}
}
