package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/termfolio/termfolio/internal/env"
	"github.com/termfolio/termfolio/internal/output"
	"github.com/termfolio/termfolio/internal/session"
	"github.com/termfolio/termfolio/internal/tui"
)

func replCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Browse the mounts in an interactive terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := localSession(cmd.Context())
			if err != nil {
				return err
			}
			return tui.Run(cmd.Context(), sess)
		},
	}
}

func execCmd() *cobra.Command {
	var echo bool
	cmd := &cobra.Command{
		Use:   "exec [line]",
		Short: "Run one line, or each line of stdin, and print the output",
		Example: `  termfolio exec 'ls -l | head -3'
  printf 'cd blog\nls\n' | termfolio exec`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := localSession(cmd.Context())
			if err != nil {
				return err
			}
			if len(args) > 0 {
				run(cmd.Context(), sess, strings.Join(args, " "), echo, cmd.OutOrStdout())
				return nil
			}
			sc := bufio.NewScanner(cmd.InOrStdin())
			for sc.Scan() {
				run(cmd.Context(), sess, sc.Text(), echo, cmd.OutOrStdout())
			}
			return sc.Err()
		},
	}
	cmd.Flags().BoolVar(&echo, "echo", false, "print each line with its prompt before its output")
	return cmd
}

// localSession builds the mount table and a single in-memory session.
func localSession(ctx context.Context) (*session.Session, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	table, err := tableLoader()(ctx)
	if err != nil {
		return nil, fmt.Errorf("load mounts: %w", err)
	}
	mgr := session.NewManager(table, env.NewMemorySessions(), sessionOptions(), nil)
	return mgr.Create(ctx, "termfolio/"+version)
}

func run(ctx context.Context, sess *session.Session, line string, echo bool, w io.Writer) {
	reply := sess.Submit(ctx, line)
	for _, l := range reply.Lines {
		if l.Kind == output.KindCommand && !echo {
			continue
		}
		fmt.Fprintln(w, tui.RenderLine(l))
	}
	if reply.ContentURL != "" {
		fmt.Fprintln(w, reply.ContentURL)
	}
}
