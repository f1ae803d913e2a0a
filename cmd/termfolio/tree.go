package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/termfolio/termfolio/internal/vfs"
)

func treeCmd() *cobra.Command {
	var (
		path   string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "tree [mount]",
		Short: "Print the directory tree of a mount (default: home)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := tableLoader()(cmd.Context())
			if err != nil {
				return fmt.Errorf("load mounts: %w", err)
			}
			alias := table.Home()
			if len(args) == 1 {
				alias = args[0]
			}
			fsys, ok := table.FS(alias)
			if !ok {
				return fmt.Errorf("no such mount: %s", alias)
			}
			root, ok := fsys.Tree(path)
			if !ok {
				return fmt.Errorf("no such path: %s", path)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(root)
			}
			header := alias
			if root.Path != vfs.Root {
				header += root.Path
			}
			fmt.Fprintln(out, header)
			printTree(out, root, "")
			dirs, files := countKinds(root)
			fmt.Fprintf(out, "\n%d directories, %d files\n", dirs, files)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "/", "subtree to print")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the tree as JSON")
	return cmd
}

func printTree(w io.Writer, n *vfs.Node, indent string) {
	for i, c := range n.Children {
		branch, next := "├── ", "│   "
		if i == len(n.Children)-1 {
			branch, next = "└── ", "    "
		}
		name := c.Name
		if c.IsDir {
			name += "/"
		}
		fmt.Fprintln(w, indent+branch+name)
		if c.IsDir {
			printTree(w, c, indent+next)
		}
	}
}

func countKinds(n *vfs.Node) (dirs, files int) {
	for _, c := range n.Children {
		if c.IsDir {
			dirs++
			d, f := countKinds(c)
			dirs += d
			files += f
		} else {
			files++
		}
	}
	return dirs, files
}
