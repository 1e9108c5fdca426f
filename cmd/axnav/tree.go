package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aretw0/axnav/internal/presentation/graph"
	"github.com/aretw0/axnav/pkg/domain"
	"github.com/aretw0/axnav/pkg/tree"
	"github.com/spf13/cobra"
)

var treeCmd = &cobra.Command{
	Use:   "tree <pid>",
	Short: "Print an application's element tree",
	Long: `Loads the application's tree down to --depth levels and prints it as an
indented outline, JSON, or a Mermaid flowchart. With --select, the element at
that path is highlighted in the flowchart.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		depth, _ := cmd.Flags().GetInt("depth")
		format, _ := cmd.Flags().GetString("format")
		selected, _ := cmd.Flags().GetString("select")
		if depth < 0 {
			return fmt.Errorf("depth must not be negative, got %d", depth)
		}

		app, root, err := openRoot(cmd, args[0])
		if err != nil {
			return err
		}
		defer app.Close()

		if err := app.Inspector.Materialize(cmd.Context(), root, depth); err != nil {
			if !root.ChildrenLoaded() || errors.Is(err, domain.ErrInvalidArgument) {
				return withHint(err)
			}
			slog.Warn("partial tree", "root", root.Label(), "err", err)
		}

		var overlay *graph.Overlay
		if selected != "" {
			n, err := app.Inspector.Resolve(cmd.Context(), root, selected)
			if err != nil {
				return withHint(err)
			}
			overlay = &graph.Overlay{Selected: tree.PathOf(n)}
		}

		view := tree.ViewOf(root, depth)
		out := cmd.OutOrStdout()
		switch format {
		case "json":
			return writeJSON(out, view)
		case "mermaid":
			_, err := io.WriteString(out, graph.GenerateMermaid(view, overlay))
			return err
		case "text":
			writeOutline(out, view, 0)
			return nil
		}
		return fmt.Errorf("unknown format %q: use text, json or mermaid", format)
	},
}

func writeOutline(w io.Writer, v tree.View, level int) {
	line := v.Role
	if v.Title != "" {
		line = fmt.Sprintf("%s(%q)", v.Role, v.Title)
	}
	if len(v.Children) == 0 && v.HasChildren {
		line += " …"
	}
	fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", level), line)
	for _, c := range v.Children {
		writeOutline(w, c, level+1)
	}
}

func init() {
	treeCmd.Flags().Int("depth", 2, "Levels to load below the application")
	treeCmd.Flags().String("format", "text", "Output format: text, json or mermaid")
	treeCmd.Flags().String("select", "", "Path to highlight in the mermaid output")
	rootCmd.AddCommand(treeCmd)
}
