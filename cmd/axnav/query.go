package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"text/tabwriter"

	"github.com/aretw0/axnav/internal/cli"
	"github.com/aretw0/axnav/pkg/domain"
	"github.com/aretw0/axnav/pkg/tree"
	"github.com/spf13/cobra"
)

var appsCmd = &cobra.Command{
	Use:   "apps",
	Short: "List running applications",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd, slog.LevelWarn)
		if err != nil {
			return err
		}
		defer app.Close()

		apps, err := app.Inspector.Applications(cmd.Context())
		if err != nil {
			return withHint(err)
		}
		if asJSON(cmd) {
			return writeJSON(cmd.OutOrStdout(), apps)
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "PID\tNAME\tBUNDLE\tFOCUSED")
		for _, a := range apps {
			fmt.Fprintf(w, "%d\t%s\t%s\t%t\n", a.PID, a.Name, a.BundleID, a.Focused)
		}
		return w.Flush()
	},
}

var findCmd = &cobra.Command{
	Use:   "find <pid>",
	Short: "Find elements by role or title",
	Long:  `Searches the application's tree for elements whose role or title contains the given text, case-insensitively, and prints their paths.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		role, _ := cmd.Flags().GetString("role")
		title, _ := cmd.Flags().GetString("title")
		depth, _ := cmd.Flags().GetInt("depth")

		app, root, err := openRoot(cmd, args[0])
		if err != nil {
			return err
		}
		defer app.Close()

		nodes, err := app.Inspector.Find(cmd.Context(), root, role, title, depth)
		if err != nil {
			return withHint(err)
		}
		if asJSON(cmd) {
			views := make([]tree.View, 0, len(nodes))
			for _, n := range nodes {
				views = append(views, tree.ViewOf(n, 0))
			}
			return writeJSON(cmd.OutOrStdout(), views)
		}
		for _, n := range nodes {
			fmt.Fprintln(cmd.OutOrStdout(), tree.PathOf(n))
		}
		return nil
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <pid> [path]",
	Short: "Describe the element at a path",
	Long:  `Resolves a role[title]/role[title] path below the application root and prints the element with its actions and attributes.`,
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, root, err := openRoot(cmd, args[0])
		if err != nil {
			return err
		}
		defer app.Close()

		n := root
		if len(args) == 2 {
			if n, err = app.Inspector.Resolve(cmd.Context(), root, args[1]); err != nil {
				return withHint(err)
			}
		}
		view, err := app.Inspector.Describe(cmd.Context(), n)
		if err != nil {
			return withHint(err)
		}
		if asJSON(cmd) {
			return writeJSON(cmd.OutOrStdout(), view)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, view.Path)
		for i, a := range view.Actions {
			fmt.Fprintf(out, "  [%d] %s\n", i, a)
		}
		for _, name := range sortedKeys(view.Attributes) {
			fmt.Fprintf(out, "  %s = %s\n", name, view.Attributes[name])
		}
		return nil
	},
}

var performCmd = &cobra.Command{
	Use:   "perform <pid> <path> <action>",
	Short: "Perform an action on the element at a path",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, root, err := openRoot(cmd, args[0])
		if err != nil {
			return err
		}
		defer app.Close()

		n, err := app.Inspector.Resolve(cmd.Context(), root, args[1])
		if err != nil {
			return withHint(err)
		}
		if err := app.Inspector.Perform(cmd.Context(), n, args[2]); err != nil {
			return withHint(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "performed %s on %s\n", args[2], tree.PathOf(n))
		return nil
	},
}

func openRoot(cmd *cobra.Command, rawPID string) (*cli.App, *tree.Node, error) {
	pid, err := strconv.Atoi(rawPID)
	if err != nil {
		return nil, nil, fmt.Errorf("pid must be a number, got %q", rawPID)
	}
	app, err := openApp(cmd, slog.LevelWarn)
	if err != nil {
		return nil, nil, err
	}
	root, err := app.Inspector.Application(cmd.Context(), pid)
	if err != nil {
		_ = app.Close()
		return nil, nil, withHint(err)
	}
	return app, root, nil
}

// withHint appends the recovery hint to err's message.
func withHint(err error) error {
	if hint := domain.HintFor(err); hint != "" {
		return fmt.Errorf("%w (hint: %s)", err, hint)
	}
	return err
}

func asJSON(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func sortedKeys(m map[string]domain.Value) []string {
	return slices.Sorted(maps.Keys(m))
}

func init() {
	for _, c := range []*cobra.Command{appsCmd, findCmd, resolveCmd} {
		c.Flags().Bool("json", false, "Print JSON")
		rootCmd.AddCommand(c)
	}
	rootCmd.AddCommand(performCmd)

	findCmd.Flags().String("role", "", "Role substring, e.g. button")
	findCmd.Flags().String("title", "", "Title substring")
	findCmd.Flags().Int("depth", 0, "Maximum search depth (0 uses the configured maximum)")
}
