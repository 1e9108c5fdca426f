package main

import (
	"log/slog"
	"os"

	"github.com/aretw0/axnav"
	"github.com/aretw0/axnav/internal/presentation/tui"
	"github.com/aretw0/axnav/pkg/navigator"
	"github.com/aretw0/axnav/pkg/runner"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const defaultHelpWidth = 80

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse an application's UI tree interactively",
	Long: `Starts the interactive navigator. Type help for the commands.

On a terminal the list is colored and help is rendered as markdown; when
input or output is redirected plain text is used. --json switches to one
JSON object per line in both directions.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		pid, _ := cmd.Flags().GetInt("pid")
		jsonMode, _ := cmd.Flags().GetBool("json")
		noBanner, _ := cmd.Flags().GetBool("no-banner")

		app, err := openApp(cmd, slog.LevelWarn)
		if err != nil {
			return err
		}
		defer app.Close()

		ctx := cmd.Context()
		stop := app.StartGovernor(ctx)
		defer stop()

		nav := navigator.New(app.Inspector, navigator.WithLogger(app.Logger),
			navigator.OnTransition(func(from, to navigator.State) {
				app.Logger.Debug("navigator state", "from", from, "to", to)
			}))

		handler := newHandler(cmd, jsonMode, noBanner)
		r := runner.New(nav,
			runner.WithLogger(app.Logger),
			runner.WithInputHandler(handler),
			runner.WithInitialPID(pid),
			runner.WithOSSignals(true),
		)
		return r.Run(ctx)
	},
}

// newHandler picks the IO mode: JSON lines, styled for a terminal, or plain.
func newHandler(cmd *cobra.Command, jsonMode, noBanner bool) runner.IOHandler {
	in, out := cmd.InOrStdin(), cmd.OutOrStdout()
	if jsonMode {
		return runner.NewJSONHandler(in, out)
	}

	stdout, ok := out.(*os.File)
	if !ok || !term.IsTerminal(int(stdout.Fd())) {
		return runner.NewTextHandler(in, out)
	}

	width := defaultHelpWidth
	if w, _, err := term.GetSize(int(stdout.Fd())); err == nil && w > 0 {
		width = w
	}
	profile := termenv.NewOutput(stdout).EnvColorProfile()
	if !noBanner {
		tui.PrintBanner(out, profile, axnav.Version)
	}
	return runner.NewTextHandler(in, out,
		runner.WithResponseRenderer(tui.NewStyledRenderer(profile, tui.DefaultPalette)),
		runner.WithHelpRenderer(tui.NewRenderer(width)),
	)
}

func init() {
	rootCmd.AddCommand(browseCmd)

	browseCmd.Flags().IntP("pid", "p", 0, "Open this application at start")
	browseCmd.Flags().Bool("json", false, "Run in JSON mode (NDJSON input/output)")
	browseCmd.Flags().Bool("no-banner", false, "Do not print the banner")
}
