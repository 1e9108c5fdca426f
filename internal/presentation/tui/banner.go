package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the axnav banner and version to w.
func PrintBanner(w io.Writer, profile termenv.Profile, version string) {
	lines := []struct {
		text  string
		color string
	}{
		{"   __ ___  __ _ __   __ ___   __", "#38bdf8"},
		{"  / _` \\ \\/ /| '_ \\ / _` \\ \\ / /", "#22d3ee"},
		{" | (_| |>  < | | | | (_| |\\ V / ", "#2dd4bf"},
		{"  \\__,_/_/\\_\\|_| |_|\\__,_| \\_/  ", "#34d399"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, profile.String(l.text).Foreground(profile.Color(l.color)))
	}
	fmt.Fprintln(w, profile.String("  accessibility navigator "+version).Faint())
	fmt.Fprintln(w)
}
