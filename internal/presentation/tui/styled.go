package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/axnav/pkg/navigator"
	"github.com/aretw0/axnav/pkg/runner"
	"github.com/muesli/termenv"
)

// Palette holds the colors of the styled renderer.
type Palette struct {
	Selected string
	Role     string
	Muted    string
	Error    string
	Hint     string
}

var DefaultPalette = Palette{
	Selected: "#facc15",
	Role:     "#38bdf8",
	Muted:    "#6b7280",
	Error:    "#f87171",
	Hint:     "#a78bfa",
}

// NewStyledRenderer renders responses like runner.PlainText, colored for
// profile. With termenv.Ascii the output carries no escape codes.
func NewStyledRenderer(profile termenv.Profile, palette Palette) runner.ResponseRenderer {
	color := func(s, hex string) termenv.Style {
		return profile.String(s).Foreground(profile.Color(hex))
	}

	return func(resp navigator.Response) string {
		var b strings.Builder

		for _, app := range resp.Apps {
			line := fmt.Sprintf("  %6d  %s", app.PID, app.Name)
			if app.Focused {
				fmt.Fprintf(&b, "%s %s\n", line, color("(focused)", palette.Muted))
				continue
			}
			fmt.Fprintln(&b, line)
		}

		for i, e := range resp.Entries {
			label := e.Label
			if e.Relation == navigator.RelationMatch {
				label = e.Path
			}
			num := fmt.Sprintf("%3d", i)
			var styled fmt.Stringer = color(label, palette.Role)
			mark := " "
			if e.Selected {
				mark = color("*", palette.Selected).Bold().String()
				styled = color(label, palette.Selected).Bold()
			}
			suffix := ""
			if e.HasChildren && !e.Loaded {
				suffix += " " + color("+", palette.Muted).String()
			}
			if e.Synthetic {
				suffix += " " + color("(cached)", palette.Muted).Italic().String()
			}
			fmt.Fprintf(&b, "%s%s %s%s%s\n", mark, color(num, palette.Muted), runner.Indent(e.Relation), styled, suffix)
		}

		for i, a := range resp.Actions {
			fmt.Fprintf(&b, "  %s %s\n", color(fmt.Sprintf("[%d]", i), palette.Muted), a)
		}
		for _, a := range resp.Attributes {
			fmt.Fprintf(&b, "  %s = %s\n", color(a.Name, palette.Role), a.Value)
		}

		status := resp.Status
		if resp.Degraded {
			status += " (from cache)"
		}
		if resp.Failed() {
			fmt.Fprintln(&b, color("error: "+status, palette.Error).Bold())
			if resp.Hint != "" {
				fmt.Fprintln(&b, color("hint: "+resp.Hint, palette.Hint))
			}
		} else {
			fmt.Fprintln(&b, color(status, palette.Muted))
		}
		return b.String()
	}
}
