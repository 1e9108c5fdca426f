package runner

import (
	"fmt"
	"strings"

	"github.com/aretw0/axnav/pkg/navigator"
)

// PlainText renders a response without styling. The selected entry is
// marked with '*', unexpanded containers with '+', and cached entries
// with "(cached)".
func PlainText(resp navigator.Response) string {
	var b strings.Builder

	for _, app := range resp.Apps {
		focus := ""
		if app.Focused {
			focus = " (focused)"
		}
		fmt.Fprintf(&b, "  %6d  %s%s\n", app.PID, app.Name, focus)
	}

	for i, e := range resp.Entries {
		mark := " "
		if e.Selected {
			mark = "*"
		}
		label := e.Label
		if e.Relation == navigator.RelationMatch {
			label = e.Path
		}
		if e.HasChildren && !e.Loaded {
			label += " +"
		}
		if e.Synthetic {
			label += " (cached)"
		}
		fmt.Fprintf(&b, "%s%3d %s%s\n", mark, i, Indent(e.Relation), label)
	}

	for i, a := range resp.Actions {
		fmt.Fprintf(&b, "  [%d] %s\n", i, a)
	}
	for _, a := range resp.Attributes {
		fmt.Fprintf(&b, "  %s = %s\n", a.Name, a.Value)
	}

	status := resp.Status
	if resp.Degraded {
		status += " (from cache)"
	}
	if resp.Failed() {
		fmt.Fprintf(&b, "error: %s\n", status)
		if resp.Hint != "" {
			fmt.Fprintf(&b, "hint: %s\n", resp.Hint)
		}
	} else {
		fmt.Fprintf(&b, "%s\n", status)
	}
	return b.String()
}

// Indent returns the prefix that shows an entry's relation to the selection.
func Indent(rel navigator.Relation) string {
	switch rel {
	case navigator.RelationSibling:
		return "  "
	case navigator.RelationChild:
		return "    "
	}
	return ""
}
