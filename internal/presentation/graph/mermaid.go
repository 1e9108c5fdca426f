// Package graph renders element trees as Mermaid flowcharts.
package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/axnav/pkg/domain"
	"github.com/aretw0/axnav/pkg/tree"
)

// Overlay marks paths to highlight on the chart.
type Overlay struct {
	// Matches are styled as search hits, e.g. the result of find.
	Matches []string
	// Selected is the navigator's current selection.
	Selected string
}

// GenerateMermaid produces a top-down flowchart of root and its loaded
// subtree. Shapes follow the node kind:
//   - Application: ((Circle))
//   - Window: [[Subroutine]]
//   - Element: [Rectangle]
//
// Synthetic placeholders get a dashed border and nodes whose children were
// not loaded point at an ellipsis.
func GenerateMermaid(root tree.View, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	ids := make(map[string]string)
	var synthetic []string
	next := 0
	var walk func(v tree.View, parent string)
	walk = func(v tree.View, parent string) {
		id := fmt.Sprintf("n%d", next)
		next++
		if _, seen := ids[v.Path]; !seen {
			ids[v.Path] = id
		}

		opener, closer := "[", "]"
		switch v.Kind {
		case domain.KindApplication:
			opener, closer = "((", "))"
		case domain.KindWindow:
			opener, closer = "[[", "]]"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", id, opener, label(v), closer)
		if parent != "" {
			fmt.Fprintf(&sb, "    %s --> %s\n", parent, id)
		}
		if v.Synthetic {
			synthetic = append(synthetic, id)
		}

		if len(v.Children) == 0 && (v.HasChildren || v.Truncated) {
			fmt.Fprintf(&sb, "    %s_more[\"…\"]\n", id)
			fmt.Fprintf(&sb, "    %s -.-> %s_more\n", id, id)
		}
		for _, c := range v.Children {
			walk(c, id)
		}
	}
	walk(root, "")

	if len(synthetic) > 0 {
		sb.WriteString("\n    classDef synthetic stroke-dasharray:4 3,color:#666;\n")
		fmt.Fprintf(&sb, "    class %s synthetic;\n", strings.Join(synthetic, ","))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text keeps the highlights readable on light and dark themes.
		sb.WriteString("    classDef match fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef selected fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		styled := make(map[string]bool)
		for _, p := range overlay.Matches {
			if id, ok := ids[p]; ok && !styled[id] {
				styled[id] = true
				fmt.Fprintf(&sb, "    class %s match;\n", id)
			}
		}
		if id, ok := ids[overlay.Selected]; ok {
			fmt.Fprintf(&sb, "    class %s selected;\n", id)
		}
	}

	return sb.String()
}

func label(v tree.View) string {
	text := v.Role
	if v.Title != "" {
		text += "<br/>" + v.Title
	}
	return strings.ReplaceAll(text, "\"", "'")
}
