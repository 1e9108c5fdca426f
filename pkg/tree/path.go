package tree

import "strings"

// PathOf returns the role[title] path from the root of n's tree down to n.
func PathOf(n *Node) string {
	chain := append(Ancestors(n), n)
	parts := make([]string, len(chain))
	for i, c := range chain {
		parts[i] = Segment(c.Role(), c.Title())
	}
	return strings.Join(parts, "/")
}

// Segment formats a single path segment, escaping reserved characters.
func Segment(role, title string) string {
	return EscapePathText(role) + "[" + EscapePathText(title) + "]"
}

var pathEscaper = strings.NewReplacer(`\`, `\\`, `/`, `\/`, `[`, `\[`, `]`, `\]`)

// EscapePathText escapes the characters that delimit path segments.
func EscapePathText(s string) string {
	return pathEscaper.Replace(s)
}
