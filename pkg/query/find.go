package query

import (
	"strings"

	"github.com/aretw0/axnav/pkg/tree"
)

// axPrefix is the prefix the macOS accessibility API puts on role names.
const axPrefix = "ax"

// RoleMatches compares roles case-insensitively, ignoring an AX prefix on
// either side, so "button" matches "AXButton".
func RoleMatches(role, want string) bool {
	if want == "" {
		return true
	}
	r, w := strings.ToLower(role), strings.ToLower(want)
	return r == w || strings.TrimPrefix(r, axPrefix) == strings.TrimPrefix(w, axPrefix)
}

// FindByRole returns every node under root (root included) whose role
// matches, in pre-order.
func FindByRole(root *tree.Node, role string) []*tree.Node {
	return byRole([]*tree.Node{root}, role)
}

// FindByTitle returns nodes under root (root included) whose title equals
// title case-insensitively. Only when no node matches exactly does it fall
// back to case-insensitive substring containment.
func FindByTitle(root *tree.Node, title string) []*tree.Node {
	return byTitle([]*tree.Node{root}, title)
}

// Find returns nodes under root (root included) matching both role and
// title, in pre-order. An empty role or title is not a constraint.
func Find(root *tree.Node, role, title string) []*tree.Node {
	return find([]*tree.Node{root}, role, title)
}

// FindBelow is Find restricted to strict descendants of n.
func FindBelow(n *tree.Node, role, title string) []*tree.Node {
	return find(n.Children(), role, title)
}

func find(roots []*tree.Node, role, title string) []*tree.Node {
	candidates := byRole(roots, role)
	if title == "" {
		return candidates
	}
	return intersect(candidates, byTitle(roots, title))
}

func byRole(roots []*tree.Node, role string) []*tree.Node {
	var out []*tree.Node
	for _, r := range roots {
		tree.Walk(r, func(n *tree.Node) bool {
			if RoleMatches(n.Role(), role) {
				out = append(out, n)
			}
			return true
		})
	}
	return out
}

func byTitle(roots []*tree.Node, title string) []*tree.Node {
	want := strings.ToLower(title)
	var exact, partial []*tree.Node
	for _, r := range roots {
		tree.Walk(r, func(n *tree.Node) bool {
			got := strings.ToLower(n.Title())
			switch {
			case got == want:
				exact = append(exact, n)
			case strings.Contains(got, want):
				partial = append(partial, n)
			}
			return true
		})
	}
	if len(exact) > 0 {
		return exact
	}
	return partial
}

// intersect keeps the elements of a (in a's order) that are also in b.
func intersect(a, b []*tree.Node) []*tree.Node {
	set := make(map[*tree.Node]struct{}, len(b))
	for _, n := range b {
		set[n] = struct{}{}
	}
	var out []*tree.Node
	for _, n := range a {
		if _, ok := set[n]; ok {
			out = append(out, n)
		}
	}
	return out
}
