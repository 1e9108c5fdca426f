package query

import (
	"fmt"
	"strings"

	"github.com/aretw0/axnav/pkg/domain"
	"github.com/aretw0/axnav/pkg/tree"
)

// Segment is one role[title] step of a path.
type Segment struct {
	Role  string
	Title string
	// AnyTitle is set for a bare role without brackets. Otherwise Title must
	// match, and an empty Title only matches untitled elements.
	AnyTitle bool
}

func (s Segment) String() string {
	if s.AnyTitle {
		return tree.EscapePathText(s.Role)
	}
	return tree.Segment(s.Role, s.Title)
}

// Matches returns the nodes among roots and their descendants that satisfy
// the segment, in pre-order.
func (s Segment) Matches(roots []*tree.Node) []*tree.Node {
	candidates := byRole(roots, s.Role)
	switch {
	case s.AnyTitle:
		return candidates
	case s.Title == "":
		var out []*tree.Node
		for _, n := range candidates {
			if n.Title() == "" {
				out = append(out, n)
			}
		}
		return out
	}
	return intersect(candidates, byTitle(roots, s.Title))
}

// ParsePath splits a role[title]/role[title] path into segments.
// A backslash escapes the next character. A segment without brackets
// ("AXWindow") matches any title; empty brackets ("AXWindow[]") match only
// untitled elements, which is how PathOf writes them.
func ParsePath(path string) ([]Segment, error) {
	if strings.TrimSpace(path) == "" {
		return nil, malformed(path, "empty path")
	}

	var (
		segs    []Segment
		role    strings.Builder
		title   strings.Builder
		inTitle bool
		closed  bool
	)

	flush := func() error {
		r := strings.TrimSpace(role.String())
		if r == "" {
			return fmt.Errorf("segment %d has no role", len(segs)+1)
		}
		if inTitle {
			return fmt.Errorf("segment %d: unterminated '['", len(segs)+1)
		}
		segs = append(segs, Segment{Role: r, Title: title.String(), AnyTitle: !closed})
		role.Reset()
		title.Reset()
		closed = false
		return nil
	}

	runes := []rune(path)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		if c == '\\' {
			if i+1 >= len(runes) {
				return nil, malformed(path, "dangling escape")
			}
			i++
			c = runes[i]
			switch {
			case inTitle:
				title.WriteRune(c)
			case closed:
				return nil, malformed(path, "text after ']'")
			default:
				role.WriteRune(c)
			}
			continue
		}

		switch {
		case c == '/' && !inTitle:
			if err := flush(); err != nil {
				return nil, malformed(path, err.Error())
			}
		case c == '[' && !inTitle:
			if closed {
				return nil, malformed(path, "second '[' in segment")
			}
			inTitle = true
		case c == ']' && inTitle:
			inTitle = false
			closed = true
		case c == ']':
			return nil, malformed(path, "unexpected ']'")
		case c == '[':
			return nil, malformed(path, "nested '['")
		case inTitle:
			title.WriteRune(c)
		case closed:
			return nil, malformed(path, "text after ']'")
		default:
			role.WriteRune(c)
		}
	}
	if err := flush(); err != nil {
		return nil, malformed(path, err.Error())
	}
	return segs, nil
}

func malformed(path, reason string) error {
	return domain.NewError(domain.KindMalformedPath, "parse path", fmt.Sprintf("%q: %s", path, reason))
}

// ResolveByPath walks path from root. The first segment is matched against
// root and its descendants; every later segment against strict descendants
// of the node reached so far. When several nodes match a segment the first
// one in pre-order wins; ambiguity is not an error.
func ResolveByPath(root *tree.Node, path string) (*tree.Node, error) {
	segs, err := ParsePath(path)
	if err != nil {
		return nil, err
	}
	return ResolveSegments(root, segs)
}

// ResolveSegments is ResolveByPath for an already parsed path.
func ResolveSegments(root *tree.Node, segs []Segment) (*tree.Node, error) {
	if root == nil {
		return nil, domain.NewError(domain.KindNotFound, "resolve", "no root loaded")
	}
	cur := root
	for i, seg := range segs {
		var matches []*tree.Node
		if i == 0 {
			matches = seg.Matches([]*tree.Node{cur})
		} else {
			matches = seg.Matches(cur.Children())
		}
		if len(matches) == 0 {
			return nil, domain.NewError(domain.KindNotFound, "resolve",
				fmt.Sprintf("no match for %s under %s", seg, tree.PathOf(cur)))
		}
		cur = matches[0]
	}
	return cur, nil
}
