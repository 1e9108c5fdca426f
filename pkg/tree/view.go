package tree

import "github.com/aretw0/axnav/pkg/domain"

// View is the serializable form of a node and, up to some depth, its
// loaded subtree.
type View struct {
	Role        string      `json:"role"`
	SubRole     string      `json:"subrole,omitempty"`
	Title       string      `json:"title,omitempty"`
	Kind        domain.Kind `json:"kind"`
	Path        string      `json:"path"`
	HasChildren bool        `json:"has_children,omitempty"`
	Truncated   bool        `json:"truncated,omitempty"`
	Synthetic   bool        `json:"synthetic,omitempty"`
	Children    []View      `json:"children,omitempty"`
}

// ViewOf snapshots n. Only children that are already loaded are included,
// depth levels deep; ViewOf never fetches.
func ViewOf(n *Node, depth int) View {
	v := View{
		Role:        n.Role(),
		SubRole:     n.SubRole(),
		Title:       n.Title(),
		Kind:        n.Kind(),
		Path:        PathOf(n),
		HasChildren: n.DeclaredHasChildren(),
		Truncated:   n.Truncated(),
		Synthetic:   n.Synthetic(),
	}
	if depth > 0 {
		for _, c := range n.Children() {
			v.Children = append(v.Children, ViewOf(c, depth-1))
		}
	}
	return v
}

// ElementView is a single node with its actions and attributes.
type ElementView struct {
	View
	Actions    []string                `json:"actions"`
	Attributes map[string]domain.Value `json:"attributes"`
	// Degraded reports that actions or attributes came from the cache.
	Degraded bool `json:"degraded,omitempty"`
}
