package tree

// Walk visits root and its materialized descendants in pre-order.
// Returning false from visit stops the walk.
func Walk(root *Node, visit func(*Node) bool) bool {
	if root == nil {
		return true
	}
	if !visit(root) {
		return false
	}
	for _, c := range root.Children() {
		if !Walk(c, visit) {
			return false
		}
	}
	return true
}

// Ancestors returns the chain of parents from the outermost root down to
// n's direct parent. It does not include n.
func Ancestors(n *Node) []*Node {
	var chain []*Node
	for p := n.Parent(); p != nil; p = p.Parent() {
		chain = append(chain, p)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// Root returns the outermost ancestor of n, or n itself.
func Root(n *Node) *Node {
	for {
		p := n.Parent()
		if p == nil {
			return n
		}
		n = p
	}
}

// IsAncestor reports whether a is a strict ancestor of n.
func IsAncestor(a, n *Node) bool {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p == a {
			return true
		}
	}
	return false
}

// Siblings returns the children of n's parent, n included.
// A root has no siblings other than itself.
func Siblings(n *Node) []*Node {
	p := n.Parent()
	if p == nil {
		return []*Node{n}
	}
	return p.Children()
}
