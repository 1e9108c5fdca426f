package tree

import (
	"maps"
	"slices"
	"sync"

	"github.com/aretw0/axnav/pkg/domain"
)

// Node is one materialized UI object.
//
// A node exclusively owns its children. The parent pointer is a non-owning
// back-reference used for path reconstruction and upward navigation only;
// it reads as nil once the owning tree has been released.
type Node struct {
	info domain.ElementInfo

	mu                  sync.RWMutex
	declaredHasChildren bool
	children            []*Node
	childrenLoaded      bool
	truncated           bool
	parent              *Node
	released            bool

	attributes       map[string]domain.Value
	attributesLoaded bool
	actions          []string
	actionsLoaded    bool

	// loadMu makes child materialization single-writer without holding mu
	// across a slow provider call.
	loadMu sync.Mutex
}

// FromInfo wraps a provider description into an unloaded node.
func FromInfo(info domain.ElementInfo) *Node {
	if info.Kind == "" {
		info.Kind = info.KindOf()
	}
	return &Node{
		info:                info,
		declaredHasChildren: info.HasChildren,
	}
}

// New builds a node with explicit children, marking its children as loaded.
// It is the constructor for mock trees and fixtures.
func New(info domain.ElementInfo, children ...*Node) *Node {
	n := FromInfo(info)
	for _, c := range children {
		n.AddChild(c)
	}
	n.childrenLoaded = true
	return n
}

// Info returns the provider description the node was built from.
func (n *Node) Info() domain.ElementInfo { return n.info }

func (n *Node) Handle() domain.Handle { return n.info.Handle }
func (n *Node) Kind() domain.Kind { return n.info.Kind }
func (n *Node) Role() string { return n.info.Role }
func (n *Node) SubRole() string { return n.info.SubRole }
func (n *Node) Title() string { return n.info.Title }
func (n *Node) RoleDescription() string { return n.info.RoleDescription }
func (n *Node) App() *domain.AppInfo { return n.info.App }
func (n *Node) Window() *domain.WindowInfo { return n.info.Window }

// Synthetic reports whether the node has no live provider handle, either
// because it was built from cached data or by a mock constructor.
func (n *Node) Synthetic() bool { return n.info.Handle == nil }

// Label renders the node as role("title").
func (n *Node) Label() string { return n.info.Label() }

func (n *Node) String() string { return n.Label() }

// DeclaredHasChildren is the provider's hint that children exist.
func (n *Node) DeclaredHasChildren() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.declaredHasChildren
}

// ChildrenLoaded reports whether children have been materialized.
// Once true it stays true for this node instance.
func (n *Node) ChildrenLoaded() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.childrenLoaded
}

// Truncated reports whether the child cap dropped provider children.
func (n *Node) Truncated() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.truncated
}

// Children returns a copy of the child list.
func (n *Node) Children() []*Node {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return slices.Clone(n.children)
}

// ChildCount returns the number of materialized children.
func (n *Node) ChildCount() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.children)
}

// Parent returns the owning node, or nil for a root or a released node.
func (n *Node) Parent() *Node {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.released {
		return nil
	}
	return n.parent
}

// Released reports whether the node's tree has been torn down.
func (n *Node) Released() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.released
}

// linkMu serializes every parent/child link so the cycle check and the link
// are one step, and node locks are only taken parent first under it.
var linkMu sync.Mutex

// AddChild appends child and sets its parent back-reference in one step.
// It returns false without mutating anything when the insertion would create
// a cycle or when child is already owned by another node. Concurrent calls
// are safe in any combination of parents and children.
func (n *Node) AddChild(child *Node) bool {
	if child == nil || child == n {
		return false
	}
	linkMu.Lock()
	defer linkMu.Unlock()
	if IsAncestor(child, n) {
		return false
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	child.mu.Lock()
	defer child.mu.Unlock()

	if child.parent != nil {
		return false
	}
	child.parent = n
	n.children = append(n.children, child)
	n.declaredHasChildren = true
	return true
}

// AddChild is the free-function form of (*Node).AddChild.
func AddChild(parent, child *Node) bool {
	return parent.AddChild(child)
}

// ReplaceChild swaps old for fresh at the same position and releases old.
// It returns false if old is not a child of n or fresh is already owned.
func (n *Node) ReplaceChild(old, fresh *Node) bool {
	if old == nil || fresh == nil || old == fresh {
		return false
	}

	linkMu.Lock()
	n.mu.Lock()
	idx := slices.Index(n.children, old)
	if idx < 0 {
		n.mu.Unlock()
		linkMu.Unlock()
		return false
	}
	fresh.mu.Lock()
	if fresh.parent != nil {
		fresh.mu.Unlock()
		n.mu.Unlock()
		linkMu.Unlock()
		return false
	}
	fresh.parent = n
	fresh.mu.Unlock()
	n.children[idx] = fresh
	n.mu.Unlock()
	linkMu.Unlock()

	old.Release()
	return true
}

// Release tears down the subtree rooted at n. Parent back-references are
// cleared so nothing can walk upward out of a discarded tree.
func (n *Node) Release() {
	for _, c := range n.markReleased() {
		c.Release()
	}
}

func (n *Node) markReleased() []*Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.released = true
	n.parent = nil
	return slices.Clone(n.children)
}

// Attributes returns a copy of the cached attributes and whether they were loaded.
func (n *Node) Attributes() (map[string]domain.Value, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return maps.Clone(n.attributes), n.attributesLoaded
}

// Attribute returns a single cached attribute.
func (n *Node) Attribute(name string) (domain.Value, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	v, ok := n.attributes[name]
	return v, ok
}

// SetAttributes replaces the attribute map wholesale.
func (n *Node) SetAttributes(attrs map[string]domain.Value) {
	fresh := maps.Clone(attrs)
	if fresh == nil {
		fresh = map[string]domain.Value{}
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.attributes = fresh
	n.attributesLoaded = true
}

// Actions returns the cached action names and whether they were loaded.
func (n *Node) Actions() ([]string, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return slices.Clone(n.actions), n.actionsLoaded
}

// SetActions replaces the action list wholesale.
func (n *Node) SetActions(actions []string) {
	fresh := slices.Clone(actions)
	if fresh == nil {
		fresh = []string{}
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.actions = fresh
	n.actionsLoaded = true
}
