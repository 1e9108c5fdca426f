package tree_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/axnav/pkg/domain"
	"github.com/aretw0/axnav/pkg/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func el(role, title string) domain.ElementInfo {
	return domain.ElementInfo{Role: role, Title: title}
}

func sampleTree() (root, ok, name *tree.Node) {
	ok = tree.New(el("Button", "OK"))
	name = tree.New(el("TextField", "Name"))
	root = tree.New(el("Window", "Main"), ok, name)
	return root, ok, name
}

func TestAddChild_BackReferenceConsistency(t *testing.T) {
	root, ok, name := sampleTree()

	assert.True(t, root.DeclaredHasChildren())
	assert.Same(t, root, ok.Parent())
	assert.Same(t, root, name.Parent())

	// Every node whose parent is p appears exactly once in p's children.
	tree.Walk(root, func(n *tree.Node) bool {
		if p := n.Parent(); p != nil {
			count := 0
			for _, c := range p.Children() {
				if c == n {
					count++
				}
			}
			assert.Equal(t, 1, count, "node %s", n)
		}
		return true
	})
}

func TestAddChild_RejectsCyclesAndSecondOwner(t *testing.T) {
	root, ok, _ := sampleTree()

	assert.False(t, ok.AddChild(root), "ancestor cannot become a descendant")
	assert.False(t, root.AddChild(root), "node cannot own itself")

	other := tree.New(el("Group", "Other"))
	assert.False(t, other.AddChild(ok), "owned node cannot be re-parented")
	assert.Same(t, root, ok.Parent())
	assert.Equal(t, 2, root.ChildCount())
}

func TestAddChild_ReversedConcurrentLinks(t *testing.T) {
	for i := 0; i < 200; i++ {
		a, b := tree.FromInfo(el("AXGroup", "A")), tree.FromInfo(el("AXGroup", "B"))

		var wg sync.WaitGroup
		var linked atomic.Int32
		wg.Add(2)
		go func() {
			defer wg.Done()
			if a.AddChild(b) {
				linked.Add(1)
			}
		}()
		go func() {
			defer wg.Done()
			if b.AddChild(a) {
				linked.Add(1)
			}
		}()
		wg.Wait()

		require.Equal(t, int32(1), linked.Load(), "exactly one direction wins")
		assert.False(t, tree.IsAncestor(a, a) || tree.IsAncestor(b, b), "no cycle")
	}
}

func TestLoadChildren_MaterializesOnce(t *testing.T) {
	n := tree.FromInfo(domain.ElementInfo{Role: "AXWindow", Title: "Main", HasChildren: true})
	assert.False(t, n.ChildrenLoaded())
	assert.True(t, n.DeclaredHasChildren())

	var calls int32
	fetch := func(ctx context.Context, n *tree.Node) ([]domain.ElementInfo, error) {
		atomic.AddInt32(&calls, 1)
		return []domain.ElementInfo{el("AXButton", "OK"), el("AXTextField", "Name")}, nil
	}

	require.NoError(t, n.LoadChildren(context.Background(), fetch, tree.DefaultLoadOptions()))
	require.NoError(t, n.LoadChildren(context.Background(), fetch, tree.DefaultLoadOptions()))

	assert.EqualValues(t, 1, calls)
	assert.True(t, n.ChildrenLoaded())
	kids := n.Children()
	require.Len(t, kids, 2)
	assert.Same(t, n, kids[0].Parent())
	assert.False(t, kids[0].ChildrenLoaded())
}

func TestLoadChildren_EmptyIsDistinctFromUnloaded(t *testing.T) {
	n := tree.FromInfo(el("AXStaticText", "Label"))
	assert.False(t, n.ChildrenLoaded())
	assert.Equal(t, 0, n.ChildCount())

	empty := func(ctx context.Context, n *tree.Node) ([]domain.ElementInfo, error) { return nil, nil }
	require.NoError(t, n.LoadChildren(context.Background(), empty, tree.LoadOptions{}))

	assert.True(t, n.ChildrenLoaded())
	assert.Equal(t, 0, n.ChildCount())
}

func TestLoadChildren_FailureLeavesUnloaded(t *testing.T) {
	n := tree.FromInfo(domain.ElementInfo{Role: "AXGroup", HasChildren: true})
	boom := errors.New("provider hung up")

	err := n.LoadChildren(context.Background(), func(context.Context, *tree.Node) ([]domain.ElementInfo, error) {
		return nil, boom
	}, tree.LoadOptions{})

	assert.ErrorIs(t, err, boom)
	assert.False(t, n.ChildrenLoaded())
}

func TestLoadChildren_ConcurrentCallersFetchOnce(t *testing.T) {
	n := tree.FromInfo(domain.ElementInfo{Role: "AXList", HasChildren: true})

	var calls int32
	release := make(chan struct{})
	fetch := func(ctx context.Context, n *tree.Node) ([]domain.ElementInfo, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return []domain.ElementInfo{el("AXRow", "1")}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, n.LoadChildren(context.Background(), fetch, tree.LoadOptions{}))
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, calls)
	assert.Equal(t, 1, n.ChildCount())
}

func TestLoadChildren_CapsFanOut(t *testing.T) {
	n := tree.FromInfo(domain.ElementInfo{Role: "AXTable", HasChildren: true})
	fetch := func(ctx context.Context, n *tree.Node) ([]domain.ElementInfo, error) {
		rows := make([]domain.ElementInfo, 50)
		for i := range rows {
			rows[i] = el("AXRow", fmt.Sprint(i))
		}
		return rows, nil
	}

	require.NoError(t, n.LoadChildren(context.Background(), fetch, tree.DefaultLoadOptions()))

	assert.Equal(t, tree.DefaultMaxChildren, n.ChildCount())
	assert.True(t, n.Truncated())
}

func TestLoadChildren_EagerDepth(t *testing.T) {
	fetch := func(ctx context.Context, n *tree.Node) ([]domain.ElementInfo, error) {
		if n.Role() == "AXLeaf" {
			return nil, errors.New("leaf has no children")
		}
		return []domain.ElementInfo{
			{Role: "AXGroup", Title: n.Title() + "/g", HasChildren: true},
			{Role: "AXLeaf", Title: n.Title() + "/leaf", HasChildren: true},
		}, nil
	}

	t.Run("default loads direct children only", func(t *testing.T) {
		root := tree.FromInfo(domain.ElementInfo{Role: "AXWindow", Title: "w", HasChildren: true})
		require.NoError(t, root.LoadChildren(context.Background(), fetch, tree.DefaultLoadOptions()))
		for _, c := range root.Children() {
			assert.False(t, c.ChildrenLoaded())
		}
	})

	t.Run("depth 2 preloads grandchildren best effort", func(t *testing.T) {
		root := tree.FromInfo(domain.ElementInfo{Role: "AXWindow", Title: "w", HasChildren: true})
		var failures []string
		opts := tree.LoadOptions{MaxDepth: 2, OnPreloadError: func(n *tree.Node, err error) {
			failures = append(failures, n.Title())
		}}

		require.NoError(t, root.LoadChildren(context.Background(), fetch, opts))

		kids := root.Children()
		require.Len(t, kids, 2)
		assert.True(t, kids[0].ChildrenLoaded())
		assert.False(t, kids[1].ChildrenLoaded())
		assert.Equal(t, []string{"w/leaf"}, failures)
		for _, g := range kids[0].Children() {
			assert.False(t, g.ChildrenLoaded(), "depth bound stops at grandchildren")
		}
	})
}

func TestAncestorsAndPath(t *testing.T) {
	btn := tree.New(el("AXButton", "Save/As"))
	group := tree.New(el("AXGroup", ""), btn)
	root := tree.New(el("AXWindow", "Main"), group)

	anc := tree.Ancestors(btn)
	require.Len(t, anc, 2)
	assert.Same(t, root, anc[0])
	assert.Same(t, group, anc[1])
	assert.Empty(t, tree.Ancestors(root))
	assert.Same(t, root, tree.Root(btn))

	assert.Equal(t, `AXWindow[Main]/AXGroup[]/AXButton[Save\/As]`, tree.PathOf(btn))
}

func TestReplaceChild_ReleasesOldSubtree(t *testing.T) {
	root, ok, name := sampleTree()
	fresh := tree.New(el("Button", "OK"))

	require.True(t, root.ReplaceChild(ok, fresh))

	assert.Equal(t, []*tree.Node{fresh, name}, root.Children())
	assert.Same(t, root, fresh.Parent())
	assert.True(t, ok.Released())
	assert.Nil(t, ok.Parent())
	assert.False(t, root.ReplaceChild(ok, tree.New(el("Button", "x"))))
}

func TestRelease_ClearsBackReferences(t *testing.T) {
	root, ok, name := sampleTree()

	root.Release()

	assert.Nil(t, ok.Parent())
	assert.Nil(t, name.Parent())
	assert.True(t, root.Released())
	assert.True(t, root.ChildrenLoaded(), "release never resets the loaded flag")
}

func TestAttributesAndActionsReplaceWholesale(t *testing.T) {
	n := tree.New(el("AXButton", "OK"))

	_, loaded := n.Actions()
	assert.False(t, loaded)

	n.SetActions([]string{"AXPress", "AXShowMenu"})
	n.SetActions([]string{"AXPress"})
	actions, loaded := n.Actions()
	assert.True(t, loaded)
	assert.Equal(t, []string{"AXPress"}, actions)

	n.SetAttributes(map[string]domain.Value{"AXEnabled": domain.BoolValue(true), "AXTitle": domain.StringValue("OK")})
	n.SetAttributes(map[string]domain.Value{"AXEnabled": domain.BoolValue(false)})
	attrs, loaded := n.Attributes()
	assert.True(t, loaded)
	assert.Len(t, attrs, 1)
	_, ok := n.Attribute("AXTitle")
	assert.False(t, ok)
}

func TestKindInference(t *testing.T) {
	app := tree.FromInfo(domain.ElementInfo{Role: "AXApplication", Title: "TextEdit", App: &domain.AppInfo{PID: 42}})
	win := tree.FromInfo(domain.ElementInfo{Role: "AXWindow", Title: "Untitled"})
	btn := tree.FromInfo(domain.ElementInfo{Role: "AXButton", Handle: "h1"})

	assert.Equal(t, domain.KindApplication, app.Kind())
	assert.Equal(t, 42, app.App().PID)
	assert.Equal(t, domain.KindWindow, win.Kind())
	assert.Equal(t, domain.KindElement, btn.Kind())
	assert.True(t, win.Synthetic())
	assert.False(t, btn.Synthetic())
}
