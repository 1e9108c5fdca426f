package tree

import (
	"context"

	"github.com/aretw0/axnav/pkg/domain"
)

const (
	// DefaultMaxChildren caps how many children are materialized per node.
	DefaultMaxChildren = 20
	// DefaultMaxDepth bounds eager preloading. 1 loads direct children only.
	DefaultMaxDepth = 1
)

// Fetcher returns the raw children of n from the provider (or a cache).
type Fetcher func(ctx context.Context, n *Node) ([]domain.ElementInfo, error)

// LoadOptions bound fan-out against hostile or pathological external trees.
type LoadOptions struct {
	MaxChildren int `yaml:"max_children" mapstructure:"max_children"`
	MaxDepth    int `yaml:"max_depth" mapstructure:"max_depth"`

	// OnPreloadError observes failures below the first level. Eager
	// preloading is best effort, so these do not fail the load.
	OnPreloadError func(n *Node, err error) `yaml:"-" mapstructure:"-"`
}

// DefaultLoadOptions returns the default bounds.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{MaxChildren: DefaultMaxChildren, MaxDepth: DefaultMaxDepth}
}

func (o LoadOptions) normalized() LoadOptions {
	if o.MaxChildren <= 0 {
		o.MaxChildren = DefaultMaxChildren
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	return o
}

// LoadChildren materializes n's children through fetch unless they are
// already loaded. Concurrent callers on the same node are serialized: the
// first one fetches, the others observe ChildrenLoaded and skip the fetch.
// A failed fetch leaves n unloaded.
func (n *Node) LoadChildren(ctx context.Context, fetch Fetcher, opts LoadOptions) error {
	opts = opts.normalized()
	if err := n.loadOnce(ctx, fetch, opts); err != nil {
		return err
	}
	n.preload(ctx, fetch, opts, 1)
	return nil
}

// LoadChildren is the free-function form of (*Node).LoadChildren.
func LoadChildren(ctx context.Context, n *Node, fetch Fetcher, opts LoadOptions) error {
	return n.LoadChildren(ctx, fetch, opts)
}

func (n *Node) loadOnce(ctx context.Context, fetch Fetcher, opts LoadOptions) error {
	n.loadMu.Lock()
	defer n.loadMu.Unlock()

	if n.ChildrenLoaded() {
		return nil
	}

	infos, err := fetch(ctx, n)
	if err != nil {
		return err
	}

	truncated := false
	if len(infos) > opts.MaxChildren {
		infos = infos[:opts.MaxChildren]
		truncated = true
	}

	kids := make([]*Node, 0, len(infos))
	for _, info := range infos {
		c := FromInfo(info)
		c.parent = n
		kids = append(kids, c)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	n.children = kids
	n.childrenLoaded = true
	n.truncated = truncated
	if len(kids) > 0 {
		n.declaredHasChildren = true
	}
	return nil
}

func (n *Node) preload(ctx context.Context, fetch Fetcher, opts LoadOptions, depth int) {
	if depth >= opts.MaxDepth {
		return
	}
	for _, c := range n.Children() {
		if ctx.Err() != nil {
			return
		}
		if !c.DeclaredHasChildren() {
			continue
		}
		if err := c.loadOnce(ctx, fetch, opts); err != nil {
			if opts.OnPreloadError != nil {
				opts.OnPreloadError(c, err)
			}
			continue
		}
		c.preload(ctx, fetch, opts, depth+1)
	}
}
