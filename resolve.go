package axnav

import (
	"context"
	"errors"

	"github.com/aretw0/axnav/pkg/domain"
	"github.com/aretw0/axnav/pkg/query"
	"github.com/aretw0/axnav/pkg/tree"
)

// Resolve finds the node a role[title]/... path names below root,
// materializing the tree one level at a time until the path resolves or the
// search depth is exhausted. Malformed paths fail before any provider call.
func (in *Inspector) Resolve(ctx context.Context, root *tree.Node, path string) (*tree.Node, error) {
	segs, err := query.ParsePath(path)
	if err != nil {
		return nil, err
	}

	depth := len(segs) - 1
	for {
		if err := in.materializeForSearch(ctx, root, depth); err != nil {
			return nil, err
		}
		n, err := query.ResolveSegments(root, segs)
		if err == nil || !errors.Is(err, domain.ErrNotFound) || depth >= in.maxResolveDepth {
			return n, err
		}
		depth++
	}
}

// Find returns the nodes below root (root included) matching role and title,
// after materializing depth levels. A non-positive depth uses the maximum
// search depth.
func (in *Inspector) Find(ctx context.Context, root *tree.Node, role, title string, depth int) ([]*tree.Node, error) {
	if role == "" && title == "" {
		return nil, domain.Invalidf("find", "role or title is required")
	}
	if depth <= 0 || depth > in.maxResolveDepth {
		depth = in.maxResolveDepth
	}
	if err := in.materializeForSearch(ctx, root, depth); err != nil {
		return nil, err
	}
	return query.Find(root, role, title), nil
}

// materializeForSearch tolerates failures below root: a subtree that cannot
// be loaded simply yields no matches.
func (in *Inspector) materializeForSearch(ctx context.Context, root *tree.Node, depth int) error {
	if depth <= 0 {
		return nil
	}
	err := in.Materialize(ctx, root, depth)
	if err == nil {
		return nil
	}
	if !root.ChildrenLoaded() || ctx.Err() != nil {
		return err
	}
	in.logger.Debug("partial materialization during search", "root", root.Label(), "err", err)
	return nil
}
