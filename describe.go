package axnav

import (
	"context"

	"github.com/aretw0/axnav/pkg/tree"
)

// Describe returns n with its actions and attributes, reading both from the
// provider if they are not loaded yet.
func (in *Inspector) Describe(ctx context.Context, n *tree.Node) (tree.ElementView, error) {
	actions, degradedActions, err := in.Actions(ctx, n)
	if err != nil {
		return tree.ElementView{}, err
	}
	attrs, degradedAttrs, err := in.Attributes(ctx, n)
	if err != nil {
		return tree.ElementView{}, err
	}
	return tree.ElementView{
		View:       tree.ViewOf(n, 0),
		Actions:    actions,
		Attributes: attrs,
		Degraded:   degradedActions || degradedAttrs,
	}, nil
}
