package axnav

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/axnav/pkg/domain"
	"github.com/aretw0/axnav/pkg/tree"
)

const appsKey = "apps"

// rootKey holds an application's own description.
func rootKey(pid int) string { return strconv.Itoa(pid) }

// nodeKey addresses a node by pid and path, so a fresh tree finds what an
// earlier tree cached. Siblings sharing a role and title are told apart by
// their ordinal among them, appended only when some level needs it.
func nodeKey(pid int, n *tree.Node) string {
	key := strconv.Itoa(pid) + ":" + tree.PathOf(n)
	var ords []string
	needed := false
	for cur := n; cur != nil && cur.Parent() != nil; cur = cur.Parent() {
		ord := 0
		for _, sib := range cur.Parent().Children() {
			if sib == cur {
				break
			}
			if sib.Role() == cur.Role() && sib.Title() == cur.Title() {
				ord++
			}
		}
		needed = needed || ord > 0
		ords = append([]string{strconv.Itoa(ord)}, ords...)
	}
	if needed {
		key += "#" + strings.Join(ords, ".")
	}
	return key
}

// remember merges part into the snapshot under key. Cache failures never
// fail the live call that produced the data.
func (in *Inspector) remember(ctx context.Context, key string, part *domain.Snapshot) {
	detach(part)
	part.CapturedAt = time.Now().UTC()
	prev, err := in.store.Load(ctx, key)
	if err != nil && !errors.Is(err, domain.ErrSnapshotNotFound) {
		in.logger.Warn("snapshot read failed", "key", key, "err", err)
	}
	if err := in.store.Save(ctx, key, prev.Merge(part)); err != nil {
		in.logger.Warn("snapshot write failed", "key", key, "err", err)
	}
}

// detach drops live handles so nodes rebuilt from a snapshot are synthetic
// whichever store holds it.
func detach(snap *domain.Snapshot) {
	if snap.Element != nil {
		el := *snap.Element
		el.Handle = nil
		snap.Element = &el
	}
	if snap.Children != nil {
		children := make([]domain.ElementInfo, len(snap.Children))
		for i, c := range snap.Children {
			c.Handle = nil
			children[i] = c
		}
		snap.Children = children
	}
}

// cached loads a snapshot for a degraded answer. A missing snapshot is
// reported as a degraded error since nothing can be served.
func (in *Inspector) cached(ctx context.Context, key, what string) (*domain.Snapshot, error) {
	snap, err := in.store.Load(ctx, key)
	if errors.Is(err, domain.ErrSnapshotNotFound) {
		return nil, domain.NewError(domain.KindDegraded, what, "nothing cached for "+key)
	}
	if err != nil {
		return nil, domain.WrapError(domain.KindDegraded, what, err)
	}
	return snap, nil
}

// cachedChildren returns cached child descriptions. They carry no handles,
// so the nodes built from them are synthetic.
func (in *Inspector) cachedChildren(ctx context.Context, key string) ([]domain.ElementInfo, error) {
	snap, err := in.cached(ctx, key, "children")
	if err != nil {
		return nil, err
	}
	if snap.Children == nil {
		return nil, domain.NewError(domain.KindDegraded, "children", "children of "+key+" were never loaded")
	}
	return snap.Children, nil
}

func (in *Inspector) cachedRoot(ctx context.Context, pid int) (domain.ElementInfo, error) {
	snap, err := in.cached(ctx, rootKey(pid), "application element")
	if err != nil {
		return domain.ElementInfo{}, err
	}
	if snap.Element == nil {
		return domain.ElementInfo{}, domain.NewError(domain.KindDegraded, "application element", "no root cached for pid "+rootKey(pid))
	}
	return *snap.Element, nil
}

func (in *Inspector) rememberApplications(ctx context.Context, apps []domain.AppInfo) {
	infos := make([]domain.ElementInfo, 0, len(apps))
	for _, a := range apps {
		infos = append(infos, domain.ElementInfo{Kind: domain.KindApplication, Role: "AXApplication", Title: a.Name, App: &a})
	}
	in.remember(ctx, appsKey, &domain.Snapshot{Children: infos})
}

func (in *Inspector) cachedApplications(ctx context.Context) ([]domain.AppInfo, error) {
	snap, err := in.cached(ctx, appsKey, "applications")
	if err != nil {
		return nil, err
	}
	apps := make([]domain.AppInfo, 0, len(snap.Children))
	for _, info := range snap.Children {
		if info.App != nil {
			apps = append(apps, *info.App)
		}
	}
	return apps, nil
}
