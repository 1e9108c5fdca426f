package middleware

import (
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"

	"github.com/aretw0/axnav/pkg/domain"
	"github.com/aretw0/axnav/pkg/ports"
)

// Mask replaces redacted attribute values.
const Mask = "***"

// secureSubRoles hold text the user typed into password fields. Their
// AXValue is always masked, whatever the patterns say.
var secureSubRoles = []string{"AXSecureTextField"}

type redactMiddleware struct {
	next     ports.SnapshotStore
	patterns []*regexp.Regexp
}

// NewRedaction masks attribute values whose names match any of the
// patterns before the snapshot is stored. The caller's snapshot is never
// modified.
func NewRedaction(patterns []string) (Middleware, error) {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("redact pattern %q: %w", p, err)
		}
		compiled[i] = re
	}
	return func(next ports.SnapshotStore) ports.SnapshotStore {
		return &redactMiddleware{next: next, patterns: compiled}
	}, nil
}

func (m *redactMiddleware) Save(ctx context.Context, key string, snap *domain.Snapshot) error {
	if snap == nil || len(snap.Attributes) == 0 {
		return m.next.Save(ctx, key, snap)
	}
	masked := *snap
	masked.Attributes = maps.Clone(snap.Attributes)
	for name := range masked.Attributes {
		if m.sensitive(name, snap) {
			masked.Attributes[name] = domain.StringValue(Mask)
		}
	}
	return m.next.Save(ctx, key, &masked)
}

func (m *redactMiddleware) sensitive(name string, snap *domain.Snapshot) bool {
	for _, p := range m.patterns {
		if p.MatchString(name) {
			return true
		}
	}
	if name != "AXValue" {
		return false
	}
	if snap.Element != nil && slices.Contains(secureSubRoles, snap.Element.SubRole) {
		return true
	}
	sub, err := snap.Attributes["AXSubrole"].AsString()
	return err == nil && slices.Contains(secureSubRoles, sub)
}

func (m *redactMiddleware) Load(ctx context.Context, key string) (*domain.Snapshot, error) {
	return m.next.Load(ctx, key)
}

func (m *redactMiddleware) Delete(ctx context.Context, key string) error {
	return m.next.Delete(ctx, key)
}

func (m *redactMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
