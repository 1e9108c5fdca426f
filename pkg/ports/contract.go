package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/axnav/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSnapshotStoreContract runs a suite of tests to verify that a SnapshotStore
// implementation adheres to the defined interface contract.
func RunSnapshotStoreContract(t *testing.T, store SnapshotStore) {
	ctx := context.Background()
	key := "contract:" + time.Now().Format("20060102150405") + ":AXApplication[TextEdit]"

	t.Run("Save and Load", func(t *testing.T) {
		snap := &domain.Snapshot{
			Children: []domain.ElementInfo{
				{Role: "AXWindow", Title: "Untitled", HasChildren: true},
				{Role: "AXMenuBar"},
			},
			Actions:    []string{"AXRaise"},
			Attributes: map[string]domain.Value{"AXTitle": domain.StringValue("TextEdit")},
			CapturedAt: time.Now().UTC().Truncate(time.Second),
		}

		require.NoError(t, store.Save(ctx, key, snap), "Save should not return error")

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err, "Load should not return error")
		require.Len(t, loaded.Children, 2)
		assert.Equal(t, "Untitled", loaded.Children[0].Title)
		assert.True(t, loaded.Children[0].HasChildren)
		assert.Equal(t, []string{"AXRaise"}, loaded.Actions)
		assert.Equal(t, domain.StringValue("TextEdit"), loaded.Attributes["AXTitle"])
		assert.True(t, snap.CapturedAt.Equal(loaded.CapturedAt))
	})

	t.Run("Save replaces", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, key, &domain.Snapshot{Actions: []string{"AXPress"}}))

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.Empty(t, loaded.Children)
		assert.Equal(t, []string{"AXPress"}, loaded.Actions)
	})

	t.Run("List", func(t *testing.T) {
		keys, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, keys, key)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "missing:"+key)
		assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, key), "Delete should not return error")

		_, err := store.Load(ctx, key)
		assert.ErrorIs(t, err, domain.ErrSnapshotNotFound, "Load after Delete should return ErrSnapshotNotFound")

		assert.NoError(t, store.Delete(ctx, key), "Deleting twice should be a no-op")

		keys, err := store.List(ctx)
		require.NoError(t, err)
		assert.NotContains(t, keys, key)
	})
}
