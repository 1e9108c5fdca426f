package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/axnav/pkg/adapters/memory"
	"github.com/aretw0/axnav/pkg/domain"
	"github.com/aretw0/axnav/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunSnapshotStoreContract(t, store)
}

func TestMemoryStore_CopiesOnReadAndWrite(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	snap := &domain.Snapshot{Actions: []string{"AXPress"}}
	require.NoError(t, store.Save(ctx, "1:AXButton[OK]", snap))
	snap.Actions[0] = "AXCancel"

	loaded, err := store.Load(ctx, "1:AXButton[OK]")
	require.NoError(t, err)
	assert.Equal(t, []string{"AXPress"}, loaded.Actions)

	loaded.Actions[0] = "AXShowMenu"
	again, err := store.Load(ctx, "1:AXButton[OK]")
	require.NoError(t, err)
	assert.Equal(t, []string{"AXPress"}, again.Actions)
}
