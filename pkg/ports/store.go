package ports

import (
	"context"

	"github.com/aretw0/axnav/pkg/domain"
)

// SnapshotStore persists cached provider data per node.
// Keys are opaque to the store; the inspector builds them from the
// application pid and the node path.
type SnapshotStore interface {
	// Save replaces the snapshot stored under key.
	Save(ctx context.Context, key string, snap *domain.Snapshot) error

	// Load retrieves a snapshot.
	// Returns domain.ErrSnapshotNotFound if nothing is stored under key.
	Load(ctx context.Context, key string) (*domain.Snapshot, error)

	// Delete removes a snapshot. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns the keys currently stored, in no particular order.
	List(ctx context.Context) ([]string, error)
}
