package standings

import "context"

// Repository persists one immutable snapshot per (group, matchday) key.
// Replace must swap the full row set atomically; readers never observe a
// partially written snapshot.
type Repository interface {
	Get(ctx context.Context, groupID string, matchday int) (Snapshot, bool, error)
	Replace(ctx context.Context, snapshot Snapshot) error
	ListMatchdays(ctx context.Context, groupID string) ([]int, error)
	// Latest returns the snapshot with the highest matchday for the group.
	Latest(ctx context.Context, groupID string) (Snapshot, bool, error)
}
