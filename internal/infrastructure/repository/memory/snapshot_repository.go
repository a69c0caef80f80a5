package memory

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"github.com/ligastats/ligastats/internal/domain/standings"
)

// SnapshotRepository keeps standings snapshots keyed by (group, matchday).
type SnapshotRepository struct {
	mu    sync.RWMutex
	items map[string]standings.Snapshot
}

func NewSnapshotRepository() *SnapshotRepository {
	return &SnapshotRepository{items: make(map[string]standings.Snapshot)}
}

func (r *SnapshotRepository) Get(_ context.Context, groupID string, matchday int) (standings.Snapshot, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot, ok := r.items[snapshotKey(groupID, matchday)]
	if !ok {
		return standings.Snapshot{}, false, nil
	}
	return copySnapshot(snapshot), true, nil
}

func (r *SnapshotRepository) Replace(_ context.Context, snapshot standings.Snapshot) error {
	r.mu.Lock()
	r.items[snapshotKey(snapshot.GroupID, snapshot.Matchday)] = copySnapshot(snapshot)
	r.mu.Unlock()
	return nil
}

func (r *SnapshotRepository) ListMatchdays(_ context.Context, groupID string) ([]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]int, 0)
	for _, snapshot := range r.items {
		if snapshot.GroupID == groupID {
			out = append(out, snapshot.Matchday)
		}
	}
	sort.Ints(out)
	return out, nil
}

func (r *SnapshotRepository) Latest(_ context.Context, groupID string) (standings.Snapshot, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		best  standings.Snapshot
		found bool
	)
	for _, snapshot := range r.items {
		if snapshot.GroupID != groupID {
			continue
		}
		if !found || snapshot.Matchday > best.Matchday {
			best = snapshot
			found = true
		}
	}
	if !found {
		return standings.Snapshot{}, false, nil
	}
	return copySnapshot(best), true, nil
}

func snapshotKey(groupID string, matchday int) string {
	return groupID + ":" + strconv.Itoa(matchday)
}

func copySnapshot(snapshot standings.Snapshot) standings.Snapshot {
	snapshot.Rows = append([]standings.Row(nil), snapshot.Rows...)
	return snapshot
}
