package memory

import (
	"context"
	"sync"

	"github.com/ligastats/ligastats/internal/domain/rollup"
)

// RollupRepository keeps running totals keyed by (season, kind, subject).
type RollupRepository struct {
	mu    sync.RWMutex
	items map[string]rollup.RunningTotal
	order []string
}

func NewRollupRepository() *RollupRepository {
	return &RollupRepository{items: make(map[string]rollup.RunningTotal)}
}

func (r *RollupRepository) Get(_ context.Context, seasonID string, kind rollup.Kind, subjectID string) (rollup.RunningTotal, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total, ok := r.items[rollupKey(seasonID, kind, subjectID)]
	return total, ok, nil
}

func (r *RollupRepository) Upsert(_ context.Context, total rollup.RunningTotal) error {
	key := rollupKey(total.SeasonID, total.Kind, total.SubjectID)

	r.mu.Lock()
	if _, ok := r.items[key]; !ok {
		r.order = append(r.order, key)
	}
	r.items[key] = total
	r.mu.Unlock()
	return nil
}

func (r *RollupRepository) ListBySeason(_ context.Context, seasonID string, kind rollup.Kind) ([]rollup.RunningTotal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]rollup.RunningTotal, 0)
	for _, key := range r.order {
		total := r.items[key]
		if total.SeasonID == seasonID && total.Kind == kind {
			out = append(out, total)
		}
	}
	return out, nil
}

func rollupKey(seasonID string, kind rollup.Kind, subjectID string) string {
	return seasonID + ":" + string(kind) + ":" + subjectID
}
