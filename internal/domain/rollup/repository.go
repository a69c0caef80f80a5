package rollup

import "context"

type Repository interface {
	Get(ctx context.Context, seasonID string, kind Kind, subjectID string) (RunningTotal, bool, error)
	Upsert(ctx context.Context, total RunningTotal) error
	ListBySeason(ctx context.Context, seasonID string, kind Kind) ([]RunningTotal, error)
}
