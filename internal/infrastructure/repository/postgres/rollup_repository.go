package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ligastats/ligastats/internal/domain/rollup"
	qb "github.com/ligastats/ligastats/internal/platform/querybuilder"
)

type runningTotalModel struct {
	SeasonID       string  `db:"season_id"`
	Kind           string  `db:"kind"`
	SubjectID      string  `db:"subject_id"`
	SubjectName    string  `db:"subject_name"`
	DivisionID     string  `db:"division_id"`
	Points         float64 `db:"points"`
	AdjustedPoints float64 `db:"adjusted_points"`
	Goals          int     `db:"goals"`
	Matches        int     `db:"matches"`
	LastMatchday   int     `db:"last_matchday"`
}

type RollupRepository struct {
	db *sqlx.DB
}

func NewRollupRepository(db *sqlx.DB) *RollupRepository {
	return &RollupRepository{db: db}
}

func (r *RollupRepository) Get(ctx context.Context, seasonID string, kind rollup.Kind, subjectID string) (rollup.RunningTotal, bool, error) {
	query, args, err := qb.Select("*").From("running_totals").
		Where(qb.Eq("season_id", seasonID), qb.Eq("kind", string(kind)), qb.Eq("subject_id", subjectID)).
		ToSQL()
	if err != nil {
		return rollup.RunningTotal{}, false, fmt.Errorf("build get running total query: %w", err)
	}

	var model runningTotalModel
	if err := r.db.GetContext(ctx, &model, query, args...); err != nil {
		if isNotFound(err) {
			return rollup.RunningTotal{}, false, nil
		}
		return rollup.RunningTotal{}, false, fmt.Errorf("get running total: %w", err)
	}
	return model.toDomain(), true, nil
}

func (r *RollupRepository) Upsert(ctx context.Context, total rollup.RunningTotal) error {
	query, args, err := qb.InsertInto("running_totals").
		Columns("season_id", "kind", "subject_id", "subject_name", "division_id",
			"points", "adjusted_points", "goals", "matches", "last_matchday").
		Values(total.SeasonID, string(total.Kind), total.SubjectID, total.SubjectName, total.DivisionID,
			total.Points, total.AdjustedPoints, total.Goals, total.Matches, total.LastMatchday).
		Suffix(`ON CONFLICT (season_id, kind, subject_id)
DO UPDATE SET
    subject_name = EXCLUDED.subject_name,
    division_id = EXCLUDED.division_id,
    points = EXCLUDED.points,
    adjusted_points = EXCLUDED.adjusted_points,
    goals = EXCLUDED.goals,
    matches = EXCLUDED.matches,
    last_matchday = EXCLUDED.last_matchday`).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build upsert running total query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert running total subject=%s: %w", total.SubjectID, err)
	}
	return nil
}

func (r *RollupRepository) ListBySeason(ctx context.Context, seasonID string, kind rollup.Kind) ([]rollup.RunningTotal, error) {
	query, args, err := qb.Select("*").From("running_totals").
		Where(qb.Eq("season_id", seasonID), qb.Eq("kind", string(kind))).
		OrderBy("adjusted_points DESC", "subject_name", "subject_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list running totals query: %w", err)
	}

	var models []runningTotalModel
	if err := r.db.SelectContext(ctx, &models, query, args...); err != nil {
		return nil, fmt.Errorf("list running totals: %w", err)
	}

	out := make([]rollup.RunningTotal, 0, len(models))
	for _, model := range models {
		out = append(out, model.toDomain())
	}
	return out, nil
}

func (m runningTotalModel) toDomain() rollup.RunningTotal {
	return rollup.RunningTotal{
		SeasonID:       m.SeasonID,
		Kind:           rollup.Kind(m.Kind),
		SubjectID:      m.SubjectID,
		SubjectName:    m.SubjectName,
		DivisionID:     m.DivisionID,
		Points:         m.Points,
		AdjustedPoints: m.AdjustedPoints,
		Goals:          m.Goals,
		Matches:        m.Matches,
		LastMatchday:   m.LastMatchday,
	}
}
