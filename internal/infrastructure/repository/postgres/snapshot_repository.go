package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ligastats/ligastats/internal/domain/standings"
	qb "github.com/ligastats/ligastats/internal/platform/querybuilder"
)

// SnapshotRepository persists standings snapshots with delete-then-insert
// replacement inside one transaction, so readers only ever see a complete
// row set for a key.
type SnapshotRepository struct {
	db *sqlx.DB
}

func NewSnapshotRepository(db *sqlx.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

func (r *SnapshotRepository) Get(ctx context.Context, groupID string, matchday int) (standings.Snapshot, bool, error) {
	metaQuery, metaArgs, err := qb.Select("*").From("standings_snapshots").
		Where(qb.Eq("group_id", groupID), qb.Eq("matchday", matchday)).
		ToSQL()
	if err != nil {
		return standings.Snapshot{}, false, fmt.Errorf("build get snapshot query: %w", err)
	}

	var meta snapshotMetaModel
	if err := r.db.GetContext(ctx, &meta, metaQuery, metaArgs...); err != nil {
		if isNotFound(err) {
			return standings.Snapshot{}, false, nil
		}
		return standings.Snapshot{}, false, fmt.Errorf("get snapshot: %w", err)
	}

	rows, err := r.listRows(ctx, groupID, matchday)
	if err != nil {
		return standings.Snapshot{}, false, err
	}

	return standings.Snapshot{
		GroupID:        meta.GroupID,
		Matchday:       meta.Matchday,
		Rows:           rows,
		MatchesCounted: meta.MatchesCounted,
		TeamCount:      meta.TeamCount,
		ComputedAt:     meta.ComputedAt,
	}, true, nil
}

func (r *SnapshotRepository) Replace(ctx context.Context, snapshot standings.Snapshot) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx replace snapshot: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, table := range []string{"standings_rows", "standings_snapshots"} {
		query, args, err := qb.DeleteFrom(table).
			Where(qb.Eq("group_id", snapshot.GroupID), qb.Eq("matchday", snapshot.Matchday)).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build clear %s query: %w", table, err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	metaQuery, metaArgs, err := qb.InsertInto("standings_snapshots").
		Columns("group_id", "matchday", "matches_counted", "team_count", "computed_at").
		Values(snapshot.GroupID, snapshot.Matchday, snapshot.MatchesCounted, snapshot.TeamCount, snapshot.ComputedAt).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build insert snapshot query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, metaQuery, metaArgs...); err != nil {
		return fmt.Errorf("insert snapshot meta: %w", err)
	}

	if len(snapshot.Rows) > 0 {
		builder := qb.InsertInto("standings_rows").Columns(
			"group_id", "matchday", "team_id", "team_name", "rank",
			"points", "played", "won", "drawn", "lost",
			"goals_for", "goals_against", "goal_difference", "streak",
		)
		for _, row := range snapshot.Rows {
			builder.Values(
				snapshot.GroupID, snapshot.Matchday, row.TeamID, row.TeamName, row.Rank,
				row.Points, row.Played, row.Won, row.Drawn, row.Lost,
				row.GoalsFor, row.GoalsAgainst, row.GoalDifference, row.Streak,
			)
		}
		rowsQuery, rowsArgs, err := builder.ToSQL()
		if err != nil {
			return fmt.Errorf("build insert snapshot rows query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, rowsQuery, rowsArgs...); err != nil {
			return fmt.Errorf("insert snapshot rows: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace snapshot tx: %w", err)
	}
	return nil
}

func (r *SnapshotRepository) ListMatchdays(ctx context.Context, groupID string) ([]int, error) {
	query, args, err := qb.Select("matchday").From("standings_snapshots").
		Where(qb.Eq("group_id", groupID)).
		OrderBy("matchday").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list matchdays query: %w", err)
	}

	var out []int
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("list snapshot matchdays: %w", err)
	}
	return out, nil
}

func (r *SnapshotRepository) Latest(ctx context.Context, groupID string) (standings.Snapshot, bool, error) {
	query, args, err := qb.Select("matchday").From("standings_snapshots").
		Where(qb.Eq("group_id", groupID)).
		OrderBy("matchday DESC").
		Limit(1).
		ToSQL()
	if err != nil {
		return standings.Snapshot{}, false, fmt.Errorf("build latest snapshot query: %w", err)
	}

	var matchday int
	if err := r.db.GetContext(ctx, &matchday, query, args...); err != nil {
		if isNotFound(err) {
			return standings.Snapshot{}, false, nil
		}
		return standings.Snapshot{}, false, fmt.Errorf("get latest snapshot matchday: %w", err)
	}
	return r.Get(ctx, groupID, matchday)
}

func (r *SnapshotRepository) listRows(ctx context.Context, groupID string, matchday int) ([]standings.Row, error) {
	query, args, err := qb.Select("*").From("standings_rows").
		Where(qb.Eq("group_id", groupID), qb.Eq("matchday", matchday)).
		OrderBy("rank").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list snapshot rows query: %w", err)
	}

	var models []snapshotRowModel
	if err := r.db.SelectContext(ctx, &models, query, args...); err != nil {
		return nil, fmt.Errorf("list snapshot rows: %w", err)
	}

	out := make([]standings.Row, 0, len(models))
	for _, model := range models {
		out = append(out, standings.Row{
			TeamID:         model.TeamID,
			TeamName:       model.TeamName,
			Rank:           model.Rank,
			Points:         model.Points,
			Played:         model.Played,
			Won:            model.Won,
			Drawn:          model.Drawn,
			Lost:           model.Lost,
			GoalsFor:       model.GoalsFor,
			GoalsAgainst:   model.GoalsAgainst,
			GoalDifference: model.GoalDifference,
			Streak:         model.Streak,
		})
	}
	return out, nil
}
