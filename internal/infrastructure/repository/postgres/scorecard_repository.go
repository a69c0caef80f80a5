package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ligastats/ligastats/internal/domain/scorecard"
	qb "github.com/ligastats/ligastats/internal/platform/querybuilder"
)

// ScoreCardRepository persists per-match card sets. ReplaceForMatch swaps the
// player and team cards of one match inside a single transaction.
type ScoreCardRepository struct {
	db *sqlx.DB
}

func NewScoreCardRepository(db *sqlx.DB) *ScoreCardRepository {
	return &ScoreCardRepository{db: db}
}

func (r *ScoreCardRepository) ReplaceForMatch(ctx context.Context, matchID string, players []scorecard.ScoreCard, teams []scorecard.TeamScoreCard) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx replace score cards: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, table := range []string{"player_score_cards", "team_score_cards"} {
		query, args, err := qb.DeleteFrom(table).Where(qb.Eq("match_id", matchID)).ToSQL()
		if err != nil {
			return fmt.Errorf("build clear %s query: %w", table, err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, card := range players {
		factors, err := encodeFactors(card.Factors)
		if err != nil {
			return err
		}
		query, args, err := qb.InsertInto("player_score_cards").
			Columns("match_id", "group_id", "season_id", "matchday", "player_id",
				"player_name", "team_id", "points", "raw_points", "goals", "cards", "factors").
			Values(card.MatchID, card.GroupID, card.SeasonID, card.Matchday, card.PlayerID,
				card.PlayerName, card.TeamID, card.Points, card.RawPoints, card.Goals, card.Cards, factors).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build insert player card query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert player card match=%s player=%s: %w", card.MatchID, card.PlayerID, err)
		}
	}

	for _, card := range teams {
		factors, err := encodeFactors(card.Factors)
		if err != nil {
			return err
		}
		query, args, err := qb.InsertInto("team_score_cards").
			Columns("match_id", "group_id", "season_id", "division_id", "matchday",
				"team_id", "points", "outcome", "goals_for", "goals_against", "factors").
			Values(card.MatchID, card.GroupID, card.SeasonID, card.DivisionID, card.Matchday,
				card.TeamID, card.Points, string(card.Outcome), card.GoalsFor, card.GoalsAgainst, factors).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build insert team card query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert team card match=%s team=%s: %w", card.MatchID, card.TeamID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace score cards tx: %w", err)
	}
	return nil
}

func (r *ScoreCardRepository) GetPlayerCard(ctx context.Context, matchID, playerID string) (scorecard.ScoreCard, bool, error) {
	query, args, err := qb.Select("*").From("player_score_cards").
		Where(qb.Eq("match_id", matchID), qb.Eq("player_id", playerID)).
		ToSQL()
	if err != nil {
		return scorecard.ScoreCard{}, false, fmt.Errorf("build get player card query: %w", err)
	}

	var model playerCardModel
	if err := r.db.GetContext(ctx, &model, query, args...); err != nil {
		if isNotFound(err) {
			return scorecard.ScoreCard{}, false, nil
		}
		return scorecard.ScoreCard{}, false, fmt.Errorf("get player card: %w", err)
	}

	card, err := model.toDomain()
	if err != nil {
		return scorecard.ScoreCard{}, false, err
	}
	return card, true, nil
}

func (r *ScoreCardRepository) ListPlayerCardsByMatch(ctx context.Context, matchID string) ([]scorecard.ScoreCard, error) {
	return r.listPlayerCards(ctx, qb.Eq("match_id", matchID))
}

func (r *ScoreCardRepository) ListPlayerCardsBySubject(ctx context.Context, seasonID, playerID string) ([]scorecard.ScoreCard, error) {
	return r.listPlayerCards(ctx, qb.Eq("season_id", seasonID), qb.Eq("player_id", playerID))
}

func (r *ScoreCardRepository) ListPlayerCardsByMatchday(ctx context.Context, groupID string, matchday int) ([]scorecard.ScoreCard, error) {
	return r.listPlayerCards(ctx, qb.Eq("group_id", groupID), qb.Eq("matchday", matchday))
}

func (r *ScoreCardRepository) ListTeamCardsBySubject(ctx context.Context, seasonID, teamID string) ([]scorecard.TeamScoreCard, error) {
	return r.listTeamCards(ctx, qb.Eq("season_id", seasonID), qb.Eq("team_id", teamID))
}

func (r *ScoreCardRepository) ListTeamCardsByMatchday(ctx context.Context, groupID string, matchday int) ([]scorecard.TeamScoreCard, error) {
	return r.listTeamCards(ctx, qb.Eq("group_id", groupID), qb.Eq("matchday", matchday))
}

func (r *ScoreCardRepository) listPlayerCards(ctx context.Context, conditions ...qb.Condition) ([]scorecard.ScoreCard, error) {
	query, args, err := qb.Select("*").From("player_score_cards").
		Where(conditions...).
		OrderBy("matchday", "match_id", "player_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list player cards query: %w", err)
	}

	var models []playerCardModel
	if err := r.db.SelectContext(ctx, &models, query, args...); err != nil {
		return nil, fmt.Errorf("list player cards: %w", err)
	}

	out := make([]scorecard.ScoreCard, 0, len(models))
	for _, model := range models {
		card, err := model.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, card)
	}
	return out, nil
}

func (r *ScoreCardRepository) listTeamCards(ctx context.Context, conditions ...qb.Condition) ([]scorecard.TeamScoreCard, error) {
	query, args, err := qb.Select("*").From("team_score_cards").
		Where(conditions...).
		OrderBy("matchday", "match_id", "team_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list team cards query: %w", err)
	}

	var models []teamCardModel
	if err := r.db.SelectContext(ctx, &models, query, args...); err != nil {
		return nil, fmt.Errorf("list team cards: %w", err)
	}

	out := make([]scorecard.TeamScoreCard, 0, len(models))
	for _, model := range models {
		card, err := model.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, card)
	}
	return out, nil
}
