package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/ligastats/ligastats/internal/domain/scorecard"
)

// ScoreCardRepository keeps per-match card sets, replaced wholesale per match.
type ScoreCardRepository struct {
	mu      sync.RWMutex
	players map[string][]scorecard.ScoreCard
	teams   map[string][]scorecard.TeamScoreCard
}

func NewScoreCardRepository() *ScoreCardRepository {
	return &ScoreCardRepository{
		players: make(map[string][]scorecard.ScoreCard),
		teams:   make(map[string][]scorecard.TeamScoreCard),
	}
}

func (r *ScoreCardRepository) ReplaceForMatch(_ context.Context, matchID string, players []scorecard.ScoreCard, teams []scorecard.TeamScoreCard) error {
	r.mu.Lock()
	r.players[matchID] = append([]scorecard.ScoreCard(nil), players...)
	r.teams[matchID] = append([]scorecard.TeamScoreCard(nil), teams...)
	r.mu.Unlock()
	return nil
}

func (r *ScoreCardRepository) GetPlayerCard(_ context.Context, matchID, playerID string) (scorecard.ScoreCard, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, card := range r.players[matchID] {
		if card.PlayerID == playerID {
			return card, true, nil
		}
	}
	return scorecard.ScoreCard{}, false, nil
}

func (r *ScoreCardRepository) ListPlayerCardsByMatch(_ context.Context, matchID string) ([]scorecard.ScoreCard, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]scorecard.ScoreCard(nil), r.players[matchID]...), nil
}

func (r *ScoreCardRepository) ListPlayerCardsBySubject(_ context.Context, seasonID, playerID string) ([]scorecard.ScoreCard, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]scorecard.ScoreCard, 0)
	for _, cards := range r.players {
		for _, card := range cards {
			if card.SeasonID == seasonID && card.PlayerID == playerID {
				out = append(out, card)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Matchday < out[j].Matchday })
	return out, nil
}

func (r *ScoreCardRepository) ListTeamCardsBySubject(_ context.Context, seasonID, teamID string) ([]scorecard.TeamScoreCard, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]scorecard.TeamScoreCard, 0)
	for _, cards := range r.teams {
		for _, card := range cards {
			if card.SeasonID == seasonID && card.TeamID == teamID {
				out = append(out, card)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Matchday < out[j].Matchday })
	return out, nil
}

func (r *ScoreCardRepository) ListPlayerCardsByMatchday(_ context.Context, groupID string, matchday int) ([]scorecard.ScoreCard, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]scorecard.ScoreCard, 0)
	for _, cards := range r.players {
		for _, card := range cards {
			if card.GroupID == groupID && card.Matchday == matchday {
				out = append(out, card)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].MatchID != out[j].MatchID {
			return out[i].MatchID < out[j].MatchID
		}
		return out[i].PlayerID < out[j].PlayerID
	})
	return out, nil
}

func (r *ScoreCardRepository) ListTeamCardsByMatchday(_ context.Context, groupID string, matchday int) ([]scorecard.TeamScoreCard, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]scorecard.TeamScoreCard, 0)
	for _, cards := range r.teams {
		for _, card := range cards {
			if card.GroupID == groupID && card.Matchday == matchday {
				out = append(out, card)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].MatchID != out[j].MatchID {
			return out[i].MatchID < out[j].MatchID
		}
		return out[i].TeamID < out[j].TeamID
	})
	return out, nil
}
