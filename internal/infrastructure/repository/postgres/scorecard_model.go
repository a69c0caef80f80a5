package postgres

import (
	"fmt"

	sonic "github.com/bytedance/sonic"

	"github.com/ligastats/ligastats/internal/domain/scorecard"
)

type playerCardModel struct {
	MatchID    string  `db:"match_id"`
	GroupID    string  `db:"group_id"`
	SeasonID   string  `db:"season_id"`
	Matchday   int     `db:"matchday"`
	PlayerID   string  `db:"player_id"`
	PlayerName string  `db:"player_name"`
	TeamID     string  `db:"team_id"`
	Points     int     `db:"points"`
	RawPoints  float64 `db:"raw_points"`
	Goals      int     `db:"goals"`
	Cards      int     `db:"cards"`
	Factors    []byte  `db:"factors"`
}

type teamCardModel struct {
	MatchID      string  `db:"match_id"`
	GroupID      string  `db:"group_id"`
	SeasonID     string  `db:"season_id"`
	DivisionID   string  `db:"division_id"`
	Matchday     int     `db:"matchday"`
	TeamID       string  `db:"team_id"`
	Points       float64 `db:"points"`
	Outcome      string  `db:"outcome"`
	GoalsFor     int     `db:"goals_for"`
	GoalsAgainst int     `db:"goals_against"`
	Factors      []byte  `db:"factors"`
}

func encodeFactors(factors []scorecard.Factor) ([]byte, error) {
	if len(factors) == 0 {
		return []byte("[]"), nil
	}
	out, err := sonic.Marshal(factors)
	if err != nil {
		return nil, fmt.Errorf("marshal factors: %w", err)
	}
	return out, nil
}

func decodeFactors(raw []byte) ([]scorecard.Factor, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var out []scorecard.Factor
	if err := sonic.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("unmarshal factors: %w", err)
	}
	return out, nil
}

func (m playerCardModel) toDomain() (scorecard.ScoreCard, error) {
	factors, err := decodeFactors(m.Factors)
	if err != nil {
		return scorecard.ScoreCard{}, err
	}
	return scorecard.ScoreCard{
		MatchID:    m.MatchID,
		GroupID:    m.GroupID,
		SeasonID:   m.SeasonID,
		Matchday:   m.Matchday,
		PlayerID:   m.PlayerID,
		PlayerName: m.PlayerName,
		TeamID:     m.TeamID,
		Points:     m.Points,
		RawPoints:  m.RawPoints,
		Goals:      m.Goals,
		Cards:      m.Cards,
		Factors:    factors,
	}, nil
}

func (m teamCardModel) toDomain() (scorecard.TeamScoreCard, error) {
	factors, err := decodeFactors(m.Factors)
	if err != nil {
		return scorecard.TeamScoreCard{}, err
	}
	return scorecard.TeamScoreCard{
		MatchID:      m.MatchID,
		GroupID:      m.GroupID,
		SeasonID:     m.SeasonID,
		DivisionID:   m.DivisionID,
		Matchday:     m.Matchday,
		TeamID:       m.TeamID,
		Points:       m.Points,
		Outcome:      scorecard.Outcome(m.Outcome),
		GoalsFor:     m.GoalsFor,
		GoalsAgainst: m.GoalsAgainst,
		Factors:      factors,
	}, nil
}
