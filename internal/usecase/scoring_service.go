package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/ligastats/ligastats/internal/domain/matchfact"
	"github.com/ligastats/ligastats/internal/domain/rollup"
	"github.com/ligastats/ligastats/internal/domain/scorecard"
	"github.com/ligastats/ligastats/internal/domain/standings"
	"github.com/ligastats/ligastats/internal/platform/logging"
)

// ScoringService evaluates the weighted rule set over one matchday and
// persists the resulting score cards wholesale per match.
type ScoringService struct {
	facts   matchfact.Store
	cards   scorecard.Repository
	rollups rollup.Repository
	weights scorecard.Weights
	logger  *logging.Logger
}

// MatchdayScores is everything scoring one matchday produces.
type MatchdayScores struct {
	GroupID    string
	Matchday   int
	Players    []scorecard.ScoreCard
	Teams      []scorecard.TeamScoreCard
	MVPByMatch map[string]string
	Skipped    int
}

func NewScoringService(
	facts matchfact.Store,
	cards scorecard.Repository,
	rollups rollup.Repository,
	logger *logging.Logger,
) *ScoringService {
	if logger == nil {
		logger = logging.Default()
	}
	return &ScoringService{
		facts:   facts,
		cards:   cards,
		rollups: rollups,
		weights: scorecard.DefaultWeights(),
		logger:  logger,
	}
}

// ScoreMatchday scores every played match of one (group, matchday), replaces
// the persisted card sets per match, and resolves the man of the match.
// Unresolvable players or events are skipped with a warning; they never abort
// the matchday.
func (s *ScoringService) ScoreMatchday(ctx context.Context, groupID string, matchday int) (MatchdayScores, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoringService.ScoreMatchday")
	defer span.End()

	groupID = strings.TrimSpace(groupID)
	if groupID == "" {
		return MatchdayScores{}, fmt.Errorf("%w: group id is required", ErrInvalidInput)
	}
	if matchday <= 0 {
		return MatchdayScores{}, fmt.Errorf("%w: matchday must be greater than zero", ErrInvalidInput)
	}

	group, err := s.findGroup(ctx, groupID)
	if err != nil {
		return MatchdayScores{}, err
	}

	teams, err := s.facts.ListGroupTeams(ctx, groupID)
	if err != nil {
		return MatchdayScores{}, fmt.Errorf("list group teams: %w", err)
	}
	matches, err := s.facts.ListMatches(ctx, groupID, matchday)
	if err != nil {
		return MatchdayScores{}, fmt.Errorf("list matches: %w", err)
	}
	coefficients, err := s.facts.GetStrengthCoefficients(ctx, group.SeasonID, matchday)
	if err != nil {
		return MatchdayScores{}, fmt.Errorf("get strength coefficients: %w", err)
	}

	positions, winStreaks := preMatchForm(groupID, teams, matches, matchday)
	seasonPoints, err := s.playerSeasonPoints(ctx, group.SeasonID)
	if err != nil {
		return MatchdayScores{}, err
	}

	out := MatchdayScores{
		GroupID:    groupID,
		Matchday:   matchday,
		MVPByMatch: make(map[string]string),
	}
	for _, match := range matches {
		if match.Matchday != matchday || !match.Played || match.HomeGoals == nil || match.AwayGoals == nil {
			continue
		}

		result, err := scorecard.Score(scorecard.MatchContext{
			Match:          match,
			GroupID:        groupID,
			SeasonID:       group.SeasonID,
			DivisionID:     group.DivisionID,
			Coefficients:   coefficients,
			LeaguePosition: positions,
			WinStreak:      winStreaks,
		}, s.weights)
		if err != nil {
			return MatchdayScores{}, fmt.Errorf("score match=%s: %w", match.ID, err)
		}

		for _, skip := range result.Skips {
			s.logger.WarnContext(ctx, "scoring skip",
				"match_id", skip.MatchID,
				"player_id", skip.PlayerID,
				"reason", skip.Reason,
			)
		}
		out.Skipped += len(result.Skips)

		if err := s.cards.ReplaceForMatch(ctx, match.ID, result.Players, result.Teams); err != nil {
			return MatchdayScores{}, fmt.Errorf("replace score cards match=%s: %w", match.ID, err)
		}

		if mvp, ok := scorecard.MVP(result.Players, match, seasonPoints); ok {
			out.MVPByMatch[match.ID] = mvp.PlayerID
		}
		out.Players = append(out.Players, result.Players...)
		out.Teams = append(out.Teams, result.Teams...)
	}

	return out, nil
}

// GetScoreCard returns the persisted card for one (match, player) key.
func (s *ScoringService) GetScoreCard(ctx context.Context, matchID, playerID string) (scorecard.ScoreCard, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoringService.GetScoreCard")
	defer span.End()

	card, exists, err := s.cards.GetPlayerCard(ctx, matchID, playerID)
	if err != nil {
		return scorecard.ScoreCard{}, fmt.Errorf("get score card: %w", err)
	}
	if !exists {
		return scorecard.ScoreCard{}, fmt.Errorf("%w: match=%s player=%s", ErrNotFound, matchID, playerID)
	}
	return card, nil
}

// GetMatchMVP resolves the man of the match from persisted cards. Returns
// ErrNotFound when the match has no cards yet.
func (s *ScoringService) GetMatchMVP(ctx context.Context, groupID, matchID string) (string, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoringService.GetMatchMVP")
	defer span.End()

	group, err := s.findGroup(ctx, groupID)
	if err != nil {
		return "", err
	}
	cards, err := s.cards.ListPlayerCardsByMatch(ctx, matchID)
	if err != nil {
		return "", fmt.Errorf("list score cards match=%s: %w", matchID, err)
	}
	if len(cards) == 0 {
		return "", fmt.Errorf("%w: no score cards for match=%s", ErrNotFound, matchID)
	}

	match, err := s.findMatch(ctx, groupID, matchID)
	if err != nil {
		return "", err
	}
	seasonPoints, err := s.playerSeasonPoints(ctx, group.SeasonID)
	if err != nil {
		return "", err
	}

	mvp, ok := scorecard.MVP(cards, match, seasonPoints)
	if !ok {
		return "", fmt.Errorf("%w: no score cards for match=%s", ErrNotFound, matchID)
	}
	return mvp.PlayerID, nil
}

func (s *ScoringService) findGroup(ctx context.Context, groupID string) (matchfact.Group, error) {
	groups, err := s.facts.ListGroups(ctx)
	if err != nil {
		return matchfact.Group{}, fmt.Errorf("list groups: %w", err)
	}
	for _, group := range groups {
		if group.ID == groupID {
			return group, nil
		}
	}
	return matchfact.Group{}, fmt.Errorf("%w: group=%s", ErrNotFound, groupID)
}

func (s *ScoringService) findMatch(ctx context.Context, groupID, matchID string) (matchfact.Match, error) {
	matches, err := s.facts.ListMatches(ctx, groupID, 0)
	if err != nil {
		return matchfact.Match{}, fmt.Errorf("list matches: %w", err)
	}
	for _, match := range matches {
		if match.ID == matchID {
			return match, nil
		}
	}
	return matchfact.Match{}, fmt.Errorf("%w: match=%s", ErrNotFound, matchID)
}

func (s *ScoringService) playerSeasonPoints(ctx context.Context, seasonID string) (map[string]float64, error) {
	totals, err := s.rollups.ListBySeason(ctx, seasonID, rollup.KindPlayer)
	if err != nil {
		return nil, fmt.Errorf("list player running totals: %w", err)
	}
	out := make(map[string]float64, len(totals))
	for _, total := range totals {
		out[total.SubjectID] = total.Points
	}
	return out, nil
}

// preMatchForm derives each team's league position and arriving win streak as
// of the previous matchday. Matchday one has no form: both maps stay empty.
func preMatchForm(groupID string, teams []matchfact.Team, matches []matchfact.Match, matchday int) (map[string]int, map[string]int) {
	positions := make(map[string]int)
	winStreaks := make(map[string]int)
	if matchday <= 1 {
		return positions, winStreaks
	}

	rows, err := standings.Calculate(standings.Input{
		GroupID:      groupID,
		Teams:        teams,
		Matches:      matches,
		UptoMatchday: matchday - 1,
	})
	if err != nil {
		return positions, winStreaks
	}

	for _, row := range rows {
		positions[row.TeamID] = row.Rank
		winStreaks[row.TeamID] = trailingWins(row.Streak)
	}
	return positions, winStreaks
}

func trailingWins(streak string) int {
	count := 0
	for i := len(streak) - 1; i >= 0; i-- {
		if streak[i] != 'W' {
			break
		}
		count++
	}
	return count
}
