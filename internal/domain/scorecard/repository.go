package scorecard

import "context"

// Repository persists per-match score cards. Replace swaps the full card set
// for one match atomically; cards are never updated in place.
type Repository interface {
	ReplaceForMatch(ctx context.Context, matchID string, players []ScoreCard, teams []TeamScoreCard) error
	GetPlayerCard(ctx context.Context, matchID, playerID string) (ScoreCard, bool, error)
	ListPlayerCardsByMatch(ctx context.Context, matchID string) ([]ScoreCard, error)
	// ListPlayerCardsBySubject returns every card for one player in a season,
	// ordered by matchday ascending. Ground truth for rollup rebuilds.
	ListPlayerCardsBySubject(ctx context.Context, seasonID, playerID string) ([]ScoreCard, error)
	ListTeamCardsBySubject(ctx context.Context, seasonID, teamID string) ([]TeamScoreCard, error)
	ListPlayerCardsByMatchday(ctx context.Context, groupID string, matchday int) ([]ScoreCard, error)
	ListTeamCardsByMatchday(ctx context.Context, groupID string, matchday int) ([]TeamScoreCard, error)
}
