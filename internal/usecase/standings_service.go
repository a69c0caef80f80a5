package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/ligastats/ligastats/internal/domain/matchfact"
	"github.com/ligastats/ligastats/internal/domain/standings"
)

// StandingsService answers point-in-time standings reads. Persisted snapshots
// are preferred; when the key has no snapshot the table is recomputed
// wholesale from match facts. The two sources are never blended.
type StandingsService struct {
	facts        matchfact.Store
	snapshots    standings.Repository
	streakLength int
}

func NewStandingsService(facts matchfact.Store, snapshots standings.Repository) *StandingsService {
	return &StandingsService{
		facts:        facts,
		snapshots:    snapshots,
		streakLength: standings.DefaultStreakLength,
	}
}

func (s *StandingsService) SetStreakLength(n int) {
	if n > 0 {
		s.streakLength = n
	}
}

// GetStandings returns the ordered table for a group. matchday <= 0 means
// latest: every played match counts.
func (s *StandingsService) GetStandings(ctx context.Context, groupID string, matchday int) ([]standings.Row, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StandingsService.GetStandings")
	defer span.End()

	groupID = strings.TrimSpace(groupID)
	if groupID == "" {
		return nil, fmt.Errorf("%w: group id is required", ErrInvalidInput)
	}

	if matchday > 0 && s.snapshots != nil {
		snapshot, exists, err := s.snapshots.Get(ctx, groupID, matchday)
		if err != nil {
			return nil, fmt.Errorf("get snapshot: %w", err)
		}
		if exists {
			return snapshot.Rows, nil
		}
	}

	return s.calculate(ctx, groupID, matchday)
}

func (s *StandingsService) calculate(ctx context.Context, groupID string, matchday int) ([]standings.Row, error) {
	teams, err := s.facts.ListGroupTeams(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list group teams: %w", err)
	}
	matches, err := s.facts.ListMatches(ctx, groupID, matchday)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}

	rows, err := standings.Calculate(standings.Input{
		GroupID:      groupID,
		Teams:        teams,
		Matches:      matches,
		UptoMatchday: matchday,
		StreakLength: s.streakLength,
	})
	if err != nil {
		return nil, fmt.Errorf("calculate standings group=%s: %w", groupID, err)
	}
	return rows, nil
}
