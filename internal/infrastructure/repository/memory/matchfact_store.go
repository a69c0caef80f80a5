package memory

import (
	"context"
	"sync"

	"github.com/ligastats/ligastats/internal/domain/matchfact"
)

// MatchFactStore is an in-memory matchfact.Store used by tests and the demo
// wiring. All reads return copies; stored data is never mutated.
type MatchFactStore struct {
	mu           sync.RWMutex
	groups       []matchfact.Group
	teamsByGroup map[string][]matchfact.Team
	matchesByGrp map[string][]matchfact.Match
	coefficients map[string]matchfact.Coefficients
}

func NewMatchFactStore(
	groups []matchfact.Group,
	teamsByGroup map[string][]matchfact.Team,
	matchesByGroup map[string][]matchfact.Match,
	coefficientsBySeason map[string]matchfact.Coefficients,
) *MatchFactStore {
	if teamsByGroup == nil {
		teamsByGroup = make(map[string][]matchfact.Team)
	}
	if matchesByGroup == nil {
		matchesByGroup = make(map[string][]matchfact.Match)
	}
	if coefficientsBySeason == nil {
		coefficientsBySeason = make(map[string]matchfact.Coefficients)
	}
	return &MatchFactStore{
		groups:       append([]matchfact.Group(nil), groups...),
		teamsByGroup: teamsByGroup,
		matchesByGrp: matchesByGroup,
		coefficients: coefficientsBySeason,
	}
}

func (s *MatchFactStore) ListMatches(_ context.Context, groupID string, uptoMatchday int) ([]matchfact.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]matchfact.Match, 0, len(s.matchesByGrp[groupID]))
	for _, match := range s.matchesByGrp[groupID] {
		if uptoMatchday > 0 && match.Matchday > uptoMatchday {
			continue
		}
		out = append(out, match)
	}
	return out, nil
}

func (s *MatchFactStore) ListGroupTeams(_ context.Context, groupID string) ([]matchfact.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]matchfact.Team(nil), s.teamsByGroup[groupID]...), nil
}

func (s *MatchFactStore) ListGroups(_ context.Context) ([]matchfact.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]matchfact.Group(nil), s.groups...), nil
}

func (s *MatchFactStore) GetStrengthCoefficients(_ context.Context, seasonID string, _ int) (matchfact.Coefficients, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if coefficients, ok := s.coefficients[seasonID]; ok {
		return coefficients, nil
	}
	return matchfact.Coefficients{SeasonID: seasonID}, nil
}

// AddMatch appends a match to a group, for test setups that grow fixtures
// between computations.
func (s *MatchFactStore) AddMatch(groupID string, match matchfact.Match) {
	s.mu.Lock()
	s.matchesByGrp[groupID] = append(s.matchesByGrp[groupID], match)
	s.mu.Unlock()
}
