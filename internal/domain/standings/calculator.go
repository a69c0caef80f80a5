package standings

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ligastats/ligastats/internal/domain/matchfact"
)

var ErrInvalidGroup = errors.New("group has no known teams")

// Input carries everything one standings computation needs. Matches and teams
// are read-only; the calculator never touches a repository.
type Input struct {
	GroupID string
	// Teams is the current group membership. Teams appearing in matches but
	// missing here are still included in the table.
	Teams   []matchfact.Team
	Matches []matchfact.Match
	// UptoMatchday limits the fold to matchday <= cutoff; <= 0 means latest.
	UptoMatchday int
	// StreakLength defaults to DefaultStreakLength when <= 0.
	StreakLength int
}

type aggregate struct {
	teamID   string
	teamName string
	points   int
	played   int
	won      int
	drawn    int
	lost     int
	goalsFor int
	goalsAgt int
	results  []byte
}

// Calculate folds played matches into an ordered table.
//
// The fold order (matchday, kickoff, match id) fixes streak chronology. The
// ranking order is the four-key contract: points desc, goal difference desc,
// goals for desc, team display name asc; remaining ties keep input order.
func Calculate(in Input) ([]Row, error) {
	aggregates := make(map[string]*aggregate)
	order := make([]string, 0, len(in.Teams))

	ensure := func(teamID, name string) *aggregate {
		agg, ok := aggregates[teamID]
		if !ok {
			agg = &aggregate{teamID: teamID, teamName: name}
			aggregates[teamID] = agg
			order = append(order, teamID)
		}
		if agg.teamName == "" && name != "" {
			agg.teamName = name
		}
		return agg
	}

	for _, team := range in.Teams {
		ensure(team.ID, team.Name)
	}
	for _, match := range in.Matches {
		ensure(match.HomeTeamID, "")
		ensure(match.AwayTeamID, "")
	}
	if len(aggregates) == 0 {
		return nil, fmt.Errorf("%w: group=%s", ErrInvalidGroup, in.GroupID)
	}

	matches := playedMatches(in.Matches, in.UptoMatchday)
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Matchday != matches[j].Matchday {
			return matches[i].Matchday < matches[j].Matchday
		}
		if !matches[i].KickoffAt.Equal(matches[j].KickoffAt) {
			return matches[i].KickoffAt.Before(matches[j].KickoffAt)
		}
		return matches[i].ID < matches[j].ID
	})

	for _, match := range matches {
		home := aggregates[match.HomeTeamID]
		away := aggregates[match.AwayTeamID]
		home.fold(*match.HomeGoals, *match.AwayGoals)
		away.fold(*match.AwayGoals, *match.HomeGoals)
	}

	streakLength := in.StreakLength
	if streakLength <= 0 {
		streakLength = DefaultStreakLength
	}

	rows := make([]Row, 0, len(order))
	for _, teamID := range order {
		agg := aggregates[teamID]
		rows = append(rows, Row{
			TeamID:         agg.teamID,
			TeamName:       agg.displayName(),
			Points:         agg.points,
			Played:         agg.played,
			Won:            agg.won,
			Drawn:          agg.drawn,
			Lost:           agg.lost,
			GoalsFor:       agg.goalsFor,
			GoalsAgainst:   agg.goalsAgt,
			GoalDifference: agg.goalsFor - agg.goalsAgt,
			Streak:         streak(agg.results, streakLength),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Points != rows[j].Points {
			return rows[i].Points > rows[j].Points
		}
		if rows[i].GoalDifference != rows[j].GoalDifference {
			return rows[i].GoalDifference > rows[j].GoalDifference
		}
		if rows[i].GoalsFor != rows[j].GoalsFor {
			return rows[i].GoalsFor > rows[j].GoalsFor
		}
		return rows[i].TeamName < rows[j].TeamName
	})
	for idx := range rows {
		rows[idx].Rank = idx + 1
	}

	return rows, nil
}

func (a *aggregate) fold(goalsFor, goalsAgainst int) {
	a.played++
	a.goalsFor += goalsFor
	a.goalsAgt += goalsAgainst
	switch {
	case goalsFor > goalsAgainst:
		a.won++
		a.points += 3
		a.results = append(a.results, 'W')
	case goalsFor == goalsAgainst:
		a.drawn++
		a.points++
		a.results = append(a.results, 'D')
	default:
		a.lost++
		a.results = append(a.results, 'L')
	}
}

func (a *aggregate) displayName() string {
	if a.teamName != "" {
		return a.teamName
	}
	return a.teamID
}

func playedMatches(matches []matchfact.Match, uptoMatchday int) []matchfact.Match {
	out := make([]matchfact.Match, 0, len(matches))
	for _, match := range matches {
		if !match.Played || match.HomeGoals == nil || match.AwayGoals == nil {
			continue
		}
		if uptoMatchday > 0 && match.Matchday > uptoMatchday {
			continue
		}
		out = append(out, match)
	}
	return out
}

// streak keeps the last n result tokens, oldest first, most recent last.
func streak(results []byte, n int) string {
	if len(results) > n {
		results = results[len(results)-n:]
	}
	return string(results)
}

// ObservedMatchdays lists the distinct matchday numbers present in a match
// set, ascending. Used by snapshot materialization to walk a whole group.
func ObservedMatchdays(matches []matchfact.Match) []int {
	seen := make(map[int]struct{})
	out := make([]int, 0)
	for _, match := range matches {
		if match.Matchday <= 0 {
			continue
		}
		if _, ok := seen[match.Matchday]; ok {
			continue
		}
		seen[match.Matchday] = struct{}{}
		out = append(out, match.Matchday)
	}
	sort.Ints(out)
	return out
}
