package matchfact

import "time"

// EventType enumerates the discrete in-match events the engine scores.
type EventType string

const (
	EventGoal         EventType = "goal"
	EventOwnGoal      EventType = "own_goal"
	EventYellow       EventType = "yellow"
	EventSecondYellow EventType = "second_yellow"
	EventRed          EventType = "red"
	EventMOTMTag      EventType = "motm_tag"
)

var AllEventTypes = map[EventType]struct{}{
	EventGoal:         {},
	EventOwnGoal:      {},
	EventYellow:       {},
	EventSecondYellow: {},
	EventRed:          {},
	EventMOTMTag:      {},
}

// Match is one fixture between two teams inside a group.
// Goals are nil until the match has been played.
type Match struct {
	ID         string
	GroupID    string
	Matchday   int
	HomeTeamID string
	AwayTeamID string
	HomeGoals  *int
	AwayGoals  *int
	Played     bool
	KickoffAt  time.Time
	// Intensity is an externally supplied 0-100 index; nil when unknown.
	Intensity *int
	Events    []Event
	Lineups   []LineupEntry
}

// Event is a single in-match occurrence. Minute, PlayerID and TeamID may be
// absent depending on the upstream data quality.
type Event struct {
	MatchID  string
	Type     EventType
	Minute   *int
	PlayerID string
	TeamID   string
}

// LineupEntry records one player appearance in a match squad list.
type LineupEntry struct {
	MatchID    string
	TeamID     string
	PlayerID   string
	PlayerName string
	Starter    bool
	Goalkeeper bool
}

type Team struct {
	ID         string
	Name       string
	DivisionID string
}

type Group struct {
	ID         string
	SeasonID   string
	DivisionID string
	Name       string
}

// Coefficients is the versioned strength lookup for one computation:
// per-team values in [0.1, 1.0] plus per-division multipliers.
type Coefficients struct {
	SeasonID          string
	ReferenceMatchday int
	Team              map[string]float64
	Division          map[string]float64
}

// TeamCoefficient returns the strength value for a team, or the floor value
// when the team is unknown to the lookup.
func (c Coefficients) TeamCoefficient(teamID string) float64 {
	if v, ok := c.Team[teamID]; ok {
		return v
	}
	return 0.1
}

// DivisionMultiplier defaults to 1.0 for unknown divisions so cross-division
// aggregation never zeroes out a subject.
func (c Coefficients) DivisionMultiplier(divisionID string) float64 {
	if v, ok := c.Division[divisionID]; ok {
		return v
	}
	return 1.0
}

// Result reports the final score from one side's perspective.
func (m Match) Result(teamID string) (goalsFor, goalsAgainst int, ok bool) {
	if !m.Played || m.HomeGoals == nil || m.AwayGoals == nil {
		return 0, 0, false
	}
	switch teamID {
	case m.HomeTeamID:
		return *m.HomeGoals, *m.AwayGoals, true
	case m.AwayTeamID:
		return *m.AwayGoals, *m.HomeGoals, true
	default:
		return 0, 0, false
	}
}

// OpponentID returns the other side of the fixture, or "" when the team is
// not part of it.
func (m Match) OpponentID(teamID string) string {
	switch teamID {
	case m.HomeTeamID:
		return m.AwayTeamID
	case m.AwayTeamID:
		return m.HomeTeamID
	default:
		return ""
	}
}
