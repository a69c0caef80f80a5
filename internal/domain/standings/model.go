package standings

import "time"

// DefaultStreakLength is the number of recent result tokens kept per team.
const DefaultStreakLength = 5

// Row is one line of a league table. It is a derived value: recomputed and
// replaced wholesale, never mutated field by field.
type Row struct {
	TeamID         string
	TeamName       string
	Rank           int
	Points         int
	Played         int
	Won            int
	Drawn          int
	Lost           int
	GoalsFor       int
	GoalsAgainst   int
	GoalDifference int
	// Streak holds the last N results as W/D/L tokens, most recent last.
	Streak string
}

// Snapshot is the immutable standings state for one (group, matchday) key.
type Snapshot struct {
	GroupID        string
	Matchday       int
	Rows           []Row
	MatchesCounted int
	TeamCount      int
	ComputedAt     time.Time
}
