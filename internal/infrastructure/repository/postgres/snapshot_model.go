package postgres

import "time"

type snapshotMetaModel struct {
	GroupID        string    `db:"group_id"`
	Matchday       int       `db:"matchday"`
	MatchesCounted int       `db:"matches_counted"`
	TeamCount      int       `db:"team_count"`
	ComputedAt     time.Time `db:"computed_at"`
}

type snapshotRowModel struct {
	GroupID        string `db:"group_id"`
	Matchday       int    `db:"matchday"`
	TeamID         string `db:"team_id"`
	TeamName       string `db:"team_name"`
	Rank           int    `db:"rank"`
	Points         int    `db:"points"`
	Played         int    `db:"played"`
	Won            int    `db:"won"`
	Drawn          int    `db:"drawn"`
	Lost           int    `db:"lost"`
	GoalsFor       int    `db:"goals_for"`
	GoalsAgainst   int    `db:"goals_against"`
	GoalDifference int    `db:"goal_difference"`
	Streak         string `db:"streak"`
}
