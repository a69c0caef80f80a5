package memory

import (
	"time"

	"github.com/ligastats/ligastats/internal/domain/matchfact"
)

// SeedGroups and friends provide a small fixture set for the demo wiring when
// no database is configured.
func SeedGroups() []matchfact.Group {
	return []matchfact.Group{
		{ID: "grp-norte-a", SeasonID: "2025-26", DivisionID: "div-1", Name: "Primera Norte A"},
	}
}

func SeedTeams() map[string][]matchfact.Team {
	return map[string][]matchfact.Team{
		"grp-norte-a": {
			{ID: "team-atl", Name: "Atlético Robledo", DivisionID: "div-1"},
			{ID: "team-rac", Name: "Racing Alameda", DivisionID: "div-1"},
			{ID: "team-uni", Name: "Unión Centella", DivisionID: "div-1"},
			{ID: "team-dep", Name: "Deportivo Vega", DivisionID: "div-1"},
		},
	}
}

func SeedMatches() map[string][]matchfact.Match {
	kickoff := time.Date(2025, time.September, 6, 17, 0, 0, 0, time.UTC)
	return map[string][]matchfact.Match{
		"grp-norte-a": {
			{
				ID: "m-001", GroupID: "grp-norte-a", Matchday: 1,
				HomeTeamID: "team-atl", AwayTeamID: "team-rac",
				HomeGoals: intPtr(2), AwayGoals: intPtr(1),
				Played: true, KickoffAt: kickoff, Intensity: intPtr(85),
				Lineups: []matchfact.LineupEntry{
					{MatchID: "m-001", TeamID: "team-atl", PlayerID: "p-alv", PlayerName: "Álvarez", Starter: true},
					{MatchID: "m-001", TeamID: "team-atl", PlayerID: "p-gar", PlayerName: "García", Starter: true, Goalkeeper: true},
					{MatchID: "m-001", TeamID: "team-rac", PlayerID: "p-mor", PlayerName: "Morales", Starter: true},
					{MatchID: "m-001", TeamID: "team-rac", PlayerID: "p-sot", PlayerName: "Soto", Starter: false},
				},
				Events: []matchfact.Event{
					{MatchID: "m-001", Type: matchfact.EventGoal, Minute: intPtr(12), PlayerID: "p-alv", TeamID: "team-atl"},
					{MatchID: "m-001", Type: matchfact.EventGoal, Minute: intPtr(58), PlayerID: "p-mor", TeamID: "team-rac"},
					{MatchID: "m-001", Type: matchfact.EventGoal, Minute: intPtr(83), PlayerID: "p-alv", TeamID: "team-atl"},
					{MatchID: "m-001", Type: matchfact.EventYellow, Minute: intPtr(71), PlayerID: "p-sot", TeamID: "team-rac"},
				},
			},
			{
				ID: "m-002", GroupID: "grp-norte-a", Matchday: 1,
				HomeTeamID: "team-uni", AwayTeamID: "team-dep",
				HomeGoals: intPtr(0), AwayGoals: intPtr(0),
				Played: true, KickoffAt: kickoff.Add(2 * time.Hour),
				Lineups: []matchfact.LineupEntry{
					{MatchID: "m-002", TeamID: "team-uni", PlayerID: "p-rio", PlayerName: "Ríos", Starter: true, Goalkeeper: true},
					{MatchID: "m-002", TeamID: "team-dep", PlayerID: "p-cam", PlayerName: "Campos", Starter: true},
				},
			},
			{
				ID: "m-003", GroupID: "grp-norte-a", Matchday: 2,
				HomeTeamID: "team-rac", AwayTeamID: "team-uni",
				HomeGoals: intPtr(3), AwayGoals: intPtr(1),
				Played: true, KickoffAt: kickoff.AddDate(0, 0, 7),
				Lineups: []matchfact.LineupEntry{
					{MatchID: "m-003", TeamID: "team-rac", PlayerID: "p-mor", PlayerName: "Morales", Starter: true},
					{MatchID: "m-003", TeamID: "team-uni", PlayerID: "p-rio", PlayerName: "Ríos", Starter: true, Goalkeeper: true},
				},
				Events: []matchfact.Event{
					{MatchID: "m-003", Type: matchfact.EventGoal, Minute: intPtr(9), PlayerID: "p-mor", TeamID: "team-rac"},
					{MatchID: "m-003", Type: matchfact.EventGoal, Minute: intPtr(44), PlayerID: "p-mor", TeamID: "team-rac"},
					{MatchID: "m-003", Type: matchfact.EventGoal, Minute: intPtr(60), PlayerID: "p-mor", TeamID: "team-rac"},
					{MatchID: "m-003", Type: matchfact.EventGoal, Minute: intPtr(77), PlayerID: "p-rio", TeamID: "team-uni"},
				},
			},
			{
				ID: "m-004", GroupID: "grp-norte-a", Matchday: 2,
				HomeTeamID: "team-dep", AwayTeamID: "team-atl",
				Played: false, KickoffAt: kickoff.AddDate(0, 0, 7).Add(2 * time.Hour),
			},
		},
	}
}

func SeedCoefficients() map[string]matchfact.Coefficients {
	return map[string]matchfact.Coefficients{
		"2025-26": {
			SeasonID: "2025-26",
			Team: map[string]float64{
				"team-atl": 0.85,
				"team-rac": 0.70,
				"team-uni": 0.55,
				"team-dep": 0.40,
			},
			Division: map[string]float64{
				"div-1": 1.0,
			},
		},
	}
}

func intPtr(v int) *int { return &v }
