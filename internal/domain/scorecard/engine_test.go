package scorecard

import (
	"errors"
	"math"
	"testing"

	"github.com/ligastats/ligastats/internal/domain/matchfact"
)

func intPtr(v int) *int { return &v }

func baseMatch(hg, ag int) matchfact.Match {
	return matchfact.Match{
		ID:         "m-1",
		Matchday:   4,
		HomeTeamID: "team-a",
		AwayTeamID: "team-b",
		HomeGoals:  intPtr(hg),
		AwayGoals:  intPtr(ag),
		Played:     true,
	}
}

func cardByPlayer(t *testing.T, cards []ScoreCard, playerID string) ScoreCard {
	t.Helper()
	for _, card := range cards {
		if card.PlayerID == playerID {
			return card
		}
	}
	t.Fatalf("no card for player %s in %+v", playerID, cards)
	return ScoreCard{}
}

func factorPoints(card ScoreCard, code string) (float64, bool) {
	for _, factor := range card.Factors {
		if factor.Code == code {
			return factor.Points, true
		}
	}
	return 0, false
}

func TestScore_RejectsUnplayedMatch(t *testing.T) {
	t.Parallel()

	match := baseMatch(0, 0)
	match.Played = false
	match.HomeGoals = nil
	match.AwayGoals = nil

	_, err := Score(MatchContext{Match: match}, DefaultWeights())
	if !errors.Is(err, ErrMatchNotPlayed) {
		t.Fatalf("expected ErrMatchNotPlayed, got %v", err)
	}
}

func TestScore_PlayerBaseFactors(t *testing.T) {
	t.Parallel()

	match := baseMatch(2, 1)
	match.Lineups = []matchfact.LineupEntry{
		{MatchID: "m-1", TeamID: "team-a", PlayerID: "p-1", PlayerName: "Ana", Starter: true},
		{MatchID: "m-1", TeamID: "team-a", PlayerID: "p-3", PlayerName: "Coro"},
		{MatchID: "m-1", TeamID: "team-b", PlayerID: "p-2", PlayerName: "Bruno", Starter: true},
	}
	match.Events = []matchfact.Event{
		{MatchID: "m-1", Type: matchfact.EventGoal, Minute: intPtr(10), PlayerID: "p-1", TeamID: "team-a"},
		{MatchID: "m-1", Type: matchfact.EventGoal, Minute: intPtr(30), PlayerID: "p-2", TeamID: "team-b"},
		{MatchID: "m-1", Type: matchfact.EventGoal, Minute: intPtr(80), PlayerID: "p-3", TeamID: "team-a"},
	}

	result, err := Score(MatchContext{Match: match, GroupID: "grp-1", SeasonID: "2025-26"}, DefaultWeights())
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if len(result.Players) != 3 {
		t.Fatalf("expected 3 player cards, got %d", len(result.Players))
	}

	// Starter on the winning side with one goal: 3 + 2 + 3.
	p1 := cardByPlayer(t, result.Players, "p-1")
	if p1.RawPoints != 8 || p1.Points != 8 {
		t.Fatalf("unexpected p-1 points: raw=%v points=%d factors=%+v", p1.RawPoints, p1.Points, p1.Factors)
	}
	if p1.Goals != 1 {
		t.Fatalf("unexpected p-1 goals: %d", p1.Goals)
	}

	// Bench winner with the decisive goal: 1 + 2 + 3 + 1.
	p3 := cardByPlayer(t, result.Players, "p-3")
	if p3.RawPoints != 7 {
		t.Fatalf("unexpected p-3 raw points: %v factors=%+v", p3.RawPoints, p3.Factors)
	}
	if _, ok := factorPoints(p3, "decisive_goal"); !ok {
		t.Fatalf("expected decisive_goal factor on p-3: %+v", p3.Factors)
	}

	// Starter on the losing side with one goal: 3 + 3, no outcome bonus.
	p2 := cardByPlayer(t, result.Players, "p-2")
	if p2.RawPoints != 6 {
		t.Fatalf("unexpected p-2 raw points: %v factors=%+v", p2.RawPoints, p2.Factors)
	}
	if _, ok := factorPoints(p2, "decisive_goal"); ok {
		t.Fatalf("losing scorer must not get decisive_goal: %+v", p2.Factors)
	}
}

func TestScore_EventOnlyPlayerCountsAsBench(t *testing.T) {
	t.Parallel()

	match := baseMatch(1, 1)
	match.Events = []matchfact.Event{
		{MatchID: "m-1", Type: matchfact.EventGoal, Minute: intPtr(50), PlayerID: "p-9", TeamID: "team-a"},
	}

	result, err := Score(MatchContext{Match: match}, DefaultWeights())
	if err != nil {
		t.Fatalf("score: %v", err)
	}

	p9 := cardByPlayer(t, result.Players, "p-9")
	if _, ok := factorPoints(p9, "bench"); !ok {
		t.Fatalf("expected bench factor for event-only player: %+v", p9.Factors)
	}
	// bench 1 + drew 1 + goal 3.
	if p9.RawPoints != 5 {
		t.Fatalf("unexpected raw points: %v", p9.RawPoints)
	}
}

func TestScore_SkipsUnresolvableIdentities(t *testing.T) {
	t.Parallel()

	match := baseMatch(1, 0)
	match.Lineups = []matchfact.LineupEntry{
		{MatchID: "m-1", TeamID: "team-a", PlayerID: ""},
	}
	match.Events = []matchfact.Event{
		{MatchID: "m-1", Type: matchfact.EventYellow, PlayerID: ""},
		{MatchID: "m-1", Type: matchfact.EventGoal, PlayerID: "p-no-team"},
	}

	result, err := Score(MatchContext{Match: match}, DefaultWeights())
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if len(result.Players) != 0 {
		t.Fatalf("expected no scorable players, got %+v", result.Players)
	}
	if len(result.Skips) != 3 {
		t.Fatalf("expected 3 skips, got %+v", result.Skips)
	}
}

func TestScore_GoalkeeperBands(t *testing.T) {
	t.Parallel()

	keeperLineup := func(teamID string) []matchfact.LineupEntry {
		return []matchfact.LineupEntry{
			{MatchID: "m-1", TeamID: teamID, PlayerID: "gk-1", Starter: true, Goalkeeper: true},
		}
	}

	t.Run("clean sheet win earns solid bonus", func(t *testing.T) {
		match := baseMatch(1, 0)
		match.Lineups = keeperLineup("team-a")
		result, err := Score(MatchContext{Match: match}, DefaultWeights())
		if err != nil {
			t.Fatalf("score: %v", err)
		}
		gk := cardByPlayer(t, result.Players, "gk-1")
		// starter 3 + won 2 + solid 1.
		if gk.RawPoints != 6 {
			t.Fatalf("unexpected raw points: %v factors=%+v", gk.RawPoints, gk.Factors)
		}
	})

	t.Run("two conceded in a win is neutral", func(t *testing.T) {
		match := baseMatch(3, 2)
		match.Lineups = keeperLineup("team-a")
		result, err := Score(MatchContext{Match: match}, DefaultWeights())
		if err != nil {
			t.Fatalf("score: %v", err)
		}
		gk := cardByPlayer(t, result.Players, "gk-1")
		if _, ok := factorPoints(gk, "solid_keeper"); ok {
			t.Fatalf("solid bonus requires at most one conceded: %+v", gk.Factors)
		}
		if _, ok := factorPoints(gk, "keeper_conceded"); ok {
			t.Fatalf("penalty starts above two conceded: %+v", gk.Factors)
		}
		// starter 3 + won 2.
		if gk.RawPoints != 5 {
			t.Fatalf("unexpected raw points: %v", gk.RawPoints)
		}
	})

	t.Run("heavy concession is penalized per goal over two", func(t *testing.T) {
		match := baseMatch(4, 4)
		match.Lineups = keeperLineup("team-a")
		result, err := Score(MatchContext{Match: match}, DefaultWeights())
		if err != nil {
			t.Fatalf("score: %v", err)
		}
		gk := cardByPlayer(t, result.Players, "gk-1")
		penalty, ok := factorPoints(gk, "keeper_conceded")
		if !ok || penalty != -2 {
			t.Fatalf("expected keeper_conceded=-2, got %v (factors=%+v)", penalty, gk.Factors)
		}
		// starter 3 + drew 1 - 2.
		if gk.RawPoints != 2 {
			t.Fatalf("unexpected raw points: %v", gk.RawPoints)
		}
	})

	t.Run("scoring keeper bonus", func(t *testing.T) {
		match := baseMatch(2, 0)
		match.Lineups = keeperLineup("team-a")
		match.Events = []matchfact.Event{
			{MatchID: "m-1", Type: matchfact.EventGoal, Minute: intPtr(90), PlayerID: "gk-1", TeamID: "team-a"},
		}
		result, err := Score(MatchContext{Match: match}, DefaultWeights())
		if err != nil {
			t.Fatalf("score: %v", err)
		}
		gk := cardByPlayer(t, result.Players, "gk-1")
		bonus, ok := factorPoints(gk, "scoring_keeper")
		if !ok || bonus != 5 {
			t.Fatalf("expected scoring_keeper=5, got %v", bonus)
		}
	})
}

func TestScore_IntensityAndCeiling(t *testing.T) {
	t.Parallel()

	match := baseMatch(1, 0)
	match.Intensity = intPtr(85)
	match.Lineups = []matchfact.LineupEntry{
		{MatchID: "m-1", TeamID: "team-a", PlayerID: "p-1", Starter: true},
	}

	result, err := Score(MatchContext{Match: match}, DefaultWeights())
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	p1 := cardByPlayer(t, result.Players, "p-1")
	// starter 3 + won 2 + intensity 0.5; display points round up.
	if p1.RawPoints != 5.5 {
		t.Fatalf("unexpected raw points: %v", p1.RawPoints)
	}
	if p1.Points != 6 {
		t.Fatalf("expected ceil to 6, got %d", p1.Points)
	}
}

func TestDecisiveGoalScorer(t *testing.T) {
	t.Parallel()

	t.Run("two goal margin never qualifies", func(t *testing.T) {
		match := baseMatch(2, 0)
		match.Events = []matchfact.Event{
			{Type: matchfact.EventGoal, Minute: intPtr(88), PlayerID: "p-1", TeamID: "team-a"},
		}
		if got := decisiveGoalScorer(match); got != "" {
			t.Fatalf("expected no decisive scorer, got %q", got)
		}
	})

	t.Run("last goal as own goal disqualifies", func(t *testing.T) {
		match := baseMatch(2, 1)
		match.Events = []matchfact.Event{
			{Type: matchfact.EventGoal, Minute: intPtr(20), PlayerID: "p-1", TeamID: "team-a"},
			{Type: matchfact.EventOwnGoal, Minute: intPtr(85), PlayerID: "p-2", TeamID: "team-b"},
		}
		if got := decisiveGoalScorer(match); got != "" {
			t.Fatalf("expected no decisive scorer after own goal, got %q", got)
		}
	})

	t.Run("untimed events sort before timed ones", func(t *testing.T) {
		match := baseMatch(1, 0)
		match.Events = []matchfact.Event{
			{Type: matchfact.EventGoal, Minute: intPtr(5), PlayerID: "p-timed", TeamID: "team-a"},
			{Type: matchfact.EventGoal, PlayerID: "p-untimed", TeamID: "team-a"},
		}
		if got := decisiveGoalScorer(match); got != "p-timed" {
			t.Fatalf("expected timed goal to be last, got %q", got)
		}
	})
}

func TestScoreTeam_AwayWinComposition(t *testing.T) {
	t.Parallel()

	match := baseMatch(0, 1)
	mc := MatchContext{
		Match:      match,
		GroupID:    "grp-1",
		SeasonID:   "2025-26",
		DivisionID: "div-1",
		Coefficients: matchfact.Coefficients{
			Team: map[string]float64{"team-a": 0.7, "team-b": 0.5},
		},
		LeaguePosition: map[string]int{"team-a": 15},
		WinStreak:      map[string]int{"team-a": 3},
	}

	result, err := Score(mc, DefaultWeights())
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if len(result.Teams) != 2 {
		t.Fatalf("expected two team cards, got %d", len(result.Teams))
	}

	var home, away TeamScoreCard
	for _, card := range result.Teams {
		switch card.TeamID {
		case "team-a":
			home = card
		case "team-b":
			away = card
		}
	}

	// won 1.0 + tough_opponent 0.20 + goal_margin 0.10 + bottom_tier -0.15
	// + streak_breaker 0.15 + away_win 0.25, all scaled by 0.9 + 0.5.
	want := 1.55 * 1.4
	if math.Abs(away.Points-want) > 1e-9 {
		t.Fatalf("unexpected away points: got=%v want=%v factors=%+v", away.Points, want, away.Factors)
	}
	if away.Outcome != OutcomeWin {
		t.Fatalf("unexpected away outcome: %s", away.Outcome)
	}

	if home.Points != 0 || home.Outcome != OutcomeLoss {
		t.Fatalf("losing side must earn nothing: %+v", home)
	}
	if _, ok := teamFactor(home, "tough_opponent"); ok {
		t.Fatalf("tough_opponent only applies on win or draw: %+v", home.Factors)
	}
}

func TestScoreTeam_DrawKeepsToughOpponentButNotStreakBonusBelowThreshold(t *testing.T) {
	t.Parallel()

	match := baseMatch(1, 1)
	mc := MatchContext{
		Match: match,
		Coefficients: matchfact.Coefficients{
			Team: map[string]float64{"team-a": 0.9, "team-b": 0.9},
		},
		WinStreak: map[string]int{"team-a": 2, "team-b": 2},
	}

	result, err := Score(mc, DefaultWeights())
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	for _, card := range result.Teams {
		if _, ok := teamFactor(card, "tough_opponent"); !ok {
			t.Fatalf("expected tough_opponent on draw vs strong side: %+v", card.Factors)
		}
		if _, ok := teamFactor(card, "streak_breaker"); ok {
			t.Fatalf("streak bonus requires a three-win streak: %+v", card.Factors)
		}
		if _, ok := teamFactor(card, "goal_margin"); ok {
			t.Fatalf("draw has no goal margin: %+v", card.Factors)
		}
	}
}

func teamFactor(card TeamScoreCard, code string) (float64, bool) {
	for _, factor := range card.Factors {
		if factor.Code == code {
			return factor.Points, true
		}
	}
	return 0, false
}
