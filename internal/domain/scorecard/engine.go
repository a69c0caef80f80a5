package scorecard

import (
	"errors"
	"fmt"
	"math"

	"github.com/ligastats/ligastats/internal/domain/matchfact"
)

var ErrMatchNotPlayed = errors.New("match has no final score")

// Weights stores the tunable deltas of the scoring rule set. Thresholds
// (strength tiers, intensity bands, goalkeeper bands) are fixed contract.
type Weights struct {
	Starter        float64
	Bench          float64
	Win            float64
	Draw           float64
	Goal           float64
	OwnGoal        float64
	Yellow         float64
	SecondYellow   float64
	Red            float64
	MOTMTag        float64
	DecisiveGoal   float64
	SolidKeeper    float64
	TeamWin        float64
	TeamDraw       float64
	TeamAwayWin    float64
	TeamBottomTier float64
	TeamStreaker   float64
}

func DefaultWeights() Weights {
	return Weights{
		Starter:        3.0,
		Bench:          1.0,
		Win:            2.0,
		Draw:           1.0,
		Goal:           3.0,
		OwnGoal:        -2.0,
		Yellow:         -1.0,
		SecondYellow:   -3.0,
		Red:            -5.0,
		MOTMTag:        3.0,
		DecisiveGoal:   1.0,
		SolidKeeper:    1.0,
		TeamWin:        1.0,
		TeamDraw:       0.4,
		TeamAwayWin:    0.25,
		TeamBottomTier: -0.15,
		TeamStreaker:   0.15,
	}
}

// MatchContext bundles the immutable inputs for scoring one match. League
// positions and win streaks describe each side as the match kicks off.
type MatchContext struct {
	Match          matchfact.Match
	GroupID        string
	SeasonID       string
	DivisionID     string
	Coefficients   matchfact.Coefficients
	LeaguePosition map[string]int
	WinStreak      map[string]int
}

// Result is everything Score produces for one match.
type Result struct {
	Players []ScoreCard
	Teams   []TeamScoreCard
	Skips   []Skip
}

type appearance struct {
	playerID      string
	playerName    string
	teamID        string
	inLineup      bool
	starter       bool
	goalkeeper    bool
	goals         int
	ownGoals      int
	yellows       int
	secondYellows int
	reds          int
	motmTags      int
}

// Score evaluates the full rule set over one played match and produces a
// ScoreCard per resolvable player appearance plus a TeamScoreCard per side.
// Unresolvable identities are reported as Skips, never as errors.
func Score(mc MatchContext, w Weights) (Result, error) {
	match := mc.Match
	if !match.Played || match.HomeGoals == nil || match.AwayGoals == nil {
		return Result{}, fmt.Errorf("%w: match=%s", ErrMatchNotPlayed, match.ID)
	}

	out := Result{}
	appearances, order, skips := collectAppearances(match)
	out.Skips = skips

	decisiveScorer := decisiveGoalScorer(match)

	for _, playerID := range order {
		app := appearances[playerID]
		if app.teamID == "" {
			out.Skips = append(out.Skips, Skip{
				MatchID:  match.ID,
				PlayerID: playerID,
				Reason:   "player team unresolvable",
			})
			continue
		}
		out.Players = append(out.Players, scorePlayer(mc, w, app, decisiveScorer))
	}

	out.Teams = []TeamScoreCard{
		scoreTeam(mc, w, match.HomeTeamID, false),
		scoreTeam(mc, w, match.AwayTeamID, true),
	}

	return out, nil
}

func collectAppearances(match matchfact.Match) (map[string]*appearance, []string, []Skip) {
	appearances := make(map[string]*appearance)
	order := make([]string, 0, len(match.Lineups))
	skips := make([]Skip, 0)

	ensure := func(playerID string) *appearance {
		app, ok := appearances[playerID]
		if !ok {
			app = &appearance{playerID: playerID}
			appearances[playerID] = app
			order = append(order, playerID)
		}
		return app
	}

	for _, entry := range match.Lineups {
		if entry.PlayerID == "" {
			skips = append(skips, Skip{MatchID: match.ID, Reason: "lineup entry without player id"})
			continue
		}
		app := ensure(entry.PlayerID)
		app.inLineup = true
		app.teamID = entry.TeamID
		app.playerName = entry.PlayerName
		app.starter = app.starter || entry.Starter
		app.goalkeeper = app.goalkeeper || entry.Goalkeeper
	}

	for _, event := range match.Events {
		if event.PlayerID == "" {
			skips = append(skips, Skip{
				MatchID: match.ID,
				Reason:  fmt.Sprintf("event %s without player id", event.Type),
			})
			continue
		}
		app := ensure(event.PlayerID)
		if app.teamID == "" {
			app.teamID = event.TeamID
		}
		switch event.Type {
		case matchfact.EventGoal:
			app.goals++
		case matchfact.EventOwnGoal:
			app.ownGoals++
		case matchfact.EventYellow:
			app.yellows++
		case matchfact.EventSecondYellow:
			app.secondYellows++
		case matchfact.EventRed:
			app.reds++
		case matchfact.EventMOTMTag:
			app.motmTags++
		}
	}

	return appearances, order, skips
}

func scorePlayer(mc MatchContext, w Weights, app *appearance, decisiveScorer string) ScoreCard {
	match := mc.Match
	factors := make([]Factor, 0, 8)
	add := func(code string, points float64) {
		if points == 0 {
			return
		}
		factors = append(factors, Factor{Code: code, Points: points})
	}

	if app.starter {
		add("starter", w.Starter)
	} else {
		add("bench", w.Bench)
	}

	goalsFor, goalsAgainst, _ := match.Result(app.teamID)
	outcome := outcomeOf(goalsFor, goalsAgainst)
	switch outcome {
	case OutcomeWin:
		add("won", w.Win)
	case OutcomeDraw:
		add("drew", w.Draw)
	}

	ownCoeff := mc.Coefficients.TeamCoefficient(app.teamID)
	oppCoeff := mc.Coefficients.TeamCoefficient(match.OpponentID(app.teamID))
	if outcome != OutcomeLoss {
		add("tough_opponent", strengthTier(oppCoeff, 1.0, 0.5))
	}
	if ownCoeff >= 0.8 && oppCoeff >= 0.8 {
		add("strong_fixture", 1.0)
	} else if ownCoeff >= 0.6 && oppCoeff >= 0.6 {
		add("strong_fixture", 0.5)
	}
	if match.Intensity != nil {
		switch {
		case *match.Intensity >= 90:
			add("high_intensity", 1.0)
		case *match.Intensity >= 80:
			add("high_intensity", 0.5)
		}
	}

	if app.goals > 0 {
		add("goals", float64(app.goals)*w.Goal)
	}
	if app.ownGoals > 0 {
		add("own_goals", float64(app.ownGoals)*w.OwnGoal)
	}
	if app.yellows > 0 {
		add("yellow_cards", float64(app.yellows)*w.Yellow)
	}
	if app.secondYellows > 0 {
		add("second_yellow", float64(app.secondYellows)*w.SecondYellow)
	}
	if app.reds > 0 {
		add("red_cards", float64(app.reds)*w.Red)
	}
	if app.motmTags > 0 {
		add("motm_tag", float64(app.motmTags)*w.MOTMTag)
	}
	if app.playerID == decisiveScorer {
		add("decisive_goal", w.DecisiveGoal)
	}

	if app.goalkeeper {
		if goalsAgainst > 2 {
			add("keeper_conceded", -float64(goalsAgainst-2))
		}
		if outcome != OutcomeLoss && goalsAgainst <= 1 {
			add("solid_keeper", w.SolidKeeper)
		}
		if app.goals > 0 {
			add("scoring_keeper", scoringKeeperBonus(app.goals))
		}
	}

	raw := 0.0
	for _, factor := range factors {
		raw += factor.Points
	}

	return ScoreCard{
		MatchID:    match.ID,
		GroupID:    mc.GroupID,
		SeasonID:   mc.SeasonID,
		Matchday:   match.Matchday,
		PlayerID:   app.playerID,
		PlayerName: app.playerName,
		TeamID:     app.teamID,
		Points:     int(math.Ceil(raw)),
		RawPoints:  raw,
		Goals:      app.goals,
		Cards:      app.yellows + app.secondYellows + app.reds,
		Factors:    factors,
	}
}

func scoreTeam(mc MatchContext, w Weights, teamID string, away bool) TeamScoreCard {
	match := mc.Match
	goalsFor, goalsAgainst, _ := match.Result(teamID)
	outcome := outcomeOf(goalsFor, goalsAgainst)

	factors := make([]Factor, 0, 6)
	add := func(code string, points float64) {
		if points == 0 {
			return
		}
		factors = append(factors, Factor{Code: code, Points: points})
	}

	switch outcome {
	case OutcomeWin:
		add("won", w.TeamWin)
	case OutcomeDraw:
		add("drew", w.TeamDraw)
	}

	opponentID := match.OpponentID(teamID)
	oppCoeff := mc.Coefficients.TeamCoefficient(opponentID)
	if outcome != OutcomeLoss {
		switch {
		case oppCoeff >= 0.8:
			add("tough_opponent", 0.35)
		case oppCoeff >= 0.6:
			add("tough_opponent", 0.20)
		case oppCoeff >= 0.4:
			add("tough_opponent", 0.10)
		}
	}

	if gd := goalsFor - goalsAgainst; gd >= 1 {
		switch {
		case gd >= 3:
			add("goal_margin", 0.35)
		case gd == 2:
			add("goal_margin", 0.20)
		default:
			add("goal_margin", 0.10)
		}
	}

	if pos := mc.LeaguePosition[opponentID]; pos >= 14 {
		add("bottom_tier_opponent", w.TeamBottomTier)
	}
	if outcome != OutcomeLoss && mc.WinStreak[opponentID] >= 3 {
		add("streak_breaker", w.TeamStreaker)
	}
	if away && outcome == OutcomeWin {
		add("away_win", w.TeamAwayWin)
	}

	sum := 0.0
	for _, factor := range factors {
		sum += factor.Points
	}
	total := sum * (0.9 + mc.Coefficients.TeamCoefficient(teamID))

	return TeamScoreCard{
		MatchID:      match.ID,
		GroupID:      mc.GroupID,
		SeasonID:     mc.SeasonID,
		DivisionID:   mc.DivisionID,
		Matchday:     match.Matchday,
		TeamID:       teamID,
		Points:       total,
		Outcome:      outcome,
		GoalsFor:     goalsFor,
		GoalsAgainst: goalsAgainst,
		Factors:      factors,
	}
}

// decisiveGoalScorer returns the player to credit with the decisive-goal
// bonus, or "" when the match does not qualify. A match qualifies when the
// final margin is exactly one and the chronologically last goal event is a
// regular goal by the winning side. Events without a minute sort before any
// timed event; remaining ties keep input order (latest wins).
func decisiveGoalScorer(match matchfact.Match) string {
	if match.HomeGoals == nil || match.AwayGoals == nil {
		return ""
	}
	diff := *match.HomeGoals - *match.AwayGoals
	if diff != 1 && diff != -1 {
		return ""
	}
	winnerID := match.HomeTeamID
	if diff < 0 {
		winnerID = match.AwayTeamID
	}

	lastMinute := -1
	var last *matchfact.Event
	for idx := range match.Events {
		event := match.Events[idx]
		if event.Type != matchfact.EventGoal && event.Type != matchfact.EventOwnGoal {
			continue
		}
		minute := -1
		if event.Minute != nil {
			minute = *event.Minute
		}
		if last == nil || minute >= lastMinute {
			lastMinute = minute
			last = &match.Events[idx]
		}
	}
	if last == nil || last.Type != matchfact.EventGoal || last.TeamID != winnerID {
		return ""
	}
	return last.PlayerID
}

func scoringKeeperBonus(goals int) float64 {
	switch {
	case goals >= 3:
		return 20.0
	case goals == 2:
		return 12.0
	case goals == 1:
		return 5.0
	default:
		return 0
	}
}

func strengthTier(coeff, strong, mid float64) float64 {
	switch {
	case coeff >= 0.8:
		return strong
	case coeff >= 0.6:
		return mid
	default:
		return 0
	}
}

func outcomeOf(goalsFor, goalsAgainst int) Outcome {
	switch {
	case goalsFor > goalsAgainst:
		return OutcomeWin
	case goalsFor == goalsAgainst:
		return OutcomeDraw
	default:
		return OutcomeLoss
	}
}
