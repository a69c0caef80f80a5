package scorecard

// Factor is one contributing line of a score card, kept for auditability.
type Factor struct {
	Code   string  `json:"code"`
	Points float64 `json:"points"`
}

// Outcome is a single-match result token from one side's perspective.
type Outcome string

const (
	OutcomeWin  Outcome = "W"
	OutcomeDraw Outcome = "D"
	OutcomeLoss Outcome = "L"
)

// ScoreCard is the scored appearance of one player in one match. Derived,
// never mutated after creation; a recompute supersedes it wholesale.
type ScoreCard struct {
	MatchID    string
	GroupID    string
	SeasonID   string
	Matchday   int
	PlayerID   string
	PlayerName string
	TeamID     string
	// Points is the ceil-rounded factor sum.
	Points    int
	RawPoints float64
	Goals     int
	Cards     int
	Factors   []Factor
}

// TeamScoreCard is the scored appearance of one team in one match. The total
// stays a float; division multipliers are applied by the rollup layer.
type TeamScoreCard struct {
	MatchID      string
	GroupID      string
	SeasonID     string
	DivisionID   string
	Matchday     int
	TeamID       string
	Points       float64
	Outcome      Outcome
	GoalsFor     int
	GoalsAgainst int
	Factors      []Factor
}

// Skip records a player or event left out of scoring because its identity
// could not be resolved. Skips degrade locally and never abort a match.
type Skip struct {
	MatchID  string
	PlayerID string
	Reason   string
}
