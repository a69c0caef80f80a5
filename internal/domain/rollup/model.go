package rollup

// Kind separates player rollups from team rollups.
type Kind string

const (
	KindPlayer Kind = "player"
	KindTeam   Kind = "team"
)

// RunningTotal is the materialized season-to-date aggregate for one subject.
// It must always equal the sum of the score cards it claims to cover; the
// LastMatchday marker is the fold idempotency guard.
type RunningTotal struct {
	SubjectID   string
	SubjectName string
	Kind        Kind
	SeasonID    string
	DivisionID  string
	// Points is the raw cumulative total. AdjustedPoints carries the
	// division multiplier for cross-division comparison; for players the
	// two are equal.
	Points         float64
	AdjustedPoints float64
	Goals          int
	Matches        int
	LastMatchday   int
}
