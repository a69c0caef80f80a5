package usecase

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/ligastats/ligastats/internal/domain/matchfact"
	"github.com/ligastats/ligastats/internal/domain/rollup"
	"github.com/ligastats/ligastats/internal/infrastructure/repository/memory"
	"github.com/ligastats/ligastats/internal/platform/cache"
)

// newRollupFixture wires scoring and rollups over the seed fixtures so tests
// can exercise the full score-then-fold pipeline.
func newRollupFixture(readCache *cache.Store) (*RollupService, *ScoringService, *memory.RollupRepository) {
	facts := memory.NewMatchFactStore(
		memory.SeedGroups(),
		memory.SeedTeams(),
		memory.SeedMatches(),
		memory.SeedCoefficients(),
	)
	cards := memory.NewScoreCardRepository()
	rollups := memory.NewRollupRepository()
	scoring := NewScoringService(facts, cards, rollups, nil)
	service := NewRollupService(facts, cards, rollups, readCache, nil)
	return service, scoring, rollups
}

func scoreAndFold(t *testing.T, service *RollupService, scoring *ScoringService, matchdays ...int) {
	t.Helper()
	ctx := context.Background()
	for _, matchday := range matchdays {
		if _, err := scoring.ScoreMatchday(ctx, "grp-norte-a", matchday); err != nil {
			t.Fatalf("score matchday %d: %v", matchday, err)
		}
		if err := service.FoldMatchday(ctx, "grp-norte-a", matchday); err != nil {
			t.Fatalf("fold matchday %d: %v", matchday, err)
		}
	}
}

func TestRollupService_FoldMatchday_InvalidInput(t *testing.T) {
	t.Parallel()

	service, _, _ := newRollupFixture(nil)

	if err := service.FoldMatchday(context.Background(), "", 1); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank group, got %v", err)
	}
	if err := service.FoldMatchday(context.Background(), "grp-norte-a", 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for matchday zero, got %v", err)
	}
}

func TestRollupService_FoldMatchday_NoCardsIsNoOp(t *testing.T) {
	t.Parallel()

	service, _, rollups := newRollupFixture(nil)

	if err := service.FoldMatchday(context.Background(), "grp-norte-a", 7); err != nil {
		t.Fatalf("fold empty matchday: %v", err)
	}
	totals, err := rollups.ListBySeason(context.Background(), "2025-26", rollup.KindPlayer)
	if err != nil {
		t.Fatalf("list totals: %v", err)
	}
	if len(totals) != 0 {
		t.Fatalf("expected no totals, got %+v", totals)
	}
}

func TestRollupService_RefoldIsNoOp(t *testing.T) {
	t.Parallel()

	service, scoring, rollups := newRollupFixture(nil)
	ctx := context.Background()
	scoreAndFold(t, service, scoring, 1)

	before, exists, err := rollups.Get(ctx, "2025-26", rollup.KindPlayer, "p-mor")
	if err != nil || !exists {
		t.Fatalf("expected folded total, exists=%t err=%v", exists, err)
	}

	// Same matchday again: the marker guard must leave every total untouched.
	if err := service.FoldMatchday(ctx, "grp-norte-a", 1); err != nil {
		t.Fatalf("refold: %v", err)
	}
	after, _, err := rollups.Get(ctx, "2025-26", rollup.KindPlayer, "p-mor")
	if err != nil {
		t.Fatalf("get total: %v", err)
	}
	if after != before {
		t.Fatalf("refold mutated the total:\nbefore=%+v\nafter=%+v", before, after)
	}
	if after.Matches != 1 {
		t.Fatalf("expected a single folded appearance, got %+v", after)
	}
}

func TestRollupService_FoldMatchesRebuild(t *testing.T) {
	t.Parallel()

	service, scoring, rollups := newRollupFixture(nil)
	ctx := context.Background()
	scoreAndFold(t, service, scoring, 1, 2)

	subjects := []struct {
		kind      rollup.Kind
		subjectID string
		matches   int
	}{
		{rollup.KindPlayer, "p-mor", 2},
		{rollup.KindPlayer, "p-alv", 1},
		{rollup.KindTeam, "team-rac", 2},
		{rollup.KindTeam, "team-uni", 2},
	}
	for _, subject := range subjects {
		stored, exists, err := rollups.Get(ctx, "2025-26", subject.kind, subject.subjectID)
		if err != nil || !exists {
			t.Fatalf("subject %s: expected folded total, exists=%t err=%v", subject.subjectID, exists, err)
		}
		rebuilt, err := service.Rebuild(ctx, "2025-26", subject.kind, subject.subjectID)
		if err != nil {
			t.Fatalf("rebuild %s: %v", subject.subjectID, err)
		}
		if math.Abs(stored.Points-rebuilt.Points) > rollupEpsilon ||
			math.Abs(stored.AdjustedPoints-rebuilt.AdjustedPoints) > rollupEpsilon ||
			stored.Goals != rebuilt.Goals ||
			stored.Matches != rebuilt.Matches ||
			stored.LastMatchday != rebuilt.LastMatchday {
			t.Fatalf("fold diverges from rebuild for %s:\nstored=%+v\nrebuilt=%+v", subject.subjectID, stored, rebuilt)
		}
		if stored.Matches != subject.matches {
			t.Fatalf("unexpected appearance count for %s: %+v", subject.subjectID, stored)
		}
	}
}

func TestRollupService_FoldMatchesRebuild_GroupWithoutDivision(t *testing.T) {
	t.Parallel()

	// The group carries no division even though its teams belong to one with
	// a multiplier far from 1.0; fold and rebuild must still agree.
	hg, ag := 2, 0
	facts := memory.NewMatchFactStore(
		[]matchfact.Group{{ID: "grp-d", SeasonID: "2026-27"}},
		map[string][]matchfact.Team{"grp-d": {
			{ID: "team-x", Name: "Xávea", DivisionID: "div-9"},
			{ID: "team-y", Name: "Yecla", DivisionID: "div-9"},
		}},
		map[string][]matchfact.Match{"grp-d": {{
			ID: "m-d1", GroupID: "grp-d", Matchday: 1,
			HomeTeamID: "team-x", AwayTeamID: "team-y",
			HomeGoals: &hg, AwayGoals: &ag, Played: true,
			Lineups: []matchfact.LineupEntry{
				{MatchID: "m-d1", TeamID: "team-x", PlayerID: "p-x", Starter: true},
				{MatchID: "m-d1", TeamID: "team-y", PlayerID: "p-y", Starter: true},
			},
		}}},
		map[string]matchfact.Coefficients{"2026-27": {
			SeasonID: "2026-27",
			Team:     map[string]float64{"team-x": 0.8, "team-y": 0.5},
			Division: map[string]float64{"div-9": 2.0},
		}},
	)
	cards := memory.NewScoreCardRepository()
	rollups := memory.NewRollupRepository()
	scoring := NewScoringService(facts, cards, rollups, nil)
	service := NewRollupService(facts, cards, rollups, nil, nil)
	ctx := context.Background()

	if _, err := scoring.ScoreMatchday(ctx, "grp-d", 1); err != nil {
		t.Fatalf("score matchday: %v", err)
	}
	if err := service.FoldMatchday(ctx, "grp-d", 1); err != nil {
		t.Fatalf("fold matchday: %v", err)
	}

	for _, teamID := range []string{"team-x", "team-y"} {
		stored, exists, err := rollups.Get(ctx, "2026-27", rollup.KindTeam, teamID)
		if err != nil || !exists {
			t.Fatalf("team %s: expected folded total, exists=%t err=%v", teamID, exists, err)
		}
		rebuilt, err := service.Rebuild(ctx, "2026-27", rollup.KindTeam, teamID)
		if err != nil {
			t.Fatalf("rebuild %s: %v", teamID, err)
		}
		if math.Abs(stored.AdjustedPoints-rebuilt.AdjustedPoints) > rollupEpsilon {
			t.Fatalf("division attribution diverges for %s:\nstored=%+v\nrebuilt=%+v", teamID, stored, rebuilt)
		}
		// No division on the card means no multiplier either way.
		if math.Abs(stored.AdjustedPoints-stored.Points) > rollupEpsilon {
			t.Fatalf("unexpected multiplier applied for %s: %+v", teamID, stored)
		}
		if err := service.Reconcile(ctx, "2026-27", rollup.KindTeam, teamID); err != nil {
			t.Fatalf("expected clean reconcile for %s, got %v", teamID, err)
		}
	}
}

func TestRollupService_Rebuild_UnknownKind(t *testing.T) {
	t.Parallel()

	service, _, _ := newRollupFixture(nil)

	if _, err := service.Rebuild(context.Background(), "2025-26", rollup.Kind("coach"), "x"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRollupService_ReconcileSeason_CleanHistoryPasses(t *testing.T) {
	t.Parallel()

	service, scoring, _ := newRollupFixture(nil)
	scoreAndFold(t, service, scoring, 1, 2)

	if err := service.ReconcileSeason(context.Background(), "2025-26"); err != nil {
		t.Fatalf("expected clean reconcile, got %v", err)
	}
}

func TestRollupService_Reconcile_DetectsTamperedTotal(t *testing.T) {
	t.Parallel()

	service, scoring, rollups := newRollupFixture(nil)
	ctx := context.Background()
	scoreAndFold(t, service, scoring, 1, 2)

	tampered, _, err := rollups.Get(ctx, "2025-26", rollup.KindPlayer, "p-mor")
	if err != nil {
		t.Fatalf("get total: %v", err)
	}
	tampered.Points += 5
	if err := rollups.Upsert(ctx, tampered); err != nil {
		t.Fatalf("upsert tampered total: %v", err)
	}

	err = service.Reconcile(ctx, "2025-26", rollup.KindPlayer, "p-mor")
	if !errors.Is(err, ErrInconsistentRollup) {
		t.Fatalf("expected ErrInconsistentRollup, got %v", err)
	}
	if err := service.ReconcileSeason(ctx, "2025-26"); !errors.Is(err, ErrInconsistentRollup) {
		t.Fatalf("expected season sweep to surface divergence, got %v", err)
	}
}

func TestRollupService_GetLeaderboard_Ordering(t *testing.T) {
	t.Parallel()

	service, _, rollups := newRollupFixture(nil)
	ctx := context.Background()

	seedTotals := []rollup.RunningTotal{
		{SubjectID: "p-1", SubjectName: "Zamora", Kind: rollup.KindPlayer, SeasonID: "2025-26", Points: 30, AdjustedPoints: 30},
		{SubjectID: "p-2", SubjectName: "Blanco", Kind: rollup.KindPlayer, SeasonID: "2025-26", Points: 40, AdjustedPoints: 40},
		{SubjectID: "p-3", SubjectName: "Arias", Kind: rollup.KindPlayer, SeasonID: "2025-26", Points: 40, AdjustedPoints: 40},
	}
	for _, total := range seedTotals {
		if err := rollups.Upsert(ctx, total); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	leaders, err := service.GetLeaderboard(ctx, "2025-26", rollup.KindPlayer, 0, "")
	if err != nil {
		t.Fatalf("get leaderboard: %v", err)
	}
	if len(leaders) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(leaders))
	}
	// Points descending, display name ascending on ties.
	if leaders[0].SubjectID != "p-3" || leaders[1].SubjectID != "p-2" || leaders[2].SubjectID != "p-1" {
		t.Fatalf("unexpected order: %+v", leaders)
	}

	top, err := service.GetLeaderboard(ctx, "2025-26", rollup.KindPlayer, 2, "")
	if err != nil {
		t.Fatalf("get leaderboard: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("expected limit applied, got %d rows", len(top))
	}

	if _, err := service.GetLeaderboard(ctx, "2025-26", rollup.Kind("coach"), 0, ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown kind, got %v", err)
	}
}

func TestRollupService_GetLeaderboard_DivisionFilterUsesRawPoints(t *testing.T) {
	t.Parallel()

	service, _, rollups := newRollupFixture(nil)
	ctx := context.Background()

	// Within div-1 the raw order and the adjusted order disagree.
	seedTotals := []rollup.RunningTotal{
		{SubjectID: "team-1", SubjectName: "Uno", Kind: rollup.KindTeam, SeasonID: "2025-26", DivisionID: "div-1", Points: 50, AdjustedPoints: 55},
		{SubjectID: "team-2", SubjectName: "Dos", Kind: rollup.KindTeam, SeasonID: "2025-26", DivisionID: "div-1", Points: 52, AdjustedPoints: 54},
		{SubjectID: "team-3", SubjectName: "Tres", Kind: rollup.KindTeam, SeasonID: "2025-26", DivisionID: "div-2", Points: 60, AdjustedPoints: 48},
	}
	for _, total := range seedTotals {
		if err := rollups.Upsert(ctx, total); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	cross, err := service.GetLeaderboard(ctx, "2025-26", rollup.KindTeam, 0, "")
	if err != nil {
		t.Fatalf("get leaderboard: %v", err)
	}
	if cross[0].SubjectID != "team-1" || cross[1].SubjectID != "team-2" || cross[2].SubjectID != "team-3" {
		t.Fatalf("expected adjusted-points order across divisions, got %+v", cross)
	}

	filtered, err := service.GetLeaderboard(ctx, "2025-26", rollup.KindTeam, 0, "div-1")
	if err != nil {
		t.Fatalf("get leaderboard: %v", err)
	}
	if len(filtered) != 2 {
		t.Fatalf("expected division filter applied, got %+v", filtered)
	}
	if filtered[0].SubjectID != "team-2" || filtered[1].SubjectID != "team-1" {
		t.Fatalf("expected raw-points order within division, got %+v", filtered)
	}
}

func TestRollupService_FoldInvalidatesLeaderboardCache(t *testing.T) {
	t.Parallel()

	readCache := cache.NewStore(time.Minute)
	service, scoring, _ := newRollupFixture(readCache)
	ctx := context.Background()
	scoreAndFold(t, service, scoring, 1)

	first, err := service.GetLeaderboard(ctx, "2025-26", rollup.KindPlayer, 0, "")
	if err != nil {
		t.Fatalf("get leaderboard: %v", err)
	}
	goalsBefore := 0
	for _, row := range first {
		if row.SubjectID == "p-mor" {
			goalsBefore = row.Goals
		}
	}
	if goalsBefore != 1 {
		t.Fatalf("expected one goal after matchday 1, got %d", goalsBefore)
	}

	// Folding the next matchday must drop the cached board.
	scoreAndFold(t, service, scoring, 2)

	second, err := service.GetLeaderboard(ctx, "2025-26", rollup.KindPlayer, 0, "")
	if err != nil {
		t.Fatalf("get leaderboard: %v", err)
	}
	for _, row := range second {
		if row.SubjectID == "p-mor" && row.Goals != 4 {
			t.Fatalf("stale leaderboard served after fold: %+v", row)
		}
	}
}
