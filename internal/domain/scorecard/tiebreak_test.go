package scorecard

import (
	"testing"

	"github.com/ligastats/ligastats/internal/domain/matchfact"
)

func mvpMatch(hg, ag int) matchfact.Match {
	return matchfact.Match{
		ID:         "m-1",
		HomeTeamID: "team-a",
		AwayTeamID: "team-b",
		HomeGoals:  intPtr(hg),
		AwayGoals:  intPtr(ag),
		Played:     true,
	}
}

func TestMVP_NoCards(t *testing.T) {
	t.Parallel()

	if _, ok := MVP(nil, mvpMatch(1, 0), nil); ok {
		t.Fatalf("expected no MVP without cards")
	}
}

func TestMVP_WinningTeamWinsRegardlessOfOrder(t *testing.T) {
	t.Parallel()

	cards := []ScoreCard{
		{PlayerID: "p-loser", TeamID: "team-b", Points: 9},
		{PlayerID: "p-winner", TeamID: "team-a", Points: 9},
	}

	got, ok := MVP(cards, mvpMatch(2, 1), nil)
	if !ok || got.PlayerID != "p-winner" {
		t.Fatalf("expected winning-team card, got %+v", got)
	}

	// Reversed input order, same pick.
	cards[0], cards[1] = cards[1], cards[0]
	got, ok = MVP(cards, mvpMatch(2, 1), nil)
	if !ok || got.PlayerID != "p-winner" {
		t.Fatalf("expected winning-team card after reorder, got %+v", got)
	}
}

func TestMVP_DrawSkipsTeamFilter(t *testing.T) {
	t.Parallel()

	cards := []ScoreCard{
		{PlayerID: "p-b", TeamID: "team-b", Points: 7, Goals: 2},
		{PlayerID: "p-a", TeamID: "team-a", Points: 7, Goals: 1},
	}

	got, ok := MVP(cards, mvpMatch(2, 2), nil)
	if !ok || got.PlayerID != "p-b" {
		t.Fatalf("expected goals tie-break on draw, got %+v", got)
	}
}

func TestResolve_FewerCardsBeatsMoreCards(t *testing.T) {
	t.Parallel()

	tied := []ScoreCard{
		{PlayerID: "p-dirty", TeamID: "team-a", Points: 8, Goals: 1, Cards: 2},
		{PlayerID: "p-clean", TeamID: "team-a", Points: 8, Goals: 1, Cards: 0},
	}

	got := Resolve(tied, mvpMatch(1, 0), nil)
	if got.PlayerID != "p-clean" {
		t.Fatalf("expected fewer cards to win, got %+v", got)
	}
}

func TestResolve_SeasonPointsBreaksRemainingTie(t *testing.T) {
	t.Parallel()

	tied := []ScoreCard{
		{PlayerID: "p-1", TeamID: "team-a", Points: 8},
		{PlayerID: "p-2", TeamID: "team-a", Points: 8},
	}
	season := map[string]float64{"p-1": 40, "p-2": 55}

	got := Resolve(tied, mvpMatch(1, 0), season)
	if got.PlayerID != "p-2" {
		t.Fatalf("expected higher season total to win, got %+v", got)
	}
}

func TestResolve_FullTieIsStableFirst(t *testing.T) {
	t.Parallel()

	tied := []ScoreCard{
		{PlayerID: "p-first", TeamID: "team-a", Points: 8},
		{PlayerID: "p-second", TeamID: "team-a", Points: 8},
	}

	got := Resolve(tied, mvpMatch(1, 0), nil)
	if got.PlayerID != "p-first" {
		t.Fatalf("expected stable first candidate, got %+v", got)
	}
}

func TestResolve_FilterNeverEliminatesEveryone(t *testing.T) {
	t.Parallel()

	// All tied cards belong to the losing side; the team filter must fall
	// back instead of returning nothing.
	tied := []ScoreCard{
		{PlayerID: "p-1", TeamID: "team-b", Points: 6, Goals: 1},
		{PlayerID: "p-2", TeamID: "team-b", Points: 6},
	}

	got := Resolve(tied, mvpMatch(3, 0), nil)
	if got.PlayerID != "p-1" {
		t.Fatalf("expected goals tie-break among losers, got %+v", got)
	}
}
