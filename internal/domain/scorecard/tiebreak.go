package scorecard

import "github.com/ligastats/ligastats/internal/domain/matchfact"

// MVP picks the single man of the match from a match's score cards. The
// candidates are the cards tied at the maximum point total; ties resolve via
// Resolve. Returns false when there are no cards at all.
func MVP(cards []ScoreCard, match matchfact.Match, seasonPoints map[string]float64) (ScoreCard, bool) {
	if len(cards) == 0 {
		return ScoreCard{}, false
	}

	best := cards[0].Points
	for _, card := range cards[1:] {
		if card.Points > best {
			best = card.Points
		}
	}

	tied := make([]ScoreCard, 0, 1)
	for _, card := range cards {
		if card.Points == best {
			tied = append(tied, card)
		}
	}

	return Resolve(tied, match, seasonPoints), true
}

// Resolve applies the tie-break cascade over cards sharing the maximum score:
// winning-team membership (skipped on a draw), more goals, fewer cards, then
// the higher season running total. A full tie returns the first candidate in
// original evaluation order.
func Resolve(tied []ScoreCard, match matchfact.Match, seasonPoints map[string]float64) ScoreCard {
	if len(tied) == 1 {
		return tied[0]
	}

	candidates := tied
	if winnerID := winningTeam(match); winnerID != "" {
		candidates = narrow(candidates, func(card ScoreCard) bool {
			return card.TeamID == winnerID
		})
	}
	if len(candidates) > 1 {
		maxGoals := 0
		for _, card := range candidates {
			if card.Goals > maxGoals {
				maxGoals = card.Goals
			}
		}
		candidates = narrow(candidates, func(card ScoreCard) bool {
			return card.Goals == maxGoals
		})
	}
	if len(candidates) > 1 {
		minCards := candidates[0].Cards
		for _, card := range candidates[1:] {
			if card.Cards < minCards {
				minCards = card.Cards
			}
		}
		candidates = narrow(candidates, func(card ScoreCard) bool {
			return card.Cards == minCards
		})
	}
	if len(candidates) > 1 && len(seasonPoints) > 0 {
		maxTotal := seasonPoints[candidates[0].PlayerID]
		for _, card := range candidates[1:] {
			if seasonPoints[card.PlayerID] > maxTotal {
				maxTotal = seasonPoints[card.PlayerID]
			}
		}
		candidates = narrow(candidates, func(card ScoreCard) bool {
			return seasonPoints[card.PlayerID] == maxTotal
		})
	}

	// Acknowledged last resort: stable first candidate, never random.
	return candidates[0]
}

func winningTeam(match matchfact.Match) string {
	if match.HomeGoals == nil || match.AwayGoals == nil {
		return ""
	}
	switch {
	case *match.HomeGoals > *match.AwayGoals:
		return match.HomeTeamID
	case *match.AwayGoals > *match.HomeGoals:
		return match.AwayTeamID
	default:
		return ""
	}
}

// narrow keeps matching cards in order, falling back to the input when the
// predicate would eliminate everyone.
func narrow(cards []ScoreCard, keep func(ScoreCard) bool) []ScoreCard {
	out := make([]ScoreCard, 0, len(cards))
	for _, card := range cards {
		if keep(card) {
			out = append(out, card)
		}
	}
	if len(out) == 0 {
		return cards
	}
	return out
}
