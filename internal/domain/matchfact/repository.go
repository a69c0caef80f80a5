package matchfact

import "context"

// Store is the read-only boundary over finalized match data. The engine never
// writes through it; implementations live in infrastructure or external.
type Store interface {
	// ListMatches returns all matches for a group, with events and lineups
	// attached. uptoMatchday <= 0 means no cutoff.
	ListMatches(ctx context.Context, groupID string, uptoMatchday int) ([]Match, error)
	ListGroupTeams(ctx context.Context, groupID string) ([]Team, error)
	ListGroups(ctx context.Context) ([]Group, error)
	GetStrengthCoefficients(ctx context.Context, seasonID string, referenceMatchday int) (Coefficients, error)
}
