package statsfeed

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ligastats/ligastats/internal/domain/matchfact"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func validatePayload(v any) error {
	return validate.Struct(v)
}

type groupsEnvelope struct {
	Data []groupPayload `json:"data"`
}

type groupPayload struct {
	ID         string `json:"id" validate:"required"`
	SeasonID   string `json:"season_id" validate:"required"`
	DivisionID string `json:"division_id"`
	Name       string `json:"name"`
}

func (p groupPayload) toDomain() matchfact.Group {
	return matchfact.Group{
		ID:         p.ID,
		SeasonID:   p.SeasonID,
		DivisionID: p.DivisionID,
		Name:       p.Name,
	}
}

type teamsEnvelope struct {
	Data []teamPayload `json:"data"`
}

type teamPayload struct {
	ID         string `json:"id" validate:"required"`
	Name       string `json:"name" validate:"required"`
	DivisionID string `json:"division_id"`
}

func (p teamPayload) toDomain() matchfact.Team {
	return matchfact.Team{
		ID:         p.ID,
		Name:       p.Name,
		DivisionID: p.DivisionID,
	}
}

type matchesEnvelope struct {
	Data []matchPayload `json:"data"`
}

type matchPayload struct {
	ID         string          `json:"id" validate:"required"`
	Matchday   int             `json:"matchday" validate:"gte=1"`
	HomeTeamID string          `json:"home_team_id" validate:"required"`
	AwayTeamID string          `json:"away_team_id" validate:"required"`
	HomeGoals  *int            `json:"home_goals" validate:"omitempty,gte=0"`
	AwayGoals  *int            `json:"away_goals" validate:"omitempty,gte=0"`
	Played     bool            `json:"played"`
	KickoffAt  time.Time       `json:"kickoff_at"`
	Intensity  *int            `json:"intensity" validate:"omitempty,gte=0,lte=100"`
	Events     []eventPayload  `json:"events"`
	Lineups    []lineupPayload `json:"lineups"`
}

// Event and lineup rows are deliberately not validated here: a row with a
// missing or unresolvable identity is skipped by the scoring engine with a
// warning, and must never cost the whole match. Hard validation covers the
// match-identity fields only.
type eventPayload struct {
	Type     string `json:"type"`
	Minute   *int   `json:"minute"`
	PlayerID string `json:"player_id"`
	TeamID   string `json:"team_id"`
}

type lineupPayload struct {
	TeamID     string `json:"team_id"`
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	Starter    bool   `json:"starter"`
	Goalkeeper bool   `json:"goalkeeper"`
}

func (p matchPayload) toDomain(groupID string) matchfact.Match {
	events := make([]matchfact.Event, 0, len(p.Events))
	for _, item := range p.Events {
		events = append(events, matchfact.Event{
			MatchID:  p.ID,
			Type:     matchfact.EventType(item.Type),
			Minute:   item.Minute,
			PlayerID: item.PlayerID,
			TeamID:   item.TeamID,
		})
	}

	lineups := make([]matchfact.LineupEntry, 0, len(p.Lineups))
	for _, item := range p.Lineups {
		lineups = append(lineups, matchfact.LineupEntry{
			MatchID:    p.ID,
			TeamID:     item.TeamID,
			PlayerID:   item.PlayerID,
			PlayerName: item.PlayerName,
			Starter:    item.Starter,
			Goalkeeper: item.Goalkeeper,
		})
	}

	return matchfact.Match{
		ID:         p.ID,
		GroupID:    groupID,
		Matchday:   p.Matchday,
		HomeTeamID: p.HomeTeamID,
		AwayTeamID: p.AwayTeamID,
		HomeGoals:  p.HomeGoals,
		AwayGoals:  p.AwayGoals,
		Played:     p.Played,
		KickoffAt:  p.KickoffAt,
		Intensity:  p.Intensity,
		Events:     events,
		Lineups:    lineups,
	}
}

type coefficientsEnvelope struct {
	Data coefficientsPayload `json:"data"`
}

type coefficientsPayload struct {
	Team     map[string]float64 `json:"team"`
	Division map[string]float64 `json:"division"`
}

func (p coefficientsPayload) toDomain(seasonID string, referenceMatchday int) matchfact.Coefficients {
	return matchfact.Coefficients{
		SeasonID:          seasonID,
		ReferenceMatchday: referenceMatchday,
		Team:              p.Team,
		Division:          p.Division,
	}
}
