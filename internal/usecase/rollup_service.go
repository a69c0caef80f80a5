package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/sourcegraph/conc/pool"

	"github.com/ligastats/ligastats/internal/domain/matchfact"
	"github.com/ligastats/ligastats/internal/domain/rollup"
	"github.com/ligastats/ligastats/internal/domain/scorecard"
	"github.com/ligastats/ligastats/internal/platform/cache"
	"github.com/ligastats/ligastats/internal/platform/logging"
)

const rollupEpsilon = 1e-9

// RollupService maintains season-to-date running totals derived from
// per-matchday score cards. Fold is the incremental append path; Rebuild is
// the from-scratch ground truth the incremental path must always match.
type RollupService struct {
	facts      matchfact.Store
	cards      scorecard.Repository
	rollups    rollup.Repository
	readCache  *cache.Store
	logger     *logging.Logger
	maxWorkers int
}

func NewRollupService(
	facts matchfact.Store,
	cards scorecard.Repository,
	rollups rollup.Repository,
	readCache *cache.Store,
	logger *logging.Logger,
) *RollupService {
	if logger == nil {
		logger = logging.Default()
	}
	return &RollupService{
		facts:      facts,
		cards:      cards,
		rollups:    rollups,
		readCache:  readCache,
		logger:     logger,
		maxWorkers: defaultRetrospectiveWorkers,
	}
}

func (s *RollupService) SetMaxWorkers(n int) {
	if n > 0 {
		s.maxWorkers = n
	}
}

// FoldMatchday appends one matchday's score cards into the running totals of
// every subject that appeared. A subject whose marker already covers the
// matchday is left untouched, so re-folding is a no-op.
func (s *RollupService) FoldMatchday(ctx context.Context, groupID string, matchday int) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.RollupService.FoldMatchday")
	defer span.End()

	groupID = strings.TrimSpace(groupID)
	if groupID == "" {
		return fmt.Errorf("%w: group id is required", ErrInvalidInput)
	}
	if matchday <= 0 {
		return fmt.Errorf("%w: matchday must be greater than zero", ErrInvalidInput)
	}

	playerCards, err := s.cards.ListPlayerCardsByMatchday(ctx, groupID, matchday)
	if err != nil {
		return fmt.Errorf("list player cards group=%s matchday=%d: %w", groupID, matchday, err)
	}
	teamCards, err := s.cards.ListTeamCardsByMatchday(ctx, groupID, matchday)
	if err != nil {
		return fmt.Errorf("list team cards group=%s matchday=%d: %w", groupID, matchday, err)
	}
	if len(playerCards) == 0 && len(teamCards) == 0 {
		return nil
	}

	seasonID := seasonOf(playerCards, teamCards)

	for _, delta := range playerDeltas(playerCards) {
		if err := s.foldSubject(ctx, seasonID, matchday, delta); err != nil {
			return err
		}
	}

	teamNames, err := s.teamNames(ctx, groupID)
	if err != nil {
		return err
	}
	coefficients, err := s.facts.GetStrengthCoefficients(ctx, seasonID, matchday)
	if err != nil {
		return fmt.Errorf("get strength coefficients: %w", err)
	}
	for _, delta := range teamDeltas(teamCards, teamNames, coefficients) {
		if err := s.foldSubject(ctx, seasonID, matchday, delta); err != nil {
			return err
		}
	}

	if s.readCache != nil {
		s.readCache.InvalidatePrefix(ctx, leaderboardPrefix(seasonID))
	}
	return nil
}

// Rebuild recomputes one subject's running total from the full persisted card
// history, ascending by matchday. It never reads the stored total.
func (s *RollupService) Rebuild(ctx context.Context, seasonID string, kind rollup.Kind, subjectID string) (rollup.RunningTotal, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RollupService.Rebuild")
	defer span.End()

	switch kind {
	case rollup.KindPlayer:
		return s.rebuildPlayer(ctx, seasonID, subjectID)
	case rollup.KindTeam:
		return s.rebuildTeam(ctx, seasonID, subjectID)
	default:
		return rollup.RunningTotal{}, fmt.Errorf("%w: unknown rollup kind %q", ErrInvalidInput, kind)
	}
}

// Reconcile compares the stored fold-derived total against a fresh rebuild
// and surfaces any divergence as ErrInconsistentRollup. It never repairs.
func (s *RollupService) Reconcile(ctx context.Context, seasonID string, kind rollup.Kind, subjectID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.RollupService.Reconcile")
	defer span.End()

	stored, exists, err := s.rollups.Get(ctx, seasonID, kind, subjectID)
	if err != nil {
		return fmt.Errorf("get running total: %w", err)
	}
	rebuilt, err := s.Rebuild(ctx, seasonID, kind, subjectID)
	if err != nil {
		return err
	}
	if !exists {
		stored = rollup.RunningTotal{SubjectID: subjectID, Kind: kind, SeasonID: seasonID}
	}

	if math.Abs(stored.Points-rebuilt.Points) > rollupEpsilon ||
		math.Abs(stored.AdjustedPoints-rebuilt.AdjustedPoints) > rollupEpsilon ||
		stored.Goals != rebuilt.Goals ||
		stored.Matches != rebuilt.Matches {
		return fmt.Errorf("%w: subject=%s season=%s stored=(%.4f/%d/%d) rebuilt=(%.4f/%d/%d)",
			ErrInconsistentRollup, subjectID, seasonID,
			stored.Points, stored.Goals, stored.Matches,
			rebuilt.Points, rebuilt.Goals, rebuilt.Matches,
		)
	}
	return nil
}

// ReconcileSeason verifies every known subject of a season, players and teams
// alike, with bounded parallelism. Returns the combined failures.
func (s *RollupService) ReconcileSeason(ctx context.Context, seasonID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.RollupService.ReconcileSeason")
	defer span.End()

	workers := pool.New().WithErrors().WithMaxGoroutines(s.maxWorkers)
	for _, kind := range []rollup.Kind{rollup.KindPlayer, rollup.KindTeam} {
		totals, err := s.rollups.ListBySeason(ctx, seasonID, kind)
		if err != nil {
			return fmt.Errorf("list running totals kind=%s: %w", kind, err)
		}
		for _, total := range totals {
			kind, subjectID := kind, total.SubjectID
			workers.Go(func() error {
				return s.Reconcile(ctx, seasonID, kind, subjectID)
			})
		}
	}
	return workers.Wait()
}

// GetLeaderboard is a plain sorted scan over running totals: no read-path
// computation beyond ordering and filtering. Cross-division boards order by
// division-adjusted points; a division filter switches to raw points.
func (s *RollupService) GetLeaderboard(ctx context.Context, seasonID string, kind rollup.Kind, limit int, divisionID string) ([]rollup.RunningTotal, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RollupService.GetLeaderboard")
	defer span.End()

	if kind != rollup.KindPlayer && kind != rollup.KindTeam {
		return nil, fmt.Errorf("%w: unknown rollup kind %q", ErrInvalidInput, kind)
	}

	load := func(ctx context.Context) (any, error) {
		totals, err := s.rollups.ListBySeason(ctx, seasonID, kind)
		if err != nil {
			return nil, fmt.Errorf("list running totals: %w", err)
		}

		out := make([]rollup.RunningTotal, 0, len(totals))
		for _, total := range totals {
			if divisionID != "" && total.DivisionID != divisionID {
				continue
			}
			out = append(out, total)
		}

		sort.SliceStable(out, func(i, j int) bool {
			left, right := out[i].AdjustedPoints, out[j].AdjustedPoints
			if divisionID != "" {
				left, right = out[i].Points, out[j].Points
			}
			if left != right {
				return left > right
			}
			return displayName(out[i]) < displayName(out[j])
		})
		return out, nil
	}

	var (
		value any
		err   error
	)
	if s.readCache != nil {
		key := leaderboardPrefix(seasonID) + string(kind) + ":" + divisionID + ":" + strconv.Itoa(limit)
		value, err = s.readCache.GetOrLoad(ctx, key, load)
	} else {
		value, err = load(ctx)
	}
	if err != nil {
		return nil, err
	}

	totals := value.([]rollup.RunningTotal)
	if limit > 0 && len(totals) > limit {
		totals = totals[:limit]
	}
	return totals, nil
}

type subjectDelta struct {
	kind        rollup.Kind
	subjectID   string
	subjectName string
	divisionID  string
	points      float64
	adjusted    float64
	goals       int
	matches     int
}

func (s *RollupService) foldSubject(ctx context.Context, seasonID string, matchday int, delta subjectDelta) error {
	total, exists, err := s.rollups.Get(ctx, seasonID, delta.kind, delta.subjectID)
	if err != nil {
		return fmt.Errorf("get running total subject=%s: %w", delta.subjectID, err)
	}
	if exists && matchday <= total.LastMatchday {
		s.logger.DebugContext(ctx, "matchday already folded",
			"subject_id", delta.subjectID,
			"matchday", matchday,
			"marker", total.LastMatchday,
		)
		return nil
	}
	if !exists {
		total = rollup.RunningTotal{
			SubjectID: delta.subjectID,
			Kind:      delta.kind,
			SeasonID:  seasonID,
		}
	}

	total.SubjectName = firstNonEmpty(delta.subjectName, total.SubjectName)
	total.DivisionID = firstNonEmpty(delta.divisionID, total.DivisionID)
	total.Points += delta.points
	total.AdjustedPoints += delta.adjusted
	total.Goals += delta.goals
	total.Matches += delta.matches
	total.LastMatchday = matchday

	if err := s.rollups.Upsert(ctx, total); err != nil {
		return fmt.Errorf("upsert running total subject=%s: %w", delta.subjectID, err)
	}
	return nil
}

func (s *RollupService) rebuildPlayer(ctx context.Context, seasonID, playerID string) (rollup.RunningTotal, error) {
	cards, err := s.cards.ListPlayerCardsBySubject(ctx, seasonID, playerID)
	if err != nil {
		return rollup.RunningTotal{}, fmt.Errorf("list player cards subject=%s: %w", playerID, err)
	}

	total := rollup.RunningTotal{SubjectID: playerID, Kind: rollup.KindPlayer, SeasonID: seasonID}
	for _, card := range cards {
		total.SubjectName = firstNonEmpty(card.PlayerName, total.SubjectName)
		total.Points += float64(card.Points)
		total.AdjustedPoints += float64(card.Points)
		total.Goals += card.Goals
		total.Matches++
		if card.Matchday > total.LastMatchday {
			total.LastMatchday = card.Matchday
		}
	}
	return total, nil
}

func (s *RollupService) rebuildTeam(ctx context.Context, seasonID, teamID string) (rollup.RunningTotal, error) {
	cards, err := s.cards.ListTeamCardsBySubject(ctx, seasonID, teamID)
	if err != nil {
		return rollup.RunningTotal{}, fmt.Errorf("list team cards subject=%s: %w", teamID, err)
	}

	multipliers := make(map[int]float64)
	total := rollup.RunningTotal{SubjectID: teamID, Kind: rollup.KindTeam, SeasonID: seasonID}
	for _, card := range cards {
		multiplier, ok := multipliers[card.Matchday]
		if !ok {
			coefficients, err := s.facts.GetStrengthCoefficients(ctx, seasonID, card.Matchday)
			if err != nil {
				return rollup.RunningTotal{}, fmt.Errorf("get strength coefficients matchday=%d: %w", card.Matchday, err)
			}
			multiplier = coefficients.DivisionMultiplier(card.DivisionID)
			multipliers[card.Matchday] = multiplier
		}

		total.DivisionID = firstNonEmpty(card.DivisionID, total.DivisionID)
		total.Points += card.Points
		total.AdjustedPoints += card.Points * multiplier
		total.Goals += card.GoalsFor
		total.Matches++
		if card.Matchday > total.LastMatchday {
			total.LastMatchday = card.Matchday
		}
	}
	return total, nil
}

func (s *RollupService) teamNames(ctx context.Context, groupID string) (map[string]string, error) {
	teams, err := s.facts.ListGroupTeams(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list group teams: %w", err)
	}
	names := make(map[string]string, len(teams))
	for _, team := range teams {
		names[team.ID] = team.Name
	}
	return names, nil
}

func playerDeltas(cards []scorecard.ScoreCard) []subjectDelta {
	byPlayer := make(map[string]*subjectDelta)
	order := make([]string, 0, len(cards))
	for _, card := range cards {
		delta, ok := byPlayer[card.PlayerID]
		if !ok {
			delta = &subjectDelta{kind: rollup.KindPlayer, subjectID: card.PlayerID}
			byPlayer[card.PlayerID] = delta
			order = append(order, card.PlayerID)
		}
		delta.subjectName = firstNonEmpty(delta.subjectName, card.PlayerName)
		delta.points += float64(card.Points)
		delta.adjusted += float64(card.Points)
		delta.goals += card.Goals
		delta.matches++
	}

	out := make([]subjectDelta, 0, len(order))
	for _, playerID := range order {
		out = append(out, *byPlayer[playerID])
	}
	return out
}

// teamDeltas attributes each card to the card's own division; Rebuild resolves
// the multiplier the same way, so fold and rebuild can never disagree on it.
func teamDeltas(
	cards []scorecard.TeamScoreCard,
	names map[string]string,
	coefficients matchfact.Coefficients,
) []subjectDelta {
	byTeam := make(map[string]*subjectDelta)
	order := make([]string, 0, len(cards))
	for _, card := range cards {
		delta, ok := byTeam[card.TeamID]
		if !ok {
			delta = &subjectDelta{
				kind:       rollup.KindTeam,
				subjectID:  card.TeamID,
				divisionID: card.DivisionID,
			}
			byTeam[card.TeamID] = delta
			order = append(order, card.TeamID)
		}
		delta.subjectName = firstNonEmpty(delta.subjectName, names[card.TeamID])
		multiplier := coefficients.DivisionMultiplier(delta.divisionID)
		delta.points += card.Points
		delta.adjusted += card.Points * multiplier
		delta.goals += card.GoalsFor
		delta.matches++
	}

	out := make([]subjectDelta, 0, len(order))
	for _, teamID := range order {
		out = append(out, *byTeam[teamID])
	}
	return out
}

func seasonOf(players []scorecard.ScoreCard, teams []scorecard.TeamScoreCard) string {
	if len(players) > 0 {
		return players[0].SeasonID
	}
	if len(teams) > 0 {
		return teams[0].SeasonID
	}
	return ""
}

func leaderboardPrefix(seasonID string) string {
	return "leaderboard:" + seasonID + ":"
}

func displayName(total rollup.RunningTotal) string {
	if total.SubjectName != "" {
		return total.SubjectName
	}
	return total.SubjectID
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
