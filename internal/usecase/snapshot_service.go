package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/ligastats/ligastats/internal/domain/matchfact"
	"github.com/ligastats/ligastats/internal/domain/standings"
	"github.com/ligastats/ligastats/internal/platform/logging"
	"github.com/ligastats/ligastats/internal/platform/resilience"
)

const defaultRetrospectiveWorkers = 4

// SnapshotService materializes immutable standings snapshots per
// (group, matchday) key. Same-key runs are serialized through a key lock;
// distinct keys are safe to run in parallel.
type SnapshotService struct {
	facts        matchfact.Store
	snapshots    standings.Repository
	logger       *logging.Logger
	locks        resilience.KeyLock
	now          func() time.Time
	streakLength int
	maxWorkers   int
}

func NewSnapshotService(
	facts matchfact.Store,
	snapshots standings.Repository,
	logger *logging.Logger,
) *SnapshotService {
	if logger == nil {
		logger = logging.Default()
	}
	return &SnapshotService{
		facts:        facts,
		snapshots:    snapshots,
		logger:       logger,
		now:          time.Now,
		streakLength: standings.DefaultStreakLength,
		maxWorkers:   defaultRetrospectiveWorkers,
	}
}

// SetStreakLength overrides the result-window size; values <= 0 keep the default.
func (s *SnapshotService) SetStreakLength(n int) {
	if n > 0 {
		s.streakLength = n
	}
}

// SetMaxWorkers bounds retrospective parallelism; values <= 0 keep the default.
func (s *SnapshotService) SetMaxWorkers(n int) {
	if n > 0 {
		s.maxWorkers = n
	}
}

// Materialize computes and persists the standings snapshot for one
// (group, matchday) key. With force=false an existing snapshot turns the call
// into a no-op signalled by ErrAlreadyMaterialized; with force=true the row
// set is replaced atomically.
func (s *SnapshotService) Materialize(ctx context.Context, groupID string, matchday int, force bool) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.SnapshotService.Materialize")
	defer span.End()

	groupID = strings.TrimSpace(groupID)
	if groupID == "" {
		return fmt.Errorf("%w: group id is required", ErrInvalidInput)
	}
	if matchday <= 0 {
		return fmt.Errorf("%w: matchday must be greater than zero", ErrInvalidInput)
	}

	release := s.locks.Lock(snapshotKey(groupID, matchday))
	defer release()

	if !force {
		_, exists, err := s.snapshots.Get(ctx, groupID, matchday)
		if err != nil {
			return fmt.Errorf("get snapshot: %w", err)
		}
		if exists {
			return fmt.Errorf("%w: group=%s matchday=%d", ErrAlreadyMaterialized, groupID, matchday)
		}
	}

	snapshot, err := s.compute(ctx, groupID, matchday)
	if err != nil {
		return err
	}

	if err := s.snapshots.Replace(ctx, snapshot); err != nil {
		return fmt.Errorf("replace snapshot group=%s matchday=%d: %w", groupID, matchday, err)
	}

	s.logger.InfoContext(ctx, "snapshot materialized",
		"group_id", groupID,
		"matchday", matchday,
		"teams", snapshot.TeamCount,
		"matches_counted", snapshot.MatchesCounted,
	)
	return nil
}

// MaterializeGroup walks every observed matchday of a group ascending and
// materializes each key independently. Returns the number of snapshots
// written; already-materialized keys are counted as skipped, not failures.
func (s *SnapshotService) MaterializeGroup(ctx context.Context, groupID string, force bool) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SnapshotService.MaterializeGroup")
	defer span.End()

	matches, err := s.facts.ListMatches(ctx, groupID, 0)
	if err != nil {
		return 0, fmt.Errorf("list matches group=%s: %w", groupID, err)
	}

	written := 0
	for _, matchday := range standings.ObservedMatchdays(matches) {
		err := s.Materialize(ctx, groupID, matchday, force)
		if errors.Is(err, ErrAlreadyMaterialized) {
			continue
		}
		if err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

// MaterializeRetrospective runs MaterializeGroup over every known group using
// a bounded worker pool. Group keys never overlap, so groups run in parallel.
func (s *SnapshotService) MaterializeRetrospective(ctx context.Context, force bool) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SnapshotService.MaterializeRetrospective")
	defer span.End()

	groups, err := s.facts.ListGroups(ctx)
	if err != nil {
		return 0, fmt.Errorf("list groups: %w", err)
	}
	if len(groups) == 0 {
		return 0, nil
	}

	pool, err := ants.NewPool(s.maxWorkers)
	if err != nil {
		return 0, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		written  int
		firstErr error
	)
	for _, group := range groups {
		group := group
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			count, runErr := s.MaterializeGroup(ctx, group.ID, force)
			mu.Lock()
			written += count
			if runErr != nil && firstErr == nil {
				firstErr = fmt.Errorf("group=%s: %w", group.ID, runErr)
			}
			mu.Unlock()
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			if firstErr == nil {
				firstErr = fmt.Errorf("submit group=%s: %w", group.ID, submitErr)
			}
			mu.Unlock()
		}
	}
	wg.Wait()

	return written, firstErr
}

func (s *SnapshotService) compute(ctx context.Context, groupID string, matchday int) (standings.Snapshot, error) {
	teams, err := s.facts.ListGroupTeams(ctx, groupID)
	if err != nil {
		return standings.Snapshot{}, fmt.Errorf("list group teams: %w", err)
	}
	matches, err := s.facts.ListMatches(ctx, groupID, matchday)
	if err != nil {
		return standings.Snapshot{}, fmt.Errorf("list matches: %w", err)
	}

	rows, err := standings.Calculate(standings.Input{
		GroupID:      groupID,
		Teams:        teams,
		Matches:      matches,
		UptoMatchday: matchday,
		StreakLength: s.streakLength,
	})
	if err != nil {
		return standings.Snapshot{}, fmt.Errorf("calculate standings group=%s matchday=%d: %w", groupID, matchday, err)
	}

	counted := 0
	for _, match := range matches {
		if match.Played && match.HomeGoals != nil && match.AwayGoals != nil && match.Matchday <= matchday {
			counted++
		}
	}

	return standings.Snapshot{
		GroupID:        groupID,
		Matchday:       matchday,
		Rows:           rows,
		MatchesCounted: counted,
		TeamCount:      len(rows),
		ComputedAt:     s.now().UTC(),
	}, nil
}

func snapshotKey(groupID string, matchday int) string {
	return groupID + ":" + strconv.Itoa(matchday)
}
