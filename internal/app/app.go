package app

import (
	"context"
	"strings"

	"github.com/ligastats/ligastats/external/statsfeed"
	"github.com/ligastats/ligastats/internal/config"
	"github.com/ligastats/ligastats/internal/domain/matchfact"
	"github.com/ligastats/ligastats/internal/domain/rollup"
	"github.com/ligastats/ligastats/internal/domain/scorecard"
	"github.com/ligastats/ligastats/internal/domain/standings"
	"github.com/ligastats/ligastats/internal/infrastructure/repository/memory"
	"github.com/ligastats/ligastats/internal/infrastructure/repository/postgres"
	"github.com/ligastats/ligastats/internal/platform/cache"
	"github.com/ligastats/ligastats/internal/platform/logging"
	"github.com/ligastats/ligastats/internal/platform/resilience"
	"github.com/ligastats/ligastats/internal/usecase"
)

// Engine bundles the wired services. Facts and repositories are chosen from
// config: statsfeed vs seeded memory for reads, postgres vs memory for writes.
type Engine struct {
	Facts     matchfact.Store
	Snapshots *usecase.SnapshotService
	Standings *usecase.StandingsService
	Scoring   *usecase.ScoringService
	Rollups   *usecase.RollupService

	closeFns []func() error
}

func BuildEngine(ctx context.Context, cfg config.Config, logger *logging.Logger) (*Engine, error) {
	if logger == nil {
		logger = logging.Default()
	}

	engine := &Engine{}

	facts := engine.buildFactStore(cfg, logger)

	var (
		snapshotRepo standings.Repository
		cardRepo     scorecard.Repository
		rollupRepo   rollup.Repository
	)
	if strings.TrimSpace(cfg.DBURL) != "" {
		db, err := openDB(ctx, cfg.DBURL, cfg.DBDisablePreparedBinary)
		if err != nil {
			return nil, err
		}
		engine.closeFns = append(engine.closeFns, db.Close)

		snapshotRepo = postgres.NewSnapshotRepository(db)
		cardRepo = postgres.NewScoreCardRepository(db)
		rollupRepo = postgres.NewRollupRepository(db)
		logger.Info("engine storage", "backend", "postgres", "db", dbNameFromURL(cfg.DBURL))
	} else {
		snapshotRepo = memory.NewSnapshotRepository()
		cardRepo = memory.NewScoreCardRepository()
		rollupRepo = memory.NewRollupRepository()
		logger.Info("engine storage", "backend", "memory")
	}

	var readCache *cache.Store
	if cfg.CacheEnabled {
		readCache = cache.NewStore(cfg.CacheTTL)
	}

	snapshots := usecase.NewSnapshotService(facts, snapshotRepo, logger)
	snapshots.SetStreakLength(cfg.StreakLength)
	snapshots.SetMaxWorkers(cfg.RecomputeMaxWorkers)

	standingsSvc := usecase.NewStandingsService(facts, snapshotRepo)
	standingsSvc.SetStreakLength(cfg.StreakLength)

	scoring := usecase.NewScoringService(facts, cardRepo, rollupRepo, logger)

	rollups := usecase.NewRollupService(facts, cardRepo, rollupRepo, readCache, logger)
	rollups.SetMaxWorkers(cfg.RecomputeMaxWorkers)

	engine.Facts = facts
	engine.Snapshots = snapshots
	engine.Standings = standingsSvc
	engine.Scoring = scoring
	engine.Rollups = rollups

	return engine, nil
}

func (e *Engine) buildFactStore(cfg config.Config, logger *logging.Logger) matchfact.Store {
	if cfg.StatsFeedEnabled {
		logger.Info("match facts source", "backend", "statsfeed", "base_url", cfg.StatsFeedBaseURL)
		return statsfeed.NewClient(statsfeed.ClientConfig{
			BaseURL:    cfg.StatsFeedBaseURL,
			Token:      cfg.StatsFeedToken,
			Timeout:    cfg.StatsFeedTimeout,
			MaxRetries: cfg.StatsFeedMaxRetries,
			Logger:     logger,
			Breaker: resilience.BreakerConfig{
				Enabled:          cfg.StatsFeedCircuitEnabled,
				FailureThreshold: cfg.StatsFeedCircuitFailureCount,
				OpenTimeout:      cfg.StatsFeedCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.StatsFeedCircuitHalfOpenMaxReq,
			},
		})
	}

	logger.Info("match facts source", "backend", "memory-seed")
	return memory.NewMatchFactStore(
		memory.SeedGroups(),
		memory.SeedTeams(),
		memory.SeedMatches(),
		memory.SeedCoefficients(),
	)
}

func (e *Engine) Close() error {
	var firstErr error
	for i := len(e.closeFns) - 1; i >= 0; i-- {
		if err := e.closeFns[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
