package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ligastats/ligastats/internal/app"
	"github.com/ligastats/ligastats/internal/config"
	"github.com/ligastats/ligastats/internal/domain/rollup"
	"github.com/ligastats/ligastats/internal/domain/standings"
	"github.com/ligastats/ligastats/internal/observability"
	"github.com/ligastats/ligastats/internal/platform/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.NewJSON(cfg.LogLevel)
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	shutdownUptrace, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		logger.Error("init uptrace", "error", err)
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := shutdownUptrace(ctx); err != nil {
			logger.Error("shutdown uptrace", "error", err)
		}
	}()

	stopPyroscope, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		logger.Error("init pyroscope", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := stopPyroscope(); err != nil {
			logger.Error("stop pyroscope", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine, err := app.BuildEngine(ctx, cfg, logger)
	if err != nil {
		logger.Error("build engine", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := engine.Close(); err != nil {
			logger.Error("close engine", "error", err)
		}
	}()

	if err := run(ctx, engine, logger); err != nil {
		logger.ErrorContext(ctx, "recompute failed", "error", err)
		os.Exit(1)
	}
}

// run walks every group: snapshots first, then score cards and running totals
// matchday by matchday, finishing with a season reconciliation sweep.
func run(ctx context.Context, engine *app.Engine, logger *logging.Logger) error {
	started := time.Now()

	written, err := engine.Snapshots.MaterializeRetrospective(ctx, false)
	if err != nil {
		return err
	}
	logger.InfoContext(ctx, "standings snapshots materialized", "written", written)

	groups, err := engine.Facts.ListGroups(ctx)
	if err != nil {
		return err
	}

	seasons := make(map[string]struct{}, len(groups))
	for _, group := range groups {
		matches, err := engine.Facts.ListMatches(ctx, group.ID, 0)
		if err != nil {
			return err
		}

		for _, matchday := range standings.ObservedMatchdays(matches) {
			scores, err := engine.Scoring.ScoreMatchday(ctx, group.ID, matchday)
			if err != nil {
				return err
			}
			logger.InfoContext(ctx, "matchday scored",
				"group_id", group.ID,
				"matchday", matchday,
				"player_cards", len(scores.Players),
				"team_cards", len(scores.Teams),
				"skipped", scores.Skipped,
			)

			if err := engine.Rollups.FoldMatchday(ctx, group.ID, matchday); err != nil {
				return err
			}
		}
		seasons[group.SeasonID] = struct{}{}
	}

	for seasonID := range seasons {
		if err := engine.Rollups.ReconcileSeason(ctx, seasonID); err != nil {
			return err
		}

		leaders, err := engine.Rollups.GetLeaderboard(ctx, seasonID, rollup.KindPlayer, 10, "")
		if err != nil {
			return err
		}
		for i, row := range leaders {
			logger.InfoContext(ctx, "season leaderboard",
				"season_id", seasonID,
				"rank", i+1,
				"subject", row.SubjectName,
				"points", row.AdjustedPoints,
				"goals", row.Goals,
			)
		}
	}

	logger.InfoContext(ctx, "recompute finished", "took", time.Since(started))
	return nil
}
