package scheduler

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/halo-extras/backend/internal/domain/shared"
)

// Task names
const (
	TaskSteamRefresh = "steam_refresh"
	TaskSummarySync  = "summary_sync"
)

// SteamRefresher rebuilds the Steam library when its cache has expired
type SteamRefresher interface {
	RefreshIfStale(ctx context.Context) error
}

// SummarySyncer regenerates summaries for every post
type SummarySyncer interface {
	SyncAll(ctx context.Context) error
	Wait()
}

// NewSteamRefreshTask keeps the Steam library cache warm
func NewSteamRefreshTask(refresher SteamRefresher) Task {
	return TaskFunc{
		TaskName: TaskSteamRefresh,
		Fn: func(ctx context.Context) error {
			err := refresher.RefreshIfStale(ctx)
			if errors.Is(err, shared.ErrNotConfigured) {
				// nothing to refresh until credentials are set
				return nil
			}
			return err
		},
	}
}

// NewSummarySyncTask starts a bulk summary sync and waits for it to finish.
// A sync already started from the API is left alone.
func NewSummarySyncTask(syncer SummarySyncer, logger *zap.Logger) Task {
	if logger == nil {
		logger = zap.NewNop()
	}
	return TaskFunc{
		TaskName: TaskSummarySync,
		Fn: func(ctx context.Context) error {
			if err := syncer.SyncAll(ctx); err != nil {
				if errors.Is(err, shared.ErrInvalidState) {
					logger.Info("Summary sync already running, skipping")
					return nil
				}
				return err
			}
			syncer.Wait()
			return nil
		},
	}
}
