package jobs

import (
	"context"

	"github.com/wonny/dietdash/pkg/logger"
)

// Pruner deletes old snapshots
type Pruner interface {
	Prune(ctx context.Context, keep int) (int64, error)
}

// SnapshotPruneJob keeps only the newest snapshots
type SnapshotPruneJob struct {
	store    Pruner
	keep     int
	schedule string
	logger   *logger.Logger
}

// NewSnapshotPruneJob creates a new prune job
func NewSnapshotPruneJob(store Pruner, keep int, schedule string, log *logger.Logger) *SnapshotPruneJob {
	return &SnapshotPruneJob{
		store:    store,
		keep:     keep,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *SnapshotPruneJob) Name() string {
	return "snapshot_prune"
}

// Schedule returns the cron schedule
func (j *SnapshotPruneJob) Schedule() string {
	return j.schedule
}

// Run deletes snapshots beyond the newest keep
func (j *SnapshotPruneJob) Run(ctx context.Context) error {
	j.logger.Debug("Starting snapshot prune")

	removed, err := j.store.Prune(ctx, j.keep)
	if err != nil {
		return err
	}

	if removed > 0 {
		j.logger.WithField("removed", removed).Info("Snapshot prune completed")
	}

	return nil
}
