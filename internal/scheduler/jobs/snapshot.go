package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/dietdash/internal/contracts"
	"github.com/wonny/dietdash/internal/dataset"
	"github.com/wonny/dietdash/internal/store"
	"github.com/wonny/dietdash/pkg/logger"
)

// Saver stores a copy of the cleaned dataset
type Saver interface {
	Save(ctx context.Context, source string, records []contracts.Record) (store.Snapshot, error)
}

// LoadFunc reloads the cleaned dataset
type LoadFunc func(ctx context.Context) (*dataset.Dataset, error)

// SnapshotJob re-reads the source CSV and stores the cleaned rows
type SnapshotJob struct {
	load     LoadFunc
	saver    Saver
	source   string
	schedule string
	logger   *logger.Logger
}

// NewSnapshotJob creates a new snapshot job
func NewSnapshotJob(load LoadFunc, saver Saver, source, schedule string, log *logger.Logger) *SnapshotJob {
	return &SnapshotJob{
		load:     load,
		saver:    saver,
		source:   source,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *SnapshotJob) Name() string {
	return "dataset_snapshot"
}

// Schedule returns the cron schedule
func (j *SnapshotJob) Schedule() string {
	return j.schedule
}

// Run loads the dataset and saves it as a new snapshot
func (j *SnapshotJob) Run(ctx context.Context) error {
	ds, err := j.load(ctx)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}

	snap, err := j.saver.Save(ctx, j.source, ds.Records())
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"snapshot_id": snap.ID,
		"rows":        snap.Rows,
		"source":      j.source,
	}).Info("Dataset snapshot stored")

	return nil
}
