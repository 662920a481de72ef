package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/dietdash/internal/contracts"
	"github.com/wonny/dietdash/internal/dataset"
	"github.com/wonny/dietdash/internal/store"
	"github.com/wonny/dietdash/pkg/logger"
)

type fakeStore struct {
	saved   []contracts.Record
	source  string
	keep    int
	saveErr error
}

func (f *fakeStore) Save(_ context.Context, source string, records []contracts.Record) (store.Snapshot, error) {
	if f.saveErr != nil {
		return store.Snapshot{}, f.saveErr
	}
	f.saved = records
	f.source = source
	return store.Snapshot{ID: 1, Source: source, Rows: len(records)}, nil
}

func (f *fakeStore) Prune(_ context.Context, keep int) (int64, error) {
	f.keep = keep
	return 2, nil
}

func loadTwo(context.Context) (*dataset.Dataset, error) {
	return dataset.FromRecords([]contracts.Record{
		{Country: "Brazil", Confirmed: 4, Deaths: 0.1},
		{Country: "Japan", Confirmed: 0.2, Deaths: 0.004},
	}), nil
}

func TestSnapshotJob_Run(t *testing.T) {
	fs := &fakeStore{}
	job := NewSnapshotJob(loadTwo, fs, "data.csv", "@daily", logger.Nop())

	assert.Equal(t, "dataset_snapshot", job.Name())
	assert.Equal(t, "@daily", job.Schedule())

	require.NoError(t, job.Run(context.Background()))
	assert.Len(t, fs.saved, 2)
	assert.Equal(t, "data.csv", fs.source)
	assert.InDelta(t, 0.025, float64(fs.saved[0].Mortality), 1e-12)
}

func TestSnapshotJob_Errors(t *testing.T) {
	loadErr := errors.New("no file")
	job := NewSnapshotJob(func(context.Context) (*dataset.Dataset, error) {
		return nil, loadErr
	}, &fakeStore{}, "data.csv", "@daily", logger.Nop())
	assert.ErrorIs(t, job.Run(context.Background()), loadErr)

	saveErr := errors.New("db down")
	job = NewSnapshotJob(loadTwo, &fakeStore{saveErr: saveErr}, "data.csv", "@daily", logger.Nop())
	assert.ErrorIs(t, job.Run(context.Background()), saveErr)
}

func TestSnapshotPruneJob_Run(t *testing.T) {
	fs := &fakeStore{}
	job := NewSnapshotPruneJob(fs, 30, "@weekly", logger.Nop())

	assert.Equal(t, "snapshot_prune", job.Name())
	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 30, fs.keep)
}
