package store

import (
	"context"
	"math"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/dietdash/internal/contracts"
	"github.com/wonny/dietdash/pkg/config"
	"github.com/wonny/dietdash/pkg/database"
)

func TestRowValues(t *testing.T) {
	rec := contracts.Record{
		Country:         "Kiribati",
		ISOAlpha3:       "KIR",
		Obesity:         46,
		Mortality:       contracts.Number(math.NaN()),
		ObesityAboveAvg: 1,
	}
	rec.Food[0] = 1.5

	values := rowValues(7, 3, &rec)
	require.Len(t, values, len(rowColumns))

	assert.Equal(t, int64(7), values[0])
	assert.Equal(t, int32(3), values[1])
	assert.Equal(t, "Kiribati", values[2])
	assert.Nil(t, values[9], "NaN mortality is NULL")
	assert.Equal(t, int16(1), values[14])

	food, ok := values[15].([]float64)
	require.True(t, ok)
	assert.Len(t, food, contracts.NumFoodGroups)
	assert.Equal(t, 1.5, food[0])
}

func TestNullable(t *testing.T) {
	assert.Nil(t, toNullable(math.NaN()))
	assert.Nil(t, toNullable(math.Inf(1)))
	require.NotNil(t, toNullable(0.25))
	assert.Equal(t, 0.25, *toNullable(0.25))

	assert.True(t, math.IsNaN(fromNullable(nil)))
	v := 0.5
	assert.Equal(t, 0.5, fromNullable(&v))
}

// integrationRepo connects to DATABASE_URL or skips
func integrationRepo(t *testing.T) *Repository {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}

	cfg := &config.Config{Database: config.DatabaseConfig{URL: url, MaxConns: 2, MinConns: 1}}
	db, err := database.New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	repo := NewRepository(db.Pool)
	require.NoError(t, repo.EnsureSchema(context.Background()))
	return repo
}

func TestRepository_SaveAndLoad(t *testing.T) {
	repo := integrationRepo(t)
	ctx := context.Background()

	records := []contracts.Record{
		{Country: "Brazil", ISOAlpha3: "BRA", Confirmed: 4, Deaths: 0.1, Mortality: 0.025},
		{Country: "Kiribati", ISOAlpha3: "KIR", Mortality: contracts.Number(math.NaN())},
	}
	records[0].Food[20] = 3

	snap, err := repo.Save(ctx, "test", records)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Rows)

	latest, err := repo.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap.ID, latest.ID)

	got, err := repo.Records(ctx, snap.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Brazil", got[0].Country)
	assert.Equal(t, 3.0, got[0].Food[20])
	assert.InDelta(t, 0.025, float64(got[0].Mortality), 1e-12)
	assert.True(t, math.IsNaN(float64(got[1].Mortality)))

	list, err := repo.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, snap.ID, list[0].ID)
}
