package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/dietdash/internal/contracts"
)

// ErrNoSnapshot is returned by Latest on an empty store
var ErrNoSnapshot = errors.New("no snapshot stored")

// Snapshot describes one stored copy of the cleaned dataset
type Snapshot struct {
	ID        int64     `json:"id"`
	Source    string    `json:"source"`
	Rows      int       `json:"rows"`
	CreatedAt time.Time `json:"created_at"`
}

// Repository stores dataset snapshots in PostgreSQL
// ⭐ SSOT: the only package writing to the dietdash schema
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const schemaSQL = `
	CREATE SCHEMA IF NOT EXISTS dietdash;

	CREATE TABLE IF NOT EXISTS dietdash.snapshots (
		id         BIGSERIAL PRIMARY KEY,
		source     TEXT NOT NULL,
		row_count  INTEGER NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS dietdash.snapshot_rows (
		snapshot_id       BIGINT NOT NULL REFERENCES dietdash.snapshots(id) ON DELETE CASCADE,
		position          INTEGER NOT NULL,
		country           TEXT NOT NULL,
		iso_alpha3        TEXT NOT NULL,
		confirmed         DOUBLE PRECISION NOT NULL,
		deaths            DOUBLE PRECISION NOT NULL,
		recovered         DOUBLE PRECISION NOT NULL,
		active            DOUBLE PRECISION NOT NULL,
		population        DOUBLE PRECISION NOT NULL,
		mortality         DOUBLE PRECISION,
		animal_products   DOUBLE PRECISION NOT NULL,
		vegetal_products  DOUBLE PRECISION NOT NULL,
		obesity           DOUBLE PRECISION NOT NULL,
		undernourished    DOUBLE PRECISION NOT NULL,
		obesity_above_avg SMALLINT NOT NULL,
		food              DOUBLE PRECISION[] NOT NULL,
		PRIMARY KEY (snapshot_id, position)
	);`

// EnsureSchema creates the snapshot tables when missing
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// rowColumns is the COPY column order of snapshot_rows
var rowColumns = []string{
	"snapshot_id", "position", "country", "iso_alpha3",
	"confirmed", "deaths", "recovered", "active", "population", "mortality",
	"animal_products", "vegetal_products", "obesity", "undernourished",
	"obesity_above_avg", "food",
}

// Save stores records as a new snapshot in one transaction
func (r *Repository) Save(ctx context.Context, source string, records []contracts.Record) (Snapshot, error) {
	snap := Snapshot{Source: source, Rows: len(records)}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return snap, fmt.Errorf("begin snapshot: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO dietdash.snapshots (source, row_count) VALUES ($1, $2) RETURNING id, created_at`,
		source, len(records),
	).Scan(&snap.ID, &snap.CreatedAt)
	if err != nil {
		return snap, fmt.Errorf("insert snapshot: %w", err)
	}

	rows := make([][]interface{}, len(records))
	for i := range records {
		rows[i] = rowValues(snap.ID, i, &records[i])
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{"dietdash", "snapshot_rows"}, rowColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return snap, fmt.Errorf("copy snapshot rows: %w", err)
	}
	if int(n) != len(records) {
		return snap, fmt.Errorf("copy snapshot rows: wrote %d of %d", n, len(records))
	}

	if err := tx.Commit(ctx); err != nil {
		return snap, fmt.Errorf("commit snapshot: %w", err)
	}
	return snap, nil
}

// Latest returns the newest snapshot header
func (r *Repository) Latest(ctx context.Context) (Snapshot, error) {
	var s Snapshot
	err := r.pool.QueryRow(ctx, `
		SELECT id, source, row_count, created_at
		FROM dietdash.snapshots
		ORDER BY id DESC
		LIMIT 1`,
	).Scan(&s.ID, &s.Source, &s.Rows, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return s, ErrNoSnapshot
	}
	return s, err
}

// List returns the newest snapshots first
func (r *Repository) List(ctx context.Context, limit int) ([]Snapshot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, source, row_count, created_at
		FROM dietdash.snapshots
		ORDER BY id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var s Snapshot
		if err := rows.Scan(&s.ID, &s.Source, &s.Rows, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Records loads the rows of a snapshot in file order
func (r *Repository) Records(ctx context.Context, snapshotID int64) ([]contracts.Record, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT country, iso_alpha3, confirmed, deaths, recovered, active, population,
			   mortality, animal_products, vegetal_products, obesity, undernourished,
			   obesity_above_avg, food
		FROM dietdash.snapshot_rows
		WHERE snapshot_id = $1
		ORDER BY position`, snapshotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []contracts.Record
	for rows.Next() {
		var (
			rec       contracts.Record
			mortality *float64
			food      []float64
			flag      int16
		)
		if err := rows.Scan(
			&rec.Country, &rec.ISOAlpha3, &rec.Confirmed, &rec.Deaths, &rec.Recovered,
			&rec.Active, &rec.Population, &mortality, &rec.AnimalProducts,
			&rec.VegetalProducts, &rec.Obesity, &rec.Undernourished, &flag, &food,
		); err != nil {
			return nil, err
		}
		rec.Mortality = contracts.Number(fromNullable(mortality))
		rec.ObesityAboveAvg = int(flag)
		copy(rec.Food[:], food)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Prune deletes all but the newest keep snapshots
func (r *Repository) Prune(ctx context.Context, keep int) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM dietdash.snapshots
		WHERE id NOT IN (SELECT id FROM dietdash.snapshots ORDER BY id DESC LIMIT $1)`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	return tag.RowsAffected(), nil
}

// rowValues flattens a record in rowColumns order. NaN mortality is
// stored as NULL.
func rowValues(snapshotID int64, position int, rec *contracts.Record) []interface{} {
	food := make([]float64, len(rec.Food))
	copy(food, rec.Food[:])

	return []interface{}{
		snapshotID, int32(position), rec.Country, rec.ISOAlpha3,
		rec.Confirmed, rec.Deaths, rec.Recovered, rec.Active, rec.Population,
		toNullable(float64(rec.Mortality)),
		rec.AnimalProducts, rec.VegetalProducts, rec.Obesity, rec.Undernourished,
		int16(rec.ObesityAboveAvg), food,
	}
}

func toNullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func fromNullable(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
