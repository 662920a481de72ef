package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/dietdash/internal/contracts"
	"github.com/wonny/dietdash/internal/dataset"
	"github.com/wonny/dietdash/internal/scheduler"
	"github.com/wonny/dietdash/internal/scheduler/jobs"
	"github.com/wonny/dietdash/internal/store"
	"github.com/wonny/dietdash/pkg/config"
	"github.com/wonny/dietdash/pkg/database"
	"github.com/wonny/dietdash/pkg/redis"
)

// snapshotCmd represents the snapshot command
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Store the cleaned dataset in PostgreSQL",
	Long: `Loads and cleans the dataset and stores it as a snapshot.

Without --schedule the snapshot is taken once. With --schedule the
command keeps running and takes one on every SNAPSHOT_SCHEDULE tick
(cron, seconds first), pruning old snapshots once a day.

Requires DATABASE_URL.

Example:
  go run ./cmd/dash snapshot
  go run ./cmd/dash snapshot --schedule
  go run ./cmd/dash snapshot --schedule --cron "0 */30 * * * *"
  go run ./cmd/dash snapshot list`,
	RunE: runSnapshot,
}

var snapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored snapshots",
	RunE:  listSnapshots,
}

var snapshotShowCmd = &cobra.Command{
	Use:   "show <id|latest>",
	Short: "Summarize a stored snapshot",
	Long: `Restores a stored snapshot and prints the same summary as inspect.

Example:
  go run ./cmd/dash snapshot show latest
  go run ./cmd/dash snapshot show 42 --top 5`,
	Args: cobra.ExactArgs(1),
	RunE: showSnapshot,
}

var (
	snapshotSchedule bool
	snapshotCron     string
	snapshotKeep     int
	snapshotLimit    int
	snapshotShowTop  int
)

// latestSnapshot selects the newest snapshot wherever an id is accepted
const latestSnapshot = "latest"

// pruneSchedule runs the prune job daily at 04:00
const pruneSchedule = "0 0 4 * * *"

func init() {
	rootCmd.AddCommand(snapshotCmd)
	snapshotCmd.AddCommand(snapshotListCmd)
	snapshotCmd.AddCommand(snapshotShowCmd)

	// Flags
	snapshotCmd.Flags().BoolVar(&snapshotSchedule, "schedule", false, "keep running and snapshot on a schedule")
	snapshotCmd.Flags().StringVar(&snapshotCron, "cron", "", "cron expression (default is SNAPSHOT_SCHEDULE)")
	snapshotCmd.Flags().IntVar(&snapshotKeep, "keep", 30, "snapshots kept by the prune job")
	snapshotListCmd.Flags().IntVar(&snapshotLimit, "limit", 20, "number of snapshots to list")
	snapshotShowCmd.Flags().IntVar(&snapshotShowTop, "top", 10, "countries listed by Confirmed")
}

// openStore connects to PostgreSQL and ensures the schema
func openStore(ctx context.Context, cfg *config.Config) (*database.DB, *store.Repository, error) {
	db, err := database.New(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	repo := store.NewRepository(db.Pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return db, repo, nil
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newCLILogger(cfg)

	// Ctrl+C cancels the scheduler and any running snapshot
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, repo, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	rc, err := redis.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer rc.Close()

	resolver := newResolver(cfg, log, rc)
	load := func(ctx context.Context) (*dataset.Dataset, error) {
		return loadDataset(ctx, cfg, log, resolver)
	}

	schedule := cfg.SnapshotSchedule
	if snapshotCron != "" {
		schedule = snapshotCron
	}

	// A one-off snapshot fails fast instead of retrying for minutes
	var opts []scheduler.Option
	if !snapshotSchedule {
		opts = append(opts, scheduler.WithRetry(0, 0))
	}
	sched := scheduler.New(log, opts...)

	snapJob := jobs.NewSnapshotJob(load, repo, cfg.DataPath, schedule, log.Component("snapshot"))
	if err := sched.AddJob(ctx, snapJob); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !snapshotSchedule {
		res, err := sched.RunNow(ctx, snapJob.Name())
		if err != nil {
			return err
		}
		if !res.Success {
			PrintError(out, res.Error)
			return fmt.Errorf("snapshot failed: %s", res.Error)
		}
		PrintSuccess(out, fmt.Sprintf("Snapshot stored in %.2fs", res.Duration.Seconds()))
		return nil
	}

	pruneJob := jobs.NewSnapshotPruneJob(repo, snapshotKeep, pruneSchedule, log.Component("snapshot"))
	if err := sched.AddJob(ctx, pruneJob); err != nil {
		return err
	}

	PrintSuccess(out, "Snapshot scheduler started")
	PrintKeyValue(out, snapJob.Name(), schedule, 16)
	PrintKeyValue(out, pruneJob.Name(), pruneSchedule, 16)
	PrintInfo(out, "Press Ctrl+C to stop")

	sched.Run(ctx)
	printJobStats(out, sched.Stats())
	return nil
}

func printJobStats(out io.Writer, stats []scheduler.JobStats) {
	if len(stats) == 0 {
		return
	}

	PrintHeader(out, "Job runs")
	table := NewTable(out, []string{"Job", "Runs", "Failures", "Success rate", "Last error"})
	for _, s := range stats {
		table.Append([]string{
			s.JobName,
			strconv.Itoa(s.TotalRuns),
			strconv.Itoa(s.FailureCount),
			fmt.Sprintf("%.0f%%", s.SuccessRate()*100),
			s.LastError,
		})
	}
	table.Render()
}

func listSnapshots(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, repo, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	snaps, err := repo.List(ctx, snapshotLimit)
	if err != nil {
		return fmt.Errorf("list snapshots: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(snaps) == 0 {
		PrintInfo(out, "No snapshots stored")
		return nil
	}

	table := NewTable(out, []string{"ID", "Source", "Rows", "Created"})
	for _, s := range snaps {
		table.Append([]string{
			strconv.FormatInt(s.ID, 10),
			s.Source,
			strconv.Itoa(s.Rows),
			s.CreatedAt.Format(time.RFC3339),
		})
	}
	table.Render()
	return nil
}

// snapshotSource reads stored snapshots back
type snapshotSource interface {
	Latest(ctx context.Context) (store.Snapshot, error)
	Records(ctx context.Context, snapshotID int64) ([]contracts.Record, error)
}

// restoreSnapshot rebuilds the dataset of ref, a snapshot id or "latest"
func restoreSnapshot(ctx context.Context, src snapshotSource, ref string) (*dataset.Dataset, int64, error) {
	var id int64
	if ref == latestSnapshot {
		snap, err := src.Latest(ctx)
		if err != nil {
			return nil, 0, fmt.Errorf("latest snapshot: %w", err)
		}
		id = snap.ID
	} else {
		parsed, err := strconv.ParseInt(ref, 10, 64)
		if err != nil || parsed <= 0 {
			return nil, 0, fmt.Errorf("invalid snapshot id %q", ref)
		}
		id = parsed
	}

	recs, err := src.Records(ctx, id)
	if err != nil {
		return nil, 0, fmt.Errorf("load snapshot %d: %w", id, err)
	}
	if len(recs) == 0 {
		return nil, 0, fmt.Errorf("snapshot %d has no rows", id)
	}
	return dataset.FromRecords(recs), id, nil
}

// loadSnapshot connects to PostgreSQL just long enough to restore ref
func loadSnapshot(ctx context.Context, cfg *config.Config, ref string) (*dataset.Dataset, int64, error) {
	if err := cfg.RequireDatabase(); err != nil {
		return nil, 0, err
	}
	db, repo, err := openStore(ctx, cfg)
	if err != nil {
		return nil, 0, err
	}
	defer db.Close()

	return restoreSnapshot(ctx, repo, ref)
}

func showSnapshot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ds, id, err := loadSnapshot(ctx, cfg, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	PrintKeyValue(out, "Snapshot", strconv.FormatInt(id, 10), 12)
	return printInspect(out, ds, snapshotShowTop, contracts.ColConfirmed, nil)
}
