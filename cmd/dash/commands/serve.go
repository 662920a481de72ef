package commands

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/dietdash/internal/api"
	"github.com/wonny/dietdash/internal/api/handlers"
	"github.com/wonny/dietdash/internal/callbacks"
	"github.com/wonny/dietdash/internal/dataset"
	"github.com/wonny/dietdash/internal/layout"
	"github.com/wonny/dietdash/pkg/logger"
	"github.com/wonny/dietdash/pkg/redis"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard server",
	Long: `Loads the dataset and serves the dashboard.

This command:
- loads and cleans the dataset (fatal on a missing or malformed file)
- resolves country codes for the map
- serves the page, the figure API and the update WebSocket

Endpoints:
  GET  /                        - Dashboard page
  GET  /health                  - Health check
  GET  /api/options             - Control options
  GET  /api/figures/{id}        - Figure JSON
  GET  /api/figures/{id}.png    - Figure image
  GET  /api/table[.xlsx]        - Covid table
  POST /api/update              - Recompute outputs of changed controls
  GET  /ws                      - Update WebSocket

With --from-snapshot the dataset is restored from a stored snapshot
instead of the CSV (requires DATABASE_URL).

Example:
  go run ./cmd/dash serve
  go run ./cmd/dash serve --port 8080
  go run ./cmd/dash serve --from-snapshot latest`,
	RunE: runServe,
}

var (
	servePort     string
	serveSnapshot string
)

func init() {
	rootCmd.AddCommand(serveCmd)

	// Flags
	serveCmd.Flags().StringVar(&servePort, "port", "", "server port (default is PORT)")
	serveCmd.Flags().StringVar(&serveSnapshot, "from-snapshot", "", "serve a stored snapshot (id or latest) instead of the CSV")
}

func runServe(cmd *cobra.Command, args []string) error {
	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort != "" {
		cfg.Port = servePort
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
		"data": cfg.DataPath,
	}).Info("Initializing dashboard server")

	ctx := context.Background()

	// 3. Redis (disabled unless REDIS_ENABLED)
	rc, err := redis.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer rc.Close()

	// 4. Dataset
	var ds *dataset.Dataset
	if serveSnapshot != "" {
		var id int64
		ds, id, err = loadSnapshot(ctx, cfg, serveSnapshot)
		if err != nil {
			return err
		}
		log.WithField("snapshot", id).Info("Dataset restored from snapshot")
	} else {
		ds, err = loadDataset(ctx, cfg, log, newResolver(cfg, log, rc))
		if err != nil {
			return err
		}
	}

	// 5. Layout
	lay, err := layout.Load(cfg.LayoutPath)
	if err != nil {
		return fmt.Errorf("load layout: %w", err)
	}

	// 6. Callbacks
	var (
		cache  *redis.Cache
		shared *redis.RateLimiter
	)
	if rc.Enabled() {
		namespace, err := cacheNamespace(lay, ds)
		if err != nil {
			return err
		}
		cache = redis.NewCache(rc, namespace)
		log.WithField("namespace", namespace).Info("Figure cache enabled")
		shared = redis.NewRateLimiter(rc, keyPrefix)
	}
	registry := callbacks.New(ds, callbacks.Options{
		Cache:    cache,
		Defaults: lay.ControlDefaults(),
		Logger:   log,
		TTL:      cfg.Redis.CacheTTL,
	})

	// 7. Router + server
	router := api.NewRouter(
		handlers.NewDashboardHandler(ds, registry, lay, cache, log),
		handlers.NewWSHandler(registry, log),
		api.NewLimits(cfg.RateLimit.RPS, cfg.RateLimit.Burst, shared),
		log,
	)
	server := api.New(cfg, log, router)

	// 8. Serve until Ctrl+C, then shut down gracefully
	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	return server.Run(sigCtx, func(addr string) {
		PrintSuccess(out, fmt.Sprintf("Dashboard running on http://%s", displayAddr(addr)))
		PrintInfo(out, "Press Ctrl+C to stop")
	})
}

// displayAddr turns a wildcard listen address into a browsable one
func displayAddr(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
		host = "localhost"
	}
	return net.JoinHostPort(host, port)
}

// cacheNamespace keys cached outputs by layout and dataset, so an edited
// layout or a changed CSV never serves stale figures
func cacheNamespace(lay *layout.Layout, ds *dataset.Dataset) (string, error) {
	version, err := layout.Hash(lay)
	if err != nil {
		return "", fmt.Errorf("fingerprint layout: %w", err)
	}
	return fmt.Sprintf("%s:%s:%s", keyPrefix, version[:12], ds.Fingerprint()[:12]), nil
}
