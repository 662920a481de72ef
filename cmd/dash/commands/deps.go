package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/wonny/dietdash/internal/dataset"
	"github.com/wonny/dietdash/internal/geo"
	"github.com/wonny/dietdash/pkg/config"
	"github.com/wonny/dietdash/pkg/httputil"
	"github.com/wonny/dietdash/pkg/logger"
	"github.com/wonny/dietdash/pkg/redis"
)

// loadConfig loads the environment and applies the global flags
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if dataPath != "" {
		cfg.DataPath = dataPath
	}
	if env != "" {
		cfg.Env = env
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// newCLILogger logs to stderr so command output on stdout stays clean
func newCLILogger(cfg *config.Config) *logger.Logger {
	return logger.NewWithWriter(cfg, os.Stderr)
}

// newResolver builds the country code resolver. The remote lookup is
// only wired when enabled, and shares the Redis rate limit when Redis is.
func newResolver(cfg *config.Config, log *logger.Logger, rc *redis.Client) *geo.Resolver {
	if !cfg.Geo.RemoteEnabled {
		return geo.NewResolver(log, nil, "")
	}

	client := httputil.New(log, cfg.Geo.Timeout)
	if rc != nil && rc.Enabled() {
		client = client.WithRateLimiter(redis.NewRateLimiter(rc, keyPrefix), redis.GeoRateLimit)
	}
	return geo.NewResolver(log, client, cfg.Geo.RemoteURL)
}

// loadDataset loads and cleans the dataset, resolving country codes
func loadDataset(ctx context.Context, cfg *config.Config, log *logger.Logger, resolver *geo.Resolver) (*dataset.Dataset, error) {
	opts := dataset.Options{Logger: log}
	if resolver != nil {
		opts.Resolver = resolver
	}

	ds, err := dataset.Load(ctx, cfg.DataPath, opts)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	return ds, nil
}

// keyPrefix namespaces every Redis key of this service
const keyPrefix = "dietdash"
