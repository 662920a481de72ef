package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/wonny/dietdash/pkg/logger"
)

// Scheduler runs jobs on their cron schedules. A tick that arrives while
// the previous run of the same job is still going is skipped.
// ⭐ SSOT: background jobs are only scheduled here
type Scheduler struct {
	cron   *cron.Cron
	logger *logger.Logger

	mu      sync.Mutex
	jobs    map[string]Job
	entries map[string]cron.EntryID
	stats   map[string]*JobStats

	maxRetries int
	retryDelay time.Duration
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithRetry sets how often a failed run is retried and the first wait.
// Each further wait doubles.
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(s *Scheduler) {
		s.maxRetries = maxRetries
		s.retryDelay = delay
	}
}

// New creates a scheduler; jobs fire only inside Run
func New(log *logger.Logger, opts ...Option) *Scheduler {
	log = log.Component("scheduler")
	cl := cronLogger{log}
	s := &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger:     log,
		jobs:       make(map[string]Job),
		entries:    make(map[string]cron.EntryID),
		stats:      make(map[string]*JobStats),
		maxRetries: 3,
		retryDelay: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddJob registers a job under its unique name
func (s *Scheduler) AddJob(ctx context.Context, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already exists", name)
	}

	id, err := s.cron.AddFunc(job.Schedule(), func() { s.run(ctx, job) })
	if err != nil {
		return fmt.Errorf("schedule job %s: %w", name, err)
	}

	s.jobs[name] = job
	s.entries[name] = id
	s.stats[name] = &JobStats{JobName: name, Schedule: job.Schedule()}

	s.logger.WithFields(map[string]interface{}{
		"job":      name,
		"schedule": job.Schedule(),
	}).Info("Job added to scheduler")
	return nil
}

// Run fires jobs until ctx is done, then waits for running jobs to
// return. Jobs see the same ctx, so cancelling it also aborts them.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("Starting scheduler")
	s.cron.Start()
	<-ctx.Done()

	s.logger.Info("Stopping scheduler")
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

// RunNow runs a job synchronously, with retries, outside its schedule
func (s *Scheduler) RunNow(ctx context.Context, name string) (JobResult, error) {
	s.mu.Lock()
	job, exists := s.jobs[name]
	s.mu.Unlock()

	if !exists {
		return JobResult{}, fmt.Errorf("job %s not found", name)
	}
	return s.run(ctx, job), nil
}

// run executes a job, retrying with a doubling wait
func (s *Scheduler) run(ctx context.Context, job Job) JobResult {
	name := job.Name()
	log := s.logger.WithField("job", name)
	res := JobResult{JobName: name, StartTime: time.Now()}

	log.Info("Job started")

	var err error
	wait := s.retryDelay
	for res.Attempts = 1; ; res.Attempts++ {
		if err = job.Run(ctx); err == nil {
			break
		}
		if res.Attempts > s.maxRetries || ctx.Err() != nil {
			break
		}

		log.WithError(err).WithFields(map[string]interface{}{
			"attempt": res.Attempts,
			"wait":    wait.String(),
		}).Warn("Job failed, retrying")

		select {
		case <-ctx.Done():
		case <-time.After(wait):
		}
		if ctx.Err() != nil {
			break
		}
		wait *= 2
	}

	res.Duration = time.Since(res.StartTime)
	res.Success = err == nil
	if err != nil {
		res.Error = err.Error()
	}

	s.mu.Lock()
	if st, ok := s.stats[name]; ok {
		st.record(res)
	}
	s.mu.Unlock()

	log = log.WithFields(map[string]interface{}{
		"duration": res.Duration.String(),
		"attempts": res.Attempts,
	})
	if res.Success {
		log.Info("Job completed")
	} else {
		log.WithError(err).Error("Job failed")
	}
	return res
}

// Stats returns a snapshot of every job's counters, sorted by name
func (s *Scheduler) Stats() []JobStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]JobStats, 0, len(s.stats))
	for name, st := range s.stats {
		cp := *st
		if next := s.cron.Entry(s.entries[name]).Next; !next.IsZero() {
			cp.NextRun = &next
		}
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JobName < out[j].JobName })
	return out
}

// cronLogger routes cron's own messages into the service logger
type cronLogger struct {
	log *logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.WithFields(pairs(keysAndValues)).Debug(msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.log.WithError(err).WithFields(pairs(keysAndValues)).Error(msg)
}

// pairs turns cron's alternating key/value list into log fields
func pairs(kv []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return fields
}
