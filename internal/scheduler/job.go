package scheduler

import (
	"context"
	"time"
)

// Job represents a scheduled job
// ⭐ SSOT: the scheduled job interface is defined here only
type Job interface {
	// Name returns the job name
	Name() string

	// Run executes the job
	Run(ctx context.Context) error

	// Schedule returns the cron schedule expression
	// Six fields, seconds first: "0 0 3 * * *" (every day at 3 AM)
	// Descriptors work too: "@daily", "@hourly"
	Schedule() string
}

// JobResult is the outcome of one run, retries included
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	Duration  time.Duration `json:"duration"`
	Attempts  int           `json:"attempts"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

// JobStats summarizes the runs of one job since the scheduler started
type JobStats struct {
	JobName      string     `json:"job_name"`
	Schedule     string     `json:"schedule"`
	TotalRuns    int        `json:"total_runs"`
	FailureCount int        `json:"failure_count"`
	LastRun      *time.Time `json:"last_run,omitempty"`
	LastError    string     `json:"last_error,omitempty"`
	NextRun      *time.Time `json:"next_run,omitempty"`
}

// SuccessRate is the share of runs that succeeded, 0 before any run
func (s JobStats) SuccessRate() float64 {
	if s.TotalRuns == 0 {
		return 0
	}
	return float64(s.TotalRuns-s.FailureCount) / float64(s.TotalRuns)
}

// record folds a finished run into the counters
func (s *JobStats) record(res JobResult) {
	s.TotalRuns++
	start := res.StartTime
	s.LastRun = &start
	if res.Success {
		s.LastError = ""
		return
	}
	s.FailureCount++
	s.LastError = res.Error
}
