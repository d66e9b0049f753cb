package jobs

import (
	"context"
	"fmt"
	"sort"
	"time"

	"nftrental-backend/internal/config"
	"nftrental-backend/internal/logger"
	"nftrental-backend/internal/metrics"
	"nftrental-backend/internal/service"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	rental  service.RentalService
	config  *config.Config
	timeout time.Duration
}

// NewJobRunner creates a new job runner. Each run is bounded by timeout.
func NewJobRunner(rental service.RentalService, cfg *config.Config, timeout time.Duration) *JobRunner {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &JobRunner{rental: rental, config: cfg, timeout: timeout}
}

func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery and metrics
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func(ctx context.Context) error) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), jr.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
			err = fmt.Errorf("job %s panicked: %v", jobName, r)
		}
		metrics.RecordJobRun(jobName, time.Since(start), err == nil)
	}()

	logger.Info("Starting job", "job", jobName)
	if err = jobFunc(ctx); err != nil {
		logger.Error("Job failed", "job", jobName, "error", err, "duration", time.Since(start))
		return err
	}
	logger.Info("Job completed", "job", jobName, "duration", time.Since(start))
	return nil
}

// Jobs returns the runnable jobs by name
func (jr *JobRunner) Jobs() map[string]func() error {
	return map[string]func() error{
		"reconcile-settlements":  jr.ReconcileSettlements,
		"notify-overdue-rentals": jr.NotifyOverdueRentals,
	}
}

// RunJob runs one job by name (for manual execution)
func (jr *JobRunner) RunJob(name string) error {
	job, ok := jr.Jobs()[name]
	if !ok {
		return fmt.Errorf("unknown job %q (available: %v)", name, jr.JobNames())
	}
	return job()
}

func (jr *JobRunner) JobNames() []string {
	names := make([]string, 0, 2)
	for name := range jr.Jobs() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RunAll runs every job once, in a fixed order
func (jr *JobRunner) RunAll() error {
	var firstErr error
	for _, name := range jr.JobNames() {
		if err := jr.RunJob(name); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
