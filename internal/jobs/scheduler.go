package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const jobTimeout = 10 * time.Minute

// Schedule maps a job name to its cron expression.
type Schedule struct {
	Job  string
	Spec string
}

// Scheduler triggers maintenance jobs on cron schedules evaluated in UTC.
type Scheduler struct {
	cron   *cron.Cron
	jobs   *MaintenanceJobs
	logger *zap.Logger
}

// NewScheduler registers every schedule. An invalid expression or job name is an error.
func NewScheduler(jobs *MaintenanceJobs, schedules []Schedule, logger *zap.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		jobs:   jobs,
		logger: logger,
	}
	for _, sch := range schedules {
		if sch.Job != JobMonthlyReset && sch.Job != JobSubscriptionRenewals {
			return nil, fmt.Errorf("unknown job %q", sch.Job)
		}
		name := sch.Job
		if _, err := s.cron.AddFunc(sch.Spec, func() { s.runJob(name) }); err != nil {
			return nil, fmt.Errorf("invalid schedule %q for %s: %w", sch.Spec, name, err)
		}
		logger.Info("Scheduled maintenance job", zap.String("job", name), zap.String("schedule", sch.Spec))
	}
	return s, nil
}

// runJob executes one job; failures are logged and never stop the scheduler.
func (s *Scheduler) runJob(name string) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	if err := s.jobs.Run(ctx, name); err != nil {
		s.logger.Error("Maintenance job failed", zap.String("job", name), zap.Error(err))
		return
	}
	s.logger.Info("Maintenance job finished", zap.String("job", name), zap.Duration("took", time.Since(start)))
}

// Start runs the scheduler until ctx is cancelled, then waits for running jobs.
func (s *Scheduler) Start(ctx context.Context) {
	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.logger.Info("Maintenance scheduler stopped")
}

// Entries returns the number of registered schedules.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}
