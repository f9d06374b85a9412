// Package jobs holds the periodic maintenance tasks and their scheduler.
package jobs

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"quillpost-backend-go/internal/db"
	"quillpost-backend-go/internal/events"
)

// Job names accepted by Run and cmd/jobs.
const (
	JobMonthlyReset         = "monthly-reset"
	JobSubscriptionRenewals = "subscription-renewals"
)

// MaintenanceJobs runs store-wide maintenance outside of any user session.
type MaintenanceJobs struct {
	users     db.UserRepository
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewMaintenanceJobs creates the job set. users must not be gated by a session.
func NewMaintenanceJobs(users db.UserRepository, publisher events.Publisher, logger *zap.Logger) *MaintenanceJobs {
	return &MaintenanceJobs{users: users, publisher: publisher, logger: logger, now: time.Now}
}

// ResetMonthlyPostCounts sets postsThisMonth to 0 for every user in one atomic batch.
func (j *MaintenanceJobs) ResetMonthlyPostCounts(ctx context.Context) (int, error) {
	count, err := j.users.ResetMonthlyPostCounts(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to reset monthly post counts: %w", err)
	}
	j.logger.Info(fmt.Sprintf("Reset monthly post count for %d users", count), zap.Int("users", count))

	j.publish(ctx, events.MaintenanceMonthlyReset, map[string]interface{}{
		"users": count,
		"ranAt": j.now().UTC(),
	})
	return count, nil
}

// ProcessSubscriptionRenewals is where billing-period plan changes will be applied.
// TODO: check renewals against the payment processor once one is integrated.
func (j *MaintenanceJobs) ProcessSubscriptionRenewals(ctx context.Context) error {
	j.logger.Info("Processing subscription renewals (placeholder)")
	j.publish(ctx, events.MaintenanceSubscriptionRuns, map[string]interface{}{
		"ranAt": j.now().UTC(),
	})
	return nil
}

// Run executes a job by name.
func (j *MaintenanceJobs) Run(ctx context.Context, name string) error {
	switch name {
	case JobMonthlyReset:
		_, err := j.ResetMonthlyPostCounts(ctx)
		return err
	case JobSubscriptionRenewals:
		return j.ProcessSubscriptionRenewals(ctx)
	default:
		return fmt.Errorf("unknown job %q", name)
	}
}

func (j *MaintenanceJobs) publish(ctx context.Context, eventType string, payload interface{}) {
	if j.publisher == nil {
		return
	}
	if err := j.publisher.Publish(ctx, eventType, payload); err != nil {
		j.logger.Warn("Failed to publish maintenance event", zap.String("type", eventType), zap.Error(err))
	}
}
