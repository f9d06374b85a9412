package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"quillpost-backend-go/internal/db"
	"quillpost-backend-go/internal/events"
	"quillpost-backend-go/internal/models"
)

type capturePublisher struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (p *capturePublisher) Publish(ctx context.Context, eventType string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
	return p.err
}

func (p *capturePublisher) Close() error { return nil }

type failingUsers struct {
	db.UserRepository
}

func (failingUsers) ResetMonthlyPostCounts(ctx context.Context) (int, error) {
	return 0, errors.New("batch rejected")
}

func seedUsers(t *testing.T, repo db.UserRepository, counts ...int) {
	t.Helper()
	for i, n := range counts {
		id := string(rune('a' + i))
		require.NoError(t, repo.Create(context.Background(), &models.User{ID: id, Membership: models.PlanFree}))
		require.NoError(t, repo.UpdatePostCounts(context.Background(), id, n, n+10))
	}
}

func TestResetMonthlyPostCounts(t *testing.T) {
	ctx := context.Background()
	users := db.NewMemoryUserRepository(db.NewMemoryStore(), nil)
	seedUsers(t, users, 3, 0, 7)
	publisher := &capturePublisher{}
	jobs := NewMaintenanceJobs(users, publisher, zaptest.NewLogger(t))

	count, err := jobs.ResetMonthlyPostCounts(ctx)

	require.NoError(t, err)
	assert.Equal(t, 3, count)
	for _, id := range []string{"a", "b", "c"} {
		u, err := users.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Zero(t, u.PostsThisMonth)
		assert.NotZero(t, u.TotalPosts, "total posts are kept")
	}
	assert.Equal(t, []string{events.MaintenanceMonthlyReset}, publisher.events)
}

func TestResetMonthlyPostCounts_NoUsers(t *testing.T) {
	jobs := NewMaintenanceJobs(db.NewMemoryUserRepository(db.NewMemoryStore(), nil), nil, zaptest.NewLogger(t))

	count, err := jobs.ResetMonthlyPostCounts(context.Background())

	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestResetMonthlyPostCounts_StoreFailure(t *testing.T) {
	publisher := &capturePublisher{}
	jobs := NewMaintenanceJobs(failingUsers{}, publisher, zaptest.NewLogger(t))

	_, err := jobs.ResetMonthlyPostCounts(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch rejected")
	assert.Empty(t, publisher.events)
}

func TestProcessSubscriptionRenewals_PublishFailureIsNotFatal(t *testing.T) {
	publisher := &capturePublisher{err: errors.New("broker down")}
	jobs := NewMaintenanceJobs(db.NewMemoryUserRepository(db.NewMemoryStore(), nil), publisher, zaptest.NewLogger(t))

	assert.NoError(t, jobs.ProcessSubscriptionRenewals(context.Background()))
	assert.Equal(t, []string{events.MaintenanceSubscriptionRuns}, publisher.events)
}

func TestRun_UnknownJob(t *testing.T) {
	jobs := NewMaintenanceJobs(db.NewMemoryUserRepository(db.NewMemoryStore(), nil), nil, zaptest.NewLogger(t))

	err := jobs.Run(context.Background(), "vacuum")

	assert.EqualError(t, err, `unknown job "vacuum"`)
}

func TestNewScheduler(t *testing.T) {
	logger := zaptest.NewLogger(t)
	jobs := NewMaintenanceJobs(db.NewMemoryUserRepository(db.NewMemoryStore(), nil), nil, logger)

	s, err := NewScheduler(jobs, []Schedule{
		{Job: JobMonthlyReset, Spec: "0 0 1 * *"},
		{Job: JobSubscriptionRenewals, Spec: "0 0 * * *"},
	}, logger)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Entries())

	_, err = NewScheduler(jobs, []Schedule{{Job: JobMonthlyReset, Spec: "every tuesday"}}, logger)
	assert.Error(t, err)

	_, err = NewScheduler(jobs, []Schedule{{Job: "vacuum", Spec: "0 0 * * *"}}, logger)
	assert.Error(t, err)
}

func TestScheduler_RunJobSwallowsErrors(t *testing.T) {
	logger := zaptest.NewLogger(t)
	s, err := NewScheduler(NewMaintenanceJobs(failingUsers{}, nil, logger), nil, logger)
	require.NoError(t, err)

	assert.NotPanics(t, func() { s.runJob(JobMonthlyReset) })
}
