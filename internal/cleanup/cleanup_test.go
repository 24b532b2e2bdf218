package cleanup

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/arc-self/apps/trace-insights/internal/domain"
	"github.com/arc-self/apps/trace-insights/internal/store"
)

type fakeQuerier struct {
	store.Querier
	purgeErr     error
	purgeCount   int64
	demoted      []domain.TestResult
	demoteErr    error
	deletedTrace []string
	deleteErr    error
	expiredCount int64
	expireErr    error
}

func (f *fakeQuerier) PurgeShellResults(ctx context.Context, olderThan time.Time) (int64, error) {
	return f.purgeCount, f.purgeErr
}

func (f *fakeQuerier) DemoteWithDataResults(ctx context.Context, olderThan time.Time) ([]domain.TestResult, error) {
	return f.demoted, f.demoteErr
}

func (f *fakeQuerier) DeleteSpansForTrace(ctx context.Context, traceID string) error {
	f.deletedTrace = append(f.deletedTrace, traceID)
	return f.deleteErr
}

func (f *fakeQuerier) ExpireReports(ctx context.Context, olderThan time.Time) (int64, error) {
	return f.expiredCount, f.expireErr
}

func TestRunOnce_DeletesSpansForEveryDemotedResult(t *testing.T) {
	q := &fakeQuerier{demoted: []domain.TestResult{
		{TraceID: "trace-a"},
		{TraceID: "trace-b"},
	}}
	timer, err := New(q, Retention{ShellAge: time.Hour, WithDataAge: time.Hour, ReportAge: time.Hour}, "@every 1h", zap.NewNop())
	require.NoError(t, err)

	timer.RunOnce(context.Background())

	assert.ElementsMatch(t, []string{"trace-a", "trace-b"}, q.deletedTrace)
}

func TestRunOnce_PhaseFailureDoesNotBlockLaterPhases(t *testing.T) {
	q := &fakeQuerier{
		purgeErr: assert.AnError,
		demoted:  []domain.TestResult{{TraceID: "trace-a"}},
	}
	timer, err := New(q, Retention{ShellAge: time.Hour, WithDataAge: time.Hour, ReportAge: time.Hour}, "@every 1h", zap.NewNop())
	require.NoError(t, err)

	timer.RunOnce(context.Background())

	assert.Equal(t, []string{"trace-a"}, q.deletedTrace, "demote/delete phase must still run after purge fails")
}

func TestNew_InvalidScheduleErrors(t *testing.T) {
	_, err := New(&fakeQuerier{}, Retention{}, "not a valid cron spec !!", zap.NewNop())
	assert.Error(t, err)
}
