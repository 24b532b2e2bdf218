package traceparser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/arc-self/apps/trace-insights/internal/bus"
	"github.com/arc-self/apps/trace-insights/internal/domain"
	"github.com/arc-self/apps/trace-insights/internal/store"
	"github.com/arc-self/apps/trace-insights/internal/wire"
)

type fakeQuerier struct {
	store.Querier
	spans       []store.SpanRecord
	spansErr    error
	savedResult *domain.TestResult
	saveErr     error
}

func (f *fakeQuerier) GetSpansForTrace(ctx context.Context, traceID string) ([]store.SpanRecord, error) {
	return f.spans, f.spansErr
}

func (f *fakeQuerier) FindOrCreateTestItem(ctx context.Context, parentID, name string, source int32) (string, error) {
	id := parentID + "/" + name
	return id, nil
}

func (f *fakeQuerier) SaveTestResult(ctx context.Context, tr domain.TestResult) error {
	f.savedResult = &tr
	return f.saveErr
}

type recordingPublisher struct {
	subjects []string
	payloads [][]byte
}

func (p *recordingPublisher) Publish(ctx context.Context, subject string, payload []byte) error {
	p.subjects = append(p.subjects, subject)
	p.payloads = append(p.payloads, payload)
	return nil
}

func rootTags() map[string]string {
	return map[string]string{
		wire.TagTestSuite:  "suite-a",
		wire.TagTestClass:  "class-b",
		wire.TagTestName:   "test-c",
		wire.TagTestResult: "Success",
	}
}

func TestHandle_HappyPath(t *testing.T) {
	q := &fakeQuerier{spans: []store.SpanRecord{
		{TraceID: "trace-1", ID: "root", ParentID: nil, Timestamp: ptr(int64(1000)), Duration: ptr(int64(100)), Tags: rootTags()},
	}}
	pub := &recordingPublisher{}
	p := New(q, pub, zap.NewNop())

	err := p.Handle(context.Background(), []byte(`{"traceId":"trace-1"}`))
	require.NoError(t, err)

	require.NotNil(t, q.savedResult)
	assert.Equal(t, "root/suite-a/class-b/test-c", q.savedResult.TestID)
	assert.Equal(t, domain.TestSuccess, q.savedResult.Status)
	assert.Equal(t, domain.CleanupToKeep, q.savedResult.CleanupStatus)

	require.Len(t, pub.subjects, 1)
	assert.Equal(t, bus.SubjectTestResult, pub.subjects[0])
}

func TestHandle_IncompleteTraceIsDroppedNotErrored(t *testing.T) {
	q := &fakeQuerier{spans: []store.SpanRecord{
		{TraceID: "trace-1", ID: "root", ParentID: nil, Duration: nil, Tags: rootTags()},
	}}
	pub := &recordingPublisher{}
	p := New(q, pub, zap.NewNop())

	err := p.Handle(context.Background(), []byte(`{"traceId":"trace-1"}`))
	assert.NoError(t, err)
	assert.Nil(t, q.savedResult)
	assert.Empty(t, pub.subjects)
}

func TestHandle_NoSpansIsDroppedNotErrored(t *testing.T) {
	q := &fakeQuerier{spans: nil}
	p := New(q, &recordingPublisher{}, zap.NewNop())

	err := p.Handle(context.Background(), []byte(`{"traceId":"trace-1"}`))
	assert.NoError(t, err)
}

func TestHandle_InvalidPayloadIsPoisonPill(t *testing.T) {
	p := New(&fakeQuerier{}, &recordingPublisher{}, zap.NewNop())

	err := p.Handle(context.Background(), []byte("not json"))
	require.Error(t, err)
	var poison *bus.PoisonPillError
	assert.ErrorAs(t, err, &poison)
}

func TestHandle_SaveFailurePropagatesForRedelivery(t *testing.T) {
	q := &fakeQuerier{
		spans: []store.SpanRecord{
			{TraceID: "trace-1", ID: "root", ParentID: nil, Timestamp: ptr(int64(1000)), Duration: ptr(int64(100)), Tags: rootTags()},
		},
		saveErr: assert.AnError,
	}
	p := New(q, &recordingPublisher{}, zap.NewNop())

	err := p.Handle(context.Background(), []byte(`{"traceId":"trace-1"}`))
	require.Error(t, err)

	var poison *bus.PoisonPillError
	assert.NotErrorAs(t, err, &poison, "a save failure should be retried, not terminated")
}
