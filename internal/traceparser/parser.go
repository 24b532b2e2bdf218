package traceparser

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/arc-self/apps/trace-insights/internal/bus"
	"github.com/arc-self/apps/trace-insights/internal/domain"
	"github.com/arc-self/apps/trace-insights/internal/ingest"
	"github.com/arc-self/apps/trace-insights/internal/store"
)

// Publisher is the narrow bus dependency the parser needs to fan the
// derived result out to the Streamer and Reporter.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload []byte) error
}

// Parser consumes trace.done events, loads the trace's spans, derives a
// TestResult, persists it, and republishes it for the Streamer and
// Reporter to pick up independently.
type Parser struct {
	querier store.Querier
	publish Publisher
	log     *zap.Logger
}

func New(q store.Querier, pub Publisher, log *zap.Logger) *Parser {
	return &Parser{querier: q, publish: pub, log: log}
}

// Handle implements bus.Handler for the trace.done subject.
func (p *Parser) Handle(ctx context.Context, data []byte) error {
	var event ingest.TraceDoneEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return &bus.PoisonPillError{Err: fmt.Errorf("decode trace.done: %w", err)}
	}

	spans, err := p.querier.GetSpansForTrace(ctx, event.TraceID)
	if err != nil {
		return fmt.Errorf("load spans for trace %s: %w", event.TraceID, err)
	}
	if len(spans) == 0 {
		p.log.Warn("trace.done for trace with no spans", zap.String("traceId", event.TraceID))
		return nil
	}

	pending, ok, reason := Derive(spans)
	if !ok {
		p.log.Warn("dropped trace, not a complete test result",
			zap.String("traceId", event.TraceID), zap.String("reason", reason))
		return nil
	}

	testID, err := p.resolveTestID(ctx, pending)
	if err != nil {
		return fmt.Errorf("resolve test item for trace %s: %w", event.TraceID, err)
	}

	result := domain.TestResult{
		TestID:           testID,
		TraceID:          pending.TraceID,
		Path:             []string{pending.Suite, pending.Class},
		Name:             pending.Name,
		Date:             pending.Date,
		Status:           pending.Status,
		Duration:         pending.Duration,
		Environment:      pending.Environment,
		ComponentsCalled: pending.ComponentsCalled,
		NbSpans:          pending.NbSpans,
		CleanupStatus:    domain.InitialCleanupStatus(pending.Status),
		MainSpanTags:     pending.MainSpanTags,
	}

	if err := p.querier.SaveTestResult(ctx, result); err != nil {
		return fmt.Errorf("save test result for trace %s: %w", event.TraceID, err)
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode test result for trace %s: %w", event.TraceID, err)
	}
	if err := p.publish.Publish(ctx, bus.SubjectTestResult, payload); err != nil {
		p.log.Warn("test result publish failed", zap.String("traceId", event.TraceID), zap.Error(err))
	}
	return nil
}

// resolveTestID walks root → suite → class → name through
// FindOrCreateTestItem, matching the hierarchical test tree every
// TestResult is filed under.
func (p *Parser) resolveTestID(ctx context.Context, pending pendingResult) (string, error) {
	suiteID, err := p.querier.FindOrCreateTestItem(ctx, domain.RootTestItemID, pending.Suite, testItemSource)
	if err != nil {
		return "", err
	}
	classID, err := p.querier.FindOrCreateTestItem(ctx, suiteID, pending.Class, testItemSource)
	if err != nil {
		return "", err
	}
	return p.querier.FindOrCreateTestItem(ctx, classID, pending.Name, testItemSource)
}
