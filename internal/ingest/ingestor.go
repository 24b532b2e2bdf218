// Package ingest implements the Ingestor: accepts batches of spans over
// HTTP, persists each one, and schedules trace-completion signals.
package ingest

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arc-self/apps/trace-insights/internal/bus"
	"github.com/arc-self/apps/trace-insights/internal/store"
	"github.com/arc-self/apps/trace-insights/internal/wire"
)

// Ingestor accepts [Span] batches under a fresh ingest id and emits a
// delayed trace-completion signal for spans that look like finished roots.
// No ingest row is written for a batch; the id is only returned to the
// caller.
type Ingestor struct {
	querier store.Querier
	publish func(ctx context.Context, subject string, payload []byte) error
	log     *zap.Logger
	delay   time.Duration
}

// Publisher is satisfied by *bus.Bus; kept narrow so the ingestor can be
// tested with a recording fake.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload []byte) error
}

func New(q store.Querier, pub Publisher, log *zap.Logger) *Ingestor {
	return &Ingestor{
		querier: q,
		publish: pub.Publish,
		log:     log,
		delay:   bus.TraceDoneStabilizationDelay,
	}
}

// TraceDoneEvent is the payload published to bus.SubjectTraceDone.
type TraceDoneEvent struct {
	TraceID string `json:"traceId"`
}

// Accept persists every span in the batch and returns the accepted count.
// A per-span persistence error is logged but does not abort the batch, per
// the Ingestor's failure semantics.
func (i *Ingestor) Accept(ctx context.Context, spans []wire.Span) (ingestID string, accepted int, err error) {
	ingestID = uuid.NewString()

	for _, span := range spans {
		rec, convErr := i.toRecord(ctx, span)
		if convErr != nil {
			i.log.Warn("span conversion failed", zap.String("traceId", span.TraceID), zap.Error(convErr))
			continue
		}
		if upErr := i.querier.UpsertSpan(ctx, rec); upErr != nil {
			i.log.Warn("span persistence failed", zap.String("traceId", span.TraceID), zap.String("id", span.ID), zap.Error(upErr))
			continue
		}
		accepted++

		if isFinishedRoot(span) {
			i.scheduleTraceDone(span.TraceID)
		}
	}
	return ingestID, accepted, nil
}

// isFinishedRoot reports whether a span as posted has duration != nil and
// parentId == nil. The row already stored for the same (traceId,id) is not
// consulted.
func isFinishedRoot(span wire.Span) bool {
	return span.Duration != nil && span.ParentID == nil
}

func (i *Ingestor) scheduleTraceDone(traceID string) {
	time.AfterFunc(i.delay, func() {
		payload, err := json.Marshal(TraceDoneEvent{TraceID: traceID})
		if err != nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := i.publish(ctx, bus.SubjectTraceDone, payload); err != nil {
			i.log.Warn("trace.done publish failed", zap.String("traceId", traceID), zap.Error(err))
		}
	})
}

func (i *Ingestor) toRecord(ctx context.Context, span wire.Span) (store.SpanRecord, error) {
	rec := store.SpanRecord{
		TraceID:     span.TraceID,
		ID:          span.ID,
		ParentID:    span.ParentID,
		Name:        span.Name,
		Timestamp:   span.Timestamp,
		Duration:    span.Duration,
		Debug:       span.Debug,
		Shared:      span.Shared,
		Annotations: span.Annotations,
		Tags:        span.Tags,
	}
	if span.Kind != nil {
		k := string(wire.ParseKind(*span.Kind))
		rec.Kind = &k
	}
	if span.LocalEndpoint != nil {
		id, err := i.querier.UpsertEndpoint(ctx, store.EndpointInputFromWire(span.LocalEndpoint))
		if err != nil {
			return store.SpanRecord{}, err
		}
		rec.LocalEndpointID = &id
	}
	if span.RemoteEndpoint != nil {
		id, err := i.querier.UpsertEndpoint(ctx, store.EndpointInputFromWire(span.RemoteEndpoint))
		if err != nil {
			return store.SpanRecord{}, err
		}
		rec.RemoteEndpointID = &id
	}
	return rec, nil
}
