// Package bus carries messages between the ingestion and insight actors
// (Ingestor → TraceParser → Streamer → Reporter) over JetStream subjects,
// adapting packages/go-core/natsclient's connect/provision pattern to this
// pipeline's own stream and subjects rather than the outbox-relay ones that
// package was written for.
package bus

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const (
	StreamName = "TRACE_INSIGHTS"

	SubjectSpanIngested  = "trace.span.ingested"
	SubjectTraceDone     = "trace.done"
	SubjectTestResult    = "trace.test.result"
	SubjectReportCompute = "trace.report.compute"

	// TraceDoneStabilizationDelay is the fixed window the Ingestor waits
	// before publishing trace.done, giving late child spans time to land.
	TraceDoneStabilizationDelay = 2 * time.Second
)

// Bus wraps a JetStream-enabled NATS connection scoped to this pipeline's
// subjects.
type Bus struct {
	Conn *nats.Conn
	JS   nats.JetStreamContext
	log  *zap.Logger
}

func Connect(url string, log *zap.Logger) (*Bus, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream context: %w", err)
	}
	return &Bus{Conn: conn, JS: js, log: log}, nil
}

// ProvisionStreams idempotently ensures the TRACE_INSIGHTS stream exists,
// mirroring natsclient.ProvisionStreams' check-then-create sequence.
func (b *Bus) ProvisionStreams() error {
	_, err := b.JS.StreamInfo(StreamName)
	if err == nil {
		return nil
	}
	if err != nats.ErrStreamNotFound {
		return fmt.Errorf("stream info: %w", err)
	}
	_, err = b.JS.AddStream(&nats.StreamConfig{
		Name:     StreamName,
		Subjects: []string{"trace.>"},
		Storage:  nats.FileStorage,
		Retention: nats.LimitsPolicy,
	})
	if err != nil {
		return fmt.Errorf("add stream: %w", err)
	}
	b.log.Info("provisioned stream", zap.String("stream", StreamName))
	return nil
}

// Publish writes one message to a JetStream subject, blocking for the
// broker's ack. Satisfies the narrow Publisher interface the ingestor and
// trace parser depend on.
func (b *Bus) Publish(ctx context.Context, subject string, payload []byte) error {
	_, err := b.JS.Publish(subject, payload, nats.Context(ctx))
	return err
}

func (b *Bus) Close() {
	b.Conn.Drain()
}
