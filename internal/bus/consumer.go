package bus

import (
	"context"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Handler processes one message's payload. Returning an error Naks the
// message for redelivery; returning nil Acks it. A Handler that meets a
// permanent failure returns a *PoisonPillError, and the consumer Terms the
// message instead. A panic in a Handler is not recovered.
type Handler func(ctx context.Context, data []byte) error

// PoisonPillError marks a message as permanently unprocessable: the
// consumer Terms it instead of Nak'ing, matching the audit-service
// consumer's Term()-vs-Nak() split.
type PoisonPillError struct{ Err error }

func (e *PoisonPillError) Error() string { return e.Err.Error() }
func (e *PoisonPillError) Unwrap() error { return e.Err }

// Consumer runs a durable JetStream pull-subscribe loop: one goroutine, one
// message in flight at a time, which is exactly the single-mailbox actor
// discipline the concurrency model requires for TraceParser/Streamer/
// Reporter.
type Consumer struct {
	js      nats.JetStreamContext
	subject string
	durable string
	log     *zap.Logger
}

func NewConsumer(js nats.JetStreamContext, subject, durable string, log *zap.Logger) *Consumer {
	return &Consumer{js: js, subject: subject, durable: durable, log: log}
}

// Run pulls one message at a time and blocks until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context, handle Handler) error {
	sub, err := c.js.PullSubscribe(c.subject, c.durable, nats.ManualAck())
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		msgs, err := sub.Fetch(1, nats.MaxWait(2*time.Second))
		if err != nil {
			if err == nats.ErrTimeout {
				continue
			}
			c.log.Warn("fetch failed", zap.String("subject", c.subject), zap.Error(err))
			continue
		}

		for _, msg := range msgs {
			c.processOne(ctx, msg, handle)
		}
	}
}

func (c *Consumer) processOne(ctx context.Context, msg *nats.Msg, handle Handler) {
	err := handle(ctx, msg.Data)
	switch {
	case err == nil:
		_ = msg.Ack()
	default:
		var poison *PoisonPillError
		if as, ok := err.(*PoisonPillError); ok {
			poison = as
		}
		if poison != nil {
			c.log.Error("poison pill, terminating message", zap.String("subject", c.subject), zap.Error(poison.Err))
			_ = msg.Term()
			return
		}
		c.log.Warn("handler failed, nak for redelivery", zap.String("subject", c.subject), zap.Error(err))
		_ = msg.Nak()
	}
}
