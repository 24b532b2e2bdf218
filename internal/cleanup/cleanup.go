// Package cleanup runs the three-phase retention job: purge Shell results,
// demote stale WithData results to Shell, expire stale reports.
package cleanup

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/arc-self/apps/trace-insights/internal/store"
)

// Retention holds the per-phase age cutoffs the timer applies on each run.
type Retention struct {
	ShellAge      time.Duration
	WithDataAge   time.Duration
	ReportAge     time.Duration
}

// Timer is the periodic actor that drives Store's three cleanup phases in
// order: Purge → Demote → Expire. A phase's failure is logged; it does not
// prevent the next phase or the next scheduled run.
type Timer struct {
	querier   store.Querier
	retention Retention
	log       *zap.Logger
	cron      *cron.Cron
}

// New builds a Timer scheduled with the given cron spec (e.g. "@every
// 1h" for an hourly sweep), matching the robfig/cron scheduling style the
// rest of this stack's periodic jobs use.
func New(q store.Querier, retention Retention, schedule string, log *zap.Logger) (*Timer, error) {
	t := &Timer{querier: q, retention: retention, log: log, cron: cron.New()}
	if _, err := t.cron.AddFunc(schedule, func() {
		t.RunOnce(context.Background())
	}); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Timer) Start() { t.cron.Start() }
func (t *Timer) Stop()  { <-t.cron.Stop().Done() }

// RunOnce executes all three phases once, in order.
func (t *Timer) RunOnce(ctx context.Context) {
	now := time.Now()

	purged, err := t.querier.PurgeShellResults(ctx, now.Add(-t.retention.ShellAge))
	if err != nil {
		t.log.Warn("purge shell results failed", zap.Error(err))
	} else {
		t.log.Info("purged shell results", zap.Int64("count", purged))
	}

	demoted, err := t.querier.DemoteWithDataResults(ctx, now.Add(-t.retention.WithDataAge))
	if err != nil {
		t.log.Warn("demote with-data results failed", zap.Error(err))
	} else {
		for _, tr := range demoted {
			if derr := t.querier.DeleteSpansForTrace(ctx, tr.TraceID); derr != nil {
				t.log.Warn("delete spans for demoted trace failed", zap.String("traceId", tr.TraceID), zap.Error(derr))
			}
		}
		t.log.Info("demoted with-data results", zap.Int("count", len(demoted)))
	}

	expired, err := t.querier.ExpireReports(ctx, now.Add(-t.retention.ReportAge))
	if err != nil {
		t.log.Warn("expire reports failed", zap.Error(err))
	} else {
		t.log.Info("expired reports", zap.Int64("count", expired))
	}
}
