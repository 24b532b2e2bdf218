// Package reporter derives "endpoints" report placements from a trace's
// remote-endpoint spans. Scripted report-filter placements do not pass
// through this package; the Streamer's placement hook writes them.
package reporter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/arc-self/apps/trace-insights/internal/domain"
	"github.com/arc-self/apps/trace-insights/internal/store"
)

// EndpointsGroup is the well-known report group every trace's remote calls
// are auto-filed under.
const EndpointsGroup = "endpoints"

type Reporter struct {
	querier store.Querier
	log     *zap.Logger
}

func New(q store.Querier, log *zap.Logger) *Reporter {
	return &Reporter{querier: q, log: log}
}

// Handle implements bus.Handler for the trace.test.result subject: every
// derived TestResult triggers auto report-derivation, independent of
// whatever the Streamer's scripted report filters decide to place.
func (r *Reporter) Handle(ctx context.Context, data []byte) error {
	var result domain.TestResult
	if err := json.Unmarshal(data, &result); err != nil {
		return fmt.Errorf("decode test result: %w", err)
	}
	return r.ComputeReportsForResult(ctx, result)
}

// ComputeReportsForResult loads the trace's spans, keeps the ones with a
// non-nil remote endpoint, and dedups them by (remote service name, span
// name) into one "endpoints" placement per distinct pair.
func (r *Reporter) ComputeReportsForResult(ctx context.Context, result domain.TestResult) error {
	spans, err := r.querier.GetSpansForTrace(ctx, result.TraceID)
	if err != nil {
		return fmt.Errorf("load spans for trace %s: %w", result.TraceID, err)
	}

	type key struct{ service, span string }
	seen := map[key]bool{}
	now := time.Now()

	for _, sp := range spans {
		if sp.RemoteServiceName == nil || sp.Name == nil {
			continue
		}
		k := key{service: *sp.RemoteServiceName, span: *sp.Name}
		if seen[k] {
			continue
		}
		seen[k] = true

		category := fmt.Sprintf("%s/%s", k.service, k.span)
		placement := domain.ReportPlacement{
			Group:    EndpointsGroup,
			Name:     k.service,
			Category: &category,
			Result:   result,
		}
		if err := r.querier.UpsertReportPlacement(ctx, placement, now); err != nil {
			r.log.Warn("endpoint report placement failed",
				zap.String("traceId", result.TraceID), zap.String("service", k.service), zap.Error(err))
		}
	}
	return nil
}
