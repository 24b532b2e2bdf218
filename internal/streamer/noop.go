//go:build !scripting

package streamer

import (
	"context"

	"go.uber.org/zap"

	"github.com/arc-self/apps/trace-insights/internal/domain"
)

// NoopEngine is the default-build Engine: Test is a no-op unless the
// scripting build tag is set, per the streaming layer being driven only
// when a real interpreter is compiled in.
type NoopEngine struct {
	log *zap.Logger
}

func NewEngine(log *zap.Logger) Engine { return &NoopEngine{log: log} }

func (e *NoopEngine) RunStreamTest(ctx context.Context, source string, result domain.TestResult) error {
	return nil
}

func (e *NoopEngine) RunReportFilter(ctx context.Context, source string, result domain.TestResult) ([]domain.ReportPlacement, error) {
	return nil, nil
}
