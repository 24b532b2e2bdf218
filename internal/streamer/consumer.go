package streamer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/arc-self/apps/trace-insights/internal/domain"
)

// Handle implements bus.Handler for the trace.test.result subject.
func (s *Streamer) Handle(ctx context.Context, data []byte) error {
	var result domain.TestResult
	if err := json.Unmarshal(data, &result); err != nil {
		return fmt.Errorf("decode test result: %w", err)
	}
	s.Test(ctx, result)
	return nil
}
