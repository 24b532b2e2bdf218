// Package streamer dispatches every derived TestResult to the operator's
// registered scripts, running at most one script at a time.
package streamer

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/arc-self/apps/trace-insights/internal/domain"
)

// Engine runs one script against one test result and reports whether the
// report-filter hook wants a custom placement. Swapped out entirely by
// build tag: the default build has no interpreter (noop.go), the
// "scripting" build tag wires in a real one (lua.go).
type Engine interface {
	// RunStreamTest executes a StreamTest script's on_test(test) hook.
	RunStreamTest(ctx context.Context, source string, result domain.TestResult) error
	// RunReportFilter executes a ReportFilterTestResult script's
	// reports_for_test(test) hook, returning the placements it produced.
	RunReportFilter(ctx context.Context, source string, result domain.TestResult) ([]domain.ReportPlacement, error)
}

// Streamer holds the in-memory script cache and dispatches every incoming
// TestResult to every enabled script whose type it can run. A script
// runtime failure is logged and the script stays enabled — one bad script
// never blocks the pipeline or gets auto-disabled.
type Streamer struct {
	mu      sync.RWMutex
	scripts map[string]domain.Script // id -> script, Enabled() == true members only relevant for dispatch
	engine  Engine
	onPlacement func(ctx context.Context, p domain.ReportPlacement) error
	log     *zap.Logger
}

func New(engine Engine, onPlacement func(ctx context.Context, p domain.ReportPlacement) error, log *zap.Logger) *Streamer {
	return &Streamer{
		scripts:     map[string]domain.Script{},
		engine:      engine,
		onPlacement: onPlacement,
		log:         log,
	}
}

// LoadScripts seeds the cache at startup.
func (s *Streamer) LoadScripts(scripts []domain.Script) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sc := range scripts {
		s.scripts[sc.ID] = sc
	}
}

func (s *Streamer) AddScript(sc domain.Script)    { s.mu.Lock(); s.scripts[sc.ID] = sc; s.mu.Unlock() }
func (s *Streamer) UpdateScript(sc domain.Script) { s.mu.Lock(); s.scripts[sc.ID] = sc; s.mu.Unlock() }
func (s *Streamer) RemoveScript(id string)        { s.mu.Lock(); delete(s.scripts, id); s.mu.Unlock() }

// Test dispatches one TestResult to every enabled StreamTest and
// ReportFilterTestResult script.
func (s *Streamer) Test(ctx context.Context, result domain.TestResult) {
	s.mu.RLock()
	scripts := make([]domain.Script, 0, len(s.scripts))
	for _, sc := range s.scripts {
		if sc.Enabled() {
			scripts = append(scripts, sc)
		}
	}
	s.mu.RUnlock()

	for _, sc := range scripts {
		switch sc.Type {
		case domain.ScriptStreamTest:
			if err := s.engine.RunStreamTest(ctx, sc.Source, result); err != nil {
				s.log.Warn("script failed", zap.String("scriptId", sc.ID), zap.String("scriptName", sc.Name), zap.Error(err))
			}
		case domain.ScriptReportFilterTestResult:
			placements, err := s.engine.RunReportFilter(ctx, sc.Source, result)
			if err != nil {
				s.log.Warn("script failed", zap.String("scriptId", sc.ID), zap.String("scriptName", sc.Name), zap.Error(err))
				continue
			}
			for _, p := range placements {
				if err := s.onPlacement(ctx, p); err != nil {
					s.log.Warn("scripted report placement failed", zap.String("scriptId", sc.ID), zap.Error(err))
				}
			}
		}
	}
}
