// Package traceparser turns a finished trace into a derived TestResult,
// following the state machine Pending → Parsing → {Emitted, Dropped}.
package traceparser

import (
	"fmt"
	"time"

	"github.com/arc-self/apps/trace-insights/internal/domain"
	"github.com/arc-self/apps/trace-insights/internal/store"
	"github.com/arc-self/apps/trace-insights/internal/wire"
)

// testItemSource tags every test_item row created by the parser; the field
// exists on TestItem to let other origins (e.g. a future manual test tree
// import) coexist without colliding on name.
const testItemSource int32 = 0

// Derive is the pure projection from a trace's spans to a TestResult. It
// never touches the store: the caller resolves TestID via
// Store.FindOrCreateTestItem once Derive has confirmed the trace is
// complete enough to keep. ok is false when the trace should be dropped,
// with reason explaining why.
//
// suite, name and status each fall back from their dedicated tag to a
// structural source (localEndpoint.serviceName, span.name, the `error` tag)
// before the trace is dropped; class, date and duration have no fallback.
func Derive(spans []store.SpanRecord) (result pendingResult, ok bool, reason string) {
	root, found := rootSpan(spans)
	if !found {
		return pendingResult{}, false, "no root span (parentId == nil) found in trace"
	}
	if root.Timestamp == nil {
		return pendingResult{}, false, "root span has no timestamp yet"
	}
	if root.Duration == nil {
		return pendingResult{}, false, "root span has no duration yet"
	}

	suite, ok := root.Tags[wire.TagTestSuite]
	if !ok {
		if root.LocalServiceName == nil || *root.LocalServiceName == "" {
			return pendingResult{}, false, fmt.Sprintf("root span missing tag %q and has no localEndpoint.serviceName", wire.TagTestSuite)
		}
		suite = *root.LocalServiceName
	}

	class, ok := root.Tags[wire.TagTestClass]
	if !ok {
		return pendingResult{}, false, fmt.Sprintf("root span missing required tag %q", wire.TagTestClass)
	}

	name, ok := root.Tags[wire.TagTestName]
	if !ok {
		if root.Name == nil || *root.Name == "" {
			return pendingResult{}, false, fmt.Sprintf("root span missing tag %q and has no span name", wire.TagTestName)
		}
		name = *root.Name
	}

	status, ok := resolveStatus(root.Tags)
	if !ok {
		return pendingResult{}, false, fmt.Sprintf("root span has neither a recognised %q nor an %q tag", wire.TagTestResult, wire.TagError)
	}

	var environment *string
	if env, ok := root.Tags[wire.TagTestEnvironment]; ok {
		environment = &env
	}

	componentsCalled := map[string]int{}
	for _, sp := range spans {
		if sp.RemoteServiceName != nil && *sp.RemoteServiceName != "" {
			componentsCalled[*sp.RemoteServiceName]++
		}
	}

	return pendingResult{
		Suite:            suite,
		Class:            class,
		Name:             name,
		TraceID:          root.TraceID,
		Date:             time.UnixMicro(*root.Timestamp),
		Status:           status,
		Duration:         *root.Duration,
		Environment:      environment,
		ComponentsCalled: componentsCalled,
		NbSpans:          len(spans),
		MainSpanTags:     root.Tags,
	}, true, ""
}

// resolveStatus applies the `test.result` / `error` fallback chain: an
// explicit, recognised test.result tag wins; otherwise error=="true" means
// Failure; anything else means the trace lacks enough signal to derive a
// status.
func resolveStatus(tags map[string]string) (domain.TestStatus, bool) {
	if raw, ok := tags[wire.TagTestResult]; ok {
		if status, ok := domain.ParseTestStatus(raw); ok {
			return status, true
		}
	}
	if tags[wire.TagError] == "true" {
		return domain.TestFailure, true
	}
	return "", false
}

// pendingResult is Derive's output before TestID resolution, which needs a
// store round trip the pure function can't perform.
type pendingResult struct {
	Suite, Class, Name string
	TraceID            string
	Date               time.Time
	Status             domain.TestStatus
	Duration           int64
	Environment        *string
	ComponentsCalled   map[string]int
	NbSpans            int
	MainSpanTags       map[string]string
}

func rootSpan(spans []store.SpanRecord) (store.SpanRecord, bool) {
	for _, sp := range spans {
		if sp.ParentID == nil {
			return sp, true
		}
	}
	return store.SpanRecord{}, false
}
