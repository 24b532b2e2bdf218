// Package domain holds the core entities derived and stored by the
// ingestion-to-insight pipeline, independent of their wire or SQL
// representation.
package domain

import (
	"strings"
	"time"
)

// TestStatus is the outcome of a derived test result.
type TestStatus string

const (
	TestSuccess TestStatus = "Success"
	TestFailure TestStatus = "Failure"
	TestSkipped TestStatus = "Skipped"
)

// ParseTestStatus matches the tag `test.result` case-insensitively against
// the known statuses, returning ok=false when nothing matches.
func ParseTestStatus(s string) (TestStatus, bool) {
	switch strings.ToLower(s) {
	case "success":
		return TestSuccess, true
	case "failure":
		return TestFailure, true
	case "skipped":
		return TestSkipped, true
	default:
		return "", false
	}
}

// CleanupStatus is the retention lifecycle tag on a TestResult. The integer
// encoding below must not be relied on for ordering: it reflects storage
// history, not transition order.
type CleanupStatus int32

const (
	CleanupWithData  CleanupStatus = 0
	CleanupImportant CleanupStatus = 1
	CleanupShell     CleanupStatus = 2
	CleanupToKeep    CleanupStatus = 3
)

// InitialCleanupStatus is assigned at SaveTestResult time: successful runs
// start as ToKeep, everything else starts as WithData.
func InitialCleanupStatus(status TestStatus) CleanupStatus {
	if status == TestSuccess {
		return CleanupToKeep
	}
	return CleanupWithData
}

// TestResult is one execution of a test, derived from the root span of a
// trace by the trace parser.
type TestResult struct {
	TestID           string            `json:"testId"`
	TraceID          string            `json:"traceId"`
	Path             []string          `json:"path"` // suite, class — the path walked to resolve TestID
	Name             string            `json:"name"`
	Date             time.Time         `json:"date"`
	Status           TestStatus        `json:"status"`
	Duration         int64             `json:"duration"`
	Environment      *string           `json:"environment,omitempty"`
	ComponentsCalled map[string]int    `json:"componentsCalled"`
	NbSpans          int               `json:"nbSpans"`
	CleanupStatus    CleanupStatus     `json:"cleanupStatus"`
	MainSpanTags     map[string]string `json:"mainSpanTags,omitempty"`
}

// TestItem is a node in the hierarchical test tree (suite → class → name).
// The root of every tree has ParentID == "root".
type TestItem struct {
	ID       string `json:"id"`
	ParentID string `json:"parentId"`
	Name     string `json:"name"`
	Source   int32  `json:"source"`
}

const RootTestItemID = "root"
