package domain

import "time"

// Report is a named, grouped collection of test-result placements, unique
// by (Folder, Name).
type Report struct {
	ID         string
	Name       string
	Folder     string
	CreatedOn  time.Time
	LastUpdate time.Time
}

// TestResultInReport is the placement of one TestResult into one Report
// under a category and optional environment. At most one placement row
// exists per (ReportID, TestID, Category, Environment); re-emission updates
// TraceID and Status in place.
type TestResultInReport struct {
	ReportID    string
	TestID      string
	TraceID     string
	Category    string
	Environment *string
	Status      TestStatus
}

// ReportPlacement is the input to Store.UpsertReportPlacement: either
// auto-derived from remote endpoints (Reporter.ComputeReportsForResult) or
// produced by a ReportFilterTestResult script.
type ReportPlacement struct {
	Group       string
	Name        string
	Category    *string // falls back to Name when nil
	Environment *string
	Result      TestResult
}
