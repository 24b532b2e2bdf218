package store

import (
	"time"

	"github.com/arc-self/apps/trace-insights/internal/domain"
	"github.com/arc-self/apps/trace-insights/internal/wire"
)

// SpanRecord is the normalised row shape for table `span`, with endpoint
// ids already resolved via UpsertEndpoint.
type SpanRecord struct {
	TraceID          string
	ID               string
	ParentID         *string
	Name             *string
	Kind             *string
	Timestamp        *int64
	Duration         *int64
	Debug            bool
	Shared           bool
	LocalEndpointID  *string
	RemoteEndpointID *string
	LocalServiceName  *string
	RemoteServiceName *string
	Annotations      []wire.Annotation
	Tags             map[string]string
}

// SpanQuery is the filter set behind GetSpans / GetTrace / GetTraces.
type SpanQuery struct {
	FilterFinished bool
	ServiceName    *string
	SpanName       *string
	TraceID        *string
	MinDuration    *int64
	MaxDuration    *int64
	EndTs          int64
	LookbackMs     *int64
	Limit          int
	OnlyEndpoint   bool
}

const (
	MaxSpanLimit       = 500
	MaxTestResultLimit = 100
	DefaultTestResultLimit = 100
)

// ClampLimit applies the §8 boundary rule: GetSpans.limit clamps to 500.
func (q *SpanQuery) ClampLimit() {
	if q.Limit <= 0 || q.Limit > MaxSpanLimit {
		q.Limit = MaxSpanLimit
	}
}

// Window returns the inclusive [start,end] bound implied by EndTs/LookbackMs.
func (q SpanQuery) Window() (start, end int64) {
	end = q.EndTs
	if q.LookbackMs == nil {
		return 0, end
	}
	return end - *q.LookbackMs, end
}

type TestResultQuery struct {
	TestID      *string
	TraceID     *string
	Environment *string
	Limit       int
}

func (q *TestResultQuery) ClampLimit() {
	if q.Limit <= 0 || q.Limit > MaxTestResultLimit {
		q.Limit = MaxTestResultLimit
	}
}

type TestItemQuery struct {
	ID            *string
	ParentID      *string
	WithFullPath  bool
	WithChildren  bool
	WithTraces    bool
}

// TestItemView is a TestItem enriched with the optional hydration
// GetTestItems supports.
type TestItemView struct {
	domain.TestItem
	FullPath      []string          `json:"fullPath,omitempty"`
	Children      []domain.TestItem `json:"children,omitempty"`
	RecentResults []domain.TestResult `json:"recentResults,omitempty"`
}

const RecentResultsPerTestItem = 5

type Dependency struct {
	Parent     string `json:"parent"`
	Child      string `json:"child"`
	CallCount  int    `json:"callCount"`
	ErrorCount int    `json:"errorCount"`
}

type ReportSummary struct {
	Group        string   `json:"group"`
	Name         string   `json:"name"`
	SuccessCount int      `json:"successCount"`
	FailureCount int      `json:"failureCount"`
	SkippedCount int      `json:"skippedCount"`
	Environments []string `json:"environments"`
}

type ReportCategory struct {
	Category    string              `json:"category"`
	LastResults []domain.TestResult `json:"lastResults"`
}

type ReportDetail struct {
	Group      string           `json:"group"`
	Name       string           `json:"name"`
	CreatedOn  time.Time        `json:"createdOn"`
	LastUpdate time.Time        `json:"lastUpdate"`
	Categories []ReportCategory `json:"categories"`
}
