package httpapi_test

import (
	"context"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/arc-self/apps/trace-insights/internal/domain"
	"github.com/arc-self/apps/trace-insights/internal/store"
)

// MockQuerier is a hand-rolled gomock-style stand-in for store.Querier,
// following the same ctrl.Call/RecordCall shape abc-service's own service
// mocks use instead of go.uber.org/mock's generated code.
type MockQuerier struct {
	ctrl     *gomock.Controller
	recorder *MockQuerierRecorder
}

type MockQuerierRecorder struct {
	mock *MockQuerier
}

func NewMockQuerier(ctrl *gomock.Controller) *MockQuerier {
	m := &MockQuerier{ctrl: ctrl}
	m.recorder = &MockQuerierRecorder{mock: m}
	return m
}

func (m *MockQuerier) EXPECT() *MockQuerierRecorder { return m.recorder }

func toErr(v interface{}) error {
	if v == nil {
		return nil
	}
	return v.(error)
}

func (m *MockQuerier) UpsertSpan(ctx context.Context, rec store.SpanRecord) error {
	ret := m.ctrl.Call(m, "UpsertSpan", ctx, rec)
	return toErr(ret[0])
}
func (mr *MockQuerierRecorder) UpsertSpan(ctx, rec any) *gomock.Call {
	return mr.mock.ctrl.RecordCall(mr.mock, "UpsertSpan", ctx, rec)
}

func (m *MockQuerier) UpsertEndpoint(ctx context.Context, ep store.EndpointInput) (string, error) {
	ret := m.ctrl.Call(m, "UpsertEndpoint", ctx, ep)
	return ret[0].(string), toErr(ret[1])
}
func (mr *MockQuerierRecorder) UpsertEndpoint(ctx, ep any) *gomock.Call {
	return mr.mock.ctrl.RecordCall(mr.mock, "UpsertEndpoint", ctx, ep)
}

func (m *MockQuerier) FindOrCreateTestItem(ctx context.Context, parentID, name string, source int32) (string, error) {
	ret := m.ctrl.Call(m, "FindOrCreateTestItem", ctx, parentID, name, source)
	return ret[0].(string), toErr(ret[1])
}
func (mr *MockQuerierRecorder) FindOrCreateTestItem(ctx, parentID, name, source any) *gomock.Call {
	return mr.mock.ctrl.RecordCall(mr.mock, "FindOrCreateTestItem", ctx, parentID, name, source)
}

func (m *MockQuerier) SaveTestResult(ctx context.Context, tr domain.TestResult) error {
	ret := m.ctrl.Call(m, "SaveTestResult", ctx, tr)
	return toErr(ret[0])
}
func (mr *MockQuerierRecorder) SaveTestResult(ctx, tr any) *gomock.Call {
	return mr.mock.ctrl.RecordCall(mr.mock, "SaveTestResult", ctx, tr)
}

func (m *MockQuerier) UpsertReportPlacement(ctx context.Context, p domain.ReportPlacement, now time.Time) error {
	ret := m.ctrl.Call(m, "UpsertReportPlacement", ctx, p, now)
	return toErr(ret[0])
}
func (mr *MockQuerierRecorder) UpsertReportPlacement(ctx, p, now any) *gomock.Call {
	return mr.mock.ctrl.RecordCall(mr.mock, "UpsertReportPlacement", ctx, p, now)
}

func (m *MockQuerier) CreateScript(ctx context.Context, s domain.Script) (domain.Script, error) {
	ret := m.ctrl.Call(m, "CreateScript", ctx, s)
	return ret[0].(domain.Script), toErr(ret[1])
}
func (mr *MockQuerierRecorder) CreateScript(ctx, s any) *gomock.Call {
	return mr.mock.ctrl.RecordCall(mr.mock, "CreateScript", ctx, s)
}

func (m *MockQuerier) UpdateScript(ctx context.Context, s domain.Script) (domain.Script, error) {
	ret := m.ctrl.Call(m, "UpdateScript", ctx, s)
	return ret[0].(domain.Script), toErr(ret[1])
}
func (mr *MockQuerierRecorder) UpdateScript(ctx, s any) *gomock.Call {
	return mr.mock.ctrl.RecordCall(mr.mock, "UpdateScript", ctx, s)
}

func (m *MockQuerier) DeleteScript(ctx context.Context, id string) (domain.Script, error) {
	ret := m.ctrl.Call(m, "DeleteScript", ctx, id)
	return ret[0].(domain.Script), toErr(ret[1])
}
func (mr *MockQuerierRecorder) DeleteScript(ctx, id any) *gomock.Call {
	return mr.mock.ctrl.RecordCall(mr.mock, "DeleteScript", ctx, id)
}

func (m *MockQuerier) GetScript(ctx context.Context, id string) (domain.Script, error) {
	ret := m.ctrl.Call(m, "GetScript", ctx, id)
	return ret[0].(domain.Script), toErr(ret[1])
}
func (mr *MockQuerierRecorder) GetScript(ctx, id any) *gomock.Call {
	return mr.mock.ctrl.RecordCall(mr.mock, "GetScript", ctx, id)
}

func (m *MockQuerier) ListScripts(ctx context.Context, types []domain.ScriptType) ([]domain.Script, error) {
	ret := m.ctrl.Call(m, "ListScripts", ctx, types)
	return ret[0].([]domain.Script), toErr(ret[1])
}
func (mr *MockQuerierRecorder) ListScripts(ctx, types any) *gomock.Call {
	return mr.mock.ctrl.RecordCall(mr.mock, "ListScripts", ctx, types)
}

func (m *MockQuerier) GetSpan(ctx context.Context, traceID, id string) (store.SpanRecord, bool, error) {
	ret := m.ctrl.Call(m, "GetSpan", ctx, traceID, id)
	return ret[0].(store.SpanRecord), ret[1].(bool), toErr(ret[2])
}
func (mr *MockQuerierRecorder) GetSpan(ctx, traceID, id any) *gomock.Call {
	return mr.mock.ctrl.RecordCall(mr.mock, "GetSpan", ctx, traceID, id)
}

func (m *MockQuerier) GetSpans(ctx context.Context, q store.SpanQuery) ([]store.SpanRecord, error) {
	ret := m.ctrl.Call(m, "GetSpans", ctx, q)
	return ret[0].([]store.SpanRecord), toErr(ret[1])
}
func (mr *MockQuerierRecorder) GetSpans(ctx, q any) *gomock.Call {
	return mr.mock.ctrl.RecordCall(mr.mock, "GetSpans", ctx, q)
}

func (m *MockQuerier) GetSpansForTrace(ctx context.Context, traceID string) ([]store.SpanRecord, error) {
	ret := m.ctrl.Call(m, "GetSpansForTrace", ctx, traceID)
	return ret[0].([]store.SpanRecord), toErr(ret[1])
}
func (mr *MockQuerierRecorder) GetSpansForTrace(ctx, traceID any) *gomock.Call {
	return mr.mock.ctrl.RecordCall(mr.mock, "GetSpansForTrace", ctx, traceID)
}

func (m *MockQuerier) GetEndpoint(ctx context.Context, id string) (store.EndpointInput, bool, error) {
	ret := m.ctrl.Call(m, "GetEndpoint", ctx, id)
	return ret[0].(store.EndpointInput), ret[1].(bool), toErr(ret[2])
}
func (mr *MockQuerierRecorder) GetEndpoint(ctx, id any) *gomock.Call {
	return mr.mock.ctrl.RecordCall(mr.mock, "GetEndpoint", ctx, id)
}

func (m *MockQuerier) GetServices(ctx context.Context) ([]string, error) {
	ret := m.ctrl.Call(m, "GetServices", ctx)
	return ret[0].([]string), toErr(ret[1])
}
func (mr *MockQuerierRecorder) GetServices(ctx any) *gomock.Call {
	return mr.mock.ctrl.RecordCall(mr.mock, "GetServices", ctx)
}

func (m *MockQuerier) GetDependencies(ctx context.Context, lookback time.Duration) ([]store.Dependency, error) {
	ret := m.ctrl.Call(m, "GetDependencies", ctx, lookback)
	return ret[0].([]store.Dependency), toErr(ret[1])
}
func (mr *MockQuerierRecorder) GetDependencies(ctx, lookback any) *gomock.Call {
	return mr.mock.ctrl.RecordCall(mr.mock, "GetDependencies", ctx, lookback)
}

func (m *MockQuerier) GetTestItems(ctx context.Context, q store.TestItemQuery) ([]store.TestItemView, error) {
	ret := m.ctrl.Call(m, "GetTestItems", ctx, q)
	return ret[0].([]store.TestItemView), toErr(ret[1])
}
func (mr *MockQuerierRecorder) GetTestItems(ctx, q any) *gomock.Call {
	return mr.mock.ctrl.RecordCall(mr.mock, "GetTestItems", ctx, q)
}

func (m *MockQuerier) GetTestResults(ctx context.Context, q store.TestResultQuery) ([]domain.TestResult, error) {
	ret := m.ctrl.Call(m, "GetTestResults", ctx, q)
	return ret[0].([]domain.TestResult), toErr(ret[1])
}
func (mr *MockQuerierRecorder) GetTestResults(ctx, q any) *gomock.Call {
	return mr.mock.ctrl.RecordCall(mr.mock, "GetTestResults", ctx, q)
}

func (m *MockQuerier) GetEnvironments(ctx context.Context) ([]string, error) {
	ret := m.ctrl.Call(m, "GetEnvironments", ctx)
	return ret[0].([]string), toErr(ret[1])
}
func (mr *MockQuerierRecorder) GetEnvironments(ctx any) *gomock.Call {
	return mr.mock.ctrl.RecordCall(mr.mock, "GetEnvironments", ctx)
}

func (m *MockQuerier) GetReportSummaries(ctx context.Context) ([]store.ReportSummary, error) {
	ret := m.ctrl.Call(m, "GetReportSummaries", ctx)
	return ret[0].([]store.ReportSummary), toErr(ret[1])
}
func (mr *MockQuerierRecorder) GetReportSummaries(ctx any) *gomock.Call {
	return mr.mock.ctrl.RecordCall(mr.mock, "GetReportSummaries", ctx)
}

func (m *MockQuerier) GetReport(ctx context.Context, group, name string, env *string) (store.ReportDetail, bool, error) {
	ret := m.ctrl.Call(m, "GetReport", ctx, group, name, env)
	return ret[0].(store.ReportDetail), ret[1].(bool), toErr(ret[2])
}
func (mr *MockQuerierRecorder) GetReport(ctx, group, name, env any) *gomock.Call {
	return mr.mock.ctrl.RecordCall(mr.mock, "GetReport", ctx, group, name, env)
}

func (m *MockQuerier) PurgeShellResults(ctx context.Context, olderThan time.Time) (int64, error) {
	ret := m.ctrl.Call(m, "PurgeShellResults", ctx, olderThan)
	return ret[0].(int64), toErr(ret[1])
}
func (mr *MockQuerierRecorder) PurgeShellResults(ctx, olderThan any) *gomock.Call {
	return mr.mock.ctrl.RecordCall(mr.mock, "PurgeShellResults", ctx, olderThan)
}

func (m *MockQuerier) DemoteWithDataResults(ctx context.Context, olderThan time.Time) ([]domain.TestResult, error) {
	ret := m.ctrl.Call(m, "DemoteWithDataResults", ctx, olderThan)
	return ret[0].([]domain.TestResult), toErr(ret[1])
}
func (mr *MockQuerierRecorder) DemoteWithDataResults(ctx, olderThan any) *gomock.Call {
	return mr.mock.ctrl.RecordCall(mr.mock, "DemoteWithDataResults", ctx, olderThan)
}

func (m *MockQuerier) DeleteSpansForTrace(ctx context.Context, traceID string) error {
	ret := m.ctrl.Call(m, "DeleteSpansForTrace", ctx, traceID)
	return toErr(ret[0])
}
func (mr *MockQuerierRecorder) DeleteSpansForTrace(ctx, traceID any) *gomock.Call {
	return mr.mock.ctrl.RecordCall(mr.mock, "DeleteSpansForTrace", ctx, traceID)
}

func (m *MockQuerier) ExpireReports(ctx context.Context, olderThan time.Time) (int64, error) {
	ret := m.ctrl.Call(m, "ExpireReports", ctx, olderThan)
	return ret[0].(int64), toErr(ret[1])
}
func (mr *MockQuerierRecorder) ExpireReports(ctx, olderThan any) *gomock.Call {
	return mr.mock.ctrl.RecordCall(mr.mock, "ExpireReports", ctx, olderThan)
}

var _ store.Querier = (*MockQuerier)(nil)
