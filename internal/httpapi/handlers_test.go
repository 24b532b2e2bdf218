package httpapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/arc-self/apps/trace-insights/internal/domain"
	"github.com/arc-self/apps/trace-insights/internal/httpapi"
	"github.com/arc-self/apps/trace-insights/internal/ingest"
	"github.com/arc-self/apps/trace-insights/internal/store"
)

type fakePublisher struct{}

func (fakePublisher) Publish(ctx context.Context, subject string, payload []byte) error { return nil }

type fakeScriptRegistry struct{}

func (fakeScriptRegistry) LoadScripts(scripts []domain.Script) {}
func (fakeScriptRegistry) AddScript(s domain.Script)            {}
func (fakeScriptRegistry) UpdateScript(s domain.Script)         {}
func (fakeScriptRegistry) RemoveScript(id string)               {}

func newTestServer(t *testing.T, q store.Querier) *httpapi.Server {
	t.Helper()
	return httpapi.New(httpapi.Deps{
		Querier:  q,
		Ingestor: ingest.New(q, fakePublisher{}, zap.NewNop()),
		Scripts:  fakeScriptRegistry{},
		Log:      zap.NewNop(),
	})
}

func TestHealthcheck(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	srv := newTestServer(t, NewMockQuerier(ctrl))

	req := httptest.NewRequest(http.MethodGet, "/healthcheck", nil)
	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "trace-insights", body["appName"])
}

func TestGetTrace_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	q := NewMockQuerier(ctrl)
	q.EXPECT().GetSpansForTrace(gomock.Any(), "missing-trace").Return([]store.SpanRecord{}, nil)

	srv := newTestServer(t, q)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/trace/missing-trace", nil)
	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "NotFound", body["error"])
}

func TestGetTrace_Found(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	q := NewMockQuerier(ctrl)
	name := "checkout"
	q.EXPECT().GetSpansForTrace(gomock.Any(), "trace-1").Return([]store.SpanRecord{
		{TraceID: "trace-1", ID: "span-1", Name: &name, Tags: map[string]string{}},
	}, nil)

	srv := newTestServer(t, q)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/trace/trace-1", nil)
	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "checkout")
}

func TestGetServices_InternalErrorEchoesRequestID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	q := NewMockQuerier(ctrl)
	q.EXPECT().GetServices(gomock.Any()).Return([]string(nil), assert.AnError)

	srv := newTestServer(t, q)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/services", nil)
	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	requestID := rec.Header().Get("X-Request-Id")
	assert.NotEmpty(t, requestID)
}

func TestGetServices_EmptyListIsJSONArrayNotNull(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	q := NewMockQuerier(ctrl)
	q.EXPECT().GetServices(gomock.Any()).Return([]string{}, nil)

	srv := newTestServer(t, q)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/services", nil)
	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestPostSpans_AcceptsBatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	q := NewMockQuerier(ctrl)
	q.EXPECT().UpsertEndpoint(gomock.Any(), gomock.Any()).Return("endpoint-1", nil).AnyTimes()
	q.EXPECT().UpsertSpan(gomock.Any(), gomock.Any()).Return(nil)

	srv := newTestServer(t, q)
	payload := `[{"traceId":"trace-1","id":"span-1","name":"checkout"}]`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/spans", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(1), body["nbEvents"])
}

func TestPostSpans_InvalidBody(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	q := NewMockQuerier(ctrl)

	srv := newTestServer(t, q)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/spans", strings.NewReader(`not json`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
