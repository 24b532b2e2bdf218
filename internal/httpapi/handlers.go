package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/arc-self/apps/trace-insights/internal/apierr"
	"github.com/arc-self/apps/trace-insights/internal/domain"
	"github.com/arc-self/apps/trace-insights/internal/ingest"
	"github.com/arc-self/apps/trace-insights/internal/store"
	"github.com/arc-self/apps/trace-insights/internal/wire"
)

type handlers struct {
	querier  store.Querier
	ingestor *ingest.Ingestor
	scripts  ScriptRegistry
	log      *zap.Logger
}

func (h *handlers) register(e *echo.Echo) {
	e.GET("/healthcheck", h.healthcheck)
	e.GET("/config.json", h.configJSON)

	api := e.Group("/api/v1")
	api.POST("/spans", h.postSpans)
	api.GET("/services", h.getServices)
	api.GET("/trace/:traceId", h.getTrace)
	api.GET("/traces", h.getTraces)
	api.GET("/dependencies", h.getDependencies)

	api.GET("/tests", h.getTests)
	api.GET("/tests/:testId", h.getTest)
	api.GET("/testresults", h.getTestResults)
	api.GET("/environments", h.getEnvironments)

	api.GET("/scripts", h.listScripts)
	api.POST("/scripts", h.createScript)
	api.PUT("/scripts", h.reloadScripts)
	api.GET("/scripts/:scriptId", h.getScript)
	api.PUT("/scripts/:scriptId", h.updateScript)
	api.DELETE("/scripts/:scriptId", h.deleteScript)

	api.GET("/reports", h.getReports)
	api.GET("/reports/:group/:name", h.getReport)
}

// healthcheck godoc
// @Summary  Liveness probe
// @Produce  json
// @Success  200 {object} object
// @Router   /healthcheck [get]
func (h *handlers) healthcheck(c echo.Context) error {
	now := time.Now()
	return c.JSON(http.StatusOK, map[string]any{
		"appName":   "trace-insights",
		"buildInfo": BuildInfo,
		"time": map[string]any{
			"startTime": StartTime,
			"now":       now,
		},
	})
}

// configJSON godoc
// @Summary  Zipkin-UI compatible runtime configuration
// @Produce  json
// @Success  200 {object} object
// @Router   /config.json [get]
func (h *handlers) configJSON(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"environment":      "",
		"queryLimit":       store.MaxSpanLimit,
		"defaultLookback":  int64(15 * time.Minute / time.Millisecond),
		"instrumented":     true,
		"logsUrl":          nil,
		"searchEnabled":    true,
		"dependency": map[string]any{
			"lowErrorRate":  0.5,
			"highErrorRate": 0.75,
		},
	})
}

// postSpans godoc
// @Summary      Ingest a batch of spans
// @Accept       json
// @Produce      json
// @Param        spans body []object true "Zipkin v2 spans"
// @Success      200 {object} object
// @Failure      400 {object} object
// @Router       /api/v1/spans [post]
func (h *handlers) postSpans(c echo.Context) error {
	var spans []wire.Span
	if err := c.Bind(&spans); err != nil {
		return apierr.BadRequest("invalid span batch: " + err.Error())
	}

	ingestID, accepted, err := h.ingestor.Accept(c.Request().Context(), spans)
	if err != nil {
		return apierr.Internal(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"ingestId": ingestID, "nbEvents": accepted})
}

func (h *handlers) getServices(c echo.Context) error {
	services, err := h.querier.GetServices(c.Request().Context())
	if err != nil {
		return apierr.Internal(err)
	}
	return c.JSON(http.StatusOK, services)
}

func (h *handlers) getTrace(c echo.Context) error {
	traceID := c.Param("traceId")
	if traceID == "" {
		return apierr.BadRequest("missing traceId")
	}
	recs, err := h.querier.GetSpansForTrace(c.Request().Context(), traceID)
	if err != nil {
		return apierr.Internal(err)
	}
	if len(recs) == 0 {
		return apierr.NotFound("trace not found")
	}
	spans, err := h.toWireSpans(c.Request().Context(), recs)
	if err != nil {
		return apierr.Internal(err)
	}
	return c.JSON(http.StatusOK, spans)
}

// getTraces returns recent spans grouped by trace id, honoring the same
// service/span-name/duration/lookback filters GetSpans accepts.
func (h *handlers) getTraces(c echo.Context) error {
	q, err := parseSpanQuery(c)
	if err != nil {
		return apierr.BadRequest(err.Error())
	}
	recs, err := h.querier.GetSpans(c.Request().Context(), q)
	if err != nil {
		return apierr.Internal(err)
	}
	spans, err := h.toWireSpans(c.Request().Context(), recs)
	if err != nil {
		return apierr.Internal(err)
	}

	grouped := map[string][]wire.Span{}
	order := make([]string, 0)
	for _, sp := range spans {
		if _, ok := grouped[sp.TraceID]; !ok {
			order = append(order, sp.TraceID)
		}
		grouped[sp.TraceID] = append(grouped[sp.TraceID], sp)
	}
	out := make([][]wire.Span, 0, len(order))
	for _, traceID := range order {
		out = append(out, grouped[traceID])
	}
	return c.JSON(http.StatusOK, out)
}

func parseSpanQuery(c echo.Context) (store.SpanQuery, error) {
	q := store.SpanQuery{EndTs: time.Now().UnixMicro()}
	if v := c.QueryParam("serviceName"); v != "" {
		q.ServiceName = &v
	}
	if v := c.QueryParam("spanName"); v != "" {
		q.SpanName = &v
	}
	if v := c.QueryParam("endTs"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return q, err
		}
		q.EndTs = n
	}
	if v := c.QueryParam("lookback"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return q, err
		}
		q.LookbackMs = &n
	}
	if v := c.QueryParam("minDuration"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return q, err
		}
		q.MinDuration = &n
	}
	if v := c.QueryParam("maxDuration"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return q, err
		}
		q.MaxDuration = &n
	}
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return q, err
		}
		q.Limit = n
	}
	q.FilterFinished = c.QueryParam("finishedOnly") == "true"
	return q, nil
}

func (h *handlers) getDependencies(c echo.Context) error {
	lookback := 24 * time.Hour
	if v := c.QueryParam("lookback"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return apierr.BadRequest("invalid lookback: " + err.Error())
		}
		lookback = time.Duration(n) * time.Millisecond
	}
	deps, err := h.querier.GetDependencies(c.Request().Context(), lookback)
	if err != nil {
		return apierr.Internal(err)
	}
	return c.JSON(http.StatusOK, deps)
}

func (h *handlers) getTests(c echo.Context) error {
	q := store.TestItemQuery{WithFullPath: true, WithChildren: true, WithTraces: true}
	if v := c.QueryParam("parentId"); v != "" {
		q.ParentID = &v
	}
	views, err := h.querier.GetTestItems(c.Request().Context(), q)
	if err != nil {
		return apierr.Internal(err)
	}
	return c.JSON(http.StatusOK, views)
}

func (h *handlers) getTest(c echo.Context) error {
	id := c.Param("testId")
	if id == "" {
		return apierr.BadRequest("missing testId")
	}
	if id == domain.RootTestItemID {
		return h.getTests(c)
	}
	views, err := h.querier.GetTestItems(c.Request().Context(),
		store.TestItemQuery{ID: &id, WithFullPath: true, WithChildren: true, WithTraces: true})
	if err != nil {
		return apierr.Internal(err)
	}
	if len(views) == 0 {
		return apierr.NotFound("test item not found")
	}
	return c.JSON(http.StatusOK, views[0])
}

func (h *handlers) getTestResults(c echo.Context) error {
	q := store.TestResultQuery{}
	if v := c.QueryParam("testId"); v != "" {
		q.TestID = &v
	}
	if v := c.QueryParam("traceId"); v != "" {
		q.TraceID = &v
	}
	if v := c.QueryParam("environment"); v != "" && v != "None" {
		q.Environment = &v
	}
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return apierr.BadRequest("invalid limit: " + err.Error())
		}
		q.Limit = n
	}
	results, err := h.querier.GetTestResults(c.Request().Context(), q)
	if err != nil {
		return apierr.Internal(err)
	}
	return c.JSON(http.StatusOK, results)
}

func (h *handlers) getEnvironments(c echo.Context) error {
	envs, err := h.querier.GetEnvironments(c.Request().Context())
	if err != nil {
		return apierr.Internal(err)
	}
	return c.JSON(http.StatusOK, envs)
}

func (h *handlers) getReports(c echo.Context) error {
	summaries, err := h.querier.GetReportSummaries(c.Request().Context())
	if err != nil {
		return apierr.Internal(err)
	}
	return c.JSON(http.StatusOK, summaries)
}

func (h *handlers) getReport(c echo.Context) error {
	group, name := c.Param("group"), c.Param("name")
	var env *string
	if v := c.QueryParam("environment"); v != "" && v != "None" {
		env = &v
	}
	detail, found, err := h.querier.GetReport(c.Request().Context(), group, name, env)
	if err != nil {
		return apierr.Internal(err)
	}
	if !found {
		return apierr.NotFound("report not found")
	}
	return c.JSON(http.StatusOK, detail)
}
