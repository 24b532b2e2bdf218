// Package httpapi wires every endpoint of §6 onto an Echo router.
package httpapi

import (
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.uber.org/zap"

	"github.com/arc-self/apps/trace-insights/internal/ingest"
	"github.com/arc-self/apps/trace-insights/internal/platform/httpmw"
	"github.com/arc-self/apps/trace-insights/internal/store"
)

const serviceName = "trace-insights"

// StartTime is recorded once at process start for /healthcheck.
var StartTime = time.Now()

// BuildInfo is overridable at link time (-ldflags "-X ...BuildInfo=...");
// it defaults to "dev".
var BuildInfo = "dev"

type Server struct {
	echo *echo.Echo
}

type Deps struct {
	Querier  store.Querier
	Ingestor *ingest.Ingestor
	Scripts  ScriptRegistry
	Log      *zap.Logger
}

func New(d Deps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = httpmw.ErrorHandler(d.Log)

	e.Use(otelecho.Middleware(serviceName))
	e.Use(httpmw.RequestID())
	e.Use(httpmw.RequestLogger(d.Log))
	e.Use(echomw.Recover())
	e.Use(httpmw.NullToEmptyArray())

	h := &handlers{querier: d.Querier, ingestor: d.Ingestor, scripts: d.Scripts, log: d.Log}
	h.register(e)

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return &Server{echo: e}
}

func (s *Server) Echo() *echo.Echo { return s.echo }
