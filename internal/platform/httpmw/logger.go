package httpmw

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// RequestLogger mirrors abc-service's zap-backed RequestLoggerWithConfig:
// one structured log line per request, URI plus status.
func RequestLogger(log *zap.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			log.Info("http request",
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("requestId", c.Response().Header().Get(echo.HeaderXRequestID)),
			)
			return nil
		},
	})
}

// ErrorHandler maps apierr.Error (and anything else) to a JSON body and
// status. X-Request-Id is already set by the RequestID middleware before
// the handler chain ran; internal errors reuse that same value as the
// correlation id logged server-side and echoed to the caller.
func ErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		requestID := c.Response().Header().Get(echo.HeaderXRequestID)
		status, body := mapError(err, requestID, log)
		if jsonErr := c.JSON(status, body); jsonErr != nil {
			log.Error("failed writing error response", zap.Error(jsonErr))
		}
	}
}
