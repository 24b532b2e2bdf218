package httpmw

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/arc-self/apps/trace-insights/internal/apierr"
)

// errorBody matches the wire shape every error response carries:
// {"error": kind, "msg": message}.
type errorBody struct {
	Error string `json:"error"`
	Msg   string `json:"msg"`
}

func mapError(err error, requestID string, log *zap.Logger) (int, errorBody) {
	var apiErr *apierr.Error
	if errors.As(err, &apiErr) {
		if apiErr.Kind == apierr.KindInternal {
			apiErr.ID = requestID
			log.Error("internal error", zap.String("requestId", requestID), zap.Error(apiErr.Cause))
		}
		return apiErr.HTTPStatus(), errorBody{Error: apiErr.Name(), Msg: apiErr.Message}
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg, _ := he.Message.(string)
		if msg == "" {
			msg = http.StatusText(he.Code)
		}
		return he.Code, errorBody{Error: "BadRequest", Msg: msg}
	}

	log.Error("unhandled error", zap.String("requestId", requestID), zap.Error(err))
	return http.StatusInternalServerError, errorBody{Error: "InternalError", Msg: "internal error"}
}
