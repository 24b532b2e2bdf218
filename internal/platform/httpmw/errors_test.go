package httpmw

import (
	"errors"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/arc-self/apps/trace-insights/internal/apierr"
)

func TestMapError_ApiErrKinds(t *testing.T) {
	log := zap.NewNop()

	status, body := mapError(apierr.NotFound("test not found"), "req-1", log)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, errorBody{Error: "NotFound", Msg: "test not found"}, body)

	status, body = mapError(apierr.BadRequest("bad payload"), "req-2", log)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, errorBody{Error: "BadRequest", Msg: "bad payload"}, body)

	status, body = mapError(apierr.Internal(errors.New("disk full")), "req-3", log)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, errorBody{Error: "InternalError", Msg: "internal error"}, body)
}

func TestMapError_EchoHTTPError(t *testing.T) {
	log := zap.NewNop()
	status, body := mapError(echo.NewHTTPError(http.StatusBadRequest, "bad query param"), "req-4", log)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, errorBody{Error: "BadRequest", Msg: "bad query param"}, body)
}

func TestMapError_UnknownError(t *testing.T) {
	log := zap.NewNop()
	status, body := mapError(errors.New("whatever"), "req-5", log)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, errorBody{Error: "InternalError", Msg: "internal error"}, body)
}
