package apierr

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, Internal(errors.New("boom")).HTTPStatus())
	assert.Equal(t, http.StatusBadRequest, BadRequest("bad").HTTPStatus())
	assert.Equal(t, http.StatusNotFound, NotFound("missing").HTTPStatus())
}

func TestName(t *testing.T) {
	assert.Equal(t, "InternalError", Internal(errors.New("boom")).Name())
	assert.Equal(t, "BadRequest", BadRequest("bad").Name())
	assert.Equal(t, "NotFound", NotFound("missing").Name())
}

func TestInternal_DoesNotMintItsOwnID(t *testing.T) {
	err := Internal(errors.New("boom"))
	assert.Empty(t, err.ID, "ID must be filled in by the HTTP layer from X-Request-Id, not generated here")
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := Internal(cause)
	assert.ErrorIs(t, err, cause)
}

func TestError_MessageIncludesCause(t *testing.T) {
	err := Internal(errors.New("disk full"))
	assert.Contains(t, err.Error(), "disk full")

	bad := BadRequest("missing field x")
	assert.Equal(t, "missing field x", bad.Error())
}
