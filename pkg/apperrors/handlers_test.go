package apperrors

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func handleWith(t *testing.T, debug bool, err error) (*httptest.ResponseRecorder, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	h := &GinErrorHandler{Debug: debug}
	h.HandleGinError(c, err)
	return rec, rec.Body.String()
}

func TestHandleGinErrorHidesInternalDetail(t *testing.T) {
	rec, body := handleWith(t, false, errors.New("pq: connection refused on 10.0.0.5"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, body, "Internal server error")
	assert.NotContains(t, body, "10.0.0.5")
}

func TestHandleGinErrorDebugPassesDetail(t *testing.T) {
	rec, body := handleWith(t, true, errors.New("pq: connection refused on 10.0.0.5"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, body, "10.0.0.5")
}

func TestHandleGinErrorKeepsClientErrorsVerbatim(t *testing.T) {
	rec, body := handleWith(t, false, NewBadRequestError("Missing plan id"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body, "Missing plan id")
}

func TestSetDebugTogglesDefaultHandler(t *testing.T) {
	SetDebug(true)
	require.True(t, defaultHandler.Debug)
	SetDebug(false)
	require.False(t, defaultHandler.Debug)
}
