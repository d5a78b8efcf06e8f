package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockcore/internal/core/apperror"
)

type lineRequest struct {
	Qty int64 `json:"qty" binding:"required,gt=0"`
}

func TestBindJSON_ReportsFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"qty":-1}`))
	c.Request.Header.Set("Content-Type", "application/json")

	var req lineRequest
	assert.False(t, NewBaseHandler().BindJSON(c, &req))
	require.Len(t, c.Errors, 1)

	appErr, ok := apperror.AsAppError(c.Errors.Last().Err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
	assert.Equal(t, "gt=0", appErr.Details["qty"])
	assert.True(t, c.IsAborted())
}

func TestJSONField(t *testing.T) {
	assert.Equal(t, "items[0].qty", jsonField("CheckoutRequest.Items[0].Qty"))
	assert.Equal(t, "qty", jsonField("Qty"))
}
