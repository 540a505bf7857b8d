package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORSMiddleware(), TraceIDMiddleware())
	r.POST("/graphql", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(TraceIDKey))
	})
	return r
}

func TestTraceIDMiddleware_GeneratesID(t *testing.T) {
	r := newTestRouter()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/graphql", nil)
	r.ServeHTTP(w, req)

	traceID := w.Header().Get(TraceIDHeader)
	assert.NotEmpty(t, traceID)
	assert.Equal(t, traceID, w.Body.String())
}

func TestTraceIDMiddleware_KeepsIncomingID(t *testing.T) {
	r := newTestRouter()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/graphql", nil)
	req.Header.Set(TraceIDHeader, "abc-123")
	r.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get(TraceIDHeader))
	assert.Equal(t, "abc-123", w.Body.String())
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	r := newTestRouter()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/graphql", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
