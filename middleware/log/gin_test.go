package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gopher0727/StudyRoom/config"
)

func newTestLogger(t *testing.T) *Logger {
	t.Helper()
	l, err := NewLogger(&config.LoggingConfig{Level: "info", Format: "json", Output: "stdout"})
	require.NoError(t, err)
	return l
}

func TestGinMiddleware_AssignsTraceID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware(newTestLogger(t)))

	var seenTraceID string
	r.GET("/ping", func(c *gin.Context) {
		seenTraceID = GetTraceID(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"pong": true})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, seenTraceID)
	// Trace ID is echoed back so clients can report it
	assert.Equal(t, seenTraceID, w.Header().Get("X-Trace-ID"))
}

func TestGinMiddleware_HonorsIncomingTraceID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware(newTestLogger(t)))

	var seenTraceID string
	r.GET("/ping", func(c *gin.Context) {
		seenTraceID = GetTraceID(c.Request.Context())
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Trace-ID", "caller-supplied-id")
	r.ServeHTTP(w, req)

	assert.Equal(t, "caller-supplied-id", seenTraceID)
	assert.Equal(t, "caller-supplied-id", w.Header().Get("X-Trace-ID"))
}
