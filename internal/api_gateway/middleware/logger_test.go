package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestLoggerMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func(buf *bytes.Buffer) *gin.Engine {
		testLogger := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
		router := gin.New()
		router.Use(CorrelationID())
		router.Use(Logger(testLogger))
		router.GET("/accounts/:id", func(c *gin.Context) {
			c.String(http.StatusOK, "OK")
		})
		router.POST("/fail", func(c *gin.Context) {
			_ = c.Error(assert.AnError)
			c.Status(http.StatusInternalServerError)
		})
		router.GET("/missing", func(c *gin.Context) {
			c.Status(http.StatusNotFound)
		})
		return router
	}

	t.Run("LogsRequestDetails", func(t *testing.T) {
		var logBuffer bytes.Buffer
		router := newRouter(&logBuffer)

		req, _ := http.NewRequest(http.MethodGet, "/accounts/1000000001?verbose=1", nil)
		req.Header.Set("User-Agent", "test-agent")
		testCorrelationID := uuid.New().String()
		req.Header.Set(CorrelationIDHeader, testCorrelationID)

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		logOutput := logBuffer.String()
		assert.Contains(t, logOutput, `"level":"INFO"`)
		assert.Contains(t, logOutput, `"msg":"HTTP request"`)
		assert.Contains(t, logOutput, `"method":"GET"`)
		assert.Contains(t, logOutput, `"path":"/accounts/1000000001?verbose=1"`)
		assert.Contains(t, logOutput, `"route":"/accounts/:id"`)
		assert.Contains(t, logOutput, `"status":200`)
		assert.Contains(t, logOutput, `"latency":`)
		assert.Contains(t, logOutput, `"user_agent":"test-agent"`)
		assert.Contains(t, logOutput, `"correlation_id":"`+testCorrelationID+`"`)
	})

	t.Run("ServerErrorsLogAtErrorLevel", func(t *testing.T) {
		var logBuffer bytes.Buffer
		router := newRouter(&logBuffer)

		req, _ := http.NewRequest(http.MethodPost, "/fail", nil)
		router.ServeHTTP(httptest.NewRecorder(), req)

		logOutput := logBuffer.String()
		assert.Contains(t, logOutput, `"level":"ERROR"`)
		assert.Contains(t, logOutput, `"status":500`)
		assert.Contains(t, logOutput, `"errors":`)
	})

	t.Run("ClientErrorsLogAtWarnLevel", func(t *testing.T) {
		var logBuffer bytes.Buffer
		router := newRouter(&logBuffer)

		req, _ := http.NewRequest(http.MethodGet, "/missing", nil)
		router.ServeHTTP(httptest.NewRecorder(), req)

		assert.Contains(t, logBuffer.String(), `"level":"WARN"`)
	})
}
