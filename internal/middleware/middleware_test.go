package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/dirk.krummacker/contacts-api/internal/requestid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// newRouter builds an engine with the given middleware and a /ping route that answers with the
// request id it sees in its context.
func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(handlers...)
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, requestid.FromContext(c.Request.Context()))
	})
	router.GET("/panic", func(c *gin.Context) {
		panic("secret internals")
	})
	return router
}

func serve(router *gin.Engine, path string, header http.Header) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	request, _ := http.NewRequest(http.MethodGet, path, nil)
	for k, vs := range header {
		for _, v := range vs {
			request.Header.Add(k, v)
		}
	}
	request.RemoteAddr = "192.0.2.1:1234"
	router.ServeHTTP(recorder, request)
	return recorder
}

func TestRequestIDGenerated(t *testing.T) {
	recorder := serve(newRouter(RequestID()), "/ping", nil)

	id := recorder.Header().Get(RequestIDHeader)
	assert.Len(t, id, 36)
	assert.Equal(t, id, recorder.Body.String())
}

func TestRequestIDEchoed(t *testing.T) {
	header := http.Header{RequestIDHeader: []string{"abc-123"}}
	recorder := serve(newRouter(RequestID()), "/ping", header)

	assert.Equal(t, "abc-123", recorder.Header().Get(RequestIDHeader))
	assert.Equal(t, "abc-123", recorder.Body.String())
}

// TestRecovery expects a generic 500 response while the panic is logged.
func TestRecovery(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	recorder := serve(newRouter(RequestID(), Recovery(zap.New(core))), "/panic", nil)

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.JSONEq(t, `{"message":"Internal Server Error"}`, recorder.Body.String())
	assert.NotContains(t, recorder.Body.String(), "secret")
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "panic recovered", entry.Message)
	assert.Equal(t, "secret internals", entry.ContextMap()["panic"])
}

func TestAccessLog(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	header := http.Header{RequestIDHeader: []string{"abc-123"}}
	serve(newRouter(RequestID(), AccessLog(zap.New(core))), "/ping?x=1", header)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, "/ping?x=1", fields["path"])
	assert.Equal(t, int64(http.StatusOK), fields["status"])
	assert.Equal(t, "abc-123", fields["request_id"])
}

// TestRateLimit expects that the request exceeding the burst is rejected with a hint when to
// retry.
func TestRateLimit(t *testing.T) {
	router := newRouter(RateLimit(NewLimiters(1, 2, time.Minute)))

	assert.Equal(t, http.StatusOK, serve(router, "/ping", nil).Code)
	assert.Equal(t, http.StatusOK, serve(router, "/ping", nil).Code)
	recorder := serve(router, "/ping", nil)

	assert.Equal(t, http.StatusTooManyRequests, recorder.Code)
	assert.Equal(t, "1", recorder.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"message":"too many requests"}`, recorder.Body.String())
}

func TestRateLimitDisabled(t *testing.T) {
	router := newRouter(RateLimit(nil))
	for i := 0; i < 50; i++ {
		require.Equal(t, http.StatusOK, serve(router, "/ping", nil).Code)
	}
}

func TestLimitersCleanup(t *testing.T) {
	now := time.Date(2026, time.October, 14, 12, 0, 0, 0, time.UTC)
	limiters := NewLimiters(1, 1, time.Minute)
	limiters.now = func() time.Time { return now }

	first := limiters.Get("a")
	limiters.Get("b")
	assert.Same(t, first, limiters.Get("a"))
	assert.Equal(t, 2, limiters.Len())

	now = now.Add(30 * time.Second)
	limiters.Get("a")
	now = now.Add(45 * time.Second)
	limiters.Cleanup()

	assert.Equal(t, 1, limiters.Len())
	assert.Same(t, first, limiters.Get("a"))
}
