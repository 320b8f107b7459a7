package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/a2developers/website/backend/go-services/pkg/metrics"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimitMiddleware_AllowsUnderLimit(t *testing.T) {
	before := testutil.ToFloat64(metrics.RateLimitAllowed.WithLabelValues("memory"))

	r := gin.New()
	r.Use(RateLimitMiddleware(10, 2))
	r.GET("/ok", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	require.Equal(t, http.StatusOK, serve(r, httptest.NewRequest("GET", "/ok", nil)).Code)
	require.Equal(t, http.StatusOK, serve(r, httptest.NewRequest("GET", "/ok", nil)).Code)
	require.Equal(t, before+2, testutil.ToFloat64(metrics.RateLimitAllowed.WithLabelValues("memory")))
}

func TestRateLimitMiddleware_BlocksWhenExceeded(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitMiddleware(2, 1))
	r.GET("/limited", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	require.Equal(t, http.StatusOK, serve(r, httptest.NewRequest("GET", "/limited", nil)).Code)

	w := serve(r, httptest.NewRequest("GET", "/limited", nil))
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.JSONEq(t, `{"error":"Rate limit exceeded"}`, w.Body.String())
	require.Equal(t, "1", w.Header().Get("Retry-After"))

	// 2 rps refills a token in 500ms
	time.Sleep(600 * time.Millisecond)
	require.Equal(t, http.StatusOK, serve(r, httptest.NewRequest("GET", "/limited", nil)).Code)
}

func TestRateLimitMiddleware_KeysByClientIP(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitMiddleware(0.01, 1))
	r.GET("/ip", func(c *gin.Context) { c.Status(http.StatusOK) })

	a := httptest.NewRequest("GET", "/ip", nil)
	a.RemoteAddr = "10.0.0.1:1234"
	b := httptest.NewRequest("GET", "/ip", nil)
	b.RemoteAddr = "10.0.0.2:1234"

	require.Equal(t, http.StatusOK, serve(r, a).Code)
	require.Equal(t, http.StatusOK, serve(r, b).Code)

	again := httptest.NewRequest("GET", "/ip", nil)
	again.RemoteAddr = "10.0.0.1:5678"
	require.Equal(t, http.StatusTooManyRequests, serve(r, again).Code)
}

func TestRateLimitMiddleware_UsesSubjectWhenPresent(t *testing.T) {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(CtxClaims, map[string]interface{}{"sub": "admin-1"})
		c.Next()
	})
	r.Use(RateLimitMiddleware(0.01, 1))
	r.GET("/u", func(c *gin.Context) { c.Status(http.StatusOK) })

	require.Equal(t, http.StatusOK, serve(r, httptest.NewRequest("GET", "/u", nil)).Code)
	require.Equal(t, http.StatusTooManyRequests, serve(r, httptest.NewRequest("GET", "/u", nil)).Code)
}

func TestRateLimitMiddleware_InstancesDoNotShareBudget(t *testing.T) {
	r := gin.New()
	r.GET("/a", RateLimitMiddleware(0.01, 1), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/b", RateLimitMiddleware(0.01, 1), func(c *gin.Context) { c.Status(http.StatusOK) })

	require.Equal(t, http.StatusOK, serve(r, httptest.NewRequest("GET", "/a", nil)).Code)
	require.Equal(t, http.StatusOK, serve(r, httptest.NewRequest("GET", "/b", nil)).Code)
	require.Equal(t, http.StatusTooManyRequests, serve(r, httptest.NewRequest("GET", "/a", nil)).Code)
}
