package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gemstone-market/identity/domain"
	"github.com/gemstone-market/identity/internal/logging"
	"github.com/gemstone-market/identity/internal/metrics"
)

func TestRequestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var logs bytes.Buffer
	m := metrics.New()

	var seen *domain.ClientContext
	r := gin.New()
	r.Use(RequestLogger(logging.NewWithWriter(&logs, "info", "json")), Metrics(m), ClientContext())
	r.GET("/ping/:id", func(c *gin.Context) {
		seen = domain.ClientContextFrom(c.Request.Context())
		c.Status(http.StatusTeapot)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping/1", nil)
	req.Header.Set("User-Agent", "gem-test/1.0")
	req.Header.Set(RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))

	require.NotNil(t, seen)
	assert.Equal(t, "gem-test/1.0", seen.UserAgent)
	assert.NotEmpty(t, seen.IPAddress)

	assert.Contains(t, logs.String(), `"request_id":"req-123"`)
	assert.Contains(t, logs.String(), `"status":418`)
	assert.Contains(t, logs.String(), `"level":"warn"`)

	count, err := testutil.GatherAndCount(m.Registry(), "identity_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRequestLogger_GeneratesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var logs bytes.Buffer
	r := gin.New()
	r.Use(RequestLogger(logging.NewWithWriter(&logs, "info", "json")))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)
}
