package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewMetricsOnSeparateRegistries(t *testing.T) {
	// Registering twice on distinct registries must not panic.
	m1 := NewMetrics(prometheus.NewRegistry())
	m2 := NewMetrics(prometheus.NewRegistry())

	m1.SetStacks(3)
	m2.SetStacks(1)

	assert.Equal(t, 3.0, testutil.ToFloat64(m1.Stacks))
	assert.Equal(t, 1.0, testutil.ToFloat64(m2.Stacks))
}

func TestTimerRecordsFanOut(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	timer := NewTimer(m, "schedule_idle")
	time.Sleep(time.Millisecond)
	d := timer.Stop()

	assert.Greater(t, d, time.Duration(0))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FanOutCalls.WithLabelValues("schedule_idle")))
}

func TestTimerWithoutMetrics(t *testing.T) {
	timer := NewTimer(nil, "resume_top")
	assert.NotPanics(t, func() { timer.Stop() })
}

func TestMiddlewareUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics(prometheus.NewRegistry())

	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/stacks/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for _, path := range []string{"/stacks/1", "/stacks/2"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/stacks/:id", "204")))
}
