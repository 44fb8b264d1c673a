package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware creates a Gin middleware for metrics collection. Paths are
// recorded by route template so ids do not explode label cardinality.
func Middleware(metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.RecordHTTPRequest(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}

// Timer measures a fan-out operation.
type Timer struct {
	start     time.Time
	metrics   *Metrics
	operation string
}

// NewTimer starts timing operation. A nil metrics receiver yields a timer
// whose Stop is a no-op.
func NewTimer(metrics *Metrics, operation string) *Timer {
	return &Timer{
		start:     time.Now(),
		metrics:   metrics,
		operation: operation,
	}
}

// Stop records the elapsed time.
func (t *Timer) Stop() time.Duration {
	d := time.Since(t.start)
	if t.metrics != nil {
		t.metrics.RecordFanOut(t.operation, d)
	}
	return d
}
