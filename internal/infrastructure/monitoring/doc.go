/*
Package monitoring provides Prometheus metrics for the supervisor.

# Overview

Metrics cover the stack registry (stack count, task ids handed out, task
moves), every lifecycle fan-out (calls and duration by operation), crash and
death recovery, the shutdown sequencer (per-stack timeouts, drain time),
live activity dumps and the admin HTTP surface.

# Usage

	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)

	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	timer := monitoring.NewTimer(metrics, "schedule_idle")
	// ... fan out ...
	timer.Stop()
*/
package monitoring
