// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "educontrol_http_requests_total",
		Help: "HTTP requests by route, method and status code.",
	}, []string{"route", "method", "code"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "educontrol_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	AttendanceRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "educontrol_attendance_records_saved_total",
		Help: "Attendance records written, by status.",
	}, []string{"status"})

	ScoreUpdates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "educontrol_score_updates_total",
		Help: "Academic score updates.",
	})

	AIJobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "educontrol_ai_jobs_total",
		Help: "Finished AI jobs by kind and final state.",
	}, []string{"kind", "state"})

	AIJobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "educontrol_ai_job_duration_seconds",
		Help:    "Time spent waiting on the text generation service.",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 60},
	}, []string{"kind"})

	AIQueueWait = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "educontrol_ai_queue_wait_seconds",
		Help:    "Time an AI job id spent queued before a runner picked it up.",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
	})
)

// Gin records request counts and latency keyed by the matched route pattern.
func Gin() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		HTTPRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}
