package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	storyRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storyledger_requests_total",
		Help: "Total HTTP requests by method, path, and response status.",
	}, []string{"method", "path", "status"})

	storyRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storyledger_request_duration_seconds",
		Help:    "Request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	storyWordsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storyledger_words_appended_total",
		Help: "Total words admitted into chapter ledgers.",
	})

	storyChaptersGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "storyledger_chapters_total",
		Help: "Number of chapters known to the service.",
	})

	storyNotifyDeliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storyledger_notify_deliveries_total",
		Help: "Total append-notification deliveries by success status.",
	}, []string{"status"})
)

// PrometheusMiddleware returns a Gin middleware that records per-request metrics.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		storyRequestsTotal.WithLabelValues(method, path, status).Inc()
		storyRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}

// MetricsHandler returns a Gin handler that serves Prometheus metrics.
func MetricsHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// RecordWordAppend records one admitted word.
func RecordWordAppend() {
	storyWordsTotal.Inc()
}

// SetChaptersGauge sets the chapter count gauge.
func SetChaptersGauge(count float64) {
	storyChaptersGauge.Set(count)
}

// RecordNotifyDelivery records an append-notification delivery attempt.
func RecordNotifyDelivery(success bool) {
	if success {
		storyNotifyDeliveriesTotal.WithLabelValues("success").Inc()
	} else {
		storyNotifyDeliveriesTotal.WithLabelValues("failure").Inc()
	}
}
