package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 15, 60},
		},
		[]string{"method", "endpoint"},
	)

	// outcome: ok / repaired / fallback / timeout
	QuizGenerationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fypquiz_quiz_generations_total",
			Help: "Quiz generation attempts by outcome",
		},
		[]string{"outcome"},
	)

	QuizGenerationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fypquiz_quiz_generation_seconds",
			Help:    "Wall time of quiz generation including repair",
			Buckets: []float64{1, 2, 5, 10, 20, 40, 60},
		},
	)

	// kind: pdf / docx / text / video
	ExtractionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fypquiz_extractions_total",
			Help: "Content extractions by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	NarrationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fypquiz_narrations_total",
			Help: "Per-question narration synthesis by outcome",
		},
		[]string{"outcome"},
	)

	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "fypquiz_session_streams",
			Help: "Open quiz session event streams",
		},
	)

	CompletedSessions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fypquiz_sessions_completed_total",
			Help: "Quiz sessions played to completion",
		},
	)
)

var registerOnce sync.Once

func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			QuizGenerationCounter,
			QuizGenerationDuration,
			ExtractionCounter,
			NarrationCounter,
			ActiveSessions,
			CompletedSessions,
		)
	})
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		RequestCounter.WithLabelValues(
			c.Request.Method,
			endpoint,
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			endpoint,
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
