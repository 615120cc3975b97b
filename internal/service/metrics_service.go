package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	pointsAwarded   prometheus.Counter
	setoranCreated  prometheus.Counter
	setoranReviewed *prometheus.CounterVec
	quizAnswers     *prometheus.CounterVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	pointsAwarded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "points_awarded_total",
		Help: "Total points credited to student ledgers",
	})

	setoranCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "setoran_created_total",
		Help: "Total submissions created",
	})

	setoranReviewed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "setoran_reviewed_total",
		Help: "Total submissions reviewed by outcome",
	}, []string{"status"})

	quizAnswers := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quiz_answers_total",
		Help: "Total quiz answers by correctness",
	}, []string{"correct"})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	registry.MustRegister(requestDuration, requestTotal, pointsAwarded, setoranCreated, setoranReviewed, quizAnswers, cacheHits, cacheMisses)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		pointsAwarded:   pointsAwarded,
		setoranCreated:  setoranCreated,
		setoranReviewed: setoranReviewed,
		quizAnswers:     quizAnswers,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveHTTPRequest records request latency and count.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	labels := []string{method, path, strconv.Itoa(status)}
	s.requestDuration.WithLabelValues(labels...).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(labels...).Inc()
}

// RecordPointsAwarded accumulates credited points.
func (s *MetricsService) RecordPointsAwarded(amount int) {
	if amount > 0 {
		s.pointsAwarded.Add(float64(amount))
	}
}

// RecordSetoranCreated counts a new submission.
func (s *MetricsService) RecordSetoranCreated() {
	s.setoranCreated.Inc()
}

// RecordSetoranReviewed counts a review outcome.
func (s *MetricsService) RecordSetoranReviewed(status string) {
	s.setoranReviewed.WithLabelValues(status).Inc()
}

// RecordQuizAnswer counts an answer by correctness.
func (s *MetricsService) RecordQuizAnswer(correct bool) {
	s.quizAnswers.WithLabelValues(strconv.FormatBool(correct)).Inc()
}

// RecordCacheOperation counts cache hit or miss.
func (s *MetricsService) RecordCacheOperation(hit bool) {
	if hit {
		s.cacheHits.Inc()
		return
	}
	s.cacheMisses.Inc()
}
