package monitoring

import (
	"net/http"
	"runtime"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxResponseSamples = 1000

// Metrics holds application metrics. Counters are kept both as in-process
// totals for the /health snapshot and as Prometheus collectors on a
// private registry for /metrics.
type Metrics struct {
	RequestCount        int64
	ErrorCount          int64
	PredictionCount     int64
	PredictionErrors    int64
	AverageResponseTime int64 // in nanoseconds
	StartTime           time.Time

	ResponseTimes      []time.Duration
	ResponseTimesMutex sync.RWMutex

	RequestCountByStatus map[int]int64
	StatusMutex          sync.RWMutex

	PredictionsByBand map[string]int64
	BandMutex         sync.RWMutex

	RateLimitIPBlocks      int64
	RateLimitRedisErrors   int64
	RateLimitFallbackCount int64

	CacheHits   int64
	CacheMisses int64

	registry          *prometheus.Registry
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	predictions       *prometheus.CounterVec
	predictionErrors  *prometheus.CounterVec
	predictedCost     *prometheus.HistogramVec
	rateLimitBlocks   *prometheus.CounterVec
	rateLimitFallback prometheus.Counter
	cacheLookups      *prometheus.CounterVec
}

// NewMetrics creates a metrics instance with its own Prometheus registry
func NewMetrics() *Metrics {
	m := &Metrics{
		StartTime:            time.Now(),
		ResponseTimes:        make([]time.Duration, 0, maxResponseSamples),
		RequestCountByStatus: make(map[int]int64),
		PredictionsByBand:    make(map[string]int64),
		registry:             prometheus.NewRegistry(),

		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "estimator_http_requests_total",
			Help: "Total HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "estimator_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "estimator_predictions_total",
			Help: "Completed predictions by age band",
		}, []string{"band"}),
		predictionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "estimator_prediction_errors_total",
			Help: "Failed predictions by error category",
		}, []string{"category"}),
		predictedCost: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "estimator_predicted_cost_rupees",
			Help:    "Distribution of predicted costs by age band",
			Buckets: prometheus.ExponentialBuckets(1000, 2, 8),
		}, []string{"band"}),
		rateLimitBlocks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "estimator_rate_limit_blocks_total",
			Help: "Requests rejected by the rate limiter by backend",
		}, []string{"backend"}),
		rateLimitFallback: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "estimator_rate_limit_fallback_total",
			Help: "Rate limit checks served by the in-memory limiter after a Redis failure",
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "estimator_prediction_cache_lookups_total",
			Help: "Prediction cache lookups by result",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.predictions,
		m.predictionErrors,
		m.predictedCost,
		m.rateLimitBlocks,
		m.rateLimitFallback,
		m.cacheLookups,
	)

	return m
}

// Registry returns the private Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// IncrementRequest increments the request count
func (m *Metrics) IncrementRequest() {
	atomic.AddInt64(&m.RequestCount, 1)
}

// IncrementError increments the error count
func (m *Metrics) IncrementError() {
	atomic.AddInt64(&m.ErrorCount, 1)
}

// ObserveRequest records a finished HTTP request
func (m *Metrics) ObserveRequest(method, route string, statusCode int, duration time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
	m.RecordResponseTime(duration)
	m.RecordRequestByStatus(statusCode)
}

// RecordPrediction records a successful estimate
func (m *Metrics) RecordPrediction(band string, cost int) {
	atomic.AddInt64(&m.PredictionCount, 1)
	m.predictions.WithLabelValues(band).Inc()
	m.predictedCost.WithLabelValues(band).Observe(float64(cost))

	m.BandMutex.Lock()
	m.PredictionsByBand[band]++
	m.BandMutex.Unlock()
}

// RecordPredictionError records a failed estimate
func (m *Metrics) RecordPredictionError(category string) {
	atomic.AddInt64(&m.PredictionErrors, 1)
	m.predictionErrors.WithLabelValues(category).Inc()
}

// RecordResponseTime records response time for averaging and percentiles
func (m *Metrics) RecordResponseTime(duration time.Duration) {
	current := atomic.LoadInt64(&m.AverageResponseTime)
	newAverage := (current + duration.Nanoseconds()) / 2
	atomic.StoreInt64(&m.AverageResponseTime, newAverage)

	m.ResponseTimesMutex.Lock()
	m.ResponseTimes = append(m.ResponseTimes, duration)
	if len(m.ResponseTimes) > maxResponseSamples {
		m.ResponseTimes = m.ResponseTimes[1:]
	}
	m.ResponseTimesMutex.Unlock()
}

// RecordRequestByStatus records request count by HTTP status code
func (m *Metrics) RecordRequestByStatus(statusCode int) {
	m.StatusMutex.Lock()
	defer m.StatusMutex.Unlock()
	m.RequestCountByStatus[statusCode]++
}

// IncrementRateLimitIPBlock increments IP-based rate limit blocks
func (m *Metrics) IncrementRateLimitIPBlock(backend string) {
	atomic.AddInt64(&m.RateLimitIPBlocks, 1)
	m.rateLimitBlocks.WithLabelValues(backend).Inc()
}

// IncrementRateLimitRedisError increments Redis error count for rate limiting
func (m *Metrics) IncrementRateLimitRedisError() {
	atomic.AddInt64(&m.RateLimitRedisErrors, 1)
}

// IncrementRateLimitFallback increments fallback rate limiter usage count
func (m *Metrics) IncrementRateLimitFallback() {
	atomic.AddInt64(&m.RateLimitFallbackCount, 1)
	m.rateLimitFallback.Inc()
}

// IncrementCacheHit counts a prediction served from cache
func (m *Metrics) IncrementCacheHit() {
	atomic.AddInt64(&m.CacheHits, 1)
	m.cacheLookups.WithLabelValues("hit").Inc()
}

// IncrementCacheMiss counts a prediction that had to be computed
func (m *Metrics) IncrementCacheMiss() {
	atomic.AddInt64(&m.CacheMisses, 1)
	m.cacheLookups.WithLabelValues("miss").Inc()
}

// GetPercentileResponseTime calculates percentile response time
func (m *Metrics) GetPercentileResponseTime(percentile float64) time.Duration {
	m.ResponseTimesMutex.RLock()
	defer m.ResponseTimesMutex.RUnlock()

	if len(m.ResponseTimes) == 0 {
		return 0
	}

	times := make([]time.Duration, len(m.ResponseTimes))
	copy(times, m.ResponseTimes)

	sort.Slice(times, func(i, j int) bool {
		return times[i] < times[j]
	})

	index := int(float64(len(times)-1) * percentile / 100.0)
	if index >= len(times) {
		index = len(times) - 1
	}

	return times[index]
}

// GetStatusCodeDistribution returns request count by status code
func (m *Metrics) GetStatusCodeDistribution() map[int]int64 {
	m.StatusMutex.RLock()
	defer m.StatusMutex.RUnlock()

	distribution := make(map[int]int64, len(m.RequestCountByStatus))
	for code, count := range m.RequestCountByStatus {
		distribution[code] = count
	}
	return distribution
}

// GetPredictionsByBand returns completed predictions per age band
func (m *Metrics) GetPredictionsByBand() map[string]int64 {
	m.BandMutex.RLock()
	defer m.BandMutex.RUnlock()

	bands := make(map[string]int64, len(m.PredictionsByBand))
	for band, count := range m.PredictionsByBand {
		bands[band] = count
	}
	return bands
}

// GetRateLimitStats returns rate limiting statistics
func (m *Metrics) GetRateLimitStats() map[string]interface{} {
	return map[string]interface{}{
		"ip_blocks":      atomic.LoadInt64(&m.RateLimitIPBlocks),
		"redis_errors":   atomic.LoadInt64(&m.RateLimitRedisErrors),
		"fallback_count": atomic.LoadInt64(&m.RateLimitFallbackCount),
	}
}

// GetStats returns current metrics statistics
func (m *Metrics) GetStats() map[string]interface{} {
	requests := atomic.LoadInt64(&m.RequestCount)
	errors := atomic.LoadInt64(&m.ErrorCount)
	avgResponseTime := atomic.LoadInt64(&m.AverageResponseTime)

	errorRate := float64(0)
	if requests > 0 {
		errorRate = float64(errors) / float64(requests) * 100
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return map[string]interface{}{
		"uptime_seconds":       time.Since(m.StartTime).Seconds(),
		"total_requests":       requests,
		"error_count":          errors,
		"error_rate_percent":   errorRate,
		"predictions":          atomic.LoadInt64(&m.PredictionCount),
		"prediction_errors":    atomic.LoadInt64(&m.PredictionErrors),
		"predictions_by_band":  m.GetPredictionsByBand(),
		"avg_response_time_ms": float64(avgResponseTime) / 1e6,
		"start_time":           m.StartTime.Format(time.RFC3339),

		"p50_response_time_ms":     float64(m.GetPercentileResponseTime(50)) / 1e6,
		"p95_response_time_ms":     float64(m.GetPercentileResponseTime(95)) / 1e6,
		"p99_response_time_ms":     float64(m.GetPercentileResponseTime(99)) / 1e6,
		"status_code_distribution": m.GetStatusCodeDistribution(),
		"rate_limit":               m.GetRateLimitStats(),
		"cache_hits":               atomic.LoadInt64(&m.CacheHits),
		"cache_misses":             atomic.LoadInt64(&m.CacheMisses),

		"go_goroutines":       runtime.NumGoroutine(),
		"go_gc_count":         mem.NumGC,
		"go_heap_alloc_bytes": mem.HeapAlloc,
		"go_heap_sys_bytes":   mem.HeapSys,
	}
}
