// Package metrics 以 Prometheus 記錄 HTTP、外部服務、知識庫重建與聊天分派的指標。
package metrics

import (
	"strconv"
	"time"

	"nutribot/internal/core/cache"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "nutribot"

// Collector 指標收集器，使用獨立的 registry
type Collector struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	upstreamRequestsTotal   *prometheus.CounterVec
	upstreamRequestDuration *prometheus.HistogramVec

	reloadsTotal   *prometheus.CounterVec
	reloadDuration prometheus.Histogram
	publishedFoods prometheus.Gauge

	dispatchTotal *prometheus.CounterVec
}

// NewCollector 創建指標收集器
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		upstreamRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_requests_total",
				Help:      "Total number of calls to external services",
			},
			[]string{"service", "operation", "status"},
		),
		upstreamRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "upstream_request_duration_seconds",
				Help:      "External service call duration in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0},
			},
			[]string{"service", "operation"},
		),

		reloadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "knowledge_reloads_total",
				Help:      "Knowledge base rebuilds by outcome",
			},
			[]string{"outcome"},
		),
		reloadDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "knowledge_reload_duration_seconds",
				Help:      "Knowledge base rebuild duration in seconds",
				Buckets:   []float64{1, 5, 10, 20, 30, 45, 60, 90},
			},
		),
		publishedFoods: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "knowledge_published_foods",
				Help:      "Number of foods in the last published generation",
			},
		),

		dispatchTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "chat_dispatch_total",
				Help:      "Chat messages by intent and outcome",
			},
			[]string{"intent", "outcome"},
		),
	}
}

// Registry 底層 registry
func (m *Collector) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveUpstream 記錄外部服務呼叫
func (m *Collector) ObserveUpstream(service, operation string, duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.upstreamRequestsTotal.WithLabelValues(service, operation, status).Inc()
	m.upstreamRequestDuration.WithLabelValues(service, operation).Observe(duration.Seconds())
}

// ObserveReload 記錄知識庫重建
func (m *Collector) ObserveReload(outcome string, duration time.Duration, totalFoods int) {
	m.reloadsTotal.WithLabelValues(outcome).Inc()
	m.reloadDuration.Observe(duration.Seconds())
	if outcome == "success" {
		m.publishedFoods.Set(float64(totalFoods))
	}
}

// ObserveDispatch 記錄聊天分派結果
func (m *Collector) ObserveDispatch(intent, outcome string) {
	m.dispatchTotal.WithLabelValues(intent, outcome).Inc()
}

// RegisterCache 將快取統計以 GaugeFunc 匯出
func (m *Collector) RegisterCache(name string, stats func() cache.Stats) {
	labels := prometheus.Labels{"cache": name}
	m.registry.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "cache_entries",
			Help:        "Current number of cache entries",
			ConstLabels: labels,
		}, func() float64 { return float64(stats().Size) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "cache_hits_total",
			Help:        "Total number of cache hits",
			ConstLabels: labels,
		}, func() float64 { return float64(stats().Hits) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "cache_misses_total",
			Help:        "Total number of cache misses",
			ConstLabels: labels,
		}, func() float64 { return float64(stats().Misses) }),
	)
}

// RegisterCatalogSize 匯出目前載入的知識庫大小
func (m *Collector) RegisterCatalogSize(size func() int) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "catalog_foods",
		Help:      "Number of foods in the currently loaded catalog",
	}, func() float64 { return float64(size()) }))
}

// Middleware HTTP 請求指標中間件
func (m *Collector) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.httpRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// Handler /metrics 端點
func (m *Collector) Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry}))
}
