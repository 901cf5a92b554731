package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the shop's Prometheus collectors. A nil *Metrics is a valid no-op.
type Metrics struct {
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	sales        *prometheus.CounterVec
	revenue      prometheus.Counter
	itemsAdded   prometheus.Counter
	uploads      *prometheus.CounterVec
	reportCache  *prometheus.CounterVec
}

// New registers the collectors on reg. A nil registerer yields a no-op value.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	m := &Metrics{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		sales: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pos_sales_total",
			Help: "Checkout outcomes.",
		}, []string{"outcome"}),
		revenue: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pos_sales_revenue_total",
			Help: "Sum of completed sale totals.",
		}),
		itemsAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "inventory_items_added_total",
			Help: "Physical items added to inventory.",
		}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "inventory_image_uploads_total",
			Help: "Item image uploads by result.",
		}, []string{"result"}),
		reportCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "report_cache_lookups_total",
			Help: "Report cache lookups by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.httpRequests, m.httpDuration, m.sales, m.revenue, m.itemsAdded, m.uploads, m.reportCache)
	return m
}

func (m *Metrics) ObserveHTTP(method, route string, status int, took time.Duration) {
	if m == nil || m.httpRequests == nil {
		return
	}
	route = normalizeLabel(route)
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(took.Seconds())
}

func (m *Metrics) SaleCompleted(total float64) {
	if m == nil || m.sales == nil {
		return
	}
	m.sales.WithLabelValues("completed").Inc()
	m.revenue.Add(total)
}

func (m *Metrics) SaleRejected() {
	if m == nil || m.sales == nil {
		return
	}
	m.sales.WithLabelValues("rejected").Inc()
}

func (m *Metrics) SaleReversed() {
	if m == nil || m.sales == nil {
		return
	}
	m.sales.WithLabelValues("reversed").Inc()
}

func (m *Metrics) ItemsAdded(n int) {
	if m == nil || m.itemsAdded == nil || n < 1 {
		return
	}
	m.itemsAdded.Add(float64(n))
}

func (m *Metrics) ImageUpload(ok bool) {
	if m == nil || m.uploads == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.uploads.WithLabelValues(result).Inc()
}

func (m *Metrics) ReportCache(hit bool) {
	if m == nil || m.reportCache == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.reportCache.WithLabelValues(result).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
