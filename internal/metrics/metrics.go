// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the interface handlers use to record events.
type Recorder interface {
	RecordLogin(success bool)
	RecordLinkCreated()
	RecordLinkCreateFailure(reason string)
	RecordHTTPStatus(statusCode int)
	RecordRequestDuration(d time.Duration)
}

// Collector is the Prometheus-backed Recorder implementation.
type Collector struct {
	loginSuccess    prometheus.Counter
	loginFailure    prometheus.Counter
	linksCreated    prometheus.Counter
	linkCreateFails *prometheus.CounterVec
	httpStatus      *prometheus.CounterVec
	requestDuration prometheus.Histogram
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		loginSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "paylinks_login_success_total",
			Help: "Total successful logins.",
		}),
		loginFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "paylinks_login_failure_total",
			Help: "Total failed login attempts.",
		}),
		linksCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "paylinks_links_created_total",
			Help: "Total payment links created.",
		}),
		linkCreateFails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "paylinks_link_create_failures_total",
			Help: "Total payment link creation failures by reason.",
		}, []string{"reason"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "paylinks_http_status_total",
			Help: "Responses by HTTP status code.",
		}, []string{"status_code"}),
		requestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "paylinks_request_duration_seconds",
			Help:    "Request handling latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.loginSuccess,
		c.loginFailure,
		c.linksCreated,
		c.linkCreateFails,
		c.httpStatus,
		c.requestDuration,
	)

	return c
}

func (c *Collector) RecordLogin(success bool) {
	if success {
		c.loginSuccess.Inc()
		return
	}
	c.loginFailure.Inc()
}

func (c *Collector) RecordLinkCreated() {
	c.linksCreated.Inc()
}

func (c *Collector) RecordLinkCreateFailure(reason string) {
	c.linkCreateFails.WithLabelValues(reason).Inc()
}

func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

func (c *Collector) RecordRequestDuration(d time.Duration) {
	c.requestDuration.Observe(d.Seconds())
}

// Handler returns the scrape endpoint for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
