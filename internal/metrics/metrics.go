// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the metrics surface used by services, handlers and the email worker.
type Recorder interface {
	RecordAuthEvent(event, outcome string)
	RecordListingMutation(op string)
	RecordCacheLookup(hit bool)
	RecordImageCleanup(deleted, failed int)
	RecordEmailJob(outcome string)
	RecordHTTPRequest(method, route string, status int, d time.Duration)
}

// Collector is the Prometheus implementation of Recorder.
type Collector struct {
	authEvents       *prometheus.CounterVec
	listingMutations *prometheus.CounterVec
	cacheLookups     *prometheus.CounterVec
	imageCleanup     *prometheus.CounterVec
	emailJobs        *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpLatency      *prometheus.HistogramVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		authEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bikeresale_auth_events_total",
			Help: "Auth state machine transitions by event and outcome.",
		}, []string{"event", "outcome"}),
		listingMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bikeresale_listing_mutations_total",
			Help: "Successful listing create/update/delete operations.",
		}, []string{"op"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bikeresale_listing_cache_lookups_total",
			Help: "Listing page cache lookups by result.",
		}, []string{"result"}),
		imageCleanup: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bikeresale_image_cleanup_total",
			Help: "Best-effort image deletions by result.",
		}, []string{"result"}),
		emailJobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bikeresale_email_jobs_total",
			Help: "Queued email jobs settled by the worker, by outcome.",
		}, []string{"outcome"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bikeresale_http_requests_total",
			Help: "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status_code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bikeresale_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		c.authEvents,
		c.listingMutations,
		c.cacheLookups,
		c.imageCleanup,
		c.emailJobs,
		c.httpRequests,
		c.httpLatency,
	)
	return c
}

func (c *Collector) RecordAuthEvent(event, outcome string) {
	c.authEvents.WithLabelValues(event, outcome).Inc()
}

func (c *Collector) RecordListingMutation(op string) {
	c.listingMutations.WithLabelValues(op).Inc()
}

func (c *Collector) RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	c.cacheLookups.WithLabelValues(result).Inc()
}

func (c *Collector) RecordImageCleanup(deleted, failed int) {
	c.imageCleanup.WithLabelValues("deleted").Add(float64(deleted))
	c.imageCleanup.WithLabelValues("failed").Add(float64(failed))
}

func (c *Collector) RecordEmailJob(outcome string) {
	c.emailJobs.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordHTTPRequest(method, route string, status int, d time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpLatency.WithLabelValues(method, route).Observe(d.Seconds())
}

// Handler returns the Prometheus scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards every measurement.
type Nop struct{}

func (Nop) RecordAuthEvent(string, string)                       {}
func (Nop) RecordListingMutation(string)                         {}
func (Nop) RecordCacheLookup(bool)                               {}
func (Nop) RecordImageCleanup(int, int)                          {}
func (Nop) RecordEmailJob(string)                                {}
func (Nop) RecordHTTPRequest(string, string, int, time.Duration) {}
