package metrics

import (
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	reg *prometheus.Registry

	UnitsRunning prometheus.Gauge

	PollsTotal     prometheus.Counter
	PollFailures   *prometheus.CounterVec // reason label: auth_expired|transport
	TokenRefreshes prometheus.Counter

	ScanSampleFailures prometheus.Counter

	NATSPublished   prometheus.Counter
	NATSPublishErrs prometheus.Counter
	NATSConnected   prometheus.Gauge

	PollDuration    prometheus.Histogram
	ScanDuration    prometheus.Histogram
	PublishDuration prometheus.Histogram

	PollInterval prometheus.Gauge // seconds
}

func NewCollector(pollInterval time.Duration) *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		UnitsRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_units_running",
			Help: "Number of polling units (trackers and window scanners) running.",
		}),
		PollsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_polls_total",
			Help: "Total tracker poll cycles executed.",
		}),
		PollFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracker_poll_failures_total",
			Help: "Poll cycles that hit an upstream failure.",
		}, []string{"reason"}),
		TokenRefreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_token_refreshes_total",
			Help: "Total credential refreshes triggered by expired tokens.",
		}),
		ScanSampleFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_scan_sample_failures_total",
			Help: "Window scan samples skipped due to query failures.",
		}),
		NATSPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_nats_published_total",
			Help: "Total NATS messages published.",
		}),
		NATSPublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_nats_publish_errors_total",
			Help: "Total NATS publish errors.",
		}),
		NATSConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_nats_connected",
			Help: "1 if NATS connection is established, 0 otherwise.",
		}),
		PollDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tracker_poll_duration_seconds",
			Help:    "Duration of one tracker poll cycle.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		ScanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tracker_scan_duration_seconds",
			Help:    "Duration of one full window scan.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		PublishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tracker_publish_duration_seconds",
			Help:    "Duration to marshal and publish a NATS message.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 15),
		}),
		PollInterval: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_poll_interval_seconds",
			Help: "Configured poll interval in seconds.",
		}),
	}

	reg.MustRegister(
		c.UnitsRunning,
		c.PollsTotal, c.PollFailures, c.TokenRefreshes,
		c.ScanSampleFailures,
		c.NATSPublished, c.NATSPublishErrs, c.NATSConnected,
		c.PollDuration, c.ScanDuration, c.PublishDuration,
		c.PollInterval,
	)

	c.PollInterval.Set(pollInterval.Seconds())

	return c
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

// Serve starts an HTTP server exposing /metrics on the given address.
func (c *Collector) Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server error: %v", err)
		}
	}()
	log.Printf("metrics listening on %s", addr)
	return srv
}
