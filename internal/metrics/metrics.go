// Package metrics exposes Prometheus collectors describing scan activity.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pagewatch"

// Recorder owns a registry and the collectors registered on it.
type Recorder struct {
	Registry *prometheus.Registry

	ChecksTotal       *prometheus.CounterVec
	FetchDuration     prometheus.Histogram
	ScansTotal        prometheus.Counter
	MonitoredWebsites prometheus.Gauge
	LastScan          prometheus.Gauge
}

// New registers all collectors on a fresh registry, together with the
// standard Go and process collectors.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Recorder{
		Registry: reg,
		ChecksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "checks_total",
				Help:      "Total number of website checks by outcome.",
			},
			[]string{"outcome"},
		),
		FetchDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "fetch_duration_seconds",
				Help:      "Duration of page fetches.",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
		),
		ScansTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "scans_total",
				Help:      "Total number of completed scan runs.",
			},
		),
		MonitoredWebsites: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "monitored_websites",
				Help:      "Number of websites currently monitored.",
			},
		),
		LastScan: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_scan_timestamp_seconds",
				Help:      "Unix time at which the last scan run finished.",
			},
		),
	}
}

// ObserveCheck records one URL check.
func (r *Recorder) ObserveCheck(outcome string, fetch time.Duration) {
	if r == nil {
		return
	}
	r.ChecksTotal.WithLabelValues(outcome).Inc()
	r.FetchDuration.Observe(fetch.Seconds())
}

// ObserveScan records a finished run over websites URLs.
func (r *Recorder) ObserveScan(websites int, finished time.Time) {
	if r == nil {
		return
	}
	r.ScansTotal.Inc()
	r.MonitoredWebsites.Set(float64(websites))
	r.LastScan.Set(float64(finished.Unix()))
}

// SetMonitored updates the monitored websites gauge.
func (r *Recorder) SetMonitored(websites int) {
	if r == nil {
		return
	}
	r.MonitoredWebsites.Set(float64(websites))
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.Registry, promhttp.HandlerOpts{Registry: r.Registry})
}
