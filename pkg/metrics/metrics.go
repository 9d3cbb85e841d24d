// Package metrics exposes Prometheus instrumentation for detection and
// resolution.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Resolution outcomes used as the "result" label.
const (
	ResultSuccess  = "success"
	ResultRejected = "rejected"
	ResultConflict = "conflict"
	ResultFailed   = "failed"
)

var (
	detectPasses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "recon",
		Subsystem: "detect",
		Name:      "passes_total",
		Help:      "Total number of clash detection passes broken down by result.",
	}, []string{"result"})

	detectLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "recon",
		Subsystem: "detect",
		Name:      "latency_seconds",
		Help:      "Latency distribution for clash detection passes.",
		Buckets: []float64{
			0.005, 0.01, 0.02, 0.05,
			0.1, 0.2, 0.5, 1,
			2, 5, 10,
		},
	}, []string{"result"})

	clashesFound = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "recon",
		Subsystem: "detect",
		Name:      "clashes",
		Help:      "Clashes found by the most recent detection pass, by severity.",
	}, []string{"severity"})

	omittedBuilds = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "recon",
		Subsystem: "detect",
		Name:      "omitted_builds_total",
		Help:      "Builds whose accounts could not be fetched during detection.",
	})

	resolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "recon",
		Subsystem: "resolve",
		Name:      "requests_total",
		Help:      "Total number of resolution attempts broken down by result.",
	}, []string{"result"})

	resolveLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "recon",
		Subsystem: "resolve",
		Name:      "latency_seconds",
		Help:      "Latency distribution for resolution attempts.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"result"})
)

// RecordDetection records one detection pass. bySeverity maps severity
// names to clash counts and is ignored for failed passes.
func RecordDetection(latency time.Duration, bySeverity map[string]int, omitted int, err error) {
	result := ResultSuccess
	if err != nil {
		result = ResultFailed
	}
	labels := prometheus.Labels{"result": result}
	detectPasses.With(labels).Inc()
	detectLatency.With(labels).Observe(latency.Seconds())
	if err != nil {
		return
	}
	for severity, n := range bySeverity {
		clashesFound.WithLabelValues(severity).Set(float64(n))
	}
	omittedBuilds.Add(float64(omitted))
}

// RecordResolution records one resolution attempt.
func RecordResolution(result string, latency time.Duration) {
	labels := prometheus.Labels{"result": result}
	resolutions.With(labels).Inc()
	resolveLatency.With(labels).Observe(latency.Seconds())
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
