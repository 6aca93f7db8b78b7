package telemetry

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	EnqueueCounter   = prometheus.NewCounter(prometheus.CounterOpts{Name: "scrape_jobs_enqueued_total", Help: "Total enqueued scrape jobs"})
	ValidationErrors = prometheus.NewCounter(prometheus.CounterOpts{Name: "scrape_validation_rejects_total", Help: "Submissions rejected by validation"})
	CapacityRejects  = prometheus.NewCounter(prometheus.CounterOpts{Name: "scrape_capacity_rejects_total", Help: "Submissions rejected by the queue limit"})
	JobsSucceeded    = prometheus.NewCounter(prometheus.CounterOpts{Name: "scrape_jobs_succeeded_total", Help: "Jobs that completed successfully"})
	JobsFailed       = prometheus.NewCounter(prometheus.CounterOpts{Name: "scrape_jobs_failed_total", Help: "Jobs whose extraction failed"})
	JobsCancelled    = prometheus.NewCounter(prometheus.CounterOpts{Name: "scrape_jobs_cancelled_total", Help: "Jobs interrupted by shutdown"})
	QueueDepthGauge  = prometheus.NewGauge(prometheus.GaugeOpts{Name: "scrape_queue_depth", Help: "Pending payloads in the work queue"})
	RunningGauge     = prometheus.NewGauge(prometheus.GaugeOpts{Name: "scrape_jobs_running", Help: "Jobs currently executing"})
)

// Handler exposes /metrics HTTP handler with a singleton registry.
func Handler() http.Handler {
	once.Do(func() {
		prometheus.MustRegister(
			EnqueueCounter,
			ValidationErrors,
			CapacityRejects,
			JobsSucceeded,
			JobsFailed,
			JobsCancelled,
			QueueDepthGauge,
			RunningGauge,
		)
	})
	return promhttp.Handler()
}
