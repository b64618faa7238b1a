package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the intake service.
type Metrics struct {
	RegistrationsCreated *prometheus.CounterVec
	DuplicateSubmissions prometheus.Counter
	FilesRejected        prometheus.Counter
	EmailsSent           prometheus.Counter
	EmailsFailed         prometheus.Counter
	IntakeDuration       prometheus.Histogram
	StatusUpdates        *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		RegistrationsCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "solidum_registrations_created_total",
			Help: "Total registrations persisted, by account type",
		}, []string{"type"}),
		DuplicateSubmissions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "solidum_duplicate_submissions_total",
			Help: "Submissions short-circuited by the deduplication cache",
		}),
		FilesRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "solidum_files_rejected_total",
			Help: "Uploaded files rejected by magic byte verification",
		}),
		EmailsSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "solidum_emails_sent_total",
			Help: "Notification and confirmation emails delivered",
		}),
		EmailsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "solidum_emails_failed_total",
			Help: "Email deliveries that failed and were downgraded to a flag",
		}),
		IntakeDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "solidum_intake_duration_seconds",
			Help:    "End-to-end intake pipeline latency",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		StatusUpdates: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "solidum_status_updates_total",
			Help: "Admin status transitions, by target status",
		}, []string{"status"}),
	}
}

// ObserveIntake records one completed intake pipeline run.
func (m *Metrics) ObserveIntake(start time.Time) {
	if m == nil {
		return
	}
	m.IntakeDuration.Observe(time.Since(start).Seconds())
}
