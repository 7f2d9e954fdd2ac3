// Package services – domain metrics
//
// Prometheus counters for the business-level events this service exists to
// count: codes issued, scans recorded, and scan-recording failures that were
// swallowed in favor of completing the redirect. HTTP-level metrics
// (latency, status codes) live in the middleware package; these counters
// track domain outcomes independent of transport.
package services

import "github.com/prometheus/client_golang/prometheus"

var (
	// codesCreated counts successfully issued QR codes.
	codesCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "qrcodes_created_total",
		Help: "Total number of QR codes issued.",
	})

	// scansRecorded counts scan events durably written to the store.
	scansRecorded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scans_recorded_total",
		Help: "Total number of scan events recorded.",
	})

	// scanRecordFailures counts scans that could not be persisted while the
	// redirect was still served. A non-zero rate means scan accounting is
	// losing events.
	scanRecordFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scan_record_failures_total",
		Help: "Total number of scan events that failed to persist.",
	})
)

func init() {
	prometheus.MustRegister(codesCreated, scansRecorded, scanRecordFailures)
}
