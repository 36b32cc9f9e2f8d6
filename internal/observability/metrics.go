// Package observability holds process-wide prometheus collectors.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	checkInRecordedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "checkin_service",
		Subsystem: "checkins",
		Name:      "last_recorded_timestamp_seconds",
		Help:      "Unix timestamp of the most recent check-in accepted by the workflow.",
	})
	checkInRecordedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "checkin_service",
		Subsystem: "checkins",
		Name:      "recorded_total",
		Help:      "Number of check-ins accepted and persisted.",
	})
	checkInRejectedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "checkin_service",
		Subsystem: "checkins",
		Name:      "rejected_total",
		Help:      "Number of check-in attempts rejected, labeled by business rule.",
	}, []string{"reason"})
)

func init() {
	prometheus.MustRegister(checkInRecordedGauge, checkInRecordedCounter, checkInRejectedCounter)
}

// RecordCheckInRecorded updates the acceptance counter and watermark gauge.
func RecordCheckInRecorded(ts time.Time) {
	checkInRecordedCounter.Inc()
	if ts.IsZero() {
		return
	}
	checkInRecordedGauge.Set(float64(ts.Unix()))
}

// RecordCheckInRejected counts a rejection by gate name.
func RecordCheckInRejected(reason string) {
	checkInRejectedCounter.WithLabelValues(reason).Inc()
}
