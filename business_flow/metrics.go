package businessflow

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Calls logged partitioned by disposition
	callsLoggedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outreach_calls_logged_total",
			Help: "Total call attempts recorded, by disposition",
		},
		[]string{"disposition"},
	)

	// Patients handed to a broker
	patientsForwardedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "outreach_patients_forwarded_total",
			Help: "Total patients forwarded to a broker",
		},
	)

	// Broker handoff emails that failed to dispatch
	brokerEmailFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "outreach_broker_email_failures_total",
			Help: "Total broker handoff notifications that failed to send",
		},
	)

	// Broker updates partitioned by status
	brokerUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outreach_broker_updates_total",
			Help: "Total broker updates posted, by status",
		},
		[]string{"status"},
	)

	// Resolved patients put back into active outreach
	patientsReopenedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "outreach_patients_reopened_total",
			Help: "Total patients reopened from a terminal state",
		},
	)
)
