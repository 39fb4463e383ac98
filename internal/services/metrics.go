package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Domain counters, exposed alongside the HTTP metrics at /metrics.
var (
	remindersFiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "medremind_reminders_fired_total",
		Help: "Dose reminders delivered to users.",
	})

	remindersDebouncedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "medremind_reminders_debounced_total",
		Help: "Reminder triggers suppressed by the announcement debounce window.",
	})

	scansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "medremind_scans_total",
		Help: "Prescription scans by outcome.",
	}, []string{"outcome"})

	scannedMedicationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "medremind_scanned_medications_total",
		Help: "Medication records created from prescription scans.",
	})
)
