// Package metrics exposes Prometheus counters for the reconciliation engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// EntriesGenerated counts schedule entries inserted or refreshed, by obligation kind.
var EntriesGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "bills",
	Subsystem: "schedule",
	Name:      "entries_generated_total",
	Help:      "Schedule entries inserted or refreshed.",
}, []string{"kind"})

// Settlements counts settle attempts by outcome.
var Settlements = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "bills",
	Subsystem: "settlement",
	Name:      "settlements_total",
	Help:      "Settlement attempts by outcome.",
}, []string{"outcome"})

// Reversals counts reversals of linked transactions by outcome.
var Reversals = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "bills",
	Subsystem: "settlement",
	Name:      "reversals_total",
	Help:      "Reversals of linked transactions by outcome.",
}, []string{"outcome"})

// Resolutions counts resolved entry statuses by the tier that decided them.
var Resolutions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "bills",
	Subsystem: "status",
	Name:      "resolutions_total",
	Help:      "Resolved schedule entry statuses by source.",
}, []string{"source"})

// RemindersSent counts reminder emails handed to the SMTP server.
var RemindersSent = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "bills",
	Subsystem: "reminder",
	Name:      "emails_sent_total",
	Help:      "Payment reminder emails sent.",
})

// Outcome labels.
const (
	OutcomeOK        = "ok"
	OutcomeDuplicate = "duplicate"
	OutcomeError     = "error"
	OutcomeNoop      = "noop"
)

// SourceLabel maps an empty resolver source to "none".
func SourceLabel(source string) string {
	if source == "" {
		return "none"
	}
	return source
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
