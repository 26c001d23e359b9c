// Package metrics exposes the engine's Prometheus instruments. All the
// fiscal events that auditors care about in aggregate are counted here;
// the row-level truth stays in the database.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DocumentsCertified tracks certified documents by type code.
var DocumentsCertified = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "fiscal",
	Subsystem: "documents",
	Name:      "certified_total",
	Help:      "Total documents certified, by document type code.",
}, []string{"type_code"})

// DocumentsCancelled tracks cancellations by type code.
var DocumentsCancelled = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "fiscal",
	Subsystem: "documents",
	Name:      "cancelled_total",
	Help:      "Total documents cancelled, by document type code.",
}, []string{"type_code"})

// CreditNotesIssued tracks credit notes minted by the cancellation engine.
var CreditNotesIssued = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "fiscal",
	Subsystem: "documents",
	Name:      "credit_notes_total",
	Help:      "Total credit notes minted to reverse cancelled documents.",
})

// Liquidations tracks payments applied to documents.
var Liquidations = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "fiscal",
	Subsystem: "documents",
	Name:      "liquidations_total",
	Help:      "Total payments applied against pending documents.",
})

// CertifyFailures tracks certification attempts rejected or aborted.
var CertifyFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "fiscal",
	Subsystem: "documents",
	Name:      "certify_failures_total",
	Help:      "Total certification attempts that did not produce a document.",
}, []string{"reason"})

// CertifyDuration observes end-to-end certification transaction time.
var CertifyDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "fiscal",
	Subsystem: "documents",
	Name:      "certify_duration_seconds",
	Help:      "Wall time of the certification transaction.",
	Buckets:   prometheus.DefBuckets,
})
