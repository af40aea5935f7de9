package obs

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Reconcile outcome labels.
const (
	ReconcileChanged   = "changed"
	ReconcileUnchanged = "unchanged"
	ReconcileStale     = "stale"
)

// QuoteMetrics groups the pricing engine collectors.
type QuoteMetrics struct {
	ReconcileTotal     *prometheus.CounterVec
	ReconcileDuration  prometheus.Histogram
	RowsAdded          prometheus.Counter
	RowsRemoved        prometheus.Counter
	CatalogDiagnostics *prometheus.CounterVec
}

// NewQuoteMetrics registers and returns the pricing engine collectors.
func NewQuoteMetrics(namespace string, reg prometheus.Registerer) *QuoteMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &QuoteMetrics{
		ReconcileTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_reconcile_total",
			Help:      "Count of reconciliation passes by outcome.",
		}, []string{"result"}),
		ReconcileDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "quote_reconcile_duration_ms",
			Help:      "Reconciliation pass latency in milliseconds.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50},
		}),
		RowsAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_rows_added_total",
			Help:      "Rows added to quotes by trigger fields.",
		}),
		RowsRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_rows_removed_total",
			Help:      "Rows removed from quotes after their triggers went inactive.",
		}),
		CatalogDiagnostics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_diagnostics_total",
			Help:      "Catalog and rule diagnostics raised, by kind.",
		}, []string{"kind"}),
	}
	m.ReconcileTotal = Register(reg, m.ReconcileTotal)
	m.ReconcileDuration = Register(reg, m.ReconcileDuration)
	m.RowsAdded = Register(reg, m.RowsAdded)
	m.RowsRemoved = Register(reg, m.RowsRemoved)
	m.CatalogDiagnostics = Register(reg, m.CatalogDiagnostics)
	return m
}

// ObserveDiagnostic counts one diagnostic of kind. Safe on a nil receiver.
func (m *QuoteMetrics) ObserveDiagnostic(kind string) {
	if m == nil {
		return
	}
	m.CatalogDiagnostics.WithLabelValues(kind).Inc()
}

// ObserveReconcile counts one pass with the given result label. Safe on a nil receiver.
func (m *QuoteMetrics) ObserveReconcile(result string, durationMillis float64) {
	if m == nil {
		return
	}
	m.ReconcileTotal.WithLabelValues(result).Inc()
	m.ReconcileDuration.Observe(durationMillis)
}
