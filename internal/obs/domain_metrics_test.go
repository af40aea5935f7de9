package obs_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-quote/internal/obs"
)

func TestQuoteMetricsObserve(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := obs.NewQuoteMetrics("quote", registry)

	m.ObserveReconcile(obs.ReconcileChanged, 1.5)
	m.ObserveReconcile(obs.ReconcileStale, 0.2)
	m.ObserveDiagnostic("invalid_tier_table")
	m.RowsAdded.Add(2)

	require.Equal(t, 1.0, testutil.ToFloat64(m.ReconcileTotal.WithLabelValues(obs.ReconcileChanged)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.ReconcileTotal.WithLabelValues(obs.ReconcileStale)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.CatalogDiagnostics.WithLabelValues("invalid_tier_table")))
	require.Equal(t, 2.0, testutil.ToFloat64(m.RowsAdded))

	again := obs.NewQuoteMetrics("quote", registry)
	require.Same(t, m.ReconcileTotal, again.ReconcileTotal)
}

func TestQuoteMetricsNilSafe(t *testing.T) {
	var m *obs.QuoteMetrics
	require.NotPanics(t, func() {
		m.ObserveReconcile(obs.ReconcileUnchanged, 1)
		m.ObserveDiagnostic("missing_catalog_reference")
	})
}
