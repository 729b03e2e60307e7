package orderbook

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SnapshotsTotal counts full book replacements.
	SnapshotsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "predictkit_orderbook_snapshots_total",
		Help: "Total number of book snapshot messages applied",
	})

	// PriceChangesTotal counts top-of-book updates.
	PriceChangesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "predictkit_orderbook_price_changes_total",
		Help: "Total number of best-price updates applied",
	})

	// ParseErrorsTotal counts skipped malformed messages.
	ParseErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "predictkit_orderbook_parse_errors_total",
		Help: "Total number of malformed stream messages skipped",
	})

	// UpdatesDroppedTotal counts updates dropped on full subscriber buffers.
	UpdatesDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "predictkit_orderbook_updates_dropped_total",
		Help: "Total number of book updates dropped on full subscriber channels",
	})
)
