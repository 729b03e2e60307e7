package tracker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ordersTracked counts orders registered with the tracker.
	ordersTracked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "predictkit_tracker_orders_tracked_total",
		Help: "Total number of orders registered for tracking",
	})

	// fillsTotal counts fill events by type.
	fillsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "predictkit_tracker_fills_total",
			Help: "Total number of fill events processed",
		},
		[]string{"event"},
	)

	// terminationsTotal counts terminal events by type.
	terminationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "predictkit_tracker_terminations_total",
			Help: "Total number of terminal order events",
		},
		[]string{"event"},
	)

	// eventsDropped counts events dropped due to full subscriber buffers.
	eventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "predictkit_tracker_events_dropped_total",
		Help: "Total number of events dropped on full subscriber channels",
	})
)
