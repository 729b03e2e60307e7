package polymarket

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// requestsTotal counts REST requests by endpoint and status code.
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "predictkit_polymarket_requests_total",
			Help: "Total REST requests to the Polymarket APIs",
		},
		[]string{"endpoint", "status"},
	)

	// ordersSubmittedTotal counts accepted order submissions.
	ordersSubmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "predictkit_polymarket_orders_submitted_total",
		Help: "Total orders accepted by the venue",
	})

	// ordersRejectedTotal counts venue order rejections.
	ordersRejectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "predictkit_polymarket_orders_rejected_total",
		Help: "Total orders rejected by the venue",
	})
)
