package markets

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "predictkit_markets_cache_hits_total",
		Help: "Total metadata lookups served from cache",
	})

	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "predictkit_markets_cache_misses_total",
		Help: "Total metadata lookups that fell through to the venue",
	})
)
