package storage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var fillsStored = promauto.NewCounter(prometheus.CounterOpts{
	Name: "predictkit_storage_fills_stored_total",
	Help: "Total fill records written to storage",
})
