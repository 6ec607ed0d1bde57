package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcomes recorded for each cart operation.
const (
	outcomeSuccess    = "success"
	outcomeOutOfStock = "out_of_stock"
	outcomeNotFound   = "not_found"
	outcomeFailed     = "failed"
	outcomeNoop       = "noop"
)

var cartOperations = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "rocketshoes",
		Name:      "cart_operations_total",
		Help:      "Cart operations by operation and outcome",
	},
	[]string{"operation", "outcome"},
)
