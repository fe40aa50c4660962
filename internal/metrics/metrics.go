package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// AdsIngested counts ad submissions by outcome: accepted, duplicate, invalid
// or error.
var AdsIngested = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "fireboard_ads_ingested_total",
		Help: "Total number of ad submissions processed, partitioned by outcome.",
	},
	[]string{"outcome"},
)

// AdsListed counts reads of the full ad list.
var AdsListed = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "fireboard_ads_list_requests_total",
		Help: "Total number of ad list requests served.",
	},
)
