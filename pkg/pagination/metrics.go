package pagination

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PageFetches counts page fetches by feed and outcome.
	PageFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medimatch_page_fetches_total",
			Help: "Total number of page fetches by feed and status",
		},
		[]string{"feed", "status"}, // "ok", "error", "stale"
	)

	// Sessions tracks live query sessions held by stores.
	Sessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "medimatch_page_sessions",
			Help: "Number of query sessions currently held in pagination stores",
		},
	)
)
