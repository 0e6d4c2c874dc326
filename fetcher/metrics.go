package fetcher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cyclesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tec_fetcher_cycles_total",
		Help: "Number of fetch cycles started.",
	})

	fetchErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tec_fetcher_fetch_errors_total",
		Help: "Fetch cycles skipped because the feed GET failed.",
	})

	decodeErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tec_fetcher_decode_errors_total",
		Help: "Fetch cycles skipped because the feed failed to decode.",
	})

	fleetSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tec_fetcher_fleet_size",
		Help: "Vehicles in the last published snapshot.",
	})

	cycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tec_fetcher_cycle_duration_seconds",
		Help:    "Wall-clock duration of fetch cycles.",
		Buckets: prometheus.DefBuckets,
	})
)
