// Package metrics exposes the client's own prometheus counters/gauges,
// grounded on the teacher's metrics package (same promauto-constructed
// CounterVec/GaugeVec shape), generalized from "tests served" to "subtests
// run by this client".
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for the download/upload subtest engine.
var (
	ActiveSubtests = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ndt7_client_active_subtests",
			Help: "A gauge of subtests currently in progress.",
		},
		[]string{"direction"})

	TestRate = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "ndt7_client_test_rate_mbps",
			Help: "A histogram of measured subtest rates.",
			Buckets: []float64{
				.1, .15, .25, .4, .6,
				1, 1.5, 2.5, 4, 6,
				10, 15, 25, 40, 60,
				100, 150, 250, 400, 600,
				1000},
		},
		[]string{"direction"},
	)

	SubtestCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ndt7_client_subtest_total",
			Help: "Number of subtests run by this client.",
		},
		[]string{"direction"},
	)

	ErrorCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ndt7_client_subtest_errors_total",
			Help: "Number of subtest errors, by direction and error kind.",
		},
		[]string{"direction", "kind"},
	)

	BytesTransferred = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ndt7_client_bytes_total",
			Help: "Bytes transferred by this client, by direction.",
		},
		[]string{"direction"},
	)

	LocateQueryCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ndt7_client_locate_queries_total",
			Help: "Number of Locate API queries issued by this client, by outcome.",
		},
		[]string{"outcome"},
	)
)
