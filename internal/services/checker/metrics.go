package checker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mCycles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pulseguard_check_cycles_total",
		Help: "Completed check cycles.",
	})
	mCycleDur = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pulseguard_check_cycle_duration_seconds",
		Help:    "Wall time of one check cycle.",
		Buckets: prometheus.DefBuckets,
	})
	mCoalesced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pulseguard_check_ticks_coalesced_total",
		Help: "Scheduler ticks dropped because a cycle was still in flight.",
	})
	mProbes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulseguard_probes_total",
		Help: "Probes executed by outcome.",
	}, []string{"outcome"})
	mCheckErr = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pulseguard_check_errors_total",
		Help: "Per-server persistence errors inside a cycle.",
	})
)
