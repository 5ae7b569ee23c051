package stream

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pulseguard_ws_clients",
		Help: "Connected websocket subscribers.",
	})
	mPushes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pulseguard_ws_pushes_total",
		Help: "Update frames pushed to websocket subscribers.",
	})
	mSlowDrops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pulseguard_ws_slow_drops_total",
		Help: "Subscribers dropped because their send buffer was full.",
	})
	mSnapshots = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pulseguard_stream_snapshots_total",
		Help: "Resumable stream requests served.",
	})
)
