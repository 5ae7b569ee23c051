package notifier

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mNotifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulseguard_notifications_total",
		Help: "Notification attempts by channel and result.",
	}, []string{"channel", "result"})
	mQueueDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pulseguard_alert_queue_dropped_total",
		Help: "Notable transitions dropped because the alert queue was full.",
	})
)

const (
	resultSent            = "sent"
	resultFailed          = "failed"
	resultSkippedCooldown = "skipped_cooldown"
	resultSkippedCredits  = "skipped_credits"
	resultSkippedChannel  = "skipped_no_sender"
)
