package event

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var (
	mPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pulseguard_events_published_total",
		Help: "Transition events published to the in-process bus.",
	})
	mDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulseguard_events_dropped_total",
		Help: "Transition events dropped because a subscriber buffer was full.",
	}, []string{"subscriber"})
)

// Bus fans transition events out to named subscribers over bounded
// buffers. Delivery is at-most-once: a full buffer drops the event for
// that subscriber instead of blocking the publisher.
type Bus struct {
	log *zap.Logger

	mu     sync.RWMutex
	subs   map[string]chan Transition
	closed bool
}

func NewBus(log *zap.Logger) *Bus {
	return &Bus{
		log:  log,
		subs: make(map[string]chan Transition),
	}
}

// Subscribe registers a named consumer with its own buffer. The
// returned channel is closed by Unsubscribe or Close.
func (b *Bus) Subscribe(name string, buf int) <-chan Transition {
	if buf <= 0 {
		buf = 64
	}
	ch := make(chan Transition, buf)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	if old, ok := b.subs[name]; ok {
		close(old)
	}
	b.subs[name] = ch
	return ch
}

func (b *Bus) Unsubscribe(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[name]; ok {
		close(ch)
		delete(b.subs, name)
	}
}

// Publish hands the event to every subscriber without blocking.
func (b *Bus) Publish(ev Transition) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	mPublished.Inc()
	for name, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			mDropped.WithLabelValues(name).Inc()
			b.log.Warn("event dropped, subscriber lagging",
				zap.String("subscriber", name),
				zap.Int64("server_id", ev.Server.ID))
		}
	}
}

// Close shuts every subscriber channel; further publishes are no-ops.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for name, ch := range b.subs {
		close(ch)
		delete(b.subs, name)
	}
}
