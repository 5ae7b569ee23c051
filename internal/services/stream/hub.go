package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/pulseguard/pulseguard/internal/domain/ping"
	"github.com/pulseguard/pulseguard/internal/domain/server"
	"github.com/pulseguard/pulseguard/internal/domain/status"
	"github.com/pulseguard/pulseguard/internal/event"
)

// Hub is the subscription broadcaster: one named group per server, and a
// push of {ping, status} to every member of a group whenever that server
// transitions.
type Hub struct {
	log      *zap.Logger
	servers  server.Repo
	statuses status.Repo
	pings    ping.Repo

	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}
	groups  map[int64]map[*client]struct{}
}

func NewHub(l *zap.Logger, servers server.Repo, statuses status.Repo, pings ping.Repo, allowedOrigins []string) *Hub {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &Hub{
		log:      l.With(zap.String("component", "stream.hub")),
		servers:  servers,
		statuses: statuses,
		pings:    pings,
		clients:  make(map[*client]struct{}),
		groups:   make(map[int64]map[*client]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true // non-browser clients
				}
				if allowed[origin] {
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				host := u.Hostname()
				return host == "localhost" || host == "127.0.0.1" || host == "::1"
			},
		},
	}
}

// Run drains the transition feed until the context ends. Feed closure is
// treated as shutdown, not an error.
func (h *Hub) Run(ctx context.Context, feed <-chan event.Transition) error {
	h.log.Info("hub started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-feed:
			if !ok {
				return nil
			}
			h.broadcast(ev)
		}
	}
}

func (h *Hub) broadcast(ev event.Transition) {
	if ev.Server == nil {
		return
	}
	msg, err := json.Marshal(wsUpdate{Type: "update", Ping: ev.Ping, Status: ev.Status})
	if err != nil {
		h.log.Error("marshal update", zap.Error(err))
		return
	}

	// Sends happen under the read lock and closes under the write lock,
	// so a frame can never race the channel close in drop.
	h.mu.RLock()
	var slow []*client
	for c := range h.groups[ev.Server.ID] {
		select {
		case c.send <- msg:
			mPushes.Inc()
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		mSlowDrops.Inc()
		h.log.Warn("subscriber too slow, dropping", zap.String("client", c.id))
		h.drop(c)
	}
}

// HandleWS upgrades the connection and serves the subscription protocol
// until the peer goes away. Authentication happens in middleware before
// this runs.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	c := newClient(h, conn)

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	mClients.Inc()
	h.log.Debug("subscriber connected", zap.String("client", c.id))

	go c.writePump()
	c.readPump(r.Context())
	h.drop(c)
}

// join adds the client to each server's group, creating groups lazily.
func (h *Hub) join(c *client, serverIDs []int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	for _, id := range serverIDs {
		g, ok := h.groups[id]
		if !ok {
			g = make(map[*client]struct{})
			h.groups[id] = g
		}
		g[c] = struct{}{}
	}
}

// drop releases every membership of the client and closes its send
// channel exactly once.
func (h *Hub) drop(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	for id, g := range h.groups {
		delete(g, c)
		if len(g) == 0 {
			delete(h.groups, id)
		}
	}
	close(c.send)
	mClients.Dec()
	h.log.Debug("subscriber disconnected", zap.String("client", c.id))
}

// deliver queues one frame for a client if it is still connected and has
// buffer room. Holding the read lock here keeps the send ordered before
// any concurrent close in drop.
func (h *Hub) deliver(c *client, msg []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c]; !ok {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// resolve turns an explicit id list or a name query into the set of
// existing server ids. Both empty means no servers.
func (h *Hub) resolve(ctx context.Context, serverIDs []int64, query string) ([]int64, error) {
	if len(serverIDs) == 0 && query == "" {
		return nil, nil
	}
	list, err := h.servers.List(ctx, server.Filter{IDs: serverIDs, NameQuery: query})
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(list))
	for _, s := range list {
		ids = append(ids, s.ID)
	}
	return ids, nil
}
