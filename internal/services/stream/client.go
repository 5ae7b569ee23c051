package stream

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/pulseguard/pulseguard/internal/domain/ping"
	"github.com/pulseguard/pulseguard/internal/domain/status"
)

const defaultSnapshotPings = 20

type wsRequest struct {
	Action    string  `json:"action"`
	ServerIDs []int64 `json:"server_ids"`
	Query     string  `json:"query"`
	Limit     int     `json:"limit"`
}

type wsSnapshot struct {
	Type     string                 `json:"type"`
	Statuses []*status.ServerStatus `json:"statuses"`
	Pings    []*ping.Result         `json:"pings"`
}

type wsSubscribed struct {
	Type    string  `json:"type"`
	Servers []int64 `json:"servers"`
}

type wsUpdate struct {
	Type   string               `json:"type"`
	Ping   *ping.Result         `json:"ping"`
	Status *status.ServerStatus `json:"status"`
}

type wsError struct {
	Error string `json:"error"`
}

type client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

func newClient(h *Hub, conn *websocket.Conn) *client {
	return &client{
		id:   uuid.NewString(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, 64),
	}
}

func (c *client) writePump() {
	defer func() { _ = c.conn.Close() }()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// readPump serves client requests until the connection drops. Replies go
// through the send channel so writes never interleave with update pushes.
func (c *client) readPump(ctx context.Context) {
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var req wsRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			c.reply(wsError{Error: "bad message"})
			continue
		}
		switch req.Action {
		case "latest":
			c.handleLatest(ctx, req)
		case "subscribe":
			c.handleSubscribe(ctx, req)
		default:
			c.reply(wsError{Error: "unknown action"})
		}
	}
}

func (c *client) handleLatest(ctx context.Context, req wsRequest) {
	ids, err := c.hub.resolve(ctx, req.ServerIDs, req.Query)
	if err != nil {
		c.hub.log.Error("resolve servers", zap.String("client", c.id), zap.Error(err))
		c.reply(wsError{Error: "internal error"})
		return
	}
	if len(ids) == 0 && (len(req.ServerIDs) > 0 || req.Query != "") {
		// Filter matched nothing; an empty snapshot is the honest answer.
		c.reply(wsSnapshot{Type: "latest", Statuses: []*status.ServerStatus{}, Pings: []*ping.Result{}})
		return
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultSnapshotPings
	}

	statuses, err := c.hub.statuses.List(ctx, status.Filter{ServerIDs: ids})
	if err != nil {
		c.hub.log.Error("list statuses", zap.String("client", c.id), zap.Error(err))
		c.reply(wsError{Error: "internal error"})
		return
	}
	pings, err := c.hub.pings.ListRecent(ctx, ping.Filter{ServerIDs: ids, Limit: limit})
	if err != nil {
		c.hub.log.Error("list pings", zap.String("client", c.id), zap.Error(err))
		c.reply(wsError{Error: "internal error"})
		return
	}
	if statuses == nil {
		statuses = []*status.ServerStatus{}
	}
	if pings == nil {
		pings = []*ping.Result{}
	}
	c.reply(wsSnapshot{Type: "latest", Statuses: statuses, Pings: pings})
}

func (c *client) handleSubscribe(ctx context.Context, req wsRequest) {
	ids, err := c.hub.resolve(ctx, req.ServerIDs, req.Query)
	if err != nil {
		c.hub.log.Error("resolve servers", zap.String("client", c.id), zap.Error(err))
		c.reply(wsError{Error: "internal error"})
		return
	}
	if ids == nil {
		ids = []int64{}
	}
	c.hub.join(c, ids)
	c.reply(wsSubscribed{Type: "subscribed", Servers: ids})
}

func (c *client) reply(v any) {
	msg, err := json.Marshal(v)
	if err != nil {
		c.hub.log.Error("marshal reply", zap.String("client", c.id), zap.Error(err))
		return
	}
	if !c.hub.deliver(c, msg) {
		mSlowDrops.Inc()
		c.hub.drop(c)
	}
}
