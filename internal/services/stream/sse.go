package stream

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pulseguard/pulseguard/internal/domain/ping"
	"github.com/pulseguard/pulseguard/internal/domain/status"
)

const (
	defaultRetryMS    = 5000
	defaultStreamRows = 50
	maxStreamRows     = 500
)

// Emitter serves the resumable status stream: a bounded snapshot in
// event-stream framing. Each request replays current statuses and recent
// pings past the client's cursor, then ends; clients poll to resume.
type Emitter struct {
	log      *zap.Logger
	statuses status.Repo
	pings    ping.Repo
	retryMS  int
}

func NewEmitter(l *zap.Logger, statuses status.Repo, pings ping.Repo) *Emitter {
	return &Emitter{
		log:      l.With(zap.String("component", "stream.emitter")),
		statuses: statuses,
		pings:    pings,
		retryMS:  defaultRetryMS,
	}
}

func (e *Emitter) Handle(c *gin.Context) {
	var (
		ids   []int64
		since *time.Time
	)

	if raw := c.Query("server_id"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid server_id"})
				return
			}
			ids = append(ids, id)
		}
	}

	var st status.Status
	if raw := c.Query("status"); raw != "" {
		st = status.Status(raw)
		if !st.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
	}

	if raw := c.Query("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "since must be RFC3339"})
			return
		}
		since = &t
	}

	limit := defaultStreamRows
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}
	if limit > maxStreamRows {
		limit = maxStreamRows
	}

	ctx := c.Request.Context()
	statuses, err := e.statuses.List(ctx, status.Filter{ServerIDs: ids, Status: st, Since: since})
	if err != nil {
		e.log.Error("list statuses", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	pings, err := e.pings.ListRecent(ctx, ping.Filter{ServerIDs: ids, Since: since, Limit: limit})
	if err != nil {
		e.log.Error("list pings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	mSnapshots.Inc()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	fmt.Fprintf(c.Writer, "retry: %d\n\n", e.retryMS)
	for _, row := range statuses {
		writeEvent(c, "status", row)
	}
	for _, row := range pings {
		writeEvent(c, "ping", row)
	}
	fmt.Fprint(c.Writer, ": heartbeat\n\n")
	c.Writer.Flush()
}

func writeEvent(c *gin.Context, kind string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", kind, data)
	c.Writer.Flush()
}
