package stats

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultWindowDays = 30
	maxWindowDays     = 365
)

// Handler exposes the aggregates under a router group.
type Handler struct {
	UC  *Usecase
	Log *zap.Logger
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/overview", h.overview)
	rg.GET("/uptime", h.uptime)
	rg.GET("/response-times", h.responseTimes)
	rg.GET("/failures", h.failures)
}

// windowDays parses the shared `days` query parameter. A zero return
// means the request was already answered with a 400.
func windowDays(c *gin.Context) int {
	raw := c.Query("days")
	if raw == "" {
		return defaultWindowDays
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid days"})
		return 0
	}
	if n > maxWindowDays {
		n = maxWindowDays
	}
	return n
}

func (h *Handler) overview(c *gin.Context) {
	days := windowDays(c)
	if days == 0 {
		return
	}
	out, err := h.UC.Overview(c.Request.Context(), days)
	if err != nil {
		h.fail(c, "stats overview", err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) uptime(c *gin.Context) {
	days := windowDays(c)
	if days == 0 {
		return
	}
	out, err := h.UC.Uptime(c.Request.Context(), days)
	if err != nil {
		h.fail(c, "stats uptime", err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) responseTimes(c *gin.Context) {
	days := windowDays(c)
	if days == 0 {
		return
	}
	out, err := h.UC.ResponseTimes(c.Request.Context(), days)
	if err != nil {
		h.fail(c, "stats response times", err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) failures(c *gin.Context) {
	days := windowDays(c)
	if days == 0 {
		return
	}
	out, err := h.UC.Failures(c.Request.Context(), days)
	if err != nil {
		h.fail(c, "stats failures", err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) fail(c *gin.Context, what string, err error) {
	h.Log.Error(what, zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
