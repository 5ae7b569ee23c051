package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pulseguard/pulseguard/internal/services/checker"
)

type triggerRequest struct {
	ServerIDs []int64 `json:"server_ids"`
}

type triggerResponse struct {
	Count   int                   `json:"count"`
	Results []checker.CycleResult `json:"results"`
}

// triggerHandler forces one orchestration cycle, optionally over an
// explicit server subset. It bypasses the scheduler and its coalescing.
func triggerHandler(uc *checker.Usecase, l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req triggerRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
				return
			}
		}

		results, err := uc.RunCycle(c.Request.Context(), req.ServerIDs)
		if err != nil {
			l.Error("manual cycle", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		if results == nil {
			results = []checker.CycleResult{}
		}
		c.JSON(http.StatusOK, triggerResponse{Count: len(results), Results: results})
	}
}
