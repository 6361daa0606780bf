package handlers

import (
	"net/http"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"carehome-insights/metrics"
	"carehome-insights/models"
)

// ScoreStateless computes a staff-quality score from caller-supplied inputs
// without touching stored data.
func (h *Handlers) ScoreStateless(c *gin.Context) {
	var args models.ScoreArgs

	if err := c.BindJSON(&args); err != nil {
		log.Errorf("Failed to get the argument in /score call: %v", err)
		return
	}

	if !requireVersion(c, args.Version) {
		return
	}

	score := h.scorer.Score(args.Rating, args.Reviews)
	metrics.ScoresComputedTotal.WithLabelValues("ok").Inc()

	c.IndentedJSON(http.StatusOK, score) // 200
}
