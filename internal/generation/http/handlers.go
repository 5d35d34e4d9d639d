package http

import (
	"errors"
	"net/http"

	"github.com/davinci-studio/studio-backend/internal/generation/domain"
	"github.com/davinci-studio/studio-backend/internal/generation/service"
	"github.com/gin-gonic/gin"
)

// Handler handles generation submissions
type Handler struct {
	orchestrator *service.Orchestrator
}

// New creates a new Handler
func New(orchestrator *service.Orchestrator) *Handler {
	return &Handler{orchestrator: orchestrator}
}

// Register registers the submission route on a /sessions/:session_id group.
// limits run, in order, before the handler.
func (h *Handler) Register(rg *gin.RouterGroup, limits ...gin.HandlerFunc) {
	rg.POST("/generations", append(limits, h.Submit)...)
}

// RegisterMetrics exposes orchestrator counters
func (h *Handler) RegisterMetrics(rg *gin.RouterGroup) {
	rg.GET("/generation/metrics", h.Metrics)
}

// Submit runs one batch and returns the merged records. A partially failed
// batch still answers 200 with the failure message in "error"; a batch where
// every request failed answers 502.
func (h *Handler) Submit(c *gin.Context) {
	sessionID := c.Param("session_id")

	var sub domain.Submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if len(sub.AspectRatios) == 0 {
		sub.AspectRatios = []domain.AspectRatio{domain.AspectSquare}
	}
	if sub.BatchCount == 0 {
		sub.BatchCount = 1
	}

	result, err := h.orchestrator.Submit(c.Request.Context(), sessionID, sub)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidSubmission) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to run generation"})
		return
	}

	status := http.StatusOK
	if len(result.Records) == 0 {
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"batch": result})
}

// Metrics returns generator call counters
func (h *Handler) Metrics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"metrics": h.orchestrator.Metrics().Snapshot()})
}
