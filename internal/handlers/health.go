package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"agora/internal/services"

	"github.com/gin-gonic/gin"
)

// Pinger is anything that can report whether its backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	store  Pinger
	logger *slog.Logger
}

func NewHealthHandler(store Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{store: store, logger: services.ResolveLogger(logger)}
}

// Check godoc
// @Summary Liveness and database reachability
// @Tags health
// @Produce json
// @Success 200 {object} Envelope
// @Failure 503 {object} Envelope
// @Router /healthz [get]
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("health check failed", "event", "healthz_failed", "error", err.Error())
		c.JSON(http.StatusServiceUnavailable, Envelope{Success: false, Error: "database unreachable"})
		return
	}
	ok(c, http.StatusOK, gin.H{"status": "ok"})
}
