package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Mithun-VK/trading-chatbot/internal/domain/dto"
)

const readinessTimeout = 2 * time.Second

// HealthHandler provides health, liveness and readiness endpoints.
//
// Responsibilities:
//   - /health: status and process uptime.
//   - /healthz: basic liveness probe (always returns 200 OK).
//   - /readyz: readiness probe, depends on the document store when one is configured.
type HealthHandler struct {
	ping    func(ctx context.Context) error // nil when no store is configured
	started time.Time
	now     func() time.Time
}

// NewHealthHandler constructs a HealthHandler. ping may be nil.
func NewHealthHandler(ping func(ctx context.Context) error) *HealthHandler {
	return &HealthHandler{ping: ping, started: time.Now(), now: time.Now}
}

// Register mounts the health endpoints on the router root.
func (h *HealthHandler) Register(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/healthz", h.Live)
	r.GET("/readyz", h.Ready)
}

// Health godoc
// @Summary      Health
// @Description  Service status and uptime
// @Tags         health
// @Produce      json
// @Success      200  {object}  dto.HealthResponse
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	up := h.now().Sub(h.started)
	c.JSON(http.StatusOK, dto.HealthResponse{
		Status:        "ok",
		Uptime:        up.Truncate(time.Second).String(),
		UptimeSeconds: int64(up / time.Second),
	})
}

// Live godoc
// @Summary      Liveness probe
// @Description  Always returns OK if the service is running
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /healthz [get]
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready godoc
// @Summary      Readiness probe
// @Description  Returns ready if the configured document store is reachable
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /readyz [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	if h.ping != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
		defer cancel()
		if err := h.ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
