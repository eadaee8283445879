package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/carconfig/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pinger checks that a backing store answers
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthHandler reports liveness and the state of the storage backend
type HealthHandler struct {
	BaseHandler
	version     string
	checks      map[string]Pinger
	pingTimeout time.Duration
}

// NewHealthHandler creates a health handler. checks maps a component name to
// its pinger; an empty map reports only liveness.
func NewHealthHandler(version string, checks map[string]Pinger, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		BaseHandler: NewBaseHandler(logger),
		version:     version,
		checks:      checks,
		pingTimeout: 2 * time.Second,
	}
}

// RegisterRoutes registers GET /health
func (h *HealthHandler) RegisterRoutes(public, _ *gin.RouterGroup) {
	public.GET("/health", h.Health)
}

// Health godoc
// @Summary      Health check
// @Description  Ping every backing component; 503 when one is down
// @Tags         system
// @Produce      json
// @Success      200 {object} dto.Response{data=HealthResponse}
// @Failure      503 {object} dto.Response{data=HealthResponse,error=dto.ErrorInfo}
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	resp := HealthResponse{
		Status:    "healthy",
		Version:   h.version,
		Timestamp: time.Now().UTC(),
	}

	if len(h.checks) > 0 {
		resp.Checks = make(map[string]string, len(h.checks))
		ctx, cancel := context.WithTimeout(c.Request.Context(), h.pingTimeout)
		defer cancel()

		for name, p := range h.checks {
			if err := p.Ping(ctx); err != nil {
				h.log(c).Warn("Health check failed", zap.String("component", name), zap.Error(err))
				resp.Checks[name] = "unhealthy"
				resp.Status = "unhealthy"
				continue
			}
			resp.Checks[name] = "healthy"
		}
	}

	if resp.Status != "healthy" {
		c.JSON(http.StatusServiceUnavailable, dto.Response{
			Success: false,
			Data:    resp,
			Error: &dto.ErrorInfo{
				Code:    dto.ErrCodeStorage,
				Message: "A dependency is unavailable",
			},
		})
		return
	}
	h.Success(c, resp)
}
