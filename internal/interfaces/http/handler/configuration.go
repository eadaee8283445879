package handler

import (
	"context"

	configapp "github.com/carconfig/backend/internal/application/configuration"
	"github.com/carconfig/backend/internal/interfaces/http/dto"
	"github.com/carconfig/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// IdempotencyKeyHeader carries the client's replay key on create
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotentReplayedHeader is set to "true" on a replayed create
	IdempotentReplayedHeader = "Idempotent-Replayed"

	maxIdempotencyKeyLength = 128
)

// ConfigurationService runs the configuration lifecycle of one user
type ConfigurationService interface {
	Get(ctx context.Context, userID int64) (*configapp.ConfigurationResponse, error)
	CreateIdempotent(ctx context.Context, userID int64, key string, input configapp.ConfigurationInput) (*configapp.ConfigurationResponse, bool, error)
	Update(ctx context.Context, userID int64, input configapp.ConfigurationInput) (*configapp.ConfigurationResponse, error)
	Delete(ctx context.Context, userID int64) (*configapp.DeleteResponse, error)
	Estimate(ctx context.Context, userID int64) (*configapp.EstimateResponse, error)
}

// ConfigurationHandler serves the authenticated user's configuration
type ConfigurationHandler struct {
	BaseHandler
	service ConfigurationService
}

// NewConfigurationHandler creates a configuration handler
func NewConfigurationHandler(service ConfigurationService, logger *zap.Logger) *ConfigurationHandler {
	return &ConfigurationHandler{BaseHandler: NewBaseHandler(logger), service: service}
}

// RegisterRoutes registers the configuration routes behind authentication
func (h *ConfigurationHandler) RegisterRoutes(_, protected *gin.RouterGroup) {
	cfg := protected.Group("/user/configuration")
	cfg.GET("", h.Get)
	cfg.POST("", h.Create)
	cfg.PUT("", h.Update)
	cfg.DELETE("", h.Delete)
	cfg.GET("/estimate", h.Estimate)
}

// Get godoc
// @Summary      Get configuration
// @Description  Return the authenticated user's car configuration
// @Tags         configuration
// @Produce      json
// @Success      200 {object} dto.Response{data=configapp.ConfigurationResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /user/configuration [get]
func (h *ConfigurationHandler) Get(c *gin.Context) {
	resp, err := h.service.Get(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Create godoc
// @Summary      Create configuration
// @Description  Create the user's configuration and reserve one unit of every chosen accessory.
// @Description  A repeated Idempotency-Key replays the stored configuration with 200 and Idempotent-Replayed: true.
// @Tags         configuration
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Client replay key, at most 128 characters"
// @Param        request body dto.ConfigurationRequest true "Car model and accessories"
// @Success      201 {object} dto.Response{data=configapp.ConfigurationResponse}
// @Success      200 {object} dto.Response{data=configapp.ConfigurationResponse} "Replayed"
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /user/configuration [post]
func (h *ConfigurationHandler) Create(c *gin.Context) {
	var req dto.ConfigurationRequest
	if !h.BindJSON(c, &req) {
		return
	}

	key := c.GetHeader(IdempotencyKeyHeader)
	if len(key) > maxIdempotencyKeyLength {
		h.ValidationError(c, []dto.ValidationDetail{{
			Field:   IdempotencyKeyHeader,
			Message: "Must be at most 128 characters",
		}})
		return
	}

	resp, replayed, err := h.service.CreateIdempotent(c.Request.Context(), middleware.GetUserID(c), key, req.ToInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if replayed {
		c.Header(IdempotentReplayedHeader, "true")
		h.Success(c, resp)
		return
	}
	h.Created(c, resp)
}

// Update godoc
// @Summary      Update configuration
// @Description  Replace the user's configuration, reserving added accessories and releasing dropped ones
// @Tags         configuration
// @Accept       json
// @Produce      json
// @Param        request body dto.ConfigurationRequest true "Car model and accessories"
// @Success      200 {object} dto.Response{data=configapp.ConfigurationResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /user/configuration [put]
func (h *ConfigurationHandler) Update(c *gin.Context) {
	var req dto.ConfigurationRequest
	if !h.BindJSON(c, &req) {
		return
	}

	resp, err := h.service.Update(c.Request.Context(), middleware.GetUserID(c), req.ToInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Delete godoc
// @Summary      Delete configuration
// @Description  Remove the user's configuration and release its accessories. Reports changes 0 when there was none.
// @Tags         configuration
// @Produce      json
// @Success      200 {object} dto.Response{data=configapp.DeleteResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /user/configuration [delete]
func (h *ConfigurationHandler) Delete(c *gin.Context) {
	resp, err := h.service.Delete(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Estimate godoc
// @Summary      Estimate delivery
// @Description  Return the configuration with estimated_delivery_days when the estimator answered
// @Tags         configuration
// @Produce      json
// @Success      200 {object} dto.Response{data=configapp.EstimateResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /user/configuration/estimate [get]
func (h *ConfigurationHandler) Estimate(c *gin.Context) {
	resp, err := h.service.Estimate(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
