package handler

import (
	estimationapp "github.com/carconfig/backend/internal/application/estimation"
	"github.com/carconfig/backend/internal/infrastructure/logger"
	"github.com/carconfig/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DeliveryEstimator computes a delivery estimate in days
type DeliveryEstimator interface {
	Estimate(accessories []string, goodClient bool) int
}

// EstimatorHandler serves the standalone estimation service
type EstimatorHandler struct {
	BaseHandler
	estimator DeliveryEstimator
}

// NewEstimatorHandler creates an estimator handler
func NewEstimatorHandler(estimator DeliveryEstimator, logger *zap.Logger) *EstimatorHandler {
	return &EstimatorHandler{BaseHandler: NewBaseHandler(logger), estimator: estimator}
}

// RegisterRoutes registers POST /estimate behind estimation-token auth
func (h *EstimatorHandler) RegisterRoutes(_, protected *gin.RouterGroup) {
	protected.POST("/estimate", h.Estimate)
}

// Estimate godoc
// @Summary      Estimate delivery days
// @Description  Estimate delivery days for the named accessories. The good-client flag comes from the token, never from the body.
// @Tags         estimator
// @Accept       json
// @Produce      json
// @Param        request body estimationapp.EstimateRequest true "Accessory names"
// @Success      200 {object} dto.Response{data=estimationapp.EstimateResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /estimate [post]
func (h *EstimatorHandler) Estimate(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req estimationapp.EstimateRequest
	if !h.BindJSON(c, &req) {
		return
	}

	days := h.estimator.Estimate(req.Accessories, claims.IsGoodClient)
	logger.Enrich(c.Request.Context(), h.logger).Debug("Estimated delivery",
		zap.Int("accessories", len(req.Accessories)),
		zap.Bool("good_client", claims.IsGoodClient),
		zap.Int("days", days),
	)
	h.Success(c, estimationapp.EstimateResponse{Days: days})
}
