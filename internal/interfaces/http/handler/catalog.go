package handler

import (
	"context"

	catalogapp "github.com/carconfig/backend/internal/application/catalog"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CatalogService is the read side of the catalog
type CatalogService interface {
	ListCarModels(ctx context.Context) ([]catalogapp.CarModelResponse, error)
	ListAccessories(ctx context.Context) ([]catalogapp.AccessoryResponse, error)
}

// CatalogHandler serves the public catalog
type CatalogHandler struct {
	BaseHandler
	service CatalogService
}

// NewCatalogHandler creates a catalog handler
func NewCatalogHandler(service CatalogService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{BaseHandler: NewBaseHandler(logger), service: service}
}

// RegisterRoutes registers the catalog routes; both are public
func (h *CatalogHandler) RegisterRoutes(public, _ *gin.RouterGroup) {
	public.GET("/car-models", h.ListCarModels)
	public.GET("/accessories", h.ListAccessories)
}

// ListCarModels godoc
// @Summary      List car models
// @Description  Return every car model with its base cost and accessory limit
// @Tags         catalog
// @Produce      json
// @Success      200 {object} dto.Response{data=[]catalogapp.CarModelResponse}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /car-models [get]
func (h *CatalogHandler) ListCarModels(c *gin.Context) {
	models, err := h.service.ListCarModels(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, models)
}

// ListAccessories godoc
// @Summary      List accessories
// @Description  Return every accessory with its current availability and resolved constraints
// @Tags         catalog
// @Produce      json
// @Success      200 {object} dto.Response{data=[]catalogapp.AccessoryResponse}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /accessories [get]
func (h *CatalogHandler) ListAccessories(c *gin.Context) {
	accessories, err := h.service.ListAccessories(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, accessories)
}
