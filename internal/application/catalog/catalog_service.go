package catalog

import (
	"context"
	"errors"

	"github.com/carconfig/backend/internal/domain/catalog"
	"github.com/carconfig/backend/internal/domain/shared"
	"github.com/carconfig/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// CatalogService exposes the read-only catalog
type CatalogService struct {
	repo   catalog.Repository
	logger *zap.Logger
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(repo catalog.Repository, logger *zap.Logger) *CatalogService {
	return &CatalogService{repo: repo, logger: logger}
}

// ListCarModels returns every car model
func (s *CatalogService) ListCarModels(ctx context.Context) ([]CarModelResponse, error) {
	models, err := s.repo.ListModels(ctx)
	if err != nil {
		return nil, s.storageError(ctx, "list car models", err)
	}
	out := make([]CarModelResponse, 0, len(models))
	for _, m := range models {
		out = append(out, ToCarModelResponse(m))
	}
	return out, nil
}

// ListAccessories returns every accessory with its current availability
func (s *CatalogService) ListAccessories(ctx context.Context) ([]AccessoryResponse, error) {
	accessories, err := s.repo.ListAccessories(ctx)
	if err != nil {
		return nil, s.storageError(ctx, "list accessories", err)
	}
	out := make([]AccessoryResponse, 0, len(accessories))
	for _, a := range accessories {
		out = append(out, ToAccessoryResponse(a))
	}
	return out, nil
}

func (s *CatalogService) storageError(ctx context.Context, op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	logger.Enrich(ctx, s.logger).Error("catalog read failed", zap.String("op", op), zap.Error(err))
	return shared.NewStorageError(op, err)
}
