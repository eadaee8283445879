package persistence

import (
	"context"
	"errors"

	"github.com/carconfig/backend/internal/domain/catalog"
	"github.com/carconfig/backend/internal/domain/shared"
	"github.com/carconfig/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCatalogRepository implements catalog.Repository using GORM
type GormCatalogRepository struct {
	db *gorm.DB
}

// NewGormCatalogRepository creates a new GormCatalogRepository
func NewGormCatalogRepository(db *gorm.DB) *GormCatalogRepository {
	return &GormCatalogRepository{db: db}
}

// ListModels returns every car model ordered by ID
func (r *GormCatalogRepository) ListModels(ctx context.Context) ([]catalog.CarModel, error) {
	var rows []models.CarModelModel
	if err := r.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]catalog.CarModel, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain())
	}
	return out, nil
}

// FindModel finds a car model by ID
func (r *GormCatalogRepository) FindModel(ctx context.Context, id int64) (*catalog.CarModel, error) {
	var row models.CarModelModel
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	m := row.ToDomain()
	return &m, nil
}

// ListAccessories returns every accessory with its constraint fields resolved
func (r *GormCatalogRepository) ListAccessories(ctx context.Context) ([]catalog.Accessory, error) {
	var rows []models.AccessoryModel
	if err := r.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return r.resolve(ctx, rows)
}

// FindAccessories returns the accessories with the given IDs, ordered by ID
func (r *GormCatalogRepository) FindAccessories(ctx context.Context, ids []int64) ([]catalog.Accessory, error) {
	if len(ids) == 0 {
		return []catalog.Accessory{}, nil
	}
	var rows []models.AccessoryModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return r.resolve(ctx, rows)
}

// ListConstraints returns the whole constraint table
func (r *GormCatalogRepository) ListConstraints(ctx context.Context) (catalog.ConstraintTable, error) {
	var rows []models.AccessoryConstraintModel
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	constraints := make([]catalog.AccessoryConstraint, 0, len(rows))
	for i := range rows {
		constraints = append(constraints, rows[i].ToDomain())
	}
	return catalog.NewConstraintTable(constraints), nil
}

func (r *GormCatalogRepository) resolve(ctx context.Context, rows []models.AccessoryModel) ([]catalog.Accessory, error) {
	out := make([]catalog.Accessory, 0, len(rows))
	if len(rows) == 0 {
		return out, nil
	}
	constraints, err := r.ListConstraints(ctx)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		a := rows[i].ToDomain()
		if c, ok := constraints.Lookup(a.ID); ok {
			a.ApplyConstraint(c)
		}
		out = append(out, a)
	}
	return out, nil
}

var _ catalog.Repository = (*GormCatalogRepository)(nil)
