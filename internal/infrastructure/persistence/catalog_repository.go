package persistence

import (
	"context"
	"errors"

	"github.com/fieldservice/backend/internal/domain/catalog"
	"github.com/fieldservice/backend/internal/domain/shared"
	"github.com/fieldservice/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormItemRepository implements catalog.ItemRepository using GORM
type GormItemRepository struct {
	db *gorm.DB
}

// NewGormItemRepository creates a new GormItemRepository
func NewGormItemRepository(db *gorm.DB) *GormItemRepository {
	return &GormItemRepository{db: db}
}

// FindItemByID finds an item by ID within a tenant
func (r *GormItemRepository) FindItemByID(ctx context.Context, tenantID, id uuid.UUID) (*catalog.Item, error) {
	var model models.ItemModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindItemsByIDs loads the tenant's items among ids; unknown ids are skipped
func (r *GormItemRepository) FindItemsByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]catalog.Item, error) {
	if len(ids) == 0 {
		return []catalog.Item{}, nil
	}
	var rows []models.ItemModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]catalog.Item, 0, len(rows))
	for i := range rows {
		items = append(items, *rows[i].ToDomain())
	}
	return items, nil
}

// SaveItem creates or updates an item
func (r *GormItemRepository) SaveItem(ctx context.Context, item *catalog.Item) error {
	return r.db.WithContext(ctx).Save(models.ItemModelFromDomain(item)).Error
}

// GormBundleRepository implements catalog.BundleRepository using GORM
type GormBundleRepository struct {
	db *gorm.DB
}

// NewGormBundleRepository creates a new GormBundleRepository
func NewGormBundleRepository(db *gorm.DB) *GormBundleRepository {
	return &GormBundleRepository{db: db}
}

// FindBundle finds a bundle definition with its components in sort order
func (r *GormBundleRepository) FindBundle(ctx context.Context, tenantID, id uuid.UUID) (*catalog.BundleDefinition, error) {
	return r.findBy(ctx, "tenant_id = ? AND id = ?", tenantID, id)
}

// FindBundleByItemID finds the definition owned by a bundle item
func (r *GormBundleRepository) FindBundleByItemID(ctx context.Context, tenantID, itemID uuid.UUID) (*catalog.BundleDefinition, error) {
	return r.findBy(ctx, "tenant_id = ? AND item_id = ?", tenantID, itemID)
}

func (r *GormBundleRepository) findBy(ctx context.Context, where string, args ...any) (*catalog.BundleDefinition, error) {
	var model models.BundleDefinitionModel
	if err := r.db.WithContext(ctx).
		Preload("Components", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Where(where, args...).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// SaveBundle upserts the definition and replaces its component list
func (r *GormBundleRepository) SaveBundle(ctx context.Context, def *catalog.BundleDefinition) error {
	model := models.BundleDefinitionModelFromDomain(def)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(model).Error; err != nil {
			return err
		}

		componentIDs := make([]uuid.UUID, len(model.Components))
		for i := range model.Components {
			componentIDs[i] = model.Components[i].ID
		}
		stale := tx.Where("bundle_id = ?", model.ID)
		if len(componentIDs) > 0 {
			stale = stale.Where("id NOT IN ?", componentIDs)
		}
		if err := stale.Delete(&models.BundleComponentModel{}).Error; err != nil {
			return err
		}

		if len(model.Components) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&model.Components).Error
	})
}

var (
	_ catalog.ItemRepository   = (*GormItemRepository)(nil)
	_ catalog.BundleRepository = (*GormBundleRepository)(nil)
)
