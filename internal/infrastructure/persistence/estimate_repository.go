package persistence

import (
	"context"
	"errors"

	"github.com/fieldservice/backend/internal/domain/billing"
	"github.com/fieldservice/backend/internal/domain/shared"
	"github.com/fieldservice/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormEstimateRepository implements billing.EstimateRepository using GORM
type GormEstimateRepository struct {
	db *gorm.DB
}

// NewGormEstimateRepository creates a new GormEstimateRepository
func NewGormEstimateRepository(db *gorm.DB) *GormEstimateRepository {
	return &GormEstimateRepository{db: db}
}

// FindEstimate finds an estimate with its line items within a tenant
func (r *GormEstimateRepository) FindEstimate(ctx context.Context, tenantID, id uuid.UUID) (*billing.Estimate, error) {
	return r.find(ctx, tenantID, id, false)
}

// FindEstimateForUpdate finds an estimate and locks its row with
// SELECT ... FOR UPDATE
func (r *GormEstimateRepository) FindEstimateForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*billing.Estimate, error) {
	return r.find(ctx, tenantID, id, true)
}

func (r *GormEstimateRepository) find(ctx context.Context, tenantID, id uuid.UUID, lock bool) (*billing.Estimate, error) {
	query := r.db.WithContext(ctx)
	if lock {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var model models.EstimateModel
	if err := query.Where("tenant_id = ? AND id = ?", tenantID, id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}

	if err := r.db.WithContext(ctx).
		Where("estimate_id = ?", model.ID).
		Order("sort_order ASC").
		Find(&model.LineItems).Error; err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// SaveEstimate upserts the estimate header, removes line items no longer on
// the estimate and upserts the remaining ones
func (r *GormEstimateRepository) SaveEstimate(ctx context.Context, est *billing.Estimate) error {
	model := models.EstimateModelFromDomain(est)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(model).Error; err != nil {
			return err
		}

		lineIDs := make([]uuid.UUID, len(model.LineItems))
		for i := range model.LineItems {
			lineIDs[i] = model.LineItems[i].ID
		}
		stale := tx.Where("estimate_id = ?", model.ID)
		if len(lineIDs) > 0 {
			stale = stale.Where("id NOT IN ?", lineIDs)
		}
		if err := stale.Delete(&models.EstimateLineItemModel{}).Error; err != nil {
			return err
		}

		if len(model.LineItems) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&model.LineItems).Error
	})
}

// SaveLineGroup inserts a line group
func (r *GormEstimateRepository) SaveLineGroup(ctx context.Context, group *billing.DocumentLineGroup) error {
	return r.db.WithContext(ctx).Create(models.DocumentLineGroupModelFromDomain(group)).Error
}

// FindLineGroups returns the line groups of a document in sort order
func (r *GormEstimateRepository) FindLineGroups(ctx context.Context, tenantID uuid.UUID, docType billing.DocumentType, docID uuid.UUID) ([]billing.DocumentLineGroup, error) {
	var rows []models.DocumentLineGroupModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND document_type = ? AND document_id = ?", tenantID, string(docType), docID).
		Order("sort_order ASC, created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	groups := make([]billing.DocumentLineGroup, 0, len(rows))
	for i := range rows {
		groups = append(groups, *rows[i].ToDomain())
	}
	return groups, nil
}

// Ensure GormEstimateRepository implements billing.EstimateRepository
var _ billing.EstimateRepository = (*GormEstimateRepository)(nil)
