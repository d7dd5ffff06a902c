package persistence

import (
	"context"
	"errors"

	"github.com/fieldservice/backend/internal/domain/job"
	"github.com/fieldservice/backend/internal/domain/shared"
	"github.com/fieldservice/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormJobRepository implements job.Repository using GORM
type GormJobRepository struct {
	db *gorm.DB
}

// NewGormJobRepository creates a new GormJobRepository
func NewGormJobRepository(db *gorm.DB) *GormJobRepository {
	return &GormJobRepository{db: db}
}

// FindJob finds a job with its addresses within a tenant
func (r *GormJobRepository) FindJob(ctx context.Context, tenantID, id uuid.UUID) (*job.Job, error) {
	var model models.JobModel
	if err := r.db.WithContext(ctx).
		Preload("Addresses").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// NextJobSequence returns the tenant's job count plus one
func (r *GormJobRepository) NextJobSequence(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.JobModel{}).
		Where("tenant_id = ?", tenantID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count + 1, nil
}

// CreateJob inserts the job and its site address
func (r *GormJobRepository) CreateJob(ctx context.Context, j *job.Job) error {
	model := models.JobModelFromDomain(j)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(model).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return job.ErrNumberTaken
			}
			return err
		}
		if len(model.Addresses) == 0 {
			return nil
		}
		return tx.Create(&model.Addresses).Error
	})
}

// Ensure GormJobRepository implements job.Repository
var _ job.Repository = (*GormJobRepository)(nil)
