package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/fieldservice/backend/internal/domain/partner"
	"github.com/fieldservice/backend/internal/domain/shared"
	"github.com/fieldservice/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormClientRepository implements partner.ClientRepository using GORM
type GormClientRepository struct {
	db *gorm.DB
}

// NewGormClientRepository creates a new GormClientRepository
func NewGormClientRepository(db *gorm.DB) *GormClientRepository {
	return &GormClientRepository{db: db}
}

// FindClient finds a client by ID within a tenant
func (r *GormClientRepository) FindClient(ctx context.Context, tenantID, id uuid.UUID) (*partner.Client, error) {
	var model models.ClientModel
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

// FindMatchingClient returns the most recently updated client of the tenant
// that the criteria match. The comparison runs against the normalized key
// columns written by SaveClient, so the database does the filtering.
func (r *GormClientRepository) FindMatchingClient(ctx context.Context, tenantID uuid.UUID, criteria partner.ClientMatchCriteria) (*partner.Client, error) {
	if criteria.IsEmpty() {
		return nil, shared.ErrNotFound
	}

	var (
		conds []string
		args  []any
	)
	if criteria.Email != "" {
		conds = append(conds, "email_key = ?")
		args = append(args, criteria.Email)
	}
	if criteria.PhoneSuffix != "" {
		conds = append(conds, "phone_digits LIKE ?")
		args = append(args, "%"+criteria.PhoneSuffix+"%")
	}
	if criteria.Name != "" {
		if criteria.Company == "" {
			conds = append(conds, "name_key = ?")
			args = append(args, partner.FoldKey(criteria.Name))
		} else {
			conds = append(conds, "(name_key = ? AND company_key = ?)")
			args = append(args, partner.FoldKey(criteria.Name), partner.FoldKey(criteria.Company))
		}
	}

	var model models.ClientModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Where(strings.Join(conds, " OR "), args...).
		Order("updated_at DESC, id ASC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// SaveClient creates or updates a client
func (r *GormClientRepository) SaveClient(ctx context.Context, c *partner.Client) error {
	return r.db.WithContext(ctx).Save(models.ClientModelFromDomain(c)).Error
}

// GormLeadRepository implements partner.LeadRepository using GORM
type GormLeadRepository struct {
	db *gorm.DB
}

// NewGormLeadRepository creates a new GormLeadRepository
func NewGormLeadRepository(db *gorm.DB) *GormLeadRepository {
	return &GormLeadRepository{db: db}
}

// FindLead finds a lead by ID within a tenant
func (r *GormLeadRepository) FindLead(ctx context.Context, tenantID, id uuid.UUID) (*partner.Lead, error) {
	var model models.LeadModel
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

// SaveLead creates or updates a lead
func (r *GormLeadRepository) SaveLead(ctx context.Context, l *partner.Lead) error {
	return r.db.WithContext(ctx).Save(models.LeadModelFromDomain(l)).Error
}

var (
	_ partner.ClientRepository = (*GormClientRepository)(nil)
	_ partner.LeadRepository   = (*GormLeadRepository)(nil)
)
