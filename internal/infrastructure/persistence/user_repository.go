package persistence

import (
	"context"

	"github.com/fieldservice/backend/internal/domain/identity"
	"github.com/fieldservice/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormUserRepository implements identity.UserRepository using GORM
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GormUserRepository
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// FindActiveUserIDsByRoles returns the ids of the tenant's active users that
// hold any of the roles
func (r *GormUserRepository) FindActiveUserIDsByRoles(ctx context.Context, tenantID uuid.UUID, roles []identity.Role) ([]uuid.UUID, error) {
	if len(roles) == 0 {
		return nil, nil
	}
	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = string(role)
	}

	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.UserModel{}).
		Where("tenant_id = ? AND status = ? AND role IN ?", tenantID, string(identity.UserStatusActive), names).
		Order("created_at ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// SaveUser creates or updates a user
func (r *GormUserRepository) SaveUser(ctx context.Context, u *identity.User) error {
	return r.db.WithContext(ctx).Save(models.UserModelFromDomain(u)).Error
}

// Ensure GormUserRepository implements identity.UserRepository
var _ identity.UserRepository = (*GormUserRepository)(nil)
