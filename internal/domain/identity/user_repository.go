package identity

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository defines the interface for user persistence
type UserRepository interface {
	// FindActiveUserIDsByRoles returns ids of ACTIVE users of the tenant
	// holding any of the roles
	FindActiveUserIDsByRoles(ctx context.Context, tenantID uuid.UUID, roles []Role) ([]uuid.UUID, error)

	SaveUser(ctx context.Context, u *User) error
}
