package identity

import (
	"strings"

	"github.com/fieldservice/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Role is a user's primary role within a tenant
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleAccounting Role = "ACCOUNTING"
	RoleManager    Role = "MANAGER"
	RoleDispatcher Role = "DISPATCHER"
	RoleTechnician Role = "TECHNICIAN"
)

// UserStatus represents the status of a user
type UserStatus string

const (
	UserStatusActive   UserStatus = "ACTIVE"
	UserStatusInactive UserStatus = "INACTIVE"
	UserStatusInvited  UserStatus = "INVITED"
)

// FinanceRoles receive payment and job-creation notifications
var FinanceRoles = []Role{RoleAdmin, RoleAccounting}

// User is a staff member of a tenant
type User struct {
	shared.TenantEntity
	Email     string
	FirstName string
	LastName  string
	Role      Role
	Status    UserStatus
}

// NewUser creates an active user
func NewUser(tenantID uuid.UUID, email string, role Role) (*User, error) {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, shared.NewValidationError("INVALID_EMAIL", "Invalid email format")
	}
	return &User{
		TenantEntity: shared.NewTenantEntity(tenantID),
		Email:        strings.ToLower(email),
		Role:         role,
		Status:       UserStatusActive,
	}, nil
}

// IsActive reports whether the user can receive notifications
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// ReceivesFinanceNotifications reports whether the user is an active admin
// or accounting user
func (u *User) ReceivesFinanceNotifications() bool {
	if !u.IsActive() {
		return false
	}
	for _, r := range FinanceRoles {
		if u.Role == r {
			return true
		}
	}
	return false
}
