package partner

import (
	"strings"

	"github.com/fieldservice/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Client is a billable customer of the tenant
type Client struct {
	shared.TenantEntity
	Name        string
	CompanyName string
	Email       string
	Phone       string
	Notes       string
	IsActive    bool
}

// NewClient creates an active client
func NewClient(tenantID uuid.UUID, name string) (*Client, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewValidationError("INVALID_CLIENT_NAME", "Client name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewValidationError("INVALID_CLIENT_NAME", "Client name cannot exceed 200 characters")
	}
	return &Client{
		TenantEntity: shared.NewTenantEntity(tenantID),
		Name:         name,
		IsActive:     true,
	}, nil
}

// PhoneDigits returns the client's phone with every non-digit removed
func (c *Client) PhoneDigits() string {
	return DigitsOnly(c.Phone)
}

// DisplayName is the name shown in notifications
func (c *Client) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.CompanyName
}
