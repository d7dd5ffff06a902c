package partner

import (
	"context"

	"github.com/google/uuid"
)

// ClientRepository persists clients
type ClientRepository interface {
	FindClient(ctx context.Context, tenantID, id uuid.UUID) (*Client, error)

	// FindMatchingClient returns the most recently updated client satisfying
	// the criteria, or shared.ErrNotFound
	FindMatchingClient(ctx context.Context, tenantID uuid.UUID, criteria ClientMatchCriteria) (*Client, error)

	SaveClient(ctx context.Context, c *Client) error
}

// LeadRepository loads leads
type LeadRepository interface {
	FindLead(ctx context.Context, tenantID, id uuid.UUID) (*Lead, error)
}
