package partner

import (
	"strings"

	"github.com/fieldservice/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// LeadStatus represents the sales stage of a lead
type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "NEW"
	LeadStatusContacted LeadStatus = "CONTACTED"
	LeadStatusQualified LeadStatus = "QUALIFIED"
	LeadStatusConverted LeadStatus = "CONVERTED"
	LeadStatusLost      LeadStatus = "LOST"
)

// Lead is a prospect that may become a client
type Lead struct {
	shared.TenantEntity
	FirstName           string
	LastName            string
	Company             string
	Email               string
	Phone               string
	Notes               string
	Status              LeadStatus
	ConvertedToClientID *uuid.UUID
}

// FullName joins first and last name
func (l *Lead) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(l.FirstName) + " " + strings.TrimSpace(l.LastName))
}

// IsConverted reports whether the lead already points at a client
func (l *Lead) IsConverted() bool {
	return l.ConvertedToClientID != nil && *l.ConvertedToClientID != uuid.Nil
}

// MatchCriteria returns the normalized fields used to find an existing
// client for this lead
func (l *Lead) MatchCriteria() ClientMatchCriteria {
	return NewClientMatchCriteria(l.Email, l.Phone, l.FullName(), l.Company)
}

// ToClient builds a new active client from the lead's contact fields
func (l *Lead) ToClient() (*Client, error) {
	name := l.FullName()
	if name == "" {
		name = strings.TrimSpace(l.Company)
	}
	c, err := NewClient(l.TenantID, name)
	if err != nil {
		return nil, err
	}
	c.CompanyName = strings.TrimSpace(l.Company)
	c.Email = strings.TrimSpace(l.Email)
	c.Phone = strings.TrimSpace(l.Phone)
	c.Notes = l.Notes
	return c, nil
}
