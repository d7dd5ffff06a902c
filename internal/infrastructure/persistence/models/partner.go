package models

import (
	"github.com/fieldservice/backend/internal/domain/partner"
	"github.com/google/uuid"
)

// ClientModel is the persistence model for the Client domain entity.
type ClientModel struct {
	TenantModel
	Name        string `gorm:"type:varchar(200);not null"`
	CompanyName string `gorm:"type:varchar(200)"`
	Email       string `gorm:"type:varchar(200);index"`
	Phone       string `gorm:"type:varchar(50)"`
	Notes       string `gorm:"type:text"`
	IsActive    bool   `gorm:"not null;default:true"`

	// Normalized copies of the contact fields that lead matching filters on.
	// They are derived on every save and never read back.
	EmailKey    string `gorm:"type:varchar(200);not null;default:'';index"`
	PhoneDigits string `gorm:"type:varchar(50);not null;default:''"`
	NameKey     string `gorm:"type:varchar(200);not null;default:'';index"`
	CompanyKey  string `gorm:"type:varchar(200);not null;default:''"`
}

// TableName returns the table name for GORM
func (ClientModel) TableName() string {
	return "clients"
}

// ToDomain converts the persistence model to a domain Client entity.
func (m *ClientModel) ToDomain() *partner.Client {
	return &partner.Client{
		TenantEntity: m.ToTenantEntity(),
		Name:         m.Name,
		CompanyName:  m.CompanyName,
		Email:        m.Email,
		Phone:        m.Phone,
		Notes:        m.Notes,
		IsActive:     m.IsActive,
	}
}

// ClientModelFromDomain creates a persistence model from a domain Client entity.
func ClientModelFromDomain(c *partner.Client) *ClientModel {
	m := &ClientModel{
		Name:        c.Name,
		CompanyName: c.CompanyName,
		Email:       c.Email,
		Phone:       c.Phone,
		Notes:       c.Notes,
		IsActive:    c.IsActive,
		EmailKey:    partner.NormalizeEmail(c.Email),
		PhoneDigits: c.PhoneDigits(),
		NameKey:     partner.FoldKey(c.Name),
		CompanyKey:  partner.FoldKey(c.CompanyName),
	}
	m.FromDomainTenantEntity(c.TenantEntity)
	return m
}

// LeadModel is the persistence model for the Lead domain entity.
type LeadModel struct {
	TenantModel
	FirstName           string     `gorm:"type:varchar(100)"`
	LastName            string     `gorm:"type:varchar(100)"`
	Company             string     `gorm:"type:varchar(200)"`
	Email               string     `gorm:"type:varchar(200)"`
	Phone               string     `gorm:"type:varchar(50)"`
	Notes               string     `gorm:"type:text"`
	Status              string     `gorm:"type:varchar(20);not null;default:'NEW'"`
	ConvertedToClientID *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (LeadModel) TableName() string {
	return "leads"
}

// ToDomain converts the persistence model to a domain Lead entity.
func (m *LeadModel) ToDomain() *partner.Lead {
	return &partner.Lead{
		TenantEntity:        m.ToTenantEntity(),
		FirstName:           m.FirstName,
		LastName:            m.LastName,
		Company:             m.Company,
		Email:               m.Email,
		Phone:               m.Phone,
		Notes:               m.Notes,
		Status:              partner.LeadStatus(m.Status),
		ConvertedToClientID: m.ConvertedToClientID,
	}
}

// LeadModelFromDomain creates a persistence model from a domain Lead entity.
func LeadModelFromDomain(l *partner.Lead) *LeadModel {
	m := &LeadModel{
		FirstName:           l.FirstName,
		LastName:            l.LastName,
		Company:             l.Company,
		Email:               l.Email,
		Phone:               l.Phone,
		Notes:               l.Notes,
		Status:              string(l.Status),
		ConvertedToClientID: l.ConvertedToClientID,
	}
	m.FromDomainTenantEntity(l.TenantEntity)
	return m
}
