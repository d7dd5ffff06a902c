package models

import (
	"github.com/fieldservice/backend/internal/domain/job"
	"github.com/fieldservice/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// JobModel is the persistence model for the Job domain entity.
type JobModel struct {
	NumberedTenantModel
	JobNumber      string            `gorm:"type:varchar(50);not null;uniqueIndex:,composite:tenant_number,priority:2"`
	ClientID       uuid.UUID         `gorm:"type:uuid;not null;index"`
	EstimateID     *uuid.UUID        `gorm:"type:uuid;index"`
	Title          string            `gorm:"type:varchar(200);not null"`
	Description    string            `gorm:"type:text"`
	Status         string            `gorm:"type:varchar(20);not null;default:'QUOTE'"`
	Priority       int               `gorm:"not null;default:3"`
	EstimateAmount valueobject.Money `gorm:"type:bigint;not null;default:0"`
	Addresses      []AddressModel    `gorm:"foreignKey:JobID"`
}

// TableName returns the table name for GORM
func (JobModel) TableName() string {
	return "jobs"
}

// ToDomain converts the persistence model to a domain Job entity. Only the
// job-site address is mapped.
func (m *JobModel) ToDomain() *job.Job {
	j := &job.Job{
		TenantEntity:   m.ToTenantEntity(),
		JobNumber:      m.JobNumber,
		ClientID:       m.ClientID,
		EstimateID:     m.EstimateID,
		Title:          m.Title,
		Description:    m.Description,
		Status:         job.Status(m.Status),
		Priority:       m.Priority,
		EstimateAmount: m.EstimateAmount,
	}
	for i := range m.Addresses {
		if valueobject.AddressType(m.Addresses[i].AddressType) == valueobject.AddressTypeJobSite {
			j.SiteAddress = m.Addresses[i].ToSiteAddress()
			break
		}
	}
	return j
}

// JobModelFromDomain creates a persistence model from a domain Job entity.
// The site address, when present, becomes the only address row.
func JobModelFromDomain(j *job.Job) *JobModel {
	m := &JobModel{
		JobNumber:      j.JobNumber,
		ClientID:       j.ClientID,
		EstimateID:     j.EstimateID,
		Title:          j.Title,
		Description:    j.Description,
		Status:         string(j.Status),
		Priority:       j.Priority,
		EstimateAmount: j.EstimateAmount,
	}
	m.FromDomainTenantEntity(j.TenantEntity)
	if j.SiteAddress != nil {
		m.Addresses = []AddressModel{AddressModelFromSiteAddress(j, j.SiteAddress)}
	}
	return m
}

// AddressModel is a postal address attached to a job
type AddressModel struct {
	TenantModel
	JobID       *uuid.UUID `gorm:"type:uuid;index"`
	AddressType string     `gorm:"type:varchar(20);not null"`
	Street      string     `gorm:"type:varchar(255)"`
	City        string     `gorm:"type:varchar(100)"`
	State       string     `gorm:"type:varchar(50)"`
	ZipCode     string     `gorm:"type:varchar(20)"`
	Country     string     `gorm:"type:varchar(50);not null;default:'US'"`
}

// TableName returns the table name for GORM
func (AddressModel) TableName() string {
	return "addresses"
}

// ToSiteAddress converts the row to a domain SiteAddress
func (m *AddressModel) ToSiteAddress() *job.SiteAddress {
	return &job.SiteAddress{
		ID:   m.ID,
		Type: valueobject.AddressType(m.AddressType),
		Address: valueobject.NewAddress(m.Street, m.City, m.State,
			valueobject.WithZipCode(m.ZipCode),
			valueobject.WithCountry(m.Country)),
	}
}

// AddressModelFromSiteAddress creates the address row for a job's site
func AddressModelFromSiteAddress(j *job.Job, a *job.SiteAddress) AddressModel {
	jobID := j.ID
	m := AddressModel{
		JobID:       &jobID,
		AddressType: string(a.Type),
		Street:      a.Address.Street(),
		City:        a.Address.City(),
		State:       a.Address.State(),
		ZipCode:     a.Address.ZipCode(),
		Country:     a.Address.Country(),
	}
	m.FromDomainTenantEntity(j.TenantEntity)
	m.ID = a.ID
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return m
}
