package models

import (
	"github.com/fieldservice/backend/internal/domain/audit"
	"github.com/google/uuid"
)

// ActivityModel is the persistence model for audit activities
type ActivityModel struct {
	TenantModel
	UserID       *uuid.UUID `gorm:"type:uuid"`
	ActivityType string     `gorm:"type:varchar(50);not null;index"`
	Description  string     `gorm:"type:text;not null"`
	ClientID     *uuid.UUID `gorm:"type:uuid;index"`
	EstimateID   *uuid.UUID `gorm:"type:uuid;index"`
	InvoiceID    *uuid.UUID `gorm:"type:uuid;index"`
	JobID        *uuid.UUID `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (ActivityModel) TableName() string {
	return "activities"
}

// ToDomain converts the persistence model to a domain Activity.
func (m *ActivityModel) ToDomain() *audit.Activity {
	return &audit.Activity{
		TenantEntity: m.ToTenantEntity(),
		UserID:       m.UserID,
		Type:         audit.ActivityType(m.ActivityType),
		Description:  m.Description,
		ClientID:     m.ClientID,
		EstimateID:   m.EstimateID,
		InvoiceID:    m.InvoiceID,
		JobID:        m.JobID,
	}
}

// ActivityModelFromDomain creates a persistence model from a domain Activity.
func ActivityModelFromDomain(a *audit.Activity) *ActivityModel {
	m := &ActivityModel{
		UserID:       a.UserID,
		ActivityType: string(a.Type),
		Description:  a.Description,
		ClientID:     a.ClientID,
		EstimateID:   a.EstimateID,
		InvoiceID:    a.InvoiceID,
		JobID:        a.JobID,
	}
	m.FromDomainTenantEntity(a.TenantEntity)
	return m
}

// NotificationModel is one notification delivered to one user
type NotificationModel struct {
	TenantModel
	UserID           uuid.UUID `gorm:"type:uuid;not null;index"`
	NotificationType string    `gorm:"type:varchar(30);not null"`
	Title            string    `gorm:"type:varchar(200);not null"`
	Body             string    `gorm:"type:text"`
	LinkURL          string    `gorm:"type:varchar(500)"`
	LinkType         string    `gorm:"type:varchar(20)"`
	LinkID           uuid.UUID `gorm:"type:uuid"`
	RequiresAck      bool      `gorm:"not null;default:false"`
	IsRead           bool      `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (NotificationModel) TableName() string {
	return "notifications"
}

// ToDomain converts the persistence model to a domain Notification.
func (m *NotificationModel) ToDomain() *audit.Notification {
	return &audit.Notification{
		TenantEntity: m.ToTenantEntity(),
		UserID:       m.UserID,
		Message: audit.Message{
			Type:        audit.NotificationType(m.NotificationType),
			Title:       m.Title,
			Body:        m.Body,
			LinkURL:     m.LinkURL,
			LinkType:    audit.LinkType(m.LinkType),
			LinkID:      m.LinkID,
			RequiresAck: m.RequiresAck,
		},
		IsRead: m.IsRead,
	}
}

// NotificationModelFromDomain creates a persistence model from a domain
// Notification.
func NotificationModelFromDomain(n *audit.Notification) *NotificationModel {
	m := &NotificationModel{
		UserID:           n.UserID,
		NotificationType: string(n.Type),
		Title:            n.Title,
		Body:             n.Body,
		LinkURL:          n.LinkURL,
		LinkType:         string(n.LinkType),
		LinkID:           n.LinkID,
		RequiresAck:      n.RequiresAck,
		IsRead:           n.IsRead,
	}
	m.FromDomainTenantEntity(n.TenantEntity)
	return m
}

// AllModels lists every model for AutoMigrate in tests and local setups
func AllModels() []any {
	return []any{
		&ItemModel{},
		&BundleDefinitionModel{},
		&BundleComponentModel{},
		&ClientModel{},
		&LeadModel{},
		&EstimateModel{},
		&EstimateLineItemModel{},
		&InvoiceModel{},
		&InvoiceLineItemModel{},
		&DocumentLineGroupModel{},
		&PaymentModel{},
		&JobModel{},
		&AddressModel{},
		&UserModel{},
		&ActivityModel{},
		&NotificationModel{},
	}
}
