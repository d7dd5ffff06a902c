// Package audit records what happened to documents and tells staff about it.
package audit

import (
	"context"

	"github.com/fieldservice/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ActivityType classifies an activity record
type ActivityType string

const (
	ActivityInvoiceCreated ActivityType = "INVOICE_CREATED"
	ActivityJobCreated     ActivityType = "JOB_CREATED"
)

// Activity is a human-readable audit trail entry tied to the entities it
// concerns
type Activity struct {
	shared.TenantEntity
	UserID      *uuid.UUID
	Type        ActivityType
	Description string
	ClientID    *uuid.UUID
	EstimateID  *uuid.UUID
	InvoiceID   *uuid.UUID
	JobID       *uuid.UUID
}

// NewActivity creates an activity for the acting user
func NewActivity(actor shared.Actor, typ ActivityType, description string) *Activity {
	return &Activity{
		TenantEntity: shared.NewTenantEntity(actor.TenantID),
		UserID:       actor.UserID,
		Type:         typ,
		Description:  description,
	}
}

// WithClient links the activity to a client
func (a *Activity) WithClient(id uuid.UUID) *Activity {
	a.ClientID = &id
	return a
}

// WithEstimate links the activity to an estimate
func (a *Activity) WithEstimate(id uuid.UUID) *Activity {
	a.EstimateID = &id
	return a
}

// WithInvoice links the activity to an invoice
func (a *Activity) WithInvoice(id uuid.UUID) *Activity {
	a.InvoiceID = &id
	return a
}

// WithJob links the activity to a job
func (a *Activity) WithJob(id uuid.UUID) *Activity {
	a.JobID = &id
	return a
}

// ActivityRecorder appends activities. Implementations bound to a
// transaction make the record part of that unit of work.
type ActivityRecorder interface {
	RecordActivity(ctx context.Context, a *Activity) error
}
