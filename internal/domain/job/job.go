// Package job holds the work order created from a paid estimate.
package job

import (
	"fmt"

	"github.com/fieldservice/backend/internal/domain/shared"
	"github.com/fieldservice/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// Status represents the lifecycle of a job
type Status string

const (
	StatusQuote      Status = "QUOTE"
	StatusScheduled  Status = "SCHEDULED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

// DefaultPriority is the priority of jobs created from payments (1 highest, 5 lowest)
const DefaultPriority = 3

// Job is a unit of field work for a client
type Job struct {
	shared.TenantEntity
	JobNumber      string
	ClientID       uuid.UUID
	EstimateID     *uuid.UUID
	Title          string
	Description    string
	Status         Status
	Priority       int
	EstimateAmount valueobject.Money
	SiteAddress    *SiteAddress
}

// SiteAddress is an address attached to a job
type SiteAddress struct {
	ID      uuid.UUID
	Type    valueobject.AddressType
	Address valueobject.Address
}

// Source is the slice of an estimate a job is derived from
type Source struct {
	EstimateID     uuid.UUID
	EstimateNumber string
	Title          string
	Notes          string
	Total          valueobject.Money
	JobSiteAddress string
}

// FromEstimate creates a QUOTE job for the client, numbered seq, carrying
// the estimate's title, notes and total. A job-site address is attached when
// the free-form address parses.
func FromEstimate(tenantID, clientID uuid.UUID, seq int64, src Source) *Job {
	estimateID := src.EstimateID
	j := &Job{
		TenantEntity:   shared.NewTenantEntity(tenantID),
		JobNumber:      FormatNumber(seq),
		ClientID:       clientID,
		EstimateID:     &estimateID,
		Title:          src.Title,
		Description:    src.Notes,
		Status:         StatusQuote,
		Priority:       DefaultPriority,
		EstimateAmount: src.Total,
	}
	if addr, ok := valueobject.ParseAddress(src.JobSiteAddress); ok {
		j.SiteAddress = &SiteAddress{
			ID:      uuid.New(),
			Type:    valueobject.AddressTypeJobSite,
			Address: addr,
		}
	}
	return j
}

// FormatNumber renders the tenant-sequential job number
func FormatNumber(seq int64) string {
	return fmt.Sprintf("JOB-%06d", seq)
}
