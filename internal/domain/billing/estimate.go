package billing

import (
	"sort"

	"github.com/fieldservice/backend/internal/domain/shared"
	"github.com/fieldservice/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EstimateStatus represents the lifecycle of an estimate
type EstimateStatus string

const (
	EstimateStatusDraft     EstimateStatus = "DRAFT"
	EstimateStatusSent      EstimateStatus = "SENT"
	EstimateStatusAccepted  EstimateStatus = "ACCEPTED"
	EstimateStatusDeclined  EstimateStatus = "DECLINED"
	EstimateStatusExpired   EstimateStatus = "EXPIRED"
	EstimateStatusConverted EstimateStatus = "CONVERTED"
)

// Estimate is a priced proposal. JobID is set exactly once, when the first
// qualifying payment materializes a job, and is the materialization guard.
type Estimate struct {
	shared.TenantEntity
	EstimateNumber string
	Title          string
	Status         EstimateStatus
	ClientID       *uuid.UUID
	LeadID         *uuid.UUID
	JobID          *uuid.UUID
	Notes          string
	Terms          string
	JobSiteAddress string
	LineItems      []LineItem
	DocumentTotals
}

// NewEstimate creates an empty draft estimate
func NewEstimate(tenantID uuid.UUID, number, title string, taxRate decimal.Decimal) *Estimate {
	return &Estimate{
		TenantEntity:   shared.NewTenantEntity(tenantID),
		EstimateNumber: number,
		Title:          title,
		Status:         EstimateStatusDraft,
		DocumentTotals: DocumentTotals{TaxRate: taxRate},
	}
}

// HasClient reports whether the estimate is linked to a client
func (e *Estimate) HasClient() bool {
	return e.ClientID != nil && *e.ClientID != uuid.Nil
}

// HasJob reports whether a job was already materialized from the estimate
func (e *Estimate) HasJob() bool {
	return e.JobID != nil && *e.JobID != uuid.Nil
}

// OrderedLineItems returns the lines sorted by sort order
func (e *Estimate) OrderedLineItems() []LineItem {
	out := make([]LineItem, len(e.LineItems))
	copy(out, e.LineItems)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SortOrder < out[j].SortOrder
	})
	return out
}

// AppendLineItems adds lines after the current highest sort order and
// recalculates the totals.
func (e *Estimate) AppendLineItems(items ...LineItem) error {
	next := MaxSortOrder(e.LineItems) + 1
	for i := range items {
		items[i].SortOrder = next
		next++
	}
	e.LineItems = append(e.LineItems, items...)
	return e.Recalculate()
}

// SetDiscount sets the discount and recalculates
func (e *Estimate) SetDiscount(discount valueobject.Money) error {
	e.Discount = discount
	return e.Recalculate()
}

// Recalculate recomputes the document totals from the line items
func (e *Estimate) Recalculate() error {
	totals, err := CalculateTotals(TotalsLines(e.LineItems), e.Discount, e.TaxRate)
	if err != nil {
		return err
	}
	e.DocumentTotals = totals
	e.Touch()
	return nil
}

// MarkConverted links the materialized job and client and moves the
// estimate to CONVERTED. Linking a second job is rejected.
func (e *Estimate) MarkConverted(jobID, clientID uuid.UUID) error {
	if e.HasJob() {
		return shared.NewInvalidStateError("ESTIMATE_ALREADY_HAS_JOB", "Estimate is already linked to a job")
	}
	e.JobID = &jobID
	e.ClientID = &clientID
	e.Status = EstimateStatusConverted
	e.Touch()
	return nil
}
