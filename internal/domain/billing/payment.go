package billing

import (
	"encoding/json"
	"time"

	"github.com/fieldservice/backend/internal/domain/shared"
	"github.com/fieldservice/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// PaymentStatus represents the status of a payment row
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
)

// PaymentMethod is how the money was collected
type PaymentMethod string

const (
	PaymentMethodCard  PaymentMethod = "CARD"
	PaymentMethodACH   PaymentMethod = "ACH"
	PaymentMethodCash  PaymentMethod = "CASH"
	PaymentMethodCheck PaymentMethod = "CHECK"
)

// Payment is one credit applied to an invoice. At most one payment exists per
// tenant and non-empty provider transaction id.
type Payment struct {
	shared.TenantEntity
	InvoiceID             uuid.UUID
	Amount                valueobject.Money
	Status                PaymentStatus
	Method                PaymentMethod
	Reference             string
	ProviderTransactionID *string
	WebhookPayload        json.RawMessage
	ProcessedAt           time.Time
}

// NewCompletedPayment records a successful card payment reported by the
// payment provider
func NewCompletedPayment(inv *Invoice, amount valueobject.Money, providerTxID string, payload json.RawMessage, now time.Time) *Payment {
	p := &Payment{
		TenantEntity:   shared.NewTenantEntity(inv.TenantID),
		InvoiceID:      inv.ID,
		Amount:         amount,
		Status:         PaymentStatusCompleted,
		Method:         PaymentMethodCard,
		Reference:      providerTxID,
		WebhookPayload: payload,
		ProcessedAt:    now,
	}
	if providerTxID != "" {
		tx := providerTxID
		p.ProviderTransactionID = &tx
	}
	return p
}
