package billing

import (
	"time"

	"github.com/fieldservice/backend/internal/domain/shared"
	"github.com/fieldservice/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft   InvoiceStatus = "DRAFT"
	InvoiceStatusSent    InvoiceStatus = "SENT"
	InvoiceStatusPartial InvoiceStatus = "PARTIAL"
	InvoiceStatusPaid    InvoiceStatus = "PAID"
	InvoiceStatusOverdue InvoiceStatus = "OVERDUE"
	InvoiceStatusVoid    InvoiceStatus = "VOID"
)

// Invoice is a bill to a client. PaidAmount only ever grows; Balance is
// max(0, Total - PaidAmount).
type Invoice struct {
	shared.TenantEntity
	InvoiceNumber         string
	Title                 string
	Status                InvoiceStatus
	ClientID              uuid.UUID
	EstimateID            *uuid.UUID
	JobID                 *uuid.UUID
	BillingMode           BillingMode
	ProgressPercent       *decimal.Decimal
	Notes                 string
	Terms                 string
	LineItems             []LineItem
	PaidAmount            valueobject.Money
	Balance               valueobject.Money
	PaidAt                *time.Time
	InvoiceDate           time.Time
	PaymentToken          string
	PaymentURL            string
	ProviderTransactionID string
	CreatedBy             *uuid.UUID
	DocumentTotals
}

// PaymentApplication describes the effect of one payment on an invoice
type PaymentApplication struct {
	Amount         valueobject.Money
	PreviousStatus InvoiceStatus
	NewStatus      InvoiceStatus
	PaidAmount     valueobject.Money
	Balance        valueobject.Money
	FullyPaid      bool
}

// ResolvePaymentAmount returns the current outstanding balance when no amount
// was reported. A reported amount is used as-is, so one that rounded to zero
// credits nothing.
func (inv *Invoice) ResolvePaymentAmount(reported *valueobject.Money) valueobject.Money {
	if reported == nil {
		return inv.Balance
	}
	return reported.NonNegative()
}

// ApplyPayment credits a positive amount to the invoice:
//
//	paidAmount' = paidAmount + amount
//	balance'    = max(0, total - paidAmount')
//	status'     = PAID if balance' <= 0, else PARTIAL
//
// PaidAt is stamped the first time the balance reaches zero.
func (inv *Invoice) ApplyPayment(amount valueobject.Money, providerTxID string, now time.Time) (PaymentApplication, error) {
	if !amount.IsPositive() {
		return PaymentApplication{}, shared.NewValidationError("INVALID_PAYMENT_AMOUNT", "Payment amount must be positive")
	}

	prev := inv.Status
	inv.PaidAmount = inv.PaidAmount.Add(amount)
	inv.Balance = inv.Total.Subtract(inv.PaidAmount).NonNegative()

	switch {
	case inv.Balance.IsZero():
		inv.Status = InvoiceStatusPaid
		if inv.PaidAt == nil {
			paidAt := now
			inv.PaidAt = &paidAt
		}
	case inv.PaidAmount.IsPositive():
		inv.Status = InvoiceStatusPartial
	}

	if providerTxID != "" {
		inv.ProviderTransactionID = providerTxID
	}
	inv.UpdatedAt = now

	return PaymentApplication{
		Amount:         amount,
		PreviousStatus: prev,
		NewStatus:      inv.Status,
		PaidAmount:     inv.PaidAmount,
		Balance:        inv.Balance,
		FullyPaid:      inv.Status == InvoiceStatusPaid,
	}, nil
}

// AttachPaymentLink records the provider checkout link for the invoice
func (inv *Invoice) AttachPaymentLink(url, providerTxID string) {
	inv.PaymentURL = url
	if providerTxID != "" {
		inv.ProviderTransactionID = providerTxID
	}
	inv.Touch()
}

// IsEstimateLinked reports whether the invoice was converted from an estimate
func (inv *Invoice) IsEstimateLinked() bool {
	return inv.EstimateID != nil && *inv.EstimateID != uuid.Nil
}
