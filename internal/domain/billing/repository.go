package billing

import (
	"context"

	"github.com/fieldservice/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ErrPaymentAlreadyApplied is returned when a payment with the same provider
// transaction id already exists for the tenant. Reconciliation treats it as
// a duplicate delivery, not a failure.
var ErrPaymentAlreadyApplied = shared.NewConflictError("PAYMENT_ALREADY_APPLIED", "Payment with this transaction id was already applied")

// ErrInvoiceNumberTaken is returned when another invoice of the tenant
// already holds the number
var ErrInvoiceNumberTaken = shared.NewConflictError("INVOICE_NUMBER_TAKEN", "Invoice number already exists")

// EstimateRepository persists estimates with their line items
type EstimateRepository interface {
	// FindEstimate returns shared.ErrNotFound when the estimate does not
	// exist for the tenant. Line items are loaded in sort order.
	FindEstimate(ctx context.Context, tenantID, id uuid.UUID) (*Estimate, error)

	// FindEstimateForUpdate is FindEstimate with a row lock held until the
	// enclosing transaction ends
	FindEstimateForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*Estimate, error)

	// SaveEstimate upserts the header and its line items
	SaveEstimate(ctx context.Context, est *Estimate) error

	SaveLineGroup(ctx context.Context, group *DocumentLineGroup) error
}

// InvoiceRepository persists invoices
type InvoiceRepository interface {
	// FindInvoice looks an invoice up by id alone. Payment callbacks carry no
	// tenant, so the tenant is taken from the invoice.
	FindInvoice(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// FindInvoiceForUpdate locks the invoice row until the enclosing
	// transaction ends
	FindInvoiceForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)

	// NextInvoiceSequence returns count+1 of the tenant's invoices
	NextInvoiceSequence(ctx context.Context, tenantID uuid.UUID) (int64, error)

	// CreateInvoice inserts the header and all line items
	CreateInvoice(ctx context.Context, inv *Invoice) error

	// UpdatePaymentState writes paid amount, balance, status, paid-at and
	// provider transaction id
	UpdatePaymentState(ctx context.Context, inv *Invoice) error

	UpdatePaymentLink(ctx context.Context, inv *Invoice) error
}

// PaymentRepository persists payments
type PaymentRepository interface {
	ExistsByTransactionID(ctx context.Context, tenantID uuid.UUID, providerTxID string) (bool, error)

	// CreatePayment returns ErrPaymentAlreadyApplied when the storage
	// uniqueness constraint on (tenant, provider transaction id) rejects it
	CreatePayment(ctx context.Context, p *Payment) error

	CountByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (int64, error)
}
