package audit

import (
	"context"
	"fmt"

	"github.com/fieldservice/backend/internal/domain/shared"
	"github.com/fieldservice/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// NotificationType classifies a notification
type NotificationType string

const (
	NotificationSystem          NotificationType = "SYSTEM"
	NotificationPaymentReceived NotificationType = "PAYMENT_RECEIVED"
)

// LinkType names the entity a notification links to
type LinkType string

const (
	LinkInvoice  LinkType = "invoice"
	LinkJob      LinkType = "job"
	LinkEstimate LinkType = "estimate"
)

// Message is the content fanned out to each recipient
type Message struct {
	Type        NotificationType
	Title       string
	Body        string
	LinkURL     string
	LinkType    LinkType
	LinkID      uuid.UUID
	RequiresAck bool
}

// Notification is one message delivered to one user
type Notification struct {
	shared.TenantEntity
	UserID uuid.UUID
	Message
	IsRead bool
}

// FanOut builds one notification per recipient
func FanOut(tenantID uuid.UUID, userIDs []uuid.UUID, msg Message) []Notification {
	out := make([]Notification, 0, len(userIDs))
	for _, uid := range userIDs {
		out = append(out, Notification{
			TenantEntity: shared.NewTenantEntity(tenantID),
			UserID:       uid,
			Message:      msg,
		})
	}
	return out
}

// Notifier delivers a message to users. Delivery failures are reported but
// callers never roll back on them.
type Notifier interface {
	Notify(ctx context.Context, tenantID uuid.UUID, userIDs []uuid.UUID, msg Message) error
}

// InvoicePaidMessage tells finance staff a client paid an invoice
func InvoicePaidMessage(invoiceID uuid.UUID, invoiceNumber, clientName string, amount valueobject.Money) Message {
	return Message{
		Type:        NotificationPaymentReceived,
		Title:       "Payment Received",
		Body:        fmt.Sprintf("%s paid %s for invoice %s", clientName, amount.Display(), invoiceNumber),
		LinkURL:     "/dashboard/invoices/" + invoiceID.String(),
		LinkType:    LinkInvoice,
		LinkID:      invoiceID,
		RequiresAck: true,
	}
}

// EstimateConvertedMessage tells finance staff a payment turned an estimate
// into a job
func EstimateConvertedMessage(estimateNumber string, jobID uuid.UUID, jobNumber string) Message {
	return Message{
		Type:        NotificationSystem,
		Title:       "Payment received. Estimate is now a Job.",
		Body:        fmt.Sprintf("Payment received. Estimate #%s is now a Job (%s).", estimateNumber, jobNumber),
		LinkURL:     "/dashboard/jobs/" + jobID.String(),
		LinkType:    LinkJob,
		LinkID:      jobID,
		RequiresAck: true,
	}
}
