package billing

import (
	"context"

	"github.com/fieldservice/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// PaymentLinkRequest asks the payment provider for a hosted checkout link
type PaymentLinkRequest struct {
	InvoiceID     uuid.UUID
	InvoiceNumber string
	Amount        valueobject.Money
	Description   string
	PayerEmail    string
	PayerName     string
	ReturnURL     string
	WebhookURL    string
}

// PaymentLink is the provider's answer to a PaymentLinkRequest
type PaymentLink struct {
	URL                   string
	ProviderTransactionID string
}

// PaymentLinkProvider creates hosted payment links. Failures are never fatal
// to invoice creation.
type PaymentLinkProvider interface {
	CreatePaymentLink(ctx context.Context, req PaymentLinkRequest) (*PaymentLink, error)
	Name() string
}

// PaymentEventResolver turns a raw provider callback into a PaymentEvent.
// Providers that send thin notifications may call back into their API.
type PaymentEventResolver interface {
	ResolvePaymentEvent(ctx context.Context, raw []byte) (PaymentEvent, error)
	Name() string
}
