package billing

import (
	"context"

	"github.com/google/uuid"
)

// Payment event outcomes reported to Metrics
const (
	OutcomeIgnored   = "ignored"
	OutcomeApplied   = "applied"
	OutcomeDuplicate = "duplicate"
	OutcomeNoBalance = "no_balance"
	OutcomeFailed    = "failed"
)

// Metrics receives billing business events
type Metrics interface {
	RecordInvoiceConverted(ctx context.Context, tenantID uuid.UUID, mode string)
	RecordPaymentEvent(ctx context.Context, tenantID uuid.UUID, provider, outcome string)
	RecordJobMaterialized(ctx context.Context, tenantID uuid.UUID)
	RecordPaymentLinkFailure(ctx context.Context, tenantID uuid.UUID, provider string)
}

type noopMetrics struct{}

func (noopMetrics) RecordInvoiceConverted(context.Context, uuid.UUID, string) {}
func (noopMetrics) RecordPaymentEvent(context.Context, uuid.UUID, string, string) {}
func (noopMetrics) RecordJobMaterialized(context.Context, uuid.UUID) {}
func (noopMetrics) RecordPaymentLinkFailure(context.Context, uuid.UUID, string) {}
