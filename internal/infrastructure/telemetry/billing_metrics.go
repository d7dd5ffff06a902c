package telemetry

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// BillingMeterName is the instrumentation scope of billing counters
const BillingMeterName = "fieldservice-backend/billing"

// BillingMetrics records invoice conversions, payment webhook outcomes and
// job materializations as OpenTelemetry counters.
type BillingMetrics struct {
	invoicesConverted  *Counter
	paymentEvents      *Counter
	jobsMaterialized   *Counter
	paymentLinkFailure *Counter
}

// NewBillingMetrics creates the billing counters on the given meter.
func NewBillingMetrics(meter metric.Meter) (*BillingMetrics, error) {
	invoicesConverted, err := NewCounter(meter,
		"billing_invoices_converted_total",
		"Invoices created from estimates by billing mode",
		"{invoice}")
	if err != nil {
		return nil, err
	}
	paymentEvents, err := NewCounter(meter,
		"billing_payment_events_total",
		"Payment webhook events by provider and outcome",
		"{event}")
	if err != nil {
		return nil, err
	}
	jobsMaterialized, err := NewCounter(meter,
		"billing_jobs_materialized_total",
		"Jobs created from paid estimates",
		"{job}")
	if err != nil {
		return nil, err
	}
	paymentLinkFailure, err := NewCounter(meter,
		"billing_payment_link_failures_total",
		"Payment link requests that failed after invoice creation",
		"{request}")
	if err != nil {
		return nil, err
	}

	return &BillingMetrics{
		invoicesConverted:  invoicesConverted,
		paymentEvents:      paymentEvents,
		jobsMaterialized:   jobsMaterialized,
		paymentLinkFailure: paymentLinkFailure,
	}, nil
}

// RecordInvoiceConverted counts an estimate converted to an invoice.
func (m *BillingMetrics) RecordInvoiceConverted(ctx context.Context, tenantID uuid.UUID, mode string) {
	m.invoicesConverted.Inc(ctx, AttrTenantID.String(tenantID.String()), AttrBillingMode.String(mode))
}

// RecordPaymentEvent counts a processed payment event.
func (m *BillingMetrics) RecordPaymentEvent(ctx context.Context, tenantID uuid.UUID, provider, outcome string) {
	attrs := []attribute.KeyValue{AttrProvider.String(provider), AttrOutcome.String(outcome)}
	// ignored and failed events may not resolve to a tenant
	if tenantID != uuid.Nil {
		attrs = append(attrs, AttrTenantID.String(tenantID.String()))
	}
	m.paymentEvents.Inc(ctx, attrs...)
}

// RecordJobMaterialized counts a job created from a paid estimate.
func (m *BillingMetrics) RecordJobMaterialized(ctx context.Context, tenantID uuid.UUID) {
	m.jobsMaterialized.Inc(ctx, AttrTenantID.String(tenantID.String()))
}

// RecordPaymentLinkFailure counts a failed payment link request.
func (m *BillingMetrics) RecordPaymentLinkFailure(ctx context.Context, tenantID uuid.UUID, provider string) {
	m.paymentLinkFailure.Inc(ctx, AttrTenantID.String(tenantID.String()), AttrProvider.String(provider))
}
