package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fieldservice/backend/internal/application/validation"
	"github.com/fieldservice/backend/internal/domain/audit"
	"github.com/fieldservice/backend/internal/domain/billing"
	"github.com/fieldservice/backend/internal/domain/partner"
	"github.com/fieldservice/backend/internal/domain/shared"
	"github.com/fieldservice/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ConvertEstimateCommand asks for an invoice to be created from an estimate
type ConvertEstimateCommand struct {
	EstimateID          uuid.UUID `validate:"required"`
	BillingMode         string    `validate:"omitempty,oneof=FULL PERCENTAGE MANUAL"`
	Percentage          *decimal.Decimal
	SelectedLineItemIDs []uuid.UUID
}

func (c ConvertEstimateCommand) request() billing.ConversionRequest {
	req := billing.ConversionRequest{
		EstimateID:          c.EstimateID,
		Mode:                billing.BillingMode(c.BillingMode),
		SelectedLineItemIDs: c.SelectedLineItemIDs,
	}
	if c.Percentage != nil {
		req.Percentage = *c.Percentage
	}
	return req
}

// ConversionResult reports the committed invoice and, separately, whether
// the best-effort payment link enrichment succeeded.
type ConversionResult struct {
	Invoice        *billing.Invoice
	PaymentLinkErr error
}

// ConversionService converts estimates into invoices
type ConversionService struct {
	txScope      TransactionScope
	clients      partner.ClientRepository
	linkProvider billing.PaymentLinkProvider
	publicURL    string
	webhookPath  string
	metrics      Metrics
	logger       *zap.Logger
	now          func() time.Time
}

// ConversionServiceConfig holds the dependencies of ConversionService
type ConversionServiceConfig struct {
	TxScope      TransactionScope
	Clients      partner.ClientRepository
	LinkProvider billing.PaymentLinkProvider
	// PublicURL is the externally reachable base URL used in return and
	// webhook links
	PublicURL   string
	WebhookPath string
	Metrics     Metrics
	Logger      *zap.Logger
	Clock       func() time.Time
}

// DefaultWebhookPath is where payment providers post payment events
const DefaultWebhookPath = "/api/v1/webhooks/payments"

// NewConversionService creates a new ConversionService
func NewConversionService(cfg ConversionServiceConfig) *ConversionService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	webhookPath := cfg.WebhookPath
	if webhookPath == "" {
		webhookPath = DefaultWebhookPath
	}

	return &ConversionService{
		txScope:      cfg.TxScope,
		clients:      cfg.Clients,
		linkProvider: cfg.LinkProvider,
		publicURL:    strings.TrimRight(cfg.PublicURL, "/"),
		webhookPath:  webhookPath,
		metrics:      metrics,
		logger:       logger,
		now:          clock,
	}
}

// ConvertEstimate creates a DRAFT invoice from the estimate. The invoice
// header, its lines and the INVOICE_CREATED activity commit together; every
// rejection happens before any write. A payment link is then requested
// outside the transaction and its failure never fails the conversion.
func (s *ConversionService) ConvertEstimate(ctx context.Context, actor shared.Actor, cmd ConvertEstimateCommand) (*ConversionResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "billing", "convert_estimate")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, actor.TenantID.String(),
		telemetry.SpanAttrEstimateID, cmd.EstimateID.String(),
		telemetry.SpanAttrBillingMode, cmd.BillingMode,
	)

	if err := validation.Struct(cmd); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	req := cmd.request()

	token, err := billing.NewPaymentToken()
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var (
		invoice  *billing.Invoice
		estimate *billing.Estimate
	)
	err = executeNumbered(ctx, s.txScope, billing.ErrInvoiceNumberTaken, func(repos TransactionalRepositories) error {
		est, err := repos.EstimateRepo().FindEstimate(ctx, actor.TenantID, req.EstimateID)
		if err != nil {
			if shared.IsNotFound(err) {
				return shared.NewNotFoundError("ESTIMATE_NOT_FOUND", "Estimate not found")
			}
			return fmt.Errorf("load estimate: %w", err)
		}
		estimate = est

		seq, err := repos.InvoiceRepo().NextInvoiceSequence(ctx, actor.TenantID)
		if err != nil {
			return fmt.Errorf("next invoice number: %w", err)
		}

		inv, err := billing.ConvertEstimate(est, req, billing.InvoiceDraft{
			Number:  billing.FormatDocumentNumber("INV", seq),
			Token:   token,
			ActorID: actor.UserID,
			Now:     s.now(),
		})
		if err != nil {
			return err
		}

		if err := repos.InvoiceRepo().CreateInvoice(ctx, inv); err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}

		activity := audit.NewActivity(actor, audit.ActivityInvoiceCreated,
			fmt.Sprintf("Estimate %q converted to invoice %s (%s)", est.EstimateNumber, inv.InvoiceNumber, inv.BillingMode)).
			WithClient(inv.ClientID).
			WithEstimate(est.ID).
			WithInvoice(inv.ID)
		if err := repos.ActivityRecorder().RecordActivity(ctx, activity); err != nil {
			return fmt.Errorf("record activity: %w", err)
		}

		invoice = inv
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		if shared.KindOf(err) == "" {
			s.logger.Error("Estimate conversion failed",
				zap.String("tenant_id", actor.TenantID.String()),
				zap.String("estimate_id", cmd.EstimateID.String()),
				zap.Error(err))
		}
		return nil, err
	}

	s.metrics.RecordInvoiceConverted(ctx, actor.TenantID, string(invoice.BillingMode))
	telemetry.SetAttributes(span,
		telemetry.SpanAttrInvoiceID, invoice.ID.String(),
		telemetry.SpanAttrInvoiceNumber, invoice.InvoiceNumber,
		telemetry.SpanAttrAmountCents, invoice.Total.Cents(),
	)
	s.logger.Info("Estimate converted to invoice",
		zap.String("tenant_id", actor.TenantID.String()),
		zap.String("estimate_id", estimate.ID.String()),
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("billing_mode", string(invoice.BillingMode)),
		zap.String("total", invoice.Total.String()))

	result := &ConversionResult{Invoice: invoice}
	result.PaymentLinkErr = s.attachPaymentLink(ctx, estimate, invoice)
	return result, nil
}

// attachPaymentLink requests a hosted checkout link for the new invoice and
// stores it. Errors are logged and returned for reporting only.
func (s *ConversionService) attachPaymentLink(ctx context.Context, est *billing.Estimate, inv *billing.Invoice) error {
	if s.linkProvider == nil {
		return nil
	}

	req := billing.PaymentLinkRequest{
		InvoiceID:     inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		Amount:        inv.Balance,
		Description:   fmt.Sprintf("Invoice %s - %s", inv.InvoiceNumber, inv.Title),
		ReturnURL:     fmt.Sprintf("%s/portal/pay/%s?token=%s", s.publicURL, inv.ID, inv.PaymentToken),
		WebhookURL:    s.publicURL + s.webhookPath,
	}
	if s.clients != nil {
		if client, err := s.clients.FindClient(ctx, inv.TenantID, inv.ClientID); err == nil {
			req.PayerEmail = client.Email
			req.PayerName = client.DisplayName()
		}
	}

	err := func() error {
		link, err := s.linkProvider.CreatePaymentLink(ctx, req)
		if err != nil {
			return err
		}
		prevURL, prevTxID := inv.PaymentURL, inv.ProviderTransactionID
		inv.AttachPaymentLink(link.URL, link.ProviderTransactionID)
		err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			return repos.InvoiceRepo().UpdatePaymentLink(ctx, inv)
		})
		if err != nil {
			// the returned invoice must match what was stored
			inv.PaymentURL, inv.ProviderTransactionID = prevURL, prevTxID
		}
		return err
	}()
	if err != nil {
		s.metrics.RecordPaymentLinkFailure(ctx, inv.TenantID, s.linkProvider.Name())
		s.logger.Warn("Failed to pre-generate payment link for converted invoice",
			zap.String("invoice_id", inv.ID.String()),
			zap.String("estimate_id", est.ID.String()),
			zap.String("provider", s.linkProvider.Name()),
			zap.Error(err))
		return err
	}
	return nil
}
