package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fieldservice/backend/internal/domain/audit"
	"github.com/fieldservice/backend/internal/domain/billing"
	"github.com/fieldservice/backend/internal/domain/identity"
	"github.com/fieldservice/backend/internal/domain/partner"
	"github.com/fieldservice/backend/internal/domain/shared"
	"github.com/fieldservice/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrMissingInvoiceID is returned for a successful payment event that
	// does not say which invoice it pays
	ErrMissingInvoiceID = shared.NewValidationError("MISSING_INVOICE_ID", "Missing invoice id")
	// ErrInvoiceNotFound is returned when the event names an unknown invoice
	ErrInvoiceNotFound = shared.NewNotFoundError("INVOICE_NOT_FOUND", "Invoice not found")
)

// PaymentEventResult is the acknowledgement returned for a payment event.
// Payment and Application are set only when this delivery credited the
// invoice; Job reflects the materialization state after the event.
type PaymentEventResult struct {
	Outcome     string
	InvoiceID   *uuid.UUID
	Payment     *billing.Payment
	Application *billing.PaymentApplication
	Job         *Materialization
}

// ReconciliationService applies provider payment events to invoices
// exactly once and materializes jobs from paid estimates.
type ReconciliationService struct {
	txScope      TransactionScope
	invoices     billing.InvoiceRepository
	payments     billing.PaymentRepository
	clients      partner.ClientRepository
	materializer *JobMaterializer
	notifier     *financeNotifier
	idempotency  shared.IdempotencyStore
	idemConfig   shared.IdempotencyConfig
	metrics      Metrics
	logger       *zap.Logger
	now          func() time.Time
}

// ReconciliationServiceConfig holds the dependencies of ReconciliationService
type ReconciliationServiceConfig struct {
	TxScope      TransactionScope
	Invoices     billing.InvoiceRepository
	Payments     billing.PaymentRepository
	Clients      partner.ClientRepository
	Users        identity.UserRepository
	Notifier     audit.Notifier
	Materializer *JobMaterializer
	// Idempotency is an optional fast path in front of the payments
	// uniqueness constraint
	Idempotency       shared.IdempotencyStore
	IdempotencyConfig shared.IdempotencyConfig
	Metrics           Metrics
	Logger            *zap.Logger
	Clock             func() time.Time
}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService(cfg ReconciliationServiceConfig) *ReconciliationService {
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
	idemConfig := cfg.IdempotencyConfig
	if idemConfig.TTL <= 0 {
		idemConfig = shared.DefaultIdempotencyConfig()
	}

	return &ReconciliationService{
		txScope:      cfg.TxScope,
		invoices:     cfg.Invoices,
		payments:     cfg.Payments,
		clients:      cfg.Clients,
		materializer: cfg.Materializer,
		notifier:     &financeNotifier{users: cfg.Users, notifier: cfg.Notifier, logger: logger},
		idempotency:  cfg.Idempotency,
		idemConfig:   idemConfig,
		metrics:      metrics,
		logger:       logger,
		now:          clock,
	}
}

// HandlePaymentEvent runs a normalized payment event through the
// reconciliation state machine:
//
//  1. non-success events are acknowledged and ignored
//  2. a transaction id already recorded for the tenant is a duplicate
//  3. the amount is the reported positive amount, else the open balance
//  4. the payment row and invoice update commit together under a row lock
//  5. an estimate-linked invoice with money paid gets its job ensured
//
// Duplicates skip steps 3 and 4 but still run step 5, so a redelivery after a
// failed materialization completes the work.
func (s *ReconciliationService) HandlePaymentEvent(ctx context.Context, evt billing.PaymentEvent) (*PaymentEventResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "reconciliation", "handle_event")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrProvider, evt.Provider,
		telemetry.SpanAttrInvoiceID, evt.InvoiceID,
		telemetry.SpanAttrTransactionID, evt.TransactionID,
	)

	if !evt.Success {
		s.logger.Info("Ignoring non-success payment event",
			zap.String("provider", evt.Provider),
			zap.String("invoice_id", evt.InvoiceID))
		s.metrics.RecordPaymentEvent(ctx, uuid.Nil, evt.Provider, OutcomeIgnored)
		telemetry.SetAttributes(span, telemetry.SpanAttrOutcome, OutcomeIgnored)
		return &PaymentEventResult{Outcome: OutcomeIgnored}, nil
	}

	if evt.InvoiceID == "" {
		telemetry.RecordError(span, ErrMissingInvoiceID)
		return nil, ErrMissingInvoiceID
	}
	invoiceID, err := uuid.Parse(evt.InvoiceID)
	if err != nil {
		telemetry.RecordError(span, ErrInvoiceNotFound)
		return nil, ErrInvoiceNotFound
	}

	inv, err := s.invoices.FindInvoice(ctx, invoiceID)
	if err != nil {
		if shared.IsNotFound(err) {
			telemetry.RecordError(span, ErrInvoiceNotFound)
			return nil, ErrInvoiceNotFound
		}
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("load invoice: %w", err)
	}
	tenantID := inv.TenantID
	telemetry.SetAttributes(span, telemetry.SpanAttrTenantID, tenantID.String())

	result := &PaymentEventResult{InvoiceID: &invoiceID}

	duplicate, err := s.isDuplicate(ctx, tenantID, evt)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if duplicate {
		result.Outcome = OutcomeDuplicate
	} else {
		applied, err := s.apply(ctx, inv, evt)
		switch {
		case errors.Is(err, billing.ErrPaymentAlreadyApplied):
			result.Outcome = OutcomeDuplicate
		case err != nil:
			s.metrics.RecordPaymentEvent(ctx, tenantID, evt.Provider, OutcomeFailed)
			telemetry.RecordError(span, err)
			s.logger.Error("Payment application failed",
				zap.String("tenant_id", tenantID.String()),
				zap.String("invoice_id", invoiceID.String()),
				zap.String("transaction_id", evt.TransactionID),
				zap.Error(err))
			return nil, err
		case applied == nil:
			result.Outcome = OutcomeNoBalance
		default:
			result.Outcome = OutcomeApplied
			result.Payment = applied.payment
			result.Application = &applied.application
			inv = applied.invoice
		}
	}

	if result.Outcome == OutcomeDuplicate {
		// reload so the materialization check sees the first delivery's credit
		if inv, err = s.invoices.FindInvoice(ctx, invoiceID); err != nil {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("reload invoice: %w", err)
		}
	}

	s.metrics.RecordPaymentEvent(ctx, tenantID, evt.Provider, result.Outcome)
	telemetry.SetAttributes(span, telemetry.SpanAttrOutcome, result.Outcome)

	if result.Outcome == OutcomeApplied {
		s.afterApplied(ctx, inv, result.Payment, evt)
	} else {
		s.logger.Info("Payment event acknowledged without credit",
			zap.String("tenant_id", tenantID.String()),
			zap.String("invoice_id", invoiceID.String()),
			zap.String("transaction_id", evt.TransactionID),
			zap.String("outcome", result.Outcome))
	}

	if inv.IsEstimateLinked() && inv.PaidAmount.IsPositive() && s.materializer != nil {
		m, err := s.materializer.Ensure(ctx, tenantID, *inv.EstimateID)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("materialize job: %w", err)
		}
		result.Job = m
	}

	return result, nil
}

func (s *ReconciliationService) idempotencyKey(tenantID uuid.UUID, txID string) string {
	return fmt.Sprintf("payment:%s:%s", tenantID, txID)
}

// isDuplicate checks the idempotency store and then the payments table.
// Store errors degrade to the database check.
func (s *ReconciliationService) isDuplicate(ctx context.Context, tenantID uuid.UUID, evt billing.PaymentEvent) (bool, error) {
	if !evt.HasTransactionID() {
		return false, nil
	}

	if s.idempotency != nil && s.idemConfig.Enabled {
		seen, err := s.idempotency.IsProcessed(ctx, s.idempotencyKey(tenantID, evt.TransactionID))
		if err != nil {
			s.logger.Warn("Idempotency store lookup failed",
				zap.String("transaction_id", evt.TransactionID),
				zap.Error(err))
		} else if seen {
			return true, nil
		}
	}

	exists, err := s.payments.ExistsByTransactionID(ctx, tenantID, evt.TransactionID)
	if err != nil {
		return false, fmt.Errorf("check payment transaction: %w", err)
	}
	return exists, nil
}

type appliedPayment struct {
	invoice     *billing.Invoice
	payment     *billing.Payment
	application billing.PaymentApplication
}

// apply credits the invoice inside one transaction. The invoice row is locked
// before the amount is resolved so concurrent events never read a stale
// balance. A nil result with nil error means nothing was owed.
func (s *ReconciliationService) apply(ctx context.Context, inv *billing.Invoice, evt billing.PaymentEvent) (*appliedPayment, error) {
	var out *appliedPayment
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		out = nil

		locked, err := repos.InvoiceRepo().FindInvoiceForUpdate(ctx, inv.TenantID, inv.ID)
		if err != nil {
			return fmt.Errorf("lock invoice: %w", err)
		}

		// a concurrent delivery of the same transaction may have committed
		// while this one waited for the lock
		if evt.HasTransactionID() {
			exists, err := repos.PaymentRepo().ExistsByTransactionID(ctx, inv.TenantID, evt.TransactionID)
			if err != nil {
				return fmt.Errorf("check payment transaction: %w", err)
			}
			if exists {
				return billing.ErrPaymentAlreadyApplied
			}
		}

		amount := locked.ResolvePaymentAmount(evt.Amount)
		if !amount.IsPositive() {
			return nil
		}

		now := s.now()
		payment := billing.NewCompletedPayment(locked, amount, evt.TransactionID, evt.Raw, now)
		if err := repos.PaymentRepo().CreatePayment(ctx, payment); err != nil {
			return err
		}

		application, err := locked.ApplyPayment(amount, evt.TransactionID, now)
		if err != nil {
			return err
		}
		if err := repos.InvoiceRepo().UpdatePaymentState(ctx, locked); err != nil {
			return fmt.Errorf("update invoice: %w", err)
		}

		out = &appliedPayment{invoice: locked, payment: payment, application: application}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// afterApplied runs the best-effort side effects of a fresh credit
func (s *ReconciliationService) afterApplied(ctx context.Context, inv *billing.Invoice, p *billing.Payment, evt billing.PaymentEvent) {
	s.logger.Info("Payment applied to invoice",
		zap.String("tenant_id", inv.TenantID.String()),
		zap.String("invoice_id", inv.ID.String()),
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.String("payment_id", p.ID.String()),
		zap.String("amount", p.Amount.String()),
		zap.String("balance", inv.Balance.String()),
		zap.String("status", string(inv.Status)))

	if evt.HasTransactionID() && s.idempotency != nil && s.idemConfig.Enabled {
		if _, err := s.idempotency.MarkProcessed(ctx, s.idempotencyKey(inv.TenantID, evt.TransactionID), s.idemConfig.TTL); err != nil {
			s.logger.Warn("Failed to mark payment transaction processed",
				zap.String("transaction_id", evt.TransactionID),
				zap.Error(err))
		}
	}

	clientName := "Client"
	if s.clients != nil {
		if client, err := s.clients.FindClient(ctx, inv.TenantID, inv.ClientID); err == nil {
			clientName = client.DisplayName()
		}
	}
	s.notifier.notify(ctx, inv.TenantID, audit.InvoicePaidMessage(inv.ID, inv.InvoiceNumber, clientName, p.Amount))
}
